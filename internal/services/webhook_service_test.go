package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/salesjourney/backend/internal/amocrm"
)

// Deals that cannot pay out must be dropped before any storage work, so a
// bare service with no repositories is enough to exercise the guards.
func TestHandleDealSkipsWorthlessDeals(t *testing.T) {
	s := &WebhookService{}
	ctx := context.Background()

	tests := []struct {
		name string
		deal DealEvent
	}{
		{name: "lost deal", deal: DealEvent{LeadID: 1, StatusID: amocrm.LostStatusID, Price: "1000"}},
		{name: "zero budget", deal: DealEvent{LeadID: 2, StatusID: amocrm.WonStatusID, Price: "0"}},
		{name: "negative budget", deal: DealEvent{LeadID: 3, StatusID: amocrm.WonStatusID, Price: "-250"}},
		{name: "unparseable budget", deal: DealEvent{LeadID: 4, StatusID: amocrm.WonStatusID, Price: "free"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, s.handleDeal(ctx, tt.deal))
		})
	}
}
