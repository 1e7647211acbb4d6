package amocrm_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salesjourney/backend/internal/amocrm"
)

func TestStateRoundTrip(t *testing.T) {
	payload := amocrm.StatePayload{
		CompanyID: uuid.New(),
		Timestamp: time.Now().Unix(),
	}

	state, err := amocrm.EncodeState("top-secret", payload)
	require.NoError(t, err)
	require.NotEmpty(t, state)

	decoded, err := amocrm.DecodeState("top-secret", state)
	require.NoError(t, err)
	assert.Equal(t, payload.CompanyID, decoded.CompanyID)
	assert.Equal(t, payload.Timestamp, decoded.Timestamp)
}

func TestStateRejectsWrongSecret(t *testing.T) {
	state, err := amocrm.EncodeState("secret-a", amocrm.StatePayload{CompanyID: uuid.New(), Timestamp: 1})
	require.NoError(t, err)

	_, err = amocrm.DecodeState("secret-b", state)
	assert.Error(t, err)
}

func TestStateRejectsTampering(t *testing.T) {
	state, err := amocrm.EncodeState("top-secret", amocrm.StatePayload{CompanyID: uuid.New(), Timestamp: 1})
	require.NoError(t, err)

	// Flip a character in the encoded blob.
	tampered := []byte(state)
	if tampered[3] == 'A' {
		tampered[3] = 'B'
	} else {
		tampered[3] = 'A'
	}

	_, err = amocrm.DecodeState("top-secret", string(tampered))
	assert.Error(t, err)
}

func TestStateRejectsGarbage(t *testing.T) {
	_, err := amocrm.DecodeState("top-secret", "not a state ~~~")
	assert.Error(t, err)

	_, err = amocrm.DecodeState("top-secret", "aGVsbG8")
	assert.Error(t, err)
}
