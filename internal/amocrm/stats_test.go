package amocrm_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salesjourney/backend/internal/amocrm"
)

// Wednesday afternoon, so week boundaries are unambiguous.
var statsNow = time.Date(2026, 3, 11, 15, 30, 0, 0, time.UTC)

func TestResolvePeriodToday(t *testing.T) {
	p := amocrm.ResolvePeriod("today", "", "", statsNow)
	assert.Equal(t, "today", p.Label)
	assert.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC).Unix(), p.From)
	assert.Equal(t, statsNow.Unix(), p.To)
	assert.Equal(t, 0, p.Days)
}

func TestResolvePeriodThisWeek(t *testing.T) {
	p := amocrm.ResolvePeriod("this_week", "", "", statsNow)
	assert.Equal(t, "this_week", p.Label)
	assert.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC).Unix(), p.From, "week starts on Monday")
	assert.Equal(t, statsNow.Unix(), p.To)
}

func TestResolvePeriodLastWeek(t *testing.T) {
	p := amocrm.ResolvePeriod("last_week", "", "", statsNow)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC).Unix(), p.From)
	assert.Equal(t, time.Date(2026, 3, 8, 23, 59, 59, 0, time.UTC).Unix(), p.To)
	assert.Equal(t, 7, p.Days)
}

func TestResolvePeriodPrevLastWeek(t *testing.T) {
	p := amocrm.ResolvePeriod("prev_last_week", "", "", statsNow)
	assert.Equal(t, time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC).Unix(), p.From)
	assert.Equal(t, time.Date(2026, 3, 1, 23, 59, 59, 0, time.UTC).Unix(), p.To)
}

func TestResolvePeriodCustom(t *testing.T) {
	from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC).Unix()
	to := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC).Unix()

	p := amocrm.ResolvePeriod("custom", fmt.Sprint(from), fmt.Sprint(to), statsNow)
	assert.Equal(t, "custom", p.Label)
	assert.Equal(t, from, p.From)
	assert.Equal(t, time.Date(2026, 2, 10, 23, 59, 59, 0, time.UTC).Unix(), p.To, "upper bound stretches to end of day")
}

func TestResolvePeriodFallsBackToThisWeek(t *testing.T) {
	for _, rng := range []string{"", "bogus", "custom"} {
		p := amocrm.ResolvePeriod(rng, "", "", statsNow)
		assert.Equal(t, "this_week", p.Label, "range %q", rng)
	}
}

func sampleRows() []amocrm.UserRow {
	return []amocrm.UserRow{
		{UserID: 1, DisplayName: "Anna", Created: 10, Won: 5, Lost: 2, Conv: 50},
		{UserID: 2, DisplayName: "Boris", Created: 20, Won: 8, Lost: 10, Conv: 40},
		{UserID: 3, DisplayName: "Clara", Created: 4, Won: 1, Lost: 0, Conv: 25},
	}
}

func TestApplyViewFiltersDefaultSort(t *testing.T) {
	rows := amocrm.ApplyViewFilters(sampleRows(), "", 0, "")
	require.Len(t, rows, 3)
	assert.Equal(t, "Boris", rows[0].DisplayName)
	assert.Equal(t, "Anna", rows[1].DisplayName)
	assert.Equal(t, "Clara", rows[2].DisplayName)
}

func TestApplyViewFiltersConvSort(t *testing.T) {
	rows := amocrm.ApplyViewFilters(sampleRows(), "conv_desc", 0, "")
	assert.Equal(t, "Anna", rows[0].DisplayName)
	assert.Equal(t, "Boris", rows[1].DisplayName)
}

func TestApplyViewFiltersLostAsc(t *testing.T) {
	rows := amocrm.ApplyViewFilters(sampleRows(), "lost_asc", 0, "")
	assert.Equal(t, "Clara", rows[0].DisplayName)
}

func TestApplyViewFiltersNameAsc(t *testing.T) {
	rows := amocrm.ApplyViewFilters(sampleRows(), "name_asc", 0, "")
	assert.Equal(t, "Anna", rows[0].DisplayName)
	assert.Equal(t, "Clara", rows[2].DisplayName)
}

func TestApplyViewFiltersMinTotal(t *testing.T) {
	rows := amocrm.ApplyViewFilters(sampleRows(), "", 5, "")
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.GreaterOrEqual(t, r.Won+r.Lost, 5)
	}
}

func TestApplyViewFiltersNameQuery(t *testing.T) {
	rows := amocrm.ApplyViewFilters(sampleRows(), "", 0, "bOr")
	require.Len(t, rows, 1)
	assert.Equal(t, "Boris", rows[0].DisplayName)
}

func TestComputeStats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v4/users":
			fmt.Fprint(w, `{"_embedded":{"users":[
				{"id":1,"name":"Anna","email":"anna@example.com"},
				{"id":2,"name":"Boris","email":"boris@example.com"}
			]}}`)
		case "/api/v4/leads":
			if r.URL.Query().Has("filter[created_at][from]") {
				fmt.Fprint(w, `{"_embedded":{"leads":[
					{"id":11,"responsible_user_id":1,"status_id":10},
					{"id":12,"responsible_user_id":1,"status_id":10},
					{"id":13,"responsible_user_id":2,"status_id":10},
					{"id":14,"responsible_user_id":2,"status_id":10}
				]}}`)
				return
			}
			fmt.Fprint(w, `{"_embedded":{"leads":[
				{"id":11,"responsible_user_id":1,"status_id":142},
				{"id":13,"responsible_user_id":2,"status_id":143}
			]}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := &amocrm.Client{BaseURL: srv.URL, Token: "token", HTTP: srv.Client()}
	summary, err := amocrm.ComputeStats(context.Background(), client, 0, statsNow.Unix())
	require.NoError(t, err)

	assert.Equal(t, 4, summary.CreatedCount)
	assert.Equal(t, 1, summary.WonCount)
	assert.Equal(t, 1, summary.LostCount)
	assert.Equal(t, 25, summary.OverallConversion)

	require.Len(t, summary.Rows, 2)
	byName := map[string]amocrm.UserRow{}
	for _, r := range summary.Rows {
		byName[r.DisplayName] = r
	}
	assert.Equal(t, 50, byName["Anna"].Conv)
	assert.Equal(t, 1, byName["Anna"].Won)
	assert.Equal(t, 1, byName["Boris"].Lost)
	assert.Equal(t, 0, byName["Boris"].Conv)
}

func TestComputeStatsPropagatesUserFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `not json`)
	}))
	defer srv.Close()

	client := &amocrm.Client{BaseURL: srv.URL, Token: "token", HTTP: srv.Client()}
	_, err := amocrm.ComputeStats(context.Background(), client, 0, 1)
	assert.Error(t, err)
}
