package services_test

import (
	"math/rand"
	"net/url"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salesjourney/backend/internal/models"
	"github.com/salesjourney/backend/internal/services"
)

func TestDealReward(t *testing.T) {
	budget := decimal.NewFromInt(1000)

	tests := []struct {
		name      string
		buff      models.BuffType
		streak    int
		wantCoins int64
		wantXP    int64
	}{
		{name: "no buff", buff: "", streak: 0, wantCoins: 1000, wantXP: 100},
		{name: "shark multiplies", buff: models.BuffShark, streak: 0, wantCoins: 1500, wantXP: 150},
		{name: "woodpecker halves", buff: models.BuffWoodpecker, streak: 0, wantCoins: 500, wantXP: 50},
		{name: "zen keeps base", buff: models.BuffZen, streak: 0, wantCoins: 1000, wantXP: 100},
		{name: "streak bonus applies", buff: "", streak: 4, wantCoins: 1050, wantXP: 105},
		{name: "streak at threshold gets nothing", buff: "", streak: 3, wantCoins: 1000, wantXP: 100},
		{name: "shark with streak", buff: models.BuffShark, streak: 10, wantCoins: 1575, wantXP: 157},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coins, xp := services.DealReward(tt.buff, tt.streak, budget)
			assert.Equal(t, tt.wantCoins, coins)
			assert.Equal(t, tt.wantXP, xp)
		})
	}
}

func TestDealRewardNonPositiveBudget(t *testing.T) {
	coins, xp := services.DealReward(models.BuffShark, 10, decimal.NewFromInt(-500))
	assert.Zero(t, coins)
	assert.Zero(t, xp)

	coins, xp = services.DealReward(models.BuffZen, 4, decimal.Zero)
	assert.Zero(t, coins)
	assert.Zero(t, xp)
}

func TestCallReward(t *testing.T) {
	coins, xp := services.CallReward("", 120)
	assert.Equal(t, int64(120), coins)
	assert.Equal(t, int64(5), xp)

	coins, xp = services.CallReward(models.BuffWoodpecker, 120)
	assert.Equal(t, int64(180), coins)
	assert.Equal(t, int64(5), xp)

	coins, xp = services.CallReward(models.BuffShark, 120)
	assert.Equal(t, int64(60), coins)
	assert.Equal(t, int64(5), xp)
}

func TestCallRewardTooShort(t *testing.T) {
	coins, xp := services.CallReward(models.BuffWoodpecker, 9)
	assert.Zero(t, coins)
	assert.Zero(t, xp)
}

func TestAdvanceStreak(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	yesterday := day.AddDate(0, 0, -1)
	lastWeek := day.AddDate(0, 0, -7)

	assert.Equal(t, 1, services.AdvanceStreak(nil, 0, day), "first ever activity starts at 1")
	assert.Equal(t, 5, services.AdvanceStreak(&day, 5, day), "same day repeat keeps the streak")
	assert.Equal(t, 6, services.AdvanceStreak(&yesterday, 5, day), "consecutive day increments")
	assert.Equal(t, 1, services.AdvanceStreak(&lastWeek, 5, day), "gap resets to 1")
}

func TestScoreboardXP(t *testing.T) {
	assert.Equal(t, int64(30*10+2*500), services.ScoreboardXP("", 30, 2))
	assert.Equal(t, int64(30*20+2*250), services.ScoreboardXP(models.BuffWoodpecker, 30, 2))
	assert.Equal(t, int64(30*5+2*1000), services.ScoreboardXP(models.BuffShark, 30, 2))
	assert.Equal(t, int64(30*10+2*500+200), services.ScoreboardXP(models.BuffZen, 30, 2))
	assert.Equal(t, int64(200), services.ScoreboardXP(models.BuffZen, 0, 0), "zen pays its bonus even on an idle day")
}

func TestStreakScoreBonus(t *testing.T) {
	assert.Equal(t, int64(1000), services.StreakScoreBonus(1000, 0))
	assert.Equal(t, int64(1000), services.StreakScoreBonus(1000, 3))
	assert.Equal(t, int64(1050), services.StreakScoreBonus(1000, 4))
}

func TestDrawLootDistribution(t *testing.T) {
	table := []models.LootEntry{
		{Name: "Jackpot", Type: "coins", Amount: 500, Weight: 10},
		{Name: "Miss", Type: "miss", Weight: 90},
	}

	rng := rand.New(rand.NewSource(42))
	counts := map[string]int{}
	for i := 0; i < 10000; i++ {
		prize := services.DrawLoot(rng, table)
		require.NotNil(t, prize)
		counts[prize.Name]++
	}

	// 10% weight should land near 1000 draws out of 10000.
	assert.InDelta(t, 1000, counts["Jackpot"], 150)
	assert.Equal(t, 10000, counts["Jackpot"]+counts["Miss"])
}

func TestDrawLootEdgeCases(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	assert.Nil(t, services.DrawLoot(rng, nil))

	only := []models.LootEntry{{Name: "Sure Thing", Type: "coins", Amount: 10, Weight: 1}}
	prize := services.DrawLoot(rng, only)
	require.NotNil(t, prize)
	assert.Equal(t, "Sure Thing", prize.Name)
}

func TestDrawLootNonPositiveWeights(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	// Misconfigured weights fall back to 1 so every entry stays drawable.
	zeroed := []models.LootEntry{
		{Name: "First", Type: "coins", Amount: 10, Weight: 0},
		{Name: "Second", Type: "coins", Amount: 20, Weight: -3},
	}
	counts := map[string]int{}
	for i := 0; i < 1000; i++ {
		prize := services.DrawLoot(rng, zeroed)
		require.NotNil(t, prize)
		counts[prize.Name]++
	}
	assert.Positive(t, counts["First"])
	assert.Positive(t, counts["Second"])

	// A zero-weight entry next to real weights still shows up eventually.
	mixed := []models.LootEntry{
		{Name: "Rare", Type: "coins", Amount: 100, Weight: 0},
		{Name: "Common", Type: "coins", Amount: 1, Weight: 9},
	}
	counts = map[string]int{}
	for i := 0; i < 2000; i++ {
		prize := services.DrawLoot(rng, mixed)
		require.NotNil(t, prize)
		counts[prize.Name]++
	}
	assert.Positive(t, counts["Rare"])
	assert.Greater(t, counts["Common"], counts["Rare"])
}

func TestParseWebhookForm(t *testing.T) {
	form := url.Values{}
	form.Set("leads[status][0][id]", "101")
	form.Set("leads[status][0][status_id]", "142")
	form.Set("leads[status][0][price]", "2500.50")
	form.Set("leads[status][0][responsible_user_id]", "777")
	form.Set("leads[status][1][id]", "102")
	form.Set("leads[status][1][status_id]", "143")
	form.Set("leads[status][1][responsible_user_id]", "778")
	form.Set("calls[add][0][duration]", "95")
	form.Set("calls[add][0][responsible_user_id]", "777")
	form.Set("account[subdomain]", "example")

	deals, calls := services.ParseWebhookForm(form)

	require.Len(t, deals, 2)
	assert.Equal(t, int64(101), deals[0].LeadID)
	assert.Equal(t, 142, deals[0].StatusID)
	assert.Equal(t, "2500.50", deals[0].Price)
	assert.Equal(t, int64(777), deals[0].ResponsibleUserID)
	assert.Equal(t, 143, deals[1].StatusID)

	require.Len(t, calls, 1)
	assert.Equal(t, 95, calls[0].Duration)
	assert.Equal(t, int64(777), calls[0].ResponsibleUserID)
}

func TestParseWebhookFormEmpty(t *testing.T) {
	deals, calls := services.ParseWebhookForm(url.Values{})
	assert.Empty(t, deals)
	assert.Empty(t, calls)
}
