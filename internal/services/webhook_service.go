package services

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/salesjourney/backend/internal/amocrm"
	"github.com/salesjourney/backend/internal/events"
	"github.com/salesjourney/backend/internal/models"
	"github.com/salesjourney/backend/internal/repositories"
)

// Calls shorter than this are noise and earn nothing.
const minRewardedCallSeconds = 10

// streakMultiplier applies once the streak passes streakBonusThreshold.
var streakMultiplier = decimal.NewFromFloat(1.05)

// DealEvent is one lead status change from the webhook form.
type DealEvent struct {
	LeadID            int64
	StatusID          int
	Price             string
	ResponsibleUserID int64
}

// CallEvent is one logged call from the webhook form.
type CallEvent struct {
	Duration          int
	ResponsibleUserID int64
}

var webhookKeyRe = regexp.MustCompile(`^(leads|calls)\[(status|add|update)\]\[(\d+)\]\[(\w+)\]$`)

// ParseWebhookForm decodes AmoCRM's form-encoded webhook body. Keys look
// like leads[status][0][status_id] and calls[add][0][duration]. Unknown
// keys are skipped.
func ParseWebhookForm(form url.Values) ([]DealEvent, []CallEvent) {
	deals := map[int]*DealEvent{}
	calls := map[int]*CallEvent{}

	for key, vals := range form {
		if len(vals) == 0 {
			continue
		}
		m := webhookKeyRe.FindStringSubmatch(key)
		if m == nil {
			continue
		}
		idx, _ := strconv.Atoi(m[3])
		value := vals[0]

		switch m[1] {
		case "leads":
			deal := deals[idx]
			if deal == nil {
				deal = &DealEvent{}
				deals[idx] = deal
			}
			switch m[4] {
			case "id":
				deal.LeadID, _ = strconv.ParseInt(value, 10, 64)
			case "status_id":
				deal.StatusID, _ = strconv.Atoi(value)
			case "price":
				deal.Price = value
			case "responsible_user_id":
				deal.ResponsibleUserID, _ = strconv.ParseInt(value, 10, 64)
			}
		case "calls":
			call := calls[idx]
			if call == nil {
				call = &CallEvent{}
				calls[idx] = call
			}
			switch m[4] {
			case "duration":
				call.Duration, _ = strconv.Atoi(value)
			case "responsible_user_id":
				call.ResponsibleUserID, _ = strconv.ParseInt(value, 10, 64)
			}
		}
	}

	dealList := make([]DealEvent, 0, len(deals))
	for i := 0; i < len(deals); i++ {
		if deal := deals[i]; deal != nil {
			dealList = append(dealList, *deal)
		}
	}
	callList := make([]CallEvent, 0, len(calls))
	for i := 0; i < len(calls); i++ {
		if call := calls[i]; call != nil {
			callList = append(callList, *call)
		}
	}
	return dealList, callList
}

// DealReward computes coins and XP for a closed-won deal. The buff scales
// the budget-based coin payout, a long streak adds 5 percent, and XP is a
// tenth of the coins.
func DealReward(buff models.BuffType, streak int, budget decimal.Decimal) (int64, int64) {
	if budget.IsNegative() {
		budget = decimal.Zero
	}

	coins := budget
	switch buff {
	case models.BuffShark:
		coins = coins.Mul(decimal.NewFromFloat(1.5))
	case models.BuffWoodpecker:
		coins = coins.Mul(decimal.NewFromFloat(0.5))
	}
	if streak > streakBonusThreshold {
		coins = coins.Mul(streakMultiplier)
	}

	coinsInt := coins.IntPart()
	xp := coinsInt / 10
	return coinsInt, xp
}

// CallReward computes coins and XP for a finished call. Coins scale with
// talk time, the buff flips which activity pays, and every rewarded call
// grants a flat 5 XP.
func CallReward(buff models.BuffType, durationSeconds int) (int64, int64) {
	if durationSeconds < minRewardedCallSeconds {
		return 0, 0
	}

	coins := decimal.NewFromInt(int64(durationSeconds))
	switch buff {
	case models.BuffWoodpecker:
		coins = coins.Mul(decimal.NewFromFloat(1.5))
	case models.BuffShark:
		coins = coins.Mul(decimal.NewFromFloat(0.5))
	}
	return coins.IntPart(), 5
}

// AdvanceStreak updates the run of consecutive active days given the new
// activity happening today. Returns the new streak.
func AdvanceStreak(lastActivity *time.Time, streak int, today time.Time) int {
	if lastActivity == nil {
		return 1
	}
	last := time.Date(lastActivity.Year(), lastActivity.Month(), lastActivity.Day(), 0, 0, 0, 0, today.Location())
	switch {
	case last.Equal(today):
		return streak
	case last.Equal(today.AddDate(0, 0, -1)):
		return streak + 1
	default:
		return 1
	}
}

type WebhookService struct {
	amoRepo       *repositories.AmoCRMRepository
	gamRepo       *repositories.GamificationRepository
	challengeRepo *repositories.ChallengeRepository
	userRepo      *repositories.UserRepository
	feedRepo      *repositories.FeedRepository
	redisRepo     *repositories.RedisRepository
	publisher     events.Publisher
}

func NewWebhookService(amoRepo *repositories.AmoCRMRepository, gamRepo *repositories.GamificationRepository, challengeRepo *repositories.ChallengeRepository, userRepo *repositories.UserRepository, feedRepo *repositories.FeedRepository, redisRepo *repositories.RedisRepository, publisher events.Publisher) *WebhookService {
	return &WebhookService{
		amoRepo:       amoRepo,
		gamRepo:       gamRepo,
		challengeRepo: challengeRepo,
		userRepo:      userRepo,
		feedRepo:      feedRepo,
		redisRepo:     redisRepo,
		publisher:     publisher,
	}
}

// seenBefore dedupes redelivered webhook events when Redis is configured.
// Without Redis every delivery is treated as fresh.
func (s *WebhookService) seenBefore(ctx context.Context, key string) bool {
	if s.redisRepo == nil {
		return false
	}
	fresh, err := s.redisRepo.ClaimWebhookEvent(ctx, key)
	if err != nil {
		log.Printf("webhook: dedupe check failed: %v", err)
		return false
	}
	return !fresh
}

// Handle processes a webhook body. Errors are logged and swallowed so the
// CRM always gets a 200 and doesn't retry or disable the hook.
func (s *WebhookService) Handle(ctx context.Context, form url.Values) {
	deals, calls := ParseWebhookForm(form)

	for _, deal := range deals {
		if err := s.handleDeal(ctx, deal); err != nil {
			log.Printf("webhook: deal %d: %v", deal.LeadID, err)
		}
	}
	for _, call := range calls {
		if err := s.handleCall(ctx, call); err != nil {
			log.Printf("webhook: call by %d: %v", call.ResponsibleUserID, err)
		}
	}
}

func (s *WebhookService) handleDeal(ctx context.Context, deal DealEvent) error {
	if deal.StatusID != amocrm.WonStatusID {
		return nil
	}
	if s.seenBefore(ctx, fmt.Sprintf("lead:%d:%d", deal.LeadID, deal.StatusID)) {
		return nil
	}

	budget, err := decimal.NewFromString(deal.Price)
	if err != nil {
		budget = decimal.Zero
	}
	// Free or bogus-priced wins earn nothing and stay out of challenges
	// and the feed.
	if !budget.IsPositive() {
		return nil
	}

	mapping, err := s.amoRepo.FindUserMapByAmoID(ctx, deal.ResponsibleUserID)
	if err != nil || mapping == nil {
		return err
	}

	profile, buff, err := s.loadProfileAndBuff(ctx, mapping.PlatformUserID)
	if err != nil {
		return err
	}

	coins, xp := DealReward(buff, profile.CurrentStreak, budget)
	if err := s.credit(ctx, profile, coins, xp, fmt.Sprintf("Deal won (lead %d)", deal.LeadID)); err != nil {
		return err
	}

	s.creditChallenges(ctx, mapping.CompanyID, mapping.PlatformUserID, models.GoalSalesCount, 1)
	s.creditChallenges(ctx, mapping.CompanyID, mapping.PlatformUserID, models.GoalSalesVolume, budget.IntPart())

	s.announce(ctx, mapping.CompanyID, mapping.PlatformUserID, "DEAL_WON", coins)
	return nil
}

func (s *WebhookService) handleCall(ctx context.Context, call CallEvent) error {
	mapping, err := s.amoRepo.FindUserMapByAmoID(ctx, call.ResponsibleUserID)
	if err != nil || mapping == nil {
		return err
	}

	profile, buff, err := s.loadProfileAndBuff(ctx, mapping.PlatformUserID)
	if err != nil {
		return err
	}

	coins, xp := CallReward(buff, call.Duration)
	if coins == 0 && xp == 0 {
		return nil
	}
	if err := s.credit(ctx, profile, coins, xp, fmt.Sprintf("Call %ds", call.Duration)); err != nil {
		return err
	}

	s.creditChallenges(ctx, mapping.CompanyID, mapping.PlatformUserID, models.GoalCallsCount, 1)
	return nil
}

func (s *WebhookService) loadProfileAndBuff(ctx context.Context, userID uuid.UUID) (*models.GamificationProfile, models.BuffType, error) {
	profile, err := s.gamRepo.GetProfileByUserID(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	if profile == nil {
		profile = &models.GamificationProfile{UserID: userID}
		if err := s.gamRepo.CreateProfile(ctx, profile); err != nil {
			return nil, "", err
		}
	}

	var buff models.BuffType
	if daily, err := s.gamRepo.GetBuff(ctx, userID, today()); err == nil && daily != nil {
		buff = daily.BuffType
	}
	return profile, buff, nil
}

// credit applies coins and XP, bumps the streak and writes the ledger entry.
func (s *WebhookService) credit(ctx context.Context, profile *models.GamificationProfile, coins, xp int64, reason string) error {
	day := today()
	profile.CurrentStreak = AdvanceStreak(profile.LastActivityDate, profile.CurrentStreak, day)
	profile.LastActivityDate = &day
	profile.Coins += coins
	profile.XP += xp

	if err := s.gamRepo.SaveProfile(ctx, profile); err != nil {
		return err
	}
	if coins == 0 {
		return nil
	}
	return s.gamRepo.CreateTransaction(ctx, &models.Transaction{
		UserID: profile.UserID,
		Amount: coins,
		Reason: reason,
	})
}

func (s *WebhookService) creditChallenges(ctx context.Context, companyID, userID uuid.UUID, goal models.ChallengeGoalType, delta int64) {
	if delta <= 0 {
		return
	}
	challenges, err := s.challengeRepo.ListActive(ctx, companyID, goal, today())
	if err != nil {
		log.Printf("webhook: list challenges: %v", err)
		return
	}
	for _, ch := range challenges {
		if err := s.challengeRepo.AddProgress(ctx, ch.ID, userID, delta); err != nil {
			log.Printf("webhook: challenge %s progress: %v", ch.ID, err)
		}
	}
}

func (s *WebhookService) announce(ctx context.Context, companyID, userID uuid.UUID, eventType string, coins int64) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil || user == nil {
		return
	}

	event := &models.FeedEvent{
		CompanyID: companyID,
		UserID:    userID,
		EventType: eventType,
		Message:   fmt.Sprintf("%s closed a deal and earned %d coins!", user.DisplayName(), coins),
		Metadata:  map[string]any{"coins": coins},
	}
	if err := s.feedRepo.CreateEvent(ctx, event); err != nil {
		return
	}

	s.publisher.Publish(ctx, events.TopicFeed, events.Message{
		Type:      eventType,
		CompanyID: companyID.String(),
		UserID:    userID.String(),
		Payload:   event.Metadata,
	})
}
