package services

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/salesjourney/backend/internal/events"
	"github.com/salesjourney/backend/internal/models"
	"github.com/salesjourney/backend/internal/repositories"
)

// RewardService runs the two daily jobs: the night snapshot that freezes
// yesterday's results, and the morning credit that pays them out and arms
// the reward modal.
type RewardService struct {
	gamRepo   *repositories.GamificationRepository
	statsRepo *repositories.StatsRepository
	userRepo  *repositories.UserRepository
	publisher events.Publisher
}

func NewRewardService(gamRepo *repositories.GamificationRepository, statsRepo *repositories.StatsRepository, userRepo *repositories.UserRepository, publisher events.Publisher) *RewardService {
	return &RewardService{
		gamRepo:   gamRepo,
		statsRepo: statsRepo,
		userRepo:  userRepo,
		publisher: publisher,
	}
}

// RunNightlySnapshot freezes the given day's synced stats into each
// profile's last_reward_data and writes the company highlight stories.
// Runs right after midnight for the day that just ended.
func (s *RewardService) RunNightlySnapshot(ctx context.Context, day time.Time) error {
	stats, err := s.statsRepo.ListByDate(ctx, day)
	if err != nil {
		return err
	}

	type topEntry struct {
		userID    uuid.UUID
		companyID uuid.UUID
		value     float64
	}
	topCalls := map[uuid.UUID]topEntry{}
	topConv := map[uuid.UUID]topEntry{}
	topWins := map[uuid.UUID]topEntry{}

	for _, stat := range stats {
		user, err := s.userRepo.FindByID(ctx, stat.UserID)
		if err != nil || user == nil || user.CompanyID == nil {
			continue
		}
		companyID := *user.CompanyID

		profile, err := s.gamRepo.GetProfileByUserID(ctx, stat.UserID)
		if err != nil {
			log.Printf("reward: profile for %s: %v", stat.UserID, err)
			continue
		}
		if profile == nil {
			profile = &models.GamificationProfile{UserID: stat.UserID}
			if err := s.gamRepo.CreateProfile(ctx, profile); err != nil {
				continue
			}
		}

		var buff models.BuffType
		if daily, err := s.gamRepo.GetBuff(ctx, stat.UserID, day); err == nil && daily != nil {
			buff = daily.BuffType
		}

		dayXP := StreakScoreBonus(ScoreboardXP(buff, stat.CallsCount, stat.LeadsWon), profile.CurrentStreak)
		profile.LastRewardData = map[string]any{
			"date":  day.Format("2006-01-02"),
			"calls": stat.CallsCount,
			"sales": stat.LeadsWon,
			"buff":  string(buff),
			"xp":    dayXP,
			"coins": dayXP / 10,
		}
		if err := s.gamRepo.SaveProfile(ctx, profile); err != nil {
			log.Printf("reward: snapshot for %s: %v", stat.UserID, err)
			continue
		}

		if entry, ok := topCalls[companyID]; !ok || float64(stat.CallsCount) > entry.value {
			topCalls[companyID] = topEntry{stat.UserID, companyID, float64(stat.CallsCount)}
		}
		if closed := stat.LeadsWon + stat.LeadsLost; closed > 0 {
			if entry, ok := topConv[companyID]; !ok || stat.Conversion() > entry.value {
				topConv[companyID] = topEntry{stat.UserID, companyID, stat.Conversion()}
			}
		}
		if stat.LeadsWon > 0 {
			if entry, ok := topWins[companyID]; !ok || float64(stat.LeadsWon) > entry.value {
				topWins[companyID] = topEntry{stat.UserID, companyID, float64(stat.LeadsWon)}
			}
		}
	}

	write := func(storyType string, entries map[uuid.UUID]topEntry) {
		for _, entry := range entries {
			if entry.value == 0 {
				continue
			}
			story := &models.DailyStory{
				CompanyID: entry.companyID,
				UserID:    entry.userID,
				StoryType: storyType,
				Value:     entry.value,
				Date:      day,
			}
			if err := s.gamRepo.CreateDailyStory(ctx, story); err != nil {
				log.Printf("reward: story %s: %v", storyType, err)
			}
		}
	}
	write("CALLS", topCalls)
	write("CONV", topConv)
	write("WINS", topWins)

	log.Printf("nightly snapshot done for %s, %d stat rows", day.Format("2006-01-02"), len(stats))
	return nil
}

// RunMorningCredit pays out every frozen snapshot and arms the one-shot
// reward modal.
func (s *RewardService) RunMorningCredit(ctx context.Context) error {
	profiles, err := s.gamRepo.ListProfilesWithReward(ctx)
	if err != nil {
		return err
	}

	credited := 0
	for i := range profiles {
		profile := &profiles[i]
		xp := asInt64(profile.LastRewardData["xp"])
		coins := asInt64(profile.LastRewardData["coins"])

		profile.XP += xp
		profile.Coins += coins
		profile.ShowRewardModal = true
		if err := s.gamRepo.SaveProfile(ctx, profile); err != nil {
			log.Printf("reward: credit %s: %v", profile.UserID, err)
			continue
		}
		if coins > 0 {
			tx := &models.Transaction{
				UserID: profile.UserID,
				Amount: coins,
				Reason: "Daily reward",
			}
			if err := s.gamRepo.CreateTransaction(ctx, tx); err != nil {
				log.Printf("reward: transaction %s: %v", profile.UserID, err)
			}
		}
		credited++
	}

	s.publisher.Publish(ctx, events.TopicAdmin, events.Message{
		Type:    "MORNING_CREDIT_DONE",
		Payload: map[string]any{"credited": credited},
	})
	log.Printf("morning credit done, %d profiles", credited)
	return nil
}

// asInt64 reads a numeric snapshot field. JSONB round-trips numbers as
// float64.
func asInt64(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	default:
		return 0
	}
}

// Scheduler drives the daily jobs.
type Scheduler struct {
	cron   *cron.Cron
	reward *RewardService
}

func NewScheduler(reward *RewardService) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		reward: reward,
	}
}

// Start registers the snapshot at 00:01 for the day that just ended and
// the credit run at 08:00.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc("1 0 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		yesterday := today().AddDate(0, 0, -1)
		if err := s.reward.RunNightlySnapshot(ctx, yesterday); err != nil {
			log.Printf("nightly snapshot: %v", err)
		}
	})
	if err != nil {
		return err
	}

	_, err = s.cron.AddFunc("0 8 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if err := s.reward.RunMorningCredit(ctx); err != nil {
			log.Printf("morning credit: %v", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}
