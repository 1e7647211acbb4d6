package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/salesjourney/backend/internal/models"
	"github.com/salesjourney/backend/internal/repositories"
)

var ErrBuffAlreadyChosen = errors.New("buff already chosen for today")

// Streaks longer than this get the coin multiplier.
const streakBonusThreshold = 3

type GamificationService struct {
	gamRepo       *repositories.GamificationRepository
	challengeRepo *repositories.ChallengeRepository
	userRepo      *repositories.UserRepository
}

func NewGamificationService(gamRepo *repositories.GamificationRepository, challengeRepo *repositories.ChallengeRepository, userRepo *repositories.UserRepository) *GamificationService {
	return &GamificationService{
		gamRepo:       gamRepo,
		challengeRepo: challengeRepo,
		userRepo:      userRepo,
	}
}

// ChooseBuff locks in today's strategy. One pick per day, no changes.
func (s *GamificationService) ChooseBuff(ctx context.Context, userID uuid.UUID, buff models.BuffType) (*models.DailyBuff, error) {
	existing, err := s.gamRepo.GetBuff(ctx, userID, today())
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrBuffAlreadyChosen
	}

	daily := &models.DailyBuff{
		UserID:   userID,
		Date:     today(),
		BuffType: buff,
	}
	if err := s.gamRepo.CreateBuff(ctx, daily); err != nil {
		return nil, err
	}

	// Picking a buff counts as showing up for the day.
	profile, err := s.gamRepo.GetProfileByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		profile = &models.GamificationProfile{UserID: userID}
		if err := s.gamRepo.CreateProfile(ctx, profile); err != nil {
			return nil, err
		}
	}
	day := today()
	profile.CurrentStreak = AdvanceStreak(profile.LastActivityDate, profile.CurrentStreak, day)
	profile.LastActivityDate = &day
	if err := s.gamRepo.SaveProfile(ctx, profile); err != nil {
		return nil, err
	}
	return daily, nil
}

// SquadGoal is the company challenge closing soonest, with the viewer's
// own contribution and the team total.
type SquadGoal struct {
	Challenge *models.Challenge `json:"challenge"`
	MyValue   int64             `json:"my_value"`
	TeamValue int64             `json:"team_value"`
	Percent   int               `json:"percent"`
}

// Status is the gamification block of the dashboard.
type Status struct {
	Coins         int64            `json:"coins"`
	XP            int64            `json:"xp"`
	Level         int              `json:"level"`
	CurrentStreak int              `json:"current_streak"`
	StreakBonus   bool             `json:"streak_bonus_active"`
	TodayBuff     *models.BuffType `json:"today_buff,omitempty"`
	SquadGoal     *SquadGoal       `json:"squad_goal,omitempty"`
}

func (s *GamificationService) GetStatus(ctx context.Context, userID uuid.UUID) (*Status, error) {
	profile, err := s.gamRepo.GetProfileByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		profile = &models.GamificationProfile{UserID: userID}
		if err := s.gamRepo.CreateProfile(ctx, profile); err != nil {
			return nil, err
		}
	}

	// A streak is only shown while it is still alive: no activity since
	// before yesterday means it reads as zero until the next action.
	displayStreak := profile.CurrentStreak
	if profile.LastActivityDate == nil {
		displayStreak = 0
	} else {
		last := time.Date(profile.LastActivityDate.Year(), profile.LastActivityDate.Month(), profile.LastActivityDate.Day(), 0, 0, 0, 0, time.Now().Location())
		if last.Before(today().AddDate(0, 0, -1)) {
			displayStreak = 0
		}
	}

	status := &Status{
		Coins:         profile.Coins,
		XP:            profile.XP,
		Level:         profile.Level(),
		CurrentStreak: displayStreak,
		StreakBonus:   displayStreak > streakBonusThreshold,
	}

	if buff, err := s.gamRepo.GetBuff(ctx, userID, today()); err == nil && buff != nil {
		status.TodayBuff = &buff.BuffType
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user != nil && user.CompanyID != nil {
		goal, err := s.squadGoal(ctx, *user.CompanyID, userID)
		if err != nil {
			return nil, err
		}
		status.SquadGoal = goal
	}
	return status, nil
}

func (s *GamificationService) squadGoal(ctx context.Context, companyID, userID uuid.UUID) (*SquadGoal, error) {
	challenge, err := s.challengeRepo.GetNearestActive(ctx, companyID, today())
	if err != nil {
		return nil, err
	}
	if challenge == nil {
		return nil, nil
	}

	goal := &SquadGoal{Challenge: challenge}
	if progress, err := s.challengeRepo.GetProgress(ctx, challenge.ID, userID); err == nil && progress != nil {
		goal.MyValue = progress.CurrentValue
	}
	total, err := s.challengeRepo.SumProgress(ctx, challenge.ID)
	if err != nil {
		return nil, err
	}
	goal.TeamValue = total
	if challenge.GoalValue > 0 {
		goal.Percent = int(total * 100 / challenge.GoalValue)
		if goal.Percent > 100 {
			goal.Percent = 100
		}
	}
	return goal, nil
}

// Stories returns today's company highlights for the feed strip.
func (s *GamificationService) Stories(ctx context.Context, companyID uuid.UUID) ([]StoryView, error) {
	stories, err := s.gamRepo.ListStoriesByCompanyAndDate(ctx, companyID, today())
	if err != nil {
		return nil, err
	}

	views := make([]StoryView, 0, len(stories))
	for _, story := range stories {
		view := StoryView{DailyStory: story}
		if user, err := s.userRepo.FindByID(ctx, story.UserID); err == nil && user != nil {
			view.Username = user.DisplayName()
		}
		views = append(views, view)
	}
	return views, nil
}

type StoryView struct {
	models.DailyStory
	Username string `json:"username"`
}
