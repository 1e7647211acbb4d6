package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/salesjourney/backend/internal/models"
	"github.com/salesjourney/backend/internal/repositories"
)

type ChallengeService struct {
	challengeRepo *repositories.ChallengeRepository
}

func NewChallengeService(challengeRepo *repositories.ChallengeRepository) *ChallengeService {
	return &ChallengeService{challengeRepo: challengeRepo}
}

// CreateChallengeInput is validated before a challenge goes live.
type CreateChallengeInput struct {
	CompanyID   uuid.UUID
	Name        string
	Description string
	StartDate   time.Time
	EndDate     time.Time
	GoalType    models.ChallengeGoalType
	GoalValue   int64
	Mode        models.ChallengeMode
}

func (s *ChallengeService) Create(ctx context.Context, in CreateChallengeInput) (*models.Challenge, error) {
	if in.Name == "" {
		return nil, errors.New("challenge name is required")
	}
	if in.GoalValue <= 0 {
		return nil, errors.New("goal value must be positive")
	}
	if in.EndDate.Before(in.StartDate) {
		return nil, errors.New("end date is before start date")
	}

	challenge := &models.Challenge{
		CompanyID:   in.CompanyID,
		Name:        in.Name,
		Description: in.Description,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		GoalType:    in.GoalType,
		GoalValue:   in.GoalValue,
		Mode:        in.Mode,
		IsActive:    true,
	}
	if err := s.challengeRepo.Create(ctx, challenge); err != nil {
		return nil, err
	}
	return challenge, nil
}

// ChallengeView is a challenge with its leaderboard and completion state.
type ChallengeView struct {
	models.Challenge
	TeamValue   int64                        `json:"team_value"`
	Completed   bool                         `json:"completed"`
	Leaderboard []repositories.ProgressEntry `json:"leaderboard"`
}

func (s *ChallengeService) List(ctx context.Context, companyID uuid.UUID) ([]ChallengeView, error) {
	challenges, err := s.challengeRepo.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}

	views := make([]ChallengeView, 0, len(challenges))
	for _, ch := range challenges {
		view, err := s.buildView(ctx, ch)
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, nil
}

func (s *ChallengeService) Get(ctx context.Context, companyID, challengeID uuid.UUID) (*ChallengeView, error) {
	challenge, err := s.challengeRepo.GetByID(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if challenge == nil || challenge.CompanyID != companyID {
		return nil, errors.New("challenge not found")
	}
	return s.buildView(ctx, *challenge)
}

// NearestActive returns the running challenge closing soonest, with its
// leaderboard. Nil when nothing is active.
func (s *ChallengeService) NearestActive(ctx context.Context, companyID uuid.UUID) (*ChallengeView, error) {
	challenge, err := s.challengeRepo.GetNearestActive(ctx, companyID, time.Now())
	if err != nil {
		return nil, err
	}
	if challenge == nil {
		return nil, nil
	}
	return s.buildView(ctx, *challenge)
}

func (s *ChallengeService) buildView(ctx context.Context, ch models.Challenge) (*ChallengeView, error) {
	view := &ChallengeView{Challenge: ch}

	leaderboard, err := s.challengeRepo.ListProgress(ctx, ch.ID)
	if err != nil {
		return nil, err
	}
	view.Leaderboard = leaderboard

	total, err := s.challengeRepo.SumProgress(ctx, ch.ID)
	if err != nil {
		return nil, err
	}
	view.TeamValue = total

	switch ch.Mode {
	case models.ModeTeam:
		view.Completed = total >= ch.GoalValue
	default:
		for _, entry := range leaderboard {
			if entry.CurrentValue >= ch.GoalValue {
				view.Completed = true
				break
			}
		}
	}
	return view, nil
}
