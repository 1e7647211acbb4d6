package services

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"

	"github.com/salesjourney/backend/internal/models"
	"github.com/salesjourney/backend/internal/repositories"
)

var ErrCompanyNotOwned = errors.New("company does not belong to this partner")

type PartnerService struct {
	partnerRepo *repositories.PartnerRepository
	companyRepo *repositories.CompanyRepository
	userRepo    *repositories.UserRepository
	gamRepo     *repositories.GamificationRepository
	statsRepo   *repositories.StatsRepository
}

func NewPartnerService(partnerRepo *repositories.PartnerRepository, companyRepo *repositories.CompanyRepository, userRepo *repositories.UserRepository, gamRepo *repositories.GamificationRepository, statsRepo *repositories.StatsRepository) *PartnerService {
	return &PartnerService{
		partnerRepo: partnerRepo,
		companyRepo: companyRepo,
		userRepo:    userRepo,
		gamRepo:     gamRepo,
		statsRepo:   statsRepo,
	}
}

func (s *PartnerService) ListCompanies(ctx context.Context, userID uuid.UUID) ([]models.Company, error) {
	partner, err := s.partnerRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if partner == nil {
		return nil, nil
	}
	return s.companyRepo.ListByOwner(ctx, partner.ID)
}

// OwnsCompany verifies a partner's claim to a company. Super admins bypass
// this in the middleware layer.
func (s *PartnerService) OwnsCompany(ctx context.Context, userID, companyID uuid.UUID) (bool, error) {
	partner, err := s.partnerRepo.GetByUserID(ctx, userID)
	if err != nil {
		return false, err
	}
	if partner == nil {
		return false, nil
	}
	company, err := s.companyRepo.GetByID(ctx, companyID)
	if err != nil {
		return false, err
	}
	return company != nil && company.OwnerPartnerID == partner.ID, nil
}

// MemberView is one row of the company members table.
type MemberView struct {
	UserID   uuid.UUID       `json:"user_id"`
	Username string          `json:"username"`
	Email    string          `json:"email"`
	Role     models.UserRole `json:"role"`
	Coins    int64           `json:"coins"`
	XP       int64           `json:"xp"`
	Level    int             `json:"level"`
}

func (s *PartnerService) Members(ctx context.Context, companyID uuid.UUID) ([]MemberView, error) {
	users, err := s.userRepo.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}

	members := make([]MemberView, 0, len(users))
	for _, u := range users {
		member := MemberView{
			UserID:   u.ID,
			Username: u.DisplayName(),
			Email:    u.Email,
			Role:     u.Role,
		}
		if profile, err := s.gamRepo.GetProfileByUserID(ctx, u.ID); err == nil && profile != nil {
			member.Coins = profile.Coins
			member.XP = profile.XP
			member.Level = profile.Level()
		}
		members = append(members, member)
	}
	return members, nil
}

// ScoreboardXP weighs today's activity by the chosen buff. Woodpecker pays
// for volume of calls, Shark for closed sales, Zen adds a flat bonus on the
// base rate.
func ScoreboardXP(buff models.BuffType, calls, sales int) int64 {
	base := int64(calls)*10 + int64(sales)*500
	switch buff {
	case models.BuffWoodpecker:
		return int64(calls)*20 + int64(sales)*250
	case models.BuffShark:
		return int64(calls)*5 + int64(sales)*1000
	case models.BuffZen:
		return base + 200
	default:
		return base
	}
}

// StreakScoreBonus bumps a day score by 5 percent for streaks past the
// threshold.
func StreakScoreBonus(xp int64, streak int) int64 {
	if streak > streakBonusThreshold {
		return xp * 105 / 100
	}
	return xp
}

// ScoreboardRow is one employee's buff-weighted day score.
type ScoreboardRow struct {
	UserID   uuid.UUID        `json:"user_id"`
	Username string           `json:"username"`
	Buff     *models.BuffType `json:"buff,omitempty"`
	Calls    int              `json:"calls"`
	Sales    int              `json:"sales"`
	DayXP    int64            `json:"day_xp"`
}

// Scoreboard ranks today's activity across the company with each
// employee's buff applied.
func (s *PartnerService) Scoreboard(ctx context.Context, companyID uuid.UUID) ([]ScoreboardRow, error) {
	users, err := s.userRepo.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}

	day := today()
	rows := make([]ScoreboardRow, 0, len(users))
	for _, u := range users {
		if u.Role != models.RoleEmployee && u.Role != models.RoleManager {
			continue
		}
		row := ScoreboardRow{UserID: u.ID, Username: u.DisplayName()}

		var calls, sales int
		if stat, err := s.statsRepo.GetByUserAndDate(ctx, u.ID, day); err == nil && stat != nil {
			calls = stat.CallsCount
			sales = stat.LeadsWon
		}
		row.Calls = calls
		row.Sales = sales

		var buff models.BuffType
		if daily, err := s.gamRepo.GetBuff(ctx, u.ID, day); err == nil && daily != nil {
			buff = daily.BuffType
			row.Buff = &daily.BuffType
		}
		row.DayXP = ScoreboardXP(buff, calls, sales)
		if profile, err := s.gamRepo.GetProfileByUserID(ctx, u.ID); err == nil && profile != nil {
			row.DayXP = StreakScoreBonus(row.DayXP, profile.CurrentStreak)
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].DayXP > rows[j].DayXP
	})
	return rows, nil
}
