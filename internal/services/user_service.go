package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/salesjourney/backend/internal/models"
	"github.com/salesjourney/backend/internal/repositories"
)

var allowedAvatarTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/jpg":  true,
	"image/gif":  true,
}

const maxAvatarBytes = 2 << 20

var ErrUserNotVisible = errors.New("user is not in your company")

type UserService struct {
	userRepo  *repositories.UserRepository
	gamRepo   *repositories.GamificationRepository
	achRepo   *repositories.AchievementRepository
	statsRepo *repositories.StatsRepository
	amoRepo   *repositories.AmoCRMRepository
	shopRepo  *repositories.ShopRepository
}

func NewUserService(userRepo *repositories.UserRepository, gamRepo *repositories.GamificationRepository, achRepo *repositories.AchievementRepository, statsRepo *repositories.StatsRepository, amoRepo *repositories.AmoCRMRepository, shopRepo *repositories.ShopRepository) *UserService {
	return &UserService{
		userRepo:  userRepo,
		gamRepo:   gamRepo,
		achRepo:   achRepo,
		statsRepo: statsRepo,
		amoRepo:   amoRepo,
		shopRepo:  shopRepo,
	}
}

// Profile is the /users/me payload: account plus wallet summary.
type Profile struct {
	User          *models.User `json:"user"`
	Coins         int64        `json:"coins"`
	XP            int64        `json:"xp"`
	Level         int          `json:"level"`
	CurrentStreak int          `json:"current_streak"`
}

func (s *UserService) GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New("user not found")
	}

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

	return &Profile{
		User:          user,
		Coins:         profile.Coins,
		XP:            profile.XP,
		Level:         profile.Level(),
		CurrentStreak: profile.CurrentStreak,
	}, nil
}

func (s *UserService) UpdateUsername(ctx context.Context, userID uuid.UUID, username string) error {
	if existing, _ := s.userRepo.FindByUsername(ctx, username); existing != nil && existing.ID != userID {
		return errors.New("username already taken")
	}
	return s.userRepo.UpdateUsername(ctx, userID, username)
}

func (s *UserService) UpdateAvatar(ctx context.Context, userID uuid.UUID, data []byte, mimetype string) error {
	if !allowedAvatarTypes[mimetype] {
		return errors.New("unsupported image type")
	}
	if len(data) > maxAvatarBytes {
		return errors.New("image too large")
	}
	return s.userRepo.UpdateAvatar(ctx, userID, data, mimetype)
}

func (s *UserService) GetAvatar(ctx context.Context, userID uuid.UUID) ([]byte, string, error) {
	return s.userRepo.GetAvatar(ctx, userID)
}

// RewardModal is the one-shot morning popup: the credited snapshot and,
// if one was earned overnight, the unlocked achievement.
type RewardModal struct {
	Reward      map[string]any      `json:"reward"`
	Achievement *models.Achievement `json:"achievement,omitempty"`
}

// ConsumeRewardModal returns the pending popup and clears the flag so it
// shows exactly once. Nil when nothing is waiting.
func (s *UserService) ConsumeRewardModal(ctx context.Context, userID uuid.UUID) (*RewardModal, error) {
	profile, err := s.gamRepo.GetProfileByUserID(ctx, userID)
	if err != nil || profile == nil {
		return nil, err
	}
	if !profile.ShowRewardModal {
		return nil, nil
	}

	modal := &RewardModal{Reward: profile.LastRewardData}
	if profile.PendingAchievementID != nil {
		if ach, err := s.achRepo.GetByID(ctx, *profile.PendingAchievementID); err == nil {
			modal.Achievement = ach
		}
	}

	if err := s.gamRepo.ClearRewardModal(ctx, userID); err != nil {
		return nil, err
	}
	return modal, nil
}

// AchievementStatus pairs a definition with whether the user holds it.
type AchievementStatus struct {
	models.Achievement
	Earned bool `json:"earned"`
}

func (s *UserService) ListAchievements(ctx context.Context, userID uuid.UUID) ([]AchievementStatus, error) {
	all, err := s.achRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	earnedIDs, err := s.achRepo.ListEarnedIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	earned := make(map[uuid.UUID]bool, len(earnedIDs))
	for _, id := range earnedIDs {
		earned[id] = true
	}

	statuses := make([]AchievementStatus, 0, len(all))
	for _, a := range all {
		statuses = append(statuses, AchievementStatus{Achievement: a, Earned: earned[a.ID]})
	}
	return statuses, nil
}

// UserDetail is the teammate card: public profile plus today's CRM numbers.
type UserDetail struct {
	UserID    uuid.UUID             `json:"user_id"`
	Username  string                `json:"username"`
	Role      models.UserRole       `json:"role"`
	XP        int64                 `json:"xp"`
	Level     int                   `json:"level"`
	TodayStat *models.UserDailyStat `json:"today_stat"`
}

// GetUser returns another user's card. Visibility is limited to the
// viewer's own company; super admins see everyone.
func (s *UserService) GetUser(ctx context.Context, viewer *models.User, targetID uuid.UUID) (*UserDetail, error) {
	target, err := s.userRepo.FindByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, errors.New("user not found")
	}
	if viewer.Role != models.RoleSuperAdmin {
		if viewer.CompanyID == nil || target.CompanyID == nil || *viewer.CompanyID != *target.CompanyID {
			return nil, ErrUserNotVisible
		}
	}

	detail := &UserDetail{
		UserID:   target.ID,
		Username: target.DisplayName(),
		Role:     target.Role,
	}
	if profile, err := s.gamRepo.GetProfileByUserID(ctx, target.ID); err == nil && profile != nil {
		detail.XP = profile.XP
		detail.Level = profile.Level()
	}

	stat, err := s.statsRepo.GetByUserAndDate(ctx, target.ID, today())
	if err != nil {
		return nil, err
	}
	if stat == nil {
		stat = &models.UserDailyStat{UserID: target.ID, Date: today()}
	}
	detail.TodayStat = stat
	return detail, nil
}

// Dashboard is the landing payload: today's numbers, whether the CRM link
// is set up, the one-shot morning reward and a few items worth saving for.
type Dashboard struct {
	TodayStat   *models.UserDailyStat `json:"today_stat"`
	CRMLinked   bool                  `json:"crm_linked"`
	Reward      *RewardModal          `json:"reward,omitempty"`
	Suggestions []models.ShopItem     `json:"suggestions"`
}

func (s *UserService) Dashboard(ctx context.Context, user *models.User) (*Dashboard, error) {
	stat, err := s.statsRepo.GetByUserAndDate(ctx, user.ID, today())
	if err != nil {
		return nil, err
	}
	if stat == nil {
		stat = &models.UserDailyStat{UserID: user.ID, Date: today()}
	}

	dash := &Dashboard{TodayStat: stat, Suggestions: []models.ShopItem{}}

	if user.CompanyID != nil {
		if mapping, err := s.amoRepo.GetUserMap(ctx, *user.CompanyID, user.ID); err == nil && mapping != nil {
			dash.CRMLinked = true
		}
	}

	reward, err := s.ConsumeRewardModal(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	dash.Reward = reward

	if user.CompanyID != nil {
		if profile, err := s.gamRepo.GetProfileByUserID(ctx, user.ID); err == nil && profile != nil {
			items, err := s.shopRepo.ListAffordable(ctx, *user.CompanyID, profile.Coins, 3)
			if err != nil {
				return nil, err
			}
			dash.Suggestions = items
		}
	}
	return dash, nil
}

// Leaderboard returns the company's top earners by XP.
func (s *UserService) Leaderboard(ctx context.Context, companyID uuid.UUID, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}
	users, err := s.userRepo.ListByCompanyOrderedByXP(ctx, companyID, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(users))
	for i, u := range users {
		profile, err := s.gamRepo.GetProfileByUserID(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		entry := LeaderboardEntry{
			Rank:     i + 1,
			UserID:   u.ID,
			Username: u.DisplayName(),
		}
		if profile != nil {
			entry.XP = profile.XP
			entry.Level = profile.Level()
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

type LeaderboardEntry struct {
	Rank     int       `json:"rank"`
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	XP       int64     `json:"xp"`
	Level    int       `json:"level"`
}

func today() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
