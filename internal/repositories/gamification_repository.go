package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/salesjourney/backend/internal/models"
)

type GamificationRepository struct {
	pool *pgxpool.Pool
}

func NewGamificationRepository(pool *pgxpool.Pool) *GamificationRepository {
	return &GamificationRepository{pool: pool}
}

const profileColumns = `id, user_id, coins, xp, current_streak, last_activity_date, last_reward_data, show_reward_modal, pending_achievement_id`

func scanProfile(row pgx.Row) (*models.GamificationProfile, error) {
	var profile models.GamificationProfile
	err := row.Scan(
		&profile.ID,
		&profile.UserID,
		&profile.Coins,
		&profile.XP,
		&profile.CurrentStreak,
		&profile.LastActivityDate,
		&profile.LastRewardData,
		&profile.ShowRewardModal,
		&profile.PendingAchievementID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

func (r *GamificationRepository) GetProfileByUserID(ctx context.Context, userID uuid.UUID) (*models.GamificationProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM gamification_profiles WHERE user_id = $1`
	return scanProfile(r.pool.QueryRow(ctx, query, userID))
}

func (r *GamificationRepository) CreateProfile(ctx context.Context, profile *models.GamificationProfile) error {
	profile.Prepare()

	query := `
		INSERT INTO gamification_profiles
			(id, user_id, coins, xp, current_streak, last_activity_date, last_reward_data, show_reward_modal, pending_achievement_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.pool.Exec(ctx, query,
		profile.ID,
		profile.UserID,
		profile.Coins,
		profile.XP,
		profile.CurrentStreak,
		profile.LastActivityDate,
		profile.LastRewardData,
		profile.ShowRewardModal,
		profile.PendingAchievementID,
	)
	return err
}

// SaveProfile writes back every mutable field of the wallet.
func (r *GamificationRepository) SaveProfile(ctx context.Context, profile *models.GamificationProfile) error {
	query := `
		UPDATE gamification_profiles
		SET coins = $1, xp = $2, current_streak = $3, last_activity_date = $4,
		    last_reward_data = $5, show_reward_modal = $6, pending_achievement_id = $7
		WHERE id = $8
	`
	_, err := r.pool.Exec(ctx, query,
		profile.Coins,
		profile.XP,
		profile.CurrentStreak,
		profile.LastActivityDate,
		profile.LastRewardData,
		profile.ShowRewardModal,
		profile.PendingAchievementID,
		profile.ID,
	)
	return err
}

// ListProfilesWithReward returns profiles that got a nightly snapshot and
// are waiting for the morning credit run.
func (r *GamificationRepository) ListProfilesWithReward(ctx context.Context) ([]models.GamificationProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM gamification_profiles WHERE last_reward_data IS NOT NULL AND show_reward_modal = FALSE`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []models.GamificationProfile
	for rows.Next() {
		var profile models.GamificationProfile
		err := rows.Scan(
			&profile.ID,
			&profile.UserID,
			&profile.Coins,
			&profile.XP,
			&profile.CurrentStreak,
			&profile.LastActivityDate,
			&profile.LastRewardData,
			&profile.ShowRewardModal,
			&profile.PendingAchievementID,
		)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	return profiles, rows.Err()
}

func (r *GamificationRepository) ClearRewardModal(ctx context.Context, userID uuid.UUID) error {
	query := `UPDATE gamification_profiles SET show_reward_modal = FALSE, pending_achievement_id = NULL WHERE user_id = $1`
	_, err := r.pool.Exec(ctx, query, userID)
	return err
}

func (r *GamificationRepository) GetBuff(ctx context.Context, userID uuid.UUID, date time.Time) (*models.DailyBuff, error) {
	query := `SELECT id, user_id, date, buff_type FROM daily_buffs WHERE user_id = $1 AND date = $2`

	var buff models.DailyBuff
	err := r.pool.QueryRow(ctx, query, userID, date).Scan(&buff.ID, &buff.UserID, &buff.Date, &buff.BuffType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &buff, nil
}

func (r *GamificationRepository) CreateBuff(ctx context.Context, buff *models.DailyBuff) error {
	buff.Prepare()

	query := `INSERT INTO daily_buffs (id, user_id, date, buff_type) VALUES ($1, $2, $3, $4)`
	_, err := r.pool.Exec(ctx, query, buff.ID, buff.UserID, buff.Date, buff.BuffType)
	return err
}

func (r *GamificationRepository) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	tx.Prepare()
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}

	query := `INSERT INTO transactions (id, user_id, amount, reason, created_at) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.pool.Exec(ctx, query, tx.ID, tx.UserID, tx.Amount, tx.Reason, tx.CreatedAt)
	return err
}

func (r *GamificationRepository) CreateDailyStory(ctx context.Context, story *models.DailyStory) error {
	story.Prepare()

	query := `INSERT INTO daily_stories (id, company_id, user_id, story_type, value, date) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.pool.Exec(ctx, query, story.ID, story.CompanyID, story.UserID, story.StoryType, story.Value, story.Date)
	return err
}

// ListStoriesByCompanyAndDate feeds the stories strip at the top of the feed.
func (r *GamificationRepository) ListStoriesByCompanyAndDate(ctx context.Context, companyID uuid.UUID, date time.Time) ([]models.DailyStory, error) {
	query := `SELECT id, company_id, user_id, story_type, value, date FROM daily_stories WHERE company_id = $1 AND date = $2`

	rows, err := r.pool.Query(ctx, query, companyID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stories []models.DailyStory
	for rows.Next() {
		var story models.DailyStory
		if err := rows.Scan(&story.ID, &story.CompanyID, &story.UserID, &story.StoryType, &story.Value, &story.Date); err != nil {
			return nil, err
		}
		stories = append(stories, story)
	}
	return stories, rows.Err()
}
