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

type AchievementRepository struct {
	pool *pgxpool.Pool
}

func NewAchievementRepository(pool *pgxpool.Pool) *AchievementRepository {
	return &AchievementRepository{pool: pool}
}

const achievementColumns = `id, name, description, icon_code, condition_type, condition_value`

func (r *AchievementRepository) Create(ctx context.Context, a *models.Achievement) error {
	a.Prepare()

	query := `INSERT INTO achievements (id, name, description, icon_code, condition_type, condition_value) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.pool.Exec(ctx, query, a.ID, a.Name, a.Description, a.IconCode, a.ConditionType, a.ConditionValue)
	return err
}

func (r *AchievementRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Achievement, error) {
	query := `SELECT ` + achievementColumns + ` FROM achievements WHERE id = $1`

	var a models.Achievement
	err := r.pool.QueryRow(ctx, query, id).Scan(&a.ID, &a.Name, &a.Description, &a.IconCode, &a.ConditionType, &a.ConditionValue)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *AchievementRepository) ListAll(ctx context.Context) ([]models.Achievement, error) {
	query := `SELECT ` + achievementColumns + ` FROM achievements ORDER BY condition_type, condition_value`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var achievements []models.Achievement
	for rows.Next() {
		var a models.Achievement
		if err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.IconCode, &a.ConditionType, &a.ConditionValue); err != nil {
			return nil, err
		}
		achievements = append(achievements, a)
	}
	return achievements, rows.Err()
}

// ListEarnedIDs returns the achievement ids a user already holds.
func (r *AchievementRepository) ListEarnedIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	query := `SELECT achievement_id FROM user_achievements WHERE user_id = $1`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Grant is idempotent: granting an achievement the user already has is a no-op.
func (r *AchievementRepository) Grant(ctx context.Context, userID, achievementID uuid.UUID) (bool, error) {
	query := `
		INSERT INTO user_achievements (id, user_id, achievement_id, earned_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, achievement_id) DO NOTHING
	`
	tag, err := r.pool.Exec(ctx, query, uuid.New(), userID, achievementID, time.Now())
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *AchievementRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM achievements`).Scan(&count)
	return count, err
}
