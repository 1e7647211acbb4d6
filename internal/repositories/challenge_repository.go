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

type ChallengeRepository struct {
	pool *pgxpool.Pool
}

func NewChallengeRepository(pool *pgxpool.Pool) *ChallengeRepository {
	return &ChallengeRepository{pool: pool}
}

const challengeColumns = `id, company_id, name, description, start_date, end_date, goal_type, goal_value, mode, is_active`

func scanChallenge(row pgx.Row) (*models.Challenge, error) {
	var ch models.Challenge
	err := row.Scan(
		&ch.ID,
		&ch.CompanyID,
		&ch.Name,
		&ch.Description,
		&ch.StartDate,
		&ch.EndDate,
		&ch.GoalType,
		&ch.GoalValue,
		&ch.Mode,
		&ch.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &ch, nil
}

func (r *ChallengeRepository) Create(ctx context.Context, ch *models.Challenge) error {
	ch.Prepare()

	query := `
		INSERT INTO challenges (id, company_id, name, description, start_date, end_date, goal_type, goal_value, mode, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.pool.Exec(ctx, query,
		ch.ID,
		ch.CompanyID,
		ch.Name,
		ch.Description,
		ch.StartDate,
		ch.EndDate,
		ch.GoalType,
		ch.GoalValue,
		ch.Mode,
		ch.IsActive,
	)
	return err
}

func (r *ChallengeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Challenge, error) {
	query := `SELECT ` + challengeColumns + ` FROM challenges WHERE id = $1`
	return scanChallenge(r.pool.QueryRow(ctx, query, id))
}

func (r *ChallengeRepository) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]models.Challenge, error) {
	query := `SELECT ` + challengeColumns + ` FROM challenges WHERE company_id = $1 ORDER BY end_date DESC`
	return r.list(ctx, query, companyID)
}

// ListActive returns the company's challenges in flight for a goal type on
// the given day, so a matching CRM event can be credited to all of them.
func (r *ChallengeRepository) ListActive(ctx context.Context, companyID uuid.UUID, goal models.ChallengeGoalType, date time.Time) ([]models.Challenge, error) {
	query := `
		SELECT ` + challengeColumns + `
		FROM challenges
		WHERE company_id = $1 AND goal_type = $2 AND is_active = TRUE AND start_date <= $3 AND end_date >= $3
	`
	return r.list(ctx, query, companyID, goal, date)
}

// GetNearestActive picks the squad goal shown on the dashboard: the active
// challenge closing soonest.
func (r *ChallengeRepository) GetNearestActive(ctx context.Context, companyID uuid.UUID, date time.Time) (*models.Challenge, error) {
	query := `
		SELECT ` + challengeColumns + `
		FROM challenges
		WHERE company_id = $1 AND is_active = TRUE AND start_date <= $2 AND end_date >= $2
		ORDER BY end_date ASC
		LIMIT 1
	`
	return scanChallenge(r.pool.QueryRow(ctx, query, companyID, date))
}

func (r *ChallengeRepository) list(ctx context.Context, query string, args ...any) ([]models.Challenge, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var challenges []models.Challenge
	for rows.Next() {
		var ch models.Challenge
		err := rows.Scan(
			&ch.ID,
			&ch.CompanyID,
			&ch.Name,
			&ch.Description,
			&ch.StartDate,
			&ch.EndDate,
			&ch.GoalType,
			&ch.GoalValue,
			&ch.Mode,
			&ch.IsActive,
		)
		if err != nil {
			return nil, err
		}
		challenges = append(challenges, ch)
	}
	return challenges, rows.Err()
}

// AddProgress increments a user's counter, creating the row on first touch.
func (r *ChallengeRepository) AddProgress(ctx context.Context, challengeID, userID uuid.UUID, delta int64) error {
	query := `
		INSERT INTO challenge_progress (id, challenge_id, user_id, current_value, last_updated)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (challenge_id, user_id) DO UPDATE
		SET current_value = challenge_progress.current_value + EXCLUDED.current_value,
		    last_updated = NOW()
	`
	_, err := r.pool.Exec(ctx, query, uuid.New(), challengeID, userID, delta)
	return err
}

// ProgressEntry is one leaderboard row for a challenge.
type ProgressEntry struct {
	UserID       uuid.UUID `json:"user_id"`
	Username     string    `json:"username"`
	CurrentValue int64     `json:"current_value"`
}

func (r *ChallengeRepository) ListProgress(ctx context.Context, challengeID uuid.UUID) ([]ProgressEntry, error) {
	query := `
		SELECT cp.user_id, COALESCE(u.username, u.email), cp.current_value
		FROM challenge_progress cp
		JOIN users u ON u.id = cp.user_id
		WHERE cp.challenge_id = $1
		ORDER BY cp.current_value DESC
	`

	rows, err := r.pool.Query(ctx, query, challengeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []ProgressEntry
	for rows.Next() {
		var e ProgressEntry
		if err := rows.Scan(&e.UserID, &e.Username, &e.CurrentValue); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SumProgress is the team total for TEAM mode challenges.
func (r *ChallengeRepository) SumProgress(ctx context.Context, challengeID uuid.UUID) (int64, error) {
	query := `SELECT COALESCE(SUM(current_value), 0) FROM challenge_progress WHERE challenge_id = $1`

	var total int64
	if err := r.pool.QueryRow(ctx, query, challengeID).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *ChallengeRepository) GetProgress(ctx context.Context, challengeID, userID uuid.UUID) (*models.ChallengeProgress, error) {
	query := `SELECT id, challenge_id, user_id, current_value, last_updated FROM challenge_progress WHERE challenge_id = $1 AND user_id = $2`

	var p models.ChallengeProgress
	err := r.pool.QueryRow(ctx, query, challengeID, userID).Scan(&p.ID, &p.ChallengeID, &p.UserID, &p.CurrentValue, &p.LastUpdated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}
