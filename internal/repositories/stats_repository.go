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

type StatsRepository struct {
	pool *pgxpool.Pool
}

func NewStatsRepository(pool *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{pool: pool}
}

const statColumns = `id, user_id, date, calls_count, talk_seconds, leads_created, leads_won, leads_lost, updated_at`

func scanStat(row pgx.Row) (*models.UserDailyStat, error) {
	var stat models.UserDailyStat
	err := row.Scan(
		&stat.ID,
		&stat.UserID,
		&stat.Date,
		&stat.CallsCount,
		&stat.TalkSeconds,
		&stat.LeadsCreated,
		&stat.LeadsWon,
		&stat.LeadsLost,
		&stat.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &stat, nil
}

func (r *StatsRepository) GetByUserAndDate(ctx context.Context, userID uuid.UUID, date time.Time) (*models.UserDailyStat, error) {
	query := `SELECT ` + statColumns + ` FROM amocrm_user_daily_stats WHERE user_id = $1 AND date = $2`
	return scanStat(r.pool.QueryRow(ctx, query, userID, date))
}

// Upsert replaces the whole day's counters, the way a full re-sync works.
func (r *StatsRepository) Upsert(ctx context.Context, stat *models.UserDailyStat) error {
	stat.Prepare()
	now := time.Now()
	stat.UpdatedAt = &now

	query := `
		INSERT INTO amocrm_user_daily_stats
			(id, user_id, date, calls_count, talk_seconds, leads_created, leads_won, leads_lost, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id, date) DO UPDATE
		SET calls_count = EXCLUDED.calls_count,
		    talk_seconds = EXCLUDED.talk_seconds,
		    leads_created = EXCLUDED.leads_created,
		    leads_won = EXCLUDED.leads_won,
		    leads_lost = EXCLUDED.leads_lost,
		    updated_at = EXCLUDED.updated_at
	`
	_, err := r.pool.Exec(ctx, query,
		stat.ID,
		stat.UserID,
		stat.Date,
		stat.CallsCount,
		stat.TalkSeconds,
		stat.LeadsCreated,
		stat.LeadsWon,
		stat.LeadsLost,
		stat.UpdatedAt,
	)
	return err
}

// ListByDate returns every user's synced stats for one day, for the
// nightly reward snapshot.
func (r *StatsRepository) ListByDate(ctx context.Context, date time.Time) ([]models.UserDailyStat, error) {
	query := `SELECT ` + statColumns + ` FROM amocrm_user_daily_stats WHERE date = $1`

	rows, err := r.pool.Query(ctx, query, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []models.UserDailyStat
	for rows.Next() {
		var stat models.UserDailyStat
		err := rows.Scan(
			&stat.ID,
			&stat.UserID,
			&stat.Date,
			&stat.CallsCount,
			&stat.TalkSeconds,
			&stat.LeadsCreated,
			&stat.LeadsWon,
			&stat.LeadsLost,
			&stat.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		stats = append(stats, stat)
	}
	return stats, rows.Err()
}
