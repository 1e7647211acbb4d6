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

type AmoCRMRepository struct {
	pool *pgxpool.Pool
}

func NewAmoCRMRepository(pool *pgxpool.Pool) *AmoCRMRepository {
	return &AmoCRMRepository{pool: pool}
}

const connectionColumns = `id, company_id, access_token, refresh_token, expires_at, base_domain, client_id, client_secret, last_sync_at`

func (r *AmoCRMRepository) GetConnection(ctx context.Context, companyID uuid.UUID) (*models.AmoCRMConnection, error) {
	query := `SELECT ` + connectionColumns + ` FROM amocrm_connections WHERE company_id = $1`

	var conn models.AmoCRMConnection
	err := r.pool.QueryRow(ctx, query, companyID).Scan(
		&conn.ID,
		&conn.CompanyID,
		&conn.AccessToken,
		&conn.RefreshToken,
		&conn.ExpiresAt,
		&conn.BaseDomain,
		&conn.ClientID,
		&conn.ClientSecret,
		&conn.LastSyncAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &conn, nil
}

// UpsertCredentials stores the per-company OAuth client settings, creating
// the connection row when the company connects for the first time.
func (r *AmoCRMRepository) UpsertCredentials(ctx context.Context, companyID uuid.UUID, clientID, clientSecret, baseDomain string) (*models.AmoCRMConnection, error) {
	conn := &models.AmoCRMConnection{CompanyID: companyID}
	conn.Prepare()

	query := `
		INSERT INTO amocrm_connections (id, company_id, client_id, client_secret, base_domain)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (company_id) DO UPDATE
		SET client_id = EXCLUDED.client_id,
		    client_secret = EXCLUDED.client_secret,
		    base_domain = EXCLUDED.base_domain
	`
	if _, err := r.pool.Exec(ctx, query, conn.ID, companyID, clientID, clientSecret, baseDomain); err != nil {
		return nil, err
	}
	return r.GetConnection(ctx, companyID)
}

func (r *AmoCRMRepository) SaveTokens(ctx context.Context, companyID uuid.UUID, accessToken, refreshToken string, expiresAt int64, baseDomain string) error {
	query := `
		UPDATE amocrm_connections
		SET access_token = $2,
		    refresh_token = $3,
		    expires_at = $4,
		    base_domain = COALESCE(NULLIF($5, ''), base_domain),
		    last_sync_at = $6
		WHERE company_id = $1
	`
	_, err := r.pool.Exec(ctx, query, companyID, accessToken, refreshToken, expiresAt, baseDomain, time.Now().Unix())
	return err
}

func (r *AmoCRMRepository) UpdateBaseDomain(ctx context.Context, companyID uuid.UUID, baseDomain string) error {
	query := `UPDATE amocrm_connections SET base_domain = $2 WHERE company_id = $1`
	_, err := r.pool.Exec(ctx, query, companyID, baseDomain)
	return err
}

func (r *AmoCRMRepository) TouchSync(ctx context.Context, companyID uuid.UUID) error {
	query := `UPDATE amocrm_connections SET last_sync_at = $2 WHERE company_id = $1`
	_, err := r.pool.Exec(ctx, query, companyID, time.Now().Unix())
	return err
}

func (r *AmoCRMRepository) DeleteConnection(ctx context.Context, companyID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM amocrm_connections WHERE company_id = $1`, companyID)
	return err
}

// --- user maps ---

func (r *AmoCRMRepository) ListUserMaps(ctx context.Context, companyID uuid.UUID) ([]models.AmoCRMUserMap, error) {
	query := `SELECT id, company_id, platform_user_id, amocrm_user_id FROM amocrm_user_maps WHERE company_id = $1`

	rows, err := r.pool.Query(ctx, query, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var maps []models.AmoCRMUserMap
	for rows.Next() {
		var m models.AmoCRMUserMap
		if err := rows.Scan(&m.ID, &m.CompanyID, &m.PlatformUserID, &m.AmoCRMUserID); err != nil {
			return nil, err
		}
		maps = append(maps, m)
	}
	return maps, rows.Err()
}

func (r *AmoCRMRepository) GetUserMap(ctx context.Context, companyID, platformUserID uuid.UUID) (*models.AmoCRMUserMap, error) {
	query := `
		SELECT id, company_id, platform_user_id, amocrm_user_id
		FROM amocrm_user_maps WHERE company_id = $1 AND platform_user_id = $2
	`
	var m models.AmoCRMUserMap
	err := r.pool.QueryRow(ctx, query, companyID, platformUserID).
		Scan(&m.ID, &m.CompanyID, &m.PlatformUserID, &m.AmoCRMUserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

// FindUserMapByAmoID resolves a webhook's responsible_user_id to a platform
// user across all companies.
func (r *AmoCRMRepository) FindUserMapByAmoID(ctx context.Context, amoUserID int64) (*models.AmoCRMUserMap, error) {
	query := `
		SELECT id, company_id, platform_user_id, amocrm_user_id
		FROM amocrm_user_maps WHERE amocrm_user_id = $1
		LIMIT 1
	`
	var m models.AmoCRMUserMap
	err := r.pool.QueryRow(ctx, query, amoUserID).
		Scan(&m.ID, &m.CompanyID, &m.PlatformUserID, &m.AmoCRMUserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *AmoCRMRepository) UpsertUserMap(ctx context.Context, m *models.AmoCRMUserMap) error {
	m.Prepare()

	query := `
		INSERT INTO amocrm_user_maps (id, company_id, platform_user_id, amocrm_user_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (company_id, platform_user_id) DO UPDATE
		SET amocrm_user_id = EXCLUDED.amocrm_user_id
	`
	_, err := r.pool.Exec(ctx, query, m.ID, m.CompanyID, m.PlatformUserID, m.AmoCRMUserID)
	return err
}
