package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/salesjourney/backend/internal/models"
)

type CompanyRepository struct {
	pool *pgxpool.Pool
}

func NewCompanyRepository(pool *pgxpool.Pool) *CompanyRepository {
	return &CompanyRepository{pool: pool}
}

const companyColumns = `id, name, slug, invite_code, owner_partner_id, created_at`

func scanCompany(row pgx.Row) (*models.Company, error) {
	var company models.Company
	err := row.Scan(
		&company.ID,
		&company.Name,
		&company.Slug,
		&company.InviteCode,
		&company.OwnerPartnerID,
		&company.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &company, nil
}

func (r *CompanyRepository) Create(ctx context.Context, company *models.Company) error {
	company.Prepare()

	query := `
		INSERT INTO companies (id, name, slug, invite_code, owner_partner_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query,
		company.ID,
		company.Name,
		company.Slug,
		company.InviteCode,
		company.OwnerPartnerID,
		time.Now(),
	)
	return err
}

func (r *CompanyRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE id = $1`
	return scanCompany(r.pool.QueryRow(ctx, query, id))
}

func (r *CompanyRepository) GetByInviteCode(ctx context.Context, code string) (*models.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE invite_code = $1`
	return scanCompany(r.pool.QueryRow(ctx, query, strings.ToUpper(strings.TrimSpace(code))))
}

func (r *CompanyRepository) ListByOwner(ctx context.Context, partnerID uuid.UUID) ([]models.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE owner_partner_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, partnerID)
}

func (r *CompanyRepository) ListAll(ctx context.Context) ([]models.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies ORDER BY created_at DESC`
	return r.list(ctx, query)
}

func (r *CompanyRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM companies`).Scan(&n)
	return n, err
}

// Delete removes the company; employees are detached and dependent rows
// cascade via foreign keys.
func (r *CompanyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM companies WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return errors.New("company not found")
	}
	return nil
}

func (r *CompanyRepository) list(ctx context.Context, query string, args ...any) ([]models.Company, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var companies []models.Company
	for rows.Next() {
		var company models.Company
		err := rows.Scan(
			&company.ID,
			&company.Name,
			&company.Slug,
			&company.InviteCode,
			&company.OwnerPartnerID,
			&company.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		companies = append(companies, company)
	}
	return companies, rows.Err()
}

// PartnerRepository manages partner profiles.
type PartnerRepository struct {
	pool *pgxpool.Pool
}

func NewPartnerRepository(pool *pgxpool.Pool) *PartnerRepository {
	return &PartnerRepository{pool: pool}
}

func (r *PartnerRepository) Create(ctx context.Context, partner *models.PartnerUser) error {
	partner.Prepare()
	_, err := r.pool.Exec(ctx, `INSERT INTO partner_users (id, user_id) VALUES ($1, $2)`, partner.ID, partner.UserID)
	return err
}

func (r *PartnerRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.PartnerUser, error) {
	var partner models.PartnerUser
	err := r.pool.QueryRow(ctx, `SELECT id, user_id FROM partner_users WHERE user_id = $1`, userID).
		Scan(&partner.ID, &partner.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &partner, nil
}
