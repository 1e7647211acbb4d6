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

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, username, email, password_hash, must_change_password, role, company_id, avatar_mimetype, created_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.MustChangePassword,
		&user.Role,
		&user.CompanyID,
		&user.AvatarMimetype,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	user.Prepare()

	query := `
		INSERT INTO users (id, username, email, password_hash, must_change_password, role, company_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.MustChangePassword,
		user.Role,
		user.CompanyID,
		time.Now(),
	)
	return err
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUser(r.pool.QueryRow(ctx, query, username))
}

// FindByIdentity looks a user up by email or username, whichever matches.
func (r *UserRepository) FindByIdentity(ctx context.Context, identity string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 OR username = $1`
	return scanUser(r.pool.QueryRow(ctx, query, identity))
}

func (r *UserRepository) UpdateUsername(ctx context.Context, id uuid.UUID, username string) error {
	query := `UPDATE users SET username = $2 WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, username)
	return err
}

func (r *UserRepository) UpdateAvatar(ctx context.Context, id uuid.UUID, data []byte, mimetype string) error {
	query := `UPDATE users SET avatar_data = $2, avatar_mimetype = $3 WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, data, mimetype)
	return err
}

// GetAvatar returns the stored avatar bytes and mimetype, or nil when unset.
func (r *UserRepository) GetAvatar(ctx context.Context, id uuid.UUID) ([]byte, string, error) {
	query := `SELECT avatar_data, avatar_mimetype FROM users WHERE id = $1`

	var data []byte
	var mimetype *string
	err := r.pool.QueryRow(ctx, query, id).Scan(&data, &mimetype)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", nil
		}
		return nil, "", err
	}
	mt := "image/png"
	if mimetype != nil && *mimetype != "" {
		mt = *mimetype
	}
	return data, mt, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string, mustChange bool) error {
	query := `UPDATE users SET password_hash = $2, must_change_password = $3 WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, passwordHash, mustChange)
	return err
}

func (r *UserRepository) UpdateCompany(ctx context.Context, id uuid.UUID, companyID uuid.UUID) error {
	query := `UPDATE users SET company_id = $2 WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, companyID)
	return err
}

func (r *UserRepository) UpdateRole(ctx context.Context, id uuid.UUID, role models.UserRole) error {
	query := `UPDATE users SET role = $2 WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, role)
	return err
}

func (r *UserRepository) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE company_id = $1 ORDER BY created_at`
	return r.list(ctx, query, companyID)
}

// ListByCompanyOrderedByXP returns company employees sorted by XP for the
// leaderboard. Users without a gamification profile are excluded, matching
// the inner join the leaderboard always ran on.
func (r *UserRepository) ListByCompanyOrderedByXP(ctx context.Context, companyID uuid.UUID, limit int) ([]models.User, error) {
	query := `
		SELECT ` + qualify(userColumns, "u") + `
		FROM users u
		JOIN gamification_profiles gp ON gp.user_id = u.id
		WHERE u.company_id = $1
		ORDER BY gp.xp DESC
		LIMIT $2
	`
	return r.list(ctx, query, companyID, limit)
}

func (r *UserRepository) ListByRoles(ctx context.Context, roles []models.UserRole) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = ANY($1) ORDER BY created_at`
	return r.list(ctx, query, roles)
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

func (r *UserRepository) CountByRoles(ctx context.Context, roles []models.UserRole) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE role = ANY($1)`, roles).Scan(&n)
	return n, err
}

func (r *UserRepository) list(ctx context.Context, query string, args ...any) ([]models.User, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.Email,
			&user.PasswordHash,
			&user.MustChangePassword,
			&user.Role,
			&user.CompanyID,
			&user.AvatarMimetype,
			&user.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}
