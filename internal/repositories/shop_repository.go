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

type ShopRepository struct {
	pool *pgxpool.Pool
}

func NewShopRepository(pool *pgxpool.Pool) *ShopRepository {
	return &ShopRepository{pool: pool}
}

const shopItemColumns = `id, company_id, name, price, image_url, type, attributes`

func scanShopItem(row pgx.Row) (*models.ShopItem, error) {
	var item models.ShopItem
	err := row.Scan(
		&item.ID,
		&item.CompanyID,
		&item.Name,
		&item.Price,
		&item.ImageURL,
		&item.Type,
		&item.Attributes,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *ShopRepository) Create(ctx context.Context, item *models.ShopItem) error {
	item.Prepare()

	query := `INSERT INTO shop_items (id, company_id, name, price, image_url, type, attributes) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.pool.Exec(ctx, query,
		item.ID,
		item.CompanyID,
		item.Name,
		item.Price,
		item.ImageURL,
		item.Type,
		item.Attributes,
	)
	return err
}

func (r *ShopRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ShopItem, error) {
	query := `SELECT ` + shopItemColumns + ` FROM shop_items WHERE id = $1`
	return scanShopItem(r.pool.QueryRow(ctx, query, id))
}

// ListVisible returns a company's items plus the global catalog, cheapest first.
func (r *ShopRepository) ListVisible(ctx context.Context, companyID uuid.UUID) ([]models.ShopItem, error) {
	query := `
		SELECT ` + shopItemColumns + `
		FROM shop_items
		WHERE company_id = $1 OR company_id IS NULL
		ORDER BY price ASC
	`
	return r.list(ctx, query, companyID)
}

// ListAffordable picks the most expensive items within budget, used by the
// morning notification to tease what a user can now buy.
func (r *ShopRepository) ListAffordable(ctx context.Context, companyID uuid.UUID, budget int64, limit int) ([]models.ShopItem, error) {
	query := `
		SELECT ` + shopItemColumns + `
		FROM shop_items
		WHERE (company_id = $1 OR company_id IS NULL) AND price <= $2
		ORDER BY price DESC
		LIMIT $3
	`
	return r.list(ctx, query, companyID, budget, limit)
}

func (r *ShopRepository) Any(ctx context.Context) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM shop_items)`).Scan(&exists)
	return exists, err
}

func (r *ShopRepository) list(ctx context.Context, query string, args ...any) ([]models.ShopItem, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.ShopItem
	for rows.Next() {
		var item models.ShopItem
		err := rows.Scan(
			&item.ID,
			&item.CompanyID,
			&item.Name,
			&item.Price,
			&item.ImageURL,
			&item.Type,
			&item.Attributes,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *ShopRepository) CreateInventory(ctx context.Context, inv *models.UserInventory) error {
	inv.Prepare()
	if inv.PurchasedAt.IsZero() {
		inv.PurchasedAt = time.Now()
	}

	query := `INSERT INTO user_inventory (id, user_id, item_id, purchased_at, is_used) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.pool.Exec(ctx, query, inv.ID, inv.UserID, inv.ItemID, inv.PurchasedAt, inv.IsUsed)
	return err
}
