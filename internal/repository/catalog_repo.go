package repository

import (
	"context"

	"storebot/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CatalogRepository struct {
	db *pgxpool.Pool
}

func NewCatalogRepository(db *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, display_name, icon, sort_order
		 FROM categories ORDER BY sort_order, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cats []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.DisplayName, &c.Icon, &c.SortOrder); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func (r *CatalogRepository) GetCategory(ctx context.Context, id int64) (*domain.Category, error) {
	var c domain.Category
	err := r.db.QueryRow(ctx,
		`SELECT id, name, display_name, icon, sort_order FROM categories WHERE id = $1`,
		id).Scan(&c.ID, &c.Name, &c.DisplayName, &c.Icon, &c.SortOrder)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CatalogRepository) CreateCategory(ctx context.Context, c *domain.Category) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO categories (name, display_name, icon, sort_order)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		c.Name, c.DisplayName, c.Icon, c.SortOrder).Scan(&c.ID)
}

func (r *CatalogRepository) UpdateCategory(ctx context.Context, c *domain.Category) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE categories SET name = $2, display_name = $3, icon = $4, sort_order = $5
		 WHERE id = $1`,
		c.ID, c.Name, c.DisplayName, c.Icon, c.SortOrder)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *CatalogRepository) ListProducts(ctx context.Context, categoryID int64, activeOnly bool) ([]domain.Product, error) {
	q := `SELECT id, category_id, name, unit_price, min_units, profit_percent, kind, active
	      FROM products WHERE category_id = $1`
	if activeOnly {
		q += ` AND active`
	}
	q += ` ORDER BY name`

	rows, err := r.db.Query(ctx, q, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

func (r *CatalogRepository) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, category_id, name, unit_price, min_units, profit_percent, kind, active
		 FROM products WHERE id = $1`, id)
	var p domain.Product
	if err := row.Scan(&p.ID, &p.CategoryID, &p.Name, &p.UnitPrice, &p.MinUnits,
		&p.ProfitPercent, &p.Kind, &p.Active); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *CatalogRepository) CreateProduct(ctx context.Context, p *domain.Product) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO products (category_id, name, unit_price, min_units, profit_percent, kind, active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		p.CategoryID, p.Name, p.UnitPrice, p.MinUnits, p.ProfitPercent, p.Kind, p.Active).Scan(&p.ID)
}

func (r *CatalogRepository) UpdateProduct(ctx context.Context, p *domain.Product) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE products SET category_id = $2, name = $3, unit_price = $4, min_units = $5,
			profit_percent = $6, kind = $7, active = $8
		 WHERE id = $1`,
		p.ID, p.CategoryID, p.Name, p.UnitPrice, p.MinUnits, p.ProfitPercent, p.Kind, p.Active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *CatalogRepository) ListVariants(ctx context.Context, productID int64, activeOnly bool) ([]domain.Variant, error) {
	q := `SELECT id, product_id, name, description, quantity, duration_days, price, sort_order, active
	      FROM variants WHERE product_id = $1`
	if activeOnly {
		q += ` AND active`
	}
	q += ` ORDER BY sort_order, id`

	rows, err := r.db.Query(ctx, q, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var variants []domain.Variant
	for rows.Next() {
		var v domain.Variant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Name, &v.Description, &v.Quantity,
			&v.DurationDays, &v.Price, &v.SortOrder, &v.Active); err != nil {
			return nil, err
		}
		variants = append(variants, v)
	}
	return variants, rows.Err()
}

func (r *CatalogRepository) GetVariant(ctx context.Context, id int64) (*domain.Variant, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, product_id, name, description, quantity, duration_days, price, sort_order, active
		 FROM variants WHERE id = $1`, id)
	var v domain.Variant
	if err := row.Scan(&v.ID, &v.ProductID, &v.Name, &v.Description, &v.Quantity,
		&v.DurationDays, &v.Price, &v.SortOrder, &v.Active); err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *CatalogRepository) CreateVariant(ctx context.Context, v *domain.Variant) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO variants (product_id, name, description, quantity, duration_days, price, sort_order, active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		v.ProductID, v.Name, v.Description, v.Quantity, v.DurationDays, v.Price, v.SortOrder, v.Active).Scan(&v.ID)
}

// DeleteVariant removes a variant. Historical orders keep their own name
// snapshot so this never orphans them.
func (r *CatalogRepository) DeleteVariant(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM variants WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanProducts(rows pgx.Rows) ([]domain.Product, error) {
	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.CategoryID, &p.Name, &p.UnitPrice, &p.MinUnits,
			&p.ProfitPercent, &p.Kind, &p.Active); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
