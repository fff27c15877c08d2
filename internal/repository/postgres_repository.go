package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bizledger/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresRepository struct {
	pool *pgxpool.Pool
	q    querier
	inTx bool
}

func NewPostgres(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool, q: pool}
}

const clientColumns = `id, name, contact_info, address, notes, created_at, updated_at`

const productColumns = `
	id,
	name,
	product_type,
	cost_price,
	sale_price,
	quantity,
	attributes,
	created_at,
	updated_at
`

const saleColumns = `
	id,
	client_id,
	items,
	total_amount,
	total_profit,
	cargo_slip_info,
	tracking_no,
	sold_at,
	created_at,
	updated_at
`

func (r *PostgresRepository) ListClients(ctx context.Context) ([]domain.Client, error) {
	rows, err := r.q.Query(ctx, `SELECT `+clientColumns+` FROM clients ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	clients := make([]domain.Client, 0)
	for rows.Next() {
		client, err := scanClientRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, client)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clients: %w", err)
	}
	return clients, nil
}

func (r *PostgresRepository) GetClient(ctx context.Context, id string) (*domain.Client, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	row := r.q.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id)
	client, err := scanClientRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get client %s: %w", id, err)
	}
	return &client, nil
}

func (r *PostgresRepository) CreateClient(ctx context.Context, input ClientInput) (domain.Client, error) {
	row := r.q.QueryRow(ctx, `
		INSERT INTO clients (id, name, contact_info, address, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+clientColumns,
		newID(), input.Name, input.ContactInfo, input.Address, input.Notes,
	)
	client, err := scanClientRow(row)
	if err != nil {
		return domain.Client{}, fmt.Errorf("create client: %w", err)
	}
	return client, nil
}

func (r *PostgresRepository) UpdateClient(ctx context.Context, id string, input ClientInput) (*domain.Client, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	row := r.q.QueryRow(ctx, `
		UPDATE clients
		SET
			name = $2,
			contact_info = $3,
			address = $4,
			notes = $5,
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+clientColumns,
		id, input.Name, input.ContactInfo, input.Address, input.Notes,
	)
	client, err := scanClientRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update client %s: %w", id, err)
	}
	return &client, nil
}

func (r *PostgresRepository) DeleteClient(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	cmd, err := r.q.Exec(ctx, "DELETE FROM clients WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete client %s: %w", id, err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) ListProducts(ctx context.Context, filter ProductListFilter) ([]domain.Product, error) {
	limit := normalizeLimit(filter.Limit)
	offset := normalizeOffset(filter.Offset)
	search := strings.TrimSpace(filter.Search)

	base := `
		SELECT ` + productColumns + `
		FROM products
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')
	`
	args := []any{search}
	argIndex := 2
	if filter.Type != "" {
		base += fmt.Sprintf(" AND product_type = $%d", argIndex)
		args = append(args, string(filter.Type))
		argIndex++
	}
	base += fmt.Sprintf(" ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := r.q.Query(ctx, base, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProductRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

func (r *PostgresRepository) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	row := r.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	product, err := scanProductRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	return &product, nil
}

func (r *PostgresRepository) CreateProduct(ctx context.Context, input ProductInput) (domain.Product, error) {
	row := r.q.QueryRow(ctx, `
		INSERT INTO products (
			id,
			name,
			product_type,
			cost_price,
			sale_price,
			quantity,
			attributes
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+productColumns,
		newID(),
		input.Name,
		string(input.Type),
		input.CostPrice,
		input.SalePrice,
		input.Quantity,
		input.Attributes,
	)
	product, err := scanProductRow(row)
	if err != nil {
		return domain.Product{}, fmt.Errorf("create product: %w", err)
	}
	return product, nil
}

func (r *PostgresRepository) UpdateProduct(ctx context.Context, id string, input ProductInput) (*domain.Product, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	row := r.q.QueryRow(ctx, `
		UPDATE products
		SET
			name = $2,
			product_type = $3,
			cost_price = $4,
			sale_price = $5,
			quantity = $6,
			attributes = $7,
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+productColumns,
		id,
		input.Name,
		string(input.Type),
		input.CostPrice,
		input.SalePrice,
		input.Quantity,
		input.Attributes,
	)
	product, err := scanProductRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update product %s: %w", id, err)
	}
	return &product, nil
}

func (r *PostgresRepository) DeleteProduct(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	cmd, err := r.q.Exec(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) AdjustStock(ctx context.Context, id string, delta int) (*domain.Product, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	row := r.q.QueryRow(ctx, `
		UPDATE products
		SET quantity = quantity + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+productColumns,
		id, delta,
	)
	product, err := scanProductRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("adjust stock for product %s: %w", id, err)
	}
	return &product, nil
}

func (r *PostgresRepository) ListSales(ctx context.Context, filter SaleListFilter) ([]domain.Sale, error) {
	limit := normalizeLimit(filter.Limit)
	offset := normalizeOffset(filter.Offset)

	base := `SELECT ` + saleColumns + ` FROM sales WHERE 1 = 1`
	args := []any{}
	argIndex := 1
	if filter.ClientID != "" {
		if !validID(filter.ClientID) {
			return []domain.Sale{}, nil
		}
		base += fmt.Sprintf(" AND client_id = $%d", argIndex)
		args = append(args, filter.ClientID)
		argIndex++
	}
	if filter.From != nil {
		base += fmt.Sprintf(" AND sold_at >= $%d", argIndex)
		args = append(args, *filter.From)
		argIndex++
	}
	if filter.To != nil {
		base += fmt.Sprintf(" AND sold_at < $%d", argIndex)
		args = append(args, *filter.To)
		argIndex++
	}
	base += fmt.Sprintf(" ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := r.q.Query(ctx, base, args...)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	sales := make([]domain.Sale, 0)
	for rows.Next() {
		sale, err := scanSaleRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sales: %w", err)
	}
	return sales, nil
}

func (r *PostgresRepository) GetSale(ctx context.Context, id string) (*domain.Sale, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	row := r.q.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id)
	sale, err := scanSaleRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get sale %s: %w", id, err)
	}
	return &sale, nil
}

func (r *PostgresRepository) InsertSale(ctx context.Context, sale domain.Sale) (domain.Sale, error) {
	if sale.ID == "" {
		sale.ID = newID()
	}
	if sale.Items == nil {
		sale.Items = []domain.SaleItem{}
	}
	now := time.Now().UTC()
	if sale.Date.IsZero() {
		sale.Date = now
	}
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = now
	}

	row := r.q.QueryRow(ctx, `
		INSERT INTO sales (
			id,
			client_id,
			items,
			total_amount,
			total_profit,
			cargo_slip_info,
			tracking_no,
			sold_at,
			created_at,
			updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		RETURNING `+saleColumns,
		sale.ID,
		sale.ClientID,
		sale.Items,
		sale.TotalAmount,
		sale.TotalProfit,
		sale.CargoSlipInfo,
		sale.TrackingNo,
		sale.Date,
		sale.CreatedAt,
	)
	inserted, err := scanSaleRow(row)
	if err != nil {
		return domain.Sale{}, fmt.Errorf("insert sale: %w", err)
	}
	return inserted, nil
}

func (r *PostgresRepository) DailyTotals(ctx context.Context, from, to time.Time, loc *time.Location) ([]domain.DayTotal, error) {
	rows, err := r.q.Query(ctx, `
		SELECT
			TO_CHAR(sold_at AT TIME ZONE $3, 'YYYY-MM-DD') AS day,
			COALESCE(SUM(total_amount), 0),
			COALESCE(SUM(total_profit), 0)
		FROM sales
		WHERE sold_at >= $1 AND sold_at < $2
		GROUP BY 1
		ORDER BY 1
	`, from, to, loc.String())
	if err != nil {
		return nil, fmt.Errorf("daily totals query: %w", err)
	}
	defer rows.Close()

	totals := make([]domain.DayTotal, 0)
	for rows.Next() {
		var total domain.DayTotal
		if err := rows.Scan(&total.Day, &total.Revenue, &total.Profit); err != nil {
			return nil, fmt.Errorf("scan daily total: %w", err)
		}
		totals = append(totals, total)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily totals: %w", err)
	}
	return totals, nil
}

func (r *PostgresRepository) Stats(ctx context.Context) (domain.DashboardStats, error) {
	var stats domain.DashboardStats
	if err := r.q.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM clients)::int,
			(SELECT COUNT(*) FROM products)::int,
			COUNT(*)::int,
			COALESCE(SUM(total_amount), 0),
			COALESCE(SUM(total_profit), 0)
		FROM sales
	`).Scan(
		&stats.TotalClients,
		&stats.TotalProducts,
		&stats.TotalSalesCount,
		&stats.TotalRevenue,
		&stats.TotalProfit,
	); err != nil {
		return domain.DashboardStats{}, fmt.Errorf("dashboard stats: %w", err)
	}
	return stats, nil
}

func (r *PostgresRepository) Purge(ctx context.Context) error {
	if _, err := r.q.Exec(ctx, "TRUNCATE sales, products, clients"); err != nil {
		return fmt.Errorf("purge: %w", err)
	}
	return nil
}

func (r *PostgresRepository) WithinTx(ctx context.Context, fn func(Store) error) error {
	if r.inTx {
		return fn(r)
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&PostgresRepository{pool: r.pool, q: tx, inTx: true}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Close(context.Context) error {
	r.pool.Close()
	return nil
}

func scanClientRow(row pgx.Row) (domain.Client, error) {
	var client domain.Client
	err := row.Scan(
		&client.ID,
		&client.Name,
		&client.ContactInfo,
		&client.Address,
		&client.Notes,
		&client.CreatedAt,
		&client.UpdatedAt,
	)
	return client, err
}

func scanProductRow(row pgx.Row) (domain.Product, error) {
	var (
		product     domain.Product
		productType string
	)
	if err := row.Scan(
		&product.ID,
		&product.Name,
		&productType,
		&product.CostPrice,
		&product.SalePrice,
		&product.Quantity,
		&product.Attributes,
		&product.CreatedAt,
		&product.UpdatedAt,
	); err != nil {
		return domain.Product{}, err
	}
	product.Type = domain.ProductType(productType)
	return product, nil
}

func scanSaleRow(row pgx.Row) (domain.Sale, error) {
	var sale domain.Sale
	if err := row.Scan(
		&sale.ID,
		&sale.ClientID,
		&sale.Items,
		&sale.TotalAmount,
		&sale.TotalProfit,
		&sale.CargoSlipInfo,
		&sale.TrackingNo,
		&sale.Date,
		&sale.CreatedAt,
		&sale.UpdatedAt,
	); err != nil {
		return domain.Sale{}, err
	}
	if sale.Items == nil {
		sale.Items = []domain.SaleItem{}
	}
	return sale, nil
}
