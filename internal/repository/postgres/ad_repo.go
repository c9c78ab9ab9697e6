// internal/repository/postgres/ad_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sooq-service/internal/domain/ad"
	xerrors "sooq-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AdRepository struct {
	db *pgxpool.Pool
}

func NewAdRepository(db *pgxpool.Pool) *AdRepository {
	return &AdRepository{db: db}
}

const adColumns = `id, public_id, user_id, category_id, title, description, price, status,
		published_at, expires_at, views_count, created_at, updated_at`

// CreateWithTx inserts a new ad inside the caller's transaction.
func (r *AdRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, a *ad.Ad) error {
	query := `
		INSERT INTO ads (public_id, user_id, category_id, title, description, price, status, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, views_count, created_at, updated_at
	`

	err := tx.QueryRow(
		ctx, query,
		a.PublicID, a.UserID, a.CategoryID, a.Title, a.Description,
		a.Price, a.Status, a.PublishedAt,
	).Scan(&a.ID, &a.ViewsCount, &a.CreatedAt, &a.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create ad: %w", err)
	}

	return nil
}

// UpdateWithTx updates the ad's own columns inside the caller's transaction.
func (r *AdRepository) UpdateWithTx(ctx context.Context, tx pgx.Tx, a *ad.Ad) error {
	query := `
		UPDATE ads
		SET title = $1, description = $2, price = $3, status = $4, updated_at = NOW()
		WHERE id = $5
	`

	result, err := tx.Exec(ctx, query, a.Title, a.Description, a.Price, a.Status, a.ID)
	if err != nil {
		return fmt.Errorf("failed to update ad: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}

	return nil
}

// FindByID retrieves an ad by its local id.
func (r *AdRepository) FindByID(ctx context.Context, id int64) (*ad.Ad, error) {
	query := fmt.Sprintf(`SELECT %s FROM ads WHERE id = $1`, adColumns)
	return r.scanAd(r.db.QueryRow(ctx, query, id))
}

// FindByPublicID retrieves an ad by its opaque public reference.
func (r *AdRepository) FindByPublicID(ctx context.Context, publicID string) (*ad.Ad, error) {
	query := fmt.Sprintf(`SELECT %s FROM ads WHERE public_id = $1`, adColumns)
	return r.scanAd(r.db.QueryRow(ctx, query, publicID))
}

// List retrieves ads matching the filters with total count for pagination.
func (r *AdRepository) List(ctx context.Context, filters *ad.ListFilters) ([]ad.Ad, int64, error) {
	conditions := []string{}
	args := []interface{}{}
	argPos := 1

	if filters.CategoryID != nil {
		conditions = append(conditions, fmt.Sprintf("category_id = $%d", argPos))
		args = append(args, *filters.CategoryID)
		argPos++
	}
	if filters.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", argPos))
		args = append(args, *filters.UserID)
		argPos++
	}
	if filters.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *filters.Status)
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM ads %s", whereClause)
	var total int64
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count ads: %w", err)
	}

	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 {
		filters.PageSize = 20
	}

	query := fmt.Sprintf(`
		SELECT %s FROM ads
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, adColumns, whereClause, argPos, argPos+1)

	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list ads: %w", err)
	}
	defer rows.Close()

	ads := []ad.Ad{}
	for rows.Next() {
		var a ad.Ad
		err := rows.Scan(
			&a.ID, &a.PublicID, &a.UserID, &a.CategoryID, &a.Title, &a.Description,
			&a.Price, &a.Status, &a.PublishedAt, &a.ExpiresAt, &a.ViewsCount,
			&a.CreatedAt, &a.UpdatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan ad: %w", err)
		}
		ads = append(ads, a)
	}

	return ads, total, rows.Err()
}

// IncrementViews bumps the view counter on show.
func (r *AdRepository) IncrementViews(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `UPDATE ads SET views_count = views_count + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to increment views: %w", err)
	}
	return nil
}

// Delete removes an ad; field values cascade at the database level.
func (r *AdRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM ads WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete ad: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

func (r *AdRepository) scanAd(row pgx.Row) (*ad.Ad, error) {
	var a ad.Ad
	err := row.Scan(
		&a.ID, &a.PublicID, &a.UserID, &a.CategoryID, &a.Title, &a.Description,
		&a.Price, &a.Status, &a.PublishedAt, &a.ExpiresAt, &a.ViewsCount,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find ad: %w", err)
	}
	return &a, nil
}
