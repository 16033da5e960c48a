package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/streamwatch/watchlist-api/internal/domain"
)

// PlatformsRepository provides persistence helpers for streaming platforms.
type PlatformsRepository struct {
	pool *pgxpool.Pool
}

const platformColumns = `
    id,
    name,
    about,
    website,
    created_at,
    updated_at
`

// PlatformParams bundles the writable fields of a platform.
type PlatformParams struct {
	Name    string
	About   *string
	Website *string
}

// Create inserts a new platform row and returns the stored entity.
func (r *PlatformsRepository) Create(ctx context.Context, params PlatformParams) (domain.Platform, error) {
	const query = `
        INSERT INTO platforms (id, name, about, website)
        VALUES ($1,$2,$3,$4)
        RETURNING ` + platformColumns

	row := r.pool.QueryRow(ctx, query, uuid.NewString(), params.Name, params.About, params.Website)
	platform, err := scanPlatform(row)
	if err != nil {
		return domain.Platform{}, mapPgError(err)
	}
	return platform, nil
}

// List returns all platforms in stored order.
func (r *PlatformsRepository) List(ctx context.Context) ([]domain.Platform, error) {
	const query = `SELECT ` + platformColumns + ` FROM platforms ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	platforms := make([]domain.Platform, 0)
	for rows.Next() {
		platform, err := scanPlatform(rows)
		if err != nil {
			return nil, err
		}
		platforms = append(platforms, platform)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return platforms, nil
}

// GetByID fetches a platform by its identifier.
func (r *PlatformsRepository) GetByID(ctx context.Context, id string) (domain.Platform, error) {
	const query = `SELECT ` + platformColumns + ` FROM platforms WHERE id = $1`

	platform, err := scanPlatform(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return domain.Platform{}, mapPgError(err)
	}
	return platform, nil
}

// Update replaces the writable fields of a platform.
func (r *PlatformsRepository) Update(ctx context.Context, id string, params PlatformParams) (domain.Platform, error) {
	const query = `
        UPDATE platforms
        SET name = $2, about = $3, website = $4, updated_at = now()
        WHERE id = $1
        RETURNING ` + platformColumns

	row := r.pool.QueryRow(ctx, query, id, params.Name, params.About, params.Website)
	platform, err := scanPlatform(row)
	if err != nil {
		return domain.Platform{}, mapPgError(err)
	}
	return platform, nil
}

// Delete removes a platform. The schema cascades the delete to the
// platform's watchlist items and their reviews.
func (r *PlatformsRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM platforms WHERE id = $1`, id)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanPlatform(row pgx.Row) (domain.Platform, error) {
	var platform domain.Platform
	err := row.Scan(
		&platform.ID,
		&platform.Name,
		&platform.About,
		&platform.Website,
		&platform.CreatedAt,
		&platform.UpdatedAt,
	)
	if err != nil {
		return domain.Platform{}, err
	}
	return platform, nil
}
