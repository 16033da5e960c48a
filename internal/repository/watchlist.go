package repository

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/streamwatch/watchlist-api/internal/domain"
)

// Pagination strategies accepted by ListPaged. The values match the
// configuration surface.
const (
	StrategyPage   = "page"
	StrategyOffset = "offset"
	StrategyCursor = "cursor"
)

// WatchlistRepository provides persistence helpers for watchlist items.
type WatchlistRepository struct {
	pool *pgxpool.Pool
}

const watchlistColumns = `
    w.id,
    w.title,
    w.storyline,
    w.active,
    w.avg_rating,
    w.rating_count,
    w.platform_id,
    p.name,
    w.created_at,
    w.updated_at
`

// WatchlistItemParams bundles the writable fields of a watchlist item. The
// derived rating fields are never written through this path.
type WatchlistItemParams struct {
	Title      string
	Storyline  *string
	Active     bool
	PlatformID string
}

// Cursor allows stable pagination by created_at/id.
type Cursor struct {
	CreatedAt time.Time `json:"createdAt"`
	ID        string    `json:"id"`
}

// WatchlistPageParams selects one pagination strategy and its inputs.
type WatchlistPageParams struct {
	Strategy string
	Limit    int
	Page     int     // page strategy, 1-based
	Offset   int     // offset strategy
	Cursor   *Cursor // cursor strategy
	Query    *string // title substring filter
	Ordering *string // "avg_rating" or "-avg_rating"; page/offset only
}

// WatchlistPage is a single page of items. Total is populated for the page
// and offset strategies; NextCursor for the cursor strategy.
type WatchlistPage struct {
	Items      []domain.WatchlistItem
	Total      int64
	NextCursor *string
}

// Create inserts a new watchlist item. A missing platform surfaces as
// ErrNotFound via the foreign key.
func (r *WatchlistRepository) Create(ctx context.Context, params WatchlistItemParams) (domain.WatchlistItem, error) {
	const query = `
        WITH ins AS (
            INSERT INTO watchlist (id, title, storyline, active, platform_id)
            VALUES ($1,$2,$3,$4,$5)
            RETURNING *
        )
        SELECT w.id, w.title, w.storyline, w.active, w.avg_rating, w.rating_count,
               w.platform_id, p.name, w.created_at, w.updated_at
        FROM ins w JOIN platforms p ON p.id = w.platform_id
    `

	row := r.pool.QueryRow(ctx, query, uuid.NewString(), params.Title, params.Storyline, params.Active, params.PlatformID)
	item, err := scanWatchlistItem(row)
	if err != nil {
		return domain.WatchlistItem{}, mapPgError(err)
	}
	return item, nil
}

// GetByID fetches a watchlist item by its identifier.
func (r *WatchlistRepository) GetByID(ctx context.Context, id string) (domain.WatchlistItem, error) {
	query := fmt.Sprintf(`SELECT %s FROM watchlist w JOIN platforms p ON p.id = w.platform_id WHERE w.id = $1`, watchlistColumns)

	item, err := scanWatchlistItem(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return domain.WatchlistItem{}, mapPgError(err)
	}
	return item, nil
}

// Update replaces the writable fields of a watchlist item.
func (r *WatchlistRepository) Update(ctx context.Context, id string, params WatchlistItemParams) (domain.WatchlistItem, error) {
	const query = `
        WITH upd AS (
            UPDATE watchlist
            SET title = $2, storyline = $3, active = $4, platform_id = $5, updated_at = now()
            WHERE id = $1
            RETURNING *
        )
        SELECT w.id, w.title, w.storyline, w.active, w.avg_rating, w.rating_count,
               w.platform_id, p.name, w.created_at, w.updated_at
        FROM upd w JOIN platforms p ON p.id = w.platform_id
    `

	row := r.pool.QueryRow(ctx, query, id, params.Title, params.Storyline, params.Active, params.PlatformID)
	item, err := scanWatchlistItem(row)
	if err != nil {
		return domain.WatchlistItem{}, mapPgError(err)
	}
	return item, nil
}

// Delete removes a watchlist item; its reviews cascade.
func (r *WatchlistRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM watchlist WHERE id = $1`, id)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns every watchlist item, newest first.
func (r *WatchlistRepository) List(ctx context.Context) ([]domain.WatchlistItem, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM watchlist w JOIN platforms p ON p.id = w.platform_id
        ORDER BY w.created_at DESC, w.id DESC
    `, watchlistColumns)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectWatchlistItems(rows)
}

// ListPaged returns one page of watchlist items under the requested
// strategy. The cursor strategy keeps the fixed created_at/id order; the
// page and offset strategies additionally honor the Ordering field.
func (r *WatchlistRepository) ListPaged(ctx context.Context, params WatchlistPageParams) (WatchlistPage, error) {
	if params.Limit <= 0 {
		params.Limit = 20
	} else if params.Limit > 100 {
		params.Limit = 100
	}

	where := make([]string, 0, 2)
	args := make([]interface{}, 0, 4)
	arg := func(value interface{}) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if params.Query != nil && strings.TrimSpace(*params.Query) != "" {
		q := "%" + strings.TrimSpace(*params.Query) + "%"
		where = append(where, fmt.Sprintf("w.title ILIKE %s", arg(q)))
	}

	switch params.Strategy {
	case StrategyCursor:
		if params.Cursor != nil {
			created := arg(params.Cursor.CreatedAt)
			id := arg(params.Cursor.ID)
			where = append(where, fmt.Sprintf("(w.created_at, w.id) < (%s, %s)", created, id))
		}
		return r.listCursorPage(ctx, where, args, params.Limit)
	case StrategyPage:
		offset := 0
		if params.Page > 1 {
			offset = (params.Page - 1) * params.Limit
		}
		return r.listOffsetPage(ctx, where, args, params.Ordering, params.Limit, offset)
	case StrategyOffset:
		offset := params.Offset
		if offset < 0 {
			offset = 0
		}
		return r.listOffsetPage(ctx, where, args, params.Ordering, params.Limit, offset)
	default:
		return WatchlistPage{}, fmt.Errorf("unknown pagination strategy %q", params.Strategy)
	}
}

func (r *WatchlistRepository) listCursorPage(ctx context.Context, where []string, args []interface{}, limit int) (WatchlistPage, error) {
	query := strings.Builder{}
	query.WriteString("SELECT ")
	query.WriteString(watchlistColumns)
	query.WriteString(" FROM watchlist w JOIN platforms p ON p.id = w.platform_id")
	if len(where) > 0 {
		query.WriteString(" WHERE ")
		query.WriteString(strings.Join(where, " AND "))
	}
	query.WriteString(" ORDER BY w.created_at DESC, w.id DESC")
	query.WriteString(fmt.Sprintf(" LIMIT %d", limit))

	rows, err := r.pool.Query(ctx, query.String(), args...)
	if err != nil {
		return WatchlistPage{}, err
	}
	defer rows.Close()

	items, err := collectWatchlistItems(rows)
	if err != nil {
		return WatchlistPage{}, err
	}

	var nextCursor *string
	if len(items) == limit {
		last := items[len(items)-1]
		token, err := encodeCursor(Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		if err != nil {
			return WatchlistPage{}, err
		}
		nextCursor = &token
	}
	return WatchlistPage{Items: items, NextCursor: nextCursor}, nil
}

func (r *WatchlistRepository) listOffsetPage(ctx context.Context, where []string, args []interface{}, ordering *string, limit, offset int) (WatchlistPage, error) {
	orderBy := "w.created_at DESC, w.id DESC"
	if ordering != nil {
		switch *ordering {
		case "avg_rating":
			orderBy = "w.avg_rating ASC, w.id ASC"
		case "-avg_rating":
			orderBy = "w.avg_rating DESC, w.id DESC"
		}
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = " WHERE " + strings.Join(where, " AND ")
	}

	countQuery := "SELECT COUNT(*) FROM watchlist w" + whereClause
	var total int64
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return WatchlistPage{}, err
	}

	query := fmt.Sprintf(`
        SELECT %s FROM watchlist w JOIN platforms p ON p.id = w.platform_id%s
        ORDER BY %s
        LIMIT %d OFFSET %d
    `, watchlistColumns, whereClause, orderBy, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return WatchlistPage{}, err
	}
	defer rows.Close()

	items, err := collectWatchlistItems(rows)
	if err != nil {
		return WatchlistPage{}, err
	}
	return WatchlistPage{Items: items, Total: total}, nil
}

func collectWatchlistItems(rows pgx.Rows) ([]domain.WatchlistItem, error) {
	items := make([]domain.WatchlistItem, 0)
	for rows.Next() {
		item, err := scanWatchlistItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func scanWatchlistItem(row pgx.Row) (domain.WatchlistItem, error) {
	var item domain.WatchlistItem
	err := row.Scan(
		&item.ID,
		&item.Title,
		&item.Storyline,
		&item.Active,
		&item.AvgRating,
		&item.RatingCount,
		&item.PlatformID,
		&item.PlatformName,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return domain.WatchlistItem{}, err
	}
	return item, nil
}

func encodeCursor(c Cursor) (string, error) {
	payload, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(payload), nil
}

// DecodeCursor parses a cursor token produced by a previous page.
func DecodeCursor(token string) (*Cursor, error) {
	if token == "" {
		return nil, nil
	}
	data, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor: %w", err)
	}
	var cursor Cursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return nil, fmt.Errorf("invalid cursor payload: %w", err)
	}
	return &cursor, nil
}
