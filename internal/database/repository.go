package database

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/smartfood/grocery-service/internal/optimizer"
	"github.com/smartfood/grocery-service/internal/types"
)

// Schema is the DDL the repository expects.
//
//go:embed schema.sql
var Schema string

// Postgres error codes mapped to domain errors.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Repository is the pgx-backed data access layer.
type Repository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewRepository creates a repository over the given pool.
func NewRepository(pool *pgxpool.Pool, logger zerolog.Logger) *Repository {
	return &Repository{
		pool:   pool,
		logger: logger.With().Str("repository", "grocery").Logger(),
	}
}

// ApplySchema creates any missing tables.
func (r *Repository) ApplySchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// ReadSnapshot runs fn inside a read-only REPEATABLE READ transaction so
// every query issued through the snapshot sees the same database state.
func (r *Repository) ReadSnapshot(ctx context.Context, fn func(ctx context.Context, s optimizer.Snapshot) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return fmt.Errorf("failed to begin snapshot: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, &snapshot{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// snapshot implements optimizer.Snapshot over one transaction.
type snapshot struct {
	tx pgx.Tx
}

func (s *snapshot) GetUser(ctx context.Context, userID int64) (*types.User, error) {
	return getUser(ctx, s.tx, userID)
}

func (s *snapshot) FoodExists(ctx context.Context, foodID int64) (bool, error) {
	var exists bool
	err := s.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM food_item WHERE id = $1)`, foodID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check food item: %w", err)
	}
	return exists, nil
}

const offersQuery = `
	SELECT s.id, s.name, s.latitude, s.longitude, ci.food_id, ci.price, ci.quantity
	FROM catalog_item ci
	JOIN catalog c ON c.id = ci.catalog_id
	JOIN store s ON s.id = c.store_id
`

func (s *snapshot) GetOffers(ctx context.Context, foodID int64) ([]types.CatalogOffer, error) {
	rows, err := s.tx.Query(ctx, offersQuery+` WHERE ci.food_id = $1 ORDER BY s.id`, foodID)
	if err != nil {
		return nil, fmt.Errorf("failed to query offers: %w", err)
	}
	defer rows.Close()

	offers := []types.CatalogOffer{}
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		offers = append(offers, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating offers: %w", err)
	}
	return offers, nil
}

func (s *snapshot) GetOffersForFoodIDs(ctx context.Context, foodIDs []int64) (map[int64][]types.CatalogOffer, error) {
	out := make(map[int64][]types.CatalogOffer, len(foodIDs))
	if len(foodIDs) == 0 {
		return out, nil
	}

	rows, err := s.tx.Query(ctx, offersQuery+` WHERE ci.food_id = ANY($1) ORDER BY ci.food_id, s.id`, foodIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query offers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		out[o.FoodID] = append(out[o.FoodID], o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating offers: %w", err)
	}
	return out, nil
}

func scanOffer(rows pgx.Rows) (types.CatalogOffer, error) {
	var o types.CatalogOffer
	err := rows.Scan(
		&o.StoreID, &o.StoreName,
		&o.StoreLocation.Latitude, &o.StoreLocation.Longitude,
		&o.FoodID, &o.Price, &o.Quantity,
	)
	if err != nil {
		return o, fmt.Errorf("failed to scan offer: %w", err)
	}
	return o, nil
}

// LoadListContext reads the user, the list header and its lines. The header
// query resolves user and list in one round trip; lines are read only when
// the list belongs to the user.
func (s *snapshot) LoadListContext(ctx context.Context, userID, listID int64) (*optimizer.ListContext, error) {
	var (
		uID       *int64
		uName     *string
		uLat      *float64
		uLon      *float64
		budget    *int64
		listOwner *int64
	)
	err := s.tx.QueryRow(ctx, `
		SELECT u.id, u.name, u.latitude, u.longitude, p.budget, l.user_id
		FROM (SELECT 1) AS anchor
		LEFT JOIN users u ON u.id = $1
		LEFT JOIN preference p ON p.user_id = u.id
		LEFT JOIN shopping_list l ON l.id = $2
	`, userID, listID).Scan(&uID, &uName, &uLat, &uLon, &budget, &listOwner)
	if err != nil {
		return nil, fmt.Errorf("failed to load list context: %w", err)
	}

	lc := &optimizer.ListContext{}
	if uID != nil {
		lc.User = &types.User{
			ID:       *uID,
			Name:     *uName,
			Location: types.Location{Latitude: *uLat, Longitude: *uLon},
			Budget:   budget,
		}
	}
	if listOwner != nil {
		lc.ListExists = true
		lc.OwnerID = *listOwner
	}
	if lc.User == nil || !lc.ListExists || lc.OwnerID != userID {
		return lc, nil
	}

	rows, err := s.tx.Query(ctx, `
		SELECT sli.food_id, f.name, sli.quantity
		FROM shopping_list_item sli
		JOIN food_item f ON f.id = sli.food_id
		WHERE sli.list_id = $1
		ORDER BY sli.added_at, sli.food_id
	`, listID)
	if err != nil {
		return nil, fmt.Errorf("failed to query list items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l optimizer.ListLine
		if err := rows.Scan(&l.FoodID, &l.Name, &l.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan list item: %w", err)
		}
		lc.Lines = append(lc.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating list items: %w", err)
	}
	return lc, nil
}

func (s *snapshot) GetNutritionFacts(ctx context.Context, foodIDs []int64) (map[int64]types.NutritionFacts, error) {
	out := make(map[int64]types.NutritionFacts, len(foodIDs))
	if len(foodIDs) == 0 {
		return out, nil
	}

	rows, err := s.tx.Query(ctx, `
		SELECT id, serving_size, calories, saturated_fat, trans_fat, fiber, carbs, sugars, protein
		FROM food_item
		WHERE id = ANY($1)
	`, foodIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query nutrition facts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var n types.NutritionFacts
		if err := rows.Scan(&id, &n.ServingSize, &n.Calories, &n.SaturatedFat, &n.TransFat,
			&n.Fiber, &n.Carbs, &n.Sugars, &n.Protein); err != nil {
			return nil, fmt.Errorf("failed to scan nutrition facts: %w", err)
		}
		out[id] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating nutrition facts: %w", err)
	}
	return out, nil
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getUser(ctx context.Context, q querier, userID int64) (*types.User, error) {
	u := &types.User{}
	err := q.QueryRow(ctx, `
		SELECT u.id, u.name, u.latitude, u.longitude, p.budget
		FROM users u
		LEFT JOIN preference p ON p.user_id = u.id
		WHERE u.id = $1
	`, userID).Scan(&u.ID, &u.Name, &u.Location.Latitude, &u.Location.Longitude, &u.Budget)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, types.NotFound("user", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return u, nil
}

// pgCode returns the SQLSTATE of a Postgres error, or "".
func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
