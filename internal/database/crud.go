package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/smartfood/grocery-service/internal/types"
)

// CreateUser registers a user at the given home location.
func (r *Repository) CreateUser(ctx context.Context, name string, loc types.Location) (*types.User, error) {
	u := &types.User{Name: name, Location: loc}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (name, latitude, longitude)
		VALUES ($1, $2, $3)
		RETURNING id
	`, name, loc.Latitude, loc.Longitude).Scan(&u.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	r.logger.Info().Int64("user_id", u.ID).Msg("user created")
	return u, nil
}

// GetUser returns a user with its budget preference.
func (r *Repository) GetUser(ctx context.Context, userID int64) (*types.User, error) {
	return getUser(ctx, r.pool, userID)
}

// SetBudget records or replaces the user's budget preference.
func (r *Repository) SetBudget(ctx context.Context, userID, budget int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO preference (user_id, budget)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET budget = EXCLUDED.budget
	`, userID, budget)
	if pgCode(err) == pgForeignKeyViolation {
		return types.NotFound("user", userID)
	}
	if err != nil {
		return fmt.Errorf("failed to upsert preference: %w", err)
	}
	return nil
}

// GetBudget returns the user's budget preference.
func (r *Repository) GetBudget(ctx context.Context, userID int64) (int64, error) {
	u, err := r.GetUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	if u.Budget == nil {
		return 0, types.NewDomainError(types.ErrCodePreferencesMissing,
			fmt.Sprintf("user %d has no budget preference", userID))
	}
	return *u.Budget, nil
}

// CreateList creates an empty shopping list for the user.
func (r *Repository) CreateList(ctx context.Context, userID int64, name string) (*types.ShoppingList, error) {
	l := &types.ShoppingList{UserID: userID, Name: name}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO shopping_list (user_id, name)
		VALUES ($1, $2)
		RETURNING id
	`, userID, name).Scan(&l.ID)
	if pgCode(err) == pgForeignKeyViolation {
		return nil, types.NotFound("user", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert shopping list: %w", err)
	}
	return l, nil
}

// ListUserLists returns the user's lists, newest first.
func (r *Repository) ListUserLists(ctx context.Context, userID int64) ([]types.ListSummary, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := getUser(ctx, tx, userID); err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT l.id, l.user_id, l.name, COUNT(sli.food_id)
		FROM shopping_list l
		LEFT JOIN shopping_list_item sli ON sli.list_id = l.id
		WHERE l.user_id = $1
		GROUP BY l.id
		ORDER BY l.created_at DESC, l.id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query shopping lists: %w", err)
	}
	defer rows.Close()

	lists := []types.ListSummary{}
	for rows.Next() {
		var s types.ListSummary
		if err := rows.Scan(&s.ID, &s.UserID, &s.Name, &s.ItemCount); err != nil {
			return nil, fmt.Errorf("failed to scan shopping list: %w", err)
		}
		lists = append(lists, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shopping lists: %w", err)
	}
	return lists, tx.Commit(ctx)
}

// DeleteList removes a list and its items.
func (r *Repository) DeleteList(ctx context.Context, userID, listID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM shopping_list WHERE id = $1 AND user_id = $2`, listID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete shopping list: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NotFound("shopping list", listID)
	}
	return nil
}

// AddListItems inserts all items or none. A food already on the list (or
// repeated in items) is a Conflict and leaves the existing line untouched.
func (r *Repository) AddListItems(ctx context.Context, userID, listID int64, items []types.ShoppingListItem) error {
	if len(items) == 0 {
		return types.InvalidConstraint("items", "must have at least one item")
	}
	for i, it := range items {
		if it.Quantity < 1 {
			return types.InvalidConstraint("items", fmt.Sprintf("item at index %d has invalid quantity", i))
		}
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := requireOwnedList(ctx, tx, userID, listID); err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, it := range items {
		batch.Queue(`
			INSERT INTO shopping_list_item (list_id, food_id, quantity)
			VALUES ($1, $2, $3)
		`, listID, it.FoodID, it.Quantity)
	}

	results := tx.SendBatch(ctx, batch)
	for _, it := range items {
		if _, err := results.Exec(); err != nil {
			results.Close()
			switch pgCode(err) {
			case pgUniqueViolation:
				return types.Conflict(fmt.Sprintf("food item %d is already on list %d", it.FoodID, listID))
			case pgForeignKeyViolation:
				return types.NotFound("food item", it.FoodID)
			}
			return fmt.Errorf("failed to insert list item: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit list items: %w", err)
	}

	r.logger.Debug().Int64("list_id", listID).Int("items", len(items)).Msg("list items added")
	return nil
}

// RemoveListItem deletes one line from a list.
func (r *Repository) RemoveListItem(ctx context.Context, userID, listID, foodID int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := requireOwnedList(ctx, tx, userID, listID); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `DELETE FROM shopping_list_item WHERE list_id = $1 AND food_id = $2`, listID, foodID)
	if err != nil {
		return fmt.Errorf("failed to delete list item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NotFound("list item", foodID)
	}
	return tx.Commit(ctx)
}

// requireOwnedList locks the list row and checks that userID owns it.
func requireOwnedList(ctx context.Context, tx pgx.Tx, userID, listID int64) error {
	var owner int64
	err := tx.QueryRow(ctx, `SELECT user_id FROM shopping_list WHERE id = $1 FOR UPDATE`, listID).Scan(&owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return types.NotFound("shopping list", listID)
	}
	if err != nil {
		return fmt.Errorf("failed to query shopping list: %w", err)
	}
	if owner != userID {
		return types.NotFound("shopping list", listID)
	}
	return nil
}

// ListStores returns every store with its hours and location.
func (r *Repository) ListStores(ctx context.Context) ([]types.Store, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, latitude, longitude,
		       TO_CHAR(open_time, 'HH24:MI'), TO_CHAR(close_time, 'HH24:MI')
		FROM store
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stores: %w", err)
	}
	defer rows.Close()

	stores := []types.Store{}
	for rows.Next() {
		var s types.Store
		if err := rows.Scan(&s.ID, &s.Name, &s.Location.Latitude, &s.Location.Longitude, &s.OpenTime, &s.CloseTime); err != nil {
			return nil, fmt.Errorf("failed to scan store: %w", err)
		}
		stores = append(stores, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stores: %w", err)
	}
	return stores, nil
}

// GetStoreCatalog returns the items a store carries, ordered by name.
func (r *Repository) GetStoreCatalog(ctx context.Context, storeID int64) ([]types.CatalogEntry, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM store WHERE id = $1)`, storeID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check store: %w", err)
	}
	if !exists {
		return nil, types.NotFound("store", storeID)
	}

	rows, err := tx.Query(ctx, `
		SELECT f.id, f.name, ci.quantity, ci.price
		FROM catalog c
		JOIN catalog_item ci ON ci.catalog_id = c.id
		JOIN food_item f ON f.id = ci.food_id
		WHERE c.store_id = $1
		ORDER BY f.name, f.id
	`, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog: %w", err)
	}
	defer rows.Close()

	entries := []types.CatalogEntry{}
	for rows.Next() {
		var e types.CatalogEntry
		if err := rows.Scan(&e.ItemSKU, &e.Name, &e.Quantity, &e.Price); err != nil {
			return nil, fmt.Errorf("failed to scan catalog entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating catalog: %w", err)
	}
	return entries, tx.Commit(ctx)
}

// CatalogStats are row counts published by the stats sweeper.
type CatalogStats struct {
	Stores        int64
	FoodItems     int64
	Offers        int64
	Users         int64
	ShoppingLists int64
}

// GetCatalogStats counts the main tables in one query.
func (r *Repository) GetCatalogStats(ctx context.Context) (*CatalogStats, error) {
	s := &CatalogStats{}
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM store),
			(SELECT COUNT(*) FROM food_item),
			(SELECT COUNT(*) FROM catalog_item),
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM shopping_list)
	`).Scan(&s.Stores, &s.FoodItems, &s.Offers, &s.Users, &s.ShoppingLists)
	if err != nil {
		return nil, fmt.Errorf("failed to count catalog rows: %w", err)
	}
	return s, nil
}
