package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/gmlakar/zbirka/internal/model"
)

// executor is the subset of *sql.DB and *sql.Tx the insert path needs,
// so bulk imports can reuse it inside a transaction.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// CreateItem validates the input and inserts a new item.
func CreateItem(ctx context.Context, db *sql.DB, input model.ItemInput) (*model.Item, error) {
	input, err := normalizeInput(input)
	if err != nil {
		return nil, err
	}

	id, err := insertItem(ctx, db, input)
	if err != nil {
		return nil, err
	}

	return GetItem(ctx, db, id)
}

// normalizeInput validates an input and returns a copy with optional
// strings normalized (empty becomes nil, stored as NULL) and the quantity
// default applied.
func normalizeInput(in model.ItemInput) (model.ItemInput, error) {
	if in.Type == "" {
		return in, &ValidationError{Field: "type", Reason: "must not be empty"}
	}
	if in.Rating != nil && (*in.Rating < 1.0 || *in.Rating > 5.0) {
		return in, &ValidationError{Field: "rating", Reason: "must be between 1.0 and 5.0"}
	}
	if in.Quantity == nil {
		one := 1
		in.Quantity = &one
	} else if *in.Quantity < 0 {
		return in, &ValidationError{Field: "quantity", Reason: "must not be negative"}
	}

	in.Description = normalizeOptional(in.Description)
	in.ISBNSKU = normalizeOptional(in.ISBNSKU)
	in.Image = normalizeOptional(in.Image)
	in.Size = normalizeOptional(in.Size)
	in.Brand = normalizeOptional(in.Brand)
	in.System = normalizeOptional(in.System)

	return in, nil
}

func normalizeOptional(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

// insertItem inserts a normalized input. The input must have passed
// normalizeInput first.
func insertItem(ctx context.Context, ex executor, in model.ItemInput) (int64, error) {
	result, err := ex.ExecContext(ctx,
		`INSERT INTO items (title, type, description, isbn_sku, image, rating, quantity, size, brand, system, deleted)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.Title, in.Type, in.Description, in.ISBNSKU, in.Image, in.Rating,
		*in.Quantity, in.Size, in.Brand, in.System, in.Deleted,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting item id: %w", err)
	}

	return id, nil
}

// GetItem returns an item by ID, including soft-deleted ones.
func GetItem(ctx context.Context, db *sql.DB, id int64) (*model.Item, error) {
	item := &model.Item{}
	err := db.QueryRowContext(ctx,
		`SELECT id, title, type, description, isbn_sku, image, rating, quantity, size, brand, system, deleted, created_at, updated_at
		 FROM items WHERE id = ?`, id,
	).Scan(&item.ID, &item.Title, &item.Type, &item.Description, &item.ISBNSKU, &item.Image,
		&item.Rating, &item.Quantity, &item.Size, &item.Brand, &item.System,
		&item.Deleted, &item.CreatedAt, &item.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ListItems returns items matching the filter, newest change first.
func ListItems(ctx context.Context, db *sql.DB, filter model.ItemFilter) ([]model.Item, error) {
	query := `SELECT id, title, type, description, isbn_sku, image, rating, quantity, size, brand, system, deleted, created_at, updated_at
	          FROM items WHERE 1=1`
	var args []any

	switch {
	case filter.OnlyDeleted:
		query += ` AND deleted = 1`
	case !filter.IncludeDeleted:
		query += ` AND deleted = 0`
	}

	if filter.Search != "" {
		pattern := "%" + escapeLike(strings.ToLower(filter.Search)) + "%"
		query += ` AND (LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`
		args = append(args, pattern, pattern)
	}
	if filter.Type != "" {
		query += ` AND type = ?`
		args = append(args, filter.Type)
	}
	if filter.Brand != "" {
		query += ` AND brand = ?`
		args = append(args, filter.Brand)
	}
	if filter.System != "" {
		query += ` AND system = ?`
		args = append(args, filter.System)
	}
	if filter.MinRating > 0 {
		query += ` AND rating >= ?`
		args = append(args, filter.MinRating)
	}

	query += ` ORDER BY updated_at DESC, id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// escapeLike escapes LIKE metacharacters so a search term matches as a
// literal substring.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func scanItems(rows *sql.Rows) ([]model.Item, error) {
	var items []model.Item
	for rows.Next() {
		var item model.Item
		if err := rows.Scan(&item.ID, &item.Title, &item.Type, &item.Description, &item.ISBNSKU, &item.Image,
			&item.Rating, &item.Quantity, &item.Size, &item.Brand, &item.System,
			&item.Deleted, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateItem applies the non-nil fields of a patch and refreshes
// updated_at. Setting an optional string field to the empty string clears
// it. Returns nil, nil when the item does not exist. Updates work on
// soft-deleted items too.
func UpdateItem(ctx context.Context, db *sql.DB, id int64, patch model.ItemPatch) (*model.Item, error) {
	var sets []string
	var args []any

	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Type != nil {
		if *patch.Type == "" {
			return nil, &ValidationError{Field: "type", Reason: "must not be empty"}
		}
		sets = append(sets, "type = ?")
		args = append(args, *patch.Type)
	}
	if patch.Rating != nil {
		if *patch.Rating < 1.0 || *patch.Rating > 5.0 {
			return nil, &ValidationError{Field: "rating", Reason: "must be between 1.0 and 5.0"}
		}
		sets = append(sets, "rating = ?")
		args = append(args, *patch.Rating)
	}
	if patch.Quantity != nil {
		if *patch.Quantity < 0 {
			return nil, &ValidationError{Field: "quantity", Reason: "must not be negative"}
		}
		sets = append(sets, "quantity = ?")
		args = append(args, *patch.Quantity)
	}

	optional := []struct {
		column string
		value  *string
	}{
		{"description", patch.Description},
		{"isbn_sku", patch.ISBNSKU},
		{"image", patch.Image},
		{"size", patch.Size},
		{"brand", patch.Brand},
		{"system", patch.System},
	}
	for _, f := range optional {
		if f.value == nil {
			continue
		}
		sets = append(sets, f.column+" = ?")
		if *f.value == "" {
			args = append(args, nil)
		} else {
			args = append(args, *f.value)
		}
	}

	if len(sets) == 0 {
		return GetItem(ctx, db, id)
	}

	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)

	result, err := db.ExecContext(ctx,
		`UPDATE items SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("updating item: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("getting affected rows: %w", err)
	}
	if n == 0 {
		return nil, nil
	}

	return GetItem(ctx, db, id)
}

// SoftDeleteItem marks an item deleted. The bool reports whether the item
// exists; deleting an already-deleted item is a no-op success that leaves
// updated_at untouched.
func SoftDeleteItem(ctx context.Context, db *sql.DB, id int64) (bool, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET deleted = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted = 0`, id,
	)
	if err != nil {
		return false, fmt.Errorf("deleting item: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("getting affected rows: %w", err)
	}
	if n > 0 {
		return true, nil
	}

	return itemExists(ctx, db, id)
}

// RestoreItem clears the deleted flag. The bool reports whether the item
// exists; restoring a never-deleted item is a no-op success.
func RestoreItem(ctx context.Context, db *sql.DB, id int64) (bool, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET deleted = 0, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted = 1`, id,
	)
	if err != nil {
		return false, fmt.Errorf("restoring item: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("getting affected rows: %w", err)
	}
	if n > 0 {
		return true, nil
	}

	return itemExists(ctx, db, id)
}

// PermanentDeleteItem removes a row outright, regardless of its
// soft-delete state. The bool reports whether a row was removed.
func PermanentDeleteItem(ctx context.Context, db *sql.DB, id int64) (bool, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("permanently deleting item: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("getting affected rows: %w", err)
	}
	return n > 0, nil
}

func itemExists(ctx context.Context, db *sql.DB, id int64) (bool, error) {
	var one int
	err := db.QueryRowContext(ctx, `SELECT 1 FROM items WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking item existence: %w", err)
	}
	return true, nil
}

// distinctColumns whitelists the attributes DistinctValues may query.
var distinctColumns = map[string]string{
	"brand": "brand",
	"size":  "size",
	"type":  "type",
}

// DistinctValues returns the sorted distinct values of an attribute over
// non-deleted items. Only brand, size and type are supported.
func DistinctValues(ctx context.Context, db *sql.DB, attribute string) ([]string, error) {
	column, ok := distinctColumns[attribute]
	if !ok {
		return nil, &ValidationError{Field: "attribute", Reason: "must be one of brand, size, type"}
	}

	rows, err := db.QueryContext(ctx,
		`SELECT DISTINCT `+column+` FROM items
		 WHERE deleted = 0 AND `+column+` IS NOT NULL AND `+column+` != ''
		 ORDER BY `+column,
	)
	if err != nil {
		return nil, fmt.Errorf("listing distinct %s values: %w", attribute, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scanning %s value: %w", attribute, err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}
