package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/storage"
)

// TABLES is a reserved word in MySQL, hence restaurant_tables.
const tableColumns = `id, table_name, capacity, reservation_id, created_at, updated_at`

func scanTable(row scanner) (model.Table, error) {
	var (
		t   model.Table
		occ sql.NullInt64
	)
	if err := row.Scan(&t.ID, &t.TableName, &t.Capacity, &occ, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return model.Table{}, err
	}
	if occ.Valid {
		rid := uint64(occ.Int64)
		t.ReservationID = &rid
	}
	return t, nil
}

func getTable(ctx context.Context, q querier, id uint64, lock bool) (model.Table, error) {
	query := `SELECT ` + tableColumns + ` FROM restaurant_tables WHERE id = ?`
	if lock {
		query += ` FOR UPDATE`
	}
	t, err := scanTable(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Table{}, storage.ErrTableNotFound
	}
	return t, err
}

func listTables(ctx context.Context, q querier) ([]model.Table, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+tableColumns+` FROM restaurant_tables ORDER BY table_name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Table{}
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func insertTable(ctx context.Context, q querier, t *model.Table) error {
	res, err := q.ExecContext(ctx, `INSERT INTO restaurant_tables (table_name, capacity) VALUES (?, ?)`, t.TableName, t.Capacity)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	got, err := getTable(ctx, q, uint64(id), false)
	if err != nil {
		return err
	}
	*t = got
	return nil
}

// setTableOccupant links or, with a nil reservationID, unlinks a table.
func setTableOccupant(ctx context.Context, q querier, tableID uint64, reservationID *uint64) error {
	var occ any
	if reservationID != nil {
		occ = *reservationID
	}
	res, err := q.ExecContext(ctx, `UPDATE restaurant_tables SET reservation_id = ? WHERE id = ?`, occ, tableID)
	if err != nil {
		if isDuplicate(err) {
			return ErrOccupantTaken
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrTableNotFound
	}
	return nil
}
