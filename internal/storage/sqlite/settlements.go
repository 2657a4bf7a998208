package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
)

const settlementColumns = `id, group_id, from_id, to_id, amount, settled, created_at, settled_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanSettlement(row scanner) (*models.Settlement, error) {
	s := &models.Settlement{}
	err := row.Scan(&s.ID, &s.GroupID, &s.FromID, &s.ToID,
		&s.Amount, &s.Settled, &s.CreatedAt, &s.SettledAt)
	return s, err
}

// InsertSettlements persists settlements in the given order.
func (q *queries) InsertSettlements(ctx context.Context, settlements []*models.Settlement) error {
	now := time.Now().Unix()
	for _, settlement := range settlements {
		// Generate ID if not set
		if settlement.ID == "" {
			settlement.ID = uuid.New().String()
		}
		if settlement.CreatedAt == 0 {
			settlement.CreatedAt = now
		}

		_, err := q.db.ExecContext(ctx,
			`INSERT INTO settlements (`+settlementColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			settlement.ID, settlement.GroupID, settlement.FromID, settlement.ToID,
			settlement.Amount, settlement.Settled, settlement.CreatedAt, settlement.SettledAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert settlement: %w", err)
		}
	}

	return nil
}

// GetSettlement retrieves a settlement by ID.
func (q *queries) GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error) {
	settlement, err := scanSettlement(q.db.QueryRowContext(ctx,
		`SELECT `+settlementColumns+` FROM settlements WHERE id = ?`,
		settlementID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("settlement %s: %w", settlementID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}

	return settlement, nil
}

// ListSettlements retrieves all settlements for a group in insertion order.
func (q *queries) ListSettlements(ctx context.Context, groupID string) ([]*models.Settlement, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+settlementColumns+` FROM settlements WHERE group_id = ? ORDER BY rowid`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements by group: %w", err)
	}
	defer rows.Close()

	var settlements []*models.Settlement
	for rows.Next() {
		settlement, err := scanSettlement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlements = append(settlements, settlement)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}

	return settlements, nil
}

// DeleteSettlements removes the group's settlements with the given settled flag.
func (q *queries) DeleteSettlements(ctx context.Context, groupID string, settled bool) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		"DELETE FROM settlements WHERE group_id = ? AND settled = ?",
		groupID, settled,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete settlements: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}

// DeleteSettlement removes a settlement by ID.
func (q *queries) DeleteSettlement(ctx context.Context, settlementID string) error {
	res, err := q.db.ExecContext(ctx, "DELETE FROM settlements WHERE id = ?", settlementID)
	if err != nil {
		return fmt.Errorf("failed to delete settlement: %w", err)
	}
	return requireAffected(res, "settlement", settlementID)
}

// MarkSettled flips pending settlements to settled. Already settled rows are left alone.
func (q *queries) MarkSettled(ctx context.Context, settlementIDs []string, settledAt int64) (int64, error) {
	if len(settlementIDs) == 0 {
		return 0, nil
	}

	args := append([]any{settledAt}, stringArgs(settlementIDs)...)
	res, err := q.db.ExecContext(ctx,
		`UPDATE settlements SET settled = 1, settled_at = ?
		 WHERE settled = 0 AND id IN (`+placeholders(len(settlementIDs))+`)`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark settlements settled: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}
