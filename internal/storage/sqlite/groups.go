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

// CreateGroup persists a new group. The owner is not stored as a member.
func (q *queries) CreateGroup(ctx context.Context, group *models.Group) error {
	// Generate ID if not set
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}

	_, err := q.db.ExecContext(ctx,
		"INSERT INTO groups (id, name, owner_id, created_at) VALUES (?, ?, ?, ?)",
		group.ID, group.Name, group.OwnerID, group.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}

	for _, userID := range group.MemberIDs {
		if err := q.AddGroupMember(ctx, group.ID, userID); err != nil {
			return err
		}
	}

	return nil
}

// GetGroup retrieves a group with its member IDs.
func (q *queries) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group := &models.Group{}
	err := q.db.QueryRowContext(ctx,
		"SELECT id, name, owner_id, created_at FROM groups WHERE id = ?",
		groupID,
	).Scan(&group.ID, &group.Name, &group.OwnerID, &group.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	rows, err := q.db.QueryContext(ctx,
		"SELECT user_id FROM group_members WHERE group_id = ? ORDER BY rowid",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get group members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan group member: %w", err)
		}
		group.MemberIDs = append(group.MemberIDs, userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate group members: %w", err)
	}

	return group, nil
}

// AddGroupMember grants a user access to a group. Adding an existing member is a no-op.
func (q *queries) AddGroupMember(ctx context.Context, groupID, userID string) error {
	_, err := q.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO group_members (group_id, user_id) VALUES (?, ?)",
		groupID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to add group member: %w", err)
	}
	return nil
}

// GetGroupLedger loads the people, expenses and shares of a group after
// checking that requesterID may read it.
func (q *queries) GetGroupLedger(ctx context.Context, groupID, requesterID string) (*models.Ledger, error) {
	group, err := q.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.HasAccess(requesterID) {
		return nil, fmt.Errorf("user %s on group %s: %w", requesterID, groupID, storage.ErrForbidden)
	}

	people, err := q.listPeople(ctx, groupID)
	if err != nil {
		return nil, err
	}

	expenses, err := q.listExpenses(ctx, groupID)
	if err != nil {
		return nil, err
	}

	return &models.Ledger{Group: group, People: people, Expenses: expenses}, nil
}
