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

// AddPerson adds a participant to a group.
func (q *queries) AddPerson(ctx context.Context, person *models.Person) error {
	if person.ID == "" {
		person.ID = uuid.New().String()
	}

	_, err := q.db.ExecContext(ctx,
		"INSERT INTO people (id, group_id, name) VALUES (?, ?, ?)",
		person.ID, person.GroupID, person.Name,
	)
	if err != nil {
		return fmt.Errorf("failed to insert person: %w", err)
	}
	return nil
}

// DeletePerson removes a person; shares, expenses they paid and settlements
// naming them cascade.
func (q *queries) DeletePerson(ctx context.Context, personID string) error {
	res, err := q.db.ExecContext(ctx, "DELETE FROM people WHERE id = ?", personID)
	if err != nil {
		return fmt.Errorf("failed to delete person: %w", err)
	}
	return requireAffected(res, "person", personID)
}

// listPeople returns a group's people in creation order.
func (q *queries) listPeople(ctx context.Context, groupID string) ([]models.Person, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT id, group_id, name FROM people WHERE group_id = ? ORDER BY rowid",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list people: %w", err)
	}
	defer rows.Close()

	var people []models.Person
	for rows.Next() {
		var p models.Person
		if err := rows.Scan(&p.ID, &p.GroupID, &p.Name); err != nil {
			return nil, fmt.Errorf("failed to scan person: %w", err)
		}
		people = append(people, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate people: %w", err)
	}

	return people, nil
}

// CreateExpense persists an expense and its shares in one transaction.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	return s.withTx(ctx, func(q *queries) error {
		return q.insertExpense(ctx, expense)
	})
}

func (q *queries) insertExpense(ctx context.Context, expense *models.Expense) error {
	// Generate IDs if not set
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}
	if expense.SplitMode == "" {
		expense.SplitMode = models.SplitEqual
	}

	_, err := q.db.ExecContext(ctx,
		`INSERT INTO expenses (id, group_id, description, amount, paid_by_id, split_mode, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.GroupID, expense.Description, expense.Amount,
		expense.PaidByID, string(expense.SplitMode), expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	for i := range expense.Shares {
		share := &expense.Shares[i]
		share.ExpenseID = expense.ID

		_, err = q.db.ExecContext(ctx,
			"INSERT INTO shares (expense_id, person_id, amount) VALUES (?, ?, ?)",
			share.ExpenseID, share.PersonID, share.Amount,
		)
		if err != nil {
			return fmt.Errorf("failed to insert share: %w", err)
		}
	}

	return nil
}

// GetExpense retrieves an expense with its shares.
func (q *queries) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	expense := &models.Expense{}
	var mode string
	err := q.db.QueryRowContext(ctx,
		`SELECT id, group_id, description, amount, paid_by_id, split_mode, created_at
		 FROM expenses WHERE id = ?`,
		expenseID,
	).Scan(&expense.ID, &expense.GroupID, &expense.Description, &expense.Amount,
		&expense.PaidByID, &mode, &expense.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	expense.SplitMode = models.SplitMode(mode)

	rows, err := q.db.QueryContext(ctx,
		"SELECT expense_id, person_id, amount FROM shares WHERE expense_id = ? ORDER BY rowid",
		expenseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get shares: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var share models.Share
		if err := rows.Scan(&share.ExpenseID, &share.PersonID, &share.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan share: %w", err)
		}
		expense.Shares = append(expense.Shares, share)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate shares: %w", err)
	}

	return expense, nil
}

// DeleteExpense removes an expense; its shares cascade.
func (q *queries) DeleteExpense(ctx context.Context, expenseID string) error {
	res, err := q.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", expenseID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	return requireAffected(res, "expense", expenseID)
}

// listExpenses returns a group's expenses in creation order, shares attached.
func (q *queries) listExpenses(ctx context.Context, groupID string) ([]models.Expense, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, group_id, description, amount, paid_by_id, split_mode, created_at
		 FROM expenses WHERE group_id = ? ORDER BY rowid`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}

	var expenses []models.Expense
	index := make(map[string]int)
	for rows.Next() {
		var e models.Expense
		var mode string
		if err := rows.Scan(&e.ID, &e.GroupID, &e.Description, &e.Amount,
			&e.PaidByID, &mode, &e.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		e.SplitMode = models.SplitMode(mode)
		index[e.ID] = len(expenses)
		expenses = append(expenses, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	shareRows, err := q.db.QueryContext(ctx,
		`SELECT s.expense_id, s.person_id, s.amount
		 FROM shares s JOIN expenses e ON e.id = s.expense_id
		 WHERE e.group_id = ? ORDER BY s.rowid`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list shares: %w", err)
	}
	defer shareRows.Close()

	for shareRows.Next() {
		var share models.Share
		if err := shareRows.Scan(&share.ExpenseID, &share.PersonID, &share.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan share: %w", err)
		}
		if i, ok := index[share.ExpenseID]; ok {
			expenses[i].Shares = append(expenses[i].Shares, share)
		}
	}
	if err := shareRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate shares: %w", err)
	}

	return expenses, nil
}

// requireAffected turns a zero-row write into ErrNotFound.
func requireAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, storage.ErrNotFound)
	}
	return nil
}
