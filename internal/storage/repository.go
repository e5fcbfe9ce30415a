package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"fintrack/internal/core"

	_ "modernc.org/sqlite"
)

// SQLRepository implements Store on database/sql for SQLite and PostgreSQL.
type SQLRepository struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

var _ Store = (*SQLRepository)(nil)

// NewSQLiteRepository opens (creating if needed) the SQLite database at dbPath
// and applies migrations.
func NewSQLiteRepository(ctx context.Context, dbPath string) (*SQLRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite serialises writers anyway; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	return newSQLRepository(ctx, db, SQLite, dsn)
}

// NewPostgresRepository connects to databaseURL through pgx and applies migrations.
func NewPostgresRepository(ctx context.Context, databaseURL string) (*SQLRepository, error) {
	cfg, err := pgx.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	db := stdlib.OpenDB(*cfg)
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return newSQLRepository(ctx, db, Postgres, databaseURL)
}

func newSQLRepository(ctx context.Context, db *sql.DB, d Dialect, dsn string) (*SQLRepository, error) {
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(d, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &SQLRepository{
		db:      db,
		dialect: d,
		now:     func() time.Time { return time.Now().UTC() },
	}

	if err := repo.seedDefaultCategories(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed default categories: %w", err)
	}

	return repo, nil
}

func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLRepository) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return r.db.ExecContext(ctx, r.dialect.Rebind(query), args...)
}

func (r *SQLRepository) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return r.db.QueryContext(ctx, r.dialect.Rebind(query), args...)
}

func (r *SQLRepository) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return r.db.QueryRowContext(ctx, r.dialect.Rebind(query), args...)
}

// execAffecting runs an update or delete and maps zero affected rows to ErrNotFound.
func (r *SQLRepository) execAffecting(ctx context.Context, query string, args ...any) error {
	res, err := r.exec(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLRepository) seedDefaultCategories(ctx context.Context) error {
	for _, c := range DefaultCategories {
		_, err := r.exec(ctx,
			`INSERT INTO categories (id, user_id, name, icon, color, type, is_default, created_at)
			 VALUES (?, '', ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (id) DO NOTHING`,
			DefaultCategoryID(c.Name), c.Name, c.Icon, c.Color, string(c.Kind), true, r.now())
		if err != nil {
			return fmt.Errorf("insert %q: %w", c.Name, err)
		}
	}
	return nil
}

// setClause accumulates the SET part of a partial update.
type setClause struct {
	cols []string
	args []any
}

func (s *setClause) add(col string, v any) {
	s.cols = append(s.cols, col+" = ?")
	s.args = append(s.args, v)
}

func (s *setClause) String() string {
	return strings.Join(s.cols, ", ")
}

// Expense operations

const expenseColumns = `e.id, e.user_id, e.category_id, e.amount_cents, e.description, e.date,
	e.payment_method, e.created_at, e.updated_at, c.id, c.name, c.icon, c.color`

var expenseOrderColumns = map[ExpenseOrder]string{
	OrderByDate:      "e.date",
	OrderByAmount:    "e.amount_cents",
	OrderByCreatedAt: "e.created_at",
}

func expenseWhere(f ExpenseFilter) (string, []any) {
	conds := []string{"e.user_id = ?"}
	args := []any{f.OwnerID}

	if f.CategoryID != "" {
		conds = append(conds, "e.category_id = ?")
		args = append(args, f.CategoryID)
	}
	if !f.From.IsZero() {
		conds = append(conds, "e.date >= ?")
		args = append(args, f.From.String())
	}
	if !f.To.IsZero() {
		conds = append(conds, "e.date <= ?")
		args = append(args, f.To.String())
	}
	if f.MinAmount != nil {
		conds = append(conds, "e.amount_cents >= ?")
		args = append(args, f.MinAmount.Cents)
	}
	if f.MaxAmount != nil {
		conds = append(conds, "e.amount_cents <= ?")
		args = append(args, f.MaxAmount.Cents)
	}
	if f.PaymentMethod != "" {
		conds = append(conds, "e.payment_method = ?")
		args = append(args, f.PaymentMethod)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		conds = append(conds, `LOWER(e.description) LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(strings.ToLower(s))+"%")
	}
	return strings.Join(conds, " AND "), args
}

func scanExpense(sc interface{ Scan(...any) error }) (core.Expense, error) {
	var (
		e                           core.Expense
		date                        string
		created, updated            sqlTime
		catID, catName, icon, color sql.NullString
	)
	err := sc.Scan(&e.ID, &e.OwnerID, &e.CategoryID, &e.Amount.Cents, &e.Description, &date,
		&e.PaymentMethod, &created, &updated, &catID, &catName, &icon, &color)
	if err != nil {
		return core.Expense{}, err
	}
	if e.Date, err = core.ParseDate(date); err != nil {
		return core.Expense{}, fmt.Errorf("expense %s: %w", e.ID, err)
	}
	e.CreatedAt, e.UpdatedAt = created.Time, updated.Time
	if catID.Valid {
		e.Category = &core.CategoryInfo{ID: catID.String, Name: catName.String, Icon: icon.String, Color: color.String}
	}
	return e, nil
}

func (r *SQLRepository) ListExpenses(ctx context.Context, f ExpenseFilter) ([]core.Expense, error) {
	where, args := expenseWhere(f)

	col, ok := expenseOrderColumns[f.OrderBy]
	if !ok {
		col = expenseOrderColumns[OrderByDate]
	}
	dir := "DESC"
	if f.Ascending {
		dir = "ASC"
	}

	q := fmt.Sprintf(`SELECT %s FROM expenses e
		LEFT JOIN categories c ON c.id = e.category_id
		WHERE %s
		ORDER BY %s %s, e.created_at %s, e.id %s`, expenseColumns, where, col, dir, dir, dir)
	if f.Limit > 0 {
		q += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := r.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLRepository) CountExpenses(ctx context.Context, f ExpenseFilter) (int, error) {
	where, args := expenseWhere(f)
	var n int
	if err := r.queryRow(ctx, "SELECT COUNT(*) FROM expenses e WHERE "+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count expenses: %w", err)
	}
	return n, nil
}

func (r *SQLRepository) GetExpense(ctx context.Context, ownerID, id string) (core.Expense, error) {
	row := r.queryRow(ctx, `SELECT `+expenseColumns+` FROM expenses e
		LEFT JOIN categories c ON c.id = e.category_id
		WHERE e.id = ? AND e.user_id = ?`, id, ownerID)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

func (r *SQLRepository) CreateExpense(ctx context.Context, e core.Expense) (string, error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	now := r.now()
	_, err := r.exec(ctx,
		`INSERT INTO expenses (id, user_id, category_id, amount_cents, description, date, payment_method, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.OwnerID, e.CategoryID, e.Amount.Cents, e.Description, e.Date.String(), e.PaymentMethod, now, now)
	if err != nil {
		return "", fmt.Errorf("create expense: %w", err)
	}

	slog.DebugContext(ctx, "Expense saved",
		"id", e.ID,
		"amount_cents", e.Amount.Cents,
		"date", e.Date.String())

	return e.ID, nil
}

func (r *SQLRepository) UpdateExpense(ctx context.Context, ownerID, id string, p ExpensePatch) error {
	var set setClause
	if p.CategoryID != nil {
		set.add("category_id", *p.CategoryID)
	}
	if p.Amount != nil {
		set.add("amount_cents", p.Amount.Cents)
	}
	if p.Description != nil {
		set.add("description", *p.Description)
	}
	if p.Date != nil {
		set.add("date", p.Date.String())
	}
	if p.PaymentMethod != nil {
		set.add("payment_method", *p.PaymentMethod)
	}
	set.add("updated_at", r.now())

	args := append(set.args, id, ownerID)
	if err := r.execAffecting(ctx, "UPDATE expenses SET "+set.String()+" WHERE id = ? AND user_id = ?", args...); err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return nil
}

func (r *SQLRepository) DeleteExpense(ctx context.Context, ownerID, id string) error {
	if err := r.execAffecting(ctx, "DELETE FROM expenses WHERE id = ? AND user_id = ?", id, ownerID); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return nil
}

func (r *SQLRepository) CountExpensesByCategory(ctx context.Context, categoryID string) (int, error) {
	var n int
	if err := r.queryRow(ctx, "SELECT COUNT(*) FROM expenses WHERE category_id = ?", categoryID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count expenses by category: %w", err)
	}
	return n, nil
}

// Category operations

const categoryColumns = "id, user_id, name, icon, color, type, is_default, created_at"

func scanCategory(sc interface{ Scan(...any) error }) (core.Category, error) {
	var (
		c       core.Category
		kind    string
		created sqlTime
	)
	if err := sc.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Icon, &c.Color, &kind, &c.IsDefault, &created); err != nil {
		return core.Category{}, err
	}
	c.Kind = core.CategoryKind(kind)
	c.CreatedAt = created.Time
	return c, nil
}

func (r *SQLRepository) ListCategories(ctx context.Context, ownerID string) ([]core.Category, error) {
	rows, err := r.query(ctx, `SELECT `+categoryColumns+` FROM categories
		WHERE user_id = ? OR is_default = ?
		ORDER BY is_default DESC, name`, ownerID, true)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLRepository) GetCategory(ctx context.Context, id string) (core.Category, error) {
	c, err := scanCategory(r.queryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (r *SQLRepository) FindCategoryByName(ctx context.Context, ownerID, name string) (core.Category, error) {
	c, err := scanCategory(r.queryRow(ctx, `SELECT `+categoryColumns+` FROM categories
		WHERE user_id = ? AND name = ? AND is_default = ?`, ownerID, name, false))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("find category: %w", err)
	}
	return c, nil
}

func (r *SQLRepository) CreateCategory(ctx context.Context, c core.Category) (string, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	_, err := r.exec(ctx,
		`INSERT INTO categories (id, user_id, name, icon, color, type, is_default, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.OwnerID, c.Name, c.Icon, c.Color, string(c.Kind), c.IsDefault, r.now())
	if err != nil {
		return "", fmt.Errorf("create category: %w", err)
	}
	return c.ID, nil
}

func (r *SQLRepository) UpdateCategory(ctx context.Context, ownerID, id string, p CategoryPatch) error {
	var set setClause
	if p.Name != nil {
		set.add("name", *p.Name)
	}
	if p.Icon != nil {
		set.add("icon", *p.Icon)
	}
	if p.Color != nil {
		set.add("color", *p.Color)
	}
	if len(set.cols) == 0 {
		// Nothing to change, but the row must still exist and be writable.
		if _, err := r.findOwnedCategory(ctx, ownerID, id); err != nil {
			return fmt.Errorf("update category: %w", err)
		}
		return nil
	}

	args := append(set.args, id, ownerID, false)
	err := r.execAffecting(ctx, "UPDATE categories SET "+set.String()+" WHERE id = ? AND user_id = ? AND is_default = ?", args...)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

// findOwnedCategory returns a custom category owned by ownerID.
func (r *SQLRepository) findOwnedCategory(ctx context.Context, ownerID, id string) (core.Category, error) {
	c, err := r.GetCategory(ctx, id)
	if err != nil {
		return core.Category{}, err
	}
	if c.IsDefault || c.OwnerID != ownerID {
		return core.Category{}, ErrNotFound
	}
	return c, nil
}

func (r *SQLRepository) DeleteCategory(ctx context.Context, ownerID, id string) error {
	err := r.execAffecting(ctx, "DELETE FROM categories WHERE id = ? AND user_id = ? AND is_default = ?", id, ownerID, false)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

// Budget operations

const budgetColumns = `b.id, b.user_id, b.category_id, b.amount_cents, b.period, b.start_date,
	b.alert_threshold, b.created_at, b.updated_at, c.id, c.name, c.icon, c.color`

func scanBudget(sc interface{ Scan(...any) error }) (core.Budget, error) {
	var (
		b                           core.Budget
		period, start               string
		created, updated            sqlTime
		catID, catName, icon, color sql.NullString
	)
	err := sc.Scan(&b.ID, &b.OwnerID, &b.CategoryID, &b.Amount.Cents, &period, &start,
		&b.AlertThreshold, &created, &updated, &catID, &catName, &icon, &color)
	if err != nil {
		return core.Budget{}, err
	}
	b.Period = core.PeriodKind(period)
	if b.StartDate, err = core.ParseDate(start); err != nil {
		return core.Budget{}, fmt.Errorf("budget %s: %w", b.ID, err)
	}
	b.CreatedAt, b.UpdatedAt = created.Time, updated.Time
	if catID.Valid {
		b.Category = &core.CategoryInfo{ID: catID.String, Name: catName.String, Icon: icon.String, Color: color.String}
	}
	return b, nil
}

func (r *SQLRepository) ListBudgets(ctx context.Context, ownerID string) ([]core.Budget, error) {
	rows, err := r.query(ctx, `SELECT `+budgetColumns+` FROM budgets b
		LEFT JOIN categories c ON c.id = b.category_id
		WHERE b.user_id = ?
		ORDER BY b.created_at DESC, b.id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLRepository) GetBudget(ctx context.Context, ownerID, id string) (core.Budget, error) {
	b, err := scanBudget(r.queryRow(ctx, `SELECT `+budgetColumns+` FROM budgets b
		LEFT JOIN categories c ON c.id = b.category_id
		WHERE b.id = ? AND b.user_id = ?`, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, ErrNotFound
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

func (r *SQLRepository) CreateBudget(ctx context.Context, b core.Budget) (string, error) {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	now := r.now()
	_, err := r.exec(ctx,
		`INSERT INTO budgets (id, user_id, category_id, amount_cents, period, start_date, alert_threshold, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.OwnerID, b.CategoryID, b.Amount.Cents, string(b.Period), b.StartDate.String(), b.AlertThreshold, now, now)
	if err != nil {
		return "", fmt.Errorf("create budget: %w", err)
	}
	return b.ID, nil
}

func (r *SQLRepository) UpdateBudget(ctx context.Context, ownerID, id string, p BudgetPatch) error {
	var set setClause
	if p.CategoryID != nil {
		set.add("category_id", *p.CategoryID)
	}
	if p.Amount != nil {
		set.add("amount_cents", p.Amount.Cents)
	}
	if p.Period != nil {
		set.add("period", string(*p.Period))
	}
	if p.StartDate != nil {
		set.add("start_date", p.StartDate.String())
	}
	if p.AlertThreshold != nil {
		set.add("alert_threshold", *p.AlertThreshold)
	}
	set.add("updated_at", r.now())

	args := append(set.args, id, ownerID)
	if err := r.execAffecting(ctx, "UPDATE budgets SET "+set.String()+" WHERE id = ? AND user_id = ?", args...); err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	return nil
}

func (r *SQLRepository) DeleteBudget(ctx context.Context, ownerID, id string) error {
	if err := r.execAffecting(ctx, "DELETE FROM budgets WHERE id = ? AND user_id = ?", id, ownerID); err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return nil
}

// Goal operations

const goalColumns = `id, user_id, name, target_amount_cents, current_amount_cents, deadline,
	icon, color, status, created_at, updated_at`

func scanGoal(sc interface{ Scan(...any) error }) (core.Goal, error) {
	var (
		g                core.Goal
		deadline, status string
		created, updated sqlTime
	)
	err := sc.Scan(&g.ID, &g.OwnerID, &g.Name, &g.TargetAmount.Cents, &g.CurrentAmount.Cents, &deadline,
		&g.Icon, &g.Color, &status, &created, &updated)
	if err != nil {
		return core.Goal{}, err
	}
	if g.Deadline, err = core.ParseDate(deadline); err != nil {
		return core.Goal{}, fmt.Errorf("goal %s: %w", g.ID, err)
	}
	g.Status = core.GoalStatus(status)
	g.CreatedAt, g.UpdatedAt = created.Time, updated.Time
	return g, nil
}

func (r *SQLRepository) ListGoals(ctx context.Context, ownerID string) ([]core.Goal, error) {
	rows, err := r.query(ctx, `SELECT `+goalColumns+` FROM goals WHERE user_id = ? ORDER BY created_at DESC, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var out []core.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *SQLRepository) GetGoal(ctx context.Context, ownerID, id string) (core.Goal, error) {
	g, err := scanGoal(r.queryRow(ctx, `SELECT `+goalColumns+` FROM goals WHERE id = ? AND user_id = ?`, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Goal{}, ErrNotFound
	}
	if err != nil {
		return core.Goal{}, fmt.Errorf("get goal: %w", err)
	}
	return g, nil
}

func (r *SQLRepository) CreateGoal(ctx context.Context, g core.Goal) (string, error) {
	if g.ID == "" {
		g.ID = uuid.New().String()
	}
	now := r.now()
	_, err := r.exec(ctx,
		`INSERT INTO goals (id, user_id, name, target_amount_cents, current_amount_cents, deadline, icon, color, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.OwnerID, g.Name, g.TargetAmount.Cents, g.CurrentAmount.Cents, g.Deadline.String(),
		g.Icon, g.Color, string(g.Status), now, now)
	if err != nil {
		return "", fmt.Errorf("create goal: %w", err)
	}
	return g.ID, nil
}

func (r *SQLRepository) UpdateGoal(ctx context.Context, ownerID, id string, p GoalPatch) error {
	var set setClause
	if p.Name != nil {
		set.add("name", *p.Name)
	}
	if p.TargetAmount != nil {
		set.add("target_amount_cents", p.TargetAmount.Cents)
	}
	if p.Deadline != nil {
		set.add("deadline", p.Deadline.String())
	}
	if p.Icon != nil {
		set.add("icon", *p.Icon)
	}
	if p.Color != nil {
		set.add("color", *p.Color)
	}
	if p.Status != nil {
		set.add("status", string(*p.Status))
	}
	set.add("updated_at", r.now())

	args := append(set.args, id, ownerID)
	if err := r.execAffecting(ctx, "UPDATE goals SET "+set.String()+" WHERE id = ? AND user_id = ?", args...); err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	return nil
}

func (r *SQLRepository) DeleteGoal(ctx context.Context, ownerID, id string) error {
	if err := r.execAffecting(ctx, "DELETE FROM goals WHERE id = ? AND user_id = ?", id, ownerID); err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return nil
}

// AddGoalContribution increments the goal and inserts the contribution in one
// transaction. The status guard in the UPDATE closes the read-then-write race
// between concurrent contributions.
func (r *SQLRepository) AddGoalContribution(ctx context.Context, ownerID string, c core.Contribution) (core.Goal, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Goal{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := r.now()
	res, err := tx.ExecContext(ctx, r.dialect.Rebind(`UPDATE goals SET
			current_amount_cents = current_amount_cents + ?,
			status = CASE WHEN current_amount_cents + ? >= target_amount_cents THEN 'completed' ELSE status END,
			updated_at = ?
		WHERE id = ? AND user_id = ? AND status = 'active'`),
		c.Amount.Cents, c.Amount.Cents, now, c.GoalID, ownerID)
	if err != nil {
		return core.Goal{}, fmt.Errorf("increment goal: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return core.Goal{}, fmt.Errorf("rows affected: %w", err)
	} else if n == 0 {
		var status string
		err := tx.QueryRowContext(ctx, r.dialect.Rebind(`SELECT status FROM goals WHERE id = ? AND user_id = ?`),
			c.GoalID, ownerID).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return core.Goal{}, ErrNotFound
		}
		if err != nil {
			return core.Goal{}, fmt.Errorf("get goal status: %w", err)
		}
		return core.Goal{}, ErrGoalInactive
	}

	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	_, err = tx.ExecContext(ctx, r.dialect.Rebind(`INSERT INTO goal_contributions (id, goal_id, amount_cents, note, created_at)
		VALUES (?, ?, ?, ?, ?)`), c.ID, c.GoalID, c.Amount.Cents, c.Note, now)
	if err != nil {
		return core.Goal{}, fmt.Errorf("insert contribution: %w", err)
	}

	g, err := scanGoal(tx.QueryRowContext(ctx, r.dialect.Rebind(`SELECT `+goalColumns+` FROM goals WHERE id = ?`), c.GoalID))
	if err != nil {
		return core.Goal{}, fmt.Errorf("reload goal: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return core.Goal{}, fmt.Errorf("commit contribution: %w", err)
	}
	return g, nil
}

func (r *SQLRepository) ListContributions(ctx context.Context, ownerID, goalID string) ([]core.Contribution, error) {
	if _, err := r.GetGoal(ctx, ownerID, goalID); err != nil {
		return nil, err
	}

	rows, err := r.query(ctx, `SELECT id, goal_id, amount_cents, note, created_at FROM goal_contributions
		WHERE goal_id = ? ORDER BY created_at DESC, id`, goalID)
	if err != nil {
		return nil, fmt.Errorf("list contributions: %w", err)
	}
	defer rows.Close()

	var out []core.Contribution
	for rows.Next() {
		var (
			c       core.Contribution
			created sqlTime
		)
		if err := rows.Scan(&c.ID, &c.GoalID, &c.Amount.Cents, &c.Note, &created); err != nil {
			return nil, fmt.Errorf("scan contribution: %w", err)
		}
		c.CreatedAt = created.Time
		out = append(out, c)
	}
	return out, rows.Err()
}
