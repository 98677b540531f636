package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/optitalent/hr-backend/internal/rbac"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

const employeeColumns = `id, employee_code, full_name, email, title, department_id, hired_on, created_at`

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) ListEmployees(ctx context.Context, scope rbac.Scope, filter Filter) ([]Employee, error) {
	dept, filtered, err := departmentFor(scope, filter)
	if err != nil {
		return nil, err
	}

	var (
		where []string
		args  []any
	)
	if filtered {
		args = append(args, dept)
		where = append(where, fmt.Sprintf("department_id = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(lower(full_name) LIKE $%d OR lower(email) LIKE $%d OR lower(employee_code) LIKE $%d)", n, n, n))
	}

	query := `SELECT ` + employeeColumns + ` FROM employees`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY employee_code`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit, filter.Offset)
	query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Employee{}
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) GetEmployee(ctx context.Context, id uuid.UUID) (*Employee, error) {
	return scanEmployee(r.pool.QueryRow(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id))
}

func (r *PostgresRepository) CreateEmployee(ctx context.Context, in NewEmployee) (*Employee, error) {
	e, err := scanEmployee(r.pool.QueryRow(ctx, `
		INSERT INTO employees (employee_code, full_name, email, title, department_id, hired_on)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+employeeColumns,
		strings.ToUpper(strings.TrimSpace(in.Code)), in.FullName,
		strings.ToLower(strings.TrimSpace(in.Email)), in.Title, in.DepartmentID, in.HiredOn,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case uniqueViolation:
				return nil, ErrDuplicateEmployee
			case foreignKeyViolation:
				return nil, ErrUnknownDepartment
			}
		}
		return nil, err
	}
	return e, nil
}

func (r *PostgresRepository) CreateDepartment(ctx context.Context, d Department) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO departments (id, name) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`, d.ID, d.Name)
	return err
}

func (r *PostgresRepository) ListDepartments(ctx context.Context) ([]Department, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM departments ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[Department])
}

func scanEmployee(row pgx.Row) (*Employee, error) {
	var e Employee
	err := row.Scan(&e.ID, &e.Code, &e.FullName, &e.Email, &e.Title, &e.DepartmentID, &e.HiredOn, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEmployeeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}
