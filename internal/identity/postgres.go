package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/optitalent/hr-backend/internal/rbac"
)

const uniqueViolation = "23505"

const accountColumns = `id, email, employee_id, credential_hash, role, department_id, profile_ref, active, created_at, updated_at`

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) FindByIdentifier(ctx context.Context, identifier string) (*Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE employee_id = $1`
	key := NormalizeEmployeeID(identifier)
	if IsEmail(identifier) {
		query = `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
		key = NormalizeEmail(identifier)
	}
	return scanAccount(s.pool.QueryRow(ctx, query, key))
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	return scanAccount(s.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
}

func (s *PostgresStore) Create(ctx context.Context, in NewAccount) (*Account, error) {
	if !in.Role.Valid() {
		return nil, ErrInvalidRole
	}

	hash, err := HashCredential(in.Credential)
	if err != nil {
		return nil, fmt.Errorf("hashing credential: %w", err)
	}

	a, err := scanAccount(s.pool.QueryRow(ctx, `
		INSERT INTO accounts (email, employee_id, credential_hash, role, department_id, profile_ref)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)
		RETURNING `+accountColumns,
		NormalizeEmail(in.Email), NormalizeEmployeeID(in.EmployeeID), hash, string(in.Role), in.DepartmentID, in.ProfileRef,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrDuplicateAccount
		}
		return nil, err
	}
	return a, nil
}

func (s *PostgresStore) UpdateRole(ctx context.Context, id uuid.UUID, role rbac.Role, actorID uuid.UUID) (*RoleChange, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	var change RoleChange
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var previous string
		err := tx.QueryRow(ctx, `SELECT role FROM accounts WHERE id = $1 FOR UPDATE`, id).Scan(&previous)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrAccountNotFound
		}
		if err != nil {
			return err
		}

		a, err := scanAccount(tx.QueryRow(ctx, `
			UPDATE accounts SET role = $2, updated_at = now()
			WHERE id = $1
			RETURNING `+accountColumns, id, string(role)))
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO account_audit (account_id, action, old_role, new_role, actor_id)
			VALUES ($1, $2, $3, $4, $5)`,
			id, AuditRoleChanged, previous, string(role), actorID,
		); err != nil {
			return fmt.Errorf("recording audit: %w", err)
		}

		change = RoleChange{Account: a, Previous: rbac.Role(previous)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &change, nil
}

func (s *PostgresStore) Deactivate(ctx context.Context, id uuid.UUID, actorID uuid.UUID) (*Account, error) {
	var out *Account
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		a, err := scanAccount(tx.QueryRow(ctx, `
			UPDATE accounts SET active = false, updated_at = now()
			WHERE id = $1
			RETURNING `+accountColumns, id))
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO account_audit (account_id, action, old_role, actor_id)
			VALUES ($1, $2, $3, $4)`,
			id, AuditDeactivated, string(a.Role), actorID,
		); err != nil {
			return fmt.Errorf("recording audit: %w", err)
		}

		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// List pages through the accounts visible to scope, ordered by employee id.
func (s *PostgresStore) List(ctx context.Context, scope rbac.Scope, limit, offset int) ([]Account, error) {
	if scope.Scoped() && scope.DepartmentID() == "" {
		return []Account{}, nil
	}

	query := `SELECT ` + accountColumns + ` FROM accounts`
	args := []any{limit, offset}
	if scope.Scoped() {
		query += ` WHERE department_id = $3`
		args = append(args, scope.DepartmentID())
	}
	query += ` ORDER BY employee_id LIMIT $1 OFFSET $2`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := []Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

// AuditFor returns the audit trail of one account, oldest first.
func (s *PostgresStore) AuditFor(ctx context.Context, id uuid.UUID) ([]AuditEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT account_id, action, COALESCE(old_role, ''), COALESCE(new_role, ''), actor_id, created_at
		FROM account_audit WHERE account_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var (
			e                AuditEntry
			oldRole, newRole string
			actor            *uuid.UUID
		)
		if err := rows.Scan(&e.AccountID, &e.Action, &oldRole, &newRole, &actor, &e.At); err != nil {
			return nil, err
		}
		e.OldRole, e.NewRole = rbac.Role(oldRole), rbac.Role(newRole)
		if actor != nil {
			e.ActorID = *actor
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanAccount(row pgx.Row) (*Account, error) {
	var (
		a    Account
		role string
		dept *string
	)
	err := row.Scan(&a.ID, &a.Email, &a.EmployeeID, &a.CredentialHash, &role, &dept, &a.ProfileRef, &a.Active, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	a.Role = rbac.Role(role)
	if dept != nil {
		a.DepartmentID = *dept
	}
	return &a, nil
}
