package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"minicms/internal/biz"
)

// userRepo 用户仓库
type userRepo struct {
	db *DB
}

// NewUserRepo 创建用户仓库
func NewUserRepo(db *DB) biz.UserRepo {
	return &userRepo{db: db}
}

const userColumns = `u.id, u.email, u.name, u.role_id, r.name, u.password_hash, u.is_active, u.created_at`

const userFrom = ` FROM users u JOIN roles r ON r.id = u.role_id`

func scanUser(row rowScanner) (*biz.User, error) {
	var (
		u    biz.User
		hash sql.NullString
	)
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.RoleID, &u.RoleName, &hash, &u.Active, &u.CreatedAt); err != nil {
		return nil, err
	}
	if hash.Valid {
		u.PasswordHash = &hash.String
	}
	return &u, nil
}

func (r *userRepo) findOne(ctx context.Context, where string, args ...any) (*biz.User, error) {
	row := r.db.QueryRowContext(ctx, r.db.rebind("SELECT "+userColumns+userFrom+" WHERE "+where), args...)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, biz.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return u, nil
}

func (r *userRepo) FindActiveByEmail(ctx context.Context, email string) (*biz.User, error) {
	return r.findOne(ctx, "u.email = ? AND u.is_active = ?", strings.ToLower(email), true)
}

func (r *userRepo) FindByID(ctx context.Context, id int64) (*biz.User, error) {
	return r.findOne(ctx, "u.id = ?", id)
}

func (r *userRepo) FindByProvider(ctx context.Context, provider, providerID string) (*biz.User, error) {
	return r.findOne(ctx,
		"u.id = (SELECT user_id FROM auth_connections WHERE provider = ? AND provider_id = ?)",
		provider, providerID)
}

func (r *userRepo) List(ctx context.Context) ([]biz.User, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+userColumns+userFrom+" ORDER BY u.created_at DESC, u.id DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []biz.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *userRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

func (r *userRepo) Create(ctx context.Context, nu biz.NewUser) (*biz.User, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		r.db.rebind("INSERT INTO users (email, name, password_hash, role_id, is_active) VALUES (?, ?, ?, ?, ?) RETURNING id"),
		strings.ToLower(nu.Email), nu.Name, nu.PasswordHash, nu.RoleID, true,
	).Scan(&id)
	if isUniqueViolation(err, "users") {
		return nil, biz.ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return r.FindByID(ctx, id)
}

func (r *userRepo) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, r.db.rebind(query), args...)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return requireAffected(res, biz.ErrUserNotFound)
}

func (r *userRepo) Update(ctx context.Context, id int64, name string, roleID int64) error {
	return r.exec(ctx, "UPDATE users SET name = ?, role_id = ? WHERE id = ?", name, roleID, id)
}

func (r *userRepo) UpdatePassword(ctx context.Context, id int64, hash string) error {
	return r.exec(ctx, "UPDATE users SET password_hash = ? WHERE id = ?", hash, id)
}

func (r *userRepo) SetActive(ctx context.Context, id int64, active bool) error {
	return r.exec(ctx, "UPDATE users SET is_active = ? WHERE id = ?", active, id)
}

// LinkOrCreate 在同一事务中查找/创建用户并写入 auth_connections
func (r *userRepo) LinkOrCreate(ctx context.Context, req biz.LinkRequest) (*biz.User, error) {
	id := req.Identity
	email := strings.ToLower(strings.TrimSpace(id.Email))

	tx, err := r.db.BeginTx(ctx, r.db.txOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var userID int64
	err = tx.QueryRowContext(ctx, r.db.rebind("SELECT id FROM users WHERE email = ?"), email).Scan(&userID)
	switch {
	case err == nil:
		if !req.MatchEmail {
			return nil, biz.ErrEmailTaken
		}
	case errors.Is(err, sql.ErrNoRows):
		userID, err = r.insertLinkedUser(ctx, tx, email, id.Name, req.DefaultRole)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("failed to look up user by email: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		r.db.rebind("INSERT INTO auth_connections (user_id, provider, provider_id) VALUES (?, ?, ?)"),
		userID, id.Provider, id.ProviderID)
	if isUniqueViolation(err, "auth_connections") {
		return nil, biz.ErrConnectionExists
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert auth connection: %w", err)
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err, "auth_connections") {
			return nil, biz.ErrConnectionExists
		}
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return r.FindByID(ctx, userID)
}

func (r *userRepo) insertLinkedUser(ctx context.Context, tx *sql.Tx, email, name, role string) (int64, error) {
	var roleID int64
	err := tx.QueryRowContext(ctx, r.db.rebind("SELECT id FROM roles WHERE name = ?"), role).Scan(&roleID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("default role %q: %w", role, biz.ErrRoleNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to look up role: %w", err)
	}

	var userID int64
	err = tx.QueryRowContext(ctx,
		r.db.rebind("INSERT INTO users (email, name, password_hash, role_id, is_active) VALUES (?, ?, NULL, ?, ?) RETURNING id"),
		email, name, roleID, true,
	).Scan(&userID)
	if isUniqueViolation(err, "users") {
		// another transaction created the same email first
		return 0, biz.ErrConnectionExists
	}
	if err != nil {
		return 0, fmt.Errorf("failed to create user: %w", err)
	}
	return userID, nil
}
