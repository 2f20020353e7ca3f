package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Odenfis/sedimApp/internal/model"
)

// ListUsers returns all accounts ordered by id, without password hashes
func (ss *SQLiteStorage) ListUsers(ctx context.Context) ([]model.User, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	rows, err := ss.db.QueryContext(ctx, `SELECT id, usuario, nombre FROM usuariosweb ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Name); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// GetUserByUsername returns the account including its password hash
func (ss *SQLiteStorage) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	var u model.User
	err := ss.db.QueryRowContext(ctx,
		`SELECT id, usuario, password, nombre FROM usuariosweb WHERE usuario = ?`, username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return &u, nil
}

// CreateUser inserts user and sets its ID. PasswordHash must already be hashed.
func (ss *SQLiteStorage) CreateUser(ctx context.Context, user *model.User) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	result, err := ss.db.ExecContext(ctx,
		`INSERT INTO usuariosweb (usuario, password, nombre) VALUES (?, ?, ?)`,
		user.Username, user.PasswordHash, user.Name,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrUserExists
		}
		return fmt.Errorf("inserting user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading user id: %w", err)
	}
	user.ID = id
	return nil
}

// DeleteUser removes the account with the given id
func (ss *SQLiteStorage) DeleteUser(ctx context.Context, id int64) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	result, err := ss.db.ExecContext(ctx, `DELETE FROM usuariosweb WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdatePassword replaces the password hash of username
func (ss *SQLiteStorage) UpdatePassword(ctx context.Context, username, passwordHash string) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	result, err := ss.db.ExecContext(ctx,
		`UPDATE usuariosweb SET password = ? WHERE usuario = ?`, passwordHash, username,
	)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}
