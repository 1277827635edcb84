package pg

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Blekysha/project-x-backend/internal/tracker"
)

func (s *Store) CreateUser(ctx context.Context, name, email, passwordHash, role string) (tracker.User, error) {
	var user tracker.User
	row := s.db.QueryRowContext(ctx, `
		insert into users (name, email, password_hash, role)
		values ($1, $2, $3, $4)
		returning id, name, email, role, created_at
	`, name, email, passwordHash, role)
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.Role, &user.CreatedAt); err != nil {
		return tracker.User{}, classifyWriteError(err)
	}
	return user, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (tracker.User, error) {
	var user tracker.User
	err := s.db.QueryRowContext(ctx, `
		select id, name, email, password_hash, role, created_at
		from users
		where email = $1
	`, email).Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return tracker.User{}, tracker.ErrNotFound
	}
	if err != nil {
		return tracker.User{}, err
	}
	return user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]tracker.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, name, email, role, created_at
		from users
		order by id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []tracker.User
	for rows.Next() {
		var user tracker.User
		if err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.Role, &user.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `delete from users where id = $1`, id)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return tracker.ErrNotFound
	}
	return nil
}
