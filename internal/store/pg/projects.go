package pg

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Blekysha/project-x-backend/internal/auth"
	"github.com/Blekysha/project-x-backend/internal/tracker"
)

func (s *Store) CreateProject(ctx context.Context, name, description string, ownerID int64) (tracker.Project, error) {
	var p tracker.Project
	row := s.db.QueryRowContext(ctx, `
		insert into projects (name, description, owner_id)
		values ($1, $2, $3)
		returning id, name, description, owner_id, created_at, updated_at
	`, name, description, ownerID)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.OwnerID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return tracker.Project{}, classifyWriteError(err)
	}
	return p, nil
}

// ProjectsForUser applies the accessor predicate inside the query: rows the
// user cannot see are never fetched.
func (s *Store) ProjectsForUser(ctx context.Context, userID int64) ([]tracker.Project, error) {
	rows, err := s.db.QueryContext(ctx, `
		select distinct p.id, p.name, p.description, p.owner_id, p.created_at, p.updated_at
		from projects p
		left join project_participants pp on pp.project_id = p.id
		where p.owner_id = $1 or pp.user_id = $1
		order by p.id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []tracker.Project
	for rows.Next() {
		var p tracker.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.OwnerID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return projects, nil
}

// ProjectAccess fetches the project together with the user's membership in
// one round trip, so the caller's predicate runs over a consistent snapshot.
func (s *Store) ProjectAccess(ctx context.Context, projectID, userID int64) (tracker.ProjectGrant, error) {
	var grant tracker.ProjectGrant
	err := s.db.QueryRowContext(ctx, `
		select p.id, p.name, p.description, p.owner_id, p.created_at, p.updated_at,
		       exists(select 1 from project_participants pp where pp.project_id = p.id and pp.user_id = $2)
		from projects p
		where p.id = $1
	`, projectID, userID).Scan(
		&grant.Project.ID, &grant.Project.Name, &grant.Project.Description,
		&grant.Project.OwnerID, &grant.Project.CreatedAt, &grant.Project.UpdatedAt,
		&grant.Participant,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return tracker.ProjectGrant{}, tracker.ErrNotFound
	}
	if err != nil {
		return tracker.ProjectGrant{}, err
	}
	return grant, nil
}

// UpdateProject re-reads ownership under a row lock and re-applies the
// mutation predicate before writing, so a concurrent ownership change
// cannot slip past an earlier authorization decision.
func (s *Store) UpdateProject(ctx context.Context, projectID int64, upd tracker.ProjectUpdate, actor auth.Identity) (tracker.Project, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return tracker.Project{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var ownerID int64
	err = tx.QueryRowContext(ctx, `select owner_id from projects where id = $1 for update`, projectID).Scan(&ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return tracker.Project{}, tracker.ErrNotFound
	}
	if err != nil {
		return tracker.Project{}, err
	}
	if !auth.CanMutateProject(actor, ownerID) {
		return tracker.Project{}, auth.ErrForbidden
	}

	var p tracker.Project
	row := tx.QueryRowContext(ctx, `
		update projects
		set name = $1, description = $2, updated_at = now()
		where id = $3
		returning id, name, description, owner_id, created_at, updated_at
	`, upd.Name, upd.Description, projectID)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.OwnerID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return tracker.Project{}, err
	}
	if err := tx.Commit(); err != nil {
		return tracker.Project{}, err
	}
	return p, nil
}

// DeleteProject applies the same write-time guard as UpdateProject.
func (s *Store) DeleteProject(ctx context.Context, projectID int64, actor auth.Identity) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var ownerID int64
	err = tx.QueryRowContext(ctx, `select owner_id from projects where id = $1 for update`, projectID).Scan(&ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return tracker.ErrNotFound
	}
	if err != nil {
		return err
	}
	if !auth.CanMutateProject(actor, ownerID) {
		return auth.ErrForbidden
	}

	if _, err := tx.ExecContext(ctx, `delete from projects where id = $1`, projectID); err != nil {
		return err
	}
	return tx.Commit()
}

// AddParticipant relies on the unique (project_id, user_id) constraint: the
// duplicate check and the insert are one statement, so concurrent identical
// requests cannot both succeed.
func (s *Store) AddParticipant(ctx context.Context, projectID, userID int64) error {
	_, err := s.db.ExecContext(ctx, `
		insert into project_participants (project_id, user_id)
		values ($1, $2)
	`, projectID, userID)
	if err != nil {
		return classifyWriteError(err)
	}
	return nil
}

func (s *Store) Participants(ctx context.Context, projectID int64) ([]tracker.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		select u.id, u.name, u.email, u.role, u.created_at
		from project_participants pp
		join users u on u.id = pp.user_id
		where pp.project_id = $1
		order by u.id
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []tracker.User
	for rows.Next() {
		var u tracker.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}
