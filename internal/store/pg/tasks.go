package pg

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Blekysha/project-x-backend/internal/auth"
	"github.com/Blekysha/project-x-backend/internal/tracker"
)

const taskColumns = `t.id, t.project_id, t.title, t.description, t.status, t.created_at, t.updated_at`

func (s *Store) CreateTask(ctx context.Context, draft tracker.TaskDraft) (tracker.Task, error) {
	var t tracker.Task
	row := s.db.QueryRowContext(ctx, `
		insert into tasks (project_id, title, description, status)
		values ($1, $2, $3, $4)
		returning id, project_id, title, description, status, created_at, updated_at
	`, draft.ProjectID, draft.Title, draft.Description, draft.Status)
	if err := row.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Description, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return tracker.Task{}, classifyWriteError(err)
	}
	return t, nil
}

// TasksForUser filters by the parent project's accessor predicate inside
// the query, newest first.
func (s *Store) TasksForUser(ctx context.Context, userID int64) ([]tracker.Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		select distinct `+taskColumns+`
		from tasks t
		join projects p on p.id = t.project_id
		left join project_participants pp on pp.project_id = p.id
		where p.owner_id = $1 or pp.user_id = $1
		order by t.created_at desc, t.id desc
	`, userID)
	if err != nil {
		return nil, err
	}
	tasks, err := scanTasks(rows)
	if err != nil {
		return nil, err
	}
	return s.attachAssignees(ctx, tasks)
}

func (s *Store) TasksForProject(ctx context.Context, projectID int64) ([]tracker.Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		select `+taskColumns+`
		from tasks t
		where t.project_id = $1
		order by t.id
	`, projectID)
	if err != nil {
		return nil, err
	}
	tasks, err := scanTasks(rows)
	if err != nil {
		return nil, err
	}
	return s.attachAssignees(ctx, tasks)
}

// TaskAccess fetches the task together with the parent project's owner and
// the user's membership in one round trip.
func (s *Store) TaskAccess(ctx context.Context, taskID, userID int64) (tracker.TaskGrant, error) {
	var grant tracker.TaskGrant
	err := s.db.QueryRowContext(ctx, `
		select `+taskColumns+`, p.owner_id,
		       exists(select 1 from project_participants pp where pp.project_id = p.id and pp.user_id = $2)
		from tasks t
		join projects p on p.id = t.project_id
		where t.id = $1
	`, taskID, userID).Scan(
		&grant.Task.ID, &grant.Task.ProjectID, &grant.Task.Title, &grant.Task.Description,
		&grant.Task.Status, &grant.Task.CreatedAt, &grant.Task.UpdatedAt,
		&grant.OwnerID, &grant.Participant,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return tracker.TaskGrant{}, tracker.ErrNotFound
	}
	if err != nil {
		return tracker.TaskGrant{}, err
	}
	tasks, err := s.attachAssignees(ctx, []tracker.Task{grant.Task})
	if err != nil {
		return tracker.TaskGrant{}, err
	}
	grant.Task = tasks[0]
	return grant, nil
}

// UpdateTask re-reads the parent project's ownership and the actor's
// membership under a row lock and re-applies the accessor predicate before
// writing.
func (s *Store) UpdateTask(ctx context.Context, taskID int64, upd tracker.TaskUpdate, actor auth.Identity) (tracker.Task, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return tracker.Task{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var (
		ownerID     int64
		participant bool
	)
	err = tx.QueryRowContext(ctx, `
		select p.owner_id,
		       exists(select 1 from project_participants pp where pp.project_id = p.id and pp.user_id = $2)
		from tasks t
		join projects p on p.id = t.project_id
		where t.id = $1
		for update of t
	`, taskID, actor.ID).Scan(&ownerID, &participant)
	if errors.Is(err, sql.ErrNoRows) {
		return tracker.Task{}, tracker.ErrNotFound
	}
	if err != nil {
		return tracker.Task{}, err
	}
	if !auth.CanReadProject(actor, ownerID, participant) {
		return tracker.Task{}, auth.ErrForbidden
	}

	var t tracker.Task
	row := tx.QueryRowContext(ctx, `
		update tasks
		set title = $1, description = $2, status = $3, updated_at = now()
		where id = $4
		returning id, project_id, title, description, status, created_at, updated_at
	`, upd.Title, upd.Description, upd.Status, taskID)
	if err := row.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Description, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return tracker.Task{}, err
	}
	if err := tx.Commit(); err != nil {
		return tracker.Task{}, err
	}
	tasks, err := s.attachAssignees(ctx, []tracker.Task{t})
	if err != nil {
		return tracker.Task{}, err
	}
	return tasks[0], nil
}

// DeleteTask locks the task row, re-checks that the actor owns the parent
// project, then deletes. Deletion has no admin override and no participant
// allowance.
func (s *Store) DeleteTask(ctx context.Context, taskID int64, actor auth.Identity) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var ownerID int64
	err = tx.QueryRowContext(ctx, `
		select p.owner_id
		from tasks t
		join projects p on p.id = t.project_id
		where t.id = $1
		for update of t
	`, taskID).Scan(&ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return tracker.ErrNotFound
	}
	if err != nil {
		return err
	}
	if !auth.CanDeleteTask(actor, ownerID) {
		return auth.ErrForbidden
	}

	if _, err := tx.ExecContext(ctx, `delete from tasks where id = $1`, taskID); err != nil {
		return err
	}
	return tx.Commit()
}

// AddAssignee is a single insert; the unique (task_id, user_id) constraint
// turns duplicate assignment into a conflict without a read-then-write race.
func (s *Store) AddAssignee(ctx context.Context, taskID, userID int64) error {
	_, err := s.db.ExecContext(ctx, `
		insert into task_assignees (task_id, user_id)
		values ($1, $2)
	`, taskID, userID)
	if err != nil {
		return classifyWriteError(err)
	}
	return nil
}

func (s *Store) AssignedTasks(ctx context.Context, userID int64) ([]tracker.Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		select `+taskColumns+`
		from tasks t
		join task_assignees ta on ta.task_id = t.id
		where ta.user_id = $1
		order by t.created_at desc, t.id desc
	`, userID)
	if err != nil {
		return nil, err
	}
	tasks, err := scanTasks(rows)
	if err != nil {
		return nil, err
	}
	return s.attachAssignees(ctx, tasks)
}

func scanTasks(rows *sql.Rows) ([]tracker.Task, error) {
	defer rows.Close()
	var tasks []tracker.Task
	for rows.Next() {
		var t tracker.Task
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Description, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

// attachAssignees loads assignees for all tasks in one query instead of one
// round trip per task.
func (s *Store) attachAssignees(ctx context.Context, tasks []tracker.Task) ([]tracker.Task, error) {
	if len(tasks) == 0 {
		return tasks, nil
	}
	ids := make([]int64, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
	}
	rows, err := s.db.QueryContext(ctx, `
		select ta.task_id, u.id, u.name, u.email, u.role, u.created_at
		from task_assignees ta
		join users u on u.id = ta.user_id
		where ta.task_id = any($1)
		order by u.id
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byTask := make(map[int64][]tracker.User)
	for rows.Next() {
		var (
			taskID int64
			u      tracker.User
		)
		if err := rows.Scan(&taskID, &u.ID, &u.Name, &u.Email, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		byTask[taskID] = append(byTask[taskID], u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range tasks {
		tasks[i].Assignees = byTask[tasks[i].ID]
	}
	return tasks, nil
}
