package tracker

import (
	"context"

	"github.com/Blekysha/project-x-backend/internal/auth"
)

// Store describes persistence operations required by the tracker. List
// operations that take a user id apply the accessor predicate (owner or
// participant) inside the query itself; unauthorized rows are never fetched
// and filtered afterwards.
//
// Guarded mutations (UpdateProject, DeleteProject, UpdateTask, DeleteTask)
// take the acting identity and re-apply the access predicate against the
// row's current state inside the same transaction as the write. They return
// ErrNotFound if the resource is gone and auth.ErrForbidden if the re-check
// fails, closing the window between an earlier authorization decision and a
// concurrent ownership or membership change.
type Store interface {
	// Users.
	CreateUser(ctx context.Context, name, email, passwordHash, role string) (User, error)
	UserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	DeleteUser(ctx context.Context, id int64) error

	// Projects.
	CreateProject(ctx context.Context, name, description string, ownerID int64) (Project, error)
	ProjectsForUser(ctx context.Context, userID int64) ([]Project, error)
	ProjectAccess(ctx context.Context, projectID, userID int64) (ProjectGrant, error)
	UpdateProject(ctx context.Context, projectID int64, upd ProjectUpdate, actor auth.Identity) (Project, error)
	DeleteProject(ctx context.Context, projectID int64, actor auth.Identity) error
	AddParticipant(ctx context.Context, projectID, userID int64) error
	Participants(ctx context.Context, projectID int64) ([]User, error)

	// Tasks.
	CreateTask(ctx context.Context, draft TaskDraft) (Task, error)
	TasksForUser(ctx context.Context, userID int64) ([]Task, error)
	TasksForProject(ctx context.Context, projectID int64) ([]Task, error)
	TaskAccess(ctx context.Context, taskID, userID int64) (TaskGrant, error)
	UpdateTask(ctx context.Context, taskID int64, upd TaskUpdate, actor auth.Identity) (Task, error)
	DeleteTask(ctx context.Context, taskID int64, actor auth.Identity) error
	AddAssignee(ctx context.Context, taskID, userID int64) error
	AssignedTasks(ctx context.Context, userID int64) ([]Task, error)
}
