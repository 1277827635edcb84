package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Blekysha/project-x-backend/internal/auth"
)

// Service implements the tracker operations with the access-control policy
// applied consistently: authentication is the caller's concern (the identity
// is already verified), role gates and resource access run here, and the
// store re-confirms ownership at write time for mutations.
type Service struct {
	store Store
}

// NewService constructs a Service over the given store.
func NewService(store Store) (*Service, error) {
	if store == nil {
		return nil, errors.New("tracker: store is required")
	}
	return &Service{store: store}, nil
}

// --- users ---

// Register creates a credential record. The role always starts as "user";
// elevated roles are granted out of band.
func (s *Service) Register(ctx context.Context, name, email, password string) (User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(strings.ToLower(email))
	if name == "" {
		return User{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if email == "" || !strings.Contains(email, "@") {
		return User{}, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	if strings.TrimSpace(password) == "" {
		return User{}, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return User{}, err
	}
	return s.store.CreateUser(ctx, name, email, hash, auth.RoleUser)
}

// Authenticate verifies an email/password pair and returns the matching
// user. Unknown email and wrong password are indistinguishable to the
// caller.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return User{}, auth.ErrInvalidCredentials
	}
	user, err := s.store.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, auth.ErrInvalidCredentials
		}
		return User{}, err
	}
	if err := auth.VerifyPassword(user.PasswordHash, password); err != nil {
		return User{}, auth.ErrInvalidCredentials
	}
	user.PasswordHash = ""
	return user, nil
}

// ListUsers returns every registered user. Admin only.
func (s *Service) ListUsers(ctx context.Context, actor auth.Identity) ([]User, error) {
	if err := auth.RequireRole(actor, auth.RoleAdmin); err != nil {
		return nil, err
	}
	return s.store.ListUsers(ctx)
}

// DeleteUser removes a user record. Admin only; no cascade guarantees
// beyond what the store's constraints provide.
func (s *Service) DeleteUser(ctx context.Context, actor auth.Identity, userID int64) error {
	if err := auth.RequireRole(actor, auth.RoleAdmin); err != nil {
		return err
	}
	if userID <= 0 {
		return fmt.Errorf("%w: valid user id is required", ErrInvalidInput)
	}
	return s.store.DeleteUser(ctx, userID)
}

// --- projects ---

// CreateProject creates a project owned by the actor. Restricted to
// managers and teamleads.
func (s *Service) CreateProject(ctx context.Context, actor auth.Identity, name, description string) (Project, error) {
	if err := auth.RequireRole(actor, auth.RoleManager, auth.RoleTeamlead); err != nil {
		return Project{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Project{}, fmt.Errorf("%w: project name is required", ErrInvalidInput)
	}
	return s.store.CreateProject(ctx, name, strings.TrimSpace(description), actor.ID)
}

// Projects lists the projects the actor owns or participates in. The
// accessor predicate is the query filter; rows outside it are never read.
func (s *Service) Projects(ctx context.Context, actor auth.Identity) ([]Project, error) {
	return s.store.ProjectsForUser(ctx, actor.ID)
}

// Project returns a single project the actor may read. Reads do not
// distinguish an absent project from an inaccessible one: both deny.
func (s *Service) Project(ctx context.Context, actor auth.Identity, projectID int64) (Project, error) {
	grant, err := s.readableProject(ctx, actor, projectID)
	if err != nil {
		return Project{}, err
	}
	return grant.Project, nil
}

// ProjectDetail returns the project with its tasks (assignees embedded) and
// participant roster.
func (s *Service) ProjectDetail(ctx context.Context, actor auth.Identity, projectID int64) (ProjectDetail, error) {
	grant, err := s.readableProject(ctx, actor, projectID)
	if err != nil {
		return ProjectDetail{}, err
	}
	tasks, err := s.store.TasksForProject(ctx, projectID)
	if err != nil {
		return ProjectDetail{}, err
	}
	participants, err := s.store.Participants(ctx, projectID)
	if err != nil {
		return ProjectDetail{}, err
	}
	return ProjectDetail{Project: grant.Project, Tasks: tasks, Participants: participants}, nil
}

// UpdateProject replaces a project's name and description. Owner or admin;
// existence is answered truthfully (404) before the access check, and the
// store re-confirms ownership inside the write transaction.
func (s *Service) UpdateProject(ctx context.Context, actor auth.Identity, projectID int64, upd ProjectUpdate) (Project, error) {
	upd.Name = strings.TrimSpace(upd.Name)
	upd.Description = strings.TrimSpace(upd.Description)
	if upd.Name == "" {
		return Project{}, fmt.Errorf("%w: project name is required", ErrInvalidInput)
	}
	grant, err := s.store.ProjectAccess(ctx, projectID, actor.ID)
	if err != nil {
		return Project{}, err
	}
	if !auth.CanMutateProject(actor, grant.Project.OwnerID) {
		return Project{}, auth.ErrForbidden
	}
	return s.store.UpdateProject(ctx, projectID, upd, actor)
}

// DeleteProject removes a project. Owner or admin; 404 before 403, with the
// store re-confirming ownership at delete time.
func (s *Service) DeleteProject(ctx context.Context, actor auth.Identity, projectID int64) error {
	grant, err := s.store.ProjectAccess(ctx, projectID, actor.ID)
	if err != nil {
		return err
	}
	if !auth.CanMutateProject(actor, grant.Project.OwnerID) {
		return auth.ErrForbidden
	}
	return s.store.DeleteProject(ctx, projectID, actor)
}

// AddParticipant grants membership. Gated by role alone: any manager or
// teamlead may add participants to any project, ownership is not required.
func (s *Service) AddParticipant(ctx context.Context, actor auth.Identity, projectID, userID int64) error {
	if !auth.CanManageParticipants(actor) {
		return auth.ErrForbidden
	}
	if projectID <= 0 || userID <= 0 {
		return fmt.Errorf("%w: valid project and user ids are required", ErrInvalidInput)
	}
	return s.store.AddParticipant(ctx, projectID, userID)
}

// --- tasks ---

// Tasks lists tasks in projects the actor can access, newest first, with
// assignees embedded.
func (s *Service) Tasks(ctx context.Context, actor auth.Identity) ([]Task, error) {
	return s.store.TasksForUser(ctx, actor.ID)
}

// Task returns a single task if the actor can access its parent project.
func (s *Service) Task(ctx context.Context, actor auth.Identity, taskID int64) (Task, error) {
	grant, err := s.readableTask(ctx, actor, taskID)
	if err != nil {
		return Task{}, err
	}
	return grant.Task, nil
}

// CreateTask validates the payload first (a malformed draft is invalid
// input regardless of access), then requires the actor to be an accessor of
// the target project.
func (s *Service) CreateTask(ctx context.Context, actor auth.Identity, draft TaskDraft) (Task, error) {
	if err := ValidateTaskDraft(draft); err != nil {
		return Task{}, err
	}
	if draft.Status == "" {
		draft.Status = StatusTodo
	}
	draft.Title = strings.TrimSpace(draft.Title)
	if _, err := s.readableProject(ctx, actor, draft.ProjectID); err != nil {
		return Task{}, err
	}
	return s.store.CreateTask(ctx, draft)
}

// UpdateTask replaces a task's mutable fields. Any accessor of the parent
// project may update; the store re-confirms the accessor predicate inside
// the write transaction.
func (s *Service) UpdateTask(ctx context.Context, actor auth.Identity, taskID int64, upd TaskUpdate) (Task, error) {
	if err := validateTaskUpdate(upd); err != nil {
		return Task{}, err
	}
	upd.Title = strings.TrimSpace(upd.Title)
	grant, err := s.readableTask(ctx, actor, taskID)
	if err != nil {
		return Task{}, err
	}
	if upd.Status == "" {
		upd.Status = grant.Task.Status
	}
	return s.store.UpdateTask(ctx, taskID, upd, actor)
}

// DeleteTask removes a task. Narrower than read: only the parent project's
// owner may delete, and absence is answered truthfully (404) before the
// ownership check.
func (s *Service) DeleteTask(ctx context.Context, actor auth.Identity, taskID int64) error {
	grant, err := s.store.TaskAccess(ctx, taskID, actor.ID)
	if err != nil {
		return err
	}
	if !auth.CanDeleteTask(actor, grant.OwnerID) {
		return auth.ErrForbidden
	}
	return s.store.DeleteTask(ctx, taskID, actor)
}

// AddAssignee assigns a user to a task. Any accessor of the parent project
// may assign; assignment grants no access of its own.
func (s *Service) AddAssignee(ctx context.Context, actor auth.Identity, taskID, userID int64) error {
	if userID <= 0 {
		return fmt.Errorf("%w: valid user_id is required", ErrInvalidInput)
	}
	if _, err := s.readableTask(ctx, actor, taskID); err != nil {
		return err
	}
	return s.store.AddAssignee(ctx, taskID, userID)
}

// --- dashboards ---

// Dashboard returns the actor's projects and the tasks assigned to them
// personally.
func (s *Service) Dashboard(ctx context.Context, actor auth.Identity) (Dashboard, error) {
	projects, err := s.store.ProjectsForUser(ctx, actor.ID)
	if err != nil {
		return Dashboard{}, err
	}
	assigned, err := s.store.AssignedTasks(ctx, actor.ID)
	if err != nil {
		return Dashboard{}, err
	}
	return Dashboard{Projects: projects, AssignedTasks: assigned}, nil
}

// AdminDashboard returns the per-user breakdown across the whole system.
// Admin only.
func (s *Service) AdminDashboard(ctx context.Context, actor auth.Identity) ([]UserDashboard, error) {
	if err := auth.RequireRole(actor, auth.RoleAdmin); err != nil {
		return nil, err
	}
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]UserDashboard, 0, len(users))
	for _, user := range users {
		projects, err := s.store.ProjectsForUser(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		projectTasks, err := s.store.TasksForUser(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		assigned, err := s.store.AssignedTasks(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, UserDashboard{
			User:          user,
			Projects:      projects,
			ProjectTasks:  projectTasks,
			AssignedTasks: assigned,
		})
	}
	return result, nil
}

// --- access helpers ---

// readableProject fetches the project together with the actor's membership
// and applies the read predicate. Absence and denial both surface as
// Forbidden: read paths never reveal whether the resource exists.
func (s *Service) readableProject(ctx context.Context, actor auth.Identity, projectID int64) (ProjectGrant, error) {
	grant, err := s.store.ProjectAccess(ctx, projectID, actor.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ProjectGrant{}, auth.ErrForbidden
		}
		return ProjectGrant{}, err
	}
	if !auth.CanReadProject(actor, grant.Project.OwnerID, grant.Participant) {
		return ProjectGrant{}, auth.ErrForbidden
	}
	return grant, nil
}

func (s *Service) readableTask(ctx context.Context, actor auth.Identity, taskID int64) (TaskGrant, error) {
	grant, err := s.store.TaskAccess(ctx, taskID, actor.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return TaskGrant{}, auth.ErrForbidden
		}
		return TaskGrant{}, err
	}
	if !auth.CanReadProject(actor, grant.OwnerID, grant.Participant) {
		return TaskGrant{}, auth.ErrForbidden
	}
	return grant, nil
}
