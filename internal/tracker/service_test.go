package tracker

import (
	"context"
	"errors"
	"testing"

	"github.com/Blekysha/project-x-backend/internal/auth"
)

type fixture struct {
	svc   *Service
	store *InMemory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := NewInMemory()
	svc, err := NewService(store)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return &fixture{svc: svc, store: store}
}

func (f *fixture) register(t *testing.T, name, email, role string) auth.Identity {
	t.Helper()
	user, err := f.svc.Register(context.Background(), name, email, "password123")
	if err != nil {
		t.Fatalf("Register(%s): %v", email, err)
	}
	if role != auth.RoleUser {
		// Role elevation happens out of band; patch the stored record the
		// way a seed would.
		f.store.mu.Lock()
		u := f.store.users[user.ID]
		u.Role = role
		f.store.users[user.ID] = u
		f.store.mu.Unlock()
	}
	return auth.Identity{ID: user.ID, Email: user.Email, Role: role}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Register(ctx, "First", "dup@example.com", "pw-one"); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	_, err := f.svc.Register(ctx, "Second", "dup@example.com", "pw-two")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cases := []struct{ name, email, password string }{
		{"", "a@example.com", "pw"},
		{"User", "not-an-email", "pw"},
		{"User", "a@example.com", ""},
	}
	for _, c := range cases {
		if _, err := f.svc.Register(ctx, c.name, c.email, c.password); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("Register(%q,%q): expected ErrInvalidInput, got %v", c.name, c.email, err)
		}
	}
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "Alice", "alice@example.com", auth.RoleUser)

	user, err := f.svc.Authenticate(ctx, "Alice@Example.com", "password123")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if user.PasswordHash != "" {
		t.Fatal("password hash leaked from Authenticate")
	}

	if _, err := f.svc.Authenticate(ctx, "alice@example.com", "wrong"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := f.svc.Authenticate(ctx, "ghost@example.com", "password123"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestListUsersIsAdminOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	plain := f.register(t, "Plain", "plain@example.com", auth.RoleUser)
	admin := f.register(t, "Admin", "admin@example.com", auth.RoleAdmin)

	if _, err := f.svc.ListUsers(ctx, plain); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	users, err := f.svc.ListUsers(ctx, admin)
	if err != nil {
		t.Fatalf("admin listing failed: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
}

func TestCreateProjectRoleGate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	plain := f.register(t, "Plain", "plain@example.com", auth.RoleUser)
	manager := f.register(t, "Manager", "manager@example.com", auth.RoleManager)

	if _, err := f.svc.CreateProject(ctx, plain, "Denied", ""); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("user role must not create projects, got %v", err)
	}
	project, err := f.svc.CreateProject(ctx, manager, "Apollo", "launch prep")
	if err != nil {
		t.Fatalf("manager create failed: %v", err)
	}
	if project.OwnerID != manager.ID {
		t.Fatalf("owner not set: %+v", project)
	}
}

func TestProjectVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "Owner", "owner@example.com", auth.RoleManager)
	participant := f.register(t, "Part", "part@example.com", auth.RoleUser)
	outsider := f.register(t, "Out", "out@example.com", auth.RoleUser)

	project, err := f.svc.CreateProject(ctx, owner, "Apollo", "")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if err := f.svc.AddParticipant(ctx, owner, project.ID, participant.ID); err != nil {
		t.Fatalf("AddParticipant: %v", err)
	}

	if _, err := f.svc.Project(ctx, owner, project.ID); err != nil {
		t.Fatalf("owner read failed: %v", err)
	}
	if _, err := f.svc.Project(ctx, participant, project.ID); err != nil {
		t.Fatalf("participant read failed: %v", err)
	}
	if _, err := f.svc.Project(ctx, outsider, project.ID); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("outsider read: expected ErrForbidden, got %v", err)
	}
	// A read of a project that does not exist denies the same way.
	if _, err := f.svc.Project(ctx, owner, 9999); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("missing project read: expected ErrForbidden, got %v", err)
	}

	for _, id := range []auth.Identity{owner, participant} {
		projects, err := f.svc.Projects(ctx, id)
		if err != nil {
			t.Fatalf("Projects(%d): %v", id.ID, err)
		}
		if len(projects) != 1 || projects[0].ID != project.ID {
			t.Fatalf("accessor %d should list exactly the project, got %+v", id.ID, projects)
		}
	}
	projects, err := f.svc.Projects(ctx, outsider)
	if err != nil {
		t.Fatalf("Projects(outsider): %v", err)
	}
	if len(projects) != 0 {
		t.Fatalf("outsider listing must be empty, got %+v", projects)
	}
}

func TestUpdateProjectOrderingAndOverride(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "Owner", "owner@example.com", auth.RoleManager)
	participant := f.register(t, "Part", "part@example.com", auth.RoleUser)
	admin := f.register(t, "Admin", "admin@example.com", auth.RoleAdmin)

	project, _ := f.svc.CreateProject(ctx, owner, "Apollo", "")
	_ = f.svc.AddParticipant(ctx, owner, project.ID, participant.ID)

	// Absent project answers 404 before any access question.
	if _, err := f.svc.UpdateProject(ctx, owner, 9999, ProjectUpdate{Name: "X"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	// Participants may read but not mutate.
	if _, err := f.svc.UpdateProject(ctx, participant, project.ID, ProjectUpdate{Name: "X"}); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	// Admin override applies to mutation even without membership.
	updated, err := f.svc.UpdateProject(ctx, admin, project.ID, ProjectUpdate{Name: "Renamed", Description: "by admin"})
	if err != nil {
		t.Fatalf("admin update failed: %v", err)
	}
	if updated.Name != "Renamed" {
		t.Fatalf("update not applied: %+v", updated)
	}
}

func TestDeleteProject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "Owner", "owner@example.com", auth.RoleTeamlead)
	participant := f.register(t, "Part", "part@example.com", auth.RoleUser)

	project, _ := f.svc.CreateProject(ctx, owner, "Apollo", "")
	_ = f.svc.AddParticipant(ctx, owner, project.ID, participant.ID)

	if err := f.svc.DeleteProject(ctx, participant, project.ID); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("participant delete: expected ErrForbidden, got %v", err)
	}
	if err := f.svc.DeleteProject(ctx, owner, project.ID); err != nil {
		t.Fatalf("owner delete failed: %v", err)
	}
	if err := f.svc.DeleteProject(ctx, owner, project.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestAddParticipantDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "Owner", "owner@example.com", auth.RoleManager)
	member := f.register(t, "Member", "member@example.com", auth.RoleUser)

	project, _ := f.svc.CreateProject(ctx, owner, "Apollo", "")

	if err := f.svc.AddParticipant(ctx, owner, project.ID, member.ID); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	if err := f.svc.AddParticipant(ctx, owner, project.ID, member.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("second add: expected ErrConflict, got %v", err)
	}
	participants, err := f.store.Participants(ctx, project.ID)
	if err != nil {
		t.Fatalf("Participants: %v", err)
	}
	if len(participants) != 1 {
		t.Fatalf("membership set changed on conflict: %+v", participants)
	}
}

func TestAddParticipantRoleGateIgnoresOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "Owner", "owner@example.com", auth.RoleManager)
	otherManager := f.register(t, "Other", "other@example.com", auth.RoleManager)
	plain := f.register(t, "Plain", "plain@example.com", auth.RoleUser)

	project, _ := f.svc.CreateProject(ctx, owner, "Apollo", "")

	// Any manager can add participants to any project, not only their own.
	if err := f.svc.AddParticipant(ctx, otherManager, project.ID, plain.ID); err != nil {
		t.Fatalf("foreign manager add failed: %v", err)
	}
	if err := f.svc.AddParticipant(ctx, plain, project.ID, owner.ID); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("plain user add: expected ErrForbidden, got %v", err)
	}
}

func TestCreateTaskValidatesBeforeAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "Owner", "owner@example.com", auth.RoleManager)
	outsider := f.register(t, "Out", "out@example.com", auth.RoleUser)

	project, _ := f.svc.CreateProject(ctx, owner, "Apollo", "")

	// Malformed payload is invalid input even for a caller with no access.
	_, err := f.svc.CreateTask(ctx, outsider, TaskDraft{Title: "", ProjectID: project.ID})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	_, err = f.svc.CreateTask(ctx, owner, TaskDraft{Title: "T", Status: "archived", ProjectID: project.ID})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("bad status: expected ErrInvalidInput, got %v", err)
	}

	// Well-formed payload from an outsider is denied.
	_, err = f.svc.CreateTask(ctx, outsider, TaskDraft{Title: "T", ProjectID: project.ID})
	if !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	task, err := f.svc.CreateTask(ctx, owner, TaskDraft{Title: "T", ProjectID: project.ID})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if task.Status != StatusTodo {
		t.Fatalf("status should default to todo, got %s", task.Status)
	}
}

func TestTaskDeleteIsOwnerOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "Owner", "owner@example.com", auth.RoleManager)
	participant := f.register(t, "Part", "part@example.com", auth.RoleUser)

	project, _ := f.svc.CreateProject(ctx, owner, "Apollo", "")
	_ = f.svc.AddParticipant(ctx, owner, project.ID, participant.ID)
	task, _ := f.svc.CreateTask(ctx, owner, TaskDraft{Title: "T", ProjectID: project.ID})

	// The participant can read and update the task...
	if _, err := f.svc.Task(ctx, participant, task.ID); err != nil {
		t.Fatalf("participant read failed: %v", err)
	}
	if _, err := f.svc.UpdateTask(ctx, participant, task.ID, TaskUpdate{Title: "T2", Status: StatusInProgress}); err != nil {
		t.Fatalf("participant update failed: %v", err)
	}
	// ...but never delete it. Deletion keys off the project owner.
	if err := f.svc.DeleteTask(ctx, participant, task.ID); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("participant delete: expected ErrForbidden, got %v", err)
	}
	if err := f.svc.DeleteTask(ctx, owner, task.ID); err != nil {
		t.Fatalf("owner delete failed: %v", err)
	}
	// Absent task answers 404 before the ownership check.
	if err := f.svc.DeleteTask(ctx, owner, task.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAddAssigneeDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "Owner", "owner@example.com", auth.RoleManager)
	member := f.register(t, "Member", "member@example.com", auth.RoleUser)

	project, _ := f.svc.CreateProject(ctx, owner, "Apollo", "")
	task, _ := f.svc.CreateTask(ctx, owner, TaskDraft{Title: "T", ProjectID: project.ID})

	if err := f.svc.AddAssignee(ctx, owner, task.ID, member.ID); err != nil {
		t.Fatalf("first assign failed: %v", err)
	}
	if err := f.svc.AddAssignee(ctx, owner, task.ID, member.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("second assign: expected ErrConflict, got %v", err)
	}
	if err := f.svc.AddAssignee(ctx, owner, task.ID, 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("zero user_id: expected ErrInvalidInput, got %v", err)
	}
}

func TestAssignmentGrantsNoAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "Owner", "owner@example.com", auth.RoleManager)
	stranger := f.register(t, "Stranger", "stranger@example.com", auth.RoleUser)

	project, _ := f.svc.CreateProject(ctx, owner, "Apollo", "")
	task, _ := f.svc.CreateTask(ctx, owner, TaskDraft{Title: "T", ProjectID: project.ID})

	if err := f.svc.AddAssignee(ctx, owner, task.ID, stranger.ID); err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	// Assignment is metadata; without membership the assignee still cannot
	// read the task.
	if _, err := f.svc.Task(ctx, stranger, task.ID); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestProjectDetail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "Owner", "owner@example.com", auth.RoleManager)
	member := f.register(t, "Member", "member@example.com", auth.RoleUser)

	project, _ := f.svc.CreateProject(ctx, owner, "Apollo", "")
	_ = f.svc.AddParticipant(ctx, owner, project.ID, member.ID)
	task, _ := f.svc.CreateTask(ctx, owner, TaskDraft{Title: "T", ProjectID: project.ID})
	_ = f.svc.AddAssignee(ctx, owner, task.ID, member.ID)

	detail, err := f.svc.ProjectDetail(ctx, member, project.ID)
	if err != nil {
		t.Fatalf("ProjectDetail: %v", err)
	}
	if detail.Project.ID != project.ID {
		t.Fatalf("wrong project: %+v", detail.Project)
	}
	if len(detail.Tasks) != 1 || len(detail.Tasks[0].Assignees) != 1 {
		t.Fatalf("tasks/assignees missing: %+v", detail.Tasks)
	}
	if len(detail.Participants) != 1 || detail.Participants[0].ID != member.ID {
		t.Fatalf("participants missing: %+v", detail.Participants)
	}
}

func TestDashboards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "Owner", "owner@example.com", auth.RoleManager)
	member := f.register(t, "Member", "member@example.com", auth.RoleUser)
	admin := f.register(t, "Admin", "admin@example.com", auth.RoleAdmin)

	project, _ := f.svc.CreateProject(ctx, owner, "Apollo", "")
	_ = f.svc.AddParticipant(ctx, owner, project.ID, member.ID)
	task, _ := f.svc.CreateTask(ctx, owner, TaskDraft{Title: "T", ProjectID: project.ID})
	_ = f.svc.AddAssignee(ctx, owner, task.ID, member.ID)

	dash, err := f.svc.Dashboard(ctx, member)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if len(dash.Projects) != 1 || len(dash.AssignedTasks) != 1 {
		t.Fatalf("unexpected dashboard: %+v", dash)
	}

	if _, err := f.svc.AdminDashboard(ctx, owner); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("non-admin dashboard: expected ErrForbidden, got %v", err)
	}
	rows, err := f.svc.AdminDashboard(ctx, admin)
	if err != nil {
		t.Fatalf("AdminDashboard: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected a row per user, got %d", len(rows))
	}
	for _, row := range rows {
		if row.User.ID == member.ID && len(row.AssignedTasks) != 1 {
			t.Fatalf("member row missing assigned task: %+v", row)
		}
	}
}

// The guarded store call is the last line of defense: even when an earlier
// check passed, a mutation against state that changed underneath denies.
func TestStoreGuardReChecksAtWriteTime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.register(t, "Owner", "owner@example.com", auth.RoleManager)
	intruder := f.register(t, "Intruder", "intruder@example.com", auth.RoleUser)

	project, _ := f.svc.CreateProject(ctx, owner, "Apollo", "")
	task, _ := f.svc.CreateTask(ctx, owner, TaskDraft{Title: "T", ProjectID: project.ID})

	if err := f.store.DeleteTask(ctx, task.ID, intruder); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("store guard must deny non-owner delete, got %v", err)
	}
	if _, err := f.store.UpdateProject(ctx, project.ID, ProjectUpdate{Name: "X"}, intruder); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("store guard must deny non-owner update, got %v", err)
	}
}
