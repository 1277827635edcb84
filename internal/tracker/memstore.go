package tracker

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Blekysha/project-x-backend/internal/auth"
)

// InMemory is a map-backed Store for tests and local development. It
// mirrors the pg store's contract, including the guarded mutations
// re-checking access against current state under the lock.
type InMemory struct {
	mu           sync.Mutex
	nextID       int64
	users        map[int64]User
	projects     map[int64]Project
	participants map[int64]map[int64]bool
	tasks        map[int64]Task
	assignees    map[int64]map[int64]bool
}

var _ Store = (*InMemory)(nil)

func NewInMemory() *InMemory {
	return &InMemory{
		users:        make(map[int64]User),
		projects:     make(map[int64]Project),
		participants: make(map[int64]map[int64]bool),
		tasks:        make(map[int64]Task),
		assignees:    make(map[int64]map[int64]bool),
	}
}

func (m *InMemory) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *InMemory) CreateUser(_ context.Context, name, email, passwordHash, role string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return User{}, ErrConflict
		}
	}
	u := User{ID: m.id(), Name: name, Email: email, Role: role, PasswordHash: passwordHash, CreatedAt: time.Now().UTC()}
	m.users[u.ID] = u
	public := u
	public.PasswordHash = ""
	return public, nil
}

func (m *InMemory) UserByEmail(_ context.Context, email string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (m *InMemory) ListUsers(_ context.Context) ([]User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]User, 0, len(m.users))
	for _, u := range m.users {
		u.PasswordHash = ""
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *InMemory) DeleteUser(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *InMemory) CreateProject(_ context.Context, name, description string, ownerID int64) (Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	p := Project{ID: m.id(), Name: name, Description: description, OwnerID: ownerID, CreatedAt: now, UpdatedAt: now}
	m.projects[p.ID] = p
	return p, nil
}

func (m *InMemory) ProjectsForUser(_ context.Context, userID int64) ([]Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Project
	for _, p := range m.projects {
		if p.OwnerID == userID || m.participants[p.ID][userID] {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *InMemory) ProjectAccess(_ context.Context, projectID, userID int64) (ProjectGrant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[projectID]
	if !ok {
		return ProjectGrant{}, ErrNotFound
	}
	return ProjectGrant{Project: p, Participant: m.participants[projectID][userID]}, nil
}

func (m *InMemory) UpdateProject(_ context.Context, projectID int64, upd ProjectUpdate, actor auth.Identity) (Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[projectID]
	if !ok {
		return Project{}, ErrNotFound
	}
	if !auth.CanMutateProject(actor, p.OwnerID) {
		return Project{}, auth.ErrForbidden
	}
	p.Name = upd.Name
	p.Description = upd.Description
	p.UpdatedAt = time.Now().UTC()
	m.projects[projectID] = p
	return p, nil
}

func (m *InMemory) DeleteProject(_ context.Context, projectID int64, actor auth.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[projectID]
	if !ok {
		return ErrNotFound
	}
	if !auth.CanMutateProject(actor, p.OwnerID) {
		return auth.ErrForbidden
	}
	delete(m.projects, projectID)
	delete(m.participants, projectID)
	for id, t := range m.tasks {
		if t.ProjectID == projectID {
			delete(m.tasks, id)
			delete(m.assignees, id)
		}
	}
	return nil
}

func (m *InMemory) AddParticipant(_ context.Context, projectID, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[projectID]; !ok {
		return ErrNotFound
	}
	if _, ok := m.users[userID]; !ok {
		return ErrNotFound
	}
	if m.participants[projectID] == nil {
		m.participants[projectID] = make(map[int64]bool)
	}
	if m.participants[projectID][userID] {
		return ErrConflict
	}
	m.participants[projectID][userID] = true
	return nil
}

func (m *InMemory) Participants(_ context.Context, projectID int64) ([]User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []User
	for userID := range m.participants[projectID] {
		if u, ok := m.users[userID]; ok {
			u.PasswordHash = ""
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *InMemory) CreateTask(_ context.Context, draft TaskDraft) (Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	t := Task{
		ID:          m.id(),
		ProjectID:   draft.ProjectID,
		Title:       draft.Title,
		Description: draft.Description,
		Status:      draft.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.tasks[t.ID] = t
	return t, nil
}

func (m *InMemory) taskWithAssignees(t Task) Task {
	var out []User
	for userID := range m.assignees[t.ID] {
		if u, ok := m.users[userID]; ok {
			u.PasswordHash = ""
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	t.Assignees = out
	return t
}

func (m *InMemory) TasksForUser(_ context.Context, userID int64) ([]Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Task
	for _, t := range m.tasks {
		p, ok := m.projects[t.ProjectID]
		if !ok {
			continue
		}
		if p.OwnerID == userID || m.participants[p.ID][userID] {
			out = append(out, m.taskWithAssignees(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *InMemory) TasksForProject(_ context.Context, projectID int64) ([]Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Task
	for _, t := range m.tasks {
		if t.ProjectID == projectID {
			out = append(out, m.taskWithAssignees(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *InMemory) TaskAccess(_ context.Context, taskID, userID int64) (TaskGrant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[taskID]
	if !ok {
		return TaskGrant{}, ErrNotFound
	}
	p, ok := m.projects[t.ProjectID]
	if !ok {
		return TaskGrant{}, ErrNotFound
	}
	return TaskGrant{
		Task:        m.taskWithAssignees(t),
		OwnerID:     p.OwnerID,
		Participant: m.participants[p.ID][userID],
	}, nil
}

func (m *InMemory) UpdateTask(_ context.Context, taskID int64, upd TaskUpdate, actor auth.Identity) (Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[taskID]
	if !ok {
		return Task{}, ErrNotFound
	}
	p := m.projects[t.ProjectID]
	if !auth.CanReadProject(actor, p.OwnerID, m.participants[p.ID][actor.ID]) {
		return Task{}, auth.ErrForbidden
	}
	t.Title = upd.Title
	t.Description = upd.Description
	t.Status = upd.Status
	t.UpdatedAt = time.Now().UTC()
	m.tasks[taskID] = t
	return m.taskWithAssignees(t), nil
}

func (m *InMemory) DeleteTask(_ context.Context, taskID int64, actor auth.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[taskID]
	if !ok {
		return ErrNotFound
	}
	p := m.projects[t.ProjectID]
	if !auth.CanDeleteTask(actor, p.OwnerID) {
		return auth.ErrForbidden
	}
	delete(m.tasks, taskID)
	delete(m.assignees, taskID)
	return nil
}

func (m *InMemory) AddAssignee(_ context.Context, taskID, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[taskID]; !ok {
		return ErrNotFound
	}
	if _, ok := m.users[userID]; !ok {
		return ErrNotFound
	}
	if m.assignees[taskID] == nil {
		m.assignees[taskID] = make(map[int64]bool)
	}
	if m.assignees[taskID][userID] {
		return ErrConflict
	}
	m.assignees[taskID][userID] = true
	return nil
}

func (m *InMemory) AssignedTasks(_ context.Context, userID int64) ([]Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Task
	for taskID, users := range m.assignees {
		if users[userID] {
			if t, ok := m.tasks[taskID]; ok {
				out = append(out, m.taskWithAssignees(t))
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
