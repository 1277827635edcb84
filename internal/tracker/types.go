package tracker

import "time"

// Task status values. The enum is part of the task payload contract.
const (
	StatusTodo       = "todo"
	StatusInProgress = "in-progress"
	StatusDone       = "done"
)

// User is a registered account. PasswordHash is populated only on credential
// lookups and never serialized.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Project is owned by exactly one user; ownership never transfers.
type Project struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	OwnerID     int64     `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Task always belongs to exactly one project and inherits its access
// boundary from it. Assignment is additive metadata, not an access grant.
type Task struct {
	ID          int64     `json:"id"`
	ProjectID   int64     `json:"project_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Assignees   []User    `json:"assignees,omitempty"`
}

// ProjectDetail is the full read of a project: tasks with their assignees
// plus the participant roster.
type ProjectDetail struct {
	Project      Project `json:"project"`
	Tasks        []Task  `json:"tasks"`
	Participants []User  `json:"participants"`
}

// Dashboard summarizes the caller's own slice of the system.
type Dashboard struct {
	Projects      []Project `json:"projects"`
	AssignedTasks []Task    `json:"assigned_tasks"`
}

// UserDashboard is one row of the admin-wide dashboard.
type UserDashboard struct {
	User          User      `json:"user"`
	Projects      []Project `json:"projects"`
	ProjectTasks  []Task    `json:"project_tasks"`
	AssignedTasks []Task    `json:"assigned_tasks"`
}

// TaskDraft is the payload for task creation.
type TaskDraft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	ProjectID   int64  `json:"project_id"`
}

// TaskUpdate replaces a task's mutable fields.
type TaskUpdate struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// ProjectUpdate replaces a project's mutable fields.
type ProjectUpdate struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ProjectGrant bundles a project with the caller's relationship to it, so
// access predicates run over state fetched in a single query.
type ProjectGrant struct {
	Project     Project
	Participant bool
}

// TaskGrant bundles a task with the parent project's ownership and the
// caller's membership in it.
type TaskGrant struct {
	Task        Task
	OwnerID     int64
	Participant bool
}
