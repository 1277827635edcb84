package tracker

import (
	"fmt"
	"strings"
)

func validStatus(status string) bool {
	switch status {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// ValidateTaskDraft checks the task creation payload. Validation runs before
// any access check, so a malformed payload is reported as invalid input even
// when the caller could not touch the target project.
func ValidateTaskDraft(draft TaskDraft) error {
	var problems []string
	if strings.TrimSpace(draft.Title) == "" {
		problems = append(problems, "title is required")
	}
	if draft.Status != "" && !validStatus(draft.Status) {
		problems = append(problems, "status must be one of: todo, in-progress, done")
	}
	if draft.ProjectID <= 0 {
		problems = append(problems, "valid project_id is required")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(problems, "; "))
	}
	return nil
}

func validateTaskUpdate(upd TaskUpdate) error {
	var problems []string
	if strings.TrimSpace(upd.Title) == "" {
		problems = append(problems, "title is required")
	}
	if upd.Status != "" && !validStatus(upd.Status) {
		problems = append(problems, "status must be one of: todo, in-progress, done")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(problems, "; "))
	}
	return nil
}
