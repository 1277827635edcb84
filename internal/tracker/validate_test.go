package tracker

import (
	"errors"
	"testing"
)

func TestValidateTaskDraft(t *testing.T) {
	ok := TaskDraft{Title: "T", Status: StatusInProgress, ProjectID: 1}
	if err := ValidateTaskDraft(ok); err != nil {
		t.Fatalf("valid draft rejected: %v", err)
	}
	// Status is optional; it defaults later.
	if err := ValidateTaskDraft(TaskDraft{Title: "T", ProjectID: 1}); err != nil {
		t.Fatalf("empty status rejected: %v", err)
	}

	bad := []TaskDraft{
		{Title: "", ProjectID: 1},
		{Title: "   ", ProjectID: 1},
		{Title: "T", Status: "archived", ProjectID: 1},
		{Title: "T", ProjectID: 0},
	}
	for _, draft := range bad {
		if err := ValidateTaskDraft(draft); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("draft %+v: expected ErrInvalidInput, got %v", draft, err)
		}
	}
}
