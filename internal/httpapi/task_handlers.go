package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/Blekysha/project-x-backend/internal/audit"
	"github.com/Blekysha/project-x-backend/internal/tracker"
)

type addAssigneeRequest struct {
	UserID int64 `json:"user_id"`
}

type listTasksResponse struct {
	Items []tracker.Task `json:"items"`
}

func (a *API) handleTasksCollection(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		tasks, err := a.svc.Tasks(r.Context(), identity)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, listTasksResponse{Items: tasks})
	case http.MethodPost:
		var draft tracker.TaskDraft
		if err := decodeJSON(w, r, &draft); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		task, err := a.svc.CreateTask(r.Context(), identity, draft)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "task.created", map[string]any{
			"task_id":    task.ID,
			"project_id": task.ProjectID,
		})
		w.Header().Set("Location", fmt.Sprintf("/tasks/%d", task.ID))
		writeJSON(w, http.StatusCreated, task)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleTaskResource(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/tasks/"), "/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	parts := strings.Split(path, "/")
	id, err := parseID(parts[0])
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	switch {
	case len(parts) == 1:
		a.taskByID(w, r, id)
	case len(parts) == 2 && parts[1] == "assignees":
		a.taskAssignees(w, r, id)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) taskByID(w http.ResponseWriter, r *http.Request, id int64) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		task, err := a.svc.Task(r.Context(), identity, id)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, task)
	case http.MethodPut:
		var upd tracker.TaskUpdate
		if err := decodeJSON(w, r, &upd); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		task, err := a.svc.UpdateTask(r.Context(), identity, id, upd)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "task.updated", map[string]any{
			"task_id": task.ID,
		})
		writeJSON(w, http.StatusOK, task)
	case http.MethodDelete:
		if err := a.svc.DeleteTask(r.Context(), identity, id); err != nil {
			handleServiceError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "task.deleted", map[string]any{
			"task_id": id,
		})
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) taskAssignees(w http.ResponseWriter, r *http.Request, id int64) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}
	var req addAssigneeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.svc.AddAssignee(r.Context(), identity, id, req.UserID); err != nil {
		handleServiceError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "task.assignee.added", map[string]any{
		"task_id":     id,
		"assignee_id": req.UserID,
	})
	w.WriteHeader(http.StatusNoContent)
}
