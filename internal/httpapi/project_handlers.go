package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/Blekysha/project-x-backend/internal/audit"
	"github.com/Blekysha/project-x-backend/internal/tracker"
)

type createProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type addParticipantRequest struct {
	UserID int64 `json:"user_id"`
}

type listProjectsResponse struct {
	Items []tracker.Project `json:"items"`
}

func (a *API) handleProjectsCollection(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		projects, err := a.svc.Projects(r.Context(), identity)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, listProjectsResponse{Items: projects})
	case http.MethodPost:
		var req createProjectRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		project, err := a.svc.CreateProject(r.Context(), identity, req.Name, req.Description)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "project.created", map[string]any{
			"project_id": project.ID,
			"name":       project.Name,
		})
		w.Header().Set("Location", fmt.Sprintf("/projects/%d", project.ID))
		writeJSON(w, http.StatusCreated, project)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleProjectResource(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/projects/"), "/")
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
		a.projectByID(w, r, id)
	case len(parts) == 2 && parts[1] == "info":
		a.projectInfo(w, r, id)
	case len(parts) == 2 && parts[1] == "full":
		a.projectFull(w, r, id)
	case len(parts) == 2 && parts[1] == "participants":
		a.projectParticipants(w, r, id)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) projectByID(w http.ResponseWriter, r *http.Request, id int64) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		project, err := a.svc.Project(r.Context(), identity, id)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, project)
	case http.MethodPut:
		var req tracker.ProjectUpdate
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		project, err := a.svc.UpdateProject(r.Context(), identity, id, req)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "project.updated", map[string]any{
			"project_id": project.ID,
		})
		writeJSON(w, http.StatusOK, project)
	case http.MethodDelete:
		if err := a.svc.DeleteProject(r.Context(), identity, id); err != nil {
			handleServiceError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "project.deleted", map[string]any{
			"project_id": id,
		})
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) projectInfo(w http.ResponseWriter, r *http.Request, id int64) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}
	project, err := a.svc.Project(r.Context(), identity, id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (a *API) projectFull(w http.ResponseWriter, r *http.Request, id int64) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}
	detail, err := a.svc.ProjectDetail(r.Context(), identity, id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (a *API) projectParticipants(w http.ResponseWriter, r *http.Request, id int64) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}
	var req addParticipantRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.svc.AddParticipant(r.Context(), identity, id, req.UserID); err != nil {
		handleServiceError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "project.participant.added", map[string]any{
		"project_id":     id,
		"participant_id": req.UserID,
	})
	w.WriteHeader(http.StatusNoContent)
}
