package httpapi

import (
	"net/http"

	"github.com/Blekysha/project-x-backend/internal/tracker"
)

type adminDashboardResponse struct {
	Items []tracker.UserDashboard `json:"items"`
}

func (a *API) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}
	dash, err := a.svc.Dashboard(r.Context(), identity)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

func (a *API) handleAdminDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}
	items, err := a.svc.AdminDashboard(r.Context(), identity)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, adminDashboardResponse{Items: items})
}
