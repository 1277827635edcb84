package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/Blekysha/project-x-backend/internal/auth"
	"github.com/Blekysha/project-x-backend/internal/obs"
	"github.com/Blekysha/project-x-backend/internal/tracker"
)

// Defaults for the per-IP limiter; generous enough for UI polling.
const (
	defaultRateBurst  = 60
	defaultRatePerSec = 30
)

// ReadyProbe — простая проверка готовности (ping БД).
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API — HTTP слой.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string
	svc        *tracker.Service
	codec      *auth.Codec

	rateBurst  int
	ratePerSec int
}

func New(svc *tracker.Service, codec *auth.Codec, rp ReadyProbe, version string) *API {
	a := &API{
		mux:        http.NewServeMux(),
		readyProbe: rp,
		version:    version,
		svc:        svc,
		codec:      codec,
		rateBurst:  defaultRateBurst,
		ratePerSec: defaultRatePerSec,
	}

	// users
	a.mux.HandleFunc("/users/register", a.handleRegister)
	a.mux.HandleFunc("/users/login", a.handleLogin)
	a.mux.HandleFunc("/users", a.handleUsersCollection)
	a.mux.HandleFunc("/users/", a.handleUserResource)

	// projects
	a.mux.HandleFunc("/projects", a.handleProjectsCollection)
	a.mux.HandleFunc("/projects/", a.handleProjectResource)

	// tasks
	a.mux.HandleFunc("/tasks", a.handleTasksCollection)
	a.mux.HandleFunc("/tasks/", a.handleTaskResource)

	// dashboards
	a.mux.HandleFunc("/dashboard", a.handleDashboard)
	a.mux.HandleFunc("/dashboard/users", a.handleAdminDashboard)

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// корень — 404
	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// SetRateLimit overrides the limiter defaults (used by ops config).
func (a *API) SetRateLimit(burst, perSecond int) {
	if burst > 0 {
		a.rateBurst = burst
	}
	if perSecond > 0 {
		a.ratePerSec = perSecond
	}
}

// Handler returns the full middleware chain around the route table.
func (a *API) Handler() http.Handler {
	h := a.withAuth(a.mux)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = MaxBodyBytes(h, 1<<20)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "project-x-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "project-x-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}
