// Package httpapi is the HTTP boundary of the auth service. Handlers
// translate between the wire shapes and the auth/breach/reports
// packages; no business rule lives here.
package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/Digital-master-solutions/sen-alerte-sub001/internal/audit"
	"github.com/Digital-master-solutions/sen-alerte-sub001/internal/auth"
	"github.com/Digital-master-solutions/sen-alerte-sub001/internal/breach"
	"github.com/Digital-master-solutions/sen-alerte-sub001/internal/obs"
	"github.com/Digital-master-solutions/sen-alerte-sub001/internal/reports"
)

// ReadyProbe checks readiness (DB ping when a DB is configured).
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	auth       *auth.Service
	breach     *breach.Checker
	reports    reports.Store
	audit      *audit.Logger
	readyProbe ReadyProbe
	version    string

	corsOrigins []string
}

// Option configures the API.
type Option func(*API)

// WithCORSOrigins sets the allowed CORS origins. Default is "*": the
// boundary is called from browsers on origins we do not control.
func WithCORSOrigins(origins []string) Option {
	return func(a *API) {
		if len(origins) > 0 {
			a.corsOrigins = origins
		}
	}
}

// New wires the routes.
func New(authSvc *auth.Service, checker *breach.Checker, reportStore reports.Store, auditLog *audit.Logger, rp ReadyProbe, version string, opts ...Option) *API {
	a := &API{
		mux:         http.NewServeMux(),
		auth:        authSvc,
		breach:      checker,
		reports:     reportStore,
		audit:       auditLog,
		readyProbe:  rp,
		version:     version,
		corsOrigins: []string{"*"},
	}
	for _, opt := range opts {
		opt(a)
	}

	a.mux.HandleFunc("/auth/login", a.handleLogin)
	a.mux.HandleFunc("/auth/validate", a.handleValidate)
	a.mux.HandleFunc("/auth/revoke", a.handleRevoke)
	a.mux.HandleFunc("/check-password-breach", a.handleBreachCheck)
	a.mux.HandleFunc("/v1/reports/", a.handleReportScoped)

	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the fully wrapped http.Handler. CORS sits outside the
// business handlers so preflight is answered before any of them run.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = RateLimit(h, 20, 10)
	h = MaxBodyBytes(h, 1<<20)
	h = CORS(h, a.corsOrigins)
	h = SecurityHeaders(h)
	h = obs.Instrument(h)
	h = Logging(h)
	h = RequestID(h)
	return h
}

// --- service endpoints ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "sen-alerte-auth",
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
		"name":    "sen-alerte-auth",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}
