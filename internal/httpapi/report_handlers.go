package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Digital-master-solutions/sen-alerte-sub001/internal/auth"
	"github.com/Digital-master-solutions/sen-alerte-sub001/internal/obs"
	"github.com/Digital-master-solutions/sen-alerte-sub001/internal/reports"
)

type reportPayload struct {
	ID                     string `json:"id"`
	Description            string `json:"description"`
	Status                 string `json:"status"`
	AssignedOrganizationID string `json:"assigned_organization_id,omitempty"`
	CreatedAt              string `json:"created_at"`
}

func (a *API) handleReportScoped(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/reports/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "claim" {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}
	a.handleReportClaim(w, r, parts[0])
}

// handleReportClaim assigns a report to the calling organization. The
// auth layer only vouches that the caller was a live, approved
// organization at call time; the conditional update in the report store
// is what serializes concurrent claims.
func (a *API) handleReportClaim(w http.ResponseWriter, r *http.Request, reportID string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	identity, ok := a.authenticate(w, r)
	if !ok {
		return
	}
	if identity.Role != auth.RoleOrganization {
		writeError(w, r, http.StatusForbidden, "only organizations can claim reports")
		return
	}

	ctx := auth.ContextWithIdentity(r.Context(), identity)
	report, err := a.reports.Claim(ctx, reportID, identity.ID)
	if err != nil {
		switch {
		case errors.Is(err, reports.ErrAlreadyClaimed):
			writeError(w, r, http.StatusConflict, "report already claimed")
		case errors.Is(err, reports.ErrNotFound):
			writeError(w, r, http.StatusNotFound, "report not found")
		default:
			writeError(w, r, http.StatusInternalServerError, "claim failed")
		}
		return
	}

	a.audit.Event(ctx, "report.claim", map[string]string{
		"report_id": report.ID,
	})

	writeJSON(w, http.StatusOK, reportPayload{
		ID:                     report.ID,
		Description:            report.Description,
		Status:                 report.Status,
		AssignedOrganizationID: report.AssignedOrganizationID,
		CreatedAt:              report.CreatedAt.UTC().Format(time.RFC3339),
	})
}

// authenticate validates the bearer token and returns the live identity.
// On failure it writes the 401 itself and reports ok=false. Every
// successful validation, on this path as on /auth/validate, leaves a
// jwt_validation security event.
func (a *API) authenticate(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	token, err := extractBearerToken(r.Header.Get("Authorization"))
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, err.Error())
		return auth.Identity{}, false
	}
	result, err := a.auth.Validate(r.Context(), token)
	if err != nil {
		a.handleValidateError(w, r, err)
		return auth.Identity{}, false
	}

	obs.ObserveValidation("valid")
	ctx := auth.ContextWithIdentity(r.Context(), result.Identity)
	a.audit.Event(ctx, "jwt_validation", map[string]string{
		"expires_at": result.ExpiresAt.UTC().Format(time.RFC3339),
	})
	return result.Identity, true
}
