package httpapi

import (
	"net/http"
)

type breachCheckRequest struct {
	Password string `json:"password"`
}

// handleBreachCheck screens a candidate password against the breach
// corpus. The password is used for one in-memory digest and discarded;
// it is never logged, persisted or echoed.
func (a *API) handleBreachCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req breachCheckRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Password == "" {
		writeError(w, r, http.StatusBadRequest, "password is required")
		return
	}

	result := a.breach.Check(r.Context(), req.Password)
	writeJSON(w, http.StatusOK, result)
}
