package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Digital-master-solutions/sen-alerte-sub001/internal/auth"
	"github.com/Digital-master-solutions/sen-alerte-sub001/internal/obs"
)

type loginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	UserType string `json:"userType"`
}

type userPayload struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Type      string `json:"type"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

type loginResponse struct {
	Success      bool        `json:"success"`
	User         userPayload `json:"user"`
	Token        string      `json:"token"`
	RefreshToken string      `json:"refreshToken"`
	SessionToken string      `json:"sessionToken"`
	ExpiresIn    int         `json:"expiresIn"`
}

type tokenInfoPayload struct {
	IssuedAt      string `json:"issuedAt"`
	ExpiresAt     string `json:"expiresAt"`
	TimeRemaining int64  `json:"timeRemaining"`
}

type validateResponse struct {
	Success   bool             `json:"success"`
	Valid     bool             `json:"valid"`
	User      userPayload      `json:"user"`
	TokenInfo tokenInfoPayload `json:"tokenInfo"`
}

type revokeRequest struct {
	SessionToken string `json:"sessionToken"`
}

func toUserPayload(id auth.Identity) userPayload {
	return userPayload{
		ID:        id.ID,
		Name:      id.Name,
		Email:     id.Email,
		Type:      string(id.Role),
		Status:    id.Status,
		CreatedAt: id.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	role, err := auth.ParseRole(req.UserType)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "userType must be admin or organization")
		return
	}
	identifier := req.Email
	if role == auth.RoleAdmin && req.Username != "" {
		identifier = req.Username
	}
	if strings.TrimSpace(identifier) == "" || req.Password == "" {
		writeError(w, r, http.StatusBadRequest, "credentials are required")
		return
	}

	result, err := a.auth.Login(r.Context(), auth.LoginInput{
		Identifier: identifier,
		Password:   req.Password,
		Role:       role,
		ClientIP:   clientIP(r),
		UserAgent:  r.UserAgent(),
	})
	if err != nil {
		a.handleLoginError(w, r, role, err)
		return
	}

	obs.ObserveLogin(string(role), "success")
	// Attribution comes from the freshly verified identity, never from
	// anything the client sent.
	ctx := auth.ContextWithIdentity(r.Context(), result.Identity)
	a.audit.Event(ctx, "auth.login", map[string]string{
		"session_id": result.SessionID,
		"client_ip":  clientIP(r),
	})

	writeJSON(w, http.StatusOK, loginResponse{
		Success:      true,
		User:         toUserPayload(result.Identity),
		Token:        result.AccessToken,
		RefreshToken: result.RefreshToken,
		SessionToken: result.SessionToken,
		ExpiresIn:    result.ExpiresIn,
	})
}

// handleLoginError flattens every authentication failure to one generic
// 401 body. The reason split (not found, wrong password, pending,
// disabled) stays in metrics and server-side logs where it cannot feed
// account enumeration.
func (a *API) handleLoginError(w http.ResponseWriter, r *http.Request, role auth.Role, err error) {
	switch {
	case errors.Is(err, auth.ErrNotFound):
		obs.ObserveLogin(string(role), "not_found")
	case errors.Is(err, auth.ErrInvalidCredentials):
		obs.ObserveLogin(string(role), "bad_password")
	case errors.Is(err, auth.ErrPendingApproval):
		obs.ObserveLogin(string(role), "pending")
	case errors.Is(err, auth.ErrInactive):
		obs.ObserveLogin(string(role), "inactive")
	default:
		obs.ObserveLogin(string(role), "error")
		obs.Warn("login failed", map[string]any{
			"role":       string(role),
			"error":      err.Error(),
			"request_id": RequestIDFromContext(r.Context()),
		})
		writeError(w, r, http.StatusInternalServerError, "authentication failed")
		return
	}
	writeError(w, r, http.StatusUnauthorized, "invalid credentials")
}

func (a *API) handleValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	token, err := extractBearerToken(r.Header.Get("Authorization"))
	if err != nil {
		writeValidationError(w, r, http.StatusUnauthorized, err.Error())
		obs.ObserveValidation("missing")
		return
	}

	result, err := a.auth.Validate(r.Context(), token)
	if err != nil {
		a.handleValidateError(w, r, err)
		return
	}

	obs.ObserveValidation("valid")
	ctx := auth.ContextWithIdentity(r.Context(), result.Identity)
	a.audit.Event(ctx, "jwt_validation", map[string]string{
		"expires_at": result.ExpiresAt.UTC().Format(time.RFC3339),
	})

	writeJSON(w, http.StatusOK, validateResponse{
		Success: true,
		Valid:   true,
		User:    toUserPayload(result.Identity),
		TokenInfo: tokenInfoPayload{
			IssuedAt:      result.IssuedAt.UTC().Format(time.RFC3339),
			ExpiresAt:     result.ExpiresAt.UTC().Format(time.RFC3339),
			TimeRemaining: int64(result.TimeRemaining / time.Second),
		},
	})
}

func (a *API) handleValidateError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		obs.ObserveValidation("expired")
		writeValidationError(w, r, http.StatusUnauthorized, "token expired")
	case errors.Is(err, auth.ErrInvalidToken):
		obs.ObserveValidation("invalid")
		writeValidationError(w, r, http.StatusUnauthorized, "invalid token")
	case errors.Is(err, auth.ErrNotFound), errors.Is(err, auth.ErrInactive), errors.Is(err, auth.ErrPendingApproval):
		obs.ObserveValidation("identity_rejected")
		writeValidationError(w, r, http.StatusUnauthorized, "identity not found or inactive")
	default:
		obs.ObserveValidation("error")
		writeValidationError(w, r, http.StatusInternalServerError, "validation failed")
	}
}

func writeValidationError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"success": false,
		"valid":   false,
		"error":   msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func (a *API) handleRevoke(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req revokeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.SessionToken) == "" {
		writeError(w, r, http.StatusBadRequest, "sessionToken is required")
		return
	}

	if err := a.auth.Revoke(r.Context(), req.SessionToken); err != nil {
		switch {
		case errors.Is(err, auth.ErrNotFound):
			writeError(w, r, http.StatusNotFound, "session not found")
		case errors.Is(err, auth.ErrInvalidToken):
			writeError(w, r, http.StatusUnauthorized, "invalid session token")
		default:
			writeError(w, r, http.StatusInternalServerError, "revocation failed")
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	const bearer = "Bearer "
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}
