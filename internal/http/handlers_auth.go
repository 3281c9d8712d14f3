package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/attesta/certmailer/internal/core"
	"github.com/attesta/certmailer/internal/service"
)

const stateCookieName = "oauth_state"

// AuthHandlers provides HTTP handlers for the consent flow and auth status.
type AuthHandlers struct {
	Credentials *service.CredentialService
	Queue       core.JobQueue
	Logger      *slog.Logger
}

// Status reports whether a usable mailing credential is stored, for which
// identity, and how many jobs are waiting.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	authenticated, identity, err := h.Credentials.Status(r.Context())
	if err != nil {
		WriteAppError(w, err)
		return
	}

	pending, err := h.Queue.PendingCount(r.Context())
	if err != nil {
		h.Logger.WarnContext(r.Context(), "failed to count pending jobs",
			slog.String("error", err.Error()),
		)
		pending = 0
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"is_authenticated": authenticated,
		"email":            identity,
		"pending_jobs":     pending,
	})
}

// Begin redirects the browser to the provider consent page. The state is
// pinned in a short-lived cookie and checked on callback.
func (h *AuthHandlers) Begin(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.Credentials.BeginAuthorization(state), http.StatusFound)
}

// Callback completes the consent flow with the code the provider sent back.
func (h *AuthHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	if errMsg := r.URL.Query().Get("error"); errMsg != "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "consent_denied",
			Err:     errors.New(errMsg),
		})
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_code",
			Err:     errors.New("authorization code is required"),
		})
		return
	}

	if !h.stateMatches(r) {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "state_mismatch",
			Err:     errors.New("oauth state did not match"),
		})
		return
	}

	rec, err := h.Credentials.CompleteAuthorization(r.Context(), code)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	// expire the state cookie
	http.SetCookie(w, &http.Cookie{Name: stateCookieName, Value: "", Path: "/", MaxAge: -1})

	WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"email":   rec.MailingIdentity,
	})
}

func (h *AuthHandlers) stateMatches(r *http.Request) bool {
	cookie, err := r.Cookie(stateCookieName)
	if err != nil {
		return false
	}
	return cookie.Value != "" && cookie.Value == r.URL.Query().Get("state")
}
