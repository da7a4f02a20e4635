package http

import (
	"net/http"
	"strings"

	"github.com/dmitrijs2005/timereport/internal/common"
)

type requestOtpRequest struct {
	Email string `json:"email" validate:"email"`
}

type verifyOtpRequest struct {
	Email string `json:"email" validate:"email"`
	Code  string `json:"code" validate:"len=6,number"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type updateMeRequest struct {
	Name *string `json:"name" validate:"omitempty,min=1,max=100"`
}

// RequestOtp sends a login code. Requests are throttled per email.
func (h *Handler) RequestOtp(w http.ResponseWriter, r *http.Request) {
	var req requestOtpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := validateStruct(&req); err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.limiter.Allow(r.Context(), common.NormalizeEmail(req.Email)); err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.auth.RequestOtp(r.Context(), req.Email); err != nil {
		h.fail(w, r, err)
		return
	}
	writeMessage(w, "code sent")
}

// VerifyOtp logs in with a code and sets both token cookies.
func (h *Handler) VerifyOtp(w http.ResponseWriter, r *http.Request) {
	var req verifyOtpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := validateStruct(&req); err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := h.auth.VerifyOtp(r.Context(), req.Email, req.Code)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.setAuthCookies(w, &res.TokenPair)
	writeData(w, http.StatusOK, map[string]any{"user": res.Identity})
}

// refreshToken reads the refresh token from its cookie, falling back to a
// JSON body for clients without a cookie jar.
func refreshToken(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(common.RefreshTokenCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if r.ContentLength == 0 {
		return ""
	}
	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return ""
	}
	return req.RefreshToken
}

// Refresh rotates the session. Any failure clears the cookies.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	token := refreshToken(w, r)
	if token == "" {
		h.clearAuthCookies(w)
		writeError(w, http.StatusUnauthorized, "refresh token missing")
		return
	}

	pair, err := h.auth.RefreshAccessToken(r.Context(), token)
	if err != nil {
		h.clearAuthCookies(w)
		h.fail(w, r, err)
		return
	}

	h.setAuthCookies(w, pair)
	writeJSON(w, http.StatusOK, envelope{Success: true})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := refreshToken(w, r); token != "" {
		if err := h.auth.Logout(r.Context(), token); err != nil {
			h.fail(w, r, err)
			return
		}
	}
	h.clearAuthCookies(w)
	writeMessage(w, "logged out")
}

func (h *Handler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())
	n, err := h.auth.LogoutAll(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.clearAuthCookies(w)
	writeData(w, http.StatusOK, map[string]int64{"revoked": n})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromContext(r.Context())
	identity, err := h.auth.GetIdentity(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, identity)
}

// UpdateMe sets the display name; null or an absent name clears it.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req updateMeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := validateStruct(&req); err != nil {
		h.fail(w, r, err)
		return
	}

	id, _ := IdentityFromContext(r.Context())
	identity, err := h.auth.UpdateName(r.Context(), id, req.Name)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, identity)
}
