// Package handler is the HTTP layer: it parses requests, composes the
// guard policies in the per-endpoint order, calls the service, and shapes
// responses (JSON entities, raw text with cache headers, or errors).
package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tressa/tressa/internal/apperror"
	"github.com/tressa/tressa/internal/auth"
	"github.com/tressa/tressa/internal/guard"
	"github.com/tressa/tressa/internal/model"
	"github.com/tressa/tressa/internal/service"
)

// TressHandler serves the /api/tress endpoints.
//
// The RateLimiter is injected (not package state): it is per-process
// shared mutable state, and owning it explicitly lets each test build a
// fresh instance so no budget leaks between test cases.
type TressHandler struct {
	tresses *service.TressService
	users   *service.AuthService
	limiter *guard.RateLimiter
	logger  *slog.Logger
}

// NewTressHandler creates a TressHandler.
func NewTressHandler(
	tresses *service.TressService,
	users *service.AuthService,
	limiter *guard.RateLimiter,
	logger *slog.Logger,
) *TressHandler {
	return &TressHandler{
		tresses: tresses,
		users:   users,
		limiter: limiter,
		logger:  logger,
	}
}

// tressRequest is the JSON body for create and update. isPublic and
// expiresInDays are pointers: absent means "use the default" (create) or
// "leave unchanged" (update), which the zero value can't express.
type tressRequest struct {
	Title         string `json:"title"`
	Content       string `json:"content"`
	Language      string `json:"language"`
	IsPublic      *bool  `json:"isPublic"`
	ExpiresInDays *int   `json:"expiresInDays"`
}

// HandleCreate creates a tress.
//
// HTTP: POST /api/tress/ — auth optional.
// Order: rate-limit (public_read class for anonymous callers, default for
// authenticated ones) → decode → service (size/sanitize/language/expiry).
func (h *TressHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	owner := h.currentUser(r)

	class := guard.ClassDefault
	if owner == nil {
		class = guard.ClassPublicRead
	}
	if err := h.rateLimit(r, class); err != nil {
		writeError(w, err)
		return
	}

	var req tressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	tress, err := h.tresses.Create(r.Context(), service.CreateInput{
		Title:         req.Title,
		Content:       req.Content,
		Language:      req.Language,
		IsPublic:      req.IsPublic,
		ExpiresInDays: req.ExpiresInDays,
	}, owner)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, tress)
}

// HandleUpdate updates a tress the caller owns.
//
// HTTP: PUT /api/tress/{id} — auth required (RequireAuth middleware).
func (h *TressHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	if err := h.rateLimit(r, guard.ClassDefault); err != nil {
		writeError(w, err)
		return
	}

	userID, _ := auth.UserIDFromContext(r.Context())

	var req tressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	tress, err := h.tresses.Update(r.Context(), chi.URLParam(r, "id"), service.UpdateInput{
		Title:         req.Title,
		Content:       req.Content,
		Language:      req.Language,
		IsPublic:      req.IsPublic,
		ExpiresInDays: req.ExpiresInDays,
	}, userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tress)
}

// HandleList lists public tresses with skip/limit pagination.
//
// HTTP: GET /api/tress/ — auth optional; anonymous callers draw from the
// public_read budget, authenticated ones are not limited here.
func (h *TressHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.UserIDFromContext(r.Context()); !ok {
		if err := h.rateLimit(r, guard.ClassPublicRead); err != nil {
			writeError(w, err)
			return
		}
	}

	skip := queryInt(r, "skip", 0)
	limit := queryInt(r, "limit", service.DefaultListLimit)

	tresses, err := h.tresses.ListPublic(r.Context(), skip, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tresses)
}

// HandleListMine lists the caller's own tresses.
//
// HTTP: GET /api/tress/my — auth required.
func (h *TressHandler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	skip := queryInt(r, "skip", 0)
	limit := queryInt(r, "limit", service.DefaultListLimit)

	tresses, err := h.tresses.ListOwned(r.Context(), userID, skip, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tresses)
}

// HandlePagePublic returns a page of public tress previews.
//
// HTTP: GET /api/tress/public/pages?page=1&pageSize=20 — auth optional.
func (h *TressHandler) HandlePagePublic(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.UserIDFromContext(r.Context()); !ok {
		if err := h.rateLimit(r, guard.ClassPublicRead); err != nil {
			writeError(w, err)
			return
		}
	}

	pageNum, pageSize, err := pagingParams(r)
	if err != nil {
		writeError(w, err)
		return
	}

	page, err := h.tresses.PagePublic(r.Context(), pageNum, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// HandlePageMine returns a page of the caller's own tress previews.
//
// HTTP: GET /api/tress/my/pages — auth required.
func (h *TressHandler) HandlePageMine(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	pageNum, pageSize, err := pagingParams(r)
	if err != nil {
		writeError(w, err)
		return
	}

	page, err := h.tresses.PageOwned(r.Context(), userID, pageNum, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// HandleGetByID returns the full tress entity as JSON.
//
// HTTP: GET /api/tress/{id} — auth optional. 404 for absent or expired,
// 403 for a private tress the caller doesn't own.
func (h *TressHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	userID, authenticated := auth.UserIDFromContext(r.Context())
	if !authenticated {
		if err := h.rateLimit(r, guard.ClassPublicRead); err != nil {
			writeError(w, err)
			return
		}
	}

	tress, err := h.tresses.GetByID(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tress)
}

// HandleGetRaw serves the tress content as raw text with conditional
// caching.
//
// HTTP: GET /api/tress/{id}/raw — auth optional.
// Order: rate-limit (raw_content, anonymous only) → fetch/visibility →
// fingerprint → If-None-Match short-circuit (304, no body, no content-type
// or security headers) → content-type inference → security headers → body.
func (h *TressHandler) HandleGetRaw(w http.ResponseWriter, r *http.Request) {
	userID, authenticated := auth.UserIDFromContext(r.Context())
	if !authenticated {
		if err := h.rateLimit(r, guard.ClassRawContent); err != nil {
			writeError(w, err)
			return
		}
	}

	tress, err := h.tresses.GetByID(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	tag := guard.Fingerprint(tress.Content)
	etag := `"` + tag + `"`

	// Public content is cacheable by shared caches for an hour; private
	// content only briefly and only by the owner's client.
	cacheControl := "public, max-age=3600"
	if !tress.IsPublic {
		cacheControl = "private, max-age=300"
	}

	if guard.FingerprintMatches(r.Header.Get("If-None-Match"), tag) {
		w.Header().Set("ETag", etag)
		w.Header().Set("Cache-Control", cacheControl)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	contentType := guard.ContentTypeFor(tress.Language)
	w.Header().Set("Content-Type", contentType+"; charset=utf-8")
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", cacheControl)
	setSecurityHeaders(w, contentType)

	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(tress.Content)); err != nil {
		h.logger.Error("failed to write raw tress body",
			slog.String("id", tress.ID),
			slog.String("error", err.Error()),
		)
	}
}

// HandleDelete deletes a tress the caller owns. Expired-but-unswept
// tresses are still deletable.
//
// HTTP: DELETE /api/tress/{id} — auth required.
func (h *TressHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.rateLimit(r, guard.ClassDefault); err != nil {
		writeError(w, err)
		return
	}

	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.tresses.Delete(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Tress deleted successfully"})
}

// rateLimit admits or rejects the request against the client's budget for
// the class. On rejection the returned error carries the remaining quota
// and the window-reset instant for the 429 headers.
func (h *TressHandler) rateLimit(r *http.Request, class guard.EndpointClass) error {
	client := guard.ClientIP(r)
	if h.limiter.Allow(client, class) {
		return nil
	}
	return apperror.RateLimited(
		h.limiter.Remaining(client, class),
		h.limiter.Reset(client, class),
	)
}

// currentUser resolves the full user record for optionally-authenticated
// endpoints. A valid token whose user row has since vanished degrades to
// anonymous rather than failing the request.
func (h *TressHandler) currentUser(r *http.Request) *model.User {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return nil
	}
	user, err := h.users.GetUserByID(r.Context(), userID)
	if err != nil {
		h.logger.Warn("token user not found, treating as anonymous",
			slog.String("userID", userID),
		)
		return nil
	}
	return user
}

// setSecurityHeaders attaches the standard security headers to a raw
// response. Text content additionally gets a restrictive CSP so a browser
// that ignores the content type still won't execute anything.
func setSecurityHeaders(w http.ResponseWriter, contentType string) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("X-XSS-Protection", "1; mode=block")
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
	if strings.HasPrefix(contentType, "text/") {
		w.Header().Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'")
	}
}

// queryInt parses an integer query parameter for the clamping skip/limit
// endpoints, returning def when absent or malformed. Range checks belong
// to the service.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// pagingParams parses page/pageSize for the paged endpoints. Unlike the
// clamping skip/limit endpoints, a malformed value here is a validation
// error, the same as an out-of-range one.
func pagingParams(r *http.Request) (page, pageSize int, err error) {
	if page, err = strictQueryInt(r, "page", 1); err != nil {
		return 0, 0, err
	}
	if pageSize, err = strictQueryInt(r, "pageSize", 20); err != nil {
		return 0, 0, err
	}
	return page, pageSize, nil
}

func strictQueryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.ValidationFailed(name, fmt.Sprintf("%s must be an integer", name))
	}
	return n, nil
}
