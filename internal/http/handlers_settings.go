package http

import (
	"net/http"
	"strings"

	"expenses/internal/core"
	"expenses/internal/log"
)

type profileRequest struct {
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet, http.MethodPut) {
		return
	}

	if r.Method == http.MethodGet {
		writeJSON(w, http.StatusOK, s.svc.Profile(r.Context()))
		return
	}

	var req profileRequest
	if err := decodeJSON(w, r, &req, maxProfileBody); err != nil {
		s.badRequest(w, r, err)
		return
	}
	picture := strings.TrimSpace(req.Picture)
	if picture != "" && !strings.HasPrefix(picture, "data:image/") {
		writeValidation(w, core.ValidationErrors{"picture": "picture must be an image data URL"})
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	saved, err := s.svc.SaveProfile(ctx, core.UserProfile{
		Name:    sanitizeInput(req.Name),
		Picture: picture,
	})
	if err != nil {
		s.internalError(w, r, "Saving profile failed", err, log.OpUpdate)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

type themePayload struct {
	Theme core.Theme `json:"theme"`
}

// handleTheme reads or sets the colour theme. Unknown values become light.
func (s *Server) handleTheme(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet, http.MethodPut) {
		return
	}

	if r.Method == http.MethodGet {
		writeJSON(w, http.StatusOK, themePayload{Theme: s.svc.Theme(r.Context())})
		return
	}

	var req themePayload
	if err := decodeJSON(w, r, &req, maxJSONBody); err != nil {
		s.badRequest(w, r, err)
		return
	}
	theme := core.ParseTheme(string(req.Theme))

	ctx, cancel := s.requestContext(r)
	defer cancel()

	if err := s.svc.SaveTheme(ctx, theme); err != nil {
		s.internalError(w, r, "Saving theme failed", err, log.OpUpdate)
		return
	}
	writeJSON(w, http.StatusOK, themePayload{Theme: theme})
}
