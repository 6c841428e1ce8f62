package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"converthub/internal/domain"
	"converthub/internal/middleware"
)

const recentConversionsLimit = 5

// GetConversion returns one conversion record, enforcing ownership.
func (a *App) GetConversion(w http.ResponseWriter, r *http.Request) {
	conv, ok := a.loadOwnedConversion(w, r)
	if !ok {
		return
	}
	a.json(w, http.StatusOK, conv)
}

// Download streams the converted artifact, enforcing ownership.
func (a *App) Download(w http.ResponseWriter, r *http.Request) {
	conv, ok := a.loadOwnedConversion(w, r)
	if !ok {
		return
	}
	if conv.Status != domain.StatusCompleted {
		a.error(w, http.StatusConflict, "not_ready", fmt.Sprintf("conversion is %s", conv.Status))
		return
	}

	f, info, err := a.Files.Open(conv.OutputKey)
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "converted file no longer available")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", domain.ContentTypeOf(conv.TargetFormat))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", downloadName(conv)))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", info.Size()))
	_, _ = io.Copy(w, f)
}

// RecentConversions lists the requester's newest conversions, capped at 5.
func (a *App) RecentConversions(w http.ResponseWriter, r *http.Request) {
	requester := middleware.RequesterFromContext(r.Context())

	items, err := a.Repo.ListByRequester(r.Context(), requester, recentConversionsLimit)
	if err != nil {
		a.Logger.Error().Err(err).Msg("list recent conversions")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load conversions")
		return
	}
	if items == nil {
		items = []domain.Conversion{}
	}
	a.json(w, http.StatusOK, items)
}

// Stats returns the requester's total and per-category conversion counts.
func (a *App) Stats(w http.ResponseWriter, r *http.Request) {
	requester := middleware.RequesterFromContext(r.Context())

	stats, err := a.Repo.CountsByRequester(r.Context(), requester)
	if err != nil {
		a.Logger.Error().Err(err).Msg("aggregate stats")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load stats")
		return
	}
	a.json(w, http.StatusOK, stats)
}

// loadOwnedConversion fetches the record from the path id and verifies the
// requester owns it, writing the error response itself when not.
func (a *App) loadOwnedConversion(w http.ResponseWriter, r *http.Request) (*domain.Conversion, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "conversion id required")
		return nil, false
	}

	conv, err := a.Repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "conversion not found")
		} else {
			a.Logger.Error().Err(err).Str("job_id", id).Msg("load conversion")
			a.error(w, http.StatusInternalServerError, "internal", "failed to load conversion")
		}
		return nil, false
	}

	requester := middleware.RequesterFromContext(r.Context())
	if !conv.CanAccess(requester) {
		a.error(w, http.StatusForbidden, "access_denied", "access denied")
		return nil, false
	}
	return conv, true
}

func downloadName(c *domain.Conversion) string {
	base := c.FileName
	if ext := len(base) - len(c.SourceFormat) - 1; ext > 0 && base[ext] == '.' {
		base = base[:ext]
	}
	return base + "." + c.TargetFormat
}
