package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"converthub/internal/dispatch"
	"converthub/internal/domain"
	"converthub/internal/hub"
	"converthub/internal/storage"
)

// Submitter accepts conversion requests. Implemented by dispatch.Dispatcher;
// narrowed to an interface so handler tests can fake it.
type Submitter interface {
	Submit(ctx context.Context, requester domain.Requester, up dispatch.Upload) (string, error)
}

// App bundles the dependencies the HTTP handlers need.
type App struct {
	Dispatcher Submitter
	Repo       domain.ConversionRepository
	Hub        *hub.Hub
	Files      *storage.FileStore
	Logger     zerolog.Logger

	MaxUploadMB           int64
	ProgressBufferPerConn int

	validate *validator.Validate
}

// NewApp creates the handler container.
func NewApp(dispatcher Submitter, repo domain.ConversionRepository, h *hub.Hub, files *storage.FileStore, logger zerolog.Logger, maxUploadMB int64, progressBuffer int) *App {
	return &App{
		Dispatcher:            dispatcher,
		Repo:                  repo,
		Hub:                   h,
		Files:                 files,
		Logger:                logger,
		MaxUploadMB:           maxUploadMB,
		ProgressBufferPerConn: progressBuffer,
		validate:              validator.New(),
	}
}

func (a *App) json(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		a.Logger.Error().Err(err).Msg("encode response")
	}
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]string{"error": code, "message": message})
}

// Health reports service liveness.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}
