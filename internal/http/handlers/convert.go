package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"converthub/internal/dispatch"
	"converthub/internal/domain"
	"converthub/internal/middleware"
)

type convertParams struct {
	SourceType   string `validate:"omitempty,oneof=audio video image document"`
	TargetFormat string `validate:"required,alphanum,lowercase,max=8"`
}

type convertResponse struct {
	JobID   string `json:"jobId"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Convert accepts a multipart upload and schedules the conversion. The
// response carries only the job id; progress and the outcome arrive over the
// progress feed and the stored record.
func (a *App) Convert(w http.ResponseWriter, r *http.Request) {
	requester := middleware.RequesterFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, a.MaxUploadMB<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "too large") {
			a.error(w, http.StatusRequestEntityTooLarge, "file_too_large", "uploaded file exceeds maximum allowed size")
			return
		}
		a.error(w, http.StatusBadRequest, "bad_request", "invalid multipart payload: "+err.Error())
		return
	}

	file, fh, err := r.FormFile("file")
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", `missing file: form field key should be "file"`)
		return
	}
	defer file.Close()

	params := convertParams{
		SourceType:   strings.ToLower(r.FormValue("sourceType")),
		TargetFormat: strings.ToLower(r.FormValue("targetFormat")),
	}
	if err := a.validate.Struct(params); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid conversion parameters")
		return
	}

	// sniff the real content type; declared extensions lie often enough that
	// the detected type is worth a log line next to the job id later
	detected, err := mimetype.DetectReader(file)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to inspect upload")
		return
	}
	if _, err := file.Seek(0, 0); err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to rewind upload")
		return
	}

	jobID, err := a.Dispatcher.Submit(r.Context(), requester, dispatch.Upload{
		FileName:       fh.Filename,
		File:           file,
		SourceCategory: domain.Category(params.SourceType),
		TargetFormat:   params.TargetFormat,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, domain.ErrUnsupportedFormat):
			a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		default:
			a.Logger.Error().Err(err).Msg("submit conversion")
			a.error(w, http.StatusInternalServerError, "internal", "failed to start conversion")
		}
		return
	}

	a.Logger.Debug().
		Str("job_id", jobID).
		Str("detected_mime", detected.String()).
		Str("file", fh.Filename).
		Msg("upload accepted")

	a.json(w, http.StatusAccepted, convertResponse{
		JobID:   jobID,
		Status:  string(domain.StatusPending),
		Message: "conversion started",
	})
}
