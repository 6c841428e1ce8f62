package dispatch

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"converthub/internal/convert"
	"converthub/internal/domain"
	"converthub/internal/hub"
	"converthub/internal/storage"
)

// Upload carries the submitted file and its declared conversion parameters.
type Upload struct {
	FileName       string
	File           io.Reader
	SourceCategory domain.Category // declared by the client; may be empty
	TargetFormat   string
}

// Dispatcher validates conversion requests, allocates job identity, persists
// the lifecycle record and drives the conversion asynchronously. Once Submit
// returns a job id, no failure ever reaches the submitter directly; it is
// observable only through the progress hub and the stored record.
type Dispatcher struct {
	repo     domain.ConversionRepository
	registry *convert.Registry
	hub      *hub.Hub
	files    *storage.FileStore
	logger   zerolog.Logger
	timeout  time.Duration
	slots    chan struct{}
}

// New creates a dispatcher. Workers bounds how many conversions run at once.
func New(repo domain.ConversionRepository, registry *convert.Registry, h *hub.Hub, files *storage.FileStore, logger zerolog.Logger, workers int, timeout time.Duration) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	return &Dispatcher{
		repo:     repo,
		registry: registry,
		hub:      h,
		files:    files,
		logger:   logger,
		timeout:  timeout,
		slots:    make(chan struct{}, workers),
	}
}

// Submit validates the request, persists a pending record and schedules the
// conversion. It returns as soon as the job id exists; the conversion itself
// runs on its own goroutine.
func (d *Dispatcher) Submit(ctx context.Context, requester domain.Requester, up Upload) (string, error) {
	if !requester.Valid() {
		return "", fmt.Errorf("%w: no requester identity", domain.ErrInvalidRequest)
	}
	if up.File == nil || up.FileName == "" {
		return "", fmt.Errorf("%w: no file uploaded", domain.ErrInvalidRequest)
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(up.FileName), "."))
	target := strings.ToLower(up.TargetFormat)

	category, ok := domain.CategoryOf(ext)
	if !ok {
		return "", fmt.Errorf("%w: source %q", domain.ErrUnsupportedFormat, ext)
	}
	if up.SourceCategory != "" && up.SourceCategory != category {
		return "", fmt.Errorf("%w: declared category %q does not match %q source", domain.ErrInvalidRequest, up.SourceCategory, ext)
	}
	if !domain.TargetAllowed(ext, target) {
		return "", fmt.Errorf("%w: %s -> %s", domain.ErrUnsupportedFormat, ext, target)
	}

	converter, ok := d.registry.ForCategory(category)
	if !ok {
		return "", fmt.Errorf("%w: no converter for category %s", domain.ErrUnsupportedFormat, category)
	}

	jobID := newJobID(time.Now())

	inputPath, size, err := d.files.SaveUpload(jobID, up.FileName, up.File)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}

	outputPath := d.files.OutputPath(jobID, up.FileName, target)

	record := &domain.Conversion{
		ID:             jobID,
		UserID:         requester.UserID,
		GuestID:        requester.GuestID,
		SourceCategory: category,
		SourceFormat:   ext,
		TargetFormat:   target,
		FileName:       filepath.Base(up.FileName),
		FileSize:       size,
		Status:         domain.StatusPending,
		OutputKey:      outputPath,
		CreatedAt:      time.Now().UTC(),
	}
	if err := d.repo.Create(ctx, record); err != nil {
		return "", fmt.Errorf("create record: %w", err)
	}

	d.logger.Info().
		Str("job_id", jobID).
		Str("category", string(category)).
		Str("source", ext).
		Str("target", target).
		Int64("size", size).
		Msg("conversion accepted")

	go d.run(jobID, converter, inputPath, outputPath, target)

	return jobID, nil
}

// run executes one conversion to its terminal state. It owns the job's status
// transition and terminal event; nothing here returns to the submitter.
func (d *Dispatcher) run(jobID string, converter convert.Converter, inputPath, outputPath, target string) {
	d.slots <- struct{}{}
	defer func() { <-d.slots }()

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	err := converter.Convert(ctx, inputPath, outputPath, target, func(percentage int, detail string) {
		d.hub.Publish(hub.Event{
			JobID:      jobID,
			Percentage: clamp(percentage),
			Detail:     detail,
			Status:     hub.StatusProcessing,
		})
	})

	// the conversion context may already be expired; the terminal transition
	// must still land
	finCtx, finCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer finCancel()

	now := time.Now().UTC()
	if err != nil {
		d.logger.Error().Err(err).Str("job_id", jobID).Msg("conversion failed")
		sentry.CaptureException(fmt.Errorf("conversion %s: %w", jobID, err))
		if terr := d.repo.Transition(finCtx, jobID, domain.StatusFailed, err.Error(), now); terr != nil {
			d.logger.Error().Err(terr).Str("job_id", jobID).Msg("failed-status transition rejected")
		}
		d.hub.Publish(hub.Event{
			JobID:  jobID,
			Status: hub.StatusError,
			Error:  err.Error(),
		})
		return
	}

	if terr := d.repo.Transition(finCtx, jobID, domain.StatusCompleted, "", now); terr != nil {
		d.logger.Error().Err(terr).Str("job_id", jobID).Msg("completed-status transition rejected")
	}
	d.hub.Publish(hub.Event{
		JobID:      jobID,
		Percentage: 100,
		Detail:     "conversion complete",
		Status:     hub.StatusCompleted,
	})
	d.logger.Info().Str("job_id", jobID).Msg("conversion completed")
}

// newJobID builds a time-derived identifier with a random disambiguator so
// that bursty concurrent submissions cannot collide.
func newJobID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return strconv.FormatInt(now.UnixMilli(), 10) + "-" + suffix
}

func clamp(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
