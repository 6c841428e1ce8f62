package dispatch

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"converthub/internal/convert"
	"converthub/internal/domain"
	"converthub/internal/hub"
	"converthub/internal/storage"
)

type fakeRepo struct {
	mu      sync.Mutex
	records map[string]*domain.Conversion
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: make(map[string]*domain.Conversion)}
}

func (f *fakeRepo) Create(_ context.Context, c *domain.Conversion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *c
	f.records[c.ID] = &cp
	return nil
}

func (f *fakeRepo) Transition(_ context.Context, id string, status domain.Status, errMsg string, completedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return domain.ErrNotFound
	}
	if rec.Status != domain.StatusPending {
		return domain.ErrAlreadyTerminal
	}
	rec.Status = status
	rec.ErrorMessage = errMsg
	rec.CompletedAt = &completedAt
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*domain.Conversion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeRepo) ListByRequester(_ context.Context, _ domain.Requester, _ int) ([]domain.Conversion, error) {
	return nil, nil
}

func (f *fakeRepo) CountsByRequester(_ context.Context, _ domain.Requester) (domain.StatsSummary, error) {
	return domain.StatsSummary{}, nil
}

func (f *fakeRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

type fakeConverter struct {
	err   error
	steps []int
}

func (f *fakeConverter) Convert(_ context.Context, _, _, _ string, onProgress convert.ProgressFunc) error {
	for _, p := range f.steps {
		onProgress(p, "working")
	}
	return f.err
}

func testDispatcher(t *testing.T, conv convert.Converter) (*Dispatcher, *fakeRepo, *hub.Hub) {
	t.Helper()
	files, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	repo := newFakeRepo()
	h := hub.New(64)
	t.Cleanup(h.Close)
	registry := convert.NewRegistry(conv, conv, conv, conv)
	d := New(repo, registry, h, files, zerolog.Nop(), 2, time.Minute)
	return d, repo, h
}

func waitTerminal(t *testing.T, sub *hub.Subscriber, jobID string) hub.Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case e, ok := <-sub.Events():
			if !ok {
				t.Fatal("feed closed before terminal event")
			}
			if e.JobID == jobID && e.Terminal() {
				return e
			}
		case <-deadline:
			t.Fatal("timed out waiting for terminal event")
		}
	}
}

func TestSubmit_CompletesJob(t *testing.T) {
	d, repo, h := testDispatcher(t, &fakeConverter{steps: []int{10, 50, 90}})
	sub := h.Subscribe()
	defer sub.Close()

	id, err := d.Submit(context.Background(), domain.Requester{GuestID: "guest-123"},
		Upload{FileName: "song.mp3", File: strings.NewReader("audio-bytes"), TargetFormat: "wav"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if id == "" {
		t.Fatal("expected a job id")
	}

	e := waitTerminal(t, sub, id)
	if e.Status != hub.StatusCompleted {
		t.Fatalf("terminal status = %q, want completed", e.Status)
	}
	if e.Percentage != 100 {
		t.Fatalf("terminal percentage = %d, want 100", e.Percentage)
	}

	rec, err := repo.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if rec.Status != domain.StatusCompleted {
		t.Fatalf("record status = %q, want completed", rec.Status)
	}
	if rec.CompletedAt == nil {
		t.Fatal("completed_at not stamped")
	}
	if rec.SourceCategory != domain.CategoryAudio || rec.SourceFormat != "mp3" || rec.TargetFormat != "wav" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.FileSize != int64(len("audio-bytes")) {
		t.Fatalf("file size = %d", rec.FileSize)
	}
}

func TestSubmit_FailureReachesRecordAndFeed(t *testing.T) {
	d, repo, h := testDispatcher(t, &fakeConverter{err: errors.New("encoder crashed")})
	sub := h.Subscribe()
	defer sub.Close()

	id, err := d.Submit(context.Background(), domain.Requester{UserID: "user-1"},
		Upload{FileName: "clip.mp4", File: strings.NewReader("video"), TargetFormat: "avi"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	e := waitTerminal(t, sub, id)
	if e.Status != hub.StatusError {
		t.Fatalf("terminal status = %q, want error", e.Status)
	}
	if e.Error == "" {
		t.Fatal("error event carries no message")
	}

	rec, err := repo.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if rec.Status != domain.StatusFailed {
		t.Fatalf("record status = %q, want failed", rec.Status)
	}
	if rec.ErrorMessage != "encoder crashed" {
		t.Fatalf("error message = %q", rec.ErrorMessage)
	}
}

func TestSubmit_RejectsWithoutSideEffects(t *testing.T) {
	d, repo, _ := testDispatcher(t, &fakeConverter{})

	cases := []struct {
		name      string
		requester domain.Requester
		up        Upload
		want      error
	}{
		{
			name: "no identity",
			up:   Upload{FileName: "a.mp3", File: strings.NewReader("x"), TargetFormat: "wav"},
			want: domain.ErrInvalidRequest,
		},
		{
			name:      "no file",
			requester: domain.Requester{GuestID: "g"},
			up:        Upload{FileName: "a.mp3", TargetFormat: "wav"},
			want:      domain.ErrInvalidRequest,
		},
		{
			name:      "unknown source",
			requester: domain.Requester{GuestID: "g"},
			up:        Upload{FileName: "a.exe", File: strings.NewReader("x"), TargetFormat: "pdf"},
			want:      domain.ErrUnsupportedFormat,
		},
		{
			name:      "disallowed pair",
			requester: domain.Requester{GuestID: "g"},
			up:        Upload{FileName: "a.gif", File: strings.NewReader("x"), TargetFormat: "tiff"},
			want:      domain.ErrUnsupportedFormat,
		},
		{
			name:      "declared category mismatch",
			requester: domain.Requester{GuestID: "g"},
			up:        Upload{FileName: "a.mp3", File: strings.NewReader("x"), SourceCategory: domain.CategoryVideo, TargetFormat: "wav"},
			want:      domain.ErrInvalidRequest,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id, err := d.Submit(context.Background(), tc.requester, tc.up)
			if !errors.Is(err, tc.want) {
				t.Fatalf("error = %v, want %v", err, tc.want)
			}
			if id != "" {
				t.Fatalf("rejected submit returned id %q", id)
			}
		})
	}

	if n := repo.count(); n != 0 {
		t.Fatalf("rejected submits created %d records", n)
	}
}

func TestSubmit_CaseInsensitiveExtensionAndTarget(t *testing.T) {
	d, repo, h := testDispatcher(t, &fakeConverter{})
	sub := h.Subscribe()
	defer sub.Close()

	id, err := d.Submit(context.Background(), domain.Requester{GuestID: "g"},
		Upload{FileName: "PHOTO.JPG", File: strings.NewReader("img"), TargetFormat: "PNG"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	waitTerminal(t, sub, id)

	rec, err := repo.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if rec.SourceFormat != "jpg" || rec.TargetFormat != "png" {
		t.Fatalf("formats not normalized: %+v", rec)
	}
}

func TestNewJobID_Unique(t *testing.T) {
	now := time.Now()
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		id := newJobID(now)
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %q after %d draws", id, i)
		}
		seen[id] = struct{}{}
	}
}

func TestNewJobID_Shape(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	id := newJobID(now)
	millis, suffix, ok := strings.Cut(id, "-")
	if !ok {
		t.Fatalf("id %q has no separator", id)
	}
	if millis != "1700000000000" {
		t.Fatalf("millis part = %q", millis)
	}
	if len(suffix) != 12 {
		t.Fatalf("suffix length = %d, want 12", len(suffix))
	}
}

func TestClamp(t *testing.T) {
	if clamp(-5) != 0 || clamp(101) != 100 || clamp(42) != 42 {
		t.Fatal("clamp out of bounds")
	}
}
