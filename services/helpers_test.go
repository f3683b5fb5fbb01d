package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/krishkalaria12/snap-swap/apperror"
	"github.com/krishkalaria12/snap-swap/auth"
	"github.com/krishkalaria12/snap-swap/enhance"
	"github.com/krishkalaria12/snap-swap/facedetect"
	"github.com/krishkalaria12/snap-swap/imagegen"
	"github.com/krishkalaria12/snap-swap/repository"
	"github.com/krishkalaria12/snap-swap/sidestate"
	"github.com/krishkalaria12/snap-swap/storage"
	"github.com/krishkalaria12/snap-swap/testutil"
	"github.com/krishkalaria12/snap-swap/worker"
)

type envConfig struct {
	generator imagegen.Generator
	detector  facedetect.Detector
	queue     worker.Queue
	archive   storage.Archive
}

type env struct {
	users   repository.UserRepository
	uploads repository.UploadRepository
	jobs    repository.JobRepository
	store   *sidestate.MemoryStore

	uploadSvc *UploadService
	jobSvc    *JobService
	processor *Processor
	results   *ResultService
	userSvc   *UserService
	prompts   *PromptService
}

func newEnv(t *testing.T, cfg envConfig) *env {
	t.Helper()
	db := testutil.NewDB(t)

	if cfg.generator == nil {
		cfg.generator = &imagegen.Placeholder{Size: 32}
	}
	if cfg.detector == nil {
		cfg.detector = facedetect.Fixed{FaceCount: 1, Confidence: 0.9}
	}

	e := &env{
		users:   repository.NewUserRepository(db),
		uploads: repository.NewUploadRepository(db),
		jobs:    repository.NewJobRepository(db),
		store:   sidestate.NewMemoryStore(time.Hour),
	}

	e.processor = NewProcessor(e.jobs, e.store, cfg.generator, cfg.archive)
	if cfg.queue == nil {
		cfg.queue = inlineQueue{p: e.processor}
	}

	e.uploadSvc = NewUploadService(e.uploads, e.store, cfg.detector)
	e.jobSvc = NewJobService(e.jobs, e.uploads, e.store, cfg.queue, cfg.archive != nil)
	e.results = NewResultService(e.jobs, e.store, cfg.archive, cfg.generator.Model())
	e.userSvc = NewUserService(e.users, e.uploads, e.jobs, e.store, auth.NewService("secret", "snap-swap", time.Hour))
	e.prompts = NewPromptService(enhance.WithFallback(enhance.Keyword{}))
	return e
}

func (e *env) user(t *testing.T, username string) string {
	t.Helper()
	u, err := e.userSvc.Register(context.Background(), username, "secret1")
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return u.ID
}

// readyUpload returns an upload owned by userID with faces attached.
func (e *env) readyUpload(t *testing.T, userID string) string {
	t.Helper()
	ctx := context.Background()

	session, err := e.uploadSvc.CreateSession(ctx, userID, 5)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if _, err := e.uploadSvc.AttachImages(ctx, session.UploadID, userID, imageFiles(t, 5)); err != nil {
		t.Fatalf("attach images: %v", err)
	}
	return session.UploadID
}

func (e *env) completedJob(t *testing.T, userID string) string {
	t.Helper()
	created, err := e.jobSvc.Create(context.Background(), userID, CreateJobRequest{
		UploadID: e.readyUpload(t, userID),
		Prompt:   "cat",
	})
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	return created.JobID
}

func expectCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s, got nil error", code)
	}
	appErr, ok := apperror.As(err)
	if !ok {
		t.Fatalf("expected %s, got non-domain error %v", code, err)
	}
	if appErr.Code != code {
		t.Fatalf("expected %s, got %s (%s)", code, appErr.Code, appErr.Message)
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: uint8(x), B: uint8(y), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func imageFiles(t *testing.T, n int) []ImageFile {
	t.Helper()
	files := make([]ImageFile, n)
	for i := range files {
		files[i] = ImageFile{
			Filename:    fmt.Sprintf("photo%d.png", i),
			ContentType: "image/png",
			Data:        pngBytes(t, 300, 150),
		}
	}
	return files
}

// --- fakes ---

// inlineQueue runs the job before Enqueue returns.
type inlineQueue struct {
	p *Processor
}

func (q inlineQueue) Enqueue(ctx context.Context, jobID string) error {
	q.p.Process(ctx, jobID)
	return nil
}

// holdQueue records ids without running them.
type holdQueue struct {
	mu  sync.Mutex
	ids []string
}

func (q *holdQueue) Enqueue(_ context.Context, jobID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ids = append(q.ids, jobID)
	return nil
}

type brokenQueue struct{}

func (brokenQueue) Enqueue(context.Context, string) error {
	return worker.ErrQueueFull
}

type seqDetector struct {
	mu     sync.Mutex
	counts []int
	i      int
}

func (d *seqDetector) DetectFaces(context.Context, []byte) (facedetect.Detection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c := d.counts[d.i%len(d.counts)]
	d.i++
	return facedetect.Detection{FaceCount: c, Confidence: 0.9}, nil
}

type failingGenerator struct {
	msg string
}

func (g failingGenerator) Generate(context.Context, string) imagegen.Result {
	return imagegen.Result{Success: false, Error: g.msg}
}

func (failingGenerator) Model() string { return "failing" }

type panickingGenerator struct{}

func (panickingGenerator) Generate(context.Context, string) imagegen.Result {
	panic("generator exploded")
}

func (panickingGenerator) Model() string { return "panicking" }

type memArchive struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newMemArchive() *memArchive {
	return &memArchive{objects: map[string][]byte{}, types: map[string]string{}}
}

func (a *memArchive) Put(_ context.Context, jobID, contentType string, data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.objects[jobID] = data
	a.types[jobID] = contentType
	return nil
}

func (a *memArchive) Get(_ context.Context, jobID string) ([]byte, string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	data, ok := a.objects[jobID]
	if !ok {
		return nil, "", nil
	}
	return data, a.types[jobID], nil
}
