package update

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/adamancini/appupdate/internal/transport"
)

// fakeHost is a Host with a scripted storage state. Notify goes through testify's mock.
type fakeHost struct {
	mock.Mock

	version     string
	mounted     bool
	removable   bool
	externalDir string
	externalErr error
	downloads   string
	internal    string
}

func newFakeHost(version string) *fakeHost {
	return &fakeHost{
		version:     version,
		mounted:     true,
		externalDir: "/ext/cache",
		downloads:   "/ext/Downloads",
		internal:    "/data/cache",
	}
}

func (h *fakeHost) VersionName() string                { return h.version }
func (h *fakeHost) Notify(_ context.Context, n Notice) { h.Called(n) }
func (h *fakeHost) ExternalStorageMounted() bool       { return h.mounted }
func (h *fakeHost) ExternalStorageRemovable() bool     { return h.removable }
func (h *fakeHost) ExternalCacheDir() (string, error)  { return h.externalDir, h.externalErr }
func (h *fakeHost) PublicDownloadsDir() string         { return h.downloads }
func (h *fakeHost) InternalCacheDir() string           { return h.internal }

type fakeCall struct {
	method string
	url    string
	params map[string]string
}

// fakeClient answers check requests synchronously and downloads by writing payload.
type fakeClient struct {
	mu        sync.Mutex
	calls     []fakeCall
	body      *string
	err       error
	payload   []byte
	downloads int
	download  func(ctx context.Context, url, dir, name string, cb transport.FileCallback)
}

var _ transport.Client = (*fakeClient)(nil)

func respondWith(body string) *fakeClient {
	return &fakeClient{body: &body, payload: []byte("package")}
}

func (c *fakeClient) record(method, url string, params map[string]string) (*string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, fakeCall{method: method, url: url, params: params})
	return c.body, c.err
}

func (c *fakeClient) AsyncGet(_ context.Context, url string, params map[string]string, fn transport.ResponseFunc) {
	fn(c.record("GET", url, params))
}

func (c *fakeClient) AsyncPost(_ context.Context, url string, params map[string]string, fn transport.ResponseFunc) {
	fn(c.record("POST", url, params))
}

func (c *fakeClient) Download(ctx context.Context, url, dir, name string, cb transport.FileCallback) {
	c.mu.Lock()
	c.downloads++
	fn := c.download
	payload := c.payload
	c.mu.Unlock()

	if fn != nil {
		go fn(ctx, url, dir, name, cb)
		return
	}

	go func() {
		cb.OnBefore()
		if err := os.MkdirAll(dir, 0o755); err != nil {
			cb.OnError(err)
			return
		}
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, payload, 0o644); err != nil {
			cb.OnError(err)
			return
		}
		cb.OnProgress(1, int64(len(payload)))
		cb.OnResponse(path)
	}()
}

func (c *fakeClient) Calls() []fakeCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]fakeCall(nil), c.calls...)
}

func (c *fakeClient) Downloads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.downloads
}

// blockingDownload holds downloads open until release is closed or ctx ends.
func blockingDownload(release <-chan struct{}) func(ctx context.Context, url, dir, name string, cb transport.FileCallback) {
	return func(ctx context.Context, _, dir, name string, cb transport.FileCallback) {
		select {
		case <-release:
			cb.OnResponse(filepath.Join(dir, name))
		case <-ctx.Done():
			cb.OnError(ctx.Err())
		}
	}
}

// recordingCallback records the hook sequence of a check cycle.
type recordingCallback struct {
	mu          sync.Mutex
	events      []string
	parse       func(body string) (*Descriptor, error)
	descriptor  *Descriptor
	coordinator *Coordinator
}

func (r *recordingCallback) add(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingCallback) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recordingCallback) ParseJSON(body string) (*Descriptor, error) {
	if r.parse == nil {
		return nil, nil
	}
	return r.parse(body)
}

func (r *recordingCallback) OnBefore(context.Context) { r.add("onBefore") }
func (r *recordingCallback) OnAfter(context.Context)  { r.add("onAfter") }
func (r *recordingCallback) NoNewApp(context.Context) { r.add("noNewApp") }

func (r *recordingCallback) HasNewApp(_ context.Context, d *Descriptor, c *Coordinator) {
	r.mu.Lock()
	r.descriptor = d
	r.coordinator = c
	r.mu.Unlock()
	r.add("hasNewApp")
}

// recordingDownload records download callbacks and closes done on the terminal one.
type recordingDownload struct {
	mu       sync.Mutex
	started  int
	max      int64
	progress []float64
	path     string
	err      error
	done     chan struct{}
	once     sync.Once
}

func newRecordingDownload() *recordingDownload {
	return &recordingDownload{done: make(chan struct{})}
}

func (r *recordingDownload) OnStart() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started++
}

func (r *recordingDownload) SetMax(total int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.max = total
}

func (r *recordingDownload) OnProgress(p float64, _ int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, p)
}

func (r *recordingDownload) OnFinish(path string) {
	r.mu.Lock()
	r.path = path
	r.mu.Unlock()
	r.once.Do(func() { close(r.done) })
}

func (r *recordingDownload) OnError(err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
	r.once.Do(func() { close(r.done) })
}

func (r *recordingDownload) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for download callback")
	}
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func parseAs(d *Descriptor) func(string) (*Descriptor, error) {
	return func(string) (*Descriptor, error) { return d, nil }
}

func newTestCoordinator(t *testing.T, host *fakeHost, client *fakeClient, configure ...func(*Builder)) *Coordinator {
	t.Helper()
	b := NewBuilder().
		Host(host).
		Client(client).
		UpdateURL("https://x/api").
		AppKey("key-1").
		TargetPath(t.TempDir()).
		Service(NewService())
	for _, fn := range configure {
		fn(b)
	}
	c, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return c
}
