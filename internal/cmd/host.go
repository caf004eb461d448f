package cmd

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/adamancini/appupdate/internal/logging"
	"github.com/adamancini/appupdate/internal/transport"
	"github.com/adamancini/appupdate/internal/update"
)

// cliHost is the update.Host for the command line.
type cliHost struct {
	update.OSStorage

	version string
	errOut  io.Writer

	mu      sync.Mutex
	notices []update.Notice
}

var _ update.Host = (*cliHost)(nil)

func newCLIHost(appName, version string, errOut io.Writer) *cliHost {
	return &cliHost{
		OSStorage: update.OSStorage{AppName: appName},
		version:   version,
		errOut:    errOut,
	}
}

func (h *cliHost) VersionName() string {
	return h.version
}

func (h *cliHost) Notify(ctx context.Context, n update.Notice) {
	h.mu.Lock()
	h.notices = append(h.notices, n)
	h.mu.Unlock()

	logging.FromContext(ctx).Info().Str("notice", n.String()).Msg("host notice")
	_, _ = fmt.Fprintln(h.errOut, n.String())
}

func (h *cliHost) Notices() []update.Notice {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]update.Notice(nil), h.notices...)
}

// trackingClient reports when the single check request it carries has been
// fully handled, so a one-shot process knows when to exit.
type trackingClient struct {
	transport.Client

	issued atomic.Bool
	once   sync.Once
	done   chan struct{}

	mu  sync.Mutex
	err error
}

func newTrackingClient(c transport.Client) *trackingClient {
	return &trackingClient{Client: c, done: make(chan struct{})}
}

func (t *trackingClient) AsyncGet(ctx context.Context, url string, params map[string]string, fn transport.ResponseFunc) {
	t.issued.Store(true)
	t.Client.AsyncGet(ctx, url, params, t.wrap(fn))
}

func (t *trackingClient) AsyncPost(ctx context.Context, url string, params map[string]string, fn transport.ResponseFunc) {
	t.issued.Store(true)
	t.Client.AsyncPost(ctx, url, params, t.wrap(fn))
}

func (t *trackingClient) wrap(fn transport.ResponseFunc) transport.ResponseFunc {
	return func(body *string, err error) {
		defer t.once.Do(func() { close(t.done) })
		t.mu.Lock()
		t.err = err
		t.mu.Unlock()
		fn(body, err)
	}
}

// requestErr is the transport error of the handled request, if any.
func (t *trackingClient) requestErr() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// wait blocks until the issued request has been handled. It returns
// immediately when no request was issued.
func (t *trackingClient) wait(ctx context.Context) error {
	if !t.issued.Load() {
		return nil
	}
	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
