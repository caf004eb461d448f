package update

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/adamancini/appupdate/internal/logging"
	"github.com/adamancini/appupdate/internal/transport"
)

var (
	defaultService     *Service
	defaultServiceOnce sync.Once
)

// DefaultService returns the process-wide download service.
func DefaultService() *Service {
	defaultServiceOnce.Do(func() {
		defaultService = NewService()
	})
	return defaultService
}

// Service runs at most one package download at a time.
type Service struct {
	mu      sync.Mutex
	running bool
	bound   int
	cancel  context.CancelFunc
	group   *errgroup.Group
}

// NewService creates an idle download service.
func NewService() *Service {
	return &Service{}
}

// IsRunning reports whether a download is active.
func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Bound returns the number of open connections.
func (s *Service) Bound() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bound
}

// Bind opens a connection to the service. The Binder is delivered on the
// connection's Ready channel from another goroutine.
func (s *Service) Bind(ctx context.Context) *Connection {
	s.mu.Lock()
	s.bound++
	s.mu.Unlock()

	conn := &Connection{service: s, ready: make(chan *Binder, 1)}
	go func() {
		logging.FromContext(ctx).Debug().Msg("download service bound")
		conn.ready <- &Binder{service: s}
	}()
	return conn
}

// Stop cancels the active download, if any.
func (s *Service) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Wait blocks until the most recently started download returns and
// reports its error.
func (s *Service) Wait() error {
	s.mu.Lock()
	g := s.group
	s.mu.Unlock()

	if g == nil {
		return nil
	}
	return g.Wait()
}

func (s *Service) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bound > 0 {
		s.bound--
	}
}

// Connection is an open binding to a Service.
type Connection struct {
	service *Service
	ready   chan *Binder
	once    sync.Once
}

// Ready delivers the Binder once the binding completes.
func (c *Connection) Ready() <-chan *Binder {
	return c.ready
}

// Close releases the connection. It is safe to call more than once.
func (c *Connection) Close() {
	c.once.Do(c.service.release)
}

// Binder is the handle used to start work on a bound service.
type Binder struct {
	service *Service
}

// Start begins downloading d in the background. It returns
// ErrDownloadInProgress when another download is active.
func (b *Binder) Start(ctx context.Context, d *Descriptor, cb DownloadCallback) (*Task, error) {
	return b.service.start(ctx, d, cb)
}

// Task is a started download.
type Task struct {
	done chan struct{}
	err  error
}

// Done is closed when the download finishes.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Err returns the download error. Valid after Done is closed.
func (t *Task) Err() error {
	<-t.done
	return t.err
}

func (s *Service) start(ctx context.Context, d *Descriptor, cb DownloadCallback) (*Task, error) {
	if d == nil {
		return nil, ErrNoDescriptor
	}
	if d.DownloadURL == "" {
		return nil, ErrNoDownloadURL
	}
	if d.client == nil {
		return nil, errors.New("descriptor has no transport client")
	}
	if cb == nil {
		cb = DownloadCallbackFuncs{}
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrDownloadInProgress
	}
	s.running = true

	// The task outlives the request that started it. Stop cancels it.
	taskCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	g, gctx := errgroup.WithContext(taskCtx)
	s.cancel = cancel
	s.group = g
	s.mu.Unlock()

	task := &Task{done: make(chan struct{})}
	g.Go(func() error {
		defer close(task.done)
		defer s.finish(cancel)

		task.err = s.run(logging.WithComponent(gctx, "download"), d, cb)
		return task.err
	})
	return task, nil
}

func (s *Service) finish(cancel context.CancelFunc) {
	s.mu.Lock()
	s.running = false
	s.cancel = nil
	s.mu.Unlock()
	cancel()
}

type downloadResult struct {
	path string
	err  error
}

func (s *Service) run(ctx context.Context, d *Descriptor, cb DownloadCallback) error {
	log := logging.FromContext(ctx)

	name := FileName(d)
	target := filepath.Join(d.TargetPath, name)

	if d.hasChecksum() && fileExists(target) && verifyChecksum(target, d) == nil {
		log.Info().Str("path", target).Msg("package already downloaded")
		cb.OnFinish(target)
		return nil
	}

	log.Info().Str("url", d.DownloadURL).Str("path", target).Msg("starting download")
	cb.OnStart()

	result := make(chan downloadResult, 1)
	maxReported := false
	d.client.Download(ctx, d.DownloadURL, d.TargetPath, name, transport.FileCallbackFuncs{
		Progress: func(progress float64, total int64) {
			if !maxReported {
				maxReported = true
				cb.SetMax(total)
			}
			cb.OnProgress(progress, total)
		},
		Response: func(path string) {
			result <- downloadResult{path: path}
		},
		Error: func(err error) {
			result <- downloadResult{err: err}
		},
	})

	var res downloadResult
	select {
	case res = <-result:
	case <-ctx.Done():
		// The transfer owns the .part file until it reports back.
		log.Debug().Msg("download cancelled, waiting for transfer to stop")
		res = <-result
		if res.err == nil {
			res = downloadResult{err: ctx.Err()}
		}
	}

	if res.err != nil {
		err := fmt.Errorf("download failed: %w", res.err)
		log.Error().Err(res.err).Msg("download failed")
		cb.OnError(err)
		return err
	}

	if err := verifyChecksum(res.path, d); err != nil {
		_ = os.Remove(res.path)
		log.Error().Err(err).Str("path", res.path).Msg("removed package that failed verification")
		cb.OnError(err)
		return err
	}

	log.Info().Str("path", res.path).Msg("download finished")
	cb.OnFinish(res.path)
	return nil
}

// FileName returns the local file name for a descriptor's package: the
// explicit FileName, else the last segment of the download URL.
func FileName(d *Descriptor) string {
	if d.FileName != "" {
		return filepath.Base(d.FileName)
	}
	if u, err := url.Parse(d.DownloadURL); err == nil {
		if base := path.Base(u.Path); base != "." && base != "/" && base != "" {
			return base
		}
	}
	if d.NewVersion != "" {
		return fmt.Sprintf("update-%s", d.NewVersion)
	}
	return "update"
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
