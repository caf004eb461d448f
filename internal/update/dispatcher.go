package update

import (
	"context"

	"github.com/adamancini/appupdate/internal/logging"
)

// Download starts a background download of the latest descriptor.
//
// It returns ErrNoDescriptor when no check has produced one. Otherwise it
// binds the download service and returns; the download starts once the
// binding is ready. Start failures, including ErrDownloadInProgress, are
// reported through cb.OnError. The service connection is closed when the
// started task finishes.
func (c *Coordinator) Download(ctx context.Context, cb DownloadCallback) error {
	c.mu.Lock()
	d := c.descriptor
	if d == nil {
		c.mu.Unlock()
		return ErrNoDescriptor
	}
	d.TargetPath = c.cfg.targetPath
	d.client = c.cfg.client
	dispatched := *d
	c.mu.Unlock()

	if cb == nil {
		cb = DownloadCallbackFuncs{}
	}

	ctx = logging.WithComponent(ctx, "dispatcher")
	log := logging.FromContext(ctx)

	conn := c.cfg.service.Bind(ctx)
	go func() {
		binder := <-conn.Ready()

		task, err := binder.Start(ctx, &dispatched, cb)
		if err != nil {
			conn.Close()
			log.Warn().Err(err).Msg("download not started")
			cb.OnError(err)
			return
		}

		<-task.Done()
		conn.Close()
		log.Debug().Msg("released download service connection")
	}()

	return nil
}

// DownloadDefault is Download without a callback.
func (c *Coordinator) DownloadDefault(ctx context.Context) error {
	return c.Download(ctx, nil)
}
