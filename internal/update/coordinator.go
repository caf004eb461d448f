package update

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/adamancini/appupdate/internal/logging"
)

// Coordinator runs update checks and dispatches downloads for one host.
type Coordinator struct {
	cfg Configuration

	mu         sync.Mutex
	descriptor *Descriptor

	newCycleID func() string
}

func newCoordinator(cfg Configuration) *Coordinator {
	return &Coordinator{
		cfg:        cfg,
		newCycleID: uuid.NewString,
	}
}

// Config returns the coordinator's configuration.
func (c *Coordinator) Config() Configuration {
	return c.cfg
}

// Descriptor returns the descriptor produced by the latest parsed response.
func (c *Coordinator) Descriptor() *Descriptor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.descriptor
}

func (c *Coordinator) setDescriptor(d *Descriptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.descriptor = d
}

// CheckForUpdate asks the update endpoint for a newer version and reports
// the outcome through cb. It returns before the request completes.
// A nil callback makes the call a no-op.
func (c *Coordinator) CheckForUpdate(ctx context.Context, cb Callback) {
	if cb == nil {
		return
	}

	ctx = logging.WithCycleID(logging.WithComponent(ctx, "coordinator"), c.newCycleID())
	log := logging.FromContext(ctx)

	cb.OnBefore(ctx)

	if c.cfg.service.IsRunning() {
		log.Info().Msg("download in progress, skipping update check")
		cb.OnAfter(ctx)
		c.cfg.host.Notify(ctx, NoticeAlreadyUpdating)
		return
	}

	params := c.requestParams()
	handle := func(body *string, err error) {
		cb.OnAfter(ctx)
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("update check failed")
			cb.NoNewApp(ctx)
		case body == nil:
			log.Debug().Msg("update check returned no body")
		default:
			c.processData(ctx, *body, cb)
		}
	}

	log.Debug().
		Str("url", c.cfg.updateURL).
		Str("method", c.cfg.method.String()).
		Int("params", len(params)).
		Msg("checking for update")

	if c.cfg.method.IsPost() {
		c.cfg.client.AsyncPost(ctx, c.cfg.updateURL, params, handle)
	} else {
		c.cfg.client.AsyncGet(ctx, c.cfg.updateURL, params, handle)
	}
}

// requestParams returns the custom params when set, otherwise appKey and
// the normalized installed version.
func (c *Coordinator) requestParams() map[string]string {
	if len(c.cfg.params) > 0 {
		return c.cfg.Params()
	}
	return map[string]string{
		"appKey":  c.cfg.appKey,
		"version": NormalizeVersion(c.cfg.host.VersionName()),
	}
}

// parseResult is either a descriptor or the reason there is none.
type parseResult struct {
	descriptor *Descriptor
	err        error
}

func parse(cb Callback, body string) (res parseResult) {
	defer func() {
		if r := recover(); r != nil {
			res = parseResult{err: fmt.Errorf("%w: parser panicked: %v", ErrParse, r)}
		}
	}()

	d, err := cb.ParseJSON(body)
	if err != nil {
		return parseResult{err: fmt.Errorf("%w: %w", ErrParse, err)}
	}
	if d == nil {
		return parseResult{err: fmt.Errorf("%w: parser returned no descriptor", ErrParse)}
	}
	return parseResult{descriptor: d}
}

func (c *Coordinator) processData(ctx context.Context, body string, cb Callback) {
	log := logging.FromContext(ctx)

	res := parse(cb, body)
	c.setDescriptor(res.descriptor)

	if res.err != nil {
		log.Warn().Err(res.err).Msg("treating unparseable response as no update")
		cb.NoNewApp(ctx)
		return
	}

	if !res.descriptor.Available {
		log.Info().Msg("no update available")
		cb.NoNewApp(ctx)
		return
	}

	log.Info().Str("version", res.descriptor.NewVersion).Msg("update available")
	cb.HasNewApp(ctx, res.descriptor, c)
}
