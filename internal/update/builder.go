package update

import (
	"context"
	"errors"
	"maps"

	"github.com/adamancini/appupdate/internal/logging"
	"github.com/adamancini/appupdate/internal/transport"
	"github.com/adamancini/appupdate/internal/types"
)

// Configuration is the validated, immutable setup of a Coordinator.
type Configuration struct {
	host       Host
	client     transport.Client
	updateURL  string
	appKey     string
	targetPath string
	location   types.StorageLocation
	method     types.Method
	params     map[string]string
	service    *Service
}

// Host returns the embedding application.
func (c Configuration) Host() Host { return c.host }

// Client returns the transport used for checks and downloads.
func (c Configuration) Client() transport.Client { return c.client }

// UpdateURL returns the version-check endpoint.
func (c Configuration) UpdateURL() string { return c.updateURL }

// AppKey returns the key sent as appKey with default parameters.
func (c Configuration) AppKey() string { return c.appKey }

// TargetPath returns the resolved download directory.
func (c Configuration) TargetPath() string { return c.targetPath }

// StorageLocation reports which policy step produced TargetPath.
func (c Configuration) StorageLocation() types.StorageLocation { return c.location }

// Method returns the check request method, never empty.
func (c Configuration) Method() types.Method { return c.method }

// Service returns the download service downloads are started on.
func (c Configuration) Service() *Service { return c.service }

// Params returns a copy of the custom request parameters.
func (c Configuration) Params() map[string]string {
	return maps.Clone(c.params)
}

// Builder assembles a Coordinator. The zero value is not usable; call NewBuilder.
type Builder struct {
	host       Host
	client     transport.Client
	updateURL  string
	appKey     string
	targetPath string
	method     types.Method
	params     map[string]string
	service    *Service
}

// NewBuilder creates a builder with GET requests and the process-wide service.
func NewBuilder() *Builder {
	return &Builder{method: types.MethodGet}
}

// Host sets the embedding application (required).
func (b *Builder) Host(h Host) *Builder {
	b.host = h
	return b
}

// Client sets the transport (required).
func (b *Builder) Client(c transport.Client) *Builder {
	b.client = c
	return b
}

// UpdateURL sets the version-check endpoint (required).
func (b *Builder) UpdateURL(u string) *Builder {
	b.updateURL = u
	return b
}

// AppKey sets the appKey request parameter.
func (b *Builder) AppKey(k string) *Builder {
	b.appKey = k
	return b
}

// TargetPath sets the download directory. Empty selects one from the host's storage.
func (b *Builder) TargetPath(p string) *Builder {
	b.targetPath = p
	return b
}

// Post switches the check request to POST when true.
func (b *Builder) Post(post bool) *Builder {
	if post {
		b.method = types.MethodPost
	} else {
		b.method = types.MethodGet
	}
	return b
}

// Method sets the check request method.
func (b *Builder) Method(m types.Method) *Builder {
	b.method = m
	return b
}

// Params sets custom request parameters. A non-empty map replaces the
// default appKey/version set entirely.
func (b *Builder) Params(p map[string]string) *Builder {
	b.params = maps.Clone(p)
	return b
}

// Service sets the download service. Defaults to DefaultService().
func (b *Builder) Service(s *Service) *Builder {
	b.service = s
	return b
}

// Build validates the builder and returns a Coordinator.
// Missing required fields yield *ConfigurationError values joined together.
func (b *Builder) Build(ctx context.Context) (*Coordinator, error) {
	var errs []error
	if b.host == nil {
		errs = append(errs, &ConfigurationError{Field: "host", Message: "is required"})
	}
	if b.client == nil {
		errs = append(errs, &ConfigurationError{Field: "client", Message: "is required"})
	}
	if b.updateURL == "" {
		errs = append(errs, &ConfigurationError{Field: "update_url", Message: "is required"})
	}
	if err := b.method.Validate(); err != nil {
		errs = append(errs, &ConfigurationError{Field: "method", Message: err.Error()})
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	cfg := Configuration{
		host:       b.host,
		client:     b.client,
		updateURL:  b.updateURL,
		appKey:     b.appKey,
		targetPath: b.targetPath,
		location:   types.StorageExplicit,
		method:     b.method.Default(),
		params:     maps.Clone(b.params),
		service:    b.service,
	}
	if cfg.service == nil {
		cfg.service = DefaultService()
	}
	if cfg.targetPath == "" {
		cfg.targetPath, cfg.location = ResolveTargetPath(ctx, b.host)
	}

	logging.FromContext(ctx).Debug().
		Str("url", cfg.updateURL).
		Str("method", cfg.method.String()).
		Str("target_path", cfg.targetPath).
		Str("location", cfg.location.String()).
		Msg("update coordinator configured")

	return newCoordinator(cfg), nil
}
