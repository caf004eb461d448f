package update

import "context"

// Callback is the hook set the coordinator drives during a check cycle.
//
// Within a cycle OnBefore precedes the request and OnAfter precedes exactly
// one of HasNewApp or NoNewApp. A download guard rejection and an empty
// response end the cycle after OnAfter. Hooks after OnBefore run on a
// transport goroutine.
type Callback interface {
	// ParseJSON turns a raw response body into a descriptor.
	ParseJSON(body string) (*Descriptor, error)
	OnBefore(ctx context.Context)
	OnAfter(ctx context.Context)
	// HasNewApp receives the descriptor and the coordinator that produced it,
	// so the receiver can call Download on the same instance.
	HasNewApp(ctx context.Context, d *Descriptor, c *Coordinator)
	NoNewApp(ctx context.Context)
}

// BaseCallback implements Callback with no-op hooks. Embed it and override
// what you need. Its ParseJSON returns nil, which counts as a parse failure.
type BaseCallback struct{}

var _ Callback = BaseCallback{}

func (BaseCallback) ParseJSON(string) (*Descriptor, error)                { return nil, nil }
func (BaseCallback) OnBefore(context.Context)                             {}
func (BaseCallback) OnAfter(context.Context)                              {}
func (BaseCallback) HasNewApp(context.Context, *Descriptor, *Coordinator) {}
func (BaseCallback) NoNewApp(context.Context)                             {}

// CallbackFuncs adapts optional functions to Callback. Nil fields are no-ops.
type CallbackFuncs struct {
	Parse  func(body string) (*Descriptor, error)
	Before func(ctx context.Context)
	After  func(ctx context.Context)
	HasNew func(ctx context.Context, d *Descriptor, c *Coordinator)
	NoNew  func(ctx context.Context)
}

var _ Callback = CallbackFuncs{}

func (f CallbackFuncs) ParseJSON(body string) (*Descriptor, error) {
	if f.Parse == nil {
		return nil, nil
	}
	return f.Parse(body)
}

func (f CallbackFuncs) OnBefore(ctx context.Context) {
	if f.Before != nil {
		f.Before(ctx)
	}
}

func (f CallbackFuncs) OnAfter(ctx context.Context) {
	if f.After != nil {
		f.After(ctx)
	}
}

func (f CallbackFuncs) HasNewApp(ctx context.Context, d *Descriptor, c *Coordinator) {
	if f.HasNew != nil {
		f.HasNew(ctx, d, c)
	}
}

func (f CallbackFuncs) NoNewApp(ctx context.Context) {
	if f.NoNew != nil {
		f.NoNew(ctx)
	}
}

// DownloadCallback observes a background download.
type DownloadCallback interface {
	OnStart()
	// SetMax reports the package size in bytes, or -1 when unknown.
	SetMax(total int64)
	OnProgress(progress float64, total int64)
	OnFinish(path string)
	OnError(err error)
}

// DownloadCallbackFuncs adapts optional functions to DownloadCallback.
type DownloadCallbackFuncs struct {
	Start    func()
	Max      func(total int64)
	Progress func(progress float64, total int64)
	Finish   func(path string)
	Error    func(err error)
}

var _ DownloadCallback = DownloadCallbackFuncs{}

func (f DownloadCallbackFuncs) OnStart() {
	if f.Start != nil {
		f.Start()
	}
}

func (f DownloadCallbackFuncs) SetMax(total int64) {
	if f.Max != nil {
		f.Max(total)
	}
}

func (f DownloadCallbackFuncs) OnProgress(progress float64, total int64) {
	if f.Progress != nil {
		f.Progress(progress, total)
	}
}

func (f DownloadCallbackFuncs) OnFinish(path string) {
	if f.Finish != nil {
		f.Finish(path)
	}
}

func (f DownloadCallbackFuncs) OnError(err error) {
	if f.Error != nil {
		f.Error(err)
	}
}
