// Package transport defines the network contract the update coordinator
// depends on and ships an HTTP implementation of it.
package transport

import "context"

// ResponseFunc receives the outcome of an asynchronous request.
// On success err is nil and body is the response body, or nil when the server
// answered without one. On failure err is set and body is nil.
type ResponseFunc func(body *string, err error)

// FileCallback observes a file download.
type FileCallback interface {
	// OnBefore fires once the transfer is about to begin.
	OnBefore()
	// OnProgress reports the completed fraction (0..1) and the total size in
	// bytes, or -1 when the server did not announce one.
	OnProgress(progress float64, total int64)
	// OnResponse fires with the path of the completed file.
	OnResponse(path string)
	// OnError fires when the transfer fails. No OnResponse follows.
	OnError(err error)
}

// Client performs the requests an update check and download need.
// All methods return immediately; results arrive on the callback from a
// goroutine owned by the client.
//
// Download reports exactly one of OnResponse or OnError, also after ctx is
// cancelled, and must not touch the target files once it has reported.
type Client interface {
	AsyncGet(ctx context.Context, url string, params map[string]string, fn ResponseFunc)
	AsyncPost(ctx context.Context, url string, params map[string]string, fn ResponseFunc)
	Download(ctx context.Context, url, dir, fileName string, cb FileCallback)
}

// FileCallbackFuncs adapts optional functions to FileCallback.
type FileCallbackFuncs struct {
	Before   func()
	Progress func(progress float64, total int64)
	Response func(path string)
	Error    func(err error)
}

var _ FileCallback = FileCallbackFuncs{}

func (f FileCallbackFuncs) OnBefore() {
	if f.Before != nil {
		f.Before()
	}
}

func (f FileCallbackFuncs) OnProgress(progress float64, total int64) {
	if f.Progress != nil {
		f.Progress(progress, total)
	}
}

func (f FileCallbackFuncs) OnResponse(path string) {
	if f.Response != nil {
		f.Response(path)
	}
}

func (f FileCallbackFuncs) OnError(err error) {
	if f.Error != nil {
		f.Error(err)
	}
}
