package update

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownload_WithoutDescriptor(t *testing.T) {
	c := newTestCoordinator(t, newFakeHost("1.0"), respondWith("{}"))

	assert.ErrorIs(t, c.Download(context.Background(), nil), ErrNoDescriptor)
	assert.ErrorIs(t, c.DownloadDefault(context.Background()), ErrNoDescriptor)
}

func TestDownload_AfterCheck(t *testing.T) {
	client := respondWith("{}")
	svc := NewService()
	c := newTestCoordinator(t, newFakeHost("1.0"), client, func(b *Builder) { b.Service(svc) })

	c.CheckForUpdate(context.Background(), &recordingCallback{
		parse: parseAs(&Descriptor{Available: true, DownloadURL: "https://x/app-2.0.bin"}),
	})
	require.NotNil(t, c.Descriptor())

	cb := newRecordingDownload()
	require.NoError(t, c.Download(context.Background(), cb))
	cb.wait(t)

	require.NoError(t, cb.err)
	assert.Equal(t, filepath.Join(c.Config().TargetPath(), "app-2.0.bin"), cb.path)

	d := c.Descriptor()
	assert.Equal(t, c.Config().TargetPath(), d.TargetPath)
	assert.Same(t, client, d.Client())

	assert.Eventually(t, func() bool {
		return svc.Bound() == 0 && !svc.IsRunning()
	}, 5*time.Second, 10*time.Millisecond)
}

func TestDownload_ReportsConcurrentStart(t *testing.T) {
	client := respondWith("{}")
	release := make(chan struct{})
	defer close(release)
	client.download = blockingDownload(release)

	svc := NewService()
	c := newTestCoordinator(t, newFakeHost("1.0"), client, func(b *Builder) { b.Service(svc) })
	c.CheckForUpdate(context.Background(), &recordingCallback{
		parse: parseAs(&Descriptor{Available: true, DownloadURL: "https://x/app.bin"}),
	})

	require.NoError(t, c.DownloadDefault(context.Background()))
	assert.Eventually(t, svc.IsRunning, 5*time.Second, 10*time.Millisecond)

	cb := newRecordingDownload()
	require.NoError(t, c.Download(context.Background(), cb))
	cb.wait(t)

	assert.ErrorIs(t, cb.err, ErrDownloadInProgress)
	assert.Equal(t, 1, client.Downloads())
	assert.Eventually(t, func() bool { return svc.Bound() == 1 }, 5*time.Second, 10*time.Millisecond)
}
