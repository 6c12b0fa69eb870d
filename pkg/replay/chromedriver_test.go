package replay_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uirecorder/pkg/chrome"
	"uirecorder/pkg/replay"
)

const examplePage = `<!doctype html><html><head><title>Example Domain</title></head><body>
<div><h1>Example Domain</h1><p>This domain is for use in illustrative examples.</p>
<p><a id="someLink" href="/more">More information...</a></p></div></body></html>`

const barePage = `<!doctype html><html><body><div><p>Nothing to click here.</p></div></body></html>`

func chromeFactory(t *testing.T) replay.DriverFactory {
	t.Helper()
	if testing.Short() {
		t.Skip("browser test skipped in short mode")
	}
	if chrome.GetChromePath() == "" {
		t.Skip("chrome not installed")
	}
	return replay.ChromeFactory(replay.ChromeOptions{Headless: true, Width: 1024, Height: 768})
}

func pageServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestChromeDriverClickCapturesScreenshot(t *testing.T) {
	factory := chromeFactory(t)
	srv := pageServer(t, examplePage)
	dir := t.TempDir()

	steps := []replay.Step{
		{Action: replay.ActionNavigation, URL: srv.URL + "/"},
		{Action: replay.ActionClick, Target: "a#someLink", XPath: exampleLink},
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	_, err := replay.Replay(ctx, factory, steps, replay.Options{ScreenshotsDir: dir})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "2_click.png"))
	assert.NoFileExists(t, filepath.Join(dir, "2_click_error.png"))
}

func TestChromeDriverMissingElementCapturesErrorScreenshot(t *testing.T) {
	factory := chromeFactory(t)
	srv := pageServer(t, barePage)
	dir := t.TempDir()
	var out bytes.Buffer

	steps := []replay.Step{
		{Action: replay.ActionNavigation, URL: srv.URL + "/"},
		{Action: replay.ActionClick, XPath: exampleLink},
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	_, err := replay.Replay(ctx, factory, steps, replay.Options{
		ScreenshotsDir: dir,
		ExplicitWait:   time.Second,
		ImplicitWait:   time.Second,
		Output:         &out,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 2")
	assert.ErrorIs(t, err, replay.ErrElementNotFound)
	assert.FileExists(t, filepath.Join(dir, "2_click_error.png"))
	assert.NoFileExists(t, filepath.Join(dir, "2_click.png"))
	assert.Contains(t, out.String(), "Error in step 2")
}

func TestChromeDriverCloseIsIdempotent(t *testing.T) {
	factory := chromeFactory(t)

	drv, err := factory(context.Background())
	require.NoError(t, err)
	require.NoError(t, drv.Close())
	assert.NoError(t, drv.Close())
}
