// Package replaytest runs recorded flows as Go tests.
package replaytest

import (
	"testing"

	"uirecorder/pkg/chrome"
	"uirecorder/pkg/replay"
)

// Run replays steps in a fresh session from factory and fails t at the
// first failing step. The session is released before Run returns.
func Run(t testing.TB, factory replay.DriverFactory, steps []replay.Step, opts replay.Options) *replay.Report {
	t.Helper()

	report, err := replay.Replay(t.Context(), factory, steps, opts)
	if err != nil {
		t.Fatalf("%v", err)
	}
	return report
}

// Chrome returns a factory for a local Chrome, skipping t when none is
// installed.
func Chrome(t testing.TB, opts replay.ChromeOptions) replay.DriverFactory {
	t.Helper()
	if opts.ExecPath == "" && chrome.GetChromePath() == "" {
		t.Skip("chrome not installed")
	}
	return replay.ChromeFactory(opts)
}
