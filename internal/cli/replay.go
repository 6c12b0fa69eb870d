package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"uirecorder/internal/suite"
	"uirecorder/pkg/logger"
	"uirecorder/pkg/replay"
)

var (
	replayFlagScreenshots string
	replayFlagDevice      string
	replayFlagHeadless    bool
	replayFlagImplicit    time.Duration
	replayFlagExplicit    time.Duration
)

var replayCmd = &cobra.Command{
	Use:   "replay <suite-file>",
	Short: "Replay a recorded flow in Chrome",
	Long: `Replay a recorded flow (.json, .yaml or .yml) in a local Chrome.

Each element step waits for its locator, acts on it and saves
<screenshots>/<n>_<action>.png. A locator that never resolves saves
<n>_<action>_error.png and fails the run at that step.

Examples:
  uirecorder replay examples/example_suite.yaml
  uirecorder replay flow.json --screenshots out --explicit-wait 30s
  uirecorder replay flow.yaml --headless=false --device "iPhone 12 Pro"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		flow, err := suite.Load(args[0])
		if err != nil {
			return err
		}

		chromeOpts := replay.ChromeOptions{
			ExecPath: cfg.Chrome.ExecPath,
			Headless: cfg.Chrome.HeadlessMode,
			Width:    cfg.Chrome.WindowWidth,
			Height:   cfg.Chrome.WindowHeight,
			Device:   flow.Device,
		}
		if cmd.Flags().Changed("headless") {
			chromeOpts.Headless = replayFlagHeadless
		}
		if replayFlagDevice != "" {
			chromeOpts.Device = replayFlagDevice
		}

		opts := flow.Options(replayDefaults(cfg))
		if replayFlagScreenshots != "" {
			opts.ScreenshotsDir = replayFlagScreenshots
		}
		if replayFlagImplicit > 0 {
			opts.ImplicitWait = replayFlagImplicit
		}
		if replayFlagExplicit > 0 {
			opts.ExplicitWait = replayFlagExplicit
		}
		out := cmd.OutOrStdout()
		opts.Output = out
		opts.OnStep = printStep(out, len(flow.Steps))

		fmt.Fprintf(out, "▶️ Replaying %q (%d steps)\n", flow.Name, len(flow.Steps))
		report, err := replay.Replay(cmd.Context(), replay.ChromeFactory(chromeOpts), flow.Steps, opts)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "✅ Passed in %s, screenshots in %s\n", report.Duration.Round(time.Millisecond), opts.ScreenshotsDir)
		return nil
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayFlagScreenshots, "screenshots", "", "Screenshot directory (default from config)")
	replayCmd.Flags().StringVar(&replayFlagDevice, "device", "", "Emulated device name (see 'uirecorder devices')")
	replayCmd.Flags().BoolVar(&replayFlagHeadless, "headless", true, "Run Chrome headless")
	replayCmd.Flags().DurationVar(&replayFlagImplicit, "implicit-wait", 0, "Default element lookup timeout")
	replayCmd.Flags().DurationVar(&replayFlagExplicit, "explicit-wait", 0, "Per-step element wait")
}

func printStep(w io.Writer, total int) func(replay.StepResult) {
	return func(sr replay.StepResult) {
		mark := "✓"
		if sr.Status == replay.StepFailed {
			mark = "✗"
		}
		line := fmt.Sprintf("  %s Step %d/%d: %s", mark, sr.Number, total, sr.Step.Action)
		if sr.Step.Action == replay.ActionNavigation {
			line += " " + sr.Step.URL
		} else if loc, err := sr.Step.Locator(); err == nil {
			line += " " + loc.String()
		}
		if sr.Screenshot != "" {
			line += " -> " + sr.Screenshot
		}
		fmt.Fprintln(w, line)
	}
}
