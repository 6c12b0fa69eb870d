package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"uirecorder/internal/scriptgen"
	"uirecorder/internal/suite"
)

var (
	generateFlagOutput   string
	generateFlagPackage  string
	generateFlagHeadless bool
)

var generateCmd = &cobra.Command{
	Use:   "generate <suite-file>",
	Short: "Generate a Go test that replays a recorded flow",
	Long: `Generate a standalone Go test file that replays a recorded flow with the
uirecorder/pkg/replay package. Without -o the source is written to stdout.
The test imports uirecorder/pkg/replay and uirecorder/pkg/replay/replaytest, so
the module it lives in must require uirecorder.

Examples:
  uirecorder generate flow.yaml -o flow_test.go
  uirecorder generate flow.json --package e2e --headless=false`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}

		flow, err := suite.Load(args[0])
		if err != nil {
			return err
		}
		src, err := scriptgen.Generate(flow, scriptgen.Options{
			Package:  generateFlagPackage,
			Defaults: replayDefaults(cfg),
			Headless: generateFlagHeadless,
		})
		if err != nil {
			return err
		}

		if generateFlagOutput == "" {
			_, err = cmd.OutOrStdout().Write(src)
			return err
		}
		if err := os.WriteFile(generateFlagOutput, src, 0o644); err != nil {
			return fmt.Errorf("failed to write script: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "📝 Wrote %s (%d steps)\n", generateFlagOutput, len(flow.Steps))
		return nil
	},
}

func init() {
	generateCmd.Flags().StringVarP(&generateFlagOutput, "output", "o", "", "Output file (default stdout)")
	generateCmd.Flags().StringVar(&generateFlagPackage, "package", scriptgen.DefaultPackage, "Package clause of the generated file")
	generateCmd.Flags().BoolVar(&generateFlagHeadless, "headless", true, "Run Chrome headless in the generated test")
}
