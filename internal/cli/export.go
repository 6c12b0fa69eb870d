package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"uirecorder/internal/export"
	"uirecorder/internal/models"
	"uirecorder/internal/recorder"
	"uirecorder/internal/suite"
	"uirecorder/pkg/replay"
)

var exportFlagOutput string

var exportCmd = &cobra.Command{
	Use:   "export <cases-or-suite-file>",
	Short: "Export test cases to an Excel workbook",
	Long: `Export test cases to an .xlsx workbook. The input is either a JSON array
of test cases as served by GET /testcases, or a flow file whose steps are
turned into test cases.

Examples:
  curl -s localhost:3000/testcases > cases.json
  uirecorder export cases.json
  uirecorder export flow.yaml -o flow.xlsx`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tcs, err := loadTestCases(args[0], time.Now())
		if err != nil {
			return err
		}

		out := exportFlagOutput
		if out == "" {
			out = export.Filename(time.Now())
		}
		if err := writeWorkbook(out, tcs); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "📊 Exported %d test cases to %s\n", len(tcs), out)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFlagOutput, "output", "o", "", "Output file (default TestCases_<timestamp>.xlsx)")
}

// loadTestCases reads a JSON test case array, or derives test cases from
// the steps of a flow file.
func loadTestCases(path string, now time.Time) ([]models.TestCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".json" && bytes.HasPrefix(bytes.TrimSpace(data), []byte("[")) {
		var tcs []models.TestCase
		if err := json.Unmarshal(data, &tcs); err != nil {
			return nil, fmt.Errorf("failed to parse test cases: %w", err)
		}
		return tcs, nil
	}

	flow, err := suite.Parse(data, ext)
	if err != nil {
		return nil, err
	}
	actions := lo.Map(flow.Steps, func(s replay.Step, _ int) models.Action {
		return models.Action{
			Type:        string(s.Action),
			Target:      s.Target,
			Value:       s.Value,
			URL:         s.URL,
			XPath:       s.XPath,
			CSSSelector: s.CSS,
			Timestamp:   s.Timestamp,
		}
	})
	return recorder.Derive(actions, now), nil
}

func writeWorkbook(path string, tcs []models.TestCase) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := export.WriteTestCases(f, tcs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
