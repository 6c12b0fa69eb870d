package cli

import (
	"context"
	"fmt"
	"io"
	"maps"
	"net/http"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"uirecorder/internal/locator"
	"uirecorder/internal/suite"
	"uirecorder/pkg/replay"
)

var (
	checkFlagPage string
	checkFlagURL  string
)

var checkCmd = &cobra.Command{
	Use:   "check <suite-file>",
	Short: "Check a flow's locators against a page snapshot",
	Long: `Check that every element step's locator matches exactly one element
of a page, without starting a browser. The page is read from --page, fetched
from --url, or fetched from the flow's first navigation URL. For a locator
that does not resolve, a replacement is suggested from the step's target.

Examples:
  uirecorder check flow.yaml
  uirecorder check flow.yaml --page snapshot.html`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flow, err := suite.Load(args[0])
		if err != nil {
			return err
		}

		page, err := loadPage(cmd.Context(), flow)
		if err != nil {
			return err
		}

		failed, err := checkSuite(cmd.OutOrStdout(), flow, page)
		if err != nil {
			return err
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d locators do not resolve uniquely", failed, len(flow.Locators()))
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkFlagPage, "page", "", "HTML snapshot file")
	checkCmd.Flags().StringVar(&checkFlagURL, "url", "", "Page URL (default: first navigation step)")
}

func loadPage(ctx context.Context, flow *suite.Suite) (string, error) {
	if checkFlagPage != "" {
		data, err := os.ReadFile(checkFlagPage)
		if err != nil {
			return "", fmt.Errorf("failed to read page: %w", err)
		}
		return string(data), nil
	}

	url := checkFlagURL
	if url == "" {
		nav, ok := lo.Find(flow.Steps, func(s replay.Step) bool {
			return s.Action == replay.ActionNavigation && s.URL != ""
		})
		if !ok {
			return "", fmt.Errorf("flow has no navigation step; use --page or --url")
		}
		url = nav.URL
	}
	return fetchPage(ctx, url)
}

func fetchPage(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("failed to fetch %s: %s", url, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", url, err)
	}
	return string(data), nil
}

// checkSuite prints one line per element step and returns how many
// locators failed.
func checkSuite(w io.Writer, flow *suite.Suite, page string) (int, error) {
	byStep := flow.Locators()
	steps := slices.Sorted(maps.Keys(byStep))
	locs := lo.Map(steps, func(n int, _ int) locator.Locator { return byStep[n] })

	findings, err := locator.CheckHTML(page, locs)
	if err != nil {
		return 0, err
	}
	doc, err := locator.Parse(strings.NewReader(page))
	if err != nil {
		return 0, err
	}

	failed := 0
	for _, f := range findings {
		n := steps[f.Index]
		if f.OK() {
			fmt.Fprintf(w, "  ✓ Step %d: %s\n", n, f.Locator)
			continue
		}

		failed++
		fmt.Fprintf(w, "  ✗ Step %d: %s\n", n, f)
		target := flow.Steps[n-1].Target
		if target == "" {
			continue
		}
		if s, err := locator.Suggest(doc, target); err == nil {
			fmt.Fprintf(w, "      suggested xpath: %s\n", s.XPath.XPath)
			if locator.Usable(s.CSS) {
				fmt.Fprintf(w, "      suggested css:   %s\n", s.CSS)
			}
		}
	}
	return failed, nil
}
