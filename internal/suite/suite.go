// Package suite loads recorded flows from files and converts them to and
// from saved test suites.
package suite

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"uirecorder/internal/locator"
	"uirecorder/internal/models"
	"uirecorder/pkg/replay"
)

var ErrUnsupportedFormat = errors.New("unsupported suite format")

// Suite is a named recorded flow plus its replay settings. Waits are in
// seconds; zero means the configured default.
type Suite struct {
	Name           string        `json:"name" yaml:"name"`
	Description    string        `json:"description,omitempty" yaml:"description,omitempty"`
	ScreenshotsDir string        `json:"screenshots_dir,omitempty" yaml:"screenshots_dir,omitempty"`
	ImplicitWait   int           `json:"implicit_wait,omitempty" yaml:"implicit_wait,omitempty"`
	ExplicitWait   int           `json:"explicit_wait,omitempty" yaml:"explicit_wait,omitempty"`
	Cron           string        `json:"cron,omitempty" yaml:"cron,omitempty"`
	Device         string        `json:"device,omitempty" yaml:"device,omitempty"`
	Steps          []replay.Step `json:"steps" yaml:"steps"`
}

// Options overlays the suite's settings on defaults.
func (s *Suite) Options(defaults replay.Options) replay.Options {
	opts := defaults
	if s.ImplicitWait > 0 {
		opts.ImplicitWait = time.Duration(s.ImplicitWait) * time.Second
	}
	if s.ExplicitWait > 0 {
		opts.ExplicitWait = time.Duration(s.ExplicitWait) * time.Second
	}
	if s.ScreenshotsDir != "" {
		opts.ScreenshotsDir = s.ScreenshotsDir
	}
	return opts
}

// Validate checks every step is replayable.
func (s *Suite) Validate() error {
	for i, step := range s.Steps {
		if !step.Action.Valid() {
			return fmt.Errorf("step %d: %w: unknown action %q", i+1, replay.ErrInvalidStep, step.Action)
		}
		if step.Action == replay.ActionNavigation {
			if step.URL == "" {
				return fmt.Errorf("step %d: %w: navigation without url", i+1, replay.ErrInvalidStep)
			}
			continue
		}
		if _, err := step.Locator(); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return nil
}

// Locators returns the locator of every element step, keyed by 1-based
// step number.
func (s *Suite) Locators() map[int]locator.Locator {
	out := make(map[int]locator.Locator)
	for i, step := range s.Steps {
		if !step.Action.NeedsElement() {
			continue
		}
		if loc, err := step.Locator(); err == nil {
			out[i+1] = loc
		}
	}
	return out
}

// FromTestCases turns derived test cases into a suite, ordered as given.
func FromTestCases(name string, tcs []models.TestCase) *Suite {
	return &Suite{
		Name: name,
		Steps: lo.Map(tcs, func(tc models.TestCase, _ int) replay.Step {
			return replay.Step{
				Action:    replay.Action(tc.Action),
				Target:    tc.Target,
				XPath:     tc.XPath,
				CSS:       tc.CSSSelector,
				Value:     tc.Value,
				URL:       tc.URL,
				Timestamp: tc.Timestamp,
			}
		}),
	}
}

// FromActions turns captured actions into a suite.
func FromActions(name string, actions []models.Action) *Suite {
	return &Suite{
		Name: name,
		Steps: lo.Map(actions, func(a models.Action, _ int) replay.Step {
			return replay.Step{
				Action:    replay.Action(a.Type),
				Target:    a.Target,
				XPath:     a.XPath,
				CSS:       a.CSSSelector,
				Value:     a.Value,
				URL:       a.URL,
				Timestamp: a.Timestamp,
			}
		}),
	}
}

// Load reads a suite from a .json, .yaml or .yml file. A suite without a
// name is named after the file.
func Load(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite: %w", err)
	}

	s, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return s, nil
}

// Parse decodes a suite in the format named by ext.
func Parse(data []byte, ext string) (*Suite, error) {
	var s Suite
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("invalid json suite: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("invalid yaml suite: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if s.Steps == nil {
		s.Steps = []replay.Step{}
	}
	return &s, nil
}

// Save writes the suite in the format named by the file extension.
func Save(path string, s *Suite) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(s, "", "  ")
	case ".yaml", ".yml":
		data, err = yaml.Marshal(s)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("failed to encode suite: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// FromModel decodes a saved suite.
func FromModel(m *models.TestSuite) (*Suite, error) {
	s := &Suite{
		Name:         m.Name,
		Description:  m.Description,
		ImplicitWait: m.ImplicitWait,
		ExplicitWait: m.ExplicitWait,
		Cron:         m.CronExpression,
		Device:       m.Device,
		Steps:        []replay.Step{},
	}
	if m.Steps != "" {
		if err := json.Unmarshal([]byte(m.Steps), &s.Steps); err != nil {
			return nil, fmt.Errorf("suite %d has invalid steps: %w", m.ID, err)
		}
	}
	return s, nil
}

// ToModel encodes the suite for storage.
func (s *Suite) ToModel() (*models.TestSuite, error) {
	steps := s.Steps
	if steps == nil {
		steps = []replay.Step{}
	}
	data, err := json.Marshal(steps)
	if err != nil {
		return nil, fmt.Errorf("failed to encode steps: %w", err)
	}
	return &models.TestSuite{
		Name:           s.Name,
		Description:    s.Description,
		Steps:          string(data),
		StepCount:      len(steps),
		CronExpression: s.Cron,
		Device:         s.Device,
		ImplicitWait:   s.ImplicitWait,
		ExplicitWait:   s.ExplicitWait,
		Status:         1,
	}, nil
}
