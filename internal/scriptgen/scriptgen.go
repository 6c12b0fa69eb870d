// Package scriptgen renders a recorded suite as a standalone Go test.
package scriptgen

import (
	"bytes"
	"errors"
	"fmt"
	"go/format"
	"go/token"
	"strconv"
	"strings"
	"text/template"
	"time"
	"unicode"

	"uirecorder/internal/suite"
	"uirecorder/pkg/replay"
)

const DefaultPackage = "recorded_test"

var ErrInvalidPackage = errors.New("invalid package name")

type Options struct {
	// Package of the generated file.
	Package string
	// Defaults fill waits and the screenshot directory the suite leaves
	// unset.
	Defaults replay.Options
	Headless bool
}

type stepView struct {
	Number    int
	Step      replay.Step
	Timestamp string
}

type fileView struct {
	Package        string
	FuncName       string
	Suite          string
	Headless       bool
	ImplicitWait   time.Duration
	ExplicitWait   time.Duration
	ScreenshotsDir string
	Steps          []stepView
}

var fileTemplate = template.Must(template.New("script").Funcs(template.FuncMap{
	"quote":    strconv.Quote,
	"action":   actionConst,
	"comment":  comment,
	"duration": durationLiteral,
}).Parse(`// Code generated by uirecorder. DO NOT EDIT.

package {{.Package}}

import (
	"testing"
	"time"

	"uirecorder/pkg/replay"
	"uirecorder/pkg/replay/replaytest"
)

// {{.FuncName}} replays the recorded flow {{quote .Suite}}.
func {{.FuncName}}(t *testing.T) {
	factory := replaytest.Chrome(t, replay.ChromeOptions{Headless: {{.Headless}}})

	steps := []replay.Step{
{{- range .Steps}}
		// Step {{.Number}}: {{comment (print .Step.Action)}} on target {{quote .Step.Target}}
{{- if .Step.URL}}
		// URL: {{comment .Step.URL}}
{{- end}}
{{- if .Timestamp}}
		// Timestamp: {{.Timestamp}}
{{- end}}
		{
			Action: {{action .Step.Action}},
{{- if .Step.Target}}
			Target: {{quote .Step.Target}},
{{- end}}
{{- if .Step.XPath}}
			XPath: {{quote .Step.XPath}},
{{- end}}
{{- if .Step.CSS}}
			CSS: {{quote .Step.CSS}},
{{- end}}
{{- if .Step.Value}}
			Value: {{quote .Step.Value}},
{{- end}}
{{- if .Step.URL}}
			URL: {{quote .Step.URL}},
{{- end}}
		},
{{- end}}
	}

	replaytest.Run(t, factory, steps, replay.Options{
		ImplicitWait:   {{duration .ImplicitWait}},
		ExplicitWait:   {{duration .ExplicitWait}},
		ScreenshotsDir: {{quote .ScreenshotsDir}},
	})
}
`))

// Generate returns the gofmt-ed source of a test replaying s.
func Generate(s *suite.Suite, opts Options) ([]byte, error) {
	if opts.Package == "" {
		opts.Package = DefaultPackage
	}
	if !token.IsIdentifier(opts.Package) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPackage, opts.Package)
	}
	ro := s.Options(opts.Defaults)
	if ro.ImplicitWait <= 0 {
		ro.ImplicitWait = replay.DefaultImplicitWait
	}
	if ro.ExplicitWait <= 0 {
		ro.ExplicitWait = replay.DefaultExplicitWait
	}
	if ro.ScreenshotsDir == "" {
		ro.ScreenshotsDir = replay.DefaultScreenshotsDir
	}

	view := fileView{
		Package:        opts.Package,
		FuncName:       FuncName(s.Name),
		Suite:          s.Name,
		Headless:       opts.Headless,
		ImplicitWait:   ro.ImplicitWait,
		ExplicitWait:   ro.ExplicitWait,
		ScreenshotsDir: ro.ScreenshotsDir,
		Steps:          make([]stepView, 0, len(s.Steps)),
	}
	for i, step := range s.Steps {
		if !step.Action.Valid() {
			return nil, fmt.Errorf("%w: step %d: unknown action %q", replay.ErrInvalidStep, i+1, step.Action)
		}
		sv := stepView{Number: i + 1, Step: step}
		if step.Timestamp > 0 {
			sv.Timestamp = time.UnixMilli(step.Timestamp).UTC().Format(time.RFC3339)
		}
		view.Steps = append(view.Steps, sv)
	}

	var buf bytes.Buffer
	if err := fileTemplate.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("failed to render script: %w", err)
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to format script: %w", err)
	}
	return src, nil
}

// FuncName builds a test function name from a suite name.
func FuncName(name string) string {
	var b strings.Builder
	b.WriteString("Test")
	upper := true
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	if b.Len() == len("Test") {
		return "TestRecordedFlow"
	}
	return b.String()
}

func actionConst(a replay.Action) string {
	switch a {
	case replay.ActionNavigation:
		return "replay.ActionNavigation"
	case replay.ActionClick:
		return "replay.ActionClick"
	case replay.ActionInput:
		return "replay.ActionInput"
	case replay.ActionSubmit:
		return "replay.ActionSubmit"
	case replay.ActionSelect:
		return "replay.ActionSelect"
	}
	return "replay.Action(" + strconv.Quote(string(a)) + ")"
}

// comment flattens s onto one line so it cannot end a // comment.
func comment(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || r == '\u2028' || r == '\u2029' {
			return ' '
		}
		return r
	}, s)
}

// durationLiteral renders d as Go source in the largest exact unit.
func durationLiteral(d time.Duration) string {
	switch {
	case d%time.Second == 0:
		return fmt.Sprintf("%d * time.Second", d/time.Second)
	case d%time.Millisecond == 0:
		return fmt.Sprintf("%d * time.Millisecond", d/time.Millisecond)
	default:
		return fmt.Sprintf("time.Duration(%d)", int64(d))
	}
}
