package replay

import (
	"fmt"

	"uirecorder/internal/locator"
)

type Action string

const (
	ActionNavigation Action = "navigation"
	ActionClick      Action = "click"
	ActionInput      Action = "input"
	ActionSubmit     Action = "formSubmit"
	ActionSelect     Action = "select"
)

// Step is one recorded interaction.
type Step struct {
	Action    Action `json:"action" yaml:"action"`
	Target    string `json:"target,omitempty" yaml:"target,omitempty"`
	XPath     string `json:"xpath,omitempty" yaml:"xpath,omitempty"`
	CSS       string `json:"css,omitempty" yaml:"css,omitempty"`
	Value     string `json:"value,omitempty" yaml:"value,omitempty"`
	URL       string `json:"url,omitempty" yaml:"url,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
}

// Locator picks the XPath when one was recorded and falls back to the
// CSS selector.
func (s Step) Locator() (locator.Locator, error) {
	switch {
	case locator.Usable(s.XPath):
		return locator.XPath(s.XPath), nil
	case locator.Usable(s.CSS):
		return locator.CSS(s.CSS), nil
	default:
		return locator.Locator{}, fmt.Errorf("%w: %s step has no locator", ErrInvalidStep, s.Action)
	}
}

// NeedsElement reports whether the action operates on a page element.
func (a Action) NeedsElement() bool {
	switch a {
	case ActionClick, ActionInput, ActionSubmit, ActionSelect:
		return true
	}
	return false
}

func (a Action) Valid() bool {
	return a == ActionNavigation || a.NeedsElement()
}
