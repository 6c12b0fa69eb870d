package recorder

import (
	"fmt"
	"time"
	"unicode/utf16"

	"github.com/samber/lo"

	"uirecorder/internal/locator"
	"uirecorder/internal/models"
)

// boundaryLength is the input length, in UTF-16 code units as a browser
// counts it, above which an input is treated as a boundary case.
const boundaryLength = 50

// Classify assigns the test type of the case derived from a.
func Classify(a models.Action) string {
	switch a.Type {
	case models.ActionInput:
		switch {
		case a.Value == "":
			return models.TestTypeNegative
		case utf16Len(a.Value) > boundaryLength:
			return models.TestTypeBoundary
		default:
			return models.TestTypePositive
		}
	case models.ActionFormSubmit:
		return models.TestTypeFunctional
	case models.ActionNavigation:
		return models.TestTypeUI
	default:
		return models.TestTypeFunctional
	}
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// Expected returns the expected outcome text for an action type.
func Expected(actionType string) string {
	switch actionType {
	case models.ActionClick:
		return "Element should respond (open/toggle/submit)."
	case models.ActionInput:
		return "Field should accept and validate input."
	case models.ActionFormSubmit:
		return "Form should submit successfully."
	case models.ActionNavigation:
		return "Page should load correctly."
	default:
		return "Action should complete without errors."
	}
}

// Derive turns one received batch into test cases. Step numbers restart
// at 1 for every batch; ids are TC-<now ms>-<index>.
func Derive(batch []models.Action, now time.Time) []models.TestCase {
	ms := now.UnixMilli()
	return lo.Map(batch, func(a models.Action, i int) models.TestCase {
		xpath := a.XPath
		if !locator.Usable(xpath) {
			xpath = locator.NotAvailable
		}
		ts := a.Timestamp
		if ts == 0 {
			ts = ms
		}
		return models.TestCase{
			CaseID:      fmt.Sprintf("TC-%d-%d", ms, i),
			Step:        i + 1,
			Action:      a.Type,
			Target:      a.Target,
			Value:       a.Value,
			URL:         a.URL,
			XPath:       xpath,
			CSSSelector: a.CSSSelector,
			Expected:    Expected(a.Type),
			TestType:    Classify(a),
			NeedsReview: a.XPathNeedsReview,
			Timestamp:   ts,
		}
	})
}
