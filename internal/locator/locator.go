// Package locator builds and checks the element locators a recorded step
// carries: XPath expressions first, CSS selectors as the fallback.
package locator

import (
	"fmt"
	"strings"
)

type Strategy string

const (
	StrategyXPath Strategy = "XPATH"
	StrategyCSS   Strategy = "CSS"
)

// NotAvailable marks a locator the recorder could not produce.
const NotAvailable = "N/A"

type Locator struct {
	Strategy Strategy `json:"strategy"`
	Value    string   `json:"value"`
}

func XPath(expr string) Locator {
	return Locator{Strategy: StrategyXPath, Value: expr}
}

func CSS(selector string) Locator {
	return Locator{Strategy: StrategyCSS, Value: selector}
}

// String renders the locator the way failure messages quote it,
// e.g. "XPATH /html/body/div/p[2]/a".
func (l Locator) String() string {
	return fmt.Sprintf("%s %s", l.Strategy, l.Value)
}

// Usable reports whether value holds an actual selector.
func Usable(value string) bool {
	v := strings.TrimSpace(value)
	return v != "" && v != NotAvailable
}
