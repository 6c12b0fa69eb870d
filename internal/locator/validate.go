package locator

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

var (
	ErrNoMatch   = errors.New("locator matches no element")
	ErrAmbiguous = errors.New("locator matches more than one element")
)

// Parse reads an HTML page snapshot.
func Parse(r io.Reader) (*html.Node, error) {
	doc, err := htmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}
	return doc, nil
}

// Count returns how many elements of doc the locator selects.
func Count(doc *html.Node, loc Locator) (int, error) {
	nodes, err := query(doc, loc)
	if err != nil {
		return 0, err
	}
	return len(nodes), nil
}

// Unique reports whether loc selects exactly one element of doc.
func Unique(doc *html.Node, loc Locator) bool {
	n, err := Count(doc, loc)
	return err == nil && n == 1
}

// Resolve returns the single element loc selects.
func Resolve(doc *html.Node, loc Locator) (*html.Node, error) {
	nodes, err := query(doc, loc)
	if err != nil {
		return nil, err
	}
	switch len(nodes) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNoMatch, loc)
	case 1:
		return nodes[0], nil
	default:
		return nil, fmt.Errorf("%w: %s (%d matches)", ErrAmbiguous, loc, len(nodes))
	}
}

func query(doc *html.Node, loc Locator) ([]*html.Node, error) {
	if !Usable(loc.Value) {
		return nil, fmt.Errorf("%w: empty locator", ErrNoMatch)
	}

	switch loc.Strategy {
	case StrategyXPath:
		nodes, err := htmlquery.QueryAll(doc, loc.Value)
		if err != nil {
			return nil, fmt.Errorf("invalid xpath %q: %w", loc.Value, err)
		}
		return nodes, nil
	case StrategyCSS:
		return goquery.NewDocumentFromNode(doc).Find(loc.Value).Nodes, nil
	default:
		return nil, fmt.Errorf("unknown locator strategy %q", loc.Strategy)
	}
}

// Finding is the outcome of checking one locator against a page snapshot.
type Finding struct {
	Index   int
	Locator Locator
	Matches int
	Err     error
}

func (f Finding) OK() bool {
	return f.Err == nil && f.Matches == 1
}

func (f Finding) String() string {
	switch {
	case f.Err != nil:
		return fmt.Sprintf("%s: %v", f.Locator, f.Err)
	case f.Matches == 0:
		return fmt.Sprintf("%s: no match", f.Locator)
	case f.Matches > 1:
		return fmt.Sprintf("%s: %d matches", f.Locator, f.Matches)
	default:
		return fmt.Sprintf("%s: ok", f.Locator)
	}
}

// Audit counts matches for every locator. Index is the position in locs.
func Audit(doc *html.Node, locs []Locator) []Finding {
	findings := make([]Finding, 0, len(locs))
	for i, loc := range locs {
		n, err := Count(doc, loc)
		findings = append(findings, Finding{Index: i, Locator: loc, Matches: n, Err: err})
	}
	return findings
}

// CheckHTML parses page and audits locs against it.
func CheckHTML(page string, locs []Locator) ([]Finding, error) {
	doc, err := Parse(strings.NewReader(page))
	if err != nil {
		return nil, err
	}
	return Audit(doc, locs), nil
}
