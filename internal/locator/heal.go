package locator

import (
	"fmt"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/samber/lo"
	"golang.org/x/net/html"
)

// Suggestion is a replacement locator for a step whose recorded locator
// no longer resolves.
type Suggestion struct {
	Target string `json:"target"`
	XPath  Result `json:"xpath"`
	CSS    string `json:"css"`
}

// Suggest finds the element a target label (tag#id.class1.class2)
// describes and generates fresh locators for it. The label must identify
// exactly one element.
func Suggest(doc *html.Node, target string) (Suggestion, error) {
	tag, id, classes := parseLabel(target)
	if tag == "" {
		return Suggestion{}, fmt.Errorf("%w: empty target label", ErrNoMatch)
	}

	var candidates []*html.Node
	for _, n := range htmlquery.Find(doc, "//"+tag) {
		if id != "" {
			if v, _ := attr(n, "id"); v != id {
				continue
			}
		}
		if !hasClasses(n, classes) {
			continue
		}
		candidates = append(candidates, n)
	}

	switch len(candidates) {
	case 0:
		return Suggestion{}, fmt.Errorf("%w: target %q", ErrNoMatch, target)
	case 1:
	default:
		return Suggestion{}, fmt.Errorf("%w: target %q (%d candidates)", ErrAmbiguous, target, len(candidates))
	}

	el := candidates[0]
	return Suggestion{
		Target: target,
		XPath:  GenerateXPath(doc, el),
		CSS:    GenerateCSS(doc, el),
	}, nil
}

func parseLabel(label string) (tag, id string, classes []string) {
	label = strings.TrimSpace(label)
	if label == "" || strings.ContainsAny(label, " []/") {
		return "", "", nil
	}

	rest := label
	if i := strings.IndexAny(rest, "#."); i >= 0 {
		tag, rest = rest[:i], rest[i:]
	} else {
		return strings.ToLower(rest), "", nil
	}
	tag = strings.ToLower(tag)

	if strings.HasPrefix(rest, "#") {
		rest = rest[1:]
		if i := strings.Index(rest, "."); i >= 0 {
			id, rest = rest[:i], rest[i:]
		} else {
			id, rest = rest, ""
		}
	}
	for _, c := range strings.Split(rest, ".") {
		if c != "" {
			classes = append(classes, c)
		}
	}
	return tag, id, classes
}

func hasClasses(n *html.Node, want []string) bool {
	raw, _ := attr(n, "class")
	return lo.Every(strings.Fields(raw), want)
}
