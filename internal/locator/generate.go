package locator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/samber/lo"
	"golang.org/x/net/html"
)

// Result is a generated XPath. Validated means it was checked to select
// exactly the source element; NeedsReview flags strategies that are
// likely to break when the page changes.
type Result struct {
	XPath       string `json:"xpath"`
	Validated   bool   `json:"xpathValidated"`
	NeedsReview bool   `json:"xpathNeedsReview"`
}

// stableAttributes are tried in order after the id.
var stableAttributes = []string{
	"data-testid", "data-cy", "data-test", "name", "role",
	"aria-label", "alt", "title", "placeholder", "type",
}

var cssAttributes = []string{"data-testid", "data-cy", "data-test", "name", "role"}

const maxTextLength = 100

var cssIdent = regexp.MustCompile(`^-?[A-Za-z_][A-Za-z0-9_-]*$`)

// GenerateXPath derives the most stable XPath that selects el uniquely in
// doc. Strategies, in order: id, stable attribute, other data-*
// attribute, attribute combination, visible text, path below the nearest
// ancestor with an id, absolute path. A result with XPath "N/A" means no
// strategy produced a unique match.
func GenerateXPath(doc, el *html.Node) Result {
	if el == nil || el.Type != html.ElementNode {
		return Result{XPath: NotAvailable}
	}
	tag := el.Data

	if id, ok := attr(el, "id"); ok && id != "" {
		if q, ok := quote(id); ok {
			if xp := "//*[@id=" + q + "]"; selects(doc, xp, el) {
				return Result{XPath: xp, Validated: true}
			}
			lower := strings.ToLower(id)
			if lq, ok := quote(lower); ok {
				xp := fmt.Sprintf("//*[translate(@id,'ABCDEFGHIJKLMNOPQRSTUVWXYZ','abcdefghijklmnopqrstuvwxyz')=%s]", lq)
				if selects(doc, xp, el) {
					return Result{XPath: xp, Validated: true, NeedsReview: true}
				}
			}
		}
	}

	for _, name := range stableAttributes {
		if xp, ok := attrXPath(el, tag, name); ok && selects(doc, xp, el) {
			return Result{XPath: xp, Validated: true}
		}
	}

	for _, a := range el.Attr {
		if !strings.HasPrefix(a.Key, "data-") || lo.Contains(stableAttributes, a.Key) {
			continue
		}
		if xp, ok := attrXPath(el, tag, a.Key); ok && selects(doc, xp, el) {
			return Result{XPath: xp, Validated: true}
		}
	}

	if xp, ok := combinedXPath(doc, el); ok {
		return Result{XPath: xp, Validated: true}
	}

	if text := normalizedText(el); text != "" && len(text) <= maxTextLength {
		if q, ok := quote(text); ok {
			if xp := fmt.Sprintf("//%s[normalize-space(.)=%s]", tag, q); selects(doc, xp, el) {
				return Result{XPath: xp, Validated: true}
			}
			if hasElementChildren(el) {
				if xp := fmt.Sprintf("//%s[contains(normalize-space(.),%s)]", tag, q); selects(doc, xp, el) {
					return Result{XPath: xp, Validated: true, NeedsReview: true}
				}
			}
		}
	}

	for anc := el.Parent; anc != nil && anc.Type == html.ElementNode; anc = anc.Parent {
		id, ok := attr(anc, "id")
		if !ok || id == "" {
			continue
		}
		q, ok := quote(id)
		if !ok {
			continue
		}
		xp := "//*[@id=" + q + "]/" + positionalPath(el, anc)
		if selects(doc, xp, el) {
			return Result{XPath: xp, Validated: true}
		}
		break
	}

	if xp := "/" + positionalPath(el, nil); selects(doc, xp, el) {
		return Result{XPath: xp, Validated: true, NeedsReview: true}
	}

	return Result{XPath: NotAvailable}
}

// GenerateCSS returns a unique CSS selector for el: #id, a stable
// attribute selector or a class selector. It returns "N/A" otherwise.
func GenerateCSS(doc, el *html.Node) string {
	if el == nil || el.Type != html.ElementNode {
		return NotAvailable
	}
	tag := el.Data

	if id, ok := attr(el, "id"); ok && cssIdent.MatchString(id) {
		if sel := "#" + id; Unique(doc, CSS(sel)) {
			return sel
		}
	}

	for _, name := range cssAttributes {
		v, ok := attr(el, name)
		if !ok || v == "" || strings.ContainsAny(v, `"\`) {
			continue
		}
		if sel := fmt.Sprintf(`%s[%s="%s"]`, tag, name, v); Unique(doc, CSS(sel)) {
			return sel
		}
	}

	if classes := cssClasses(el); len(classes) > 0 {
		sel := "." + strings.Join(classes, ".")
		if Unique(doc, CSS(sel)) {
			return sel
		}
		if sel = tag + sel; Unique(doc, CSS(sel)) {
			return sel
		}
	}

	return NotAvailable
}

// Label renders el as tag#id.class1.class2, the target label the
// recorder stores next to each action.
func Label(el *html.Node) string {
	if el == nil || el.Type != html.ElementNode {
		return ""
	}
	var b strings.Builder
	b.WriteString(el.Data)
	if id, ok := attr(el, "id"); ok && id != "" {
		b.WriteString("#")
		b.WriteString(id)
	}
	for _, c := range cssClasses(el) {
		b.WriteString(".")
		b.WriteString(c)
	}
	return b.String()
}

func combinedXPath(doc, el *html.Node) (string, bool) {
	var preds []string
	for _, a := range el.Attr {
		if a.Key == "id" || a.Key == "style" || a.Val == "" {
			continue
		}
		if !lo.Contains(stableAttributes, a.Key) && !strings.HasPrefix(a.Key, "data-") && a.Key != "class" && a.Key != "href" {
			continue
		}
		q, ok := quote(a.Val)
		if !ok {
			continue
		}
		preds = append(preds, fmt.Sprintf("@%s=%s", a.Key, q))
	}

	for n := 2; n <= len(preds); n++ {
		xp := fmt.Sprintf("//%s[%s]", el.Data, strings.Join(preds[:n], " and "))
		if selects(doc, xp, el) {
			return xp, true
		}
	}
	return "", false
}

func attrXPath(el *html.Node, tag, name string) (string, bool) {
	v, ok := attr(el, name)
	if !ok || v == "" {
		return "", false
	}
	q, ok := quote(v)
	if !ok {
		return "", false
	}
	return fmt.Sprintf("//%s[@%s=%s]", tag, name, q), true
}

// selects reports whether xp matches el and nothing else.
func selects(doc *html.Node, xp string, el *html.Node) bool {
	nodes, err := htmlquery.QueryAll(doc, xp)
	return err == nil && len(nodes) == 1 && nodes[0] == el
}

// positionalPath builds tag[i]/tag[j]/... from below stop down to el.
// A nil stop walks up to the document root.
func positionalPath(el, stop *html.Node) string {
	var parts []string
	for n := el; n != nil && n != stop && n.Type == html.ElementNode; n = n.Parent {
		parts = append(parts, fmt.Sprintf("%s[%d]", n.Data, siblingIndex(n)))
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/")
}

func siblingIndex(n *html.Node) int {
	idx := 1
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode && s.Data == n.Data {
			idx++
		}
	}
	return idx
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func cssClasses(el *html.Node) []string {
	raw, _ := attr(el, "class")
	var out []string
	for _, c := range strings.Fields(raw) {
		if cssIdent.MatchString(c) {
			out = append(out, c)
		}
	}
	return out
}

func normalizedText(el *html.Node) string {
	return strings.Join(strings.Fields(htmlquery.InnerText(el)), " ")
}

func hasElementChildren(el *html.Node) bool {
	for c := el.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return true
		}
	}
	return false
}

// quote wraps v in XPath string quotes. XPath 1.0 has no escape, so a
// value holding both quote kinds cannot be expressed.
func quote(v string) (string, bool) {
	switch {
	case !strings.Contains(v, `"`):
		return `"` + v + `"`, true
	case !strings.Contains(v, `'`):
		return `'` + v + `'`, true
	default:
		return "", false
	}
}

