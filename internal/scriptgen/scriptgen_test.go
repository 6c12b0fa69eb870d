package scriptgen

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uirecorder/internal/models"
	"uirecorder/internal/suite"
	"uirecorder/pkg/replay"
)

func parses(t *testing.T, src []byte) {
	t.Helper()
	_, err := parser.ParseFile(token.NewFileSet(), "recorded_test.go", src, parser.AllErrors)
	require.NoError(t, err, string(src))
}

func TestGenerateExampleFlow(t *testing.T) {
	s := &suite.Suite{
		Name: "example flow",
		Steps: []replay.Step{
			{Action: replay.ActionNavigation, URL: "http://example.com/", Timestamp: 1731350700000},
			{Action: replay.ActionClick, Target: "a", XPath: "/html/body/div/p[2]/a"},
		},
	}

	src, err := Generate(s, Options{Headless: true})
	require.NoError(t, err)
	parses(t, src)

	out := string(src)
	assert.Contains(t, out, "package recorded_test")
	assert.Contains(t, out, "func TestExampleFlow(t *testing.T)")
	assert.Contains(t, out, `// Step 1: navigation on target ""`)
	assert.Contains(t, out, "// URL: http://example.com/")
	assert.Contains(t, out, "// Timestamp: 2024-11-11T18:45:00Z")
	assert.Contains(t, out, `// Step 2: click on target "a"`)
	assert.Contains(t, out, `XPath:  "/html/body/div/p[2]/a"`)
	assert.Contains(t, out, "ImplicitWait:   10 * time.Second")
	assert.Contains(t, out, "ExplicitWait:   15 * time.Second")
	assert.Contains(t, out, `ScreenshotsDir: "screenshots"`)
	assert.Contains(t, out, "replay.ChromeOptions{Headless: true}")

	f, err := parser.ParseFile(token.NewFileSet(), "recorded_test.go", src, parser.ImportsOnly)
	require.NoError(t, err)
	for _, imp := range f.Imports {
		assert.NotContains(t, imp.Path.Value, "/internal/", "generated test must compile outside this module")
	}
}

func TestGenerateEmptySuite(t *testing.T) {
	src, err := Generate(&suite.Suite{}, Options{Package: "flows"})
	require.NoError(t, err)
	parses(t, src)

	out := string(src)
	assert.Contains(t, out, "package flows")
	assert.Contains(t, out, "func TestRecordedFlow(t *testing.T)")
	assert.Contains(t, out, "steps := []replay.Step{")
	assert.NotContains(t, out, "// Step ")
}

func TestGenerateQuotesValues(t *testing.T) {
	s := &suite.Suite{Steps: []replay.Step{
		{Action: replay.ActionInput, Target: `input[name="q"]`, XPath: `//input[@name="q"]`, Value: "say \"hi\"\n"},
	}}

	src, err := Generate(s, Options{})
	require.NoError(t, err)
	parses(t, src)
	assert.Contains(t, string(src), `Value:  "say \"hi\"\n"`)
}

func TestGenerateKeepsRecordedURLInsideComment(t *testing.T) {
	url := "http://example.com/\n\t}\n\tpanic(\"injected\")\n\tsteps = []replay.Step{\n//"
	s := suite.FromTestCases("flow", []models.TestCase{
		{Action: "navigation", URL: url},
		{Action: "click", XPath: "//a", URL: "http://example.com/\r\u2028next"},
	})

	src, err := Generate(s, Options{})
	require.NoError(t, err)
	parses(t, src)

	f, err := parser.ParseFile(token.NewFileSet(), "recorded_test.go", src, 0)
	require.NoError(t, err)
	ast.Inspect(f, func(n ast.Node) bool {
		if id, ok := n.(*ast.Ident); ok {
			assert.NotEqual(t, "panic", id.Name, "recorded URL became code:\n%s", src)
		}
		return true
	})

	out := string(src)
	assert.Contains(t, out, "// URL: http://example.com/  }  panic(\"injected\")")
	assert.Contains(t, out, "// URL: http://example.com/  next")
	assert.Contains(t, out, strconv.Quote(url))
}

func TestGenerateRejectsUnknownAction(t *testing.T) {
	s := &suite.Suite{Steps: []replay.Step{
		{Action: replay.ActionNavigation, URL: "http://example.com/"},
		{Action: "hover\nfunc init() {}", CSS: ".menu"},
	}}

	_, err := Generate(s, Options{})
	assert.ErrorIs(t, err, replay.ErrInvalidStep)
	assert.Contains(t, err.Error(), "step 2")
}

func TestGenerateRejectsInvalidPackage(t *testing.T) {
	for _, pkg := range []string{"main\nimport \"os\"", "func", "9lives", "a-b"} {
		_, err := Generate(&suite.Suite{}, Options{Package: pkg})
		assert.ErrorIs(t, err, ErrInvalidPackage, pkg)
	}
}

func TestGenerateKeepsSubSecondWaits(t *testing.T) {
	src, err := Generate(&suite.Suite{}, Options{Defaults: replay.Options{
		ImplicitWait: 500 * time.Millisecond,
		ExplicitWait: 1500 * time.Microsecond,
	}})
	require.NoError(t, err)
	parses(t, src)
	assert.Contains(t, string(src), "ImplicitWait:   500 * time.Millisecond")
	assert.Contains(t, string(src), "ExplicitWait:   time.Duration(1500000)")
}

func TestGenerateUsesSuiteWaits(t *testing.T) {
	src, err := Generate(&suite.Suite{ImplicitWait: 3, ExplicitWait: 7, ScreenshotsDir: "shots"}, Options{})
	require.NoError(t, err)
	assert.Contains(t, string(src), "ImplicitWait:   3 * time.Second")
	assert.Contains(t, string(src), "ExplicitWait:   7 * time.Second")
	assert.Contains(t, string(src), `ScreenshotsDir: "shots"`)
}

func TestFuncName(t *testing.T) {
	assert.Equal(t, "TestRecordedFlow", FuncName(""))
	assert.Equal(t, "TestRecordedFlow", FuncName("--"))
	assert.Equal(t, "TestLoginFlow", FuncName("login flow"))
	assert.Equal(t, "TestCheckout2Step", FuncName("checkout-2-step"))
}
