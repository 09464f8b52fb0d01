package razor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpcf/razorgen/codetree"
)

func TestExtractDirectives(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   map[string]string
	}{
		{
			name:   "no comment",
			source: "<p>Hello</p>",
			want:   map[string]string{},
		},
		{
			name:   "generator and flags",
			source: "@* Generator: MvcView GenerateCLSCompliantClassNames: true *@\n<p></p>",
			want:   map[string]string{"Generator": "MvcView", "GenerateCLSCompliantClassNames": "true"},
		},
		{
			name:   "leading whitespace and bom",
			source: "\ufeff  \n@* Namespace: My.Views *@",
			want:   map[string]string{"Namespace": "My.Views"},
		},
		{
			name:   "comment not first",
			source: "<p></p>@* Generator: MvcView *@",
			want:   map[string]string{},
		},
		{
			name:   "unterminated",
			source: "@* Generator: MvcView",
			want:   map[string]string{},
		},
		{
			name:   "degenerate comment",
			source: "@*@",
			want:   map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractDirectives(tt.source))
		})
	}
}

func TestCoreParser_Spans(t *testing.T) {
	src := "@using System.Linq\n<h1>@Model.Title</h1>\n@{ var x = \"}\"; }\n<p>@(x + 1) mail@example.com @@home</p>@* note *@"

	doc, err := NewCoreParser().Parse(src)
	require.NoError(t, err)

	var kinds []SpanKind
	for _, s := range doc.Spans {
		kinds = append(kinds, s.Kind)
	}
	assert.Equal(t, []SpanKind{
		SpanDirective, SpanMarkup, SpanExpression, SpanMarkup, SpanCode,
		SpanMarkup, SpanExpression, SpanMarkup, SpanMarkup, SpanComment,
	}, kinds)

	assert.Equal(t, "using", doc.Spans[0].Keyword)
	assert.Equal(t, "System.Linq", doc.Spans[0].Content)

	assert.Equal(t, "Model.Title", doc.Spans[2].Content)
	assert.Equal(t, 2, doc.Spans[2].Line)
	assert.Equal(t, 5, doc.Spans[2].Column)

	assert.Equal(t, `var x = "}";`, doc.Spans[4].Content)
	assert.Equal(t, "x + 1", doc.Spans[6].Content)
	assert.Equal(t, " mail@example.com @", doc.Spans[7].Content)
	assert.Equal(t, "home</p>", doc.Spans[8].Content)
	assert.Equal(t, " note ", doc.Spans[9].Content)
}

func TestCoreParser_ImplicitExpression(t *testing.T) {
	doc, err := NewCoreParser().Parse(`<a href="@Url.Action("Index", new { id = 1 })[0]">`)
	require.NoError(t, err)
	require.Len(t, doc.Spans, 3)
	assert.Equal(t, `Url.Action("Index", new { id = 1 })[0]`, doc.Spans[1].Content)
	assert.Equal(t, `">`, doc.Spans[2].Content)
}

func TestCoreParser_ExtraKeywords(t *testing.T) {
	src := "@model MyApp.Models.Person\n<p>@model</p>"

	doc, err := NewCoreParser("model").Parse(src)
	require.NoError(t, err)
	models := doc.Directives("model")
	require.Len(t, models, 1)
	assert.Equal(t, "MyApp.Models.Person", models[0].Content)

	doc, err = NewCoreParser().Parse(src)
	require.NoError(t, err)
	assert.Empty(t, doc.Directives("model"))
	assert.Equal(t, SpanExpression, doc.Spans[0].Kind)
}

func TestCoreParser_Functions(t *testing.T) {
	doc, err := NewCoreParser().Parse("@functions {\n  int Count() { return 1; }\n}\n")
	require.NoError(t, err)
	require.NotEmpty(t, doc.Spans)
	assert.Equal(t, SpanFunctions, doc.Spans[0].Kind)
	assert.Equal(t, "int Count() { return 1; }", doc.Spans[0].Content)
}

func TestCoreParser_Errors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		line   int
	}{
		{"trailing at", "<p>@", 1},
		{"at space", "<p>\n@ x</p>", 2},
		{"unterminated comment", "@* oops", 1},
		{"unclosed block", "\n\n@{ if (x) { }", 3},
		{"mismatched", "@(a]", 1},
		{"empty expression", "@()", 1},
		{"functions without block", "@functions x", 1},
		{"directive without value", "@using \n", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCoreParser().Parse(tt.source)
			require.Error(t, err)
			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.line, perr.Line)
		})
	}
}

func TestGenerator_Generate(t *testing.T) {
	doc, err := NewCoreParser().Parse("@using System.Linq\n<p>@Model.Name</p>")
	require.NoError(t, err)

	g := NewGenerator("Index", "System.Web.WebPages.WebPage", "ASP", "Views/Index.cshtml")
	unit, err := g.Generate(doc)
	require.NoError(t, err)

	assert.Equal(t, "ASP", unit.Namespace)
	assert.Equal(t, []string{"System.Linq"}, unit.Imports)
	require.NotNil(t, unit.Class)
	assert.Equal(t, "Index", unit.Class.Name)
	base, ok := unit.Class.BaseType()
	require.True(t, ok)
	assert.Equal(t, "System.Web.WebPages.WebPage", base.String())

	execute := unit.Class.Method(ExecuteMethod)
	require.NotNil(t, execute)
	assert.Equal(t, `WriteLiteral("<p>");`, execute.Body[0].Text)
	assert.Equal(t, "Write(Model.Name);", execute.Body[1].Text)
	require.NotNil(t, execute.Body[1].Pragma)
	assert.Equal(t, codetree.LinePragma{Kind: codetree.PragmaLine, Line: 2, File: "Views/Index.cshtml"}, *execute.Body[1].Pragma)

	assert.Equal(t, 2, unit.CountPragmas(codetree.PragmaHidden))
	assert.Equal(t, 1, unit.CountPragmas(codetree.PragmaLine))
}

func TestGenerator_NoLinePragmas(t *testing.T) {
	doc, err := NewCoreParser().Parse("<p>@Model</p>")
	require.NoError(t, err)

	g := NewGenerator("Index", "", "ASP", "Index.cshtml")
	g.SetGenerateLinePragmas(false)
	unit, err := g.Generate(doc)
	require.NoError(t, err)

	assert.Zero(t, unit.CountPragmas(codetree.PragmaLine))
	assert.Zero(t, unit.CountPragmas(codetree.PragmaDefault))
	assert.Equal(t, 1, unit.CountPragmas(codetree.PragmaHidden), "class-level hidden marker is always present")
	assert.Empty(t, unit.Class.BaseTypes)
}

func TestGenerator_Inherits(t *testing.T) {
	doc, err := NewCoreParser().Parse("@inherits My.Page<My.Model>\n")
	require.NoError(t, err)

	unit, err := NewGenerator("Index", "Base", "ASP", "Index.cshtml").Generate(doc)
	require.NoError(t, err)
	base, _ := unit.Class.BaseType()
	assert.Equal(t, "My.Page<My.Model>", base.String())
}

func TestGenerator_UnsupportedDirective(t *testing.T) {
	doc, err := NewCoreParser("model").Parse("@model Person\n")
	require.NoError(t, err)

	_, err = NewGenerator("Index", "", "ASP", "Index.cshtml").Generate(doc)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Message, "@model")
}

func TestCSharpString(t *testing.T) {
	assert.Equal(t, `"a\"b\\c\n\t"`, CSharpString("a\"b\\c\n\t"))
	assert.Equal(t, `"\u0001é"`, CSharpString("\x01é"))
}

func TestSanitizeClassName(t *testing.T) {
	tests := map[string]string{
		"Views/Home/Index.cshtml": "Index",
		`Views\Home\Index.cshtml`: "Index",
		"Index.Mobile.cshtml":     "Index_Mobile",
		"404.cshtml":              "_404",
		"my-page.cshtml":          "my_page",
		"_ViewStart.cshtml":       "_ViewStart",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, SanitizeClassName(in))
		})
	}
}

func TestTransliteratePath(t *testing.T) {
	tests := map[string]string{
		"Views/Home/Index":            "Views_Home_Index",
		"~/Views/Home/Index.cshtml":   "Views_Home_Index_cshtml",
		`Views\Shared\_Layout.cshtml`: "Views_Shared__Layout_cshtml",
		"1Views/a b.cshtml":           "_1Views_a_b_cshtml",
		"Views/a+b.cshtml":            "Views_a_x002Bb_cshtml",
		"Views/café":                  "Views_café",
		"Views/cafe\u0301":            "Views_café",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, TransliteratePath(in))
		})
	}

	assert.NotEqual(t, TransliteratePath("Views/a+b"), TransliteratePath("Views/a!b"))
	assert.Equal(t, TransliteratePath("Views/Home/Index"), TransliteratePath("Views/Home/Index"))
}
