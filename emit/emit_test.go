package emit

import (
	"strings"
	"testing"
	"text/template"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpcf/razorgen/codetree"
)

func sampleUnit() *codetree.Unit {
	return &codetree.Unit{
		Namespace: "ASP",
		Imports:   []string{"System.Web.Mvc", "System.Web.Routing"},
		Class: &codetree.Class{
			Name:       "_Page_Views_Home_Index_cshtml",
			Visibility: "public",
			Partial:    true,
			BaseTypes:  []codetree.TypeReference{codetree.NewTypeReference("System.Web.Mvc.WebViewPage", "dynamic")},
			Attributes: []codetree.Attribute{
				{
					Name: "System.CodeDom.Compiler.GeneratedCodeAttribute",
					Arguments: []codetree.AttributeArgument{
						{Value: `"RazorGenerator"`},
						{Value: `"2.0.0.0"`},
					},
				},
			},
			Members: []*codetree.Member{
				{Kind: codetree.MemberConstructor, Name: "_Page_Views_Home_Index_cshtml", Modifiers: []string{"public"}},
				{
					Kind:      codetree.MemberMethod,
					Name:      "Execute",
					Type:      codetree.NewTypeReference("void"),
					Modifiers: []string{"public", "override"},
					Body: []codetree.Statement{
						{Text: `WriteLiteral("<h1>");`},
						{Text: "Write(ViewBag.Title);", Pragma: &codetree.LinePragma{Kind: codetree.PragmaLine, Line: 1, File: "/site/Views/Home/Index.cshtml"}},
						codetree.Marker(codetree.PragmaDefault),
						{Text: `WriteLiteral("</h1>\n");`},
					},
				},
			},
		},
	}
}

func TestEmit(t *testing.T) {
	em, err := New()
	require.NoError(t, err)

	out, err := em.Emit(sampleUnit())
	require.NoError(t, err)

	want := strings.Join([]string{
		"#pragma warning disable 1591",
		"namespace ASP",
		"{",
		"    using System.Web.Mvc;",
		"    using System.Web.Routing;",
		"",
		`    [global::System.CodeDom.Compiler.GeneratedCodeAttribute("RazorGenerator", "2.0.0.0")]`,
		"    public partial class _Page_Views_Home_Index_cshtml : System.Web.Mvc.WebViewPage<dynamic>",
		"    {",
		"        public _Page_Views_Home_Index_cshtml()",
		"        {",
		"        }",
		"        public override void Execute()",
		"        {",
		`            WriteLiteral("<h1>");`,
		`#line 1 "/site/Views/Home/Index.cshtml"`,
		"            Write(ViewBag.Title);",
		"#line default",
		`            WriteLiteral("</h1>\n");`,
		"        }",
		"    }",
		"}",
		"#pragma warning restore 1591",
		"",
	}, "\n")
	assert.Equal(t, want, string(out))
}

func TestEmitSnippetsAndNoImports(t *testing.T) {
	unit := sampleUnit()
	unit.Imports = nil
	unit.Class.Attributes = nil
	unit.Class.Partial = false
	unit.Class.Members = append([]*codetree.Member{
		{Kind: codetree.MemberSnippet, Body: []codetree.Statement{codetree.Marker(codetree.PragmaHidden)}},
		{Kind: codetree.MemberSnippet, Name: "functions", Body: []codetree.Statement{{Text: "\nint Twice(int x) {\n    return x * 2;\n}\n"}}},
	}, unit.Class.Members...)

	em, err := New()
	require.NoError(t, err)
	out, err := em.Emit(unit)
	require.NoError(t, err)

	s := string(out)
	assert.Contains(t, s, "{\n    public class _Page_Views_Home_Index_cshtml : ")
	assert.Contains(t, s, "    {\n#line hidden\n        int Twice(int x) {\n            return x * 2;\n        }\n        public _Page")
}

func TestEmitRejectsIncompleteTrees(t *testing.T) {
	em, err := New()
	require.NoError(t, err)

	_, err = em.Emit(nil)
	assert.Error(t, err)

	_, err = em.Emit(&codetree.Unit{Namespace: "ASP"})
	assert.Error(t, err)

	unit := sampleUnit()
	unit.Namespace = ""
	_, err = em.Emit(unit)
	assert.Error(t, err)
}

func TestEmitCustomTemplate(t *testing.T) {
	em, err := New(
		WithTemplate(`{{shout .Class.Name}} : {{classDecl .Class}}`),
		WithFuncs(template.FuncMap{"shout": strings.ToUpper}),
	)
	require.NoError(t, err)

	out, err := em.Emit(sampleUnit())
	require.NoError(t, err)
	assert.Equal(t, "_PAGE_VIEWS_HOME_INDEX_CSHTML : public partial class _Page_Views_Home_Index_cshtml : System.Web.Mvc.WebViewPage<dynamic>", string(out))

	_, err = New(WithTemplate("{{ .Broken"))
	assert.Error(t, err)
}

func TestAttribute(t *testing.T) {
	tests := []struct {
		attr codetree.Attribute
		want string
	}{
		{attr: codetree.Attribute{Name: "Foo"}, want: "[global::Foo]"},
		{attr: codetree.Attribute{Name: "global::Foo"}, want: "[global::Foo]"},
		{
			attr: codetree.Attribute{Name: "A.B", Arguments: []codetree.AttributeArgument{{Value: "1"}, {Name: "Named", Value: "true"}}},
			want: "[global::A.B(1, Named = true)]",
		},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Attribute(tt.attr))
	}
}

func TestIndent(t *testing.T) {
	assert.Equal(t, "    a\n\n      b", Indent(4, "a\n\n  b\n"))
	assert.Equal(t, "   a", Indent(2, "\n a\n  \n"))
	assert.Equal(t, "", Indent(4, ""))
	assert.Equal(t, "  x", Indent(2, "x\r\n"))
}
