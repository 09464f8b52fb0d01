package codetree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTypeReference(t *testing.T) {
	tests := []struct {
		input string
		want  string
		args  int
	}{
		{"System.Web.Mvc.WebViewPage", "System.Web.Mvc.WebViewPage", 0},
		{"WebViewPage<dynamic>", "WebViewPage<dynamic>", 1},
		{"Dictionary<string,List<int>>", "Dictionary<string, List<int>>", 2},
		{"  Foo < Bar , Baz >  ", "Foo<Bar, Baz>", 2},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			ref, err := ParseTypeReference(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ref.String())
			assert.Len(t, ref.Arguments, tt.args)
		})
	}
}

func TestParseTypeReference_Invalid(t *testing.T) {
	for _, input := range []string{"", "Foo<", "Foo<Bar", "Foo<>", "Foo>Bar", "Foo<Bar>>"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseTypeReference(input)
			assert.Error(t, err)
		})
	}
}

func TestUnitAddImport(t *testing.T) {
	u := &Unit{Imports: []string{"System"}}

	assert.False(t, u.AddImport("System"))
	assert.True(t, u.AddImport("System.Linq"))
	assert.False(t, u.AddImport(""))
	assert.Equal(t, []string{"System", "System.Linq"}, u.Imports)
}

func TestClassAddAttribute(t *testing.T) {
	c := &Class{}
	assert.True(t, c.AddAttribute(Attribute{Name: "A"}))
	assert.False(t, c.AddAttribute(Attribute{Name: "A"}))
	assert.True(t, c.HasAttribute("A"))
	assert.Len(t, c.Attributes, 1)
}

func TestRemovePragmas(t *testing.T) {
	line := &LinePragma{Kind: PragmaLine, Line: 3, File: "Index.cshtml"}
	u := &Unit{
		Class: &Class{
			Members: []*Member{
				{Kind: MemberSnippet, Body: []Statement{Marker(PragmaHidden)}},
				{Kind: MemberMethod, Name: "Execute", Body: []Statement{
					{Text: `WriteLiteral("<p>");`},
					{Text: "Write(Model);", Pragma: line},
					Marker(PragmaDefault),
					Marker(PragmaHidden),
					{Text: "x++;", Pragma: &LinePragma{Kind: PragmaHidden}},
				}},
			},
		},
	}

	require.Equal(t, 3, u.CountPragmas(PragmaHidden))

	removed := u.RemovePragmas(PragmaHidden)
	assert.Equal(t, 3, removed)
	assert.Zero(t, u.CountPragmas(PragmaHidden))
	assert.Equal(t, 1, u.CountPragmas(PragmaLine))
	assert.Equal(t, 1, u.CountPragmas(PragmaDefault))

	require.Len(t, u.Class.Members, 1, "empty hidden snippet should be dropped")
	body := u.Class.Members[0].Body
	require.Len(t, body, 4)
	assert.Equal(t, "x++;", body[3].Text)
	assert.Nil(t, body[3].Pragma)
}

func TestLinePragmaDirective(t *testing.T) {
	assert.Equal(t, `#line 7 "Views/Home/Index.cshtml"`, LinePragma{Kind: PragmaLine, Line: 7, File: "Views/Home/Index.cshtml"}.Directive())
	assert.Equal(t, `#line 1 "C:\site\Views\Index.cshtml"`, LinePragma{Kind: PragmaLine, Line: 1, File: `C:\site\Views\Index.cshtml`}.Directive())
	assert.Equal(t, "#line default", LinePragma{Kind: PragmaDefault}.Directive())
	assert.Equal(t, "#line hidden", LinePragma{Kind: PragmaHidden}.Directive())
}
