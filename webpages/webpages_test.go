package webpages

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpcf/razorgen/codetree"
	"github.com/cpcf/razorgen/host"
	"github.com/cpcf/razorgen/transform"
)

func TestPageEndToEnd(t *testing.T) {
	h := host.New("/site/Pages/About.cshtml", "Pages/About.cshtml")
	pipeline := NewPageTransformer()
	require.NoError(t, pipeline.Initialize(h, host.Directives{}))

	doc, err := h.Parser.Parse("@{ Page.Title = \"About\"; }\n<h1>@Page.Title</h1>\n")
	require.NoError(t, err)
	unit, err := h.CodeGenerator.Generate(doc)
	require.NoError(t, err)
	require.NoError(t, pipeline.Transform(unit))

	base, ok := unit.Class.BaseType()
	require.True(t, ok)
	assert.Equal(t, WebPageType, base.String())
	assert.Equal(t, Namespaces(), unit.Imports)
	assert.Equal(t, "About", unit.Class.Name)
	assert.True(t, unit.Class.Partial)
	assert.True(t, unit.Class.HasAttribute(transform.GeneratedCodeAttribute))
	assert.True(t, unit.Class.HasAttribute(transform.PageVirtualPathAttribute))
	assert.Equal(t, 0, unit.CountPragmas(codetree.PragmaHidden))

	assert.Equal(t, []string{"CommonPrefix", "SetImports", "SetBaseType", "RemoveLineHiddenPragmas", "MakeTypePartial"}, pipeline.UnitNames())
}

func TestPageInheritsWins(t *testing.T) {
	h := host.New("/site/Pages/About.cshtml", "Pages/About.cshtml")
	pipeline := NewPageTransformer()
	require.NoError(t, pipeline.Initialize(h, host.Directives{transform.DirectiveDisableLinePragmas: "true"}))

	doc, err := h.Parser.Parse("@inherits My.SitePage\n<p>@DateTime.Now</p>")
	require.NoError(t, err)
	unit, err := h.CodeGenerator.Generate(doc)
	require.NoError(t, err)
	require.NoError(t, pipeline.Transform(unit))

	base, _ := unit.Class.BaseType()
	assert.Equal(t, "My.SitePage", base.String())
	assert.Equal(t, 0, unit.CountPragmas(codetree.PragmaLine))
}

func TestRegister(t *testing.T) {
	reg := transform.NewRegistry()
	require.NoError(t, Register(reg))
	p, err := reg.New(FlavorName)
	require.NoError(t, err)
	assert.Equal(t, FlavorName, transform.NameOf(p))
}
