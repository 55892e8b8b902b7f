package internal

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseFusionSource(t *testing.T, code string) *FusionConfig {
	t.Helper()
	config, err := ParseFusion([]FusionSource{{Origin: "test.fusion", Code: code}}, FusionParseOptions{SkipValidation: true})
	require.NoError(t, err)
	return config
}

func TestFusionParser_Values(t *testing.T) {
	config := parseFusionSource(t, `
// line comment
# hash comment
/* block
   comment */
text = 'it\'s'
double = "say \"hi\""
int = 42
negative = -3
float = 1.5
yes = true
no = FALSE
nothing = null
expr = ${props.name + '}'}
object = Vendor:Thing
`)

	tests := []struct {
		path     string
		expected any
	}{
		{"text", "it's"},
		{"double", `say "hi"`},
		{"int", 42},
		{"negative", -3},
		{"float", 1.5},
		{"yes", true},
		{"no", false},
		{"nothing", nil},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			node, ok := config.Path(tt.path)
			require.True(t, ok)
			assert.True(t, node.HasValue)
			assert.Equal(t, tt.expected, node.Value)
		})
	}

	expr, ok := config.Path("expr")
	require.True(t, ok)
	assert.True(t, expr.HasExpression)
	assert.Equal(t, "props.name + '}'", expr.Expression)

	object, ok := config.Path("object")
	require.True(t, ok)
	assert.Equal(t, "Vendor:Thing", object.ObjectType)
}

func TestFusionParser_PathsAndBlocks(t *testing.T) {
	config := parseFusionSource(t, `
page = Vendor:Page {
    title = 'Home'
    meta {
        description = 'd'
    }
    'quoted key' = 1
    @if.visible = true
}
page.body.content = 'c'
`)

	title, ok := config.Path("page.title")
	require.True(t, ok)
	assert.Equal(t, "Home", title.Value)

	description, ok := config.Path("page/meta/description")
	require.True(t, ok)
	assert.Equal(t, "d", description.Value)

	quoted, ok := config.Root.ChildAt("page", "quoted key")
	require.True(t, ok)
	assert.Equal(t, 1, quoted.Value)

	visible, ok := config.Root.ChildAt("page", FusionMetaIf, "visible")
	require.True(t, ok)
	assert.Equal(t, true, visible.Value)

	content, ok := config.Path("page.body.content")
	require.True(t, ok)
	assert.Equal(t, "c", content.Value)

	page, _ := config.Path("page")
	assert.Equal(t, []string{"title", "meta", "quoted key", "body"}, page.PropertyKeys())
}

func TestFusionParser_Override(t *testing.T) {
	config, err := ParseFusion([]FusionSource{
		{Origin: "a.fusion", Code: "a = 'first'\nb = Vendor:X {\n  keep = 1\n}"},
		{Origin: "b.fusion", Code: "a = 'second'\nb.extra = 2"},
	}, FusionParseOptions{SkipValidation: true})
	require.NoError(t, err)

	a, _ := config.Path("a")
	assert.Equal(t, "second", a.Value)

	b, _ := config.Path("b")
	assert.Equal(t, "Vendor:X", b.ObjectType)
	assert.Equal(t, []string{"keep", "extra"}, b.PropertyKeys())
}

func TestFusionParser_ValueReplacesKind(t *testing.T) {
	config := parseFusionSource(t, "a = ${x}\na = 'literal'")
	a, _ := config.Path("a")
	assert.True(t, a.HasValue)
	assert.False(t, a.HasExpression)
	assert.Equal(t, "literal", a.Value)
}

func TestFusionParser_Unset(t *testing.T) {
	config := parseFusionSource(t, "a = 1\nb = 2\na >")
	_, ok := config.Path("a")
	assert.False(t, ok)
	_, ok = config.Path("b")
	assert.True(t, ok)
	assert.Equal(t, []string{"b"}, config.Root.PropertyKeys())
}

func TestFusionParser_Copy(t *testing.T) {
	config := parseFusionSource(t, `
base = Vendor:X {
    a = 1
}
copy < base {
    b = 2
}
base.a = 3
`)
	copied, ok := config.Path("copy")
	require.True(t, ok)
	assert.Equal(t, "Vendor:X", copied.ObjectType)

	a, _ := config.Path("copy.a")
	assert.Equal(t, 1, a.Value)
	b, _ := config.Path("copy.b")
	assert.Equal(t, 2, b.Value)

	original, _ := config.Path("base.a")
	assert.Equal(t, 3, original.Value)
}

func TestFusionParser_Prototypes(t *testing.T) {
	config := parseFusionSource(t, `
prototype(Vendor:Base) {
    @class = 'Vendor\\Base'
    a = 1
}
prototype(Vendor:Child) < prototype(Vendor:Base) {
    b = 2
}
prototype(Vendor:Child).c = 3
prototype(Vendor:Gone) {
    x = 1
}
prototype(Vendor:Gone) >
`)

	child, ok := config.Prototype("Vendor:Child")
	require.True(t, ok)
	assert.Equal(t, "Vendor:Base", child.Parent)
	assert.Equal(t, []string{"b", "c"}, child.Node.PropertyKeys())

	base, ok := config.Prototype("Vendor:Base")
	require.True(t, ok)
	class, ok := base.Node.Child(FusionMetaClass)
	require.True(t, ok)
	assert.Equal(t, `Vendor\Base`, class.Value)

	_, ok = config.Prototype("Vendor:Gone")
	assert.False(t, ok)

	assert.Equal(t, []string{"Vendor:Base", "Vendor:Child"}, config.PrototypeNames())
}

func TestFusionParser_DSL(t *testing.T) {
	opts := FusionParseOptions{
		SkipValidation: true,
		DSL: map[string]DSLTranspiler{
			"afx": func(code string) (string, error) { return TranspileAFX(code, nil) },
		},
	}
	config, err := ParseFusion([]FusionSource{{Origin: "dsl.fusion", Code: "html = afx`<p>{props.x}</p>`"}}, opts)
	require.NoError(t, err)

	html, ok := config.Path("html")
	require.True(t, ok)
	assert.Equal(t, "Neos.Fusion:Tag", html.ObjectType)

	content, ok := config.Path("html.content")
	require.True(t, ok)
	assert.Equal(t, "props.x", content.Expression)

	t.Run("unknown dsl", func(t *testing.T) {
		_, err := ParseFusion([]FusionSource{{Code: "a = md`x`"}}, opts)
		var perr *FusionParseError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, ErrMsgFusionUnknownDSL, perr.Message)
	})

	t.Run("dsl error carries cause", func(t *testing.T) {
		_, err := ParseFusion([]FusionSource{{Code: "a = afx`<div>`"}}, opts)
		var afxErr *AFXError
		require.ErrorAs(t, err, &afxErr)
		assert.Equal(t, ErrMsgAFXUnclosedTag, afxErr.Message)
	})
}

func TestFusionParser_Include(t *testing.T) {
	var seenOrigin, seenPattern string
	resolver := IncludeResolverFunc(func(origin, pattern string) ([]FusionSource, error) {
		seenOrigin, seenPattern = origin, pattern
		return []FusionSource{{Origin: "included.fusion", Code: "fromInclude = 'yes'"}}, nil
	})

	config, err := ParseFusion([]FusionSource{{Origin: "root.fusion", Code: "include: Components/*.fusion\nlocal = 1"}},
		FusionParseOptions{IncludeResolver: resolver, SkipValidation: true})
	require.NoError(t, err)
	assert.Equal(t, "root.fusion", seenOrigin)
	assert.Equal(t, "Components/*.fusion", seenPattern)

	v, ok := config.Path("fromInclude")
	require.True(t, ok)
	assert.Equal(t, "yes", v.Value)

	t.Run("resolver failure", func(t *testing.T) {
		cause := errors.New("no such file")
		failing := IncludeResolverFunc(func(origin, pattern string) ([]FusionSource, error) { return nil, cause })
		_, err := ParseFusion([]FusionSource{{Code: "include: x.fusion"}}, FusionParseOptions{IncludeResolver: failing})
		require.Error(t, err)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("recursive include hits depth limit", func(t *testing.T) {
		loop := IncludeResolverFunc(func(origin, pattern string) ([]FusionSource, error) {
			return []FusionSource{{Origin: "self.fusion", Code: "include: self.fusion"}}, nil
		})
		_, err := ParseFusion([]FusionSource{{Code: "include: self.fusion"}}, FusionParseOptions{IncludeResolver: loop})
		require.Error(t, err)
		assert.Contains(t, err.Error(), ErrMsgFusionIncludeDepth)
	})
}

func TestFusionParser_Errors(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		message string
	}{
		{"unclosed block", "a {\n b = 1\n", ErrMsgFusionUnclosedBlock},
		{"stray closing brace", "a = 1\n}", ErrMsgFusionUnexpectedClose},
		{"missing operator", "a 1", ErrMsgFusionExpectedOperator},
		{"unterminated string", "a = 'x", ErrMsgFusionUnterminatedStr},
		{"unterminated expression", "a = ${x", ErrMsgFusionUnterminatedEel},
		{"unterminated comment", "/* x", ErrMsgFusionUnterminatedComm},
		{"invalid value", "a = what", ErrMsgFusionInvalidValue},
		{"trailing content", "a = 1 2", ErrMsgFusionTrailingContent},
		{"nested prototype", "a {\n prototype(X:Y) {\n }\n}", ErrMsgFusionNestedPrototype},
		{"value on prototype", "prototype(X:Y) = 1", ErrMsgFusionPrototypeValue},
		{"copy source missing", "a < b", ErrMsgFusionCopySourceMissing},
		{"include inside block", "a {\ninclude: x\n}", ErrMsgFusionIncludeScope},
		{"include without resolver", "include: x", ErrMsgFusionIncludeNoResolver},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFusion([]FusionSource{{Origin: "bad.fusion", Code: tt.code}}, FusionParseOptions{SkipValidation: true})
			require.Error(t, err)

			var perr *FusionParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.message, perr.Message)
			assert.Equal(t, "bad.fusion", perr.Origin)
		})
	}
}

func TestFusionParser_ErrorPosition(t *testing.T) {
	_, err := ParseFusion([]FusionSource{{Origin: "pos.fusion", Code: "a = 1\nb = 'x"}}, FusionParseOptions{})
	var perr *FusionParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 2, perr.Position.Line)
	assert.Equal(t, 5, perr.Position.Column)
	assert.True(t, strings.Contains(err.Error(), "pos.fusion"))
}

func TestValidateFusionConfig(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		message string
	}{
		{"unknown parent", "prototype(A:B) < prototype(A:Missing)", ErrMsgFusionUnknownParent},
		{"inheritance cycle", "prototype(A:B) < prototype(A:C)\nprototype(A:C) < prototype(A:B)", ErrMsgFusionInheritanceCycle},
		{"unknown object type", "a = A:Missing", ErrMsgFusionUnknownType},
		{"unknown type inside prototype", "prototype(A:B) {\n inner = A:Missing\n}", ErrMsgFusionUnknownType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFusion([]FusionSource{{Code: tt.code}}, FusionParseOptions{})
			var perr *FusionParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.message, perr.Message)
		})
	}

	t.Run("valid configuration", func(t *testing.T) {
		_, err := ParseFusion([]FusionSource{{Code: "prototype(A:B) {\n}\nprototype(A:C) < prototype(A:B)\na = A:C"}}, FusionParseOptions{})
		require.NoError(t, err)
	})

	t.Run("removed paths are not validated", func(t *testing.T) {
		_, err := ParseFusion([]FusionSource{{Code: "a = A:Missing\na >"}}, FusionParseOptions{})
		require.NoError(t, err)
	})
}

func TestMergeFusionNodes(t *testing.T) {
	base := parseFusionSource(t, "x = Vendor:X {\n a = 1\n b = 2\n}").Root.Children["x"]
	override := parseFusionSource(t, "x {\n b = 3\n c = 4\n a >\n}").Root.Children["x"]

	merged := MergeFusionNodes(base, override)
	assert.Equal(t, "Vendor:X", merged.ObjectType)
	assert.Equal(t, []string{"b", "c"}, merged.PropertyKeys())

	b, _ := merged.Child("b")
	assert.Equal(t, 3, b.Value)

	original, _ := base.Child("b")
	assert.Equal(t, 2, original.Value)
}
