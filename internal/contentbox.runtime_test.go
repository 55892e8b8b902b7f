package internal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// coreFusionPrelude mirrors the core prototypes shipped with the Neos.Fusion resources
const coreFusionPrelude = `
prototype(Neos.Fusion:Value) {
    @class = 'Neos\\Fusion\\FusionObjects\\ValueImplementation'
    value = null
}
prototype(Neos.Fusion:DataStructure) {
    @class = 'Neos\\Fusion\\FusionObjects\\DataStructureImplementation'
}
prototype(Neos.Fusion:Join) {
    @class = 'Neos\\Fusion\\FusionObjects\\JoinImplementation'
    @glue = ''
}
prototype(Neos.Fusion:Tag) {
    @class = 'Neos\\Fusion\\FusionObjects\\TagImplementation'
    tagName = 'div'
    omitClosingTag = false
    selfClosingTag = false
    allowEmptyAttributes = true
    attributes = Neos.Fusion:DataStructure
    content = ''
}
prototype(Neos.Fusion:Loop) {
    @class = 'Neos\\Fusion\\FusionObjects\\LoopImplementation'
    items = null
    itemName = 'item'
    itemKey = 'itemKey'
    iterationName = 'iteration'
    @glue = ''
}
prototype(Neos.Fusion:Map) {
    @class = 'Neos\\Fusion\\FusionObjects\\MapImplementation'
    items = null
    itemName = 'item'
    itemKey = 'itemKey'
    iterationName = 'iteration'
}
prototype(Neos.Fusion:Component) {
    @class = 'Neos\\Fusion\\FusionObjects\\ComponentImplementation'
}
prototype(Neos.Fusion:Case) {
    @class = 'Neos\\Fusion\\FusionObjects\\CaseImplementation'
}
prototype(Neos.Fusion:Matcher) {
    @class = 'Neos\\Fusion\\FusionObjects\\MatcherImplementation'
    condition = false
    type = null
    renderPath = null
}
prototype(Neos.Fusion:Renderer) {
    @class = 'Neos\\Fusion\\FusionObjects\\RendererImplementation'
    type = null
    renderPath = null
}
`

func testDSL() map[string]DSLTranspiler {
	return map[string]DSLTranspiler{
		"afx": func(code string) (string, error) { return TranspileAFX(code, nil) },
	}
}

func parseRuntimeConfig(t *testing.T, code string, skipValidation bool) *FusionConfig {
	t.Helper()
	config, err := ParseFusion([]FusionSource{
		{Origin: "core.fusion", Code: coreFusionPrelude},
		{Origin: "test.fusion", Code: code},
	}, FusionParseOptions{DSL: testDSL(), SkipValidation: skipValidation})
	require.NoError(t, err)
	return config
}

func newTestRuntime(t *testing.T, code string, props map[string]any) *Runtime {
	t.Helper()
	runtime := NewRuntime(parseRuntimeConfig(t, code, false), RuntimeOptions{})
	if props != nil {
		runtime.PushContext(ContextNameProps, props)
	}
	return runtime
}

func TestRuntime_Render(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		props    map[string]any
		expected string
	}{
		{
			name:     "afx element with expression",
			code:     "html = afx`<div>Hello {props.name}</div>`",
			props:    map[string]any{"name": "World"},
			expected: "<div>Hello World</div>",
		},
		{
			name: "tag attributes",
			code: `html = Neos.Fusion:Tag {
    tagName = 'a'
    attributes.href = ${props.url}
    attributes.hidden = true
    attributes.skip = false
    attributes.class = ${['a', 'b']}
    content = 'x'
}`,
			props:    map[string]any{"url": "/?a=1&b=2&amp;c"},
			expected: `<a href="/?a=1&amp;b=2&amp;c" hidden class="a b">x</a>`,
		},
		{
			name: "empty attributes without allowEmptyAttributes",
			code: `html = Neos.Fusion:Tag {
    allowEmptyAttributes = false
    attributes.disabled = true
}`,
			expected: `<div disabled=""></div>`,
		},
		{
			name:     "self closing element",
			code:     "html = afx`<img src=\"x.png\" />`",
			expected: `<img src="x.png" />`,
		},
		{
			name:     "void element without slash",
			code:     "html = Neos.Fusion:Tag {\n    tagName = 'br'\n}",
			expected: `<br />`,
		},
		{
			name:     "omitted closing tag",
			code:     "html = Neos.Fusion:Tag {\n    tagName = 'p'\n    omitClosingTag = true\n    content = 'ignored'\n}",
			expected: `<p>`,
		},
		{
			name:     "join with glue",
			code:     "html = Neos.Fusion:Join {\n    a = 'A'\n    b = 'B'\n    @glue = ', '\n}",
			expected: "A, B",
		},
		{
			name: "position ordering",
			code: `html = Neos.Fusion:Join {
    b = 'B'
    b.@position = 'end'
    a = 'A'
    c = 'C'
    c.@position = 'start'
}`,
			expected: "CAB",
		},
		{
			name: "if removes a property",
			code: `html = Neos.Fusion:Join {
    a = 'A'
    b = 'B'
    b.@if.show = ${props.show}
}`,
			props:    map[string]any{"show": false},
			expected: "A",
		},
		{
			name:     "process wraps the value",
			code:     "html = 'x'\nhtml.@process.wrap = ${'[' + value + ']'}",
			expected: "[x]",
		},
		{
			name:     "process in expression form",
			code:     "html = 'x'\nhtml.@process.wrap.expression = ${value + '!'}",
			expected: "x!",
		},
		{
			name:     "processors run in position order",
			code:     "html = 'x'\nhtml.@process.second = ${value + '2'}\nhtml.@process.second.@position = 'end'\nhtml.@process.first = ${value + '1'}",
			expected: "x12",
		},
		{
			name: "context binds names for the subtree",
			code: `html = Neos.Fusion:Value {
    @context.greeting = 'Hi'
    value = ${greeting + ' ' + props.name}
}`,
			props:    map[string]any{"name": "World"},
			expected: "Hi World",
		},
		{
			name:     "this refers to the object",
			code:     "html = Neos.Fusion:Value {\n    a = 'x'\n    value = ${this.a + '!'}\n}",
			expected: "x!",
		},
		{
			name: "loop with iteration",
			code: `html = Neos.Fusion:Loop {
    items = ${props.items}
    itemRenderer = ${iteration.cycle + ':' + item}
    @glue = ','
}`,
			props:    map[string]any{"items": []any{"a", "b"}},
			expected: "1:a,2:b",
		},
		{
			name: "loop over keyed items",
			code: `html = Neos.Fusion:Loop {
    items = ${props.items}
    itemName = 'entry'
    itemKey = 'name'
    itemRenderer = ${name + '=' + entry + (iteration.isLast ? '' : ';')}
}`,
			props:    map[string]any{"items": map[string]any{"b": 2, "a": 1}},
			expected: "a=1;b=2",
		},
		{
			name: "loop over nothing",
			code: `html = Neos.Fusion:Loop {
    itemRenderer = 'never'
}`,
			expected: "",
		},
		{
			name: "component with props",
			code: `prototype(Test:Card) < prototype(Neos.Fusion:Component) {
    title = 'Default'
    renderer = afx` + "`<h2>{props.title}</h2>`" + `
}
html = Test:Card {
    title = ${props.name}
}`,
			props:    map[string]any{"name": "World"},
			expected: "<h2>World</h2>",
		},
		{
			name: "component defaults",
			code: `prototype(Test:Card) < prototype(Neos.Fusion:Component) {
    title = 'Default'
    renderer = afx` + "`<h2>{props.title}</h2>`" + `
}
html = Test:Card`,
			expected: "<h2>Default</h2>",
		},
		{
			name: "case picks the first matching matcher",
			code: `html = Neos.Fusion:Case {
    big {
        condition = ${props.n > 1}
        renderer = 'big'
    }
    fallback {
        condition = true
        renderer = 'small'
    }
}`,
			props:    map[string]any{"n": 5},
			expected: "big",
		},
		{
			name: "case falls through to the fallback",
			code: `html = Neos.Fusion:Case {
    big {
        condition = ${props.n > 1}
        renderer = 'big'
    }
    fallback {
        condition = true
        renderer = 'small'
    }
}`,
			props:    map[string]any{"n": 1},
			expected: "small",
		},
		{
			name: "case without match renders nothing",
			code: `html = Neos.Fusion:Case {
    never {
        condition = false
        renderer = 'x'
    }
}`,
			expected: "",
		},
		{
			name: "renderer delegates to a type",
			code: `html = Neos.Fusion:Renderer {
    type = 'Neos.Fusion:Value'
    element.value = 'via type'
}`,
			expected: "via type",
		},
		{
			name:     "renderer delegates to an absolute path",
			code:     "other = 'elsewhere'\nhtml = Neos.Fusion:Renderer {\n    renderPath = '/other'\n}",
			expected: "elsewhere",
		},
		{
			name:     "apply supplies properties",
			code:     "html = Neos.Fusion:Tag {\n    @apply.props = ${props.tagProps}\n}",
			props:    map[string]any{"tagProps": map[string]any{"tagName": "span", "content": "applied"}},
			expected: "<span>applied</span>",
		},
		{
			name:     "afx spread attributes",
			code:     "html = afx`<a {...props.attrs}>x</a>`",
			props:    map[string]any{"attrs": map[string]any{"href": "/"}},
			expected: `<a href="/">x</a>`,
		},
		{
			name:     "ignore properties",
			code:     "html = Neos.Fusion:Join {\n    @ignoreProperties = ${['b']}\n    a = 'A'\n    b = 'B'\n}",
			expected: "A",
		},
		{
			name: "prototype inheritance",
			code: `prototype(Test:Base) < prototype(Neos.Fusion:Value) {
    value = 'base'
}
prototype(Test:Child) < prototype(Test:Base)
html = Test:Child`,
			expected: "base",
		},
		{
			name: "instance overrides inherited value",
			code: `prototype(Test:Base) < prototype(Neos.Fusion:Value) {
    value = 'base'
}
html = Test:Base {
    value = 'own'
}`,
			expected: "own",
		},
		{
			name:     "numbers render normalized",
			code:     "html = ${1 + 1}",
			expected: "2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runtime := newTestRuntime(t, tt.code, tt.props)
			output, err := runtime.Render(context.Background(), "html")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, output)
		})
	}
}

func TestRuntime_Evaluate(t *testing.T) {
	t.Run("data structure keeps order", func(t *testing.T) {
		runtime := newTestRuntime(t, "data = Neos.Fusion:DataStructure {\n    b = 1\n    a = ${1 + 1}\n}", nil)
		value, err := runtime.Evaluate(context.Background(), "data")
		require.NoError(t, err)

		m, ok := value.(*OrderedMap)
		require.True(t, ok)
		assert.Equal(t, []string{"b", "a"}, m.Keys())
		assert.Equal(t, []any{1, 2}, m.Values())
	})

	t.Run("untyped path with children", func(t *testing.T) {
		runtime := newTestRuntime(t, "data {\n    x = 'y'\n}", nil)
		value, err := runtime.Evaluate(context.Background(), "data")
		require.NoError(t, err)

		m, ok := value.(*OrderedMap)
		require.True(t, ok)
		assert.Equal(t, map[string]any{"x": "y"}, m.ToMap())
	})

	t.Run("map over a list", func(t *testing.T) {
		runtime := newTestRuntime(t, `data = Neos.Fusion:Map {
    items = ${props.items}
    itemRenderer = ${String.toUpperCase(item)}
}`, map[string]any{"items": []any{"a", "b"}})
		value, err := runtime.Evaluate(context.Background(), "data")
		require.NoError(t, err)
		assert.Equal(t, []any{"A", "B"}, value)
	})

	t.Run("map with key renderer", func(t *testing.T) {
		runtime := newTestRuntime(t, `data = Neos.Fusion:Map {
    items = ${props.items}
    itemRenderer = ${item}
    keyRenderer = ${'k' + itemKey}
}`, map[string]any{"items": []any{"a", "b"}})
		value, err := runtime.Evaluate(context.Background(), "data")
		require.NoError(t, err)

		m, ok := value.(*OrderedMap)
		require.True(t, ok)
		assert.Equal(t, []string{"k0", "k1"}, m.Keys())
	})

	t.Run("nested path", func(t *testing.T) {
		runtime := newTestRuntime(t, "page.title = 'T'", nil)
		value, err := runtime.Evaluate(context.Background(), "page.title")
		require.NoError(t, err)
		assert.Equal(t, "T", value)
	})

	t.Run("cancelled if yields nil", func(t *testing.T) {
		runtime := newTestRuntime(t, "x = 'y'\nx.@if.never = false", nil)
		value, err := runtime.Evaluate(context.Background(), "x")
		require.NoError(t, err)
		assert.Nil(t, value)
	})
}

func TestRuntime_Errors(t *testing.T) {
	tests := []struct {
		name           string
		code           string
		path           string
		skipValidation bool
		maxDepth       int
		expectedMsg    string
	}{
		{
			name:        "path not found",
			code:        "html = 'x'",
			path:        "missing",
			expectedMsg: ErrMsgRuntimePathNotFound,
		},
		{
			name:           "unknown prototype",
			code:           "html = Test:Nope",
			skipValidation: true,
			expectedMsg:    ErrMsgRuntimeUnknownPrototype,
		},
		{
			name:           "inheritance cycle",
			code:           "prototype(Test:A) < prototype(Test:B)\nprototype(Test:B) < prototype(Test:A)\nhtml = Test:A",
			skipValidation: true,
			expectedMsg:    ErrMsgRuntimeInheritanceCycle,
		},
		{
			name:        "no implementation class",
			code:        "prototype(Test:Plain) {\n    a = 1\n}\nhtml = Test:Plain",
			expectedMsg: ErrMsgRuntimeNoImplementation,
		},
		{
			name:        "unregistered implementation class",
			code:        "prototype(Test:Bad) {\n    @class = 'Vendor\\\\Nope'\n}\nhtml = Test:Bad",
			expectedMsg: ErrMsgRuntimeUnknownClass,
		},
		{
			name:        "broken expression",
			code:        "html = ${1 +}",
			expectedMsg: ErrMsgRuntimeExpressionFailed,
		},
		{
			name:        "recursion hits the depth limit",
			code:        "prototype(Test:Loop) < prototype(Neos.Fusion:Value) {\n    value = Test:Loop\n}\nhtml = Test:Loop",
			maxDepth:    10,
			expectedMsg: ErrMsgRuntimeMaxDepth,
		},
		{
			name:        "renderer without target",
			code:        "html = Neos.Fusion:Renderer",
			expectedMsg: ErrMsgObjectNothingToRend,
		},
		{
			name:        "loop over a scalar",
			code:        "html = Neos.Fusion:Loop {\n    items = 42\n    itemRenderer = 'x'\n}",
			expectedMsg: ErrMsgObjectNotIterable,
		},
		{
			name:        "apply of a scalar",
			code:        "html = Neos.Fusion:Tag {\n    @apply.x = 42\n}",
			expectedMsg: ErrMsgRuntimeInvalidApply,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runtime := NewRuntime(parseRuntimeConfig(t, tt.code, tt.skipValidation), RuntimeOptions{MaxDepth: tt.maxDepth})
			path := tt.path
			if path == "" {
				path = "html"
			}

			_, err := runtime.Render(context.Background(), path)
			require.Error(t, err)

			var runtimeErr *RuntimeError
			require.ErrorAs(t, err, &runtimeErr)
			assert.Equal(t, path, runtimeErr.Path)

			var evalErr *EvaluationError
			require.ErrorAs(t, runtimeErr.Cause, &evalErr)
			assert.Contains(t, evalErr.Message, tt.expectedMsg)
		})
	}
}

func TestRuntime_CancelledContext(t *testing.T) {
	runtime := newTestRuntime(t, "html = 'x'", nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runtime.Render(ctx, "html")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRuntime_ContentCache(t *testing.T) {
	code := `html = Neos.Fusion:Value {
    value = ${props.name}
    @cache {
        mode = 'cached'
        entryIdentifier.static = 'page'
    }
}`
	config := parseRuntimeConfig(t, code, false)
	cache := NewMemoryContentCache(DefaultContentCacheConfig())

	render := func(name string, enabled bool) string {
		runtime := NewRuntime(config, RuntimeOptions{ContentCache: cache})
		runtime.SetContentCacheEnabled(enabled)
		runtime.PushContext(ContextNameProps, map[string]any{"name": name})
		output, err := runtime.Render(context.Background(), "html")
		require.NoError(t, err)
		return output
	}

	t.Run("disabled cache renders fresh output", func(t *testing.T) {
		assert.Equal(t, "first", render("first", false))
		assert.Equal(t, "second", render("second", false))
		assert.Equal(t, 0, cache.Len())
	})

	t.Run("enabled cache serves stored output", func(t *testing.T) {
		assert.Equal(t, "first", render("first", true))
		assert.Equal(t, "first", render("second", true))
		assert.Equal(t, 1, cache.Len())
	})

	t.Run("disabling bypasses stored entries", func(t *testing.T) {
		assert.Equal(t, "third", render("third", false))
	})

	t.Run("runtime without cache reports disabled", func(t *testing.T) {
		runtime := NewRuntime(config, RuntimeOptions{})
		runtime.SetContentCacheEnabled(true)
		assert.False(t, runtime.ContentCacheEnabled())
	})
}

func TestRuntime_PushContextShadows(t *testing.T) {
	runtime := newTestRuntime(t, "html = ${props.name}", map[string]any{"name": "first"})
	runtime.PushContext(ContextNameProps, map[string]any{"name": "second"})

	output, err := runtime.Render(context.Background(), "html")
	require.NoError(t, err)
	assert.Equal(t, "second", output)
	assert.True(t, runtime.Context().Has(ContextNameProps))
}
