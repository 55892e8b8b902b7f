package contentbox

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newTestRenderer(t *testing.T, opts ...Option) *Renderer {
	t.Helper()
	base := []Option{
		WithResourceLoader(testResources()),
		WithSites(Site{NodeName: "acme", Name: "Acme", PackageKey: "Acme.Site"}),
	}
	r, err := New(append(base, opts...)...)
	require.NoError(t, err)
	return r
}

func TestRenderer_Render(t *testing.T) {
	tests := []struct {
		name     string
		bindings Bindings
		markup   string
		props    *string
		expected string
	}{
		{
			name:     "hello world",
			markup:   "<div>Hello {props.name}</div>",
			props:    strPtr("name: World"),
			expected: "<div>Hello World</div>",
		},
		{
			name:     "static markup is reproduced",
			markup:   `<section class="intro"><h1>Title</h1><p>Body text</p></section>`,
			expected: `<section class="intro"><h1>Title</h1><p>Body text</p></section>`,
		},
		{
			name:     "plain text",
			markup:   "just text",
			expected: "just text",
		},
		{
			name:     "absent props",
			markup:   "<p>[{props.missing}]</p>",
			expected: "<p>[]</p>",
		},
		{
			name:     "node binding",
			bindings: Bindings{Node: map[string]any{"title": "Node title"}},
			markup:   "<h1>{node.title}</h1>",
			expected: "<h1>Node title</h1>",
		},
		{
			name:     "document node binding",
			bindings: Bindings{DocumentNode: map[string]any{"uri": "/about"}},
			markup:   `<a href={documentNode.uri}>About</a>`,
			expected: `<a href="/about">About</a>`,
		},
		{
			name:     "empty bindings are not pushed",
			bindings: Bindings{Node: "", DocumentNode: map[string]any{}},
			markup:   "<p>{node ? 'bound' : 'unbound'}</p>",
			expected: "<p>unbound</p>",
		},
		{
			name:     "built-in element prototype",
			markup:   `<ContentBox:Element tagName="section" class="box">Hi</ContentBox:Element>`,
			expected: `<section class="box">Hi</section>`,
		},
		{
			name:     "built-in text prototype escapes",
			markup:   `<ContentBox:Text text={props.text} crop={3} suffix="..." />`,
			props:    strPtr("text: '<b>bold'"),
			expected: "&lt;b&gt;...",
		},
		{
			name:     "site root definitions",
			bindings: Bindings{Site: "acme"},
			markup:   `<p><Acme:Greeting /></p>`,
			expected: "<p>from site</p>",
		},
	}

	loader := testResources()
	loader.RegisterPackage("Acme.Site", fstest.MapFS{
		"Private/Fusion/Root.fusion": {Data: []byte(
			"prototype(Acme:Greeting) < prototype(Neos.Fusion:Value) {\n    value = 'from site'\n}\n",
		)},
	})
	r := newTestRenderer(t, WithResourceLoader(loader))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := r.Render(context.Background(), tt.bindings, tt.markup, tt.props)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, output)
		})
	}
}

func TestRenderer_Render_Failures(t *testing.T) {
	tests := []struct {
		name     string
		bindings Bindings
		markup   string
		props    *string
		code     int
		target   error
	}{
		{name: "unclosed tag", markup: "<div>", code: CodeTranspileFailure},
		{name: "mismatched closing tag", markup: "<div></p>", code: CodeTranspileFailure},
		{name: "malformed markup wins over broken props", markup: "<div>", props: strPtr("a: ["), code: CodeTranspileFailure},
		{name: "unknown site", bindings: Bindings{Site: "unknown"}, markup: "<p>x</p>", code: CodeEvaluationFailure, target: ErrSiteNotFound},
		{name: "invalid site binding", bindings: Bindings{Site: 42}, markup: "<p>x</p>", code: CodeEvaluationFailure},
		{name: "props are not a mapping", markup: "<p>x</p>", props: strPtr("- a"), code: CodeEvaluationFailure},
		{name: "broken props", markup: "<p>x</p>", props: strPtr("name: [x"), code: CodeEvaluationFailure},
		{name: "failing helper", markup: "<p>{String.crop(props.text)}</p>", code: CodeEvaluationFailure},
	}

	r := newTestRenderer(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := r.Render(context.Background(), tt.bindings, tt.markup, tt.props)
			require.Error(t, err)
			assert.Empty(t, output)

			var renderErr *RenderingError
			require.ErrorAs(t, err, &renderErr)
			assert.Equal(t, tt.code, renderErr.Code)
			assert.NotEmpty(t, renderErr.Message)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
		})
	}
}

func TestRenderer_TranspileFailureNeverEvaluates(t *testing.T) {
	var calls int
	r := newTestRenderer(t, WithHelper(&Helper{
		Name:    "Test.count",
		MinArgs: 0,
		MaxArgs: 0,
		Fn: func([]any) (any, error) {
			calls++
			return "", nil
		},
	}))

	_, err := r.Render(context.Background(), Bindings{}, "<p>{Test.count()}<div></p>", nil)
	require.Error(t, err)
	assert.True(t, err.(*RenderingError).IsTranspileFailure())
	assert.Zero(t, calls)
}

func TestRenderer_Precedence(t *testing.T) {
	loader := testResources()
	loader.RegisterPackage("Acme.Site", fstest.MapFS{
		"Private/Fusion/Root.fusion": {Data: []byte(
			"html = 'site default'\n" +
				"prototype(ContentBox:Element) {\n    tagName = 'article'\n}\n" +
				"prototype(Acme:Badge) < prototype(Neos.Fusion:Value) {\n    value = '[site]'\n}\n",
		)},
	})
	r := newTestRenderer(t, WithResourceLoader(loader))
	ctx := context.Background()

	t.Run("template overrides site for the entry path", func(t *testing.T) {
		output, err := r.Render(ctx, Bindings{Site: "acme"}, "<p>template</p>", nil)
		require.NoError(t, err)
		assert.Equal(t, "<p>template</p>", output)
	})

	t.Run("site defaults do not override built-ins", func(t *testing.T) {
		output, err := r.Render(ctx, Bindings{Site: "acme"}, "<ContentBox:Element>x</ContentBox:Element>", nil)
		require.NoError(t, err)
		assert.Equal(t, "<div>x</div>", output)
	})

	t.Run("template overrides built-ins", func(t *testing.T) {
		output, err := r.Render(ctx, Bindings{Site: "acme"}, `<ContentBox:Element tagName="aside">x</ContentBox:Element>`, nil)
		require.NoError(t, err)
		assert.Equal(t, "<aside>x</aside>", output)
	})

	t.Run("site definitions compose with the template", func(t *testing.T) {
		output, err := r.Render(ctx, Bindings{Site: "acme"}, "<p>{props.x}<Acme:Badge /></p>", strPtr("x: a"))
		require.NoError(t, err)
		assert.Equal(t, "<p>a[site]</p>", output)
	})
}

func TestRenderer_PropsAreNeverCached(t *testing.T) {
	r := newTestRenderer(t)
	markup := "<span>{props.n}</span>"

	first, err := r.Render(context.Background(), Bindings{}, markup, strPtr("n: 1"))
	require.NoError(t, err)
	second, err := r.Render(context.Background(), Bindings{}, markup, strPtr("n: 2"))
	require.NoError(t, err)

	assert.Equal(t, "<span>1</span>", first)
	assert.Equal(t, "<span>2</span>", second)
}

func TestRenderer_CachedSegmentsAreNotStored(t *testing.T) {
	loader := testResources()
	loader.RegisterPackage("Acme.Site", fstest.MapFS{
		"Private/Fusion/Root.fusion": {Data: []byte(
			"prototype(Acme:Counter) < prototype(Neos.Fusion:Value) {\n" +
				"    value = ${props.n}\n" +
				"    @cache {\n" +
				"        mode = 'cached'\n" +
				"        entryIdentifier.static = 'counter'\n" +
				"    }\n" +
				"}\n",
		)},
	})
	r := newTestRenderer(t, WithResourceLoader(loader))
	ctx := context.Background()

	for _, n := range []string{"1", "2"} {
		output, err := r.Render(ctx, Bindings{Site: "acme"}, "<b><Acme:Counter /></b>", strPtr("n: "+n))
		require.NoError(t, err)
		assert.Equal(t, "<b>"+n+"</b>", output)
	}
	assert.Zero(t, r.cache.Len())
}

func TestTranspile(t *testing.T) {
	fusion, err := Transpile("<i>{props.x}</i>")
	require.NoError(t, err)
	assert.Contains(t, fusion, "${props.x}")

	_, err = Transpile("<i>")
	require.Error(t, err)
	assert.True(t, err.(*RenderingError).IsTranspileFailure())
}

func TestRenderer_NodeTypes(t *testing.T) {
	registry := NewNodeTypeRegistry("", nil)
	require.NoError(t, registry.Load([]byte(`
'Acme:Content.Quote':
  options:
    fusion:
      prototypeGenerator: 'Neos.Fusion:Value'
  properties:
    value:
      type: string
`)))

	r := newTestRenderer(t, WithNodeTypes(registry))
	output, err := r.Render(context.Background(),
		Bindings{Node: map[string]any{"value": "quoted"}},
		"<blockquote><Acme:Content.Quote /></blockquote>", nil)
	require.NoError(t, err)
	assert.Equal(t, "<blockquote>quoted</blockquote>", output)
}

func TestRenderer_Extensions(t *testing.T) {
	loader := testResources()
	loader.RegisterPackage("Acme.Site", fstest.MapFS{
		"Private/Fusion/Root.fusion": {Data: []byte(
			"prototype(Acme:Upper) {\n    @class = 'Acme\\\\Upper'\n    value = ''\n}\n",
		)},
	})

	r := newTestRenderer(t,
		WithResourceLoader(loader),
		WithImplementation("Acme\\Upper", func(object FusionObject) (any, error) {
			value, err := object.StringProperty("value")
			if err != nil {
				return nil, err
			}
			return strings.ToUpper(value), nil
		}),
		WithHelper(&Helper{
			Name:    "Acme.reverse",
			MinArgs: 1,
			MaxArgs: 1,
			Fn: func(args []any) (any, error) {
				runes := []rune(args[0].(string))
				for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
					runes[i], runes[j] = runes[j], runes[i]
				}
				return string(runes), nil
			},
		}),
	)

	output, err := r.Render(context.Background(), Bindings{Site: "acme"},
		`<p><Acme:Upper value={props.word} /> {Acme.reverse(props.word)}</p>`, strPtr("word: box"))
	require.NoError(t, err)
	assert.Equal(t, "<p>BOX xob</p>", output)
}

func TestRenderer_ContextCancelled(t *testing.T) {
	r := newTestRenderer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Render(ctx, Bindings{}, "<p>x</p>", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, CodeEvaluationFailure, err.(*RenderingError).Code)
}

func TestRenderer_RenderOrInline(t *testing.T) {
	r := newTestRenderer(t)
	ctx := context.Background()

	assert.Equal(t, "<p>ok</p>", r.RenderOrInline(ctx, Bindings{}, "<p>ok</p>", nil))

	inline := r.RenderOrInline(ctx, Bindings{}, "<script>", nil)
	assert.True(t, strings.HasPrefix(inline, InlineErrorOpen))
	assert.True(t, strings.HasSuffix(inline, InlineErrorClose))

	body := strings.TrimSuffix(strings.TrimPrefix(inline, InlineErrorOpen), InlineErrorClose)
	assert.NotContains(t, body, "<")

	formatted := r.RenderError(errors.New(`<script>alert("x")</script>`))
	assert.Contains(t, formatted, `&lt;script&gt;alert("x")&lt;/script&gt;`)
	assert.NotContains(t, formatted, "<script>")
}

func TestRenderer_Transpile(t *testing.T) {
	r := newTestRenderer(t)

	fusion, err := r.Transpile(context.Background(), "<b>x</b>")
	require.NoError(t, err)
	assert.Equal(t, "Neos.Fusion:Tag {\n    tagName = 'b'\n    content = 'x'\n}", fusion)

	_, err = r.Transpile(context.Background(), "<b>")
	require.Error(t, err)
	assert.True(t, err.(*RenderingError).IsTranspileFailure())
}

func TestRenderer_Fragments(t *testing.T) {
	r := newTestRenderer(t)
	ctx := context.Background()

	withSite, err := r.Fragments(ctx, "acme", "<p>x</p>")
	require.NoError(t, err)
	withoutSite, err := r.Fragments(ctx, nil, "<p>x</p>")
	require.NoError(t, err)

	assert.Equal(t, withoutSite.Len()+1, withSite.Len())

	origins := make([]string, 0, withSite.Len())
	for _, fragment := range withSite.Fragments() {
		origins = append(origins, fragment.Origin())
	}
	assert.Equal(t, ResourceURI("Acme.Site", ResourceRootFusion), origins[0])
	assert.Equal(t, OriginTemplate, origins[len(origins)-1])
	assert.Contains(t, withSite.Fragments()[withSite.Len()-1].Code(), EntryAssignment)

	_, err = r.Fragments(ctx, "unknown", "<p>x</p>")
	assert.ErrorIs(t, err, ErrSiteNotFound)
}

func TestRenderer_Validate(t *testing.T) {
	r := newTestRenderer(t)
	ctx := context.Background()

	assert.NoError(t, r.Validate(ctx, "acme", "<p>{props.x}</p>"))

	err := r.Validate(ctx, nil, "<p>")
	require.Error(t, err)
	assert.True(t, err.(*RenderingError).IsTranspileFailure())

	err = r.Validate(ctx, nil, "<p>{props.x</p>")
	require.Error(t, err)
}

func TestRenderer_Metrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(WithMetricsRegistry(registry), WithMetricsNamespace("test"))
	r := newTestRenderer(t, WithMetrics(metrics))
	ctx := context.Background()

	_, err := r.Render(ctx, Bindings{}, "<p>x</p>", nil)
	require.NoError(t, err)
	_, err = r.Render(ctx, Bindings{}, "<p>", nil)
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.rendersTotal.WithLabelValues(StatusSuccess, "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.rendersTotal.WithLabelValues(StatusError, strconv.Itoa(CodeTranspileFailure))))

	count, err := testutil.GatherAndCount(registry, "test_stage_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestRenderer_TracerAndLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	r := newTestRenderer(t,
		WithLogger(zap.New(core)),
		WithTracerProvider(noop.NewTracerProvider()),
	)

	_, err := r.Render(context.Background(), Bindings{Node: ""}, "<p>x</p>", nil)
	require.NoError(t, err)
	_, err = r.Render(context.Background(), Bindings{}, "<p>", nil)
	require.Error(t, err)

	assert.Equal(t, 1, logs.FilterMessage(LogMsgRenderComplete).Len())
	assert.Equal(t, 1, logs.FilterMessage(LogMsgRenderFailed).Len())
	assert.GreaterOrEqual(t, logs.FilterMessage(LogMsgBindingSkipped).Len(), 3)
}

func TestRenderer_Concurrent(t *testing.T) {
	r := newTestRenderer(t)

	var wg sync.WaitGroup
	results := make([]string, 20)
	errs := make([]error, 20)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			props := "n: " + strings.Repeat("x", i)
			results[i], errs[i] = r.Render(context.Background(), Bindings{Site: "acme"}, "<i>{props.n}</i>", &props)
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, "<i>"+strings.Repeat("x", i)+"</i>", results[i])
	}
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		msg  string
	}{
		{name: "nil implementation", opts: []Option{WithImplementation("Acme\\X", nil)}, msg: ErrMsgImplementationNil},
		{
			name: "core class collision",
			opts: []Option{WithImplementation("Neos\\Fusion\\FusionObjects\\ValueImplementation", func(FusionObject) (any, error) { return nil, nil })},
			msg:  ErrMsgImplementationFailed,
		},
		{name: "nil helper", opts: []Option{WithHelper(nil)}, msg: ErrMsgHelperNil},
		{
			name: "helper collision",
			opts: []Option{WithHelper(&Helper{Name: "String.crop", MaxArgs: -1, Fn: func([]any) (any, error) { return nil, nil }})},
			msg:  ErrMsgHelperFailed,
		},
		{name: "unknown charset", opts: []Option{WithCharset("no-such-charset")}, msg: ErrMsgUnsupportedCharset},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
			assert.Panics(t, func() { MustNew(tt.opts...) })
		})
	}
}

func TestIsEmptyBinding(t *testing.T) {
	var nilSite *Site
	tests := []struct {
		name  string
		value any
		empty bool
	}{
		{"nil", nil, true},
		{"empty string", "", true},
		{"string", "acme", false},
		{"false", false, true},
		{"true", true, false},
		{"zero", 0, true},
		{"zero float", 0.0, true},
		{"number", 7, false},
		{"empty map", map[string]any{}, true},
		{"map", map[string]any{"a": 1}, false},
		{"empty slice", []string{}, true},
		{"nil pointer", nilSite, true},
		{"struct", Site{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.empty, isEmptyBinding(tt.value))
		})
	}
}
