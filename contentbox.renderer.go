package contentbox

import (
	"context"
	"reflect"
	"time"

	"github.com/go-contentbox/contentbox/internal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Bindings are the context values a render receives besides props.
// Empty values (nil, "", false, 0, empty collections) are not bound.
// Site also selects the site whose root definitions are loaded; it is a
// node name, a Site or a SiteNode.
type Bindings struct {
	Node         any
	DocumentNode any
	Site         any
}

// Renderer turns AFX markup into HTML. It is safe for concurrent use;
// every render builds its own configuration tree and context.
type Renderer struct {
	config    *rendererConfig
	fragments *FragmentFactory
	resources *ResourceLoader
	impls     *internal.ImplementationRegistry
	helpers   *internal.HelperRegistry
	cache     *internal.MemoryContentCache
	inline    *InlineErrorRenderer
	tracer    renderTracer
	logger    *zap.Logger
}

// New creates a Renderer with the given options.
func New(opts ...Option) (*Renderer, error) {
	config := defaultRendererConfig()
	for _, opt := range opts {
		opt(config)
	}

	logger := config.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	resources := config.resources
	if resources == nil {
		resources = NewDefaultResourceLoader(logger)
	}
	for _, pkg := range config.packages {
		resources.RegisterPackage(pkg.key, pkg.fsys)
	}

	autoIncludes := config.autoIncludes
	if autoIncludes == nil {
		includeConfig := DefaultAutoIncludeConfig()
		if config.autoIncludeConf != nil {
			includeConfig = *config.autoIncludeConf
		}
		autoIncludes = NewConfigAutoIncludeResolver(includeConfig, resources, logger)
	}

	impls := internal.NewDefaultImplementationRegistry(logger)
	for _, entry := range config.implementations {
		if entry.fn == nil {
			return nil, NewConfigError(ErrMsgImplementationNil, nil)
		}
		if err := impls.Register(entry.className, entry.fn.toInternal()); err != nil {
			return nil, NewConfigError(ErrMsgImplementationFailed, err)
		}
	}

	helpers := internal.NewDefaultHelperRegistry()
	for _, helper := range config.helpers {
		if helper == nil {
			return nil, NewConfigError(ErrMsgHelperNil, nil)
		}
		if err := helpers.Register(helper.toInternal()); err != nil {
			return nil, NewConfigError(ErrMsgHelperFailed, err)
		}
	}

	inline, err := NewInlineErrorRenderer(config.charset)
	if err != nil {
		return nil, err
	}

	r := &Renderer{
		config: config,
		fragments: NewFragmentFactory(FragmentFactoryConfig{
			Sites:           config.sites,
			TypeDefinitions: config.typeDefinitions,
			AutoIncludes:    autoIncludes,
			Resources:       resources,
			Logger:          logger,
		}),
		resources: resources,
		impls:     impls,
		helpers:   helpers,
		cache:     internal.NewMemoryContentCache(internal.DefaultContentCacheConfig()),
		inline:    inline,
		tracer:    newRenderTracer(config.tracerProvider),
		logger:    logger,
	}

	logger.Debug(LogMsgRendererCreated, zap.Strings(LogFieldPackage, resources.Packages()))
	return r, nil
}

// MustNew creates a new Renderer and panics if there's an error.
func MustNew(opts ...Option) *Renderer {
	r, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return r
}

// Resources returns the resource loader of the renderer
func (r *Renderer) Resources() *ResourceLoader {
	return r.resources
}

// Render transpiles markup, evaluates it with props and bindings and
// returns the HTML. props is a serialized mapping; nil means no props.
// Every failure is returned as a *RenderingError.
func (r *Renderer) Render(ctx context.Context, bindings Bindings, markup string, props *string) (output string, err error) {
	started := time.Now()
	ctx, span := r.tracer.start(ctx, SpanRender, attribute.String(AttrSite, siteLabel(bindings.Site)))
	r.logger.Debug(LogMsgRenderStart, zap.Int(LogFieldMarkupLength, len(markup)))

	defer func() {
		failure := ReportRenderingFailure(err)
		if failure != nil {
			output = ""
			err = failure
			r.logger.Debug(LogMsgRenderFailed,
				zap.Int(LogFieldCode, failure.Code),
				zap.String(LogFieldError, failure.Message),
			)
		} else {
			r.logger.Debug(LogMsgRenderComplete,
				zap.Duration(LogFieldDuration, time.Since(started)),
				zap.Int(LogFieldOutputLength, len(output)),
			)
		}
		r.config.metrics.observeRender(started, output, failure)
		endRenderSpan(span, output, failure)
	}()

	fusion, err := r.transpile(ctx, markup)
	if err != nil {
		return "", err
	}

	propsMap, err := r.config.params.Decode(props)
	if err != nil {
		return "", err
	}

	fragments, err := r.assemble(ctx, bindings.Site, fusion)
	if err != nil {
		return "", err
	}

	fusionConfig, err := r.parse(ctx, fragments)
	if err != nil {
		return "", err
	}

	return r.evaluate(ctx, fusionConfig, propsMap, bindings)
}

// RenderOrInline renders like Render but returns the inline error
// fragment instead of failing.
func (r *Renderer) RenderOrInline(ctx context.Context, bindings Bindings, markup string, props *string) string {
	output, err := r.Render(ctx, bindings, markup, props)
	if err != nil {
		return r.inline.Render(err)
	}
	return output
}

// RenderError formats err as an inline error fragment in the configured charset
func (r *Renderer) RenderError(err error) string {
	return r.inline.Render(err)
}

// Transpile converts markup into Fusion source. Failures are returned as
// a *RenderingError.
func Transpile(markup string) (string, error) {
	fusion, err := internal.TranspileAFX(markup, nil)
	if err != nil {
		return "", ReportRenderingFailure(err)
	}
	return fusion, nil
}

// Transpile converts markup into Fusion source without evaluating it.
// Failures are returned as a *RenderingError.
func (r *Renderer) Transpile(ctx context.Context, markup string) (string, error) {
	fusion, err := r.transpile(ctx, markup)
	if err != nil {
		return "", ReportRenderingFailure(err)
	}
	return fusion, nil
}

// Fragments returns the source fragments a render of markup would parse,
// in precedence order.
func (r *Renderer) Fragments(ctx context.Context, site any, markup string) (*FragmentCollection, error) {
	fusion, err := r.transpile(ctx, markup)
	if err != nil {
		return nil, ReportRenderingFailure(err)
	}
	fragments, err := r.assemble(ctx, site, fusion)
	if err != nil {
		return nil, ReportRenderingFailure(err)
	}
	return fragments, nil
}

// Validate transpiles and parses markup together with all fragments
// without evaluating it.
func (r *Renderer) Validate(ctx context.Context, site any, markup string) error {
	fragments, err := r.Fragments(ctx, site, markup)
	if err != nil {
		return err
	}
	if _, err := r.parse(ctx, fragments); err != nil {
		return ReportRenderingFailure(err)
	}
	return nil
}

// stage runs one pipeline step in its own span and records its duration.
func (r *Renderer) stage(ctx context.Context, name, spanName string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	started := time.Now()
	ctx, span := r.tracer.start(ctx, spanName)
	err := fn(ctx)
	endSpan(span, err)
	r.config.metrics.observeStage(name, started)
	return err
}

func (r *Renderer) transpile(ctx context.Context, markup string) (string, error) {
	var fusion string
	err := r.stage(ctx, StageTranspile, SpanTranspile, func(context.Context) error {
		var err error
		fusion, err = internal.TranspileAFX(markup, r.logger)
		return err
	})
	return fusion, err
}

func (r *Renderer) assemble(ctx context.Context, site any, fusion string) (*FragmentCollection, error) {
	var fragments *FragmentCollection
	err := r.stage(ctx, StageAssemble, SpanAssemble, func(ctx context.Context) error {
		var err error
		fragments, err = r.fragments.Assemble(ctx, site, fusion)
		return err
	})
	if err != nil {
		return nil, err
	}
	r.config.metrics.observeFragments(fragments.Len())
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int(AttrFragments, fragments.Len()))
	return fragments, nil
}

func (r *Renderer) parse(ctx context.Context, fragments *FragmentCollection) (*internal.FusionConfig, error) {
	var config *internal.FusionConfig
	err := r.stage(ctx, StageParse, SpanParse, func(ctx context.Context) error {
		var err error
		config, err = internal.ParseFusion(fragments.Sources(), internal.FusionParseOptions{
			Logger:          r.logger,
			IncludeResolver: r.resources,
			DSL:             r.dsl(),
		})
		return err
	})
	return config, err
}

func (r *Renderer) evaluate(ctx context.Context, config *internal.FusionConfig, props map[string]any, bindings Bindings) (string, error) {
	var output string
	err := r.stage(ctx, StageEvaluate, SpanEvaluate, func(ctx context.Context) error {
		runtime := internal.NewRuntime(config, internal.RuntimeOptions{
			Logger:          r.logger,
			Implementations: r.impls,
			Helpers:         r.helpers,
			ContentCache:    r.cache,
			MaxDepth:        r.config.maxDepth,
		})

		runtime.PushContext(ContextNameProps, props)
		for _, binding := range []struct {
			name  string
			value any
		}{
			{ContextNameNode, bindings.Node},
			{ContextNameDocument, bindings.DocumentNode},
			{ContextNameSite, bindings.Site},
		} {
			if isEmptyBinding(binding.value) {
				r.logger.Debug(LogMsgBindingSkipped, zap.String(LogFieldBinding, binding.name))
				continue
			}
			runtime.PushContext(binding.name, binding.value)
		}
		runtime.SetContentCacheEnabled(false)

		var err error
		output, err = runtime.Render(ctx, EntryPath)
		return err
	})
	return output, err
}

func (r *Renderer) dsl() map[string]internal.DSLTranspiler {
	return map[string]internal.DSLTranspiler{
		DSLNameAFX: func(code string) (string, error) {
			return internal.TranspileAFX(code, r.logger)
		},
	}
}

// isEmptyBinding reports whether a binding value counts as empty
func isEmptyBinding(value any) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Bool:
		return !rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func siteLabel(site any) string {
	name, _, _ := siteNodeName(site)
	return name
}
