package contentbox

import (
	"io/fs"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Option is a functional option for configuring the Renderer.
type Option func(*rendererConfig)

type implementationEntry struct {
	className string
	fn        ImplementationFunc
}

type resourcePackage struct {
	key  string
	fsys fs.FS
}

// rendererConfig holds the internal configuration for a Renderer.
type rendererConfig struct {
	logger          *zap.Logger
	sites           SiteRepository
	typeDefinitions TypeDefinitionGenerator
	autoIncludes    AutoIncludeResolver
	autoIncludeConf *AutoIncludeConfig
	resources       *ResourceLoader
	packages        []resourcePackage
	implementations []implementationEntry
	helpers         []*Helper
	params          ParamsDecoder
	maxDepth        int
	charset         string
	metrics         *Metrics
	tracerProvider  trace.TracerProvider
}

// defaultRendererConfig returns the default renderer configuration.
func defaultRendererConfig() *rendererConfig {
	return &rendererConfig{
		params:   YAMLParamsDecoder{},
		maxDepth: DefaultMaxDepth,
		charset:  DefaultCharset,
	}
}

// WithLogger sets the logger for the renderer and its collaborators.
// Default: nil (no logging)
func WithLogger(logger *zap.Logger) Option {
	return func(c *rendererConfig) {
		c.logger = logger
	}
}

// WithSiteRepository sets where site bindings are looked up.
// Default: none, so any site binding fails with ErrSiteNotFound
func WithSiteRepository(repo SiteRepository) Option {
	return func(c *rendererConfig) {
		c.sites = repo
	}
}

// WithSites is a shortcut for an in-memory site repository.
func WithSites(sites ...Site) Option {
	return func(c *rendererConfig) {
		c.sites = NewMemorySiteRepository(sites...)
	}
}

// WithNodeTypes sets the generator of node type prototypes, usually a
// *NodeTypeRegistry.
func WithNodeTypes(generator TypeDefinitionGenerator) Option {
	return func(c *rendererConfig) {
		c.typeDefinitions = generator
	}
}

// WithAutoIncludes sets the resolver for automatically included packages.
// Default: Neos.Fusion only
func WithAutoIncludes(resolver AutoIncludeResolver) Option {
	return func(c *rendererConfig) {
		c.autoIncludes = resolver
	}
}

// WithAutoIncludeConfig includes packages according to config, read from
// the renderer's resource loader.
func WithAutoIncludeConfig(config AutoIncludeConfig) Option {
	return func(c *rendererConfig) {
		c.autoIncludeConf = &config
	}
}

// WithResourceLoader replaces the resource loader.
// Default: the embedded Neos.Fusion and ContentBox packages
func WithResourceLoader(loader *ResourceLoader) Option {
	return func(c *rendererConfig) {
		c.resources = loader
	}
}

// WithResourcePackage serves fsys as resource://<packageKey>/.
func WithResourcePackage(packageKey string, fsys fs.FS) Option {
	return func(c *rendererConfig) {
		c.packages = append(c.packages, resourcePackage{key: packageKey, fsys: fsys})
	}
}

// WithImplementation registers the implementation of an @class name.
// Built-in classes cannot be replaced.
func WithImplementation(className string, fn ImplementationFunc) Option {
	return func(c *rendererConfig) {
		c.implementations = append(c.implementations, implementationEntry{className: className, fn: fn})
	}
}

// WithHelper registers an Eel helper.
func WithHelper(helper *Helper) Option {
	return func(c *rendererConfig) {
		c.helpers = append(c.helpers, helper)
	}
}

// WithParamsDecoder replaces the decoder of serialized props.
// Default: YAMLParamsDecoder
func WithParamsDecoder(decoder ParamsDecoder) Option {
	return func(c *rendererConfig) {
		if decoder != nil {
			c.params = decoder
		}
	}
}

// WithMaxDepth sets the maximum evaluation nesting depth.
// Default: 100
func WithMaxDepth(depth int) Option {
	return func(c *rendererConfig) {
		c.maxDepth = depth
	}
}

// WithCharset sets the charset of inline error output.
// Default: UTF-8
func WithCharset(charset string) Option {
	return func(c *rendererConfig) {
		c.charset = charset
	}
}

// WithMetrics enables Prometheus metrics.
// Default: nil (no metrics)
func WithMetrics(metrics *Metrics) Option {
	return func(c *rendererConfig) {
		c.metrics = metrics
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider.
// Default: the global provider
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(c *rendererConfig) {
		c.tracerProvider = provider
	}
}
