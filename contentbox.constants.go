package contentbox

import "time"

// Entry point and context names
const (
	EntryPath           = "html"
	EntryAssignment     = EntryPath + " = "
	ContextNameProps    = "props"
	ContextNameNode     = "node"
	ContextNameDocument = "documentNode"
	ContextNameSite     = "site"
	DSLNameAFX          = "afx"
	DefaultMaxDepth     = 100
)

// Resource locations
const (
	ResourceScheme     = "resource://"
	ResourceRootFusion = "Private/Fusion/Root.fusion"
	PackageNeosFusion  = "Neos.Fusion"
	PackageContentBox  = "ContentBox"
	ContentBoxRootURI  = ResourceScheme + PackageContentBox + "/" + ResourceRootFusion
	resourceEmbedRoot  = "resources"
	resourcePathSep    = "/"
	recursiveGlob      = "**"
)

// Fragment origins for sources without a file
const (
	OriginInline    = "inline"
	OriginGenerated = "generated"
	OriginTemplate  = "template"
	OriginNodeTypes = "nodetypes"
)

// Node type generation
const (
	DefaultBasePrototype      = "Neos.Fusion:Component"
	NodeTypeSeparator         = ":"
	nodePropertyExprFormat    = "${Node.property(node, %s)}"
	generatedPrototypeFormat  = "prototype(%s) < prototype(%s) {\n"
	generatedPropertyFormat   = "    %s = %s\n"
	generatedPrototypeClosing = "}\n"
)

// Site repository defaults
const (
	SQLDriverPostgres         = "postgres"
	SQLDriverSQLite           = "sqlite"
	SQLDefaultTablePrefix     = "contentbox_"
	SQLDefaultMaxOpenConns    = 10
	SQLDefaultMaxIdleConns    = 2
	SQLDefaultConnMaxLifetime = 5 * time.Minute
	SQLDefaultQueryTimeout    = 30 * time.Second
)

// Inline error rendering
const (
	DefaultCharset   = "UTF-8"
	InlineErrorOpen  = `<span style="font-family: monospace; max-height: none; font-size: 1rem; width: 100%; margin: 30px auto; color: #fff; background: #d9534f; box-shadow: 0 1px 10px rgba(0,0,0,0.1); padding: 5% 12px; display: block; height: auto;">`
	InlineErrorClose = `</span>`
)

// Metrics and tracing
const (
	DefaultMetricsNamespace = "contentbox"
	DefaultTracerName       = "github.com/go-contentbox/contentbox"
	SpanRender              = "contentbox.render"
	SpanTranspile           = "contentbox.transpile"
	SpanAssemble            = "contentbox.assemble"
	SpanParse               = "contentbox.parse"
	SpanEvaluate            = "contentbox.evaluate"
	AttrSite                = "contentbox.site"
	AttrFragments           = "contentbox.fragments"
	AttrErrorCode           = "contentbox.error_code"
	AttrOutputLength        = "contentbox.output_length"
	StatusSuccess           = "success"
	StatusError             = "error"
	StageTranspile          = "transpile"
	StageAssemble           = "assemble"
	StageParse              = "parse"
	StageEvaluate           = "evaluate"
)

// Log message constants
const (
	LogMsgRendererCreated    = "renderer created"
	LogMsgRenderStart        = "starting render"
	LogMsgRenderComplete     = "render complete"
	LogMsgRenderFailed       = "render failed"
	LogMsgFragmentsAssembled = "fragments assembled"
	LogMsgSiteResolved       = "site resolved"
	LogMsgSiteMissing        = "site lookup failed"
	LogMsgResourceLoaded     = "resource loaded"
	LogMsgIncludeResolved    = "include resolved"
	LogMsgNodeTypesLoaded    = "node types loaded"
	LogMsgPrototypeGenerated = "prototype generated"
	LogMsgAutoIncludeAdded   = "auto-include added"
	LogMsgSQLMigrated        = "site schema migrated"
	LogMsgSQLOpened          = "site repository opened"
	LogMsgBindingSkipped     = "empty binding skipped"
)

// Log field names
const (
	LogFieldSite         = "site"
	LogFieldURI          = "uri"
	LogFieldPattern      = "pattern"
	LogFieldCount        = "count"
	LogFieldFragments    = "fragment_count"
	LogFieldNodeType     = "node_type"
	LogFieldPackage      = "package"
	LogFieldDriver       = "driver"
	LogFieldBinding      = "binding"
	LogFieldCode         = "code"
	LogFieldDuration     = "duration"
	LogFieldOutputLength = "output_length"
	LogFieldMarkupLength = "markup_length"
	LogFieldError        = "error"
)

// Error metadata keys
const (
	MetaKeySite       = "site"
	MetaKeyURI        = "uri"
	MetaKeyPackage    = "package"
	MetaKeyCode       = "code"
	MetaKeyKind       = "kind"
	MetaKeyDriver     = "driver"
	MetaKeyCharset    = "charset"
	MetaKeyNodeType   = "node_type"
	MetaKeyLegacyCode = "legacy_code"
	MetaKeyContext    = "context"
	MetaResourceSite  = "site"
	MetaResourceURI   = "resource"
)
