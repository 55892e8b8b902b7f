package internal

// Character constants
const (
	CharEquals      = '='
	CharDoubleQuote = '"'
	CharSingleQuote = '\''
	CharBacktick    = '`'
	CharBackslash   = '\\'
	CharSlash       = '/'
	CharNewline     = '\n'
	CharSpace       = ' '
	CharTab         = '\t'
	CharCarriageRet = '\r'
	CharOpenBrace   = '{'
	CharCloseBrace  = '}'
	CharLessThan    = '<'
	CharGreaterThan = '>'
	CharAt          = '@'
	CharDot         = '.'
	CharColon       = ':'
	CharHash        = '#'
	CharDollar      = '$'
	CharOpenParen   = '('
	CharCloseParen  = ')'
)

// Log message constants
const (
	LogMsgAFXParseStart      = "starting afx parse"
	LogMsgAFXParseEnd        = "afx parse complete"
	LogMsgAFXTranspiled      = "afx transpiled to fusion"
	LogMsgFusionParseStart   = "starting fusion parse"
	LogMsgFusionParseEnd     = "fusion parse complete"
	LogMsgFusionSourceParsed = "fusion source parsed"
	LogMsgFusionInclude      = "fusion include resolved"
	LogMsgRuntimeCreated     = "runtime created"
	LogMsgRuntimeRenderStart = "starting render"
	LogMsgRuntimeRenderEnd   = "render complete"
	LogMsgContextPushed      = "context pushed"
	LogMsgContentCacheHit    = "content cache hit"
	LogMsgContentCacheStore  = "content cache entry stored"
	LogMsgContentCacheToggle = "content cache toggled"
	LogMsgRegistryCreated    = "implementation registry created"
	LogMsgImplRegistered     = "object implementation registered"
	LogMsgImplCollision      = "object implementation registration collision - first-come-wins"
)

// Log field names
const (
	LogFieldSource         = "source_length"
	LogFieldNodes          = "node_count"
	LogFieldOrigin         = "origin"
	LogFieldSources        = "source_count"
	LogFieldPrototypes     = "prototype_count"
	LogFieldPath           = "path"
	LogFieldName           = "name"
	LogFieldImplementation = "implementation"
	LogFieldEnabled        = "enabled"
	LogFieldPattern        = "pattern"
	LogFieldDuration       = "duration"
	LogFieldOutputLength   = "output_length"
)

// Error format string constants (for Error() methods)
const (
	ErrFmtWithPosition = "%s at %s"
	ErrFmtWithOrigin   = "%s in %s at %s"
	ErrFmtWithCause    = "%s: %v"
	ErrFmtWithDetail   = "%s: %s"
	ErrFmtWithPath     = "%s [%s]"
)

// String value constants for type conversions
const (
	StringValueNil   = "nil"
	StringValueTrue  = "true"
	StringValueFalse = "false"
	StringValueEmpty = ""
)

// Numeric constants for conversions
const (
	FloatFormatFlag   = 'f'
	FloatPrecisionAll = -1
	FloatBitSize64    = 64
	IntBase10         = 10
)

// Display limits for debug String() output
const (
	MaxStringDisplayLength = 50
	TruncatedStringLength  = 47
	TruncationSuffix       = "..."
)
