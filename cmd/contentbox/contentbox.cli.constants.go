package main

// Command names
const (
	CmdNameRender    = "render"
	CmdNameTranspile = "transpile"
	CmdNameValidate  = "validate"
	CmdNameVersion   = "version"
)

// Flag names - long form
const (
	FlagTemplate     = "template"
	FlagProps        = "props"
	FlagPropsInline  = "props-inline"
	FlagOutput       = "output"
	FlagSite         = "site"
	FlagSitesDB      = "sites-db"
	FlagSitesDriver  = "sites-driver"
	FlagNodeTypes    = "node-types"
	FlagAutoInclude  = "auto-include"
	FlagResources    = "resources"
	FlagInlineErrors = "inline-errors"
	FlagCharset      = "charset"
	FlagVerbose      = "verbose"
	FlagFormat       = "format"
)

// Flag names - short form
const (
	FlagTemplateShort = "t"
	FlagPropsShort    = "p"
	FlagOutputShort   = "o"
	FlagSiteShort     = "s"
	FlagVerboseShort  = "v"
	FlagFormatShort   = "F"
)

// Flag default values
const (
	FlagDefaultOutput = "-" // stdout
	FlagDefaultFormat = OutputFormatText
	FlagDefaultDriver = "sqlite"
)

// Output formats
const (
	OutputFormatText = "text"
	OutputFormatJSON = "json"
)

// Exit codes
const (
	ExitCodeSuccess         = 0
	ExitCodeError           = 1
	ExitCodeUsageError      = 2
	ExitCodeValidationError = 3
	ExitCodeInputError      = 4
)

// Input source indicators
const (
	InputSourceStdin = "-"
)

// Separators in flag values
const (
	SiteSeparator     = "="
	ResourceSeparator = "="
)

// Error messages - ALL must be constants
const (
	ErrMsgUsage             = "invalid usage"
	ErrMsgMissingTemplate   = "template source required"
	ErrMsgReadFileFailed    = "failed to read file"
	ErrMsgWriteOutputFailed = "failed to write output"
	ErrMsgPropsConflict     = "--props and --props-inline are mutually exclusive"
	ErrMsgInvalidResource   = "resource flag must be Package.Key=directory"
	ErrMsgInvalidSite       = "site flag must be name or name=Package.Key"
	ErrMsgSitesDBFailed     = "failed to open sites database"
	ErrMsgNodeTypesFailed   = "failed to load node types"
	ErrMsgAutoIncludeFailed = "failed to load auto-include config"
	ErrMsgRendererFailed    = "failed to create renderer"
	ErrMsgRenderFailed      = "render failed"
	ErrMsgTranspileFailed   = "transpile failed"
	ErrMsgValidationFailed  = "template is invalid"
	ErrMsgInvalidFormat     = "invalid output format"
	ErrMsgJSONMarshalFailed = "failed to marshal JSON"
)

// CLI metadata
const (
	CLIName        = "contentbox"
	CLIDescription = "Render AFX templates to HTML"
	CLILong        = `contentbox transpiles AFX markup to Fusion, merges it with the
built-in prototypes, site definitions, generated node type prototypes and
auto-included packages, and renders the "html" entry point.`
)

// Help texts
const (
	HelpTemplate     = `template file (use "-" for stdin)`
	HelpProps        = "YAML props file"
	HelpPropsInline  = "YAML props string"
	HelpOutput       = "output file (default: stdout)"
	HelpSite         = "site node name, optionally with its package as name=Package.Key"
	HelpSitesDB      = "site database connection string"
	HelpSitesDriver  = "site database driver: sqlite or postgres"
	HelpNodeTypes    = "NodeTypes.yaml to generate prototypes from"
	HelpAutoInclude  = "YAML file with an autoInclude mapping"
	HelpResources    = "additional resource package as Package.Key=directory (repeatable)"
	HelpInlineErrors = "print failures as an inline error fragment on stdout"
	HelpCharset      = "charset of inline error fragments"
	HelpVerbose      = "log pipeline steps to stderr"
	HelpFormat       = "output format: text, json"
)

// Version output
const (
	VersionTextTemplate = "contentbox version %s\nCommit: %s\nBuilt: %s\nGo: %s\n"
)

// Validation output
const (
	ValidationTextSuccess = "Template is valid"
	ValidationTextFailure = "Template is invalid"
)

// File permission constant
const (
	FilePermissions = 0644
)

// Format string constants
const (
	FmtError          = "%s\n"
	FmtErrorWithCause = "%s: %v\n"
	FmtNewline        = "\n"
)
