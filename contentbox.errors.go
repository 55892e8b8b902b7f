package contentbox

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-contentbox/contentbox/internal"
	"github.com/itsatony/go-cuserr"
)

// Stable numeric classification codes
const (
	CodeEvaluationFailure = 1600950000
	CodeTranspileFailure  = 1600960000
	CodeSiteNotFound      = 1677245517
)

// Rendering failure kinds
const (
	KindTranspileFailure  = "TRANSPILE_FAILURE"
	KindEvaluationFailure = "EVALUATION_FAILURE"
)

// Error code constants for categorization
const (
	ErrCodeSiteNotFound = "CONTENTBOX_SITE_NOT_FOUND"
	ErrCodeResource     = "CONTENTBOX_RESOURCE"
	ErrCodeConfig       = "CONTENTBOX_CONFIG"
	ErrCodeProps        = "CONTENTBOX_PROPS"
	ErrCodeCharset      = "CONTENTBOX_CHARSET"
	ErrCodeSiteStore    = "CONTENTBOX_SITE_STORE"
)

// Error message constants
const (
	ErrMsgSiteNotFound         = "site not found"
	ErrFmtSiteNotFound         = "no site found for node name %q"
	ErrMsgInvalidSiteBinding   = "site binding must be a node name or expose NodeName()"
	ErrMsgInvalidResourceURI   = "invalid resource uri"
	ErrMsgUnknownPackage       = "no resources registered for package"
	ErrMsgResourceNotFound     = "resource not found"
	ErrMsgResourceReadFailed   = "resource could not be read"
	ErrMsgIncludeInvalid       = "invalid include pattern"
	ErrMsgNodeTypesInvalid     = "node type definitions could not be decoded"
	ErrMsgNodeTypeInvalidName  = "node type name must have the form Vendor:Name"
	ErrMsgAutoIncludeInvalid   = "auto-include configuration could not be decoded"
	ErrMsgPropsInvalid         = "props could not be decoded"
	ErrMsgPropsNotMapping      = "props must decode to a mapping"
	ErrMsgUnsupportedCharset   = "unsupported charset"
	ErrMsgSiteNameEmpty        = "site node name cannot be empty"
	ErrMsgSitePackageEmpty     = "site package key cannot be empty"
	ErrMsgImplementationNil    = "implementation function cannot be nil"
	ErrMsgImplementationFailed = "implementation could not be registered"
	ErrMsgHelperNil            = "helper cannot be nil"
	ErrMsgHelperFailed         = "helper could not be registered"
	ErrMsgSQLEmptyDSN          = "site repository connection string is empty"
	ErrMsgSQLUnsupportedDriver = "unsupported site repository driver"
	ErrMsgSQLConnectionFailed  = "failed to connect to site repository"
	ErrMsgSQLQueryFailed       = "site repository query failed"
	ErrMsgSQLMigrationFailed   = "site repository migration failed"
	ErrMsgSQLClosed            = "site repository is closed"
)

// ErrSiteNotFound is matched by errors.Is for site lookups without result
var ErrSiteNotFound = errors.New(ErrMsgSiteNotFound)

// RenderingError is the single error value returned by Renderer.Render.
// Code is CodeTranspileFailure or CodeEvaluationFailure.
type RenderingError struct {
	Kind    string
	Code    int
	Message string
	Cause   error
}

// Error returns the message of the classified failure
func (e *RenderingError) Error() string {
	return e.Message
}

// Unwrap returns the original error
func (e *RenderingError) Unwrap() error {
	return e.Cause
}

// IsTranspileFailure reports whether the markup could not be transpiled
func (e *RenderingError) IsTranspileFailure() bool {
	return e.Code == CodeTranspileFailure
}

// CustomError returns the failure as a cuserr error carrying the kind and
// numeric code as metadata
func (e *RenderingError) CustomError() *cuserr.CustomError {
	var err *cuserr.CustomError
	if e.Cause != nil {
		err = cuserr.WrapStdError(e.Cause, e.Kind, e.Message)
	} else {
		err = cuserr.NewValidationError(e.Kind, e.Message)
	}
	return err.
		WithMetadata(MetaKeyKind, e.Kind).
		WithMetadata(MetaKeyCode, strconv.Itoa(e.Code))
}

// ReportRenderingFailure classifies err into a RenderingError.
//
// Markup errors become TRANSPILE_FAILURE. Everything else, including parse
// errors, site lookups and runtime failures, becomes EVALUATION_FAILURE.
// For runtime errors the message is taken from the error the runtime wrapped.
func ReportRenderingFailure(err error) *RenderingError {
	if err == nil {
		return nil
	}

	var rendering *RenderingError
	if errors.As(err, &rendering) {
		return rendering
	}

	var parseErr *internal.FusionParseError
	if errors.As(err, &parseErr) {
		return newRenderingError(KindEvaluationFailure, CodeEvaluationFailure, parseErr.Error(), err)
	}

	var afxErr *internal.AFXError
	if errors.As(err, &afxErr) {
		return newRenderingError(KindTranspileFailure, CodeTranspileFailure, afxErr.Error(), err)
	}

	var runtimeErr *internal.RuntimeError
	if errors.As(err, &runtimeErr) {
		message := runtimeErr.Error()
		if runtimeErr.Cause != nil {
			message = failureMessage(runtimeErr.Cause)
		}
		return newRenderingError(KindEvaluationFailure, CodeEvaluationFailure, message, err)
	}

	return newRenderingError(KindEvaluationFailure, CodeEvaluationFailure, failureMessage(err), err)
}

// failureMessage returns err as text without the error code prefix that
// cuserr.WrapStdError puts in front of the message.
func failureMessage(err error) string {
	custom, ok := err.(*cuserr.CustomError)
	if !ok {
		return err.Error()
	}
	message := custom.Message
	if code, ok := custom.GetMetadata(MetaKeyContext); ok {
		message = strings.TrimPrefix(message, code+": ")
	}
	if custom.Wrapped != nil {
		message += ": " + custom.Wrapped.Error()
	}
	return message
}

func newRenderingError(kind string, code int, message string, cause error) *RenderingError {
	return &RenderingError{Kind: kind, Code: code, Message: message, Cause: cause}
}

// NewSiteNotFoundError creates the error returned when a site binding names
// an unknown site. It matches ErrSiteNotFound.
func NewSiteNotFoundError(nodeName string) error {
	return cuserr.NewCustomError(ErrSiteNotFound, nil, fmt.Sprintf(ErrFmtSiteNotFound, nodeName)).
		WithMetadata(MetaKeyContext, ErrCodeSiteNotFound).
		WithMetadata(MetaKeySite, nodeName).
		WithMetadata(MetaKeyLegacyCode, strconv.Itoa(CodeSiteNotFound))
}

// NewResourceNotFoundError creates an error for a missing resource
func NewResourceNotFoundError(uri string) error {
	return cuserr.NewNotFoundError(MetaResourceURI, ErrMsgResourceNotFound).
		WithMetadata(MetaKeyURI, uri)
}

// NewResourceError creates an error for malformed or unreadable resources
func NewResourceError(msg, uri string, cause error) error {
	var err *cuserr.CustomError
	if cause != nil {
		err = cuserr.WrapStdError(cause, ErrCodeResource, msg)
	} else {
		err = cuserr.NewValidationError(ErrCodeResource, msg)
	}
	return err.WithMetadata(MetaKeyURI, uri)
}

// NewConfigError creates an error for invalid node type or auto-include configuration
func NewConfigError(msg string, cause error) error {
	if cause != nil {
		return cuserr.WrapStdError(cause, ErrCodeConfig, msg)
	}
	return cuserr.NewValidationError(ErrCodeConfig, msg)
}

// NewPropsError creates an error for props that cannot be decoded
func NewPropsError(msg string, cause error) error {
	if cause != nil {
		return cuserr.WrapStdError(cause, ErrCodeProps, msg)
	}
	return cuserr.NewValidationError(ErrCodeProps, msg)
}

// NewCharsetError creates an error for an unknown charset name
func NewCharsetError(charset string, cause error) error {
	return cuserr.WrapStdError(cause, ErrCodeCharset, ErrMsgUnsupportedCharset).
		WithMetadata(MetaKeyCharset, charset)
}

// SiteRepositoryError reports failures of the SQL site repository
type SiteRepositoryError struct {
	Message string
	Driver  string
	Cause   error
}

// Error implements the error interface
func (e *SiteRepositoryError) Error() string {
	msg := e.Message
	if e.Driver != "" {
		msg += " (" + e.Driver + ")"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause
func (e *SiteRepositoryError) Unwrap() error {
	return e.Cause
}
