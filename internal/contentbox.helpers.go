package internal

import (
	"fmt"
	"sort"
	"sync"
)

// Helper is a function callable from Eel expressions under a dotted name
// such as String.toUpperCase.
type Helper struct {
	Name    string
	MinArgs int
	MaxArgs int // -1 for variadic
	Fn      func(args []any) (any, error)
}

// HelperRegistry manages registered Eel helpers
type HelperRegistry struct {
	helpers map[string]*Helper
	mu      sync.RWMutex
}

// NewHelperRegistry creates an empty helper registry
func NewHelperRegistry() *HelperRegistry {
	return &HelperRegistry{
		helpers: make(map[string]*Helper),
	}
}

// NewDefaultHelperRegistry creates a registry with all built-in helpers
func NewDefaultHelperRegistry() *HelperRegistry {
	r := NewHelperRegistry()
	RegisterBuiltinHelpers(r)
	return r
}

// Register adds a helper to the registry
func (r *HelperRegistry) Register(h *Helper) error {
	if h == nil {
		return NewHelperRegistryError(ErrMsgHelperNil, "")
	}
	if h.Name == StringValueEmpty {
		return NewHelperRegistryError(ErrMsgHelperEmptyName, "")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.helpers[h.Name]; exists {
		return NewHelperRegistryError(ErrMsgHelperAlreadyExists, h.Name)
	}

	r.helpers[h.Name] = h
	return nil
}

// MustRegister adds a helper and panics on error
func (r *HelperRegistry) MustRegister(h *Helper) {
	if err := r.Register(h); err != nil {
		panic(err)
	}
}

// Get retrieves a helper by name
func (r *HelperRegistry) Get(name string) (*Helper, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.helpers[name]
	return h, ok
}

// Has checks if a helper is registered
func (r *HelperRegistry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Call invokes a helper by name with the given arguments
func (r *HelperRegistry) Call(name string, args []any) (any, error) {
	h, ok := r.Get(name)
	if !ok {
		return nil, NewHelperError(ErrMsgHelperNotFound, name)
	}

	argCount := len(args)
	if argCount < h.MinArgs {
		return nil, NewHelperArgError(ErrMsgHelperTooFewArgs, name, h.MinArgs, argCount)
	}
	if h.MaxArgs >= 0 && argCount > h.MaxArgs {
		return nil, NewHelperArgError(ErrMsgHelperTooManyArgs, name, h.MaxArgs, argCount)
	}

	result, err := h.Fn(args)
	if err != nil {
		return nil, NewHelperExecError(name, err)
	}
	return result, nil
}

// List returns all registered helper names in sorted order
func (r *HelperRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.helpers))
	for name := range r.helpers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered helpers
func (r *HelperRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.helpers)
}

// HelperRegistryError represents a helper registration error
type HelperRegistryError struct {
	Message string
	Name    string
}

// NewHelperRegistryError creates a new helper registry error
func NewHelperRegistryError(message, name string) *HelperRegistryError {
	return &HelperRegistryError{Message: message, Name: name}
}

// Error implements the error interface
func (e *HelperRegistryError) Error() string {
	if e.Name != StringValueEmpty {
		return fmt.Sprintf(ErrFmtWithDetail, e.Message, e.Name)
	}
	return e.Message
}

// HelperError represents a lookup failure for a helper
type HelperError struct {
	Message string
	Name    string
}

// NewHelperError creates a new helper error
func NewHelperError(message, name string) *HelperError {
	return &HelperError{Message: message, Name: name}
}

// Error implements the error interface
func (e *HelperError) Error() string {
	return fmt.Sprintf(ErrFmtWithDetail, e.Message, e.Name)
}

// HelperArgError represents an argument count error
type HelperArgError struct {
	Message  string
	Name     string
	Expected int
	Actual   int
}

// NewHelperArgError creates a new helper argument error
func NewHelperArgError(message, name string, expected, actual int) *HelperArgError {
	return &HelperArgError{
		Message:  message,
		Name:     name,
		Expected: expected,
		Actual:   actual,
	}
}

// Error implements the error interface
func (e *HelperArgError) Error() string {
	return fmt.Sprintf("%s: %s (expected %d, got %d)", e.Message, e.Name, e.Expected, e.Actual)
}

// HelperExecError represents a failure inside a helper
type HelperExecError struct {
	Name  string
	Cause error
}

// NewHelperExecError creates a new helper execution error
func NewHelperExecError(name string, cause error) *HelperExecError {
	return &HelperExecError{Name: name, Cause: cause}
}

// Error implements the error interface
func (e *HelperExecError) Error() string {
	return fmt.Sprintf("helper %s failed: %v", e.Name, e.Cause)
}

// Unwrap returns the underlying error
func (e *HelperExecError) Unwrap() error {
	return e.Cause
}

// HelperTypeError represents a type error in helper arguments
type HelperTypeError struct {
	Message  string
	Name     string
	ArgIndex int
}

// NewHelperTypeError creates a new helper type error
func NewHelperTypeError(message, name string, argIndex int) *HelperTypeError {
	return &HelperTypeError{Message: message, Name: name, ArgIndex: argIndex}
}

// Error implements the error interface
func (e *HelperTypeError) Error() string {
	return fmt.Sprintf("%s: %s (argument %d)", e.Message, e.Name, e.ArgIndex)
}

// Helper error messages
const (
	ErrMsgHelperNil             = "helper cannot be nil"
	ErrMsgHelperEmptyName       = "helper name cannot be empty"
	ErrMsgHelperAlreadyExists   = "helper already registered"
	ErrMsgHelperNotFound        = "helper not found"
	ErrMsgHelperTooFewArgs      = "too few arguments"
	ErrMsgHelperTooManyArgs     = "too many arguments"
	ErrMsgHelperExpectedString  = "expected string argument"
	ErrMsgHelperExpectedSlice   = "expected array argument"
	ErrMsgHelperExpectedNumber  = "expected numeric argument"
	ErrMsgHelperConversion      = "type conversion failed"
	ErrMsgHelperDivisionByZero  = "division by zero"
	ErrMsgHelperInvalidJSON     = "invalid json"
	ErrMsgHelperInvalidDate     = "invalid date"
	ErrMsgHelperIndexOutOfRange = "index out of range"
)

// Argument index constants
const (
	ArgIndexFirst  = 0
	ArgIndexSecond = 1
	ArgIndexThird  = 2
)

// Built-in helper names
const (
	HelperStringToUpperCase = "String.toUpperCase"
	HelperStringToLowerCase = "String.toLowerCase"
	HelperStringTrim        = "String.trim"
	HelperStringLength      = "String.length"
	HelperStringReplace     = "String.replace"
	HelperStringSplit       = "String.split"
	HelperStringSubstr      = "String.substr"
	HelperStringStartsWith  = "String.startsWith"
	HelperStringEndsWith    = "String.endsWith"
	HelperStringContains    = "String.contains"
	HelperStringCrop        = "String.crop"
	HelperStringFirstLetter = "String.firstLetterToUpperCase"
	HelperStringStripTags   = "String.stripTags"
	HelperStringHTMLSpecial = "String.htmlSpecialChars"
	HelperStringToString    = "String.toString"
	HelperStringPregReplace = "String.pregReplace"

	HelperArrayLength  = "Array.length"
	HelperArrayJoin    = "Array.join"
	HelperArrayFirst   = "Array.first"
	HelperArrayLast    = "Array.last"
	HelperArrayKeys    = "Array.keys"
	HelperArrayPush    = "Array.push"
	HelperArrayConcat  = "Array.concat"
	HelperArraySlice   = "Array.slice"
	HelperArrayReverse = "Array.reverse"
	HelperArrayIndexOf = "Array.indexOf"
	HelperArrayIsEmpty = "Array.isEmpty"
	HelperArrayRange   = "Array.range"
	HelperArraySet     = "Array.set"

	HelperTypeGetType   = "Type.getType"
	HelperTypeIsString  = "Type.isString"
	HelperTypeIsNumeric = "Type.isNumeric"
	HelperTypeIsArray   = "Type.isArray"
	HelperTypeIsBoolean = "Type.isBoolean"
	HelperTypeIsNull    = "Type.isNull"
	HelperTypeToString  = "Type.toString"
	HelperTypeToInteger = "Type.toInteger"
	HelperTypeToFloat   = "Type.toFloat"
	HelperTypeToBoolean = "Type.toBoolean"

	HelperMathRound = "Math.round"
	HelperMathFloor = "Math.floor"
	HelperMathCeil  = "Math.ceil"
	HelperMathAbs   = "Math.abs"
	HelperMathMax   = "Math.max"
	HelperMathMin   = "Math.min"

	HelperJSONStringify = "Json.stringify"
	HelperJSONParse     = "Json.parse"

	HelperDateNow    = "Date.now"
	HelperDateFormat = "Date.format"
	HelperDateParse  = "Date.parse"

	HelperNodeProperty = "Node.property"
)

// RegisterBuiltinHelpers registers all built-in helpers with the registry
func RegisterBuiltinHelpers(r *HelperRegistry) {
	registerStringHelpers(r)
	registerArrayHelpers(r)
	registerTypeHelpers(r)
	registerMathHelpers(r)
	registerJSONHelpers(r)
	registerDateHelpers(r)
	registerNodeHelpers(r)
}
