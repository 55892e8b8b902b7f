package internal

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Implementation evaluates a Fusion object to its value
type Implementation interface {
	Evaluate(object *FusionObject) (any, error)
}

// ImplementationFunc adapts a function to the Implementation interface
type ImplementationFunc func(object *FusionObject) (any, error)

// Evaluate implements Implementation
func (f ImplementationFunc) Evaluate(object *FusionObject) (any, error) {
	return f(object)
}

// ImplementationRegistry maps @class names to implementations with
// first-come-wins semantics. It is safe for concurrent use.
type ImplementationRegistry struct {
	impls  map[string]Implementation
	mu     sync.RWMutex
	logger *zap.Logger
}

// NewImplementationRegistry creates an empty registry
func NewImplementationRegistry(logger *zap.Logger) *ImplementationRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug(LogMsgRegistryCreated)
	return &ImplementationRegistry{
		impls:  make(map[string]Implementation),
		logger: logger,
	}
}

// NewDefaultImplementationRegistry creates a registry holding the core object implementations
func NewDefaultImplementationRegistry(logger *zap.Logger) *ImplementationRegistry {
	r := NewImplementationRegistry(logger)
	RegisterCoreImplementations(r)
	return r
}

// Register adds an implementation for a class name.
// A second registration for the same class is rejected and logged.
func (r *ImplementationRegistry) Register(className string, impl Implementation) error {
	if impl == nil {
		return NewImplementationRegistryError(ErrMsgImplNil, className)
	}
	if className == StringValueEmpty {
		return NewImplementationRegistryError(ErrMsgImplEmptyClass, StringValueEmpty)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.impls[className]; exists {
		r.logger.Warn(LogMsgImplCollision, zap.String(LogFieldImplementation, className))
		return NewImplementationRegistryError(ErrMsgImplAlreadyExists, className)
	}

	r.impls[className] = impl
	r.logger.Debug(LogMsgImplRegistered, zap.String(LogFieldImplementation, className))
	return nil
}

// MustRegister adds an implementation and panics if registration fails
func (r *ImplementationRegistry) MustRegister(className string, impl Implementation) {
	if err := r.Register(className, impl); err != nil {
		panic(err)
	}
}

// Get retrieves an implementation by class name
func (r *ImplementationRegistry) Get(className string) (Implementation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	impl, exists := r.impls[className]
	return impl, exists
}

// Has checks if a class name is registered
func (r *ImplementationRegistry) Has(className string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.impls[className]
	return exists
}

// List returns all registered class names in sorted order
func (r *ImplementationRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.impls))
	for name := range r.impls {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered implementations
func (r *ImplementationRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.impls)
}

// ImplementationRegistryError represents a registry operation error
type ImplementationRegistryError struct {
	Message   string
	ClassName string
}

// NewImplementationRegistryError creates a new registry error
func NewImplementationRegistryError(message, className string) *ImplementationRegistryError {
	return &ImplementationRegistryError{Message: message, ClassName: className}
}

// Error implements the error interface
func (e *ImplementationRegistryError) Error() string {
	if e.ClassName != StringValueEmpty {
		return fmt.Sprintf(ErrFmtWithDetail, e.Message, e.ClassName)
	}
	return e.Message
}

// Registry error message constants
const (
	ErrMsgImplNil           = "implementation cannot be nil"
	ErrMsgImplEmptyClass    = "implementation class name cannot be empty"
	ErrMsgImplAlreadyExists = "implementation already registered for class"
)
