package internal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Runtime defaults
const (
	DefaultMaxDepth      = 100
	ContextNameThis      = "this"
	ContextNameValue     = "value"
	CacheModeCached      = "cached"
	CacheEntryIdentifier = "entryIdentifier"
	CacheMode            = "mode"
	CacheMaximumLifetime = "maximumLifetime"
	fusionPathSeparator  = "/"
)

// Runtime error messages
const (
	ErrMsgRuntimeFailed           = "rendering failed"
	ErrMsgRuntimePathNotFound     = "no fusion configuration found at path"
	ErrMsgRuntimeMaxDepth         = "maximum evaluation depth exceeded"
	ErrMsgRuntimeCancelled        = "evaluation cancelled"
	ErrMsgRuntimeUnknownPrototype = "undefined prototype"
	ErrMsgRuntimeInheritanceCycle = "prototype inheritance cycle"
	ErrMsgRuntimeNoImplementation = "no implementation class defined for object type"
	ErrMsgRuntimeUnknownClass     = "implementation class is not registered"
	ErrMsgRuntimeExpressionFailed = "expression evaluation failed"
	ErrMsgRuntimeInvalidApply     = "@apply value is not a collection"
	ErrMsgRuntimeImplFailed       = "object evaluation failed"
)

// RuntimeOptions configures a Runtime
type RuntimeOptions struct {
	Logger          *zap.Logger
	Implementations *ImplementationRegistry
	Helpers         *HelperRegistry
	ContentCache    ContentCache
	MaxDepth        int
}

// Runtime evaluates a configuration tree against an evaluation context.
// A Runtime serves a single render and is not safe for concurrent use.
type Runtime struct {
	config       *FusionConfig
	ctx          *Context
	impls        *ImplementationRegistry
	helpers      *HelperRegistry
	cache        ContentCache
	cacheEnabled bool
	maxDepth     int
	logger       *zap.Logger

	prototypes map[string]*FusionNode
	resolving  map[string]bool
	eelCache   map[string]EelNode
}

// NewRuntime creates a runtime for the given configuration
func NewRuntime(config *FusionConfig, opts RuntimeOptions) *Runtime {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	impls := opts.Implementations
	if impls == nil {
		impls = NewDefaultImplementationRegistry(logger)
	}
	helpers := opts.Helpers
	if helpers == nil {
		helpers = NewDefaultHelperRegistry()
	}
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if config == nil {
		config = NewFusionConfig()
	}

	logger.Debug(LogMsgRuntimeCreated, zap.Int(LogFieldPrototypes, len(config.Prototypes)))
	return &Runtime{
		config:       config,
		ctx:          NewContext(),
		impls:        impls,
		helpers:      helpers,
		cache:        opts.ContentCache,
		cacheEnabled: opts.ContentCache != nil,
		maxDepth:     maxDepth,
		logger:       logger,
		prototypes:   make(map[string]*FusionNode),
		resolving:    make(map[string]bool),
		eelCache:     make(map[string]EelNode),
	}
}

// PushContext binds name to value for all subsequent evaluations.
// Later pushes shadow earlier ones.
func (r *Runtime) PushContext(name string, value any) {
	r.ctx = r.ctx.Push(name, value)
	r.logger.Debug(LogMsgContextPushed, zap.String(LogFieldName, name))
}

// Context returns the current evaluation context
func (r *Runtime) Context() *Context {
	return r.ctx
}

// SetContentCacheEnabled toggles use of the content cache
func (r *Runtime) SetContentCacheEnabled(enabled bool) {
	r.cacheEnabled = enabled
	r.logger.Debug(LogMsgContentCacheToggle, zap.Bool(LogFieldEnabled, enabled))
}

// ContentCacheEnabled reports whether @cache declarations are honored
func (r *Runtime) ContentCacheEnabled() bool {
	return r.cacheEnabled && r.cache != nil
}

// Config returns the configuration tree
func (r *Runtime) Config() *FusionConfig {
	return r.config
}

// Render evaluates path and converts the result to a string
func (r *Runtime) Render(ctx context.Context, path string) (string, error) {
	start := time.Now()
	r.logger.Debug(LogMsgRuntimeRenderStart, zap.String(LogFieldPath, path))

	value, err := r.Evaluate(ctx, path)
	if err != nil {
		return "", err
	}
	output := anyToString(value)

	r.logger.Debug(LogMsgRuntimeRenderEnd,
		zap.String(LogFieldPath, path),
		zap.Int(LogFieldOutputLength, len(output)),
		zap.Duration(LogFieldDuration, time.Since(start)),
	)
	return output, nil
}

// Evaluate evaluates the value at path. Failures are returned as *RuntimeError.
func (r *Runtime) Evaluate(ctx context.Context, path string) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	keys := SplitFusionPath(path)
	displayPath := strings.Join(keys, fusionPathSeparator)

	node, ok := r.config.Root.ChildAt(keys...)
	if !ok {
		return nil, NewRuntimeError(displayPath, NewEvaluationError(displayPath, ErrMsgRuntimePathNotFound, nil))
	}

	value, _, err := r.evaluateNode(evalScope{goctx: ctx, ctx: r.ctx}, node, displayPath)
	if err != nil {
		return nil, NewRuntimeError(displayPath, err)
	}
	return value, nil
}

// evalScope carries the per-path evaluation state
type evalScope struct {
	goctx context.Context
	ctx   *Context
	this  *FusionObject
	depth int
}

// evaluateNode evaluates a node; present is false when @if cancelled it or it was removed
func (r *Runtime) evaluateNode(scope evalScope, node *FusionNode, path string) (value any, present bool, err error) {
	if err := scope.goctx.Err(); err != nil {
		return nil, false, NewEvaluationError(path, ErrMsgRuntimeCancelled, err)
	}
	if scope.depth >= r.maxDepth {
		return nil, false, NewEvaluationError(path, ErrMsgRuntimeMaxDepth, nil)
	}
	if node == nil || node.Removed {
		return nil, false, nil
	}

	if node.ObjectType != StringValueEmpty {
		path = path + "<" + node.ObjectType + ">"
		node, err = r.effectiveNode(node, path)
		if err != nil {
			return nil, false, err
		}
	}
	scope.depth++

	if contextNode, ok := node.Child(FusionMetaContext); ok {
		for _, key := range contextNode.PropertyKeys() {
			contextValue, _, err := r.evaluateNode(scope, contextNode.Children[key], path+fusionPathSeparator+FusionMetaContext+fusionPathSeparator+key)
			if err != nil {
				return nil, false, err
			}
			scope.ctx = scope.ctx.Push(key, contextValue)
		}
	}

	var object *FusionObject
	if node.ObjectType != StringValueEmpty || (!node.HasValue && !node.HasExpression && node.HasProperties()) {
		object = newFusionObject(r, node, path, scope)
	}
	metaScope := scope
	if object != nil {
		metaScope.this = object
	}

	cacheKey, cacheTTL, err := r.contentCacheKey(metaScope, node, path)
	if err != nil {
		return nil, false, err
	}
	if cacheKey != StringValueEmpty {
		if cached, hit := r.cache.Get(cacheKey); hit {
			r.logger.Debug(LogMsgContentCacheHit, zap.String(LogFieldPath, path))
			return cached, true, nil
		}
	}

	if ifNode, ok := node.Child(FusionMetaIf); ok {
		for _, key := range r.sortedKeys(metaScope, ifNode, path) {
			condition, _, err := r.evaluateNode(metaScope, ifNode.Children[key], path+fusionPathSeparator+FusionMetaIf+fusionPathSeparator+key)
			if err != nil {
				return nil, false, err
			}
			if !isTruthy(condition) {
				return nil, false, nil
			}
		}
	}

	switch {
	case node.ObjectType != StringValueEmpty:
		value, err = r.evaluateObject(object)
	case node.HasExpression:
		value, err = r.evaluateExpression(scope, node.Expression, path)
	case node.HasValue:
		value = node.Value
	case object != nil:
		value, err = evaluateDataStructure(object)
	}
	if err != nil {
		return nil, false, err
	}

	if processNode, ok := node.Child(FusionMetaProcess); ok {
		for _, key := range r.sortedKeys(metaScope, processNode, path) {
			processor := processNode.Children[key]
			if expression, ok := processor.Child(FusionMetaExpression); ok && !processor.HasOwnValue() {
				processor = expression
			}
			processScope := metaScope
			processScope.ctx = metaScope.ctx.Push(ContextNameValue, value)
			processed, processedPresent, err := r.evaluateNode(processScope, processor, path+fusionPathSeparator+FusionMetaProcess+fusionPathSeparator+key)
			if err != nil {
				return nil, false, err
			}
			if processedPresent {
				value = processed
			}
		}
	}

	if cacheKey != StringValueEmpty {
		r.cache.Set(cacheKey, value, cacheTTL)
		r.logger.Debug(LogMsgContentCacheStore, zap.String(LogFieldPath, path))
	}
	return value, true, nil
}

// contentCacheKey returns the cache key for nodes declaring @cache.mode = 'cached'
// while the cache is enabled, or an empty key otherwise.
func (r *Runtime) contentCacheKey(scope evalScope, node *FusionNode, path string) (string, time.Duration, error) {
	if !r.ContentCacheEnabled() {
		return StringValueEmpty, 0, nil
	}
	cacheNode, ok := node.Child(FusionMetaCache)
	if !ok {
		return StringValueEmpty, 0, nil
	}
	cachePath := path + fusionPathSeparator + FusionMetaCache

	mode, _, err := r.evaluateNode(scope, childOrNil(cacheNode, CacheMode), cachePath+fusionPathSeparator+CacheMode)
	if err != nil {
		return StringValueEmpty, 0, err
	}
	if anyToString(mode) != CacheModeCached {
		return StringValueEmpty, 0, nil
	}

	identifier := NewOrderedMap()
	if idNode, ok := cacheNode.Child(CacheEntryIdentifier); ok {
		idValue, _, err := r.evaluateNode(scope, idNode, cachePath+fusionPathSeparator+CacheEntryIdentifier)
		if err != nil {
			return StringValueEmpty, 0, err
		}
		if items, ok := toIterable(idValue); ok {
			for _, item := range items {
				identifier.Set(anyToString(item.Key), anyToString(item.Value))
			}
		} else {
			identifier.Set(CacheEntryIdentifier, anyToString(idValue))
		}
	}

	var ttl time.Duration
	if lifetime, _, err := r.evaluateNode(scope, childOrNil(cacheNode, CacheMaximumLifetime), cachePath); err == nil && lifetime != nil {
		if seconds, err := anyToInt(lifetime, CacheMaximumLifetime, ArgIndexFirst); err == nil {
			ttl = time.Duration(seconds) * time.Second
		}
	}
	return ContentCacheKey(path, identifier), ttl, nil
}

func childOrNil(node *FusionNode, key string) *FusionNode {
	child, _ := node.Child(key)
	return child
}

// evaluateObject runs the implementation class of an object
func (r *Runtime) evaluateObject(object *FusionObject) (any, error) {
	classNode, ok := object.node.Child(FusionMetaClass)
	if !ok || !classNode.HasValue {
		return nil, NewEvaluationError(object.path, ErrMsgRuntimeNoImplementation, nil)
	}
	className := anyToString(classNode.Value)
	impl, ok := r.impls.Get(className)
	if !ok {
		return nil, NewEvaluationError(object.path, fmt.Sprintf(ErrFmtWithDetail, ErrMsgRuntimeUnknownClass, className), nil)
	}

	value, err := impl.Evaluate(object)
	if err != nil {
		if isEvaluationError(err) {
			return nil, err
		}
		return nil, NewEvaluationError(object.path, ErrMsgRuntimeImplFailed, err)
	}
	return value, nil
}

// evaluateExpression evaluates an Eel expression with "this" bound to the enclosing object
func (r *Runtime) evaluateExpression(scope evalScope, expr, path string) (any, error) {
	node, ok := r.eelCache[expr]
	if !ok {
		parsed, err := ParseEel(expr)
		if err != nil {
			return nil, NewEvaluationError(path, fmt.Sprintf(ErrFmtWithDetail, ErrMsgRuntimeExpressionFailed, FusionEelOpen+expr+FusionEelClose), err)
		}
		r.eelCache[expr] = parsed
		node = parsed
	}

	ctx := scope.ctx
	if scope.this != nil {
		ctx = ctx.Push(ContextNameThis, scope.this)
	}
	value, err := NewEelEvaluator(r.helpers, ctx).Evaluate(node)
	if err != nil {
		if isEvaluationError(err) {
			return nil, err
		}
		return nil, NewEvaluationError(path, fmt.Sprintf(ErrFmtWithDetail, ErrMsgRuntimeExpressionFailed, FusionEelOpen+expr+FusionEelClose), err)
	}
	return value, nil
}

// effectiveNode merges the prototype chain of node's object type with node itself
func (r *Runtime) effectiveNode(node *FusionNode, path string) (*FusionNode, error) {
	prototype, err := r.prototypeNode(node.ObjectType, path)
	if err != nil {
		return nil, err
	}
	return MergeFusionNodes(prototype, node), nil
}

// prototypeNode returns the fully inherited definition of a prototype (base first)
func (r *Runtime) prototypeNode(name, path string) (*FusionNode, error) {
	if merged, ok := r.prototypes[name]; ok {
		return merged, nil
	}
	prototype, ok := r.config.Prototypes[name]
	if !ok {
		return nil, NewEvaluationError(path, fmt.Sprintf(ErrFmtWithDetail, ErrMsgRuntimeUnknownPrototype, name), nil)
	}
	if r.resolving[name] {
		return nil, NewEvaluationError(path, fmt.Sprintf(ErrFmtWithDetail, ErrMsgRuntimeInheritanceCycle, name), nil)
	}

	r.resolving[name] = true
	defer delete(r.resolving, name)

	var base *FusionNode
	if prototype.Parent != StringValueEmpty {
		parent, err := r.prototypeNode(prototype.Parent, path)
		if err != nil {
			return nil, err
		}
		base = parent
	}
	merged := MergeFusionNodes(base, prototype.Node)
	if merged == nil {
		merged = NewFusionNode()
	}
	r.prototypes[name] = merged
	return merged, nil
}

// sortedKeys orders the non-meta children of node by their @position
func (r *Runtime) sortedKeys(scope evalScope, node *FusionNode, path string) []string {
	keys := node.PropertyKeys()
	return SortByPosition(keys, func(key string) string {
		child := node.Children[key]
		positionNode, ok := child.Child(FusionMetaPosition)
		if !ok {
			return StringValueEmpty
		}
		value, _, err := r.evaluateNode(scope, positionNode, path)
		if err != nil {
			return StringValueEmpty
		}
		return anyToString(value)
	})
}

// EvaluationError is raised at the path where evaluation failed
type EvaluationError struct {
	Path    string
	Message string
	Cause   error
}

// NewEvaluationError creates a new evaluation error
func NewEvaluationError(path, message string, cause error) *EvaluationError {
	return &EvaluationError{Path: path, Message: message, Cause: cause}
}

// Error implements the error interface
func (e *EvaluationError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf(ErrFmtWithCause, msg, e.Cause)
	}
	return fmt.Sprintf(ErrFmtWithPath, msg, e.Path)
}

// Unwrap returns the underlying error
func (e *EvaluationError) Unwrap() error {
	return e.Cause
}

func isEvaluationError(err error) bool {
	_, ok := err.(*EvaluationError)
	return ok
}

// RuntimeError is the envelope returned by Runtime.Evaluate and Runtime.Render.
// Cause holds the error raised at the evaluation site.
type RuntimeError struct {
	Path  string
	Cause error
}

// NewRuntimeError creates a new runtime error
func NewRuntimeError(path string, cause error) *RuntimeError {
	return &RuntimeError{Path: path, Cause: cause}
}

// Error implements the error interface
func (e *RuntimeError) Error() string {
	return fmt.Sprintf(ErrFmtWithCause, fmt.Sprintf(ErrFmtWithPath, ErrMsgRuntimeFailed, e.Path), e.Cause)
}

// Unwrap returns the evaluation-site error
func (e *RuntimeError) Unwrap() error {
	return e.Cause
}
