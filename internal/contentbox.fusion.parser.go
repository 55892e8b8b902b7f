package internal

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Fusion syntax constants
const (
	FusionKeywordPrototype = "prototype"
	FusionKeywordInclude   = "include"
	FusionCommentLine      = "//"
	FusionCommentOpen      = "/*"
	FusionCommentClose     = "*/"
	FusionMaxIncludeDepth  = 32
)

// Fusion parser error messages
const (
	ErrMsgFusionUnexpectedChar    = "unexpected character"
	ErrMsgFusionUnexpectedEOF     = "unexpected end of source"
	ErrMsgFusionUnclosedBlock     = "unclosed block"
	ErrMsgFusionUnexpectedClose   = "unexpected closing brace"
	ErrMsgFusionExpectedPath      = "expected object path"
	ErrMsgFusionExpectedOperator  = "expected operator (=, {, <, >)"
	ErrMsgFusionInvalidValue      = "invalid value"
	ErrMsgFusionUnterminatedStr   = "unterminated string"
	ErrMsgFusionUnterminatedEel   = "unterminated expression"
	ErrMsgFusionUnterminatedComm  = "unterminated comment"
	ErrMsgFusionUnterminatedDSL   = "unterminated dsl block"
	ErrMsgFusionUnknownDSL        = "unknown dsl"
	ErrMsgFusionDSLFailed         = "dsl transpilation failed"
	ErrMsgFusionTrailingContent   = "unexpected content after statement"
	ErrMsgFusionNestedPrototype   = "prototype declarations are only allowed at root level"
	ErrMsgFusionPrototypeValue    = "cannot assign a value to a prototype"
	ErrMsgFusionPrototypeCopy     = "prototypes can only inherit from prototypes"
	ErrMsgFusionCopySourceMissing = "copy source does not exist"
	ErrMsgFusionIncludeScope      = "include is only allowed at root level"
	ErrMsgFusionIncludeNoResolver = "no include resolver configured"
	ErrMsgFusionIncludeFailed     = "include failed"
	ErrMsgFusionIncludeDepth      = "maximum include depth exceeded"
	ErrMsgFusionUnknownParent     = "prototype inherits from undefined prototype"
	ErrMsgFusionInheritanceCycle  = "prototype inheritance cycle"
	ErrMsgFusionUnknownType       = "undefined object type"
)

// IncludeResolver loads the sources matched by an include pattern.
// origin is the origin of the including source.
type IncludeResolver interface {
	ResolveInclude(origin, pattern string) ([]FusionSource, error)
}

// IncludeResolverFunc adapts a function to IncludeResolver
type IncludeResolverFunc func(origin, pattern string) ([]FusionSource, error)

// ResolveInclude implements IncludeResolver
func (f IncludeResolverFunc) ResolveInclude(origin, pattern string) ([]FusionSource, error) {
	return f(origin, pattern)
}

// DSLTranspiler converts the body of a DSL block into a Fusion value
type DSLTranspiler func(code string) (string, error)

// FusionParseOptions configures ParseFusion
type FusionParseOptions struct {
	Logger          *zap.Logger
	IncludeResolver IncludeResolver
	DSL             map[string]DSLTranspiler
	SkipValidation  bool
}

// FusionParseError is a syntax or integrity error with its source location
type FusionParseError struct {
	Origin   string
	Position Position
	Message  string
	Detail   string
	Cause    error
}

// NewFusionParseError creates a new parse error
func NewFusionParseError(origin string, pos Position, message, detail string) *FusionParseError {
	return &FusionParseError{
		Origin:   origin,
		Position: pos,
		Message:  message,
		Detail:   detail,
	}
}

// Error implements the error interface
func (e *FusionParseError) Error() string {
	msg := e.Message
	if e.Detail != StringValueEmpty {
		msg = fmt.Sprintf(ErrFmtWithDetail, msg, e.Detail)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf(ErrFmtWithCause, msg, e.Cause)
	}
	if e.Origin == StringValueEmpty {
		return fmt.Sprintf(ErrFmtWithPosition, msg, e.Position)
	}
	return fmt.Sprintf(ErrFmtWithOrigin, msg, e.Origin, e.Position)
}

// Unwrap returns the underlying error
func (e *FusionParseError) Unwrap() error {
	return e.Cause
}

// FusionParser merges Fusion sources into a single configuration tree
type FusionParser struct {
	config *FusionConfig
	opts   FusionParseOptions
	logger *zap.Logger
	depth  int
}

// NewFusionParser creates a parser producing a fresh configuration
func NewFusionParser(opts FusionParseOptions) *FusionParser {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FusionParser{
		config: NewFusionConfig(),
		opts:   opts,
		logger: logger,
	}
}

// Parse parses all sources in order; later assignments override earlier ones
func (p *FusionParser) Parse(sources []FusionSource) (*FusionConfig, error) {
	p.logger.Debug(LogMsgFusionParseStart, zap.Int(LogFieldSources, len(sources)))

	for _, source := range sources {
		if err := p.parseSource(source); err != nil {
			return nil, err
		}
	}

	if !p.opts.SkipValidation {
		if err := ValidateFusionConfig(p.config); err != nil {
			return nil, err
		}
	}

	p.logger.Debug(LogMsgFusionParseEnd, zap.Int(LogFieldPrototypes, len(p.config.Prototypes)))
	return p.config, nil
}

func (p *FusionParser) parseSource(source FusionSource) error {
	sp := &fusionSourceParser{
		parser: p,
		origin: source.Origin,
		src:    source.Code,
		line:   1,
		column: 1,
	}
	if err := sp.parseBlock(fusionScope{node: p.config.Root, root: true}, false); err != nil {
		return err
	}
	p.logger.Debug(LogMsgFusionSourceParsed, zap.String(LogFieldOrigin, source.Origin), zap.Int(LogFieldSource, len(source.Code)))
	return nil
}

// fusionScope is the block a statement is parsed in
type fusionScope struct {
	node *FusionNode
	root bool
}

// fusionSegment is one element of an object path
type fusionSegment struct {
	key       string
	prototype string
}

// fusionSourceParser parses a single source text
type fusionSourceParser struct {
	parser *FusionParser
	origin string
	src    string
	pos    int
	line   int
	column int
}

// parseBlock parses statements until the closing brace (or EOF at top level)
func (sp *fusionSourceParser) parseBlock(scope fusionScope, closed bool) error {
	start := sp.position()
	for {
		if err := sp.skipSpaceAndComments(); err != nil {
			return err
		}
		if sp.isAtEnd() {
			if closed {
				return sp.errorAt(start, ErrMsgFusionUnclosedBlock, "")
			}
			return nil
		}
		if sp.peek() == CharCloseBrace {
			if !closed {
				return sp.errorHere(ErrMsgFusionUnexpectedClose, "")
			}
			sp.advance()
			return nil
		}
		if sp.atInclude() {
			if !scope.root {
				return sp.errorHere(ErrMsgFusionIncludeScope, "")
			}
			if err := sp.parseInclude(); err != nil {
				return err
			}
			continue
		}
		if err := sp.parseStatement(scope); err != nil {
			return err
		}
	}
}

// parseStatement parses one path operation
func (sp *fusionSourceParser) parseStatement(scope fusionScope) error {
	pos := sp.position()
	segments, err := sp.parsePath()
	if err != nil {
		return err
	}
	sp.skipInlineSpace()

	if proto := segments[0].prototype; proto != StringValueEmpty {
		if !scope.root {
			return sp.errorAt(pos, ErrMsgFusionNestedPrototype, proto)
		}
		if len(segments) == 1 {
			return sp.parsePrototypeStatement(proto, pos)
		}
		prototype := sp.parser.config.EnsurePrototype(proto)
		sp.touchPrototype(prototype, pos)
		scope = fusionScope{node: prototype.Node}
		segments = segments[1:]
	}
	for _, segment := range segments {
		if segment.prototype != StringValueEmpty {
			return sp.errorAt(pos, ErrMsgFusionNestedPrototype, segment.prototype)
		}
	}

	parent := scope.node
	for _, segment := range segments[:len(segments)-1] {
		parent = parent.EnsureChild(segment.key)
	}
	key := segments[len(segments)-1].key

	switch sp.peek() {
	case CharEquals:
		sp.advance()
		sp.skipInlineSpace()
		target := parent.EnsureChild(key)
		target.Pos, target.Origin = pos, sp.origin
		if err := sp.parseValue(target); err != nil {
			return err
		}
	case CharOpenBrace:
		sp.advance()
		target := parent.EnsureChild(key)
		if err := sp.parseBlock(fusionScope{node: target}, true); err != nil {
			return err
		}
	case CharLessThan:
		sp.advance()
		sp.skipInlineSpace()
		if err := sp.parseCopy(scope, parent, key, pos); err != nil {
			return err
		}
	case CharGreaterThan:
		sp.advance()
		parent.SetChild(key, &FusionNode{Removed: true, Children: map[string]*FusionNode{}, Pos: pos, Origin: sp.origin})
	default:
		return sp.errorHere(ErrMsgFusionExpectedOperator, string(sp.peek()))
	}

	return sp.expectStatementEnd()
}

// parsePrototypeStatement handles prototype(A) < prototype(B), prototype(A) { } and prototype(A) >
func (sp *fusionSourceParser) parsePrototypeStatement(name string, pos Position) error {
	config := sp.parser.config

	switch sp.peek() {
	case CharLessThan:
		sp.advance()
		sp.skipInlineSpace()
		source, err := sp.parsePath()
		if err != nil {
			return err
		}
		if len(source) != 1 || source[0].prototype == StringValueEmpty {
			return sp.errorAt(pos, ErrMsgFusionPrototypeCopy, name)
		}
		prototype := config.EnsurePrototype(name)
		prototype.Parent = source[0].prototype
		prototype.Pos, prototype.Origin = pos, sp.origin
		sp.skipInlineSpace()
		if sp.peek() == CharOpenBrace {
			sp.advance()
			if err := sp.parseBlock(fusionScope{node: prototype.Node}, true); err != nil {
				return err
			}
		}
	case CharOpenBrace:
		sp.advance()
		prototype := config.EnsurePrototype(name)
		sp.touchPrototype(prototype, pos)
		if err := sp.parseBlock(fusionScope{node: prototype.Node}, true); err != nil {
			return err
		}
	case CharGreaterThan:
		sp.advance()
		delete(config.Prototypes, name)
	case CharEquals:
		return sp.errorAt(pos, ErrMsgFusionPrototypeValue, name)
	default:
		return sp.errorHere(ErrMsgFusionExpectedOperator, string(sp.peek()))
	}

	return sp.expectStatementEnd()
}

func (sp *fusionSourceParser) touchPrototype(prototype *FusionPrototype, pos Position) {
	if prototype.Origin == StringValueEmpty {
		prototype.Pos, prototype.Origin = pos, sp.origin
	}
}

// parseCopy handles path < source, resolving source relative to the scope first, then from the root
func (sp *fusionSourceParser) parseCopy(scope fusionScope, parent *FusionNode, key string, pos Position) error {
	source, err := sp.parsePath()
	if err != nil {
		return err
	}
	keys := make([]string, len(source))
	for i, segment := range source {
		if segment.prototype != StringValueEmpty {
			return sp.errorAt(pos, ErrMsgFusionPrototypeCopy, segment.prototype)
		}
		keys[i] = segment.key
	}

	node, ok := scope.node.ChildAt(keys...)
	if !ok {
		node, ok = sp.parser.config.Root.ChildAt(keys...)
	}
	if !ok {
		return sp.errorAt(pos, ErrMsgFusionCopySourceMissing, strings.Join(keys, string(CharDot)))
	}

	clone := node.Clone()
	clone.Pos, clone.Origin = pos, sp.origin
	parent.SetChild(key, clone)

	sp.skipInlineSpace()
	if sp.peek() == CharOpenBrace {
		sp.advance()
		return sp.parseBlock(fusionScope{node: clone}, true)
	}
	return nil
}

// parseInclude handles include: pattern
func (sp *fusionSourceParser) parseInclude() error {
	pos := sp.position()
	sp.advanceN(len(FusionKeywordInclude))
	sp.skipInlineSpace()
	sp.advance() // ':'
	sp.skipInlineSpace()

	start := sp.pos
	for !sp.isAtEnd() && sp.peek() != CharNewline && sp.peek() != CharCarriageRet {
		sp.advance()
	}
	pattern := strings.Trim(strings.TrimSpace(sp.src[start:sp.pos]), `"'`)
	if pattern == StringValueEmpty {
		return sp.errorAt(pos, ErrMsgFusionExpectedPath, FusionKeywordInclude)
	}

	p := sp.parser
	if p.opts.IncludeResolver == nil {
		return sp.errorAt(pos, ErrMsgFusionIncludeNoResolver, pattern)
	}
	if p.depth >= FusionMaxIncludeDepth {
		return sp.errorAt(pos, ErrMsgFusionIncludeDepth, pattern)
	}

	sources, err := p.opts.IncludeResolver.ResolveInclude(sp.origin, pattern)
	if err != nil {
		perr := sp.errorAt(pos, ErrMsgFusionIncludeFailed, pattern)
		perr.Cause = err
		return perr
	}
	p.logger.Debug(LogMsgFusionInclude,
		zap.String(LogFieldOrigin, sp.origin),
		zap.String(LogFieldPattern, pattern),
		zap.Int(LogFieldSources, len(sources)),
	)

	p.depth++
	defer func() { p.depth-- }()
	for _, source := range sources {
		if err := p.parseSource(source); err != nil {
			return err
		}
	}
	return nil
}

// parsePath parses a dotted object path
func (sp *fusionSourceParser) parsePath() ([]fusionSegment, error) {
	var segments []fusionSegment
	for {
		segment, err := sp.parseSegment()
		if err != nil {
			return nil, err
		}
		segments = append(segments, segment)
		if sp.peek() != CharDot {
			return segments, nil
		}
		sp.advance()
	}
}

func (sp *fusionSourceParser) parseSegment() (fusionSegment, error) {
	switch ch := sp.peek(); {
	case ch == CharSingleQuote || ch == CharDoubleQuote:
		key, err := sp.scanString()
		if err != nil {
			return fusionSegment{}, err
		}
		return fusionSegment{key: key}, nil
	case sp.matchStr(FusionKeywordPrototype + string(CharOpenParen)):
		pos := sp.position()
		sp.advanceN(len(FusionKeywordPrototype) + 1)
		start := sp.pos
		for !sp.isAtEnd() && sp.peek() != CharCloseParen && sp.peek() != CharNewline {
			sp.advance()
		}
		if sp.peek() != CharCloseParen {
			return fusionSegment{}, sp.errorAt(pos, ErrMsgFusionExpectedPath, FusionKeywordPrototype)
		}
		name := strings.TrimSpace(sp.src[start:sp.pos])
		sp.advance()
		if name == StringValueEmpty {
			return fusionSegment{}, sp.errorAt(pos, ErrMsgFusionExpectedPath, FusionKeywordPrototype)
		}
		return fusionSegment{prototype: name}, nil
	}

	start := sp.pos
	if sp.peek() == CharAt {
		sp.advance()
	}
	for !sp.isAtEnd() && isPathChar(sp.peek()) {
		sp.advance()
	}
	key := sp.src[start:sp.pos]
	if key == StringValueEmpty || key == FusionMetaPrefix {
		return fusionSegment{}, sp.errorHere(ErrMsgFusionExpectedPath, string(sp.peek()))
	}
	return fusionSegment{key: key}, nil
}

// parseValue parses the right-hand side of an assignment into target
func (sp *fusionSourceParser) parseValue(target *FusionNode) error {
	pos := sp.position()
	ch := sp.peek()

	switch {
	case sp.isAtEnd():
		return sp.errorHere(ErrMsgFusionUnexpectedEOF, "")

	case ch == CharSingleQuote || ch == CharDoubleQuote:
		value, err := sp.scanString()
		if err != nil {
			return err
		}
		target.SetValue(value)
		return nil

	case sp.matchStr(FusionEelOpen):
		expr, err := sp.scanEel()
		if err != nil {
			return err
		}
		target.SetExpression(expr)
		return nil

	case isDigit(ch) || (ch == '-' && isDigit(sp.peekAt(1))):
		return sp.parseNumber(target)
	}

	start := sp.pos
	for !sp.isAtEnd() && (isPathChar(sp.peek()) || sp.peek() == CharDot) {
		sp.advance()
	}
	word := sp.src[start:sp.pos]

	switch {
	case word == StringValueEmpty:
		return sp.errorAt(pos, ErrMsgFusionInvalidValue, string(ch))
	case sp.peek() == CharBacktick:
		return sp.parseDSL(word, target, pos)
	case sp.peek() == CharColon && isPathChar(sp.peekAt(1)):
		sp.advance()
		for !sp.isAtEnd() && (isPathChar(sp.peek()) || sp.peek() == CharDot) {
			sp.advance()
		}
		target.SetObjectType(sp.src[start:sp.pos])
		sp.skipInlineSpace()
		if sp.peek() == CharOpenBrace {
			sp.advance()
			return sp.parseBlock(fusionScope{node: target}, true)
		}
		return nil
	}

	switch strings.ToLower(word) {
	case StringValueTrue:
		target.SetValue(true)
	case StringValueFalse:
		target.SetValue(false)
	case EelKeywordNull:
		target.SetValue(nil)
	default:
		return sp.errorAt(pos, ErrMsgFusionInvalidValue, word)
	}
	return nil
}

func (sp *fusionSourceParser) parseNumber(target *FusionNode) error {
	pos := sp.position()
	start := sp.pos
	if sp.peek() == '-' {
		sp.advance()
	}
	isFloat := false
	for !sp.isAtEnd() {
		ch := sp.peek()
		if ch == CharDot && !isFloat && isDigit(sp.peekAt(1)) {
			isFloat = true
			sp.advance()
			continue
		}
		if !isDigit(ch) {
			break
		}
		sp.advance()
	}
	text := sp.src[start:sp.pos]

	if isFloat {
		f, err := strconv.ParseFloat(text, FloatBitSize64)
		if err != nil {
			return sp.errorAt(pos, ErrMsgFusionInvalidValue, text)
		}
		target.SetValue(f)
		return nil
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return sp.errorAt(pos, ErrMsgFusionInvalidValue, text)
	}
	target.SetValue(n)
	return nil
}

// parseDSL handles name`code` by transpiling code and parsing the result as a value
func (sp *fusionSourceParser) parseDSL(name string, target *FusionNode, pos Position) error {
	sp.advance() // opening backtick
	start := sp.pos
	for !sp.isAtEnd() && sp.peek() != CharBacktick {
		sp.advance()
	}
	if sp.isAtEnd() {
		return sp.errorAt(pos, ErrMsgFusionUnterminatedDSL, name)
	}
	code := sp.src[start:sp.pos]
	sp.advance() // closing backtick

	transpile, ok := sp.parser.opts.DSL[name]
	if !ok {
		return sp.errorAt(pos, ErrMsgFusionUnknownDSL, name)
	}
	fusion, err := transpile(code)
	if err != nil {
		perr := sp.errorAt(pos, ErrMsgFusionDSLFailed, name)
		perr.Cause = err
		return perr
	}

	sub := &fusionSourceParser{
		parser: sp.parser,
		origin: sp.origin,
		src:    fusion,
		line:   1,
		column: 1,
	}
	if err := sub.parseValue(target); err != nil {
		return err
	}
	if err := sub.skipSpaceAndComments(); err != nil {
		return err
	}
	if !sub.isAtEnd() {
		return sub.errorHere(ErrMsgFusionTrailingContent, string(sub.peek()))
	}
	return nil
}

// expectStatementEnd accepts end of line, a comment, a closing brace or EOF
func (sp *fusionSourceParser) expectStatementEnd() error {
	sp.skipInlineSpace()
	switch {
	case sp.isAtEnd(), sp.peek() == CharNewline, sp.peek() == CharCarriageRet, sp.peek() == CharCloseBrace,
		sp.peek() == ';', sp.peek() == CharHash, sp.matchStr(FusionCommentLine), sp.matchStr(FusionCommentOpen):
		if sp.peek() == ';' {
			sp.advance()
		}
		return nil
	default:
		return sp.errorHere(ErrMsgFusionTrailingContent, string(sp.peek()))
	}
}

// scanString scans a quoted string and returns its unescaped content
func (sp *fusionSourceParser) scanString() (string, error) {
	start := sp.position()
	quote := sp.advance()

	var sb strings.Builder
	for !sp.isAtEnd() {
		ch := sp.advance()
		if ch == quote {
			return sb.String(), nil
		}
		if ch == CharBackslash && !sp.isAtEnd() {
			next := sp.advance()
			switch next {
			case CharBackslash, CharSingleQuote, CharDoubleQuote:
				sb.WriteByte(next)
			case 'n':
				sb.WriteByte(CharNewline)
			case 't':
				sb.WriteByte(CharTab)
			case 'r':
				sb.WriteByte(CharCarriageRet)
			default:
				sb.WriteByte(ch)
				sb.WriteByte(next)
			}
			continue
		}
		sb.WriteByte(ch)
	}
	return "", sp.errorAt(start, ErrMsgFusionUnterminatedStr, "")
}

// scanEel scans ${...} honoring nested braces and quoted strings
func (sp *fusionSourceParser) scanEel() (string, error) {
	start := sp.position()
	sp.advanceN(len(FusionEelOpen))
	begin := sp.pos
	depth := 1

	for !sp.isAtEnd() {
		ch := sp.peek()
		switch ch {
		case CharSingleQuote, CharDoubleQuote:
			if _, err := sp.scanString(); err != nil {
				return "", sp.errorAt(start, ErrMsgFusionUnterminatedEel, "")
			}
			continue
		case CharOpenBrace:
			depth++
		case CharCloseBrace:
			depth--
			if depth == 0 {
				expr := sp.src[begin:sp.pos]
				sp.advance()
				return expr, nil
			}
		}
		sp.advance()
	}
	return "", sp.errorAt(start, ErrMsgFusionUnterminatedEel, "")
}

// skipSpaceAndComments skips whitespace, newlines and all comment forms
func (sp *fusionSourceParser) skipSpaceAndComments() error {
	for !sp.isAtEnd() {
		ch := sp.peek()
		switch {
		case isWhitespace(ch):
			sp.advance()
		case ch == CharHash || sp.matchStr(FusionCommentLine):
			for !sp.isAtEnd() && sp.peek() != CharNewline {
				sp.advance()
			}
		case sp.matchStr(FusionCommentOpen):
			start := sp.position()
			sp.advanceN(len(FusionCommentOpen))
			for !sp.isAtEnd() && !sp.matchStr(FusionCommentClose) {
				sp.advance()
			}
			if sp.isAtEnd() {
				return sp.errorAt(start, ErrMsgFusionUnterminatedComm, "")
			}
			sp.advanceN(len(FusionCommentClose))
		default:
			return nil
		}
	}
	return nil
}

func (sp *fusionSourceParser) skipInlineSpace() {
	for !sp.isAtEnd() && (sp.peek() == CharSpace || sp.peek() == CharTab) {
		sp.advance()
	}
}

// atInclude reports whether the statement is "include:"
func (sp *fusionSourceParser) atInclude() bool {
	if !sp.matchStr(FusionKeywordInclude) {
		return false
	}
	i := sp.pos + len(FusionKeywordInclude)
	for i < len(sp.src) && (sp.src[i] == CharSpace || sp.src[i] == CharTab) {
		i++
	}
	return i < len(sp.src) && sp.src[i] == CharColon
}

// Helper methods

func (sp *fusionSourceParser) position() Position {
	return Position{Offset: sp.pos, Line: sp.line, Column: sp.column}
}

func (sp *fusionSourceParser) errorAt(pos Position, message, detail string) *FusionParseError {
	return NewFusionParseError(sp.origin, pos, message, detail)
}

func (sp *fusionSourceParser) errorHere(message, detail string) *FusionParseError {
	return sp.errorAt(sp.position(), message, detail)
}

func (sp *fusionSourceParser) isAtEnd() bool {
	return sp.pos >= len(sp.src)
}

func (sp *fusionSourceParser) peek() byte {
	if sp.isAtEnd() {
		return 0
	}
	return sp.src[sp.pos]
}

func (sp *fusionSourceParser) peekAt(n int) byte {
	if sp.pos+n >= len(sp.src) {
		return 0
	}
	return sp.src[sp.pos+n]
}

func (sp *fusionSourceParser) advance() byte {
	if sp.isAtEnd() {
		return 0
	}
	ch := sp.src[sp.pos]
	sp.pos++
	if ch == CharNewline {
		sp.line++
		sp.column = 1
	} else {
		sp.column++
	}
	return ch
}

func (sp *fusionSourceParser) advanceN(n int) {
	for i := 0; i < n && !sp.isAtEnd(); i++ {
		sp.advance()
	}
}

func (sp *fusionSourceParser) matchStr(s string) bool {
	return strings.HasPrefix(sp.src[sp.pos:], s)
}

func isPathChar(ch byte) bool {
	return isLetter(ch) || isDigit(ch) || ch == '_' || ch == '-'
}

// ParseFusion parses sources into a validated configuration tree
func ParseFusion(sources []FusionSource, opts FusionParseOptions) (*FusionConfig, error) {
	return NewFusionParser(opts).Parse(sources)
}
