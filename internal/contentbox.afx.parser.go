package internal

import (
	"strings"

	"go.uber.org/zap"
)

// AFXParser turns AFX markup into a node tree.
// Parsing is single-pass: the scanner state doubles as the lexer.
type AFXParser struct {
	source string
	pos    int // Current byte position
	line   int // Current line (1-indexed)
	column int // Current column (1-indexed)
	logger *zap.Logger
}

// NewAFXParser creates a parser for the given markup
func NewAFXParser(source string, logger *zap.Logger) *AFXParser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AFXParser{
		source: source,
		line:   1,
		column: 1,
		logger: logger,
	}
}

// Parse parses the whole markup and returns the top-level nodes
func (p *AFXParser) Parse() ([]*AFXNode, error) {
	p.logger.Debug(LogMsgAFXParseStart, zap.Int(LogFieldSource, len(p.source)))

	nodes, err := p.parseChildren(nil)
	if err != nil {
		return nil, err
	}

	p.logger.Debug(LogMsgAFXParseEnd, zap.Int(LogFieldNodes, len(nodes)))
	return nodes, nil
}

// parseChildren parses content until the closing tag of parent (or EOF for the root)
func (p *AFXParser) parseChildren(parent *AFXNode) ([]*AFXNode, error) {
	var children []*AFXNode

	for !p.isAtEnd() {
		switch {
		case p.matchStr(AFXCommentOpen):
			if err := p.skipComment(); err != nil {
				return nil, err
			}

		case p.matchStr(AFXCloseTagOpen):
			closePos := p.currentPosition()
			if parent == nil {
				return nil, NewAFXError(ErrMsgAFXUnexpectedClose, "", closePos)
			}
			p.advanceN(len(AFXCloseTagOpen))
			name := p.scanName()
			p.skipWhitespace()
			if p.peek() != CharGreaterThan {
				return nil, NewAFXError(ErrMsgAFXInvalidTagName, name, p.currentPosition())
			}
			p.advance()
			if name != parent.Name {
				return nil, NewAFXError(ErrMsgAFXMismatchedTag, "expected </"+parent.Name+"> but found </"+name+">", closePos)
			}
			return children, nil

		case p.peek() == CharLessThan && isTagNameStart(p.peekAt(1)):
			element, err := p.parseElement()
			if err != nil {
				return nil, err
			}
			children = append(children, element)

		case p.peek() == CharOpenBrace:
			pos := p.currentPosition()
			expr, err := p.scanExpression()
			if err != nil {
				return nil, err
			}
			children = append(children, &AFXNode{Kind: AFXNodeExpression, Text: expr, Pos: pos})

		case p.peek() == CharCloseBrace:
			return nil, NewAFXError(ErrMsgAFXUnexpectedBrace, "", p.currentPosition())

		default:
			children = append(children, p.scanText())
		}
	}

	if parent != nil {
		return nil, NewAFXError(ErrMsgAFXUnclosedTag, "<"+parent.Name+">", parent.Pos)
	}
	return children, nil
}

// parseElement parses an element starting at '<'
func (p *AFXParser) parseElement() (*AFXNode, error) {
	node := &AFXNode{Kind: AFXNodeElement, Pos: p.currentPosition()}
	p.advance() // consume '<'

	node.Name = p.scanName()
	if node.Name == StringValueEmpty {
		return nil, NewAFXError(ErrMsgAFXInvalidTagName, "", p.currentPosition())
	}

	for {
		p.skipWhitespace()
		if p.isAtEnd() {
			return nil, NewAFXError(ErrMsgAFXUnclosedTag, "<"+node.Name+">", node.Pos)
		}

		if p.matchStr(AFXSelfClose) {
			p.advanceN(len(AFXSelfClose))
			node.SelfClosing = true
			return node, nil
		}

		if p.peek() == CharGreaterThan {
			p.advance()
			children, err := p.parseChildren(node)
			if err != nil {
				return nil, err
			}
			node.Children = children
			return node, nil
		}

		attr, err := p.parseAttribute()
		if err != nil {
			return nil, err
		}
		node.Attributes = append(node.Attributes, attr)
	}
}

// parseAttribute parses name="value", name='value', name={expr}, name or {...spread}
func (p *AFXParser) parseAttribute() (AFXAttribute, error) {
	pos := p.currentPosition()

	if p.peek() == CharOpenBrace {
		expr, err := p.scanExpression()
		if err != nil {
			return AFXAttribute{}, err
		}
		trimmed := strings.TrimSpace(expr)
		if !strings.HasPrefix(trimmed, AFXSpread) {
			return AFXAttribute{}, NewAFXError(ErrMsgAFXInvalidSpread, trimmed, pos)
		}
		spread := strings.TrimSpace(strings.TrimPrefix(trimmed, AFXSpread))
		if spread == StringValueEmpty {
			return AFXAttribute{}, NewAFXError(ErrMsgAFXInvalidSpread, trimmed, pos)
		}
		return AFXAttribute{Kind: AFXAttrSpread, Value: spread, Pos: pos}, nil
	}

	name := p.scanAttributeName()
	if name == StringValueEmpty {
		return AFXAttribute{}, NewAFXError(ErrMsgAFXInvalidAttribute, string(p.peek()), pos)
	}

	p.skipWhitespace()
	if p.peek() != CharEquals {
		return AFXAttribute{Kind: AFXAttrBoolean, Name: name, Pos: pos}, nil
	}
	p.advance()
	p.skipWhitespace()

	switch ch := p.peek(); ch {
	case CharDoubleQuote, CharSingleQuote:
		value, err := p.scanQuoted()
		if err != nil {
			return AFXAttribute{}, err
		}
		return AFXAttribute{Kind: AFXAttrString, Name: name, Value: value, Pos: pos}, nil
	case CharOpenBrace:
		expr, err := p.scanExpression()
		if err != nil {
			return AFXAttribute{}, err
		}
		return AFXAttribute{Kind: AFXAttrExpression, Name: name, Value: expr, Pos: pos}, nil
	default:
		return AFXAttribute{}, NewAFXError(ErrMsgAFXInvalidAttribute, name, p.currentPosition())
	}
}

// scanText scans text up to the next tag, expression or comment
func (p *AFXParser) scanText() *AFXNode {
	pos := p.currentPosition()
	var sb strings.Builder

	for !p.isAtEnd() {
		ch := p.peek()
		if ch == CharOpenBrace || ch == CharCloseBrace {
			break
		}
		if ch == CharLessThan && (isTagNameStart(p.peekAt(1)) || p.matchStr(AFXCloseTagOpen) || p.matchStr(AFXCommentOpen)) {
			break
		}
		sb.WriteByte(p.advance())
	}

	return &AFXNode{Kind: AFXNodeText, Text: sb.String(), Pos: pos}
}

// scanExpression scans a brace-delimited expression, honoring nested braces and strings.
// The returned source excludes the outer braces.
func (p *AFXParser) scanExpression() (string, error) {
	start := p.currentPosition()
	p.advance() // consume '{'

	var sb strings.Builder
	depth := 1
	for !p.isAtEnd() {
		ch := p.peek()
		switch ch {
		case CharDoubleQuote, CharSingleQuote, CharBacktick:
			quoted, ok := p.scanRawQuoted()
			if !ok {
				return "", NewAFXError(ErrMsgAFXUnbalancedBraces, "unterminated string in expression", start)
			}
			sb.WriteString(quoted)
			continue
		case CharOpenBrace:
			depth++
		case CharCloseBrace:
			depth--
			if depth == 0 {
				p.advance()
				return sb.String(), nil
			}
		}
		sb.WriteByte(p.advance())
	}

	return "", NewAFXError(ErrMsgAFXUnbalancedBraces, "", start)
}

// scanRawQuoted consumes a quoted section verbatim, including quotes and escapes
func (p *AFXParser) scanRawQuoted() (string, bool) {
	quote := p.advance()
	var sb strings.Builder
	sb.WriteByte(quote)
	for !p.isAtEnd() {
		ch := p.advance()
		sb.WriteByte(ch)
		if ch == CharBackslash && !p.isAtEnd() {
			sb.WriteByte(p.advance())
			continue
		}
		if ch == quote {
			return sb.String(), true
		}
	}
	return "", false
}

// scanQuoted scans a quoted attribute value and returns its content
func (p *AFXParser) scanQuoted() (string, error) {
	start := p.currentPosition()
	quote := p.advance()

	var sb strings.Builder
	for !p.isAtEnd() {
		ch := p.peek()
		if ch == quote {
			p.advance()
			return sb.String(), nil
		}
		if ch == CharBackslash && p.peekAt(1) == quote {
			p.advance()
			sb.WriteByte(p.advance())
			continue
		}
		sb.WriteByte(p.advance())
	}

	return "", NewAFXError(ErrMsgAFXUnterminatedString, "", start)
}

// skipComment skips a <!-- ... --> comment
func (p *AFXParser) skipComment() error {
	start := p.currentPosition()
	p.advanceN(len(AFXCommentOpen))
	for !p.isAtEnd() {
		if p.matchStr(AFXCommentClose) {
			p.advanceN(len(AFXCommentClose))
			return nil
		}
		p.advance()
	}
	return NewAFXError(ErrMsgAFXUnterminatedComm, "", start)
}

// scanName scans a tag name (letters, digits, '-', '_', '.', ':')
func (p *AFXParser) scanName() string {
	var sb strings.Builder
	for !p.isAtEnd() {
		ch := p.peek()
		if isLetter(ch) || isDigit(ch) || ch == '-' || ch == '_' || ch == CharDot || ch == CharColon {
			sb.WriteByte(p.advance())
		} else {
			break
		}
	}
	return sb.String()
}

// scanAttributeName scans an attribute name, allowing a leading '@' for meta attributes
func (p *AFXParser) scanAttributeName() string {
	var sb strings.Builder
	if p.peek() == CharAt {
		sb.WriteByte(p.advance())
	}
	for !p.isAtEnd() {
		ch := p.peek()
		if isLetter(ch) || isDigit(ch) || ch == '-' || ch == '_' || ch == CharDot || ch == CharColon {
			sb.WriteByte(p.advance())
		} else {
			break
		}
	}
	if sb.Len() == 1 && sb.String() == AFXMetaPrefix {
		return StringValueEmpty
	}
	return sb.String()
}

// Helper methods

func (p *AFXParser) currentPosition() Position {
	return Position{
		Offset: p.pos,
		Line:   p.line,
		Column: p.column,
	}
}

func (p *AFXParser) isAtEnd() bool {
	return p.pos >= len(p.source)
}

func (p *AFXParser) peek() byte {
	if p.isAtEnd() {
		return 0
	}
	return p.source[p.pos]
}

func (p *AFXParser) peekAt(n int) byte {
	if p.pos+n >= len(p.source) {
		return 0
	}
	return p.source[p.pos+n]
}

func (p *AFXParser) advance() byte {
	if p.isAtEnd() {
		return 0
	}
	ch := p.source[p.pos]
	p.pos++
	if ch == CharNewline {
		p.line++
		p.column = 1
	} else {
		p.column++
	}
	return ch
}

func (p *AFXParser) advanceN(n int) {
	for i := 0; i < n && !p.isAtEnd(); i++ {
		p.advance()
	}
}

func (p *AFXParser) matchStr(s string) bool {
	return strings.HasPrefix(p.source[p.pos:], s)
}

func (p *AFXParser) skipWhitespace() {
	for !p.isAtEnd() && isWhitespace(p.peek()) {
		p.advance()
	}
}

// Character classification helpers

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isWhitespace(ch byte) bool {
	return ch == CharSpace || ch == CharTab || ch == CharNewline || ch == CharCarriageRet
}

func isTagNameStart(ch byte) bool {
	return isLetter(ch)
}

// ParseAFX is a convenience function that parses markup into nodes
func ParseAFX(source string, logger *zap.Logger) ([]*AFXNode, error) {
	return NewAFXParser(source, logger).Parse()
}
