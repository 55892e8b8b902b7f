package internal

import (
	"fmt"
	"strings"
)

// EelParser parses expression tokens into an AST
type EelParser struct {
	tokens []EelToken
	pos    int
}

// NewEelParser creates a new expression parser
func NewEelParser(tokens []EelToken) *EelParser {
	return &EelParser{tokens: tokens}
}

// Parse parses the expression and returns the root AST node
func (p *EelParser) Parse() (EelNode, error) {
	if len(p.tokens) == 0 || (len(p.tokens) == 1 && p.tokens[0].Type == EelTokenEOF) {
		return nil, NewEelParseError(ErrMsgEelEmptyExpression, 0, "")
	}

	node, err := p.parseTernary()
	if err != nil {
		return nil, err
	}

	if !p.isAtEnd() {
		return nil, NewEelParseError(ErrMsgEelUnexpectedToken, p.peek().Pos, p.peek().Value)
	}

	return node, nil
}

// parseTernary parses cond ? a : b (lowest precedence, right associative)
func (p *EelParser) parseTernary() (EelNode, error) {
	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}

	if !p.match(EelTokenQuestion) {
		return cond, nil
	}

	then, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if !p.match(EelTokenColon) {
		return nil, NewEelParseError(ErrMsgEelExpectedColon, p.currentPos(), "")
	}
	otherwise, err := p.parseTernary()
	if err != nil {
		return nil, err
	}

	return &EelTernary{Cond: cond, Then: then, Else: otherwise}, nil
}

// parseOr parses OR expressions
func (p *EelParser) parseOr() (EelNode, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}

	for p.match(EelTokenOr) {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &EelBinary{Left: left, Op: EelTokenOr, Right: right}
	}

	return left, nil
}

// parseAnd parses AND expressions
func (p *EelParser) parseAnd() (EelNode, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}

	for p.match(EelTokenAnd) {
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		left = &EelBinary{Left: left, Op: EelTokenAnd, Right: right}
	}

	return left, nil
}

// parseEquality parses equality expressions (==, !=)
func (p *EelParser) parseEquality() (EelNode, error) {
	return p.parseBinaryLevel(p.parseComparison, EelTokenEq, EelTokenNeq)
}

// parseComparison parses comparison expressions (<, >, <=, >=)
func (p *EelParser) parseComparison() (EelNode, error) {
	return p.parseBinaryLevel(p.parseAdditive, EelTokenLt, EelTokenGt, EelTokenLte, EelTokenGte)
}

// parseAdditive parses + and -
func (p *EelParser) parseAdditive() (EelNode, error) {
	return p.parseBinaryLevel(p.parseMultiplicative, EelTokenPlus, EelTokenMinus)
}

// parseMultiplicative parses *, / and %
func (p *EelParser) parseMultiplicative() (EelNode, error) {
	return p.parseBinaryLevel(p.parseUnary, EelTokenStar, EelTokenSlash, EelTokenPercent)
}

// parseBinaryLevel parses a left-associative chain of the given operators
func (p *EelParser) parseBinaryLevel(next func() (EelNode, error), ops ...EelTokenType) (EelNode, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}

	for p.matchAny(ops...) {
		op := p.previous().Type
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = &EelBinary{Left: left, Op: op, Right: right}
	}

	return left, nil
}

// parseUnary parses unary expressions (!, not, -)
func (p *EelParser) parseUnary() (EelNode, error) {
	if p.matchAny(EelTokenNot, EelTokenMinus) {
		op := p.previous().Type
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &EelUnary{Op: op, Right: right}, nil
	}

	return p.parsePostfix()
}

// parsePostfix parses calls, index access and member access
func (p *EelParser) parsePostfix() (EelNode, error) {
	node, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	if ident, ok := node.(*EelIdentifier); ok && p.match(EelTokenLParen) {
		node, err = p.finishCall(ident.Name)
		if err != nil {
			return nil, err
		}
	}

	for {
		switch {
		case p.match(EelTokenLBracket):
			index, err := p.parseTernary()
			if err != nil {
				return nil, err
			}
			if !p.match(EelTokenRBracket) {
				return nil, NewEelParseError(ErrMsgEelExpectedRBracket, p.currentPos(), "")
			}
			node = &EelIndex{Target: node, Index: index}
		case p.match(EelTokenDot):
			if !p.match(EelTokenIdentifier) {
				return nil, NewEelParseError(ErrMsgEelExpectedIdent, p.currentPos(), "")
			}
			for _, part := range strings.Split(p.previous().Value, ".") {
				node = &EelMember{Target: node, Name: part}
			}
		default:
			return node, nil
		}
	}
}

// finishCall finishes parsing a helper call after the opening paren
func (p *EelParser) finishCall(name string) (EelNode, error) {
	args, err := p.parseList(EelTokenRParen)
	if err != nil {
		return nil, err
	}
	return &EelCall{Name: name, Args: args}, nil
}

// parseList parses comma separated expressions up to the closing token
func (p *EelParser) parseList(closing EelTokenType) ([]EelNode, error) {
	var items []EelNode

	if !p.check(closing) {
		for {
			item, err := p.parseTernary()
			if err != nil {
				return nil, err
			}
			items = append(items, item)

			if !p.match(EelTokenComma) {
				break
			}
		}
	}

	if !p.match(closing) {
		if closing == EelTokenRParen {
			return nil, NewEelParseError(ErrMsgEelExpectedRParen, p.currentPos(), "")
		}
		return nil, NewEelParseError(ErrMsgEelExpectedRBracket, p.currentPos(), "")
	}

	return items, nil
}

// parsePrimary parses literals, identifiers, grouped expressions and collection literals
func (p *EelParser) parsePrimary() (EelNode, error) {
	switch {
	case p.matchAny(EelTokenString, EelTokenNumber, EelTokenBool, EelTokenNull):
		return &EelLiteral{Value: p.previous().Literal}, nil

	case p.match(EelTokenIdentifier):
		return &EelIdentifier{Name: p.previous().Value}, nil

	case p.match(EelTokenLParen):
		expr, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		if !p.match(EelTokenRParen) {
			return nil, NewEelParseError(ErrMsgEelExpectedRParen, p.currentPos(), "")
		}
		return expr, nil

	case p.match(EelTokenLBracket):
		elements, err := p.parseList(EelTokenRBracket)
		if err != nil {
			return nil, err
		}
		return &EelArray{Elements: elements}, nil

	case p.match(EelTokenLBrace):
		return p.finishObject()
	}

	if p.isAtEnd() {
		return nil, NewEelParseError(ErrMsgEelUnexpectedEOF, p.currentPos(), "")
	}

	return nil, NewEelParseError(ErrMsgEelUnexpectedToken, p.peek().Pos, p.peek().Value)
}

// finishObject parses an object literal after the opening brace
func (p *EelParser) finishObject() (EelNode, error) {
	obj := &EelObject{}

	if p.match(EelTokenRBrace) {
		return obj, nil
	}

	for {
		if !p.matchAny(EelTokenIdentifier, EelTokenString) {
			return nil, NewEelParseError(ErrMsgEelExpectedKey, p.currentPos(), p.peek().Value)
		}
		key := p.previous().Value
		if !p.match(EelTokenColon) {
			return nil, NewEelParseError(ErrMsgEelExpectedColon, p.currentPos(), "")
		}
		value, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		obj.Keys = append(obj.Keys, key)
		obj.Values = append(obj.Values, value)

		if !p.match(EelTokenComma) {
			break
		}
	}

	if !p.match(EelTokenRBrace) {
		return nil, NewEelParseError(ErrMsgEelExpectedRBrace, p.currentPos(), "")
	}
	return obj, nil
}

// Helper methods

func (p *EelParser) match(tokenType EelTokenType) bool {
	if p.check(tokenType) {
		p.advance()
		return true
	}
	return false
}

func (p *EelParser) matchAny(types ...EelTokenType) bool {
	for _, t := range types {
		if p.match(t) {
			return true
		}
	}
	return false
}

func (p *EelParser) check(tokenType EelTokenType) bool {
	if p.isAtEnd() {
		return false
	}
	return p.peek().Type == tokenType
}

func (p *EelParser) advance() EelToken {
	if !p.isAtEnd() {
		p.pos++
	}
	return p.previous()
}

func (p *EelParser) peek() EelToken {
	if p.pos >= len(p.tokens) {
		return EelToken{Type: EelTokenEOF, Pos: p.currentPos()}
	}
	return p.tokens[p.pos]
}

func (p *EelParser) previous() EelToken {
	if p.pos == 0 {
		return p.tokens[0]
	}
	return p.tokens[p.pos-1]
}

func (p *EelParser) isAtEnd() bool {
	return p.pos >= len(p.tokens) || p.tokens[p.pos].Type == EelTokenEOF
}

func (p *EelParser) currentPos() int {
	if p.pos >= len(p.tokens) {
		if len(p.tokens) > 0 {
			return p.tokens[len(p.tokens)-1].Pos
		}
		return 0
	}
	return p.tokens[p.pos].Pos
}

// EelParseError represents an error during expression parsing
type EelParseError struct {
	Message string
	Pos     int
	Detail  string
}

// NewEelParseError creates a new expression parse error
func NewEelParseError(message string, pos int, detail string) *EelParseError {
	return &EelParseError{
		Message: message,
		Pos:     pos,
		Detail:  detail,
	}
}

// Error implements the error interface
func (e *EelParseError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s at position %d: %s", e.Message, e.Pos, e.Detail)
	}
	return fmt.Sprintf("%s at position %d", e.Message, e.Pos)
}

// Expression parser error messages
const (
	ErrMsgEelEmptyExpression  = "empty expression"
	ErrMsgEelUnexpectedToken  = "unexpected token"
	ErrMsgEelExpectedRParen   = "expected closing parenthesis"
	ErrMsgEelExpectedRBracket = "expected closing bracket"
	ErrMsgEelExpectedRBrace   = "expected closing brace"
	ErrMsgEelExpectedColon    = "expected ':'"
	ErrMsgEelExpectedIdent    = "expected identifier after '.'"
	ErrMsgEelExpectedKey      = "expected object key"
	ErrMsgEelUnexpectedEOF    = "unexpected end of expression"
)

// ParseEel is a convenience function that tokenizes and parses an expression string
func ParseEel(expr string) (EelNode, error) {
	tokens, err := NewEelTokenizer(expr).Tokenize()
	if err != nil {
		return nil, err
	}
	return NewEelParser(tokens).Parse()
}
