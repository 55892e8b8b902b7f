package internal

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// EelTokenType represents the type of an expression token
type EelTokenType string

// Expression token type constants
const (
	EelTokenIdentifier EelTokenType = "IDENT"
	EelTokenString     EelTokenType = "STRING"
	EelTokenNumber     EelTokenType = "NUMBER"
	EelTokenBool       EelTokenType = "BOOL"
	EelTokenNull       EelTokenType = "NULL"
	EelTokenLParen     EelTokenType = "LPAREN"
	EelTokenRParen     EelTokenType = "RPAREN"
	EelTokenLBracket   EelTokenType = "LBRACKET"
	EelTokenRBracket   EelTokenType = "RBRACKET"
	EelTokenLBrace     EelTokenType = "LBRACE"
	EelTokenRBrace     EelTokenType = "RBRACE"
	EelTokenComma      EelTokenType = "COMMA"
	EelTokenDot        EelTokenType = "DOT"
	EelTokenQuestion   EelTokenType = "QUESTION"
	EelTokenColon      EelTokenType = "COLON"

	// Operators
	EelTokenAnd     EelTokenType = "AND"
	EelTokenOr      EelTokenType = "OR"
	EelTokenNot     EelTokenType = "NOT"
	EelTokenEq      EelTokenType = "EQ"
	EelTokenNeq     EelTokenType = "NEQ"
	EelTokenLt      EelTokenType = "LT"
	EelTokenGt      EelTokenType = "GT"
	EelTokenLte     EelTokenType = "LTE"
	EelTokenGte     EelTokenType = "GTE"
	EelTokenPlus    EelTokenType = "PLUS"
	EelTokenMinus   EelTokenType = "MINUS"
	EelTokenStar    EelTokenType = "STAR"
	EelTokenSlash   EelTokenType = "SLASH"
	EelTokenPercent EelTokenType = "PERCENT"

	EelTokenEOF EelTokenType = "EOF"
)

// Expression operator strings
const (
	EelOpAnd = "&&"
	EelOpOr  = "||"
	EelOpNot = "!"
	EelOpEq  = "=="
	EelOpNeq = "!="
	EelOpLt  = "<"
	EelOpGt  = ">"
	EelOpLte = "<="
	EelOpGte = ">="
)

// Expression keyword constants (matched case-insensitively)
const (
	EelKeywordTrue  = "true"
	EelKeywordFalse = "false"
	EelKeywordNull  = "null"
	EelKeywordNil   = "nil"
	EelKeywordAnd   = "and"
	EelKeywordOr    = "or"
	EelKeywordNot   = "not"
)

// EelToken represents a token in an expression
type EelToken struct {
	Type    EelTokenType
	Value   string
	Pos     int
	Literal any // Parsed value for literals (string, float64, bool, nil)
}

// String returns the string representation of the token
func (t EelToken) String() string {
	if t.Value != "" {
		return fmt.Sprintf("%s(%s)", t.Type, t.Value)
	}
	return string(t.Type)
}

// EelTokenizer tokenizes expression strings
type EelTokenizer struct {
	input string
	pos   int
	len   int
}

// NewEelTokenizer creates a new expression tokenizer
func NewEelTokenizer(input string) *EelTokenizer {
	return &EelTokenizer{
		input: input,
		len:   len(input),
	}
}

// Tokenize converts the input string into a slice of tokens
func (t *EelTokenizer) Tokenize() ([]EelToken, error) {
	var tokens []EelToken

	for {
		t.skipWhitespace()

		if t.pos >= t.len {
			tokens = append(tokens, EelToken{Type: EelTokenEOF, Pos: t.pos})
			break
		}

		token, err := t.nextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}

	return tokens, nil
}

// nextToken reads the next token from the input
func (t *EelTokenizer) nextToken() (EelToken, error) {
	startPos := t.pos
	ch := t.peek()

	if ch == '"' || ch == '\'' {
		return t.readString()
	}

	if isDigit(ch) || (ch == '.' && t.pos+1 < t.len && isDigit(t.input[t.pos+1])) {
		return t.readNumber()
	}

	if unicode.IsLetter(rune(ch)) || ch == '_' {
		return t.readIdentifier()
	}

	if t.pos+1 < t.len {
		twoChar := t.input[t.pos : t.pos+2]
		var tokenType EelTokenType
		switch twoChar {
		case EelOpAnd:
			tokenType = EelTokenAnd
		case EelOpOr:
			tokenType = EelTokenOr
		case EelOpEq:
			tokenType = EelTokenEq
		case EelOpNeq:
			tokenType = EelTokenNeq
		case EelOpLte:
			tokenType = EelTokenLte
		case EelOpGte:
			tokenType = EelTokenGte
		}
		if tokenType != "" {
			t.pos += 2
			return EelToken{Type: tokenType, Value: twoChar, Pos: startPos}, nil
		}
	}

	t.pos++
	var tokenType EelTokenType
	switch ch {
	case '(':
		tokenType = EelTokenLParen
	case ')':
		tokenType = EelTokenRParen
	case '[':
		tokenType = EelTokenLBracket
	case ']':
		tokenType = EelTokenRBracket
	case '{':
		tokenType = EelTokenLBrace
	case '}':
		tokenType = EelTokenRBrace
	case ',':
		tokenType = EelTokenComma
	case '.':
		tokenType = EelTokenDot
	case '?':
		tokenType = EelTokenQuestion
	case ':':
		tokenType = EelTokenColon
	case '!':
		tokenType = EelTokenNot
	case '<':
		tokenType = EelTokenLt
	case '>':
		tokenType = EelTokenGt
	case '+':
		tokenType = EelTokenPlus
	case '-':
		tokenType = EelTokenMinus
	case '*':
		tokenType = EelTokenStar
	case '/':
		tokenType = EelTokenSlash
	case '%':
		tokenType = EelTokenPercent
	default:
		return EelToken{}, NewEelTokenError(ErrMsgEelUnexpectedChar, startPos, string(ch))
	}
	return EelToken{Type: tokenType, Value: string(ch), Pos: startPos}, nil
}

// readString reads a string literal
func (t *EelTokenizer) readString() (EelToken, error) {
	startPos := t.pos
	quote := t.input[t.pos]
	t.pos++ // skip opening quote

	var sb strings.Builder
	for t.pos < t.len {
		ch := t.input[t.pos]
		if ch == quote {
			t.pos++ // skip closing quote
			value := sb.String()
			return EelToken{
				Type:    EelTokenString,
				Value:   value,
				Pos:     startPos,
				Literal: value,
			}, nil
		}
		if ch == '\\' && t.pos+1 < t.len {
			t.pos++
			escaped := t.input[t.pos]
			switch escaped {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			default:
				sb.WriteByte(escaped)
			}
			t.pos++
			continue
		}
		sb.WriteByte(ch)
		t.pos++
	}

	return EelToken{}, NewEelTokenError(ErrMsgEelUnterminatedStr, startPos, "")
}

// readNumber reads a numeric literal
func (t *EelTokenizer) readNumber() (EelToken, error) {
	startPos := t.pos
	hasDecimal := false

	for t.pos < t.len {
		ch := t.input[t.pos]
		if ch == '.' {
			if hasDecimal || t.pos+1 >= t.len || !isDigit(t.input[t.pos+1]) {
				break
			}
			hasDecimal = true
			t.pos++
			continue
		}
		if !isDigit(ch) {
			break
		}
		t.pos++
	}

	value := t.input[startPos:t.pos]
	literal, err := strconv.ParseFloat(value, FloatBitSize64)
	if err != nil {
		return EelToken{}, NewEelTokenError(ErrMsgEelInvalidNumber, startPos, value)
	}

	return EelToken{
		Type:    EelTokenNumber,
		Value:   value,
		Pos:     startPos,
		Literal: literal,
	}, nil
}

// readIdentifier reads an identifier or keyword.
// Dots between identifier parts are kept, so "props.title" is a single token.
func (t *EelTokenizer) readIdentifier() (EelToken, error) {
	startPos := t.pos

	for t.pos < t.len {
		ch := rune(t.input[t.pos])
		if ch == '.' {
			if t.pos+1 >= t.len || !(unicode.IsLetter(rune(t.input[t.pos+1])) || t.input[t.pos+1] == '_' || isDigit(t.input[t.pos+1])) {
				break
			}
			t.pos++
			continue
		}
		if !unicode.IsLetter(ch) && !unicode.IsDigit(ch) && ch != '_' {
			break
		}
		t.pos++
	}

	value := t.input[startPos:t.pos]

	switch strings.ToLower(value) {
	case EelKeywordTrue:
		return EelToken{Type: EelTokenBool, Value: value, Pos: startPos, Literal: true}, nil
	case EelKeywordFalse:
		return EelToken{Type: EelTokenBool, Value: value, Pos: startPos, Literal: false}, nil
	case EelKeywordNull, EelKeywordNil:
		return EelToken{Type: EelTokenNull, Value: value, Pos: startPos, Literal: nil}, nil
	case EelKeywordAnd:
		return EelToken{Type: EelTokenAnd, Value: value, Pos: startPos}, nil
	case EelKeywordOr:
		return EelToken{Type: EelTokenOr, Value: value, Pos: startPos}, nil
	case EelKeywordNot:
		return EelToken{Type: EelTokenNot, Value: value, Pos: startPos}, nil
	}

	return EelToken{Type: EelTokenIdentifier, Value: value, Pos: startPos}, nil
}

// peek returns the current character without advancing
func (t *EelTokenizer) peek() byte {
	if t.pos >= t.len {
		return 0
	}
	return t.input[t.pos]
}

// skipWhitespace skips whitespace characters
func (t *EelTokenizer) skipWhitespace() {
	for t.pos < t.len && unicode.IsSpace(rune(t.input[t.pos])) {
		t.pos++
	}
}

// EelTokenError represents an error during expression tokenization
type EelTokenError struct {
	Message string
	Pos     int
	Detail  string
}

// NewEelTokenError creates a new expression token error
func NewEelTokenError(message string, pos int, detail string) *EelTokenError {
	return &EelTokenError{
		Message: message,
		Pos:     pos,
		Detail:  detail,
	}
}

// Error implements the error interface
func (e *EelTokenError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s at position %d: %s", e.Message, e.Pos, e.Detail)
	}
	return fmt.Sprintf("%s at position %d", e.Message, e.Pos)
}

// Expression tokenizer error messages
const (
	ErrMsgEelUnexpectedChar  = "unexpected character"
	ErrMsgEelUnterminatedStr = "unterminated string literal"
	ErrMsgEelInvalidNumber   = "invalid number format"
)
