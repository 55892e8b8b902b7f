package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEelTokenizer_Tokenize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []EelTokenType
	}{
		{"identifier path", "props.title", []EelTokenType{EelTokenIdentifier, EelTokenEOF}},
		{"string", `'a'`, []EelTokenType{EelTokenString, EelTokenEOF}},
		{"number", "1.5", []EelTokenType{EelTokenNumber, EelTokenEOF}},
		{"booleans and null", "true false null", []EelTokenType{EelTokenBool, EelTokenBool, EelTokenNull, EelTokenEOF}},
		{"comparison", "a >= 1", []EelTokenType{EelTokenIdentifier, EelTokenGte, EelTokenNumber, EelTokenEOF}},
		{"logical", "a && !b || c", []EelTokenType{EelTokenIdentifier, EelTokenAnd, EelTokenNot, EelTokenIdentifier, EelTokenOr, EelTokenIdentifier, EelTokenEOF}},
		{"keyword operators", "a and not b or c", []EelTokenType{EelTokenIdentifier, EelTokenAnd, EelTokenNot, EelTokenIdentifier, EelTokenOr, EelTokenIdentifier, EelTokenEOF}},
		{"call", "String.trim(x)", []EelTokenType{EelTokenIdentifier, EelTokenLParen, EelTokenIdentifier, EelTokenRParen, EelTokenEOF}},
		{"ternary", "a ? 1 : 2", []EelTokenType{EelTokenIdentifier, EelTokenQuestion, EelTokenNumber, EelTokenColon, EelTokenNumber, EelTokenEOF}},
		{"object literal", "{a: 1}", []EelTokenType{EelTokenLBrace, EelTokenIdentifier, EelTokenColon, EelTokenNumber, EelTokenRBrace, EelTokenEOF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := NewEelTokenizer(tt.input).Tokenize()
			require.NoError(t, err)

			types := make([]EelTokenType, len(tokens))
			for i, tok := range tokens {
				types[i] = tok.Type
			}
			assert.Equal(t, tt.expected, types)
		})
	}
}

func TestEelTokenizer_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		message string
	}{
		{"unterminated string", `'abc`, ErrMsgEelUnterminatedStr},
		{"unexpected character", `a # b`, ErrMsgEelUnexpectedChar},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEelTokenizer(tt.input).Tokenize()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestEelParser_Precedence(t *testing.T) {
	node, err := ParseEel("1 + 2 * 3")
	require.NoError(t, err)

	binary, ok := node.(*EelBinary)
	require.True(t, ok)
	assert.Equal(t, EelTokenPlus, binary.Op)

	right, ok := binary.Right.(*EelBinary)
	require.True(t, ok)
	assert.Equal(t, EelTokenStar, right.Op)
}

func TestEelParser_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"unclosed paren", "(1 + 2"},
		{"unclosed array", "[1, 2"},
		{"unclosed object", "{a: 1"},
		{"missing colon in ternary", "a ? 1"},
		{"dangling operator", "1 +"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEel(tt.input)
			require.Error(t, err)
		})
	}
}

type eelTestNode struct {
	Title string
	props map[string]any
}

func (n eelTestNode) Property(name string) (any, bool) {
	v, ok := n.props[name]
	return v, ok
}

func TestEelEvaluator_Evaluate(t *testing.T) {
	ctx := NewContext().PushAll(map[string]any{
		"props": map[string]any{
			"name":  "World",
			"count": 3,
			"tags":  []any{"a", "b", "c"},
			"empty": "",
			"flag":  true,
		},
		"node": eelTestNode{Title: "Home", props: map[string]any{"headline": "Welcome"}},
	})
	helpers := NewDefaultHelperRegistry()

	tests := []struct {
		name     string
		expr     string
		expected any
	}{
		{"string literal", `'hello'`, "hello"},
		{"double quoted literal", `"hello"`, "hello"},
		{"number literal", `42`, float64(42)},
		{"null literal", `null`, nil},
		{"context path", `props.name`, "World"},
		{"missing path yields null", `props.missing`, nil},
		{"missing root yields null", `unknown.deep.path`, nil},
		{"index access", `props.tags[1]`, "b"},
		{"bracket key access", `props['name']`, "World"},
		{"struct field", `node.title`, "Home"},
		{"concatenation", `'Hello ' + props.name`, "Hello World"},
		{"number plus string concatenates", `1 + 'a'`, "1a"},
		{"addition", `props.count + 2`, 5},
		{"float arithmetic", `7 / 2`, 3.5},
		{"modulo", `7 % 3`, 1},
		{"unary minus", `-props.count`, -3},
		{"precedence", `1 + 2 * 3`, 7},
		{"grouping", `(1 + 2) * 3`, 9},
		{"equality numbers", `props.count == 3`, true},
		{"equality strings", `props.name != 'World'`, false},
		{"comparison", `props.count > 2 && props.count <= 3`, true},
		{"and returns deciding operand", `props.empty && 'x'`, ""},
		{"or returns first truthy", `props.empty || 'fallback'`, "fallback"},
		{"keyword operators", `not props.flag or props.count == 3`, true},
		{"negation", `!props.flag`, false},
		{"ternary", `props.flag ? 'yes' : 'no'`, "yes"},
		{"nested ternary", `false ? 1 : props.flag ? 'b' : 'c'`, "b"},
		{"helper call", `String.toUpperCase(props.name)`, "WORLD"},
		{"helper on array", `Array.join(props.tags, '-')`, "a-b-c"},
		{"helper result member", `Array.first(props.tags)`, "a"},
		{"node property helper", `Node.property(node, 'headline')`, "Welcome"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := EvaluateEel(tt.expr, helpers, ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestEelEvaluator_Literals(t *testing.T) {
	helpers := NewDefaultHelperRegistry()

	t.Run("array literal", func(t *testing.T) {
		result, err := EvaluateEel(`[1, 'a', true]`, helpers, NewContext())
		require.NoError(t, err)
		assert.Equal(t, []any{float64(1), "a", true}, result)
	})

	t.Run("object literal keeps key order", func(t *testing.T) {
		result, err := EvaluateEel(`{b: 1, 'a': 2}`, helpers, NewContext())
		require.NoError(t, err)

		m, ok := result.(*OrderedMap)
		require.True(t, ok)
		assert.Equal(t, []string{"b", "a"}, m.Keys())
	})
}

func TestEelEvaluator_Errors(t *testing.T) {
	helpers := NewDefaultHelperRegistry()
	ctx := NewContext().Push("s", "text")

	tests := []struct {
		name string
		expr string
	}{
		{"division by zero", `1 / 0`},
		{"modulo by zero", `1 % 0`},
		{"arithmetic on string", `s * 2`},
		{"negating a string", `-s`},
		{"unknown helper", `Foo.bar(1)`},
		{"too few helper args", `String.replace('a')`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EvaluateEel(tt.expr, helpers, ctx)
			require.Error(t, err)
		})
	}
}

func TestEelEvaluator_NoHelpers(t *testing.T) {
	_, err := EvaluateEel(`String.trim(' a ')`, nil, NewContext())
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgEelNoHelpers)
}
