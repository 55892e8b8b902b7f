package contentbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestYAMLParamsDecoder_Decode(t *testing.T) {
	tests := []struct {
		name     string
		input    *string
		expected map[string]any
		errMsg   string
	}{
		{name: "absent", input: nil, expected: map[string]any{}},
		{name: "blank", input: strPtr("  \n"), expected: map[string]any{}},
		{name: "null document", input: strPtr("~"), expected: map[string]any{}},
		{name: "scalar values", input: strPtr("name: World\ncount: 3\nactive: true"), expected: map[string]any{
			"name": "World", "count": 3, "active": true,
		}},
		{name: "nested", input: strPtr("user:\n  name: Ada\ntags: [a, b]"), expected: map[string]any{
			"user": map[string]any{"name": "Ada"},
			"tags": []any{"a", "b"},
		}},
		{name: "list document", input: strPtr("- a\n- b"), errMsg: ErrMsgPropsNotMapping},
		{name: "scalar document", input: strPtr("just text"), errMsg: ErrMsgPropsNotMapping},
		{name: "broken yaml", input: strPtr("name: [unclosed"), errMsg: ErrMsgPropsInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			props, err := YAMLParamsDecoder{}.Decode(tt.input)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, props)
		})
	}
}

func TestParamsDecoderFunc(t *testing.T) {
	decoder := ParamsDecoderFunc(func(serialized *string) (map[string]any, error) {
		return map[string]any{"raw": *serialized}, nil
	})
	props, err := decoder.Decode(strPtr("x"))
	require.NoError(t, err)
	assert.Equal(t, "x", props["raw"])
}
