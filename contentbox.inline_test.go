package contentbox

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInlineErrorRenderer_Render(t *testing.T) {
	tests := []struct {
		name     string
		charset  string
		err      error
		expected string
	}{
		{
			name:     "escapes markup and keeps quotes",
			err:      errors.New(`<b class="x">'a' & b</b>`),
			expected: `&lt;b class="x"&gt;'a' &amp; b&lt;/b&gt;`,
		},
		{
			name:     "existing entities are encoded again",
			err:      errors.New("&amp; &#39;"),
			expected: "&amp;amp; &amp;#39;",
		},
		{
			name:     "utf-8 passes through",
			charset:  "UTF-8",
			err:      errors.New("café ✓"),
			expected: "café ✓",
		},
		{
			name:     "latin-1 encodes representable characters",
			charset:  "ISO-8859-1",
			err:      errors.New("café ✓"),
			expected: "caf\xe9 &#10003;",
		},
		{
			name:     "nil error",
			err:      nil,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			renderer, err := NewInlineErrorRenderer(tt.charset)
			require.NoError(t, err)
			assert.Equal(t, InlineErrorOpen+tt.expected+InlineErrorClose, renderer.Render(tt.err))
		})
	}
}

func TestInlineErrorRenderer_Charset(t *testing.T) {
	renderer := MustNewInlineErrorRenderer("")
	assert.Equal(t, DefaultCharset, renderer.Charset())

	_, err := NewInlineErrorRenderer("no-such-charset")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgUnsupportedCharset)

	assert.Panics(t, func() { MustNewInlineErrorRenderer("no-such-charset") })
}

func TestInlineErrorRenderer_RenderingError(t *testing.T) {
	reported := ReportRenderingFailure(errors.New("x < y"))
	output := MustNewInlineErrorRenderer("").Render(reported)
	assert.Equal(t, InlineErrorOpen+"x &lt; y"+InlineErrorClose, output)
}
