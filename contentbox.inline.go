package contentbox

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

var inlineErrorEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
)

// InlineErrorRenderer formats an error as an HTML fragment that can be
// embedded in a page in place of the failed output.
type InlineErrorRenderer struct {
	charset  string
	encoding encoding.Encoding
}

// NewInlineErrorRenderer creates a renderer for output in charset.
// An empty charset means UTF-8.
func NewInlineErrorRenderer(charset string) (*InlineErrorRenderer, error) {
	if charset == "" {
		charset = DefaultCharset
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, NewCharsetError(charset, err)
	}

	r := &InlineErrorRenderer{charset: charset}
	if name, _ := htmlindex.Name(enc); name != "utf-8" {
		r.encoding = enc
	}
	return r, nil
}

// MustNewInlineErrorRenderer creates a renderer or panics
func MustNewInlineErrorRenderer(charset string) *InlineErrorRenderer {
	r, err := NewInlineErrorRenderer(charset)
	if err != nil {
		panic(err)
	}
	return r
}

// Charset returns the charset the output is encoded in
func (r *InlineErrorRenderer) Charset() string {
	return r.charset
}

// Render escapes the message of err and wraps it in the error span.
// Ampersands are always encoded, so existing entities appear literally.
// Quotes are left untouched. Characters the charset cannot represent are
// written as numeric character references.
func (r *InlineErrorRenderer) Render(err error) string {
	message := ""
	if err != nil {
		message = err.Error()
	}
	if !utf8.ValidString(message) {
		message = strings.ToValidUTF8(message, string(utf8.RuneError))
	}

	escaped := inlineErrorEscaper.Replace(message)
	if r.encoding != nil {
		encoder := encoding.HTMLEscapeUnsupported(r.encoding.NewEncoder())
		encoded, encErr := encoder.String(escaped)
		if encErr == nil {
			escaped = encoded
		}
	}
	return InlineErrorOpen + escaped + InlineErrorClose
}
