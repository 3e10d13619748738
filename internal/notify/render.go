package notify

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

// Comment bodies are stored exactly as submitted; sanitization happens here,
// at render time, when a body is embedded into an outbound email.
var ugcPolicy = bluemonday.UGCPolicy()

// RenderCommentBody converts a stored comment body (markdown or plain text)
// to HTML safe for embedding in an email.
func RenderCommentBody(body string) string {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(body), &buf); err != nil {
		return ugcPolicy.Sanitize(body)
	}
	return ugcPolicy.Sanitize(buf.String())
}

// SanitizeHTML strips everything outside the allow-listed tag set.
func SanitizeHTML(s string) string {
	return ugcPolicy.Sanitize(s)
}
