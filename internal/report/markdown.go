package report

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	noteRenderer  goldmark.Markdown
	noteSanitizer *bluemonday.Policy
)

func init() {
	noteRenderer = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)

	// Mail clients open links outside the message, so force new tabs and nofollow.
	noteSanitizer = bluemonday.UGCPolicy()
	noteSanitizer.RequireNoFollowOnLinks(true)
	noteSanitizer.AddTargetBlankToFullyQualifiedLinks(true)
}

// RenderMarkdown converts the operator note appended to every report into
// sanitized HTML. Raw HTML in the note is dropped. Returns "" for empty input.
func RenderMarkdown(src string) string {
	if src == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := noteRenderer.Convert([]byte(src), &buf); err != nil {
		return noteSanitizer.Sanitize(src)
	}

	return noteSanitizer.Sanitize(buf.String())
}
