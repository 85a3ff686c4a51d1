// Package content renders stored post markdown into sanitized HTML.
package content

import (
	"bytes"
	"html"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"go.uber.org/zap"
)

// Parser converts markdown to HTML and strips anything unsafe
type Parser struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
	logger *zap.Logger
}

// NewParser creates a GFM parser with a user-content sanitizing policy
func NewParser(logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}

	policy := bluemonday.UGCPolicy()
	policy.AllowImages()
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	policy.RequireNoReferrerOnLinks(true)

	return &Parser{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(gmhtml.WithHardWraps(), gmhtml.WithXHTML()),
		),
		policy: policy,
		logger: logger.With(zap.String("component", "content-parser")),
	}
}

// Parse renders content. Empty content stays empty.
func (p *Parser) Parse(content string) string {
	if content == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := p.md.Convert([]byte(content), &buf); err != nil {
		p.logger.Warn("Failed to render markdown", zap.Error(err))
		return html.EscapeString(content)
	}
	return string(p.policy.SanitizeBytes(buf.Bytes()))
}
