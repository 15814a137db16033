package service

import (
	"bytes"
	"html/template"
	"regexp"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"golang.org/x/text/unicode/norm"
)

// TextPolicy sanitizes user-supplied markup and renders markdown descriptions.
type TextPolicy struct {
	ugc      *bluemonday.Policy
	strict   *bluemonday.Policy
	markdown goldmark.Markdown
}

// NewTextPolicy creates a TextPolicy. UGCPolicy keeps basic formatting
// such as links, lists and emphasis while stripping scripts and handlers.
func NewTextPolicy() *TextPolicy {
	return &TextPolicy{
		ugc:      bluemonday.UGCPolicy(),
		strict:   bluemonday.StrictPolicy(),
		markdown: goldmark.New(),
	}
}

// Sanitize strips dangerous HTML from s.
func (p *TextPolicy) Sanitize(s string) string {
	return strings.TrimSpace(p.ugc.Sanitize(s))
}

// Plain strips all HTML from s.
func (p *TextPolicy) Plain(s string) string {
	return strings.TrimSpace(p.strict.Sanitize(s))
}

// Render converts markdown to sanitized HTML.
func (p *TextPolicy) Render(md string) template.HTML {
	if md == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := p.markdown.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(p.ugc.SanitizeBytes(buf.Bytes()))
}

var (
	reNonAlnum = regexp.MustCompile(`[^a-z0-9]+`)
)

// Slugify turns free text into a lowercase ascii slug joined by hyphens.
func Slugify(s string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = 100
	}
	s = strings.ToLower(strings.TrimSpace(s))

	// Strip diacritics (é -> e).
	var b strings.Builder
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}

	slug := strings.Trim(reNonAlnum.ReplaceAllString(b.String(), "-"), "-")
	if len(slug) > maxLen {
		slug = strings.TrimRight(slug[:maxLen], "-")
	}
	if slug == "" {
		return "item"
	}
	return slug
}

func normalizeTag(t string) string {
	return strings.ToLower(strings.Join(strings.Fields(t), " "))
}
