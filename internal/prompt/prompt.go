// Package prompt renders task prompt templates against an agent context.
//
// Templates use %{key} placeholders. The key set is closed: it is exactly the
// field set of protocol.AgentContext. Unknown tokens pass through unchanged,
// so a template containing no recognized tokens renders as itself. There is
// no nesting, recursion, or escape syntax.
package prompt

import (
	"regexp"

	"github.com/paralens-ai/paralens/pkg/protocol"
)

var tokenPattern = regexp.MustCompile(`%\{([a-zA-Z0-9_]+)\}`)

// Keys lists the recognized placeholder names.
var Keys = []string{
	"sourceText",
	"sourceLanguage",
	"targetLanguage",
	"siteTitle",
	"siteUrl",
	"siteDescription",
}

// Render substitutes %{key} tokens in template with values from ctx.
// Unrecognized tokens are left byte-for-byte unchanged; absent optional
// fields render as the empty string.
func Render(template string, ctx protocol.AgentContext) string {
	if template == "" {
		return ""
	}

	return tokenPattern.ReplaceAllStringFunc(template, func(match string) string {
		key := match[2 : len(match)-1]
		switch key {
		case "sourceText":
			return ctx.SourceText
		case "sourceLanguage":
			return ctx.SourceLanguage
		case "targetLanguage":
			return ctx.TargetLanguage
		case "siteTitle":
			return ctx.SiteTitle
		case "siteUrl":
			return ctx.SiteURL
		case "siteDescription":
			return ctx.SiteDescription
		default:
			return match
		}
	})
}
