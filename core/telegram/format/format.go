// Package format escapes text for the parse modes the Bot API accepts.
package format

import (
	"fmt"
	"html"
	"strings"
)

const mdV2Specials = "_*[]()~`>#+-=|{}.!"

var mdV2Replacer = buildEscaper(mdV2Specials)

func buildEscaper(specials string) *strings.Replacer {
	pairs := make([]string, 0, len(specials)*2)
	for _, r := range specials {
		pairs = append(pairs, string(r), `\`+string(r))
	}
	return strings.NewReplacer(pairs...)
}

// EscapeMarkdownV2 escapes every MarkdownV2 special character in text.
func EscapeMarkdownV2(text string) string {
	return mdV2Replacer.Replace(text)
}

// EscapeHTML escapes text for HTML parse mode.
func EscapeHTML(text string) string {
	return html.EscapeString(text)
}

// CodeBlock wraps text in a MarkdownV2 fenced code block. Backslashes and
// backticks are the only characters escaped inside code entities.
func CodeBlock(text string) string {
	escaped := strings.NewReplacer(`\`, `\\`, "`", "\\`").Replace(text)
	return fmt.Sprintf("```\n%s\n```", escaped)
}

// Bold wraps already-escaped MarkdownV2 text in a bold entity.
func Bold(text string) string {
	return "*" + text + "*"
}
