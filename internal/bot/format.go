package bot

import "strings"

// markdownEscaper escapes the characters that open an entity in Telegram's
// legacy Markdown.
var markdownEscaper = strings.NewReplacer(
	`_`, `\_`,
	`*`, `\*`,
	"`", "\\`",
	`[`, `\[`,
)

// EscapeMarkdown escapes s for use outside code spans in a Markdown reply.
func EscapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
