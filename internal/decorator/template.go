package decorator

import "strings"

// Template placeholders
const (
	NamePlaceholder     = "{{name}}"
	UsernamePlaceholder = "{{username}}"
)

// DefaultTemplate is used when the configured template has no name placeholder
const DefaultTemplate = "@" + NamePlaceholder

// RenderMention fills the mention template. Only the first occurrence of each
// placeholder is replaced.
func RenderMention(template, name, username string) string {
	if !strings.Contains(template, NamePlaceholder) {
		template = DefaultTemplate
	}
	out := strings.Replace(template, NamePlaceholder, name, 1)
	return strings.Replace(out, UsernamePlaceholder, username, 1)
}
