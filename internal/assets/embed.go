// Package assets holds resources bundled into the binary via go:embed.
package assets

import (
	_ "embed"
	"strings"
)

//go:embed ai_prompt.txt
var aiPrompt string

// SystemPrompt returns the bundled assistant system prompt, trimmed. It is
// empty only if the bundled file is.
func SystemPrompt() string {
	return strings.TrimSpace(aiPrompt)
}
