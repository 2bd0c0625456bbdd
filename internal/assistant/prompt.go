// ABOUTME: Loads the assistant's system prompt once at startup
// ABOUTME: Falls back to the bundled prompt, then to a hardcoded default

package assistant

import (
	"log/slog"
	"os"
	"strings"

	"github.com/2389/cheatsignal/internal/assets"
)

// DefaultSystemPrompt is used when no prompt can be loaded.
const DefaultSystemPrompt = "You are Alice AI, a friendly and helpful assistant."

// LoadPrompt returns the system prompt. An empty path selects the prompt
// bundled into the binary. A file that is missing, unreadable or blank is
// logged and replaced by DefaultSystemPrompt.
func LoadPrompt(path string, logger *slog.Logger) string {
	if logger == nil {
		logger = slog.Default()
	}

	if path == "" {
		if p := assets.SystemPrompt(); p != "" {
			return p
		}
		return DefaultSystemPrompt
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error("error loading AI prompt, using default", "path", path, "error", err)
		return DefaultSystemPrompt
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		logger.Warn("AI prompt file is empty, using default", "path", path)
		return DefaultSystemPrompt
	}
	return prompt
}
