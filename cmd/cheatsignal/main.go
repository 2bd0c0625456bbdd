// ABOUTME: Entry point for the cheatsignal messaging backend
// ABOUTME: Subcommands serve the API, write a config, ask the assistant once, or check health

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"

	"github.com/2389/cheatsignal/internal/api"
	"github.com/2389/cheatsignal/internal/assistant"
	"github.com/2389/cheatsignal/internal/config"
	"github.com/2389/cheatsignal/internal/conversation"
	"github.com/2389/cheatsignal/internal/settings"
	"github.com/2389/cheatsignal/internal/store"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
       _                _       _                   _
   ___| |__   ___  __ _| |_ ___(_) __ _ _ __   __ _| |
  / __| '_ \ / _ \/ _' | __/ __| |/ _' | '_ \ / _' | |
 | (__| | | |  __/ (_| | |_\__ \ | (_| | | | | (_| | |
  \___|_| |_|\___|\__,_|\__|___/_|\__, |_| |_|\__,_|_|
                                  |___/
`

func usage() {
	fmt.Println("Usage: cheatsignal <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve            Start the API server")
	fmt.Println("  init             Write a config file interactively")
	fmt.Println("  ask <message>    Send one message to the assistant and print the reply")
	fmt.Println("  health           Check a running server")
	fmt.Println("  version          Print the version")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit()
	case "ask":
		err = runAsk(ctx, os.Args[2:])
	case "health":
		err = runHealth(ctx)
	case "version", "--version", "-v":
		fmt.Println(version)
	case "help", "--help", "-h":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file, falling back to defaults when there is
// none yet.
func loadConfig(path string) (*config.Config, bool, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return config.Default(), false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("loading config: %w", err)
	}
	return cfg, true, nil
}

func runServe(ctx context.Context) error {
	configPath := config.DefaultPath()

	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	// Version info
	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, found, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	// Startup info
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	green.Print("    ▶ ")
	fmt.Printf("Config:    %s", configPath)
	if !found {
		yellow.Print(" (not found, using defaults)")
	}
	fmt.Println()
	green.Print("    ▶ ")
	fmt.Printf("HTTP:      %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Database:  %s\n", cfg.Database.Path)
	green.Print("    ▶ ")
	fmt.Printf("Settings:  %s\n", cfg.Settings.Path)
	green.Print("    ▶ ")
	fmt.Printf("Assistant: ")
	if strings.TrimSpace(cfg.Assistant.APIKey) == "" {
		yellow.Println("disabled (no api_key)")
	} else {
		cyan.Println(cfg.Assistant.Model)
	}
	fmt.Println()

	logger.Info("starting cheatsignal",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
	)

	sqlStore, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer sqlStore.Close()

	policy, err := conversation.ParseUnreadPolicy(cfg.Conversations.UnreadPolicy)
	if err != nil {
		return err
	}
	convs := conversation.NewStore(conversation.Options{
		Policy:        policy,
		Journal:       sqlStore,
		PreviewLength: cfg.Conversations.PreviewLength,
		Logger:        logger,
	})
	defer convs.Close()

	if _, err := convs.Restore(ctx, sqlStore); err != nil {
		return fmt.Errorf("restoring conversations: %w", err)
	}
	if cfg.Conversations.Seed {
		added, err := convs.Seed()
		if err != nil {
			return fmt.Errorf("seeding conversations: %w", err)
		}
		if added > 0 {
			logger.Info("seeded starter conversations", "count", added)
		}
	}

	gw, err := newAssistant(cfg.Assistant, logger)
	if err != nil {
		return err
	}
	svc := conversation.NewService(convs, gw, logger)

	prefs := settings.Open(cfg.Settings.Path, logger)
	defer prefs.Close()
	if cfg.Settings.Watch {
		if err := prefs.Follow(ctx); err != nil {
			logger.Warn("not following settings file", "error", err)
		}
	}

	srv := api.New(api.Config{
		Addr:         cfg.Server.HTTPAddr,
		DedupeWindow: cfg.Server.DedupeWindow,
	}, svc, prefs, sqlStore, logger)

	return srv.Run(ctx)
}

func newAssistant(cfg config.AssistantConfig, logger *slog.Logger) (*assistant.Gateway, error) {
	gw, err := assistant.New(assistant.Config{
		APIKey:            cfg.APIKey,
		Model:             cfg.Model,
		BaseURL:           cfg.BaseURL,
		SystemPrompt:      assistant.LoadPrompt(cfg.PromptFile, logger),
		Timeout:           cfg.Timeout,
		MaxTokens:         cfg.MaxTokens,
		RequestsPerMinute: cfg.RequestsPerMinute,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("creating assistant: %w", err)
	}
	return gw, nil
}

// runAsk sends one message to the assistant, the same way the AI
// conversation does, and prints what the user would see.
func runAsk(ctx context.Context, args []string) error {
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		return fmt.Errorf("usage: cheatsignal ask <message>")
	}

	cfg, _, err := loadConfig(config.DefaultPath())
	if err != nil {
		return err
	}
	logger := setupLogger(config.LoggingConfig{Level: "warn", Format: cfg.Logging.Format})

	gw, err := newAssistant(cfg.Assistant, logger)
	if err != nil {
		return err
	}

	reply, err := gw.Complete(ctx, text)
	if err != nil {
		var gerr *assistant.Error
		if errors.As(err, &gerr) {
			color.New(color.FgYellow).Fprintf(os.Stderr, "assistant unavailable (%s): %v\n", gerr.Kind, gerr.Err)
			fmt.Println(assistant.Fallback(gerr.Kind))
			return nil
		}
		return err
	}
	fmt.Println(reply)
	return nil
}

func runHealth(ctx context.Context) error {
	cfg, _, err := loadConfig(config.DefaultPath())
	if err != nil {
		return err
	}

	// Make HTTP request to health endpoint with context
	url := fmt.Sprintf("http://%s/health", cfg.Server.HTTPAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	color.New(color.FgGreen).Println("healthy")
	return nil
}

func runInit() error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("cheatsignal configuration setup")
	fmt.Println("===============================")
	fmt.Println()

	outputFile := prompt(reader, "Config file path", config.DefaultPath())

	// Check if file exists
	if _, err := os.Stat(outputFile); err == nil {
		overwrite := prompt(reader, "File exists. Overwrite?", "no")
		if !isYes(overwrite) {
			fmt.Println("Aborted.")
			return nil
		}
	}

	content := config.Example
	httpAddr := prompt(reader, "HTTP address", config.Default().Server.HTTPAddr)
	content = strings.Replace(content, `http_addr: "127.0.0.1:8484"`, fmt.Sprintf("http_addr: %q", httpAddr), 1)

	if !isYes(prompt(reader, "Seed starter conversations?", "yes")) {
		content = strings.Replace(content, "seed: true", "seed: false", 1)
	}

	if err := os.MkdirAll(filepath.Dir(outputFile), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	// The example references ${OPENAI_API_KEY} rather than embedding a key,
	// but the file may be edited to hold one.
	if err := os.WriteFile(outputFile, []byte(content), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	dataDir := config.DefaultDataDir()
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	green := color.New(color.FgGreen)
	green.Printf("\n  ✓ Config written to %s\n", outputFile)
	green.Printf("  ✓ Data directory: %s\n", dataDir)
	fmt.Println("\nSet OPENAI_API_KEY to enable AI replies, then start the server:")
	fmt.Println("  cheatsignal serve")

	return nil
}

func isYes(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "yes" || s == "y"
}

func prompt(reader *bufio.Reader, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", question, defaultVal)
	} else {
		fmt.Printf("%s: ", question)
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		// On EOF or error, return default
		fmt.Println()
		return defaultVal
	}
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}
	return input
}
