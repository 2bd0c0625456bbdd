// Package config handles configuration loading for cheatsignal.
//
// # Overview
//
// Configuration is loaded from a YAML file with environment variable
// expansion. Keys missing from the file keep the values from Default.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from CHEATSIGNAL_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/cheatsignal/config.yaml
//  3. ~/.config/cheatsignal/config.yaml
//
// `cheatsignal init` writes Example to the default location.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	assistant:
//	  api_key: "${OPENAI_API_KEY}"
//
// Unset variables expand to the empty string. An empty api_key disables AI
// replies; the assistant conversation then answers with a fixed apology.
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	assistant:
//	  timeout: "30s"
//	server:
//	  dedupe_window: "5m"
package config
