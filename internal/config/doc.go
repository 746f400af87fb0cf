// Package config provides process configuration and seed document loading.
//
// # Configuration
//
// New returns a viper instance with defaults for every key and automatic
// environment binding. Load first reads .env files with godotenv (without
// overriding variables already set), then decodes the viper settings into a
// Config:
//
//	PORT                3000
//	SERVER_URL          http://localhost:3000
//	LOG_LEVEL           INFO
//	LOG_PRETTY          false
//	SEED_FILE           (none)
//	CSS_FILE, JS_FILE   (none)
//	HEARTBEAT_INTERVAL  2s
//
// Cobra flags bound to the same keys take precedence over the environment.
//
// # Seed documents
//
// LoadSeed replaces the built-in starting document. Supported formats:
//   - .json and .jsonc, with comments stripped by tidwall/jsonc
//   - .yaml and .yml, decoded by gopkg.in/yaml.v3
//
// JSON and JSONC seeds support placeholders inside string values:
//   - {env:VAR_NAME} expands to the environment variable
//   - {file:path} expands to the file's contents, escaped for JSON; relative
//     paths resolve against the seed file's directory and ~/ against HOME
//
// A seed must pass the same validation as live edits: valid and unique ids,
// geometry on every artboard child, known node types and no grandchildren.
package config
