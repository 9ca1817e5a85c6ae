package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# TWStock Analyst Configuration

[model]
# OpenAI-compatible endpoint. Ollama serves one at <host>:11434/v1.
base_url = "http://localhost:11434/v1"
# API key. Ollama ignores the value but the client requires one.
api_key = "ollama"
# Model used for both company resolution and report generation.
name = "gpt-oss:20b"
# Per-request timeout.
timeout = "2m"

[marketdata]
# Yahoo Finance chart API host.
base_url = "https://query1.finance.yahoo.com"
# Trailing window of daily candles fetched per analysis.
window_days = 30
# Per-request timeout.
timeout = "30s"
# Transport-level retries inside the gateway client.
max_retries = 3

[catalog]
# Company catalog location. Populate with "twstock-analyst companies refresh".
# path = "~/.config/twstock-analyst/companies.json"
# Number of catalog entries included in the fallback resolution prompt.
prompt_limit = 500

[reports]
# Directory for per-run JSON report artifacts.
# dir = "~/.config/twstock-analyst/reports"
# SQLite report history database.
# db_path = "~/.config/twstock-analyst/analyst.db"
save_artifacts = true

[server]
# HTTP API port for "twstock-analyst serve".
port = 8000
`

// createTemplateConfig writes a commented config template on first run.
func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	return os.WriteFile(path, []byte(configTemplate), 0644)
}
