package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("LLM_MODEL", "")
	t.Setenv("LLM_TIMEOUT", "")
	t.Setenv("LLM_ALLOWED_MODELS", "")

	cfg := Load()
	if cfg.Env != "dev" {
		t.Fatalf("expected env dev, got %q", cfg.Env)
	}
	if cfg.LLMModel != defaultModel {
		t.Fatalf("expected default model %q, got %q", defaultModel, cfg.LLMModel)
	}
	if cfg.LLMTimeout != 45*time.Second {
		t.Fatalf("expected 45s timeout, got %s", cfg.LLMTimeout)
	}
	if len(cfg.LLMAllowedModels) != len(defaultAllowedModels) {
		t.Fatalf("expected %d allowed models, got %d", len(defaultAllowedModels), len(cfg.LLMAllowedModels))
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENV", "prod")
	t.Setenv("LLM_TIMEOUT", "30")
	t.Setenv("LLM_ALLOWED_MODELS", " gpt-4o , claude-3-5-haiku-latest ,,")
	t.Setenv("SMTP_PORT", "not-a-number")

	cfg := Load()
	if cfg.Env != "production" {
		t.Fatalf("expected env production, got %q", cfg.Env)
	}
	if cfg.LLMTimeout != 30*time.Second {
		t.Fatalf("expected 30s timeout, got %s", cfg.LLMTimeout)
	}
	if len(cfg.LLMAllowedModels) != 2 || cfg.LLMAllowedModels[1] != "claude-3-5-haiku-latest" {
		t.Fatalf("unexpected allowed models: %v", cfg.LLMAllowedModels)
	}
	if cfg.SMTPPort != 587 {
		t.Fatalf("expected invalid SMTP_PORT to fall back to 587, got %d", cfg.SMTPPort)
	}
}

func TestLoadEnvFilesDoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("CL_TEST_FROM_FILE=file\nCL_TEST_PRESET=file\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("CL_TEST_PRESET", "process")
	t.Cleanup(func() { _ = os.Unsetenv("CL_TEST_FROM_FILE") })

	loadEnvFiles(path, filepath.Join(dir, "missing.env"))

	if got := os.Getenv("CL_TEST_FROM_FILE"); got != "file" {
		t.Fatalf("expected value from file, got %q", got)
	}
	if got := os.Getenv("CL_TEST_PRESET"); got != "process" {
		t.Fatalf("expected process env to win, got %q", got)
	}
}
