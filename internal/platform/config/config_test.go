package config

import (
	"os"
	"testing"
)

const (
	testEnvPostgresDSN = "POSTGRES_DSN"
	testPostgresDSN    = "postgres://localhost/test"
	testErrLoad        = "Load() error = %v"
	testDefaultEnv     = "local"
)

func setRequiredEnvVars(t *testing.T) {
	t.Helper()

	t.Setenv(testEnvPostgresDSN, testPostgresDSN)
}

func TestLoad_MissingRequired(t *testing.T) {
	os.Unsetenv(testEnvPostgresDSN)

	_, err := Load()
	if err == nil {
		t.Error("expected error for missing required env vars")
	}
}

func TestLoad_ValidConfig(t *testing.T) {
	setRequiredEnvVars(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	if cfg.PostgresDSN != testPostgresDSN {
		t.Errorf("PostgresDSN = %q, want %q", cfg.PostgresDSN, testPostgresDSN)
	}
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnvVars(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	if cfg.AppEnv != testDefaultEnv {
		t.Errorf("AppEnv default = %q, want %q", cfg.AppEnv, testDefaultEnv)
	}

	if cfg.HealthPort != 8080 {
		t.Errorf("HealthPort default = %d, want %d", cfg.HealthPort, 8080)
	}

	if cfg.PromptTokenBudget != 50000 {
		t.Errorf("PromptTokenBudget default = %d, want %d", cfg.PromptTokenBudget, 50000)
	}

	if !cfg.EnableVectorIndex {
		t.Error("EnableVectorIndex should default to true")
	}
}

func TestPromptBudgetCfg_ValidatesSharesSumToOne(t *testing.T) {
	setRequiredEnvVars(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	budget, err := cfg.PromptBudgetCfg()
	if err != nil {
		t.Fatalf("PromptBudgetCfg() error = %v", err)
	}

	if budget.TotalTokens != 50000 {
		t.Errorf("TotalTokens = %d, want 50000", budget.TotalTokens)
	}
}

func TestPromptBudgetCfg_RejectsBadShares(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv("CORE_MEMORY_SHARE", "0.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	if _, err := cfg.PromptBudgetCfg(); err == nil {
		t.Error("expected error when shares don't sum to 1.0")
	}
}

func TestLoad_InvalidNumeric(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv("DB_MAX_CONNECTIONS", "not-a-number")

	_, err := Load()
	if err == nil {
		t.Error("expected error for invalid DB_MAX_CONNECTIONS")
	}
}
