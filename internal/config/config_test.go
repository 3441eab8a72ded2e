package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"
)

func isolateEnv(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(envFileEnv, filepath.Join(dir, "missing.env"))
	for _, name := range []string{
		configPathEnv, apiBaseURLEnv, storageDriverEnv, databaseDSNEnv, searchAPIKeyEnv,
		searchEngineIDEnv, chatGPTAPIKeyEnv, chatGPTModelEnv, telegramTokenEnv,
		telegramChatIDEnv, logLevelEnv, chromePathEnv,
	} {
		t.Setenv(name, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	isolateEnv(t)

	cfg := Load()

	if cfg.Storage.Driver != StorageDriverAPI {
		t.Fatalf("unexpected driver: %s", cfg.Storage.Driver)
	}
	if !cfg.Run.Has(StageHarvest) || !cfg.Run.Has(StageEnhance) {
		t.Fatalf("both stages should be enabled: %v", cfg.Run.Stages)
	}
	if !cfg.Enhance.SkipAlreadyEnhanced() {
		t.Fatal("skipEnhanced should default to true")
	}
	if cfg.Search.ResultCount != 2 {
		t.Fatalf("unexpected result count: %d", cfg.Search.ResultCount)
	}
	if cfg.Enhance.Pacing.BetweenArticles != 3*time.Second {
		t.Fatalf("unexpected pacing: %v", cfg.Enhance.Pacing)
	}
	if len(cfg.Sites) != 1 || cfg.Sites[0].ListingURL != "https://beyondchats.com/blogs/" {
		t.Fatalf("unexpected sites: %+v", cfg.Sites)
	}
	if cfg.ChatGPT.SamplingTemperature() != 0.7 {
		t.Fatalf("unexpected default temperature: %v", cfg.ChatGPT.SamplingTemperature())
	}
	if cfg.Scheduler.Location().String() != "UTC" {
		t.Fatalf("unexpected location: %s", cfg.Scheduler.Location())
	}
}

func TestLoadMergesFileAndEnv(t *testing.T) {
	isolateEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
run:
  stages: [enhance]
scheduler:
  cronExpression: "0 6 * * *"
  timezone: Europe/Berlin
storage:
  driver: postgres
  dsn: postgres://file/db
enhance:
  limit: 3
  skipEnhanced: false
  pacing:
    betweenArticles: 10s
search:
  apiKey: from-file
chatgpt:
  temperature: 0
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configPathEnv, path)
	t.Setenv(searchAPIKeyEnv, "from-env")
	t.Setenv(chatGPTAPIKeyEnv, "sk-test")

	cfg := Load()

	if cfg.Run.Has(StageHarvest) || !cfg.Run.Has(StageEnhance) {
		t.Fatalf("unexpected stages: %v", cfg.Run.Stages)
	}
	if cfg.Storage.Driver != StorageDriverPG || cfg.Storage.DSN != "postgres://file/db" {
		t.Fatalf("unexpected storage: %+v", cfg.Storage)
	}
	if cfg.Enhance.Limit != 3 || cfg.Enhance.SkipAlreadyEnhanced() {
		t.Fatalf("unexpected enhance config: %+v", cfg.Enhance)
	}
	if cfg.Enhance.Pacing.BetweenArticles != 10*time.Second || cfg.Enhance.Pacing.BeforeBatch != 2*time.Second {
		t.Fatalf("pacing not merged: %+v", cfg.Enhance.Pacing)
	}
	if cfg.Search.APIKey != "from-env" {
		t.Fatalf("env should win over file: %s", cfg.Search.APIKey)
	}
	if cfg.ChatGPT.APIKey != "sk-test" || cfg.ChatGPT.Model != "gpt-4o-mini" {
		t.Fatalf("unexpected chatgpt config: %+v", cfg.ChatGPT)
	}
	if cfg.ChatGPT.Temperature == nil || cfg.ChatGPT.SamplingTemperature() != 0 {
		t.Fatalf("explicit zero temperature not kept: %v", cfg.ChatGPT.Temperature)
	}
	if cfg.Scheduler.Location().String() != "Europe/Berlin" {
		t.Fatalf("timezone not bound: %s", cfg.Scheduler.Location())
	}
}

func TestRunConfigHasIgnoresCase(t *testing.T) {
	t.Parallel()

	r := RunConfig{Stages: []string{" Harvest "}}
	if !r.Has(StageHarvest) {
		t.Fatal("expected harvest stage")
	}
	if r.Has(StageEnhance) {
		t.Fatal("enhance stage should be disabled")
	}
}
