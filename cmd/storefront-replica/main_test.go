package main

import (
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/app"
)

func TestReadConfigFromEnv_Defaults(t *testing.T) {
	cfg, warnings := readConfigFromEnv(mapLookup(nil))

	if len(warnings) != 0 {
		t.Fatalf("expected no warnings, got %d", len(warnings))
	}
	if cfg != app.DefaultConfig() {
		t.Fatalf("expected default config, got %#v", cfg)
	}
}

func TestReadConfigFromEnv_ValidOverrides(t *testing.T) {
	cfg, warnings := readConfigFromEnv(mapLookup(map[string]string{
		envHTTPAddr:        "127.0.0.1:18080",
		envGRPCAddr:        " 127.0.0.1:15051 ",
		envKafkaBrokers:    "kafka-1:9092,kafka-2:9092",
		envKafkaGroup:      "replica-eu",
		envJournalTopic:    "storefront.actions.v2",
		envMaxRetries:      "5",
		envShutdownTimeout: "250ms",
	}))

	require.Empty(t, warnings)
	assert.Equal(t, "127.0.0.1:18080", cfg.HTTPAddr)
	assert.Equal(t, "127.0.0.1:15051", cfg.GRPCAddr)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Brokers())
	assert.Equal(t, "replica-eu", cfg.KafkaGroup)
	assert.Equal(t, "storefront.actions.v2", cfg.JournalTopic)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.ShutdownTimeout)
}

func TestReadConfigFromEnv_BlankValuesKeepDefaults(t *testing.T) {
	cfg, warnings := readConfigFromEnv(mapLookup(map[string]string{
		envHTTPAddr:     "   ",
		envJournalTopic: "",
	}))

	require.Empty(t, warnings)
	assert.Equal(t, app.DefaultConfig(), cfg)
}

func TestReadConfigFromEnv_InvalidValuesFallbackToDefaults(t *testing.T) {
	defaultCfg := app.DefaultConfig()

	cfg, warnings := readConfigFromEnv(mapLookup(map[string]string{
		envMaxRetries:      "0",
		envShutdownTimeout: "soon",
	}))

	if len(warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %d", len(warnings))
	}
	assert.Contains(t, warnings[0].Error(), envMaxRetries)
	assert.Contains(t, warnings[1].Error(), envShutdownTimeout)
	assert.Equal(t, defaultCfg.MaxRetries, cfg.MaxRetries)
	assert.Equal(t, defaultCfg.ShutdownTimeout, cfg.ShutdownTimeout)
}

func TestSetupLogger(t *testing.T) {
	t.Cleanup(func() { log.SetLevel(log.InfoLevel) })

	require.NoError(t, setupLogger(mapLookup(map[string]string{envLogLevel: " debug "})))
	assert.Equal(t, log.DebugLevel, log.GetLevel())

	err := setupLogger(mapLookup(map[string]string{envLogLevel: "loud"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), envLogLevel)
	assert.Equal(t, log.InfoLevel, log.GetLevel())
}

func TestParseInt(t *testing.T) {
	value, err := parseInt(" 12 ", func(v int) bool { return v > 0 }, "must be > 0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != 12 {
		t.Fatalf("unexpected value: %d", value)
	}

	if _, err := parseInt("0", func(v int) bool { return v > 0 }, "must be > 0"); err == nil {
		t.Fatal("expected validation error")
	}
	if _, err := parseInt("twelve", func(v int) bool { return true }, ""); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestParseDuration(t *testing.T) {
	value, err := parseDuration(" 2s ", func(v time.Duration) bool { return v > 0 }, "must be > 0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != 2*time.Second {
		t.Fatalf("unexpected value: %s", value)
	}

	if _, err := parseDuration("-1ms", func(v time.Duration) bool { return v > 0 }, "must be > 0"); err == nil {
		t.Fatal("expected validation error")
	}
}

func mapLookup(values map[string]string) envLookup {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}
