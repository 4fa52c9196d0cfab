package cmd

import (
	"context"
	"errors"
	"flag"
	"testing"
)

type testConfig struct {
	Address string `env:"CMD_TEST_ADDRESS" envDefault:"127.0.0.1:8080"`
	Mode    string `env:"CMD_TEST_MODE" envDefault:"server"`
}

func TestParseConfigFromArgsFlagsOverrideEnv(t *testing.T) {
	t.Setenv("STOREFRONT_CMD_TEST_ADDRESS", "env:9000")
	t.Setenv("STOREFRONT_CMD_TEST_MODE", "env-mode")

	var cfg testConfig
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	if err := ParseConfig(&cfg); err != nil {
		t.Fatalf("load config defaults: %v", err)
	}
	fs.StringVar(&cfg.Address, "address", cfg.Address, "address")
	fs.StringVar(&cfg.Mode, "mode", cfg.Mode, "mode")

	if err := ParseArgs(fs, []string{"-address", "flag:9001"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	if cfg.Address != "flag:9001" {
		t.Fatalf("Address = %q, want %q", cfg.Address, "flag:9001")
	}
	if cfg.Mode != "env-mode" {
		t.Fatalf("Mode = %q, want %q", cfg.Mode, "env-mode")
	}
}

func TestParseConfigFromArgs(t *testing.T) {
	t.Setenv("STOREFRONT_CMD_TEST_MODE", "configarg-mode")

	var cfg testConfig
	fs := flag.NewFlagSet("configargs", flag.ContinueOnError)
	fs.StringVar(&cfg.Address, "address", "", "address")
	if err := ParseConfigFromArgs(&cfg, fs, []string{"-address", "flag:9002"}); err != nil {
		t.Fatalf("parse config and args: %v", err)
	}
	if cfg.Address != "flag:9002" {
		t.Fatalf("Address = %q, want %q", cfg.Address, "flag:9002")
	}
	if cfg.Mode != "configarg-mode" {
		t.Fatalf("Mode = %q, want %q", cfg.Mode, "configarg-mode")
	}
}

func TestParseConfigRejectsNilTarget(t *testing.T) {
	if err := ParseConfig[testConfig](nil); err == nil {
		t.Fatal("expected nil target error")
	}
	if err := ParseArgs(nil, nil); err == nil {
		t.Fatal("expected parse args to reject nil parser")
	}
}

func TestRunWithTelemetryRejectsMissingInputs(t *testing.T) {
	if err := RunWithTelemetry(context.Background(), "", func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected missing service error")
	}
	if err := RunWithTelemetry(context.Background(), ServiceStorefront, nil); err == nil {
		t.Fatal("expected missing run function error")
	}
}

func TestRunWithTelemetryReturnsRunError(t *testing.T) {
	t.Setenv("STOREFRONT_OTEL_ENDPOINT", "")

	want := errors.New("boom")
	err := RunWithTelemetry(context.Background(), ServiceImporter, func(context.Context) error { return want })
	if !errors.Is(err, want) {
		t.Fatalf("RunWithTelemetry() error = %v, want %v", err, want)
	}
}

func TestLogPrefix(t *testing.T) {
	if got, want := LogPrefix(ServiceStorefront), "[STOREFRONT] "; got != want {
		t.Fatalf("LogPrefix() = %q, want %q", got, want)
	}
	if got, want := LogPrefix(ServiceImporter), "[CATALOG-IMPORTER] "; got != want {
		t.Fatalf("LogPrefix() = %q, want %q", got, want)
	}
}
