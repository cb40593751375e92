package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CLINICSCHED_CLINIC_TIMEZONE", "UTC")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.GRPCAddr() != "0.0.0.0:50051" {
		t.Fatalf("addrs = %q, %q", cfg.HTTPAddr, cfg.GRPCAddr())
	}
	if cfg.BookingRangeDays != 21 || cfg.SlotIncrement != 15 || cfg.DefaultDuration != 30 {
		t.Fatalf("booking defaults = %d/%d/%d", cfg.BookingRangeDays, cfg.SlotIncrement, cfg.DefaultDuration)
	}
	if cfg.IncludeToday {
		t.Fatalf("include_today should default to false")
	}
	if cfg.GRPCRequestTimeout != 10*time.Second || cfg.RedisTTL != 5*time.Minute {
		t.Fatalf("durations = %v, %v", cfg.GRPCRequestTimeout, cfg.RedisTTL)
	}
	if cfg.RedisAddr != "" {
		t.Fatalf("redis should be disabled by default, got %q", cfg.RedisAddr)
	}
	if cfg.Location.String() != "UTC" {
		t.Fatalf("location = %s", cfg.Location)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CLINICSCHED_CLINIC_TIMEZONE", "Europe/Berlin")
	t.Setenv("CLINICSCHED_BOOKING_RANGE_DAYS", "60")
	t.Setenv("CLINICSCHED_BOOKING_INCLUDE_TODAY", "true")
	t.Setenv("GRPC_ADDR", "127.0.0.1:6000")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("CLINICSCHED_SHUTDOWN_TIMEOUT", "3s")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.BookingRangeDays != 60 || !cfg.IncludeToday {
		t.Fatalf("booking = %d, %v", cfg.BookingRangeDays, cfg.IncludeToday)
	}
	if cfg.GRPCHost != "127.0.0.1" || cfg.GRPCPort != 6000 {
		t.Fatalf("grpc = %s:%d", cfg.GRPCHost, cfg.GRPCPort)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Fatalf("redis addr = %q", cfg.RedisAddr)
	}
	if cfg.ShutdownTimeout != 3*time.Second {
		t.Fatalf("shutdown = %v", cfg.ShutdownTimeout)
	}
	if cfg.Location.String() != "Europe/Berlin" {
		t.Fatalf("location = %s", cfg.Location)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	t.Setenv("CLINICSCHED_CLINIC_TIMEZONE", "UTC")
	path := filepath.Join(t.TempDir(), "clinicsched.yaml")
	body := "booking:\n  slot_increment: 10\nhttp:\n  addr: \":9090\"\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.SlotIncrement != 10 || cfg.HTTPAddr != ":9090" {
		t.Fatalf("file values not applied: %d %q", cfg.SlotIncrement, cfg.HTTPAddr)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{name: "bad duration", env: map[string]string{"CLINICSCHED_GRPC_REQUEST_TIMEOUT": "soon"}, want: "grpc.request_timeout"},
		{name: "bad timezone", env: map[string]string{"CLINICSCHED_CLINIC_TIMEZONE": "Mars/Olympus"}, want: "clinic.timezone"},
		{name: "zero increment", env: map[string]string{"CLINICSCHED_BOOKING_SLOT_INCREMENT": "0"}, want: "slot_increment"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CLINICSCHED_CLINIC_TIMEZONE", "UTC")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want mention of %s", err, tt.want)
			}
		})
	}
}
