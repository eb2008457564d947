package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Identity.Vendor != "Elmo" {
		t.Fatalf("unexpected vendor %q", cfg.Identity.Vendor)
	}
	if cfg.OCPP.RemoteStartStopResponse != "Accepted" {
		t.Fatalf("unexpected remote start/stop response %q", cfg.OCPP.RemoteStartStopResponse)
	}
	if cfg.CallTimeout() != 30*time.Second {
		t.Fatalf("unexpected call timeout %s", cfg.CallTimeout())
	}
	if cfg.RemoteStartDelay() != 3*time.Second {
		t.Fatalf("unexpected remote start delay %s", cfg.RemoteStartDelay())
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("CS_URL", "ws://cs.example/")
	t.Setenv("CP_ID", "CP42")
	t.Setenv("OCPP_REMOTE_START_DELAY", "0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.CentralSystem.URL != "ws://cs.example/" {
		t.Fatalf("unexpected url %q", cfg.CentralSystem.URL)
	}
	if cfg.CentralSystem.CPID != "CP42" {
		t.Fatalf("unexpected cp id %q", cfg.CentralSystem.CPID)
	}
	if cfg.RemoteStartDelay() != 0 {
		t.Fatalf("expected zero delay, got %s", cfg.RemoteStartDelay())
	}
}

func TestLoadRejectsBadRemoteResponse(t *testing.T) {
	t.Setenv("OCPP_REMOTE_START_STOP_RESPONSE", "Maybe")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid remote start/stop response")
	}
}
