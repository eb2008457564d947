package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config defines the charge point simulator configuration.
type Config struct {
	CentralSystem struct {
		URL   string `yaml:"url" env:"CS_URL"`
		CPID  string `yaml:"cpId" env:"CP_ID"`
		TagID string `yaml:"tagId" env:"CP_TAG_ID"`
	} `yaml:"centralSystem"`

	Identity struct {
		Vendor            string `yaml:"vendor" env:"CP_VENDOR"`
		Model             string `yaml:"model" env:"CP_MODEL"`
		SerialNumber      string `yaml:"serialNumber" env:"CP_SERIAL"`
		BoxSerialNumber   string `yaml:"boxSerialNumber" env:"CP_BOX_SERIAL"`
		FirmwareVersion   string `yaml:"firmwareVersion" env:"CP_FIRMWARE"`
		MeterType         string `yaml:"meterType" env:"CP_METER_TYPE"`
		MeterSerialNumber string `yaml:"meterSerialNumber" env:"CP_METER_SERIAL"`
	} `yaml:"identity"`

	OCPP struct {
		CallTimeoutSeconds      int    `yaml:"callTimeoutSeconds" env:"OCPP_CALL_TIMEOUT"`
		RemoteStartDelaySeconds int    `yaml:"remoteStartDelaySeconds" env:"OCPP_REMOTE_START_DELAY"`
		RemoteStartStopResponse string `yaml:"remoteStartStopResponse" env:"OCPP_REMOTE_START_STOP_RESPONSE"`
	} `yaml:"ocpp"`

	Store struct {
		Path          string `yaml:"path" env:"STORE_PATH"`
		RedisAddr     string `yaml:"redisAddr" env:"STORE_REDIS_ADDR"`
		RedisPassword string `yaml:"redisPassword" env:"STORE_REDIS_PASSWORD"`
	} `yaml:"store"`

	Journal struct {
		DSN string `yaml:"dsn" env:"JOURNAL_POSTGRES_DSN"`
	} `yaml:"journal"`

	Metrics struct {
		Addr string `yaml:"addr" env:"METRICS_ADDR"`
	} `yaml:"metrics"`
}

// Load hydrates the config from YAML and environment, applying defaults.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.Identity.Vendor = "Elmo"
	cfg.Identity.Model = "Elmo-Virtual1"
	cfg.Identity.SerialNumber = "elmo.go.simulator"
	cfg.Identity.BoxSerialNumber = "elmo.go.simulator"
	cfg.Identity.FirmwareVersion = "0.9.87"
	cfg.Identity.MeterType = "ELMO ElmoMeter"
	cfg.Identity.MeterSerialNumber = "elmo.meter.001"
	cfg.OCPP.CallTimeoutSeconds = 30
	cfg.OCPP.RemoteStartDelaySeconds = 3
	cfg.OCPP.RemoteStartStopResponse = "Accepted"
	cfg.Store.Path = "cp-simulator.json"

	if err := hydrate(cfg); err != nil {
		return nil, err
	}

	switch cfg.OCPP.RemoteStartStopResponse {
	case "Accepted", "Rejected":
	default:
		return nil, fmt.Errorf("config: remoteStartStopResponse must be Accepted or Rejected, got %q", cfg.OCPP.RemoteStartStopResponse)
	}

	if strings.TrimSpace(cfg.Store.Path) == "" && strings.TrimSpace(cfg.Store.RedisAddr) == "" {
		return nil, errors.New("config: either store path or redis addr is required")
	}

	return cfg, nil
}

// CallTimeout returns the pending-call reply timeout.
func (c *Config) CallTimeout() time.Duration {
	if c.OCPP.CallTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.OCPP.CallTimeoutSeconds) * time.Second
}

// RemoteStartDelay returns the simulated delay before a remote-started transaction begins.
func (c *Config) RemoteStartDelay() time.Duration {
	if c.OCPP.RemoteStartDelaySeconds < 0 {
		return 0
	}
	return time.Duration(c.OCPP.RemoteStartDelaySeconds) * time.Second
}
