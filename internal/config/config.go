package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type TelemetryConfig struct {
	LogLevel     string `yaml:"log_level"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	OTLPInsecure bool   `yaml:"otlp_insecure"`
}

type HTTPConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type BusConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Embedded       bool     `yaml:"embedded"`
	Port           int      `yaml:"port"`
	Servers        []string `yaml:"servers"`
	Username       string   `yaml:"username"`
	Password       string   `yaml:"password"`
	Token          string   `yaml:"token"`
	ConnectTimeout int      `yaml:"connect_timeout_ms"`
}

type SynthConfig struct {
	Mode       string `yaml:"mode"` // mock, exec
	BinaryPath string `yaml:"binary_path"`
	ModelDir   string `yaml:"model_dir"`
	LibDir     string `yaml:"lib_dir"`
	Threads    int    `yaml:"threads"`
}

type PlayerConfig struct {
	Mode       string `yaml:"mode"` // mock, exec
	BinaryPath string `yaml:"binary_path"`
}

type HistoryConfig struct {
	Path          string `yaml:"path"`
	RetentionMode string `yaml:"retention_mode"` // ephemeral, session, persistent
	RetentionDays int    `yaml:"retention_days"`
	MaxSessions   int    `yaml:"max_sessions"`
	VacuumOnStart bool   `yaml:"vacuum_on_start"`
}

type Config struct {
	RuntimeName string          `yaml:"runtime_name"`
	Environment string          `yaml:"environment"`
	DataDir     string          `yaml:"data_dir"`
	RequestFile string          `yaml:"request_file"`
	HTTP        HTTPConfig      `yaml:"http"`
	Telemetry   TelemetryConfig `yaml:"telemetry"`
	Bus         BusConfig       `yaml:"bus"`
	Synth       SynthConfig     `yaml:"synth"`
	Player      PlayerConfig    `yaml:"player"`
	History     HistoryConfig   `yaml:"history"`
}

func Default() Config {
	base := "./vox"
	if home, err := os.UserHomeDir(); err == nil {
		base = filepath.Join(home, ".vox")
	}
	return Config{
		RuntimeName: "vox-daemon",
		Environment: "development",
		DataDir:     base,
		RequestFile: filepath.Join(base, ".request"),
		HTTP: HTTPConfig{
			Bind: "127.0.0.1",
			Port: 8710,
		},
		Telemetry: TelemetryConfig{
			LogLevel:     "info",
			OTLPEndpoint: "",
			OTLPInsecure: true,
		},
		Bus: BusConfig{
			Enabled:        true,
			Embedded:       true,
			Port:           4222,
			Servers:        []string{"nats://localhost:4222"},
			ConnectTimeout: 2000,
		},
		Synth: SynthConfig{
			Mode:       "exec",
			BinaryPath: filepath.Join(base, "bin", "sherpa-onnx-offline-tts"),
			ModelDir:   filepath.Join(base, "kokoro-en-v0_19"),
			Threads:    2,
		},
		Player: PlayerConfig{
			Mode:       "exec",
			BinaryPath: "/usr/bin/afplay",
		},
		History: HistoryConfig{
			Path:          filepath.Join(base, "history.db"),
			RetentionMode: "session",
			RetentionDays: 30,
			MaxSessions:   10000,
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.RuntimeName, "VOX_RUNTIME_NAME")
	overrideString(&cfg.Environment, "VOX_ENVIRONMENT")
	overrideString(&cfg.DataDir, "VOX_DATA_DIR")
	overrideString(&cfg.RequestFile, "VOX_REQUEST_FILE")
	overrideString(&cfg.HTTP.Bind, "VOX_HTTP_BIND")
	overrideInt(&cfg.HTTP.Port, "VOX_HTTP_PORT")
	overrideString(&cfg.Telemetry.LogLevel, "VOX_TELEMETRY_LOG_LEVEL")
	overrideString(&cfg.Telemetry.OTLPEndpoint, "VOX_TELEMETRY_OTLP_ENDPOINT")
	overrideBool(&cfg.Telemetry.OTLPInsecure, "VOX_TELEMETRY_OTLP_INSECURE")
	overrideBool(&cfg.Bus.Enabled, "VOX_BUS_ENABLED")
	overrideBool(&cfg.Bus.Embedded, "VOX_BUS_EMBEDDED")
	overrideInt(&cfg.Bus.Port, "VOX_BUS_PORT")
	overrideStringSlice(&cfg.Bus.Servers, "VOX_BUS_SERVERS")
	overrideString(&cfg.Bus.Username, "VOX_BUS_USERNAME")
	overrideString(&cfg.Bus.Password, "VOX_BUS_PASSWORD")
	overrideString(&cfg.Bus.Token, "VOX_BUS_TOKEN")
	overrideInt(&cfg.Bus.ConnectTimeout, "VOX_BUS_CONNECT_TIMEOUT_MS")
	overrideString(&cfg.Synth.Mode, "VOX_SYNTH_MODE")
	overrideString(&cfg.Synth.BinaryPath, "VOX_SYNTH_BINARY_PATH")
	overrideString(&cfg.Synth.ModelDir, "VOX_SYNTH_MODEL_DIR")
	overrideString(&cfg.Synth.LibDir, "VOX_SYNTH_LIB_DIR")
	overrideInt(&cfg.Synth.Threads, "VOX_SYNTH_THREADS")
	overrideString(&cfg.Player.Mode, "VOX_PLAYER_MODE")
	overrideString(&cfg.Player.BinaryPath, "VOX_PLAYER_BINARY_PATH")
	overrideString(&cfg.History.Path, "VOX_HISTORY_PATH")
	overrideString(&cfg.History.RetentionMode, "VOX_HISTORY_RETENTION_MODE")
	overrideInt(&cfg.History.RetentionDays, "VOX_HISTORY_RETENTION_DAYS")
	overrideInt(&cfg.History.MaxSessions, "VOX_HISTORY_MAX_SESSIONS")
	overrideBool(&cfg.History.VacuumOnStart, "VOX_HISTORY_VACUUM_ON_START")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func overrideStringSlice(target *[]string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		parts := strings.Split(value, ",")
		var trimmed []string
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				trimmed = append(trimmed, s)
			}
		}
		if len(trimmed) > 0 {
			*target = trimmed
		}
	}
}

func validate(cfg Config) error {
	if cfg.RuntimeName == "" {
		return errors.New("runtime_name must not be empty")
	}
	if cfg.DataDir == "" {
		return errors.New("data_dir must not be empty")
	}
	if cfg.RequestFile == "" {
		return errors.New("request_file must not be empty")
	}
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return errors.New("http.port must be between 1 and 65535")
	}
	if cfg.Bus.Enabled {
		if cfg.Bus.Embedded {
			if cfg.Bus.Port <= 0 || cfg.Bus.Port > 65535 {
				return errors.New("bus.port must be between 1 and 65535 when embedded mode is enabled")
			}
		} else if len(cfg.Bus.Servers) == 0 {
			return errors.New("bus.servers must not be empty when embedded mode is disabled")
		}
	}
	switch cfg.Synth.Mode {
	case "mock", "exec":
	default:
		return errors.New("synth.mode must be one of mock|exec")
	}
	if cfg.Synth.Mode == "exec" {
		if cfg.Synth.BinaryPath == "" {
			return errors.New("synth.binary_path must be set when mode=exec")
		}
		if cfg.Synth.ModelDir == "" {
			return errors.New("synth.model_dir must be set when mode=exec")
		}
	}
	if cfg.Synth.Threads <= 0 {
		return errors.New("synth.threads must be positive")
	}
	switch cfg.Player.Mode {
	case "mock", "exec":
	default:
		return errors.New("player.mode must be one of mock|exec")
	}
	if cfg.Player.Mode == "exec" && cfg.Player.BinaryPath == "" {
		return errors.New("player.binary_path must be set when mode=exec")
	}
	switch cfg.History.RetentionMode {
	case "ephemeral", "session", "persistent":
		// ok
	default:
		return errors.New("history.retention_mode must be one of ephemeral|session|persistent")
	}
	if cfg.History.RetentionMode != "ephemeral" && cfg.History.Path == "" {
		return errors.New("history.path must not be empty")
	}
	if cfg.History.RetentionDays < 0 {
		return errors.New("history.retention_days must be >= 0")
	}
	return nil
}
