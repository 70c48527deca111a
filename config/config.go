// Package config loads server configuration with the priority order
// flags > environment variables > .env file > defaults, matching the
// layered configuration approach used throughout the rest of the stack.
package config

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ServerConfig holds network and transport settings.
type ServerConfig struct {
	Port        int
	TLSCertPath string
	TLSKeyPath  string
	InstancePath string
}

// SimulationConfig holds the world-step tuning constants. Defaults here
// resolve the Open Questions left in the specification: a ×10 tick
// motion scaling factor, a 10,000-unit visibility radius, a 50-entry
// observation batch size, and rotating-children-translation disabled.
type SimulationConfig struct {
	TickInterval            time.Duration
	SaveInterval            time.Duration
	TickScalingFactor       float64
	VisibilityRadius        float64
	BatchSize               int
	TranslateRotatingChildren bool
}

// UniverseGenConfig holds procedural generation settings for a freshly
// created star system. The server reads only TunablesPath from it; the
// range fields are not passed to the generator, which takes its ranges
// from that tunables file or from universegen's defaults.
type UniverseGenConfig struct {
	TunablesPath    string
	MinPlanets      int
	MaxPlanets      int
	MinMoonsPerBody int
	MaxMoonsPerBody int
	MinAsteroids    int
	MaxAsteroids    int
}

// Config aggregates every configuration section the server process needs.
type Config struct {
	Server    ServerConfig
	Simulation SimulationConfig
	Universe  UniverseGenConfig
	Logging   LoggingConfig
}

// LoggingConfig mirrors logging.Config's shape so config stays the single
// owner of flag parsing; logging itself never touches the flag package.
type LoggingConfig struct {
	Level        string
	TraceModules []string
	LogDir       string
}

const (
	defaultPort             = 2567
	defaultInstancePath     = "galaxy.sbdb"
	defaultTickInterval     = 250 * time.Millisecond
	defaultSaveInterval     = 30 * time.Second
	defaultTickScaling      = 10.0
	defaultVisibilityRadius = 10000.0
	defaultBatchSize        = 50
)

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         defaultPort,
			InstancePath: defaultInstancePath,
		},
		Simulation: SimulationConfig{
			TickInterval:              defaultTickInterval,
			SaveInterval:              defaultSaveInterval,
			TickScalingFactor:         defaultTickScaling,
			VisibilityRadius:          defaultVisibilityRadius,
			BatchSize:                 defaultBatchSize,
			TranslateRotatingChildren: false,
		},
		Universe: UniverseGenConfig{
			TunablesPath:    "universe.yaml",
			MinPlanets:      5,
			MaxPlanets:      15,
			MinMoonsPerBody: 0,
			MaxMoonsPerBody: 2,
			MinAsteroids:    500,
			MaxAsteroids:    2500,
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			LogDir: "./logs",
		},
	}
}

// Load resolves configuration in priority order: CLI args/flags override
// environment variables, which override a ".env" file in the working
// directory, which overrides the built-in defaults above.
//
// args follows the CLI shape `server [PORT] [--tls CERT KEY] [--instance PATH]`.
func Load(args []string) (*Config, error) {
	cfg := defaults()

	loadDotEnv(cfg)
	loadEnvironment(cfg)
	if err := loadArgs(cfg, args); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadDotEnv(cfg *Config) {
	f, err := os.Open(".env")
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
		applyEnvVar(cfg, key, value)
	}
}

func loadEnvironment(cfg *Config) {
	for _, key := range []string{
		"SPACEBUILD_PORT", "SPACEBUILD_TLS_CERT", "SPACEBUILD_TLS_KEY",
		"SPACEBUILD_INSTANCE", "SPACEBUILD_LOG_LEVEL", "SPACEBUILD_LOG_DIR",
		"SPACEBUILD_TICK_INTERVAL_MS", "SPACEBUILD_SAVE_INTERVAL_S",
		"SPACEBUILD_VISIBILITY_RADIUS", "SPACEBUILD_BATCH_SIZE",
	} {
		if v := os.Getenv(key); v != "" {
			applyEnvVar(cfg, key, v)
		}
	}
}

func applyEnvVar(cfg *Config, key, value string) {
	switch key {
	case "SPACEBUILD_PORT":
		if p, err := strconv.Atoi(value); err == nil {
			cfg.Server.Port = p
		}
	case "SPACEBUILD_TLS_CERT":
		cfg.Server.TLSCertPath = value
	case "SPACEBUILD_TLS_KEY":
		cfg.Server.TLSKeyPath = value
	case "SPACEBUILD_INSTANCE":
		cfg.Server.InstancePath = value
	case "SPACEBUILD_LOG_LEVEL":
		cfg.Logging.Level = strings.ToUpper(value)
	case "SPACEBUILD_LOG_DIR":
		cfg.Logging.LogDir = value
	case "SPACEBUILD_TICK_INTERVAL_MS":
		if ms, err := strconv.Atoi(value); err == nil {
			cfg.Simulation.TickInterval = time.Duration(ms) * time.Millisecond
		}
	case "SPACEBUILD_SAVE_INTERVAL_S":
		if s, err := strconv.Atoi(value); err == nil {
			cfg.Simulation.SaveInterval = time.Duration(s) * time.Second
		}
	case "SPACEBUILD_VISIBILITY_RADIUS":
		if r, err := strconv.ParseFloat(value, 64); err == nil {
			cfg.Simulation.VisibilityRadius = r
		}
	case "SPACEBUILD_BATCH_SIZE":
		if n, err := strconv.Atoi(value); err == nil {
			cfg.Simulation.BatchSize = n
		}
	}
}

// loadArgs implements the positional/flag CLI surface described in the
// external interfaces: an optional leading port, then --tls CERT KEY and
// --instance PATH switches in any order.
func loadArgs(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	tlsCert := fs.String("tls-cert", "", "TLS certificate path (paired with --tls-key)")
	tlsKey := fs.String("tls-key", "", "TLS private key path (paired with --tls-cert)")
	instance := fs.String("instance", cfg.Server.InstancePath, "path to the SQLite instance database")
	logLevel := fs.String("log-level", cfg.Logging.Level, "logging level (TRACE, DEBUG, INFO, WARN, ERROR, FATAL)")

	var tlsPositional []string
	var rest []string
	for i := 0; i < len(args); i++ {
		if args[i] == "--tls" {
			if i+2 >= len(args) {
				return fmt.Errorf("--tls requires CERT and KEY arguments")
			}
			tlsPositional = []string{args[i+1], args[i+2]}
			i += 2
			continue
		}
		rest = append(rest, args[i])
	}

	var positionalPort string
	flagArgs := rest
	if len(rest) > 0 && !strings.HasPrefix(rest[0], "-") {
		positionalPort = rest[0]
		flagArgs = rest[1:]
	}

	if err := fs.Parse(flagArgs); err != nil {
		return err
	}

	if positionalPort != "" {
		p, err := strconv.Atoi(positionalPort)
		if err != nil {
			return fmt.Errorf("invalid port %q: %w", positionalPort, err)
		}
		cfg.Server.Port = p
	}

	if len(tlsPositional) == 2 {
		cfg.Server.TLSCertPath = tlsPositional[0]
		cfg.Server.TLSKeyPath = tlsPositional[1]
	}
	if *tlsCert != "" {
		cfg.Server.TLSCertPath = *tlsCert
	}
	if *tlsKey != "" {
		cfg.Server.TLSKeyPath = *tlsKey
	}
	cfg.Server.InstancePath = *instance
	cfg.Logging.Level = strings.ToUpper(*logLevel)

	return nil
}
