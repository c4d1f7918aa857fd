// Package config loads the generator configuration from YAML with
// ASTROCAL_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/thurmanmarka/astrocal/internal/detect"
	"github.com/thurmanmarka/astrocal/internal/ephemeris"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the complete generator configuration.
type Config struct {
	// Workers bounds how many scan units run at once. 1 scans sequentially.
	Workers int `yaml:"workers"`

	// OutputDir is the root of the generated JSON tree.
	OutputDir string `yaml:"output_dir"`

	Scan     ScanConfig     `yaml:"scan"`
	Bodies   BodiesConfig   `yaml:"bodies"`
	Database DatabaseConfig `yaml:"database"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	HTTP     HTTPConfig     `yaml:"http"`
}

// ScanConfig tunes the detectors.
type ScanConfig struct {
	// MaxIterations caps every bisection.
	MaxIterations int `yaml:"max_iterations"`

	Tolerances ToleranceConfig `yaml:"tolerances"`

	// Aspects tracked between outer planets. The 0° entry is the conjunction.
	Aspects []detect.Aspect `yaml:"aspects"`

	// GateOuter is the conjunction proximity gate for outer pairs, degrees.
	GateOuter float64 `yaml:"gate_outer"`

	// GateCross is the gate for inner bodies against outer planets, degrees.
	GateCross float64 `yaml:"gate_cross"`

	// ShadowDays maps a body name to its retrograde shadow offset in days.
	ShadowDays map[string]int `yaml:"shadow_days"`
}

// ToleranceConfig holds the refinement stop thresholds.
type ToleranceConfig struct {
	Phase       float64 `yaml:"phase"`       // degrees
	Aspect      float64 `yaml:"aspect"`      // degrees
	Ingress     float64 `yaml:"ingress"`     // degrees
	Conjunction float64 `yaml:"conjunction"` // degrees
	Station     float64 `yaml:"station"`     // degrees/day
}

// BodiesConfig names the body sets each category scans.
type BodiesConfig struct {
	Outer      []string `yaml:"outer"`
	Inner      []string `yaml:"inner"`
	Ingress    []string `yaml:"ingress"`
	Retrograde []string `yaml:"retrograde"`
}

// DatabaseConfig configures the PostgreSQL event store.
type DatabaseConfig struct {
	// Enabled turns persistence on for `generate --store`.
	Enabled bool `yaml:"enabled"`

	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`

	// Password is usually supplied through ASTROCAL_DB_PASSWORD.
	Password string `yaml:"password"`

	SSLMode      string `yaml:"sslmode"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// KafkaConfig configures event publishing.
type KafkaConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Brokers      []string      `yaml:"brokers"`
	Topic        string        `yaml:"topic"`
	BatchTimeout time.Duration `yaml:"batch_timeout"`
}

// HTTPConfig configures `astrocal serve`.
type HTTPConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Default returns the built-in configuration.
func Default() *Config {
	aspects := make([]detect.Aspect, len(detect.DefaultAspects))
	copy(aspects, detect.DefaultAspects)

	shadow := make(map[string]int, len(detect.DefaultShadowDays))
	for b, d := range detect.DefaultShadowDays {
		shadow[b.String()] = d
	}

	return &Config{
		Workers:   runtime.NumCPU(),
		OutputDir: "data",
		Scan: ScanConfig{
			MaxIterations: 50,
			Tolerances: ToleranceConfig{
				Phase:       detect.PhaseTolerance,
				Aspect:      detect.AspectTolerance,
				Ingress:     detect.IngressTolerance,
				Conjunction: detect.ConjunctionTolerance,
				Station:     detect.StationTolerance,
			},
			Aspects:    aspects,
			GateOuter:  detect.GateOuter,
			GateCross:  detect.GateCross,
			ShadowDays: shadow,
		},
		Bodies: BodiesConfig{
			Outer:      []string{"Jupiter", "Saturn", "Uranus", "Neptune", "Pluto"},
			Inner:      []string{"Sun", "Mercury", "Venus", "Mars"},
			Ingress:    []string{"Sun", "Moon", "Mercury", "Venus", "Mars", "Jupiter", "Saturn", "Uranus", "Neptune", "Pluto", "NorthNode"},
			Retrograde: []string{"Mercury", "Venus", "Mars", "Jupiter", "Saturn", "Uranus", "Neptune", "Pluto"},
		},
		Database: DatabaseConfig{
			Host:         "localhost",
			Port:         5432,
			Database:     "astrocal",
			Username:     "astrocal",
			SSLMode:      "disable",
			MaxOpenConns: 10,
			MaxIdleConns: 2,
		},
		Kafka: KafkaConfig{
			Brokers:      []string{"localhost:9092"},
			Topic:        "astrocal.events",
			BatchTimeout: 50 * time.Millisecond,
		},
		HTTP: HTTPConfig{
			Addr:         ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
	}
}

// Load reads the YAML file at path over the defaults and applies environment
// overrides. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnvironmentOverrides(slog.Default())

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvironmentOverrides lets deployments change settings without a file.
// Unparsable values are logged and ignored.
func (c *Config) applyEnvironmentOverrides(logger *slog.Logger) {
	if v := os.Getenv("ASTROCAL_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Workers = n
		} else {
			logger.Warn("invalid ASTROCAL_WORKERS value, using default", "value", v, "default", c.Workers)
		}
	}
	if v := os.Getenv("ASTROCAL_OUTPUT_DIR"); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv("ASTROCAL_DB_HOST"); v != "" {
		c.Database.Host = v
	}
	if v := os.Getenv("ASTROCAL_DB_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Database.Port = n
		} else {
			logger.Warn("invalid ASTROCAL_DB_PORT value, using default", "value", v, "default", c.Database.Port)
		}
	}
	if v := os.Getenv("ASTROCAL_DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("ASTROCAL_KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
	}
	if v := os.Getenv("ASTROCAL_KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("ASTROCAL_HTTP_ADDR"); v != "" {
		c.HTTP.Addr = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks ranges and resolves every body name.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalid, c.Workers)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("%w: output_dir is empty", ErrInvalid)
	}
	if c.Scan.MaxIterations < 1 {
		return fmt.Errorf("%w: scan.max_iterations must be at least 1", ErrInvalid)
	}

	tol := c.Scan.Tolerances
	for name, v := range map[string]float64{
		"phase":       tol.Phase,
		"aspect":      tol.Aspect,
		"ingress":     tol.Ingress,
		"conjunction": tol.Conjunction,
		"station":     tol.Station,
	} {
		if v <= 0 {
			return fmt.Errorf("%w: scan.tolerances.%s must be positive", ErrInvalid, name)
		}
	}

	seen := make(map[string]bool, len(c.Scan.Aspects))
	for _, a := range c.Scan.Aspects {
		switch {
		case a.Name == "":
			return fmt.Errorf("%w: aspect without a name", ErrInvalid)
		case seen[a.Name]:
			return fmt.Errorf("%w: duplicate aspect %q", ErrInvalid, a.Name)
		case a.Angle < 0 || a.Angle > 180:
			return fmt.Errorf("%w: aspect %q angle %v outside [0, 180]", ErrInvalid, a.Name, a.Angle)
		case a.Orb <= 0:
			return fmt.Errorf("%w: aspect %q orb must be positive", ErrInvalid, a.Name)
		}
		seen[a.Name] = true
	}

	if c.Scan.GateOuter <= 0 || c.Scan.GateCross <= 0 {
		return fmt.Errorf("%w: conjunction gates must be positive", ErrInvalid)
	}

	if _, err := c.BodySets(); err != nil {
		return err
	}
	if _, err := c.ShadowByBody(); err != nil {
		return err
	}

	if c.Kafka.Enabled && (len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "") {
		return fmt.Errorf("%w: kafka enabled without brokers or topic", ErrInvalid)
	}
	return nil
}

// BodySets are the resolved body lists.
type BodySets struct {
	Outer      []ephemeris.Body
	Inner      []ephemeris.Body
	Ingress    []ephemeris.Body
	Retrograde []ephemeris.Body
}

// BodySets resolves the configured body names.
func (c *Config) BodySets() (BodySets, error) {
	var (
		out BodySets
		err error
	)
	lists := []struct {
		name  string
		names []string
		dst   *[]ephemeris.Body
	}{
		{"outer", c.Bodies.Outer, &out.Outer},
		{"inner", c.Bodies.Inner, &out.Inner},
		{"ingress", c.Bodies.Ingress, &out.Ingress},
		{"retrograde", c.Bodies.Retrograde, &out.Retrograde},
	}
	for _, l := range lists {
		if *l.dst, err = ephemeris.ParseBodies(l.names); err != nil {
			return BodySets{}, fmt.Errorf("%w: bodies.%s: %v", ErrInvalid, l.name, err)
		}
	}
	return out, nil
}

// ShadowByBody resolves the shadow offsets.
func (c *Config) ShadowByBody() (map[ephemeris.Body]int, error) {
	out := make(map[ephemeris.Body]int, len(c.Scan.ShadowDays))
	for name, days := range c.Scan.ShadowDays {
		b, err := ephemeris.ParseBody(name)
		if err != nil {
			return nil, fmt.Errorf("%w: scan.shadow_days: %v", ErrInvalid, err)
		}
		if days < 0 {
			return nil, fmt.Errorf("%w: scan.shadow_days.%s is negative", ErrInvalid, name)
		}
		out[b] = days
	}
	return out, nil
}
