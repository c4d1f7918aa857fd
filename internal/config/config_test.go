package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thurmanmarka/astrocal/internal/ephemeris"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "astrocal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	sets, err := cfg.BodySets()
	require.NoError(t, err)
	assert.Equal(t, []ephemeris.Body{ephemeris.Jupiter, ephemeris.Saturn, ephemeris.Uranus, ephemeris.Neptune, ephemeris.Pluto}, sets.Outer)
	assert.Contains(t, sets.Ingress, ephemeris.NorthNode)

	shadow, err := cfg.ShadowByBody()
	require.NoError(t, err)
	assert.Equal(t, 15, shadow[ephemeris.Mercury])
	assert.Equal(t, 20, shadow[ephemeris.Mars])
	assert.Zero(t, shadow[ephemeris.Jupiter])
}

func TestLoad_EmptyPathGivesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "data", cfg.OutputDir)
	assert.Equal(t, 15.0, cfg.Scan.GateOuter)
	assert.Equal(t, 20.0, cfg.Scan.GateCross)
}

func TestLoad_MissingFileIsAnError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
workers: 3
output_dir: out
scan:
  gate_outer: 12
  aspects:
    - {name: conjunction, angle: 0, orb: 10, symbol: "☌"}
    - {name: quincunx, angle: 150, orb: 2}
bodies:
  outer: [Saturn, neptune]
kafka:
  batch_timeout: 250ms
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, "out", cfg.OutputDir)
	assert.Equal(t, 12.0, cfg.Scan.GateOuter)
	assert.Equal(t, 20.0, cfg.Scan.GateCross, "unset keys keep their default")
	require.Len(t, cfg.Scan.Aspects, 2)
	assert.Equal(t, "quincunx", cfg.Scan.Aspects[1].Name)
	assert.Equal(t, 250*time.Millisecond, cfg.Kafka.BatchTimeout)

	sets, err := cfg.BodySets()
	require.NoError(t, err)
	assert.Equal(t, []ephemeris.Body{ephemeris.Saturn, ephemeris.Neptune}, sets.Outer)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("ASTROCAL_WORKERS", "2")
	t.Setenv("ASTROCAL_DB_PASSWORD", "s3cret")
	t.Setenv("ASTROCAL_KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("ASTROCAL_HTTP_ADDR", "127.0.0.1:9000")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "127.0.0.1:9000", cfg.HTTP.Addr)
}

func TestLoad_BadEnvironmentValueKeepsDefault(t *testing.T) {
	t.Setenv("ASTROCAL_WORKERS", "many")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Workers, cfg.Workers)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero workers", func(c *Config) { c.Workers = 0 }},
		{"empty output", func(c *Config) { c.OutputDir = "" }},
		{"zero iterations", func(c *Config) { c.Scan.MaxIterations = 0 }},
		{"zero station tolerance", func(c *Config) { c.Scan.Tolerances.Station = 0 }},
		{"duplicate aspect", func(c *Config) { c.Scan.Aspects = append(c.Scan.Aspects, c.Scan.Aspects[1]) }},
		{"aspect angle", func(c *Config) { c.Scan.Aspects[2].Angle = 200 }},
		{"aspect orb", func(c *Config) { c.Scan.Aspects[2].Orb = 0 }},
		{"gate", func(c *Config) { c.Scan.GateCross = 0 }},
		{"unknown body", func(c *Config) { c.Bodies.Outer = append(c.Bodies.Outer, "Chiron") }},
		{"unknown shadow body", func(c *Config) { c.Scan.ShadowDays["Vulcan"] = 3 }},
		{"negative shadow", func(c *Config) { c.Scan.ShadowDays["Mercury"] = -1 }},
		{"kafka without topic", func(c *Config) { c.Kafka.Enabled = true; c.Kafka.Topic = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}
