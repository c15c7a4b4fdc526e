package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the scenario.
const (
	EnvOutputDir   = "PMSMSIM_OUTPUT_DIR"
	EnvMonitorPort = "PMSMSIM_MONITOR_PORT"
)

// Load reads a scenario file. Fields missing from the file keep the values of
// Default.
func Load(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, err
	}

	s, err := Parse(data)
	if err != nil {
		return Scenario{}, fmt.Errorf("%s: %w", path, err)
	}

	return s, nil
}

// Parse decodes a YAML scenario on top of Default. Unknown keys are errors.
func Parse(data []byte) (Scenario, error) {
	s := Default()

	var probe struct {
		Motor map[string]any `yaml:"motor"`
	}
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return Scenario{}, fmt.Errorf("%w: %w", ErrInvalidScenario, err)
	}

	// A file that describes the motor replaces the default overrides.
	if len(probe.Motor) > 0 {
		s.Motor.Overrides = nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	err := dec.Decode(&s)
	if err != nil && !errors.Is(err, io.EOF) {
		return Scenario{}, fmt.Errorf("%w: %w", ErrInvalidScenario, err)
	}

	return s, nil
}

// Marshal encodes the scenario as YAML.
func (s Scenario) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}

// LoadEnv loads .env style files into the process environment. Missing files
// are ignored. Variables already set are not overwritten.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, f := range files {
		err := godotenv.Load(f)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	return nil
}

// ApplyEnv overrides the scenario with the environment variables that are
// set.
func (s *Scenario) ApplyEnv() error {
	if dir, ok := os.LookupEnv(EnvOutputDir); ok && dir != "" {
		s.Output.Dir = dir
	}

	if portStr, ok := os.LookupEnv(EnvMonitorPort); ok && portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidScenario, EnvMonitorPort, err)
		}

		s.Monitor.Enabled = true
		s.Monitor.Port = port
	}

	return nil
}
