// Package config parses YAML environment files and builds runnable
// environments from them. Scenarios are referenced by registered name or
// defined inline as HTTP step lists.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"stampede/environment"
	"stampede/internal/collector"
	"stampede/session"
)

// File is the root of an environment configuration file.
type File struct {
	Name       string                `yaml:"name"`
	Defaults   map[string]any        `yaml:"defaults"`
	Scenarios  []ScenarioSpec        `yaml:"scenarios"`
	Thresholds *collector.Thresholds `yaml:"thresholds,omitempty"`
}

// ScenarioSpec is one entry of the scenario list. Either Scenario (a
// registered name) or Steps (an inline HTTP step scenario) must be set.
type ScenarioSpec struct {
	Scenario    string         `yaml:"scenario"`
	Name        string         `yaml:"name"`
	Concurrency int            `yaml:"concurrency"`
	Config      map[string]any `yaml:"config"`
	Steps       *StepsSpec     `yaml:"steps,omitempty"`
}

// StepsSpec defines an inline HTTP scenario.
type StepsSpec struct {
	Name  string       `yaml:"name"`
	RPS   int          `yaml:"rps"`
	Steps []StepConfig `yaml:"requests"`
}

// StepConfig defines a single HTTP request step.
type StepConfig struct {
	Name    string            `yaml:"name"`
	Method  string            `yaml:"method"`
	Path    string            `yaml:"path"`
	Headers map[string]string `yaml:"headers"`
	Body    string            `yaml:"body"`
	Extract map[string]string `yaml:"extract,omitempty"`
}

// Load reads and parses a YAML environment file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return &f, nil
}

// Build turns the file into a runnable environment. Named scenarios must be
// registered before Build is called.
func (f *File) Build() (*environment.Environment, error) {
	env := &environment.Environment{
		Name:          f.Name,
		DefaultConfig: session.Config(f.Defaults),
	}
	for i, spec := range f.Scenarios {
		sc, err := spec.scenario()
		if err != nil {
			return nil, fmt.Errorf("scenario %d: %w", i, err)
		}
		env.Scenarios = append(env.Scenarios, environment.RunSpec{
			Scenario:    sc,
			Name:        spec.Name,
			Concurrency: spec.Concurrency,
			Config:      session.Config(spec.Config),
		})
	}
	return env, nil
}

func (s *ScenarioSpec) scenario() (session.Scenario, error) {
	if s.Steps != nil {
		if len(s.Steps.Steps) == 0 {
			return nil, fmt.Errorf("inline scenario %q has no requests", s.Steps.Name)
		}
		return NewStepScenario(s.Steps.Name, s.Steps.Steps, s.Steps.RPS), nil
	}
	if s.Scenario == "" {
		return nil, fmt.Errorf("entry needs either a scenario name or inline steps")
	}
	sc, ok := session.ScenarioByName(s.Scenario)
	if !ok {
		return nil, fmt.Errorf("unknown scenario %q", s.Scenario)
	}
	return sc, nil
}
