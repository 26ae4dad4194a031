package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/keepmark/internal/marker"
	"github.com/roach88/keepmark/internal/usage"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so typos fail loudly. A relative program path is resolved
// against the directory of the scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Program != "" && !filepath.IsAbs(scenario.Program) {
		scenario.Program = filepath.Join(filepath.Dir(path), scenario.Program)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &scenario, nil
}

// LoadScenarios loads every .yaml and .yml file of dir, sorted by file
// name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario directory: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".yaml", ".yml":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.Program == "" && s.Source == "":
		return fmt.Errorf("one of program or source is required")
	case s.Program != "" && s.Source != "":
		return fmt.Errorf("program and source are mutually exclusive")
	case s.Program != "":
		if _, err := os.Stat(s.Program); os.IsNotExist(err) {
			return fmt.Errorf("program not found: %s", s.Program)
		}
	}

	switch s.Marker {
	case "", MarkerShortest, MarkerSimple:
	default:
		return fmt.Errorf("unknown marker %q (want %s or %s)", s.Marker, MarkerShortest, MarkerSimple)
	}
	if _, err := marker.ParsePolicy(s.Policy); err != nil {
		return err
	}

	if len(s.Assertions) == 0 && len(s.Explain) == 0 {
		return fmt.Errorf("assertions or explain is required")
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i], s.Marker == MarkerSimple); err != nil {
			return err
		}
	}
	if s.Marker == MarkerSimple && len(s.Explain) > 0 {
		return fmt.Errorf("explain needs the %s marker", MarkerShortest)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, simple bool) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertState:
		if len(a.Nodes) == 0 {
			return fmt.Errorf("assertions[%d]: nodes is required for state", index)
		}
		switch a.State {
		case usage.Used.String(), usage.PossiblyUsed.String(), usage.Unused.String():
		default:
			return fmt.Errorf("assertions[%d]: unknown state %q", index, a.State)
		}
	case AssertCause:
		if a.Node == "" {
			return fmt.Errorf("assertions[%d]: node is required for cause", index)
		}
		if simple {
			return fmt.Errorf("assertions[%d]: cause needs the %s marker", index, MarkerShortest)
		}
	case AssertStat:
		if _, ok := statValue(nil, a.Stat); !ok {
			return fmt.Errorf("assertions[%d]: unknown stat %q", index, a.Stat)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for stat", index)
		}
	case AssertError:
		if a.Contains == "" {
			return fmt.Errorf("assertions[%d]: contains is required for error", index)
		}
	case AssertKotlinFacades:
		if a.Resource == "" || a.Package == "" {
			return fmt.Errorf("assertions[%d]: resource and package are required for kotlin_facades", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
