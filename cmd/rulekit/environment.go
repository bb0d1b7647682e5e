package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rulekit/rulekit"
	"github.com/rulekit/rulekit/pkg/types"
)

// environment describes what a rule runs against: the thing it is applied
// to, plus context configuration loaded from a YAML file. Example:
//
//	timezone: America/New_York
//	default: null
//	types:
//	  age: FLOAT
//	  name: STRING
//	thing:
//	  age: 21
//	  name: Luke
type environment struct {
	Timezone string `yaml:"timezone"`
	// Default is kept as a raw node so an explicit "default: null" is
	// distinguishable from the key being absent.
	Default yaml.Node         `yaml:"default"`
	Types   map[string]string `yaml:"types"`
	Thing   interface{}       `yaml:"thing"`
}

// options translates the environment into context options.
func (env *environment) options() ([]rulekit.Option, error) {
	var opts []rulekit.Option

	if env.Timezone != "" {
		loc, err := time.LoadLocation(env.Timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid timezone %q: %w", env.Timezone, err)
		}
		opts = append(opts, rulekit.WithTimezone(loc))
	}

	if !env.Default.IsZero() {
		var value interface{}
		if err := env.Default.Decode(&value); err != nil {
			return nil, fmt.Errorf("invalid default value: %w", err)
		}
		opts = append(opts, rulekit.WithDefaultValue(value))
	}

	if len(env.Types) > 0 {
		symbolTypes := make(map[string]types.DataType, len(env.Types))
		for name, typeName := range env.Types {
			dt, err := dataTypeByName(typeName)
			if err != nil {
				return nil, fmt.Errorf("symbol %q: %w", name, err)
			}
			symbolTypes[name] = dt
		}
		opts = append(opts, rulekit.WithTypes(symbolTypes))
	}

	return opts, nil
}

// loadEnvironment reads an environment file. An empty path yields an empty
// environment.
func loadEnvironment(path string) (*environment, error) {
	env := &environment{}
	if path == "" {
		return env, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read environment file: %w", err)
	}
	if err := yaml.Unmarshal(data, env); err != nil {
		return nil, fmt.Errorf("failed to parse environment file: %w", err)
	}
	return env, nil
}

// dataTypeByName maps the upper-case type names used in environment files to
// data types. Compound types are unparameterized.
func dataTypeByName(name string) (types.DataType, error) {
	switch name {
	case "NULL":
		return types.Null, nil
	case "BOOLEAN":
		return types.Boolean, nil
	case "BYTES":
		return types.Bytes, nil
	case "STRING":
		return types.String, nil
	case "FLOAT":
		return types.Float, nil
	case "DATETIME":
		return types.Datetime, nil
	case "TIMEDELTA":
		return types.Timedelta, nil
	case "ARRAY":
		return types.Array, nil
	case "SET":
		return types.Set, nil
	case "MAPPING":
		return types.Mapping, nil
	case "UNDEFINED":
		return types.Undefined, nil
	}
	return types.Undefined, fmt.Errorf("unknown data type %q", name)
}
