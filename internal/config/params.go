package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// ParamOverrides maps a key binding to analysis parameter settings
// that replace the built-in defaults at startup.
//
// Example file:
//
//	a:
//	  radius: 8
//	  zmag: 24.5
//	h:
//	  nbins: 50
type ParamOverrides map[string]map[string]float64

func LoadParamOverrides(filename string) (ParamOverrides, error) {
	contents, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", filename, err)
	}
	overrides := ParamOverrides{}
	if err := yaml.Unmarshal(contents, &overrides); err != nil {
		return nil, fmt.Errorf("parse %q: %w", filename, err)
	}
	return overrides, nil
}
