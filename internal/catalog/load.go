package catalog

import (
	"fmt"
	"os"
	"regexp"

	"github.com/nplvision/titletrace/internal/model"
	"gopkg.in/yaml.v3"
)

// yamlCatalog is the on-disk overlay format. Every field is optional;
// provided fields replace the built-in defaults for that type.
type yamlCatalog struct {
	Types map[string]yamlSpec `yaml:"types"`
}

type yamlSpec struct {
	HeaderSignatures []string       `yaml:"header_signatures"`
	HighKeywords     []string       `yaml:"high_keywords"`
	MediumKeywords   []string       `yaml:"medium_keywords"`
	NegativeKeywords []string       `yaml:"negative_keywords"`
	TableHints       []string       `yaml:"table_hints"`
	Detectors        []yamlDetector `yaml:"detectors"`
	Threshold        *float64       `yaml:"threshold"`
	Norm             *float64       `yaml:"norm"`
}

type yamlDetector struct {
	Name    string  `yaml:"name"`
	Pattern string  `yaml:"pattern"`
	Weight  float64 `yaml:"weight"`
}

// Load returns the built-in catalog overlaid with the YAML file at
// path. An empty path returns the defaults unchanged.
func Load(path string) (*Catalog, error) {
	base := Default()
	if path == "" {
		return base, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var overlay yamlCatalog
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	var specs []*Spec
	for _, t := range base.Types() {
		spec := base.Spec(t)
		if ys, ok := overlay.Types[string(t)]; ok {
			if err := applyOverlay(spec, ys); err != nil {
				return nil, fmt.Errorf("catalog type %s: %w", t, err)
			}
		}
		specs = append(specs, spec)
	}

	// Types present only in the overlay are added from scratch
	for name, ys := range overlay.Types {
		t := model.DocumentType(name)
		if base.Spec(t) != nil {
			continue
		}
		spec := &Spec{Type: t, Threshold: 0.30, Norm: 150}
		if err := applyOverlay(spec, ys); err != nil {
			return nil, fmt.Errorf("catalog type %s: %w", t, err)
		}
		specs = append(specs, spec)
	}

	return New(specs), nil
}

func applyOverlay(spec *Spec, ys yamlSpec) error {
	if len(ys.HeaderSignatures) > 0 {
		var sigs []*regexp.Regexp
		for _, s := range ys.HeaderSignatures {
			re, err := regexp.Compile(s)
			if err != nil {
				return fmt.Errorf("header signature %q: %w", s, err)
			}
			sigs = append(sigs, re)
		}
		spec.HeaderSignatures = sigs
	}
	if len(ys.HighKeywords) > 0 {
		spec.HighKeywords = ys.HighKeywords
	}
	if len(ys.MediumKeywords) > 0 {
		spec.MediumKeywords = ys.MediumKeywords
	}
	if len(ys.NegativeKeywords) > 0 {
		spec.NegativeKeywords = ys.NegativeKeywords
	}
	if len(ys.TableHints) > 0 {
		spec.TableHints = ys.TableHints
	}
	if len(ys.Detectors) > 0 {
		var dets []Detector
		for _, yd := range ys.Detectors {
			re, err := regexp.Compile(yd.Pattern)
			if err != nil {
				return fmt.Errorf("detector %q: %w", yd.Name, err)
			}
			dets = append(dets, Detector{Name: yd.Name, Pattern: re, Weight: yd.Weight})
		}
		spec.Detectors = dets
	}
	if ys.Threshold != nil {
		spec.Threshold = *ys.Threshold
	}
	if ys.Norm != nil {
		spec.Norm = *ys.Norm
	}
	return nil
}
