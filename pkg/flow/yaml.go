package flow

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/maitre-bot/maitre/pkg/domain"
	"github.com/maitre-bot/maitre/pkg/schema"
)

// stateDoc is the YAML shape of a state definition. Schemas are declared
// as field-to-type-string maps and compiled via schema.ParseTypeMap.
type stateDoc struct {
	ID                string            `yaml:"id"`
	Prompt            string            `yaml:"prompt"`
	Template          map[string]any    `yaml:"template"`
	Validator         map[string]string `yaml:"validator"`
	Extraction        *extractionDoc    `yaml:"extraction"`
	Callback          string            `yaml:"callback"`
	Action            string            `yaml:"action"`
	ValidationMessage string            `yaml:"validation_message"`
	Skippable         bool              `yaml:"skippable"`
	Next              map[string]string `yaml:"next"`
}

type extractionDoc struct {
	Instruction string            `yaml:"instruction"`
	Schema      map[string]string `yaml:"schema"`
}

type fileDoc struct {
	States []stateDoc `yaml:"states"`
}

// Parse builds state definitions from one YAML document.
func Parse(data []byte) ([]domain.State, error) {
	var doc fileDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse flow document: %w", err)
	}

	states := make([]domain.State, 0, len(doc.States))
	for _, sd := range doc.States {
		s, err := sd.toDomain()
		if err != nil {
			return nil, err
		}
		states = append(states, s)
	}
	return states, nil
}

// LoadDir reads every *.yaml / *.yml file under dir (sorted by name for
// deterministic ordering) and builds a table from their combined states.
func LoadDir(dir string) (*Table, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read flow directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".yaml" || ext == ".yml" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	if len(names) == 0 {
		return nil, fmt.Errorf("no flow files in %s", dir)
	}

	var states []domain.State
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		parsed, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		states = append(states, parsed...)
	}
	return New(states...)
}

func (sd *stateDoc) toDomain() (domain.State, error) {
	s := domain.State{
		ID:                sd.ID,
		Prompt:            sd.Prompt,
		Callback:          sd.Callback,
		Action:            sd.Action,
		ValidationMessage: sd.ValidationMessage,
		Skippable:         sd.Skippable,
	}

	if sd.Template != nil {
		var tpl domain.Template
		if err := mapstructure.Decode(sd.Template, &tpl); err != nil {
			return s, fmt.Errorf("state %q: invalid template: %w", sd.ID, err)
		}
		s.Template = &tpl
	}

	if len(sd.Validator) > 0 {
		compiled, err := schema.ParseTypeMap(sd.Validator)
		if err != nil {
			return s, fmt.Errorf("state %q: invalid validator: %w", sd.ID, err)
		}
		s.Validator = compiled
	}

	if sd.Extraction != nil {
		compiled, err := schema.ParseTypeMap(sd.Extraction.Schema)
		if err != nil {
			return s, fmt.Errorf("state %q: invalid extraction schema: %w", sd.ID, err)
		}
		s.Extraction = &domain.Extraction{
			Instruction: sd.Extraction.Instruction,
			Schema:      compiled,
		}
	}

	if len(sd.Next) > 0 {
		s.Next = make(map[domain.Token]string, len(sd.Next))
		for token, target := range sd.Next {
			s.Next[domain.Token(token)] = target
		}
	}
	return s, nil
}
