package deals

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Pipeline defines the ordered stages of the Kanban board. It normally
// comes from a YAML file so teams can rename or add stages without a code
// change; DefaultPipeline is the fallback when no file is configured.
type Pipeline struct {
	Name   string     `yaml:"name"`
	Stages []StageDef `yaml:"stages"`
}

type StageDef struct {
	Key   string `yaml:"key" json:"key"`
	Label string `yaml:"label" json:"label"`

	// Closed marks stages that end the deal (won or lost); deals in a
	// closed stage don't count toward the open-pipeline total.
	Closed bool `yaml:"closed,omitempty" json:"closed,omitempty"`
}

// DefaultPipeline mirrors the stock board.
func DefaultPipeline() Pipeline {
	return Pipeline{
		Name: "default",
		Stages: []StageDef{
			{Key: "new", Label: "New"},
			{Key: "qualified", Label: "Qualified"},
			{Key: "proposal", Label: "Proposal"},
			{Key: "negotiation", Label: "Negotiation"},
			{Key: "won", Label: "Won", Closed: true},
			{Key: "lost", Label: "Lost", Closed: true},
		},
	}
}

// LoadPipeline reads a pipeline definition from a YAML file.
func LoadPipeline(path string) (Pipeline, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("deals: read pipeline file: %w", err)
	}
	var p Pipeline
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return Pipeline{}, fmt.Errorf("deals: parse pipeline file: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Pipeline{}, err
	}
	return p, nil
}

func (p Pipeline) Validate() error {
	if len(p.Stages) == 0 {
		return errors.New("deals: pipeline needs at least one stage")
	}
	seen := make(map[string]struct{}, len(p.Stages))
	for _, s := range p.Stages {
		if s.Key == "" {
			return errors.New("deals: pipeline stage key is required")
		}
		if _, dup := seen[s.Key]; dup {
			return fmt.Errorf("deals: duplicate pipeline stage %q", s.Key)
		}
		seen[s.Key] = struct{}{}
	}
	return nil
}

// HasStage reports whether key is a stage of this pipeline.
func (p Pipeline) HasStage(key string) bool {
	for _, s := range p.Stages {
		if s.Key == key {
			return true
		}
	}
	return false
}

// FirstStage is where new deals land.
func (p Pipeline) FirstStage() StageDef {
	return p.Stages[0]
}
