// Package planfile reads and writes run plans as JSON, so a plan computed
// at deploy-review time can be inspected, checked into a ticket, or
// validated by other tooling. Loaded files are validated against an
// embedded JSON Schema before unmarshaling.
package planfile

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/inside-track/post-deploy-scripts/internal/script"
)

//go:embed schema.json
var planSchema string

// Plan is the serialized form of a computed run plan.
type Plan struct {
	Environment string       `json:"environment,omitempty"`
	Direction   string       `json:"direction"`
	GeneratedAt time.Time    `json:"generated_at"`
	Scripts     []PlanScript `json:"scripts"`
}

// PlanScript is one planned script.
type PlanScript struct {
	Version int64  `json:"version"`
	Name    string `json:"name"`
	Path    string `json:"path,omitempty"`
}

// FromDescriptors builds a Plan from the planner's output.
func FromDescriptors(environment string, dir script.Direction, planned []script.Descriptor) *Plan {
	plan := &Plan{
		Environment: environment,
		Direction:   dir.String(),
		GeneratedAt: time.Now().UTC(),
		Scripts:     []PlanScript{},
	}
	for _, desc := range planned {
		plan.Scripts = append(plan.Scripts, PlanScript{
			Version: desc.Version,
			Name:    desc.Name,
			Path:    desc.Path,
		})
	}
	return plan
}

// Write saves the plan as indented JSON, atomically (temp file + rename).
func (p *Plan) Write(path string) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}
	data = append(data, '\n')

	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write plan file: %w", err)
	}
	if err := os.Rename(tempFile, path); err != nil {
		return fmt.Errorf("failed to save plan file: %w", err)
	}
	return nil
}

// Load reads a plan file, validating it against the plan schema first.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}

	if err := Validate(data); err != nil {
		return nil, fmt.Errorf("invalid plan file %s: %w", path, err)
	}

	var plan Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("failed to parse plan file %s: %w", path, err)
	}
	return &plan, nil
}

// Validate checks raw JSON against the embedded plan schema.
func Validate(data []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(planSchema)
	documentLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation failed to run: %w", err)
	}
	if !result.Valid() {
		msg := "plan does not match schema:"
		for _, desc := range result.Errors() {
			msg += fmt.Sprintf("\n  - %s", desc)
		}
		return fmt.Errorf("%s", msg)
	}
	return nil
}
