package ghost

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const runSchemaURL = "https://spindoctor.local/schema/run.schema.json"

//go:embed schema/run.schema.json
var runSchemaJSON []byte

var (
	runSchemaOnce sync.Once
	runSchema     *jsonschema.Schema
	runSchemaErr  error
)

func compiledRunSchema() (*jsonschema.Schema, error) {
	runSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(runSchemaURL, bytes.NewReader(runSchemaJSON)); err != nil {
			runSchemaErr = fmt.Errorf("add run schema: %w", err)
			return
		}
		runSchema, runSchemaErr = compiler.Compile(runSchemaURL)
		if runSchemaErr != nil {
			runSchemaErr = fmt.Errorf("compile run schema: %w", runSchemaErr)
		}
	})
	return runSchema, runSchemaErr
}

// DecodeRun parses a run document, checks it against the run schema and the
// snapshot ordering rules, and returns the typed run.
func DecodeRun(raw []byte) (Run, error) {
	schema, err := compiledRunSchema()
	if err != nil {
		return Run{}, err
	}
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Run{}, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	if err := schema.Validate(payload); err != nil {
		return Run{}, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	var run Run
	if err := json.Unmarshal(raw, &run); err != nil {
		return Run{}, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	if len(run.Snapshots) == 0 {
		return Run{}, fmt.Errorf("%w: run has no snapshots", ErrIncomparableRun)
	}
	if err := ValidateSnapshots(run.Snapshots); err != nil {
		return Run{}, err
	}
	return run, nil
}

// EncodeRun is the inverse of DecodeRun.
func EncodeRun(run Run) ([]byte, error) {
	if len(run.Snapshots) == 0 {
		return nil, fmt.Errorf("%w: run has no snapshots", ErrIncomparableRun)
	}
	if err := ValidateSnapshots(run.Snapshots); err != nil {
		return nil, err
	}
	return json.MarshalIndent(run, "", "  ")
}
