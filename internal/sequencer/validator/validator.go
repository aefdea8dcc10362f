// Package validator checks submitted mission documents against the mission
// plan contract before any state is created. Validation is pure: a document
// either yields an immutable MissionPlan or a ValidationError listing every
// field-level failure.
package validator

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/astrolink-io/astrolink/internal/sequencer/core"
	"github.com/astrolink-io/astrolink/internal/sequencer/core/model"
)

// ErrMalformedDocument marks input that is not valid JSON at all; it is
// reported before field-level validation happens.
var ErrMalformedDocument = errors.New("malformed mission document")

// missionIDPattern is the schema contract for mission identifiers.
var missionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Validate checks a raw mission document and returns the typed plan.
// On schema violations the returned error is a *core.ValidationError
// enumerating all of them; on non-JSON input it wraps ErrMalformedDocument.
func Validate(doc []byte) (*model.MissionPlan, error) {
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	var violations []core.FieldViolation
	report := func(field, reason string) {
		violations = append(violations, core.FieldViolation{Field: field, Reason: reason})
	}

	checkMissionID(raw, report)
	checkFlightPlan(raw, report)

	if len(violations) > 0 {
		return nil, &core.ValidationError{Violations: violations}
	}

	// The scan guarantees the document matches the contract; the typed
	// decode below cannot fail on shape, only fill in defaults.
	var plan model.MissionPlan
	if err := json.Unmarshal(doc, &plan); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	for i := range plan.FlightPlan {
		if plan.FlightPlan[i].Parameters == nil {
			plan.FlightPlan[i].Parameters = map[string]model.ParamValue{}
		}
	}

	return &plan, nil
}

func checkMissionID(raw map[string]any, report func(field, reason string)) {
	v, ok := raw["mission_id"]
	if !ok {
		report("mission_id", "required field is missing")
		return
	}

	id, ok := v.(string)
	if !ok {
		report("mission_id", "must be a string")
		return
	}
	if !missionIDPattern.MatchString(id) {
		report("mission_id", "must match ^[A-Za-z0-9_-]+$")
	}
}

func checkFlightPlan(raw map[string]any, report func(field, reason string)) {
	v, ok := raw["flight_plan"]
	if !ok {
		report("flight_plan", "required field is missing")
		return
	}

	steps, ok := v.([]any)
	if !ok {
		report("flight_plan", "must be an array of command steps")
		return
	}
	if len(steps) == 0 {
		report("flight_plan", "must contain at least one command step")
		return
	}

	for i, s := range steps {
		checkStep(i, s, report)
	}
}

func checkStep(i int, s any, report func(field, reason string)) {
	prefix := fmt.Sprintf("flight_plan[%d]", i)

	step, ok := s.(map[string]any)
	if !ok {
		report(prefix, "must be an object")
		return
	}

	cmd, ok := step["command"]
	if !ok {
		report(prefix+".command", "required field is missing")
	} else if cmdStr, isStr := cmd.(string); !isStr {
		report(prefix+".command", "must be a string")
	} else if cmdStr == "" {
		report(prefix+".command", "must be a non-empty string")
	}

	if params, ok := step["parameters"]; ok {
		checkParameters(prefix, params, report)
	}

	if delay, ok := step["delay_ms"]; ok {
		checkDelay(prefix, delay, report)
	}
}

func checkParameters(prefix string, params any, report func(field, reason string)) {
	m, ok := params.(map[string]any)
	if !ok {
		report(prefix+".parameters", "must be a mapping")
		return
	}

	for k, v := range m {
		switch v.(type) {
		case string, bool, json.Number:
		default:
			report(fmt.Sprintf("%s.parameters.%s", prefix, k), "must be a scalar (string, number or boolean)")
		}
	}
}

func checkDelay(prefix string, delay any, report func(field, reason string)) {
	n, ok := delay.(json.Number)
	if !ok {
		report(prefix+".delay_ms", "must be a non-negative integer")
		return
	}

	v, err := n.Int64()
	if err != nil {
		report(prefix+".delay_ms", "must be an integer")
		return
	}
	if v < 0 {
		report(prefix+".delay_ms", "must be non-negative")
	}
}
