package validator

import (
	"errors"
	"strings"
	"testing"

	"github.com/astrolink-io/astrolink/internal/sequencer/core"
	"github.com/astrolink-io/astrolink/internal/sequencer/core/model"
)

func TestValidateAcceptsWellFormedPlan(t *testing.T) {
	doc := []byte(`{
		"mission_id": "m1",
		"flight_plan": [
			{"command": "SET_THROTTLE", "parameters": {"value": 1.0}},
			{"command": "WAIT", "parameters": {}, "delay_ms": 5000},
			{"command": "STAGE", "parameters": {}}
		]
	}`)

	plan, err := Validate(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.MissionID != "m1" {
		t.Errorf("mission id mutated: got %q", plan.MissionID)
	}
	if len(plan.FlightPlan) != 3 {
		t.Fatalf("got %d steps, want 3", len(plan.FlightPlan))
	}
	if plan.FlightPlan[0].Command != "SET_THROTTLE" {
		t.Errorf("step order not preserved: %q", plan.FlightPlan[0].Command)
	}
	if plan.FlightPlan[1].DelayMS != 5000 {
		t.Errorf("delay_ms = %d, want 5000", plan.FlightPlan[1].DelayMS)
	}
	if plan.FlightPlan[2].DelayMS != 0 {
		t.Errorf("missing delay_ms must default to 0, got %d", plan.FlightPlan[2].DelayMS)
	}

	// Numeric parameters keep their literal form.
	v := plan.FlightPlan[0].Parameters["value"]
	if v.Kind != model.ParamNumber || v.Num.String() != "1.0" {
		t.Errorf("parameter value lost precision: %+v", v)
	}
}

func TestValidateDefaultsMissingParameters(t *testing.T) {
	doc := []byte(`{"mission_id": "m2", "flight_plan": [{"command": "STAGE"}]}`)

	plan, err := Validate(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.FlightPlan[0].Parameters == nil {
		t.Fatal("parameters must default to an empty map, not nil")
	}
	if len(plan.FlightPlan[0].Parameters) != 0 {
		t.Errorf("expected empty parameters, got %v", plan.FlightPlan[0].Parameters)
	}
}

func TestValidateReportsAllViolations(t *testing.T) {
	doc := []byte(`{"mission_id": "bad id!", "flight_plan": []}`)

	_, err := Validate(doc)
	var verr *core.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Violations) != 2 {
		t.Fatalf("got %d violations, want 2: %v", len(verr.Violations), verr.Violations)
	}

	fields := map[string]bool{}
	for _, v := range verr.Violations {
		fields[v.Field] = true
	}
	if !fields["mission_id"] || !fields["flight_plan"] {
		t.Errorf("expected violations on mission_id and flight_plan, got %v", verr.Violations)
	}
}

func TestValidateViolations(t *testing.T) {
	tests := []struct {
		name      string
		doc       string
		wantField string
	}{
		{"missing mission_id", `{"flight_plan":[{"command":"STAGE"}]}`, "mission_id"},
		{"non-string mission_id", `{"mission_id":7,"flight_plan":[{"command":"STAGE"}]}`, "mission_id"},
		{"mission_id with spaces", `{"mission_id":"m 1","flight_plan":[{"command":"STAGE"}]}`, "mission_id"},
		{"missing flight_plan", `{"mission_id":"m1"}`, "flight_plan"},
		{"flight_plan not array", `{"mission_id":"m1","flight_plan":"STAGE"}`, "flight_plan"},
		{"empty flight_plan", `{"mission_id":"m1","flight_plan":[]}`, "flight_plan"},
		{"step not object", `{"mission_id":"m1","flight_plan":["STAGE"]}`, "flight_plan[0]"},
		{"missing command", `{"mission_id":"m1","flight_plan":[{"parameters":{}}]}`, "flight_plan[0].command"},
		{"empty command", `{"mission_id":"m1","flight_plan":[{"command":""}]}`, "flight_plan[0].command"},
		{"parameters not mapping", `{"mission_id":"m1","flight_plan":[{"command":"STAGE","parameters":[1]}]}`, "flight_plan[0].parameters"},
		{"non-scalar parameter", `{"mission_id":"m1","flight_plan":[{"command":"STAGE","parameters":{"v":{"x":1}}}]}`, "flight_plan[0].parameters.v"},
		{"null parameter", `{"mission_id":"m1","flight_plan":[{"command":"STAGE","parameters":{"v":null}}]}`, "flight_plan[0].parameters.v"},
		{"negative delay", `{"mission_id":"m1","flight_plan":[{"command":"STAGE","delay_ms":-1}]}`, "flight_plan[0].delay_ms"},
		{"fractional delay", `{"mission_id":"m1","flight_plan":[{"command":"STAGE","delay_ms":1.5}]}`, "flight_plan[0].delay_ms"},
		{"string delay", `{"mission_id":"m1","flight_plan":[{"command":"STAGE","delay_ms":"100"}]}`, "flight_plan[0].delay_ms"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate([]byte(tt.doc))
			var verr *core.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			found := false
			for _, v := range verr.Violations {
				if strings.HasPrefix(v.Field, tt.wantField) {
					found = true
				}
			}
			if !found {
				t.Errorf("no violation on %s: %v", tt.wantField, verr.Violations)
			}
		})
	}
}

func TestValidateMalformedJSON(t *testing.T) {
	for _, doc := range []string{``, `{`, `not json`, `[1,2]`} {
		_, err := Validate([]byte(doc))
		if !errors.Is(err, ErrMalformedDocument) {
			t.Errorf("Validate(%q) = %v, want ErrMalformedDocument", doc, err)
		}
	}
}

func TestValidateIsPure(t *testing.T) {
	doc := []byte(`{"mission_id":"m1","flight_plan":[{"command":"STAGE","parameters":{"n":42}}]}`)

	a, err := Validate(doc)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Validate(doc)
	if err != nil {
		t.Fatal(err)
	}

	// Two calls yield independent plans: mutating one must not leak.
	a.FlightPlan[0].Parameters["n"] = model.StringParam("mutated")
	if b.FlightPlan[0].Parameters["n"].Kind != model.ParamNumber {
		t.Error("plans share parameter state across Validate calls")
	}
}
