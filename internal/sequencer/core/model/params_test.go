package model

import (
	"encoding/json"
	"testing"
)

func TestParamValueUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    ParamValue
		wantErr bool
	}{
		{name: "string", in: `"full"`, want: StringParam("full")},
		{name: "integer", in: `42`, want: NumberParam("42")},
		{name: "decimal keeps trailing zero", in: `1.0`, want: NumberParam("1.0")},
		{name: "scientific notation", in: `6.674e-11`, want: NumberParam("6.674e-11")},
		{name: "true", in: `true`, want: BoolParam(true)},
		{name: "false", in: `false`, want: BoolParam(false)},
		{name: "null rejected", in: `null`, wantErr: true},
		{name: "array rejected", in: `[1, 2]`, wantErr: true},
		{name: "object rejected", in: `{"a": 1}`, wantErr: true},
		{name: "garbage rejected", in: `nope`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got ParamValue
			err := json.Unmarshal([]byte(tt.in), &got)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("unmarshal %s: expected error, got %+v", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unmarshal %s: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("unmarshal %s = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParamValueMarshalPreservesNumberText(t *testing.T) {
	in := `{"throttle": 0.30, "burn": 1e3, "mode": "retrograde", "armed": true}`

	var params map[string]ParamValue
	if err := json.Unmarshal([]byte(in), &params); err != nil {
		t.Fatal(err)
	}

	out, err := json.Marshal(params)
	if err != nil {
		t.Fatal(err)
	}

	var round map[string]json.RawMessage
	if err := json.Unmarshal(out, &round); err != nil {
		t.Fatal(err)
	}
	if got := string(round["throttle"]); got != "0.30" {
		t.Errorf("throttle serialized as %s, want 0.30", got)
	}
	if got := string(round["burn"]); got != "1e3" {
		t.Errorf("burn serialized as %s, want 1e3", got)
	}
}

func TestParamValueString(t *testing.T) {
	if s := StringParam("abort").String(); s != "abort" {
		t.Errorf("String() = %q", s)
	}
	if s := NumberParam("1.50").String(); s != "1.50" {
		t.Errorf("String() = %q", s)
	}
	if s := BoolParam(true).String(); s != "true" {
		t.Errorf("String() = %q", s)
	}
}
