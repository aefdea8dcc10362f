package model

import (
	"encoding/json"
	"fmt"
)

// ParamKind identifies the variant stored in a ParamValue.
type ParamKind int

const (
	ParamString ParamKind = iota
	ParamNumber
	ParamBool
)

// ParamValue is a closed scalar variant: string, number or boolean.
// Numbers are carried as json.Number end to end so the sequencer never
// rounds or reformats a value on its way to the executor.
type ParamValue struct {
	Kind ParamKind
	Str  string
	Num  json.Number
	Bool bool
}

// StringParam wraps a string value.
func StringParam(s string) ParamValue { return ParamValue{Kind: ParamString, Str: s} }

// NumberParam wraps a numeric literal, e.g. NumberParam("1.0").
func NumberParam(n string) ParamValue { return ParamValue{Kind: ParamNumber, Num: json.Number(n)} }

// BoolParam wraps a boolean value.
func BoolParam(b bool) ParamValue { return ParamValue{Kind: ParamBool, Bool: b} }

func (v ParamValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case ParamString:
		return json.Marshal(v.Str)
	case ParamNumber:
		if v.Num == "" {
			return []byte("0"), nil
		}
		return []byte(v.Num), nil
	case ParamBool:
		return json.Marshal(v.Bool)
	default:
		return nil, fmt.Errorf("unknown parameter kind %d", v.Kind)
	}
}

func (v *ParamValue) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty parameter value")
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = StringParam(s)
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = BoolParam(b)
		return nil
	case '[', '{':
		return fmt.Errorf("parameter values must be scalars, got %c...", data[0])
	case 'n':
		return fmt.Errorf("parameter values must be scalars, got null")
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("invalid parameter value %s", data)
		}
		*v = ParamValue{Kind: ParamNumber, Num: n}
		return nil
	}
}

func (v ParamValue) String() string {
	switch v.Kind {
	case ParamString:
		return v.Str
	case ParamNumber:
		return v.Num.String()
	case ParamBool:
		return fmt.Sprintf("%t", v.Bool)
	default:
		return ""
	}
}
