package types

import (
	"encoding/json"
	"testing"
)

func TestValue_MarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		value    Value
		wantJSON string
	}{
		{"null", Null(), "null"},
		{"int", Int(42), "42"},
		{"negative int", Int(-7), "-7"},
		{"float", Float(19.99), "19.99"},
		{"string", String("it's here"), `"it's here"`},
		{"raw", Raw("NOW()"), `"NOW()"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.value)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(got) != tt.wantJSON {
				t.Errorf("Marshal() = %s, want %s", got, tt.wantJSON)
			}
		})
	}
}

func TestValue_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		data string
		want Value
	}{
		{"null", "null", Null()},
		{"int", "42", Int(42)},
		{"float", "19.99", Float(19.99)},
		{"string", `"joe@x.com"`, String("joe@x.com")},
		{"big number falls back to float", "1e3", Float(1000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Value
			if err := json.Unmarshal([]byte(tt.data), &got); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Unmarshal() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestValue_UnmarshalJSON_Invalid(t *testing.T) {
	var v Value
	if err := json.Unmarshal([]byte("true"), &v); err == nil {
		t.Error("expected error for boolean input")
	}
}

func TestValue_Text(t *testing.T) {
	tests := []struct {
		value Value
		want  string
	}{
		{Null(), ""},
		{Int(123), "123"},
		{Float(2.5), "2.5"},
		{String("abc"), "abc"},
		{Raw("CURRENT_TIMESTAMP"), "CURRENT_TIMESTAMP"},
	}

	for _, tt := range tests {
		if got := tt.value.Text(); got != tt.want {
			t.Errorf("%v.Text() = %q, want %q", tt.value.Kind(), got, tt.want)
		}
	}
}

func TestValue_Number(t *testing.T) {
	tests := []struct {
		name   string
		value  Value
		want   float64
		wantOK bool
	}{
		{"int", Int(10), 10, true},
		{"float", Float(19.99), 19.99, true},
		{"numeric string", String("5.50"), 5.5, true},
		{"text", String("free"), 0, false},
		{"null", Null(), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.value.Number()
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Number() = (%v, %v), want (%v, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
