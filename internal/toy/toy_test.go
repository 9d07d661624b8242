package toy

import (
	"encoding/json"
	"testing"
)

func TestIDUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ID
		wantErr bool
	}{
		{"number", `1`, NumericID(1), false},
		{"large number", `9007199254740993`, MakeID("9007199254740993", true), false},
		{"string", `"a1b2"`, StringID("a1b2"), false},
		{"numeric string stays string", `"5"`, StringID("5"), false},
		{"null", `null`, ID{}, false},
		{"bool", `true`, ID{}, true},
		{"object", `{}`, ID{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var id ID
			err := json.Unmarshal([]byte(tt.input), &id)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal(%s) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && id != tt.want {
				t.Errorf("Unmarshal(%s) = %#v, want %#v", tt.input, id, tt.want)
			}
		})
	}
}

func TestIDKeepsWireForm(t *testing.T) {
	var got []Toy
	in := `[{"id":1,"name":"Bear","image":"u","likes":0},{"id":"x9","name":"Robot","image":"v","likes":3}]`
	if err := json.Unmarshal([]byte(in), &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	out, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(out) != in {
		t.Errorf("Marshal() = %s, want %s", out, in)
	}
}

func TestNumericAndStringIDsDiffer(t *testing.T) {
	if NumericID(5) == StringID("5") {
		t.Error("numeric id 5 should not equal string id \"5\"")
	}
	if NumericID(5).String() != "5" {
		t.Errorf("String() = %q, want %q", NumericID(5).String(), "5")
	}
	if !(ID{}).IsZero() {
		t.Error("zero ID should report IsZero")
	}
}

func TestNewDraftStartsWithZeroLikes(t *testing.T) {
	d := NewDraft("Robot", "http://x/y")
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"name":"Robot","image":"http://x/y","likes":0}`
	if string(data) != want {
		t.Errorf("Marshal(draft) = %s, want %s", data, want)
	}
}
