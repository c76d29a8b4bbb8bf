package shellarg

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		want    []string
		wantErr bool
	}{
		{name: "empty", in: "", want: nil},
		{name: "plain words", in: "--address 0x1000 --bit 3", want: []string{"--address", "0x1000", "--bit", "3"}},
		{name: "extra whitespace", in: "  --a   1  ", want: []string{"--a", "1"}},
		{name: "single quotes preserve spaces", in: "--name 'hello world'", want: []string{"--name", "hello world"}},
		{name: "double quotes preserve spaces", in: `--name "hello world"`, want: []string{"--name", "hello world"}},
		{name: "backslash escapes a space", in: `--name hello\ world`, want: []string{"--name", "hello world"}},
		{name: "unterminated single quote", in: "--name 'oops", wantErr: true},
		{name: "unterminated double quote", in: `--name "oops`, wantErr: true},
		{name: "trailing backslash", in: `--name oops\`, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Tokenize(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("Tokenize(%q) = %v, want error", tc.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Tokenize(%q) unexpected error: %v", tc.in, err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Tokenize(%q) = %#v, want %#v", tc.in, got, tc.want)
			}
		})
	}
}

func inventorySchema() Schema {
	return Schema{
		Params: []Param{
			{Name: "address", Type: TString},
			{Name: "bit", Type: TInt},
			{Name: "fault-type", Type: TChoice, Required: true, Choices: []string{"ram", "reg"}},
			{Name: "interval", Type: TDuration},
		},
	}
}

func TestParseAssignsEachType(t *testing.T) {
	vals, err := Parse(inventorySchema(), "--address 0xff00 --bit 7 --fault-type ram --interval 5ms")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := vals.Get("address"); got != "0xff00" {
		t.Errorf("address = %q, want 0xff00", got)
	}
	if got := vals.GetInt("bit"); got != 7 {
		t.Errorf("bit = %d, want 7", got)
	}
	if got := vals.Get("fault-type"); got != "ram" {
		t.Errorf("fault-type = %q, want ram", got)
	}
	if got := vals.GetDuration("interval"); got != 5_000_000 {
		t.Errorf("interval = %d, want 5000000 (5ms in ns)", got)
	}
}

func TestParseHas(t *testing.T) {
	vals, err := Parse(inventorySchema(), "--fault-type reg")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if vals.Has("address") {
		t.Error("Has(address) = true, want false (not supplied)")
	}
	if !vals.Has("fault-type") {
		t.Error("Has(fault-type) = false, want true")
	}
}

func TestParseMissingRequired(t *testing.T) {
	_, err := Parse(inventorySchema(), "--address 0x1000")
	if err == nil {
		t.Fatal("Parse with missing required --fault-type succeeded, want error")
	}
}

func TestParseUnknownParameter(t *testing.T) {
	_, err := Parse(inventorySchema(), "--fault-type ram --bogus x")
	if err == nil {
		t.Fatal("Parse with unknown --bogus succeeded, want error")
	}
}

func TestParseChoiceRejectsInvalidValue(t *testing.T) {
	_, err := Parse(inventorySchema(), "--fault-type disk")
	if err == nil {
		t.Fatal("Parse with invalid choice succeeded, want error")
	}
}

func TestParseIntRejectsNonInteger(t *testing.T) {
	_, err := Parse(inventorySchema(), "--fault-type ram --bit notanumber")
	if err == nil {
		t.Fatal("Parse with non-integer --bit succeeded, want error")
	}
}

func TestParseDurationRejectsBadLiteral(t *testing.T) {
	_, err := Parse(inventorySchema(), "--fault-type ram --interval nope")
	if err == nil {
		t.Fatal("Parse with invalid duration literal succeeded, want error")
	}
}

func TestParseFlagMissingValue(t *testing.T) {
	_, err := Parse(inventorySchema(), "--fault-type")
	if err == nil {
		t.Fatal("Parse with dangling --fault-type (no value) succeeded, want error")
	}
}

func TestParseVariadicTail(t *testing.T) {
	schema := Schema{
		Params: []Param{
			{Name: "times", Type: TInt, Required: true},
			{Name: "command", Type: TString, Required: true},
		},
		VariadicName: "command-args",
	}
	vals, err := Parse(schema, "--times 3 --command inject --address 0x100 --bit 2")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if vals.GetInt("times") != 3 {
		t.Errorf("times = %d, want 3", vals.GetInt("times"))
	}
	if vals.Get("command") != "inject" {
		t.Errorf("command = %q, want inject", vals.Get("command"))
	}
	want := []string{"--address", "0x100", "--bit", "2"}
	if !reflect.DeepEqual(vals.Variadic, want) {
		t.Errorf("Variadic = %#v, want %#v", vals.Variadic, want)
	}
}

func TestParseNoVariadicRejectsBareToken(t *testing.T) {
	_, err := Parse(inventorySchema(), "--fault-type ram bareword")
	if err == nil {
		t.Fatal("Parse with a bare non-flag token and no variadic slot succeeded, want error")
	}
}
