package dumpsys

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParsePrimitive(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Value
	}{
		{"true lower", "true", Bool(true)},
		{"false upper", "FALSE", Bool(false)},
		{"mixed case", "True", Bool(true)},
		{"integer", "42", Number(42)},
		{"negative float", "-3.5", Number(-3.5)},
		{"exponent", "1e3", Number(1000)},
		{"whitespace only", "  ", String("  ")},
		{"empty", "", String("")},
		{"word", "abc", String("abc")},
		{"call id", "TC@56", String("TC@56")},
		{"trailing garbage", "42ms", String("42ms")},
		{"nan stays text", "NaN", String("NaN")},
		{"inf stays text", "Inf", String("Inf")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParsePrimitive(tt.raw)
			if got.Kind() != tt.want.Kind() {
				t.Fatalf("ParsePrimitive(%q) kind = %v, want %v", tt.raw, got.Kind(), tt.want.Kind())
			}
			if diff := cmp.Diff(tt.want.Interface(), got.Interface()); diff != "" {
				t.Errorf("ParsePrimitive(%q) mismatch (-want +got):\n%s", tt.raw, diff)
			}
		})
	}
}

func TestAccumulate(t *testing.T) {
	n := Node{}
	Accumulate(n, "Call", String("a"))
	if v := n["Call"]; v.Kind() != KindString {
		t.Fatalf("single value should not be wrapped, got %v", v.Kind())
	}

	Accumulate(n, "Call", String("b"))
	Accumulate(n, "Call", String("c"))

	want := []any{"a", "b", "c"}
	if diff := cmp.Diff(want, n["Call"].Interface()); diff != "" {
		t.Errorf("accumulated values mismatch (-want +got):\n%s", diff)
	}
}

func TestAccumulateMixedKinds(t *testing.T) {
	n := Node{}
	Accumulate(n, "k", Number(1))
	Accumulate(n, "k", NodeValue(Node{"x": Bool(true)}))
	Accumulate(n, "k", Null())

	want := []any{float64(1), map[string]any{"x": true}, nil}
	if diff := cmp.Diff(want, n["k"].Interface()); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

const callsManagerDump = `CallsManager:
  mCallAudioManager:
    All calls:
      TC@56
    Active dialing, or connecting calls:
    mIsTonePlaying: false
    mForegroundCall: TC@56
  mRespondViaSmsManager:
    mRespondViaSmsManager: null
  Call id=TC@56, state=ACTIVE, tpac=ComponentInfo{com.android.phone/TelephonyConnectionService}
  count: 3
`

func TestParseNested(t *testing.T) {
	got := Parse(callsManagerDump)

	want := map[string]any{
		"CallsManager": map[string]any{
			"mCallAudioManager": map[string]any{
				"All calls": map[string]any{
					ItemsKey: "TC@56",
				},
				"Active dialing, or connecting calls": nil,
				"mIsTonePlaying":                      false,
				"mForegroundCall":                     "TC@56",
			},
			"mRespondViaSmsManager": map[string]any{
				"mRespondViaSmsManager": "null",
			},
			ItemsKey: "Call id=TC@56, state=ACTIVE, tpac=ComponentInfo{com.android.phone/TelephonyConnectionService}",
			"count":  float64(3),
		},
	}

	if diff := cmp.Diff(want, got.Interface()); diff != "" {
		t.Errorf("Parse mismatch (-want +got):\n%s", diff)
	}
}

func TestParseBareLinesAndRepeatedKeys(t *testing.T) {
	text := `Section:
  first bare line
  second bare line
  Call: one
  Call: two
`
	got := Parse(text)
	want := map[string]any{
		"Section": map[string]any{
			ItemsKey: []any{"first bare line", "second bare line"},
			"Call":   []any{"one", "two"},
		},
	}
	if diff := cmp.Diff(want, got.Interface()); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestParseLookaheadSkipsBlankLines(t *testing.T) {
	text := "Outer:\n\n\n  inner: 1\nSibling:\n\nTail: x\n"
	got := Parse(text)
	want := map[string]any{
		"Outer":   map[string]any{"inner": float64(1)},
		"Sibling": nil,
		"Tail":    "x",
	}
	if diff := cmp.Diff(want, got.Interface()); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestParseDedentClosesScopes(t *testing.T) {
	text := `A:
  B:
    C:
      deep: 1
  back: 2
top: 3
`
	got := Parse(text)
	want := map[string]any{
		"A": map[string]any{
			"B": map[string]any{
				"C": map[string]any{"deep": float64(1)},
			},
			"back": float64(2),
		},
		"top": float64(3),
	}
	if diff := cmp.Diff(want, got.Interface()); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestParseCRLFAndTabs(t *testing.T) {
	text := "Root:\r\n\tchild: yes\r\n\tflag: TRUE\r\n"
	got := Parse(text)
	want := map[string]any{
		"Root": map[string]any{"child": "yes", "flag": true},
	}
	if diff := cmp.Diff(want, got.Interface()); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestParseDegradesGracefully(t *testing.T) {
	inputs := []string{
		"",
		"\n\n\n",
		":",
		": value",
		"}}}{{{",
		"key:",
		"    deeply indented first line: 1\nshallow: 2",
		strings.Repeat("k:\n ", 1000),
		"\x00\xff\xfe: binary",
	}
	for _, in := range inputs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("Parse(%q) panicked: %v", in, r)
				}
			}()
			if got := Parse(in); got == nil {
				t.Errorf("Parse(%q) returned nil node", in)
			}
		}()
	}
}

func TestParseColonOnlyLineIsItem(t *testing.T) {
	got := Parse(": value")
	want := map[string]any{ItemsKey: ": value"}
	if diff := cmp.Diff(want, got.Interface()); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestParseIdempotent(t *testing.T) {
	first := Parse(callsManagerDump)
	second := Parse(callsManagerDump)
	if diff := cmp.Diff(first.Interface(), second.Interface()); diff != "" {
		t.Errorf("parsing twice produced different trees (-first +second):\n%s", diff)
	}
}

func TestLookup(t *testing.T) {
	root := Parse(callsManagerDump)

	v, ok := root.Lookup("CallsManager", "mCallAudioManager", "mForegroundCall")
	if !ok || v.Text() != "TC@56" {
		t.Errorf("Lookup foreground call = %q, %v", v.Text(), ok)
	}

	if _, ok := root.Lookup("CallsManager", "missing", "x"); ok {
		t.Error("Lookup through a missing key should fail")
	}
	if _, ok := root.Lookup("CallsManager", "count", "x"); ok {
		t.Error("Lookup through a primitive should fail")
	}
}

func TestValueItems(t *testing.T) {
	if got := Null().Items(); len(got) != 0 {
		t.Errorf("Null().Items() = %v, want empty", got)
	}
	if got := String("a").Items(); len(got) != 1 {
		t.Errorf("String.Items() len = %d, want 1", len(got))
	}
	if got := List(String("a"), String("b")).Items(); len(got) != 2 {
		t.Errorf("List.Items() len = %d, want 2", len(got))
	}
}

func TestValueText(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Number(56), "56"},
		{Number(1.25), "1.25"},
		{Bool(false), "false"},
		{ParsePrimitive("007"), "007"},
		{ParsePrimitive("1e3"), "1e3"},
		{ParsePrimitive("TRUE"), "TRUE"},
		{String("x"), "x"},
		{Null(), ""},
		{NodeValue(nil), ""},
	}
	for _, tt := range tests {
		if got := tt.v.Text(); got != tt.want {
			t.Errorf("%v.Text() = %q, want %q", tt.v.Kind(), got, tt.want)
		}
	}
}

func BenchmarkParse(b *testing.B) {
	text := strings.Repeat(callsManagerDump, 200)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Parse(text)
	}
}
