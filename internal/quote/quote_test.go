package quote

import "testing"

func TestQuote(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "SchemaVersions", `"SchemaVersions"`},
		{"with space", "My Table", `"My Table"`},
		{"embedded quote", `a"b`, `"a""b"`},
		{"empty", "", `""`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DoubleQuote.Quote(tt.in); got != tt.want {
				t.Errorf("Quote(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestQuote_RoundTrip(t *testing.T) {
	for _, in := range []string{"My Table", `we"ird`, `""`, "PUBLIC"} {
		if got := DoubleQuote.Unquote(DoubleQuote.Quote(in)); got != in {
			t.Errorf("Unquote(Quote(%q)) = %q", in, got)
		}
	}
}

func TestUnquote_NotQuoted(t *testing.T) {
	if got := DoubleQuote.Unquote("plain"); got != "plain" {
		t.Fatalf("Unquote(plain) = %q", got)
	}
	if got := DoubleQuote.Unquote(`"`); got != `"` {
		t.Fatalf("Unquote of lone quote = %q", got)
	}
}

func TestQualified(t *testing.T) {
	if got := DoubleQuote.Qualified("ANALYTICS", "SchemaVersions"); got != `"ANALYTICS"."SchemaVersions"` {
		t.Fatalf("Qualified = %s", got)
	}
	if got := DoubleQuote.Qualified("", "SchemaVersions"); got != `"SchemaVersions"` {
		t.Fatalf("Qualified without schema = %s", got)
	}
	if got := DoubleQuote.Qualified("  ", "t"); got != `"t"` {
		t.Fatalf("Qualified with blank schema = %s", got)
	}
}
