package output

import (
	"testing"
)

func TestParseRef(t *testing.T) {
	tests := []struct {
		in   string
		want Ref
	}{
		{"temp", Tag("temp")},
		{"humid", Tag("humid")},
		{"co2", Tag("co2")},
		{"p0b8", Coordinate("p0b8")},
		{"p12b3", Coordinate("p12b3")},
		{"page", Tag("page")},
		{"bp1", Tag("bp1")},
	}
	for _, tt := range tests {
		if got := ParseRef(tt.in); got != tt.want {
			t.Fatalf("ParseRef(%q) = %#v; want %#v", tt.in, got, tt.want)
		}
	}
}

func TestCommand(t *testing.T) {
	if got := Command(Tag("temp"), "23.5°C"); got != `#temp.text="23.5°C"` {
		t.Fatalf("tag command: got %q", got)
	}
	if got := Command(ParseRef("p0b8"), "812 ppm"); got != `p0b8.text="812 ppm"` {
		t.Fatalf("coordinate command: got %q", got)
	}
}
