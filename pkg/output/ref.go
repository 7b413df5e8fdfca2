package output

import (
	"fmt"
	"strings"
)

// Ref addresses one display object. It is either a Tag or a Coordinate.
type Ref interface {
	// Selector renders the reference the way the display's command line
	// expects it.
	Selector() string
	isRef()
}

// Tag is a bare symbolic object tag, addressed as "#tag".
type Tag string

func (t Tag) Selector() string { return "#" + string(t) }
func (Tag) isRef()             {}

// Coordinate is a native page/object address such as "p0b8".
type Coordinate string

func (c Coordinate) Selector() string { return string(c) }
func (Coordinate) isRef()             {}

// ParseRef resolves the addressing form of s: strings starting with 'p' and
// containing a 'b' are coordinates, anything else is a tag.
func ParseRef(s string) Ref {
	if strings.HasPrefix(s, "p") && strings.Contains(s, "b") {
		return Coordinate(s)
	}
	return Tag(s)
}

// Command renders the display command line that sets the text of ref.
func Command(ref Ref, text string) string {
	return fmt.Sprintf("%s.text=\"%s\"", ref.Selector(), text)
}
