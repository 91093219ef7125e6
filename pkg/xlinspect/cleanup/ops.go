// Package cleanup removes external links, styles, drawings, embedded objects
// and pivot caches from OOXML workbooks.
package cleanup

import (
	"fmt"
	"strings"
)

// Op is a set of cleanup operations.
type Op uint8

const (
	// ExternalLinks removes external workbook links and the defined names that use them.
	ExternalLinks Op = 1 << iota
	// Styles resets every cell in the used range to the Normal style.
	Styles
	// Drawings removes drawings, images, charts and comments.
	Drawings
	// PivotCaches removes pivot caches and the pivot tables built on them.
	PivotCaches
	// Objects removes OLE objects and form controls along with everything Drawings removes.
	Objects
)

// Presets.
const (
	Full        = ExternalLinks | Styles | Drawings | PivotCaches
	StylesOnly  = Styles
	ObjectsOnly = Objects
)

var opNames = []struct {
	op   Op
	name string
}{
	{ExternalLinks, "external_links"},
	{Drawings, "drawings"},
	{Objects, "objects"},
	{PivotCaches, "pivot_caches"},
	{Styles, "styles"},
}

// Has reports whether every operation in o is included.
func (op Op) Has(o Op) bool {
	return op&o == o
}

// Names returns the operation names in execution order.
func (op Op) Names() []string {
	var names []string
	for _, n := range opNames {
		if op.Has(n.op) {
			names = append(names, n.name)
		}
	}
	return names
}

func (op Op) String() string {
	if op == 0 {
		return "none"
	}
	return strings.Join(op.Names(), "+")
}

// ParseOps parses a comma separated list of operation or preset names.
func ParseOps(s string) (Op, error) {
	var op Op
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(strings.ToLower(part))
		switch part {
		case "":
			continue
		case "full", "all":
			op |= Full
			continue
		}
		found := false
		for _, n := range opNames {
			if n.name == part {
				op |= n.op
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown cleanup operation %q", part)
		}
	}
	if op == 0 {
		return 0, fmt.Errorf("no cleanup operation selected")
	}
	return op, nil
}
