package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/keepmark/internal/classfile"
	"github.com/roach88/keepmark/internal/report"
	"github.com/roach88/keepmark/internal/shrink"
	"github.com/roach88/keepmark/internal/usage"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	return buf.String()
}

// observation is what a run left behind for the assertions to inspect.
type observation struct {
	marker    usage.Marker
	nodes     map[string]classfile.Processable
	resources *classfile.ResourceFilePool
	maxHops   int
	stats     *shrink.Stats
	runErr    error
}

// evaluate checks every assertion and returns one message per failure. A
// failed run is itself a failure unless an error assertion expects it.
func (o *observation) evaluate(assertions []Assertion) []string {
	var errs []string
	for _, a := range assertions {
		var err error
		switch a.Type {
		case AssertState:
			err = o.assertState(a)
		case AssertCause:
			err = o.assertCause(a)
		case AssertStat:
			err = o.assertStat(a)
		case AssertError:
			err = o.assertError(a)
		case AssertKotlinFacades:
			err = o.assertKotlinFacades(a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	if o.runErr != nil && !expectsError(assertions) {
		errs = append(errs, fmt.Sprintf("run failed: %v", o.runErr))
	}
	return errs
}

func expectsError(assertions []Assertion) bool {
	for _, a := range assertions {
		if a.Type == AssertError {
			return true
		}
	}
	return false
}

func (o *observation) lookup(node string) (classfile.Processable, error) {
	p, ok := o.nodes[node]
	if !ok {
		return nil, fmt.Errorf("node %q is not in the program", node)
	}
	return p, nil
}

// assertState checks that every listed node is in the expected state.
func (o *observation) assertState(a Assertion) error {
	var wrong []string
	for _, node := range a.Nodes {
		p, err := o.lookup(node)
		if err != nil {
			return err
		}
		if got := usage.StateOf(o.marker, p).String(); got != a.State {
			wrong = append(wrong, fmt.Sprintf("%s is %s", node, got))
		}
	}
	if len(wrong) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertState,
		Expected: fmt.Sprintf("%s: %s", a.State, strings.Join(a.Nodes, ", ")),
		Actual:   strings.Join(wrong, "; "),
	}
}

// assertCause checks the first hop of a node's explanation.
func (o *observation) assertCause(a Assertion) error {
	p, err := o.lookup(a.Node)
	if err != nil {
		return err
	}
	sm, ok := o.marker.(*usage.ShortestMarker)
	if !ok {
		return fmt.Errorf("cause of %s: marker keeps no explanations", a.Node)
	}
	hops, err := report.Explain(sm, p, o.maxHops)
	if err != nil {
		return err
	}
	if len(hops) == 0 {
		return &AssertionError{Type: AssertCause, Expected: describeCause(a), Actual: a.Node + " is not marked"}
	}

	h := hops[0]
	if (a.Reason == "" || a.Reason == h.Reason) &&
		(a.Class == "" || a.Class == h.Class) &&
		(a.Member == "" || a.Member == h.Member) &&
		(a.Depth == nil || *a.Depth == h.Depth) &&
		(a.Certain == nil || *a.Certain == h.Certain) {
		return nil
	}
	return &AssertionError{Type: AssertCause, Expected: describeCause(a), Actual: h.String()}
}

func describeCause(a Assertion) string {
	var parts []string
	if a.Certain != nil {
		parts = append(parts, fmt.Sprintf("certain=%t", *a.Certain))
	}
	if a.Depth != nil {
		parts = append(parts, fmt.Sprintf("depth=%d", *a.Depth))
	}
	for _, kv := range [][2]string{{"reason", a.Reason}, {"class", a.Class}, {"member", a.Member}} {
		if kv[1] != "" {
			parts = append(parts, kv[0]+"="+kv[1])
		}
	}
	return a.Node + " " + strings.Join(parts, ", ")
}

// assertStat checks one run counter.
func (o *observation) assertStat(a Assertion) error {
	if o.stats == nil {
		return fmt.Errorf("stat %s: run produced no stats", a.Stat)
	}
	got, ok := statValue(o.stats, a.Stat)
	if !ok {
		return fmt.Errorf("unknown stat %q", a.Stat)
	}
	if got != a.Count {
		return &AssertionError{
			Type:     AssertStat,
			Expected: fmt.Sprintf("%s = %d", a.Stat, a.Count),
			Actual:   fmt.Sprintf("%s = %d", a.Stat, got),
		}
	}
	return nil
}

// assertError checks that the run failed with a matching message.
func (o *observation) assertError(a Assertion) error {
	if o.runErr == nil {
		return &AssertionError{Type: AssertError, Expected: fmt.Sprintf("error containing %q", a.Contains), Actual: "run succeeded"}
	}
	if !strings.Contains(o.runErr.Error(), a.Contains) {
		return &AssertionError{Type: AssertError, Expected: fmt.Sprintf("error containing %q", a.Contains), Actual: o.runErr.Error()}
	}
	return nil
}

// assertKotlinFacades checks the file facades left in one package of a
// Kotlin module after pruning.
func (o *observation) assertKotlinFacades(a Assertion) error {
	f := o.resources.Get(a.Resource)
	if f == nil || f.KotlinModule == nil {
		return fmt.Errorf("resource %q has no Kotlin module", a.Resource)
	}
	for _, pkg := range f.KotlinModule.Packages {
		if pkg.FqName != a.Package {
			continue
		}
		if slices.Equal(pkg.FileFacadeNames, a.Facades) && len(pkg.ReferencedFileFacades) == len(a.Facades) {
			return nil
		}
		return &AssertionError{
			Type:     AssertKotlinFacades,
			Expected: fmt.Sprintf("%s facades %v", a.Package, a.Facades),
			Actual:   fmt.Sprintf("%s facades %v (%d referenced)", a.Package, pkg.FileFacadeNames, len(pkg.ReferencedFileFacades)),
		}
	}
	return fmt.Errorf("no package %q in the Kotlin module of %s", a.Package, a.Resource)
}

// statValue returns the counter of s named by its YAML key. A nil s
// only checks the name.
func statValue(s *shrink.Stats, name string) (int, bool) {
	if s == nil {
		s = &shrink.Stats{}
	}
	switch name {
	case "rounds":
		return s.Rounds, true
	case "passes":
		return s.Passes, true
	case "seeds":
		return s.Seeds, true
	case "classes":
		return s.Classes, true
	case "used_classes":
		return s.UsedClasses, true
	case "possibly_used_classes":
		return s.PossiblyUsedClasses, true
	case "used_library_classes":
		return s.UsedLibraryClasses, true
	case "members":
		return s.Members, true
	case "used_members":
		return s.UsedMembers, true
	case "possibly_used_members":
		return s.PossiblyUsedMembers, true
	case "resources":
		return s.Resources, true
	case "used_resources":
		return s.UsedResources, true
	case "used_transitions":
		return s.UsedTransitions, true
	default:
		return 0, false
	}
}
