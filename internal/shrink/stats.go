package shrink

import (
	"time"

	"github.com/roach88/keepmark/internal/classfile"
	"github.com/roach88/keepmark/internal/usage"
)

// Stats summarizes a marking run. Class and member counts cover the
// program pool; library classes are counted apart.
type Stats struct {
	Rounds int `json:"rounds" yaml:"rounds"`
	Passes int `json:"passes" yaml:"passes"`
	Seeds  int `json:"seeds" yaml:"seeds"`

	Classes             int `json:"classes" yaml:"classes"`
	UsedClasses         int `json:"used_classes" yaml:"used_classes"`
	PossiblyUsedClasses int `json:"possibly_used_classes" yaml:"possibly_used_classes"`
	UsedLibraryClasses  int `json:"used_library_classes" yaml:"used_library_classes"`

	Members             int `json:"members" yaml:"members"`
	UsedMembers         int `json:"used_members" yaml:"used_members"`
	PossiblyUsedMembers int `json:"possibly_used_members" yaml:"possibly_used_members"`

	Resources     int `json:"resources" yaml:"resources"`
	UsedResources int `json:"used_resources" yaml:"used_resources"`

	UsedTransitions int           `json:"used_transitions" yaml:"used_transitions"`
	Duration        time.Duration `json:"duration_ns" yaml:"duration_ns"`
}

func (s *Stats) collect(pools *classfile.Pools, m usage.Marker) {
	for _, c := range pools.Program.Classes() {
		pc, ok := c.(*classfile.ProgramClass)
		if !ok {
			continue
		}
		s.Classes++
		countState(m, pc, &s.UsedClasses, &s.PossiblyUsedClasses)
		for _, f := range pc.Fields {
			s.Members++
			countState(m, f, &s.UsedMembers, &s.PossiblyUsedMembers)
		}
		for _, meth := range pc.Methods {
			s.Members++
			countState(m, meth, &s.UsedMembers, &s.PossiblyUsedMembers)
		}
	}
	for _, c := range pools.Library.Classes() {
		if m.IsUsed(c) {
			s.UsedLibraryClasses++
		}
	}
	for _, f := range pools.Resources.Files() {
		s.Resources++
		if m.IsUsed(f) {
			s.UsedResources++
		}
	}
	s.UsedTransitions = m.UsedTransitions()
}

func countState(m usage.Marker, p classfile.Processable, used, possibly *int) {
	switch usage.StateOf(m, p) {
	case usage.Used:
		*used++
	case usage.PossiblyUsed:
		*possibly++
	}
}

// usedClassCount counts used classes across the program and library
// pools.
func usedClassCount(pools *classfile.Pools, m usage.Marker) int {
	n := 0
	for _, c := range pools.Program.Classes() {
		if m.IsUsed(c) {
			n++
		}
	}
	for _, c := range pools.Library.Classes() {
		if m.IsUsed(c) {
			n++
		}
	}
	return n
}
