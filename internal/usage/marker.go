package usage

import "github.com/roach88/keepmark/internal/classfile"

// RootReason is the reason recorded on marks of seeded nodes.
const RootReason = "is kept by a directive in the configuration"

// Marker reads and writes usage marks. SimpleMarker and ShortestMarker
// implement it; exactly one of them may mark a given graph in a run.
//
// A node is in one of three states: unmarked, possibly used (tentative,
// uncertain) or used (certain). Marks only ever move towards used.
type Marker interface {
	// IsUsed reports whether p carries a certain mark.
	IsUsed(p classfile.Processable) bool
	// IsPossiblyUsed reports whether p carries any mark.
	IsPossiblyUsed(p classfile.Processable) bool

	// MarkAsUsed gives p a certain mark.
	MarkAsUsed(p classfile.Processable)
	// MarkAsPossiblyUsed gives p an uncertain mark. It panics with
	// ErrCodeMarkDowngrade if p is already used.
	MarkAsPossiblyUsed(p classfile.Processable)
	// MarkAsUnused clears an uncertain mark. A certain mark is kept.
	MarkAsUnused(p classfile.Processable)

	// ShouldBeMarkedAsUsed reports whether MarkAsUsed would change p's
	// mark. Visitors cascade into a node's body only when it does.
	ShouldBeMarkedAsUsed(p classfile.Processable) bool
	// ShouldBeMarkedAsPossiblyUsed reports whether MarkAsPossiblyUsed
	// would change p's mark.
	ShouldBeMarkedAsPossiblyUsed(p classfile.Processable) bool

	// Enter makes p's mark the cause of every mark written until the
	// returned function is called. clazz and member identify the causing
	// node for diagnostics. A nil p starts a new root chain.
	Enter(p classfile.Processable, clazz classfile.Clazz, member classfile.Member, reason string) (restore func())

	// UsedTransitions returns how many nodes have become used so far.
	UsedTransitions() int
}

// State is the observable usage state of a node.
type State int

const (
	Unused State = iota
	PossiblyUsed
	Used
)

func (s State) String() string {
	switch s {
	case PossiblyUsed:
		return "possibly_used"
	case Used:
		return "used"
	default:
		return "unused"
	}
}

// StateOf returns the state of p under m.
func StateOf(m Marker, p classfile.Processable) State {
	switch {
	case m.IsUsed(p):
		return Used
	case m.IsPossiblyUsed(p):
		return PossiblyUsed
	default:
		return Unused
	}
}
