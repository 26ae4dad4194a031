package usage

import (
	"fmt"

	"github.com/roach88/keepmark/internal/classfile"
)

// ShortestUsageMark is a usage mark that remembers why its node is used.
// Marks are immutable once written and may be shared by many nodes: all
// nodes reached from the same cause under the same reason carry the same
// mark.
type ShortestUsageMark struct {
	reason  string
	certain bool
	depth   int
	cause   *ShortestUsageMark
	clazz   classfile.Clazz
	member  classfile.Member
}

// NewRootMark creates a certain mark of depth 0 without a cause.
func NewRootMark(reason string) *ShortestUsageMark {
	return &ShortestUsageMark{reason: reason, certain: true}
}

// NewMark creates a certain mark caused by cause, one hop deeper. A nil
// cause yields depth 1.
func NewMark(cause *ShortestUsageMark, reason string, clazz classfile.Clazz, member classfile.Member) *ShortestUsageMark {
	depth := 1
	if cause != nil {
		depth = cause.depth + 1
	}
	return &ShortestUsageMark{
		reason:  reason,
		certain: true,
		depth:   depth,
		cause:   cause,
		clazz:   clazz,
		member:  member,
	}
}

// Uncertain returns a copy of m that marks a node as possibly used.
func (m *ShortestUsageMark) Uncertain() *ShortestUsageMark {
	u := *m
	u.certain = false
	return &u
}

// Reason returns the reason text, e.g. "is invoked by".
func (m *ShortestUsageMark) Reason() string { return m.reason }

// Certain reports whether the mark is a definite cause.
func (m *ShortestUsageMark) Certain() bool { return m.certain }

// Depth returns the number of hops to the root.
func (m *ShortestUsageMark) Depth() int { return m.depth }

// Cause returns the previous mark in the chain, or nil for a root.
func (m *ShortestUsageMark) Cause() *ShortestUsageMark { return m.cause }

// Class returns the class that caused the mark, or nil.
func (m *ShortestUsageMark) Class() classfile.Clazz { return m.clazz }

// Member returns the member that caused the mark, or nil.
func (m *ShortestUsageMark) Member() classfile.Member { return m.member }

// IsShorter reports whether m is preferred over other: strictly less
// deep, or equally deep and certain where other is not. A nil other is
// always beaten.
func (m *ShortestUsageMark) IsShorter(other *ShortestUsageMark) bool {
	if other == nil {
		return true
	}
	if m.depth != other.depth {
		return m.depth < other.depth
	}
	return m.certain && !other.certain
}

// String renders the mark as one explanation hop.
func (m *ShortestUsageMark) String() string {
	return fmt.Sprintf("certain=%t, depth=%d: %s(%s): %s",
		m.certain, m.depth, m.reason, ClassString(m.clazz), memberOrNone(m.member))
}

func memberOrNone(member classfile.Member) string {
	if member == nil {
		return "none"
	}
	return classfile.MemberString(member)
}

// ShortestMarker marks nodes with ShortestUsageMark values, keeping for
// each node the shortest explanation seen so far.
//
// A node's mark is replaced when the incoming mark is certain and the
// existing one is not, or when both have the same certainty and the
// incoming one is strictly less deep. Ties keep the first writer.
type ShortestMarker struct {
	current     *ShortestUsageMark
	uncertain   *ShortestUsageMark
	transitions int
}

var _ Marker = (*ShortestMarker)(nil)

// NewShortestMarker creates a marker for one run. Until Enter is called,
// marks are written as roots with RootReason.
func NewShortestMarker() *ShortestMarker {
	return &ShortestMarker{current: NewRootMark(RootReason)}
}

// GetShortestMark returns the mark of p, or nil if p is unmarked.
func (s *ShortestMarker) GetShortestMark(p classfile.Processable) *ShortestUsageMark {
	switch v := p.ProcessingInfo().(type) {
	case nil:
		return nil
	case *ShortestUsageMark:
		return v
	default:
		panic(NewMixedMarksError(Describe(p), v))
	}
}

// IsUsed implements Marker.
func (s *ShortestMarker) IsUsed(p classfile.Processable) bool {
	m := s.GetShortestMark(p)
	return m != nil && m.certain
}

// IsPossiblyUsed implements Marker.
func (s *ShortestMarker) IsPossiblyUsed(p classfile.Processable) bool {
	return s.GetShortestMark(p) != nil
}

// MarkAsUsed implements Marker. The current mark is written only if it
// beats the existing one.
func (s *ShortestMarker) MarkAsUsed(p classfile.Processable) {
	existing := s.GetShortestMark(p)
	if !s.replaces(s.current, existing) {
		return
	}
	if existing == nil || !existing.certain {
		s.transitions++
	}
	p.SetProcessingInfo(s.current)
}

// MarkAsPossiblyUsed implements Marker.
func (s *ShortestMarker) MarkAsPossiblyUsed(p classfile.Processable) {
	existing := s.GetShortestMark(p)
	if existing != nil && existing.certain {
		panic(NewDowngradeError(Describe(p)))
	}
	if s.replaces(s.uncertainMark(), existing) {
		p.SetProcessingInfo(s.uncertainMark())
	}
}

// MarkAsUnused implements Marker.
func (s *ShortestMarker) MarkAsUnused(p classfile.Processable) {
	if s.IsUsed(p) {
		return
	}
	p.SetProcessingInfo(nil)
}

// ShouldBeMarkedAsUsed implements Marker. It answers true again for a used
// node when the current mark is strictly shorter, so the caller re-descends
// and shortens the marks below it.
func (s *ShortestMarker) ShouldBeMarkedAsUsed(p classfile.Processable) bool {
	return s.replaces(s.current, s.GetShortestMark(p))
}

// ShouldBeMarkedAsPossiblyUsed implements Marker.
func (s *ShortestMarker) ShouldBeMarkedAsPossiblyUsed(p classfile.Processable) bool {
	existing := s.GetShortestMark(p)
	if existing != nil && existing.certain {
		return false
	}
	return s.replaces(s.uncertainMark(), existing)
}

func (s *ShortestMarker) replaces(incoming, existing *ShortestUsageMark) bool {
	switch {
	case existing == nil:
		return true
	case incoming.certain != existing.certain:
		return incoming.certain
	default:
		return incoming.depth < existing.depth
	}
}

func (s *ShortestMarker) uncertainMark() *ShortestUsageMark {
	if s.uncertain == nil {
		s.uncertain = s.current.Uncertain()
	}
	return s.uncertain
}

// Enter implements Marker.
func (s *ShortestMarker) Enter(p classfile.Processable, clazz classfile.Clazz, member classfile.Member, reason string) func() {
	prevCurrent, prevUncertain := s.current, s.uncertain

	if p == nil {
		s.current = NewRootMark(reason)
	} else {
		s.current = NewMark(s.GetShortestMark(p), reason, clazz, member)
	}
	s.uncertain = nil

	return func() {
		s.current, s.uncertain = prevCurrent, prevUncertain
	}
}

// UsedTransitions implements Marker.
func (s *ShortestMarker) UsedTransitions() int {
	return s.transitions
}
