package usage

import "github.com/roach88/keepmark/internal/classfile"

type sentinel struct{ name string }

// The simple marks. Identity is what matters; the names help debugging.
var (
	possiblyUsed = &sentinel{name: "possibly used"}
	used         = &sentinel{name: "used"}
)

// SimpleMarker marks nodes with shared sentinel values. It records no
// explanation, so Enter is a no-op.
type SimpleMarker struct {
	transitions int
}

var _ Marker = (*SimpleMarker)(nil)

// NewSimpleMarker creates a marker for one run.
func NewSimpleMarker() *SimpleMarker {
	return &SimpleMarker{}
}

func (s *SimpleMarker) mark(p classfile.Processable) *sentinel {
	switch v := p.ProcessingInfo().(type) {
	case nil:
		return nil
	case *sentinel:
		return v
	default:
		panic(NewMixedMarksError(Describe(p), v))
	}
}

// IsUsed implements Marker.
func (s *SimpleMarker) IsUsed(p classfile.Processable) bool {
	return s.mark(p) == used
}

// IsPossiblyUsed implements Marker.
func (s *SimpleMarker) IsPossiblyUsed(p classfile.Processable) bool {
	return s.mark(p) != nil
}

// MarkAsUsed implements Marker.
func (s *SimpleMarker) MarkAsUsed(p classfile.Processable) {
	if s.mark(p) == used {
		return
	}
	p.SetProcessingInfo(used)
	s.transitions++
}

// MarkAsPossiblyUsed implements Marker.
func (s *SimpleMarker) MarkAsPossiblyUsed(p classfile.Processable) {
	if s.mark(p) == used {
		panic(NewDowngradeError(Describe(p)))
	}
	p.SetProcessingInfo(possiblyUsed)
}

// MarkAsUnused implements Marker.
func (s *SimpleMarker) MarkAsUnused(p classfile.Processable) {
	if s.mark(p) == used {
		return
	}
	p.SetProcessingInfo(nil)
}

// ShouldBeMarkedAsUsed implements Marker.
func (s *SimpleMarker) ShouldBeMarkedAsUsed(p classfile.Processable) bool {
	return s.mark(p) != used
}

// ShouldBeMarkedAsPossiblyUsed implements Marker.
func (s *SimpleMarker) ShouldBeMarkedAsPossiblyUsed(p classfile.Processable) bool {
	return s.mark(p) == nil
}

// Enter implements Marker.
func (s *SimpleMarker) Enter(classfile.Processable, classfile.Clazz, classfile.Member, string) func() {
	return func() {}
}

// UsedTransitions implements Marker.
func (s *SimpleMarker) UsedTransitions() int {
	return s.transitions
}
