package marker

import (
	"github.com/roach88/keepmark/internal/classfile"
	"github.com/roach88/keepmark/internal/usage"
)

// secondary carries what every secondary marker shares: the primary
// visitor it delegates to and the generic-path contract.
type secondary struct {
	cm *ClassUsageMarker
}

func (s secondary) VisitAnyClass(c classfile.Clazz) {
	panic(usage.NewUnresolvedClassVariantError(usage.Describe(c)))
}

// Library classes expose no attributes.
func (s secondary) VisitLibraryClass(*classfile.LibraryClass) {}

// usedOrUnresolved reports whether a class constant's target is used, or
// lies outside both pools.
func (s secondary) usedOrUnresolved(cc *classfile.ClassConstant) bool {
	return cc.ReferencedClass == nil || s.cm.usage.IsUsed(cc.ReferencedClass)
}

// InterfaceUsageMarker keeps the interface list of used classes. Abstract
// classes and interfaces keep every declared interface so their method
// tables stay intact; concrete classes keep the interfaces that are used.
type InterfaceUsageMarker struct {
	secondary
}

// NewInterfaceUsageMarker creates the marker.
func NewInterfaceUsageMarker(cm *ClassUsageMarker) *InterfaceUsageMarker {
	return &InterfaceUsageMarker{secondary{cm}}
}

// VisitProgramClass implements classfile.ClassVisitor.
func (m *InterfaceUsageMarker) VisitProgramClass(c *classfile.ProgramClass) {
	if len(c.Interfaces) == 0 {
		return
	}
	restore := m.cm.usage.Enter(c, c, nil, ReasonImplementedBy)
	defer restore()

	keepAll := c.IsAbstract()
	for _, index := range c.Interfaces {
		cc, ok := m.cm.constant(c, index).(*classfile.ClassConstant)
		if !ok {
			continue
		}
		if keepAll || m.usedOrUnresolved(cc) {
			m.cm.markConstant(c, index)
		}
	}
}
