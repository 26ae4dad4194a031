package marker

import "github.com/roach88/keepmark/internal/classfile"

// InnerUsageMarker keeps the InnerClasses attribute of used classes with
// every entry, its class constants and its simple name. The constants are
// marked at constant level: an entry does not make the inner or outer
// class used. An attribute without entries stays unmarked.
type InnerUsageMarker struct {
	secondary
}

// NewInnerUsageMarker creates the marker.
func NewInnerUsageMarker(cm *ClassUsageMarker) *InnerUsageMarker {
	return &InnerUsageMarker{secondary{cm}}
}

// VisitProgramClass implements classfile.ClassVisitor.
func (m *InnerUsageMarker) VisitProgramClass(c *classfile.ProgramClass) {
	for _, a := range c.Attributes {
		inner, ok := a.(*classfile.InnerClassesAttribute)
		if !ok || len(inner.Classes) == 0 {
			continue
		}
		restore := m.cm.usage.Enter(c, c, nil, ReasonReferencedBy)
		m.cm.markAttributeHeader(c, inner)
		for _, info := range inner.Classes {
			m.markEntry(c, info)
		}
		restore()
	}
}

func (m *InnerUsageMarker) markEntry(c *classfile.ProgramClass, info *classfile.InnerClassesInfo) {
	if !m.cm.usage.ShouldBeMarkedAsUsed(info) {
		return
	}
	m.cm.usage.MarkAsUsed(info)
	m.cm.markClassConstant(c, info.InnerClassIndex)
	m.cm.markClassConstant(c, info.OuterClassIndex)
	m.cm.markConstant(c, info.InnerNameIndex)
}
