package marker

import "github.com/roach88/keepmark/internal/classfile"

// NestUsageMarker keeps the nest and sealed-hierarchy attributes of used
// classes.
//
// A NestHost is cascaded through the primary visitor, so the host class
// becomes used. NestMembers and PermittedSubclasses entries are walked
// through the attribute's own constant callback and kept only where the
// listed class is used or outside both pools.
type NestUsageMarker struct {
	secondary
}

// NewNestUsageMarker creates the marker.
func NewNestUsageMarker(cm *ClassUsageMarker) *NestUsageMarker {
	return &NestUsageMarker{secondary{cm}}
}

// VisitProgramClass implements classfile.ClassVisitor.
func (m *NestUsageMarker) VisitProgramClass(c *classfile.ProgramClass) {
	for _, a := range c.Attributes {
		switch a := a.(type) {
		case *classfile.NestHostAttribute:
			restore := m.cm.usage.Enter(c, c, nil, ReasonNestHostOf)
			m.cm.markAttributeHeader(c, a)
			m.cm.markConstant(c, a.HostClassIndex)
			restore()
		case *classfile.NestMembersAttribute:
			if len(a.Classes) == 0 {
				continue
			}
			restore := m.cm.usage.Enter(c, c, nil, ReasonReferencedBy)
			m.cm.markAttributeHeader(c, a)
			a.MemberClassConstantsAccept(c, m.markClassIfUsed(c))
			restore()
		case *classfile.PermittedSubclassesAttribute:
			if len(a.Classes) == 0 {
				continue
			}
			restore := m.cm.usage.Enter(c, c, nil, ReasonReferencedBy)
			m.cm.markAttributeHeader(c, a)
			a.PermittedSubclassConstantsAccept(c, m.markClassIfUsed(c))
			restore()
		}
	}
}

func (m *NestUsageMarker) markClassIfUsed(c *classfile.ProgramClass) func(int, *classfile.ClassConstant) {
	return func(index int, cc *classfile.ClassConstant) {
		if m.usedOrUnresolved(cc) {
			m.cm.markConstant(c, index)
		}
	}
}
