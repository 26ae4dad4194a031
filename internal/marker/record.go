package marker

import "github.com/roach88/keepmark/internal/classfile"

// RecordComponentUsageMarker keeps the Record attribute of used classes:
// every component with its name and descriptor, and the field backing
// each component, which is marked through the member visitor.
type RecordComponentUsageMarker struct {
	secondary
	members classfile.MemberVisitor
}

// NewRecordComponentUsageMarker creates the marker. Backing fields are
// marked by the primary visitor.
func NewRecordComponentUsageMarker(cm *ClassUsageMarker) *RecordComponentUsageMarker {
	return &RecordComponentUsageMarker{secondary: secondary{cm}, members: cm}
}

// WithMemberVisitor replaces the visitor backing fields are sent to.
func (m *RecordComponentUsageMarker) WithMemberVisitor(v classfile.MemberVisitor) *RecordComponentUsageMarker {
	m.members = v
	return m
}

// VisitProgramClass implements classfile.ClassVisitor.
func (m *RecordComponentUsageMarker) VisitProgramClass(c *classfile.ProgramClass) {
	for _, a := range c.Attributes {
		record, ok := a.(*classfile.RecordAttribute)
		if !ok {
			continue
		}
		restore := m.cm.usage.Enter(c, c, nil, ReasonBacksComponent)
		m.cm.markAttributeHeader(c, record)
		for _, rc := range record.Components {
			m.markComponent(c, rc)
		}
		restore()
	}
}

func (m *RecordComponentUsageMarker) markComponent(c *classfile.ProgramClass, rc *classfile.RecordComponentInfo) {
	if !m.cm.usage.ShouldBeMarkedAsUsed(rc) {
		return
	}
	m.cm.usage.MarkAsUsed(rc)
	m.cm.markConstant(c, rc.NameIndex)
	m.cm.markConstant(c, rc.DescriptorIndex)
	m.cm.markAttributes(c, rc.Attributes)

	if f := c.ProgramField(c.Utf8(rc.NameIndex), c.Utf8(rc.DescriptorIndex)); f != nil {
		classfile.AcceptMember(f, m.members)
	}
}
