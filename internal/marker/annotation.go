package marker

import "github.com/roach88/keepmark/internal/classfile"

// AnnotationUsageMarker keeps annotations on used classes, used members
// and used record components whose annotation type is used or outside
// both pools. A kept annotation keeps its container attribute, its type
// constant and its element values.
type AnnotationUsageMarker struct {
	secondary
}

// NewAnnotationUsageMarker creates the marker.
func NewAnnotationUsageMarker(cm *ClassUsageMarker) *AnnotationUsageMarker {
	return &AnnotationUsageMarker{secondary{cm}}
}

// VisitProgramClass implements classfile.ClassVisitor.
func (m *AnnotationUsageMarker) VisitProgramClass(c *classfile.ProgramClass) {
	m.markAnnotations(c, c, nil, c.Attributes)

	for _, f := range c.Fields {
		if m.cm.usage.IsUsed(f) {
			m.markAnnotations(c, f, f, f.Attributes)
		}
	}
	for _, meth := range c.Methods {
		if m.cm.usage.IsUsed(meth) {
			m.markAnnotations(c, meth, meth, meth.Attributes)
		}
	}
	for _, a := range c.Attributes {
		if record, ok := a.(*classfile.RecordAttribute); ok {
			for _, rc := range record.Components {
				if m.cm.usage.IsUsed(rc) {
					m.markAnnotations(c, rc, nil, rc.Attributes)
				}
			}
		}
	}
}

func (m *AnnotationUsageMarker) markAnnotations(c *classfile.ProgramClass, owner classfile.Processable, member classfile.Member, attrs []classfile.Attribute) {
	for _, a := range attrs {
		container, ok := a.(*classfile.AnnotationsAttribute)
		if !ok {
			continue
		}
		restore := m.cm.usage.Enter(owner, c, member, ReasonAnnotates)
		for _, ann := range container.Annotations {
			if ann.ReferencedClass != nil && !m.cm.usage.IsUsed(ann.ReferencedClass) {
				continue
			}
			m.cm.markAttributeHeader(c, container)
			m.cm.markAnnotation(c, ann)
		}
		restore()
	}
}
