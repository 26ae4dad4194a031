package marker

import (
	"github.com/roach88/keepmark/internal/classfile"
	"github.com/roach88/keepmark/internal/usage"
)

// constant returns the entry at index. Index 0 and below are the absent
// sentinel and yield nil; an index past the pool is a contract violation.
func (cm *ClassUsageMarker) constant(c *classfile.ProgramClass, index int) classfile.Constant {
	if index <= 0 {
		return nil
	}
	if index >= len(c.ConstantPool) {
		panic(usage.NewConstantIndexError(usage.Describe(c), index, len(c.ConstantPool)))
	}
	return c.ConstantPool[index]
}

// markConstant marks the entry at index used and cascades into what it
// references.
func (cm *ClassUsageMarker) markConstant(c *classfile.ProgramClass, index int) {
	constant := cm.constant(c, index)
	if constant == nil || !cm.usage.ShouldBeMarkedAsUsed(constant) {
		return
	}
	cm.usage.MarkAsUsed(constant)

	switch k := constant.(type) {
	case *classfile.Utf8Constant, *classfile.IntegerConstant, *classfile.LongConstant,
		*classfile.FloatConstant, *classfile.DoubleConstant:
		// Leaves.
	case *classfile.StringConstant:
		cm.markConstant(c, k.StringIndex)
		if k.ReferencedClass != nil {
			classfile.Accept(k.ReferencedClass, cm)
		}
		if k.ReferencedMember != nil {
			classfile.AcceptMember(k.ReferencedMember, cm)
		}
		cm.MarkResource(k.ReferencedResource)
	case *classfile.ClassConstant:
		cm.markConstant(c, k.NameIndex)
		if k.ReferencedClass != nil {
			classfile.Accept(k.ReferencedClass, cm)
		}
	case *classfile.NameAndTypeConstant:
		cm.markConstant(c, k.NameIndex)
		cm.markConstant(c, k.DescriptorIndex)
	case *classfile.RefConstant:
		cm.markConstant(c, k.ClassIndex)
		cm.markConstant(c, k.NameAndTypeIndex)
		if k.ReferencedMember != nil {
			classfile.AcceptMember(k.ReferencedMember, cm)
		}
	case *classfile.MethodHandleConstant:
		cm.markConstant(c, k.ReferenceIndex)
	case *classfile.MethodTypeConstant:
		cm.markConstant(c, k.DescriptorIndex)
	case *classfile.DynamicConstant:
		cm.markConstant(c, k.NameAndTypeIndex)
		cm.markBootstrapMethod(c, k.BootstrapMethodIndex)
	}
}

// markClassConstant marks a class constant and its name without visiting
// the class it references.
func (cm *ClassUsageMarker) markClassConstant(c *classfile.ProgramClass, index int) {
	cc, ok := cm.constant(c, index).(*classfile.ClassConstant)
	if !ok || !cm.usage.ShouldBeMarkedAsUsed(cc) {
		return
	}
	cm.usage.MarkAsUsed(cc)
	cm.markConstant(c, cc.NameIndex)
}

// markBootstrapMethod marks one entry of the BootstrapMethods attribute,
// and the attribute itself.
func (cm *ClassUsageMarker) markBootstrapMethod(c *classfile.ProgramClass, index int) {
	bm := c.BootstrapMethods()
	if bm == nil || index < 0 || index >= len(bm.Methods) {
		return
	}
	cm.markAttributeHeader(c, bm)

	entry := bm.Methods[index]
	if !cm.usage.ShouldBeMarkedAsUsed(entry) {
		return
	}
	cm.usage.MarkAsUsed(entry)
	cm.markConstant(c, entry.MethodHandleIndex)
	for _, arg := range entry.Arguments {
		cm.markConstant(c, arg)
	}
}

// =============================================================================
// Attributes
// =============================================================================

// primaryAttribute reports whether the primary visitor marks a kind of
// attribute as part of its owner's body. Other kinds belong to the
// secondary markers or are marked on demand.
func primaryAttribute(a classfile.Attribute) bool {
	switch a.(type) {
	case *classfile.CodeAttribute, *classfile.ConstantValueAttribute, *classfile.ExceptionsAttribute,
		*classfile.SignatureAttribute, *classfile.SourceFileAttribute, *classfile.EnclosingMethodAttribute,
		*classfile.AnnotationDefaultAttribute:
		return true
	default:
		return false
	}
}

func (cm *ClassUsageMarker) markAttributes(c *classfile.ProgramClass, attrs []classfile.Attribute) {
	for _, a := range attrs {
		if primaryAttribute(a) {
			cm.markAttribute(c, a)
		}
	}
}

// markAttributeHeader marks an attribute and its name constant. It
// reports whether the mark changed.
func (cm *ClassUsageMarker) markAttributeHeader(c *classfile.ProgramClass, a classfile.Attribute) bool {
	if !cm.usage.ShouldBeMarkedAsUsed(a) {
		return false
	}
	cm.usage.MarkAsUsed(a)
	cm.markConstant(c, a.AttributeNameIndex())
	return true
}

// markAttribute marks an attribute and its content.
func (cm *ClassUsageMarker) markAttribute(c *classfile.ProgramClass, a classfile.Attribute) {
	if !cm.markAttributeHeader(c, a) {
		return
	}
	switch a := a.(type) {
	case *classfile.CodeAttribute:
		cm.markCode(c, a)
	case *classfile.ConstantValueAttribute:
		cm.markConstant(c, a.ConstantValueIndex)
	case *classfile.ExceptionsAttribute:
		for _, index := range a.ExceptionIndices {
			cm.markConstant(c, index)
		}
	case *classfile.SignatureAttribute:
		cm.markConstant(c, a.SignatureIndex)
	case *classfile.SourceFileAttribute:
		cm.markConstant(c, a.SourceFileIndex)
	case *classfile.EnclosingMethodAttribute:
		cm.markConstant(c, a.ClassIndex)
		cm.markConstant(c, a.MethodIndex)
	case *classfile.AnnotationDefaultAttribute:
		cm.markElementValue(c, a.DefaultValue)
	}
}

func (cm *ClassUsageMarker) markCode(c *classfile.ProgramClass, code *classfile.CodeAttribute) {
	for _, index := range code.ConstantRefs {
		cm.markConstant(c, index)
	}
	for _, e := range code.ExceptionTable {
		cm.markConstant(c, e.CatchType)
	}
	cm.markAttributes(c, code.Attributes)
}

// =============================================================================
// Annotations
// =============================================================================

func (cm *ClassUsageMarker) markAnnotation(c *classfile.ProgramClass, ann *classfile.Annotation) {
	if !cm.usage.ShouldBeMarkedAsUsed(ann) {
		return
	}
	cm.usage.MarkAsUsed(ann)
	cm.markConstant(c, ann.TypeIndex)
	for _, ev := range ann.ElementValues {
		cm.markElementValue(c, ev)
	}
}

func (cm *ClassUsageMarker) markElementValue(c *classfile.ProgramClass, ev classfile.ElementValue) {
	if ev == nil {
		return
	}
	cm.markConstant(c, ev.ElementName())

	switch v := ev.(type) {
	case *classfile.ConstantElementValue:
		cm.markConstant(c, v.ConstantValueIndex)
	case *classfile.EnumConstantElementValue:
		cm.markConstant(c, v.TypeNameIndex)
		cm.markConstant(c, v.ConstantNameIndex)
		if v.ReferencedClass != nil {
			classfile.Accept(v.ReferencedClass, cm)
		}
	case *classfile.ClassElementValue:
		cm.markConstant(c, v.ClassInfoIndex)
		if v.ReferencedClass != nil {
			classfile.Accept(v.ReferencedClass, cm)
		}
	case *classfile.AnnotationElementValue:
		if v.Annotation != nil {
			cm.markAnnotation(c, v.Annotation)
		}
	case *classfile.ArrayElementValue:
		for _, nested := range v.Values {
			cm.markElementValue(c, nested)
		}
	}
}
