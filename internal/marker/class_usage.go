package marker

import (
	"github.com/roach88/keepmark/internal/classfile"
	"github.com/roach88/keepmark/internal/usage"
)

// Reasons recorded on explanation marks.
const (
	ReasonReferencedBy   = "is referenced by"
	ReasonInvokedBy      = "is invoked by"
	ReasonExtendedBy     = "is extended by"
	ReasonImplementedBy  = "is implemented by"
	ReasonOverrides      = "overrides or implements"
	ReasonDeclaredBy     = "is declared by"
	ReasonInitializes    = "is the static initializer of"
	ReasonNestHostOf     = "is the nest host of"
	ReasonBacksComponent = "backs a record component of"
	ReasonAnnotates      = "annotates"
)

// ClassUsageMarker is the primary reachability visitor. Visiting a class
// marks it used and cascades into everything it structurally depends on;
// visiting a member marks it used if its class is, possibly used
// otherwise.
//
// Overridable methods follow a two-tier rule. A method that overrides a
// used supertype method is used. An abstract method, or one that
// overrides a supertype method not yet known to be used, is possibly
// used until a call site or the hierarchy certifies it.
type ClassUsageMarker struct {
	usage  usage.Marker
	policy Policy
}

var (
	_ classfile.ClassVisitor  = (*ClassUsageMarker)(nil)
	_ classfile.MemberVisitor = (*ClassUsageMarker)(nil)
)

// NewClassUsageMarker creates a primary visitor writing marks through m.
func NewClassUsageMarker(m usage.Marker, policy Policy) *ClassUsageMarker {
	return &ClassUsageMarker{usage: m, policy: policy}
}

// Usage returns the mark representation in use.
func (cm *ClassUsageMarker) Usage() usage.Marker { return cm.usage }

// Policy returns the promotion policy.
func (cm *ClassUsageMarker) Policy() Policy { return cm.policy }

// =============================================================================
// Classes
// =============================================================================

// VisitAnyClass panics: every class must be resolved to a program or
// library class before it reaches the marker.
func (cm *ClassUsageMarker) VisitAnyClass(c classfile.Clazz) {
	panic(usage.NewUnresolvedClassVariantError(usage.Describe(c)))
}

// VisitProgramClass marks c used and cascades into its body.
func (cm *ClassUsageMarker) VisitProgramClass(c *classfile.ProgramClass) {
	if !cm.usage.ShouldBeMarkedAsUsed(c) {
		return
	}
	cm.usage.MarkAsUsed(c)
	cm.markProgramClassBody(c)
}

func (cm *ClassUsageMarker) markProgramClassBody(c *classfile.ProgramClass) {
	restore := cm.usage.Enter(c, c, nil, ReasonReferencedBy)
	cm.markConstant(c, c.ThisClass)
	restore()

	restore = cm.usage.Enter(c, c, nil, ReasonExtendedBy)
	cm.markConstant(c, c.SuperClass)
	restore()

	restore = cm.usage.Enter(c, c, nil, ReasonImplementedBy)
	for _, index := range c.Interfaces {
		cc, ok := cm.constant(c, index).(*classfile.ClassConstant)
		if !ok {
			continue
		}
		// The constant stays tentative; the interface marker decides.
		if cm.usage.ShouldBeMarkedAsPossiblyUsed(cc) {
			cm.usage.MarkAsPossiblyUsed(cc)
		}
		if cc.ReferencedClass != nil {
			classfile.Accept(cc.ReferencedClass, cm)
		}
	}
	restore()

	if clinit := c.ProgramMethod(classfile.MethodNameClinit, classfile.MethodTypeClinit); clinit != nil && !isEmptyMethod(clinit) {
		restore = cm.usage.Enter(c, c, nil, ReasonInitializes)
		cm.VisitProgramMethod(c, clinit)
		restore()
	}

	cm.markMethodShapes(c)
	cm.markInheritedImplementations(c)

	restore = cm.usage.Enter(c, c, nil, ReasonReferencedBy)
	cm.markAttributes(c, c.Attributes)
	restore()
}

// VisitLibraryClass marks c used, pins its supertypes, and marks every
// library method used since the library may call any of them.
func (cm *ClassUsageMarker) VisitLibraryClass(c *classfile.LibraryClass) {
	if !cm.usage.ShouldBeMarkedAsUsed(c) {
		return
	}
	cm.usage.MarkAsUsed(c)

	if s := c.Super(); s != nil {
		restore := cm.usage.Enter(c, c, nil, ReasonExtendedBy)
		classfile.Accept(s, cm)
		restore()
	}
	restore := cm.usage.Enter(c, c, nil, ReasonImplementedBy)
	for _, i := range c.InterfaceClasses() {
		if i != nil {
			classfile.Accept(i, cm)
		}
	}
	restore()

	restore = cm.usage.Enter(c, c, nil, ReasonDeclaredBy)
	for _, m := range c.Methods {
		cm.VisitLibraryMethod(c, m)
	}
	restore()
}

// Revisit re-applies the hierarchy rules to a used class. The fixed-point
// driver calls it until no pass produces a new used node.
func (cm *ClassUsageMarker) Revisit(c classfile.Clazz) {
	pc, ok := c.(*classfile.ProgramClass)
	if !ok || pc == nil || !cm.usage.IsUsed(pc) {
		return
	}
	cm.markMethodShapes(pc)
	cm.markInheritedImplementations(pc)
	if cm.policy != Conservative {
		return
	}
	for _, m := range pc.Methods {
		if !m.IsAbstract() || cm.usage.IsUsed(m) {
			continue
		}
		if o := cm.findUsedImplementation(pc, m.Name(), m.Descriptor(), make(map[classfile.Clazz]bool)); o != nil {
			restore := cm.usage.Enter(o, o.Owner(), o, ReasonImplementedBy)
			cm.VisitProgramMethod(pc, m)
			restore()
		}
	}
}

// Revisitor adapts Revisit to a ClassVisitor.
func (cm *ClassUsageMarker) Revisitor() classfile.ClassVisitor {
	return revisitor{cm}
}

type revisitor struct{ cm *ClassUsageMarker }

func (r revisitor) VisitAnyClass(c classfile.Clazz)             { r.cm.VisitAnyClass(c) }
func (r revisitor) VisitProgramClass(c *classfile.ProgramClass) { r.cm.Revisit(c) }
func (r revisitor) VisitLibraryClass(*classfile.LibraryClass)   {}

// =============================================================================
// Members
// =============================================================================

// VisitProgramField implements classfile.MemberVisitor.
func (cm *ClassUsageMarker) VisitProgramField(c *classfile.ProgramClass, f *classfile.ProgramField) {
	if !cm.usage.IsUsed(c) {
		cm.markPossiblyUsed(f)
		return
	}
	if !cm.usage.ShouldBeMarkedAsUsed(f) {
		return
	}
	cm.usage.MarkAsUsed(f)

	restore := cm.usage.Enter(f, c, f, ReasonReferencedBy)
	cm.markMemberBody(c, f.NameIndex, f.DescriptorIndex, f.ReferencedClasses, f.Attributes)
	restore()
}

// VisitProgramMethod implements classfile.MemberVisitor.
func (cm *ClassUsageMarker) VisitProgramMethod(c *classfile.ProgramClass, m *classfile.ProgramMethod) {
	if !cm.usage.IsUsed(c) {
		cm.markPossiblyUsed(m)
		return
	}
	if !cm.usage.ShouldBeMarkedAsUsed(m) {
		return
	}
	cm.usage.MarkAsUsed(m)

	restore := cm.usage.Enter(m, c, m, ReasonInvokedBy)
	cm.markMemberBody(c, m.NameIndex, m.DescriptorIndex, m.ReferencedClasses, m.Attributes)
	restore()

	cm.markMethodHierarchy(c, m)
	cm.promoteOverridden(c, m)
}

// VisitLibraryField implements classfile.MemberVisitor.
func (cm *ClassUsageMarker) VisitLibraryField(c *classfile.LibraryClass, f *classfile.LibraryField) {
	if !cm.usage.IsUsed(c) {
		cm.markPossiblyUsed(f)
		return
	}
	if cm.usage.ShouldBeMarkedAsUsed(f) {
		cm.usage.MarkAsUsed(f)
	}
}

// VisitLibraryMethod implements classfile.MemberVisitor.
func (cm *ClassUsageMarker) VisitLibraryMethod(c *classfile.LibraryClass, m *classfile.LibraryMethod) {
	if !cm.usage.IsUsed(c) {
		cm.markPossiblyUsed(m)
		return
	}
	if !cm.usage.ShouldBeMarkedAsUsed(m) {
		return
	}
	cm.usage.MarkAsUsed(m)
	cm.markMethodHierarchy(c, m)
}

func (cm *ClassUsageMarker) markPossiblyUsed(p classfile.Processable) {
	if cm.usage.ShouldBeMarkedAsPossiblyUsed(p) {
		cm.usage.MarkAsPossiblyUsed(p)
	}
}

func (cm *ClassUsageMarker) markMemberBody(c *classfile.ProgramClass, nameIndex, descriptorIndex int, referenced []classfile.Clazz, attrs []classfile.Attribute) {
	cm.markConstant(c, nameIndex)
	cm.markConstant(c, descriptorIndex)
	for _, rc := range referenced {
		classfile.Accept(rc, cm)
	}
	cm.markAttributes(c, attrs)
}

// MarkMember marks a member and its owning class used.
func (cm *ClassUsageMarker) MarkMember(m classfile.Member) {
	if owner := m.Owner(); owner != nil {
		classfile.Accept(owner, cm)
	}
	classfile.AcceptMember(m, cm)
}

// MarkResource marks a resource file used, with its Kotlin module.
func (cm *ClassUsageMarker) MarkResource(f *classfile.ResourceFile) {
	if f == nil || !cm.usage.ShouldBeMarkedAsUsed(f) {
		return
	}
	cm.usage.MarkAsUsed(f)
	if f.KotlinModule != nil && cm.usage.ShouldBeMarkedAsUsed(f.KotlinModule) {
		cm.usage.MarkAsUsed(f.KotlinModule)
	}
}

// =============================================================================
// Method hierarchy
// =============================================================================

// markMethodShapes applies the override rules to the methods of a used
// class that are not used yet.
func (cm *ClassUsageMarker) markMethodShapes(c *classfile.ProgramClass) {
	for _, m := range c.Methods {
		if cm.usage.IsUsed(m) || !classfile.IsOverridable(m) {
			continue
		}
		name, descriptor := m.Name(), m.Descriptor()

		if sm := cm.findSuperMethod(c, name, descriptor, true); sm != nil {
			restore := cm.usage.Enter(sm, sm.Owner(), sm, ReasonOverrides)
			cm.VisitProgramMethod(c, m)
			restore()
			continue
		}
		if m.IsAbstract() || cm.findSuperMethod(c, name, descriptor, false) != nil {
			restore := cm.usage.Enter(c, c, nil, ReasonDeclaredBy)
			cm.markPossiblyUsed(m)
			restore()
		}
	}
}

// findSuperMethod searches the supertypes of c, transitively, for a
// method with the given signature. With usedOnly, only used methods
// count.
func (cm *ClassUsageMarker) findSuperMethod(c classfile.Clazz, name, descriptor string, usedOnly bool) classfile.Member {
	seen := make(map[classfile.Clazz]bool)
	var search func(k classfile.Clazz) classfile.Member
	search = func(k classfile.Clazz) classfile.Member {
		for _, s := range classfile.Supertypes(k) {
			if seen[s] {
				continue
			}
			seen[s] = true
			if m := s.FindMethod(name, descriptor); m != nil && classfile.IsOverridable(m) {
				if !usedOnly || cm.usage.IsUsed(m) {
					return m
				}
			}
			if m := search(s); m != nil {
				return m
			}
		}
		return nil
	}
	return search(c)
}

// markMethodHierarchy propagates a used method down to the overrides in
// subclasses: used where the subclass is used, possibly used otherwise.
func (cm *ClassUsageMarker) markMethodHierarchy(c classfile.Clazz, m classfile.Member) {
	if !classfile.IsOverridable(m) {
		return
	}
	restore := cm.usage.Enter(m, c, m, ReasonOverrides)
	defer restore()

	name, descriptor := m.Name(), m.Descriptor()
	seen := make(map[classfile.Clazz]bool)
	var walk func(k classfile.Clazz)
	walk = func(k classfile.Clazz) {
		for _, sub := range k.Subclasses() {
			if seen[sub] {
				continue
			}
			seen[sub] = true
			o := sub.FindMethod(name, descriptor)
			if o == nil && cm.usage.IsUsed(sub) {
				// sub may implement m with a method it inherits.
				if impl := inheritedImplementation(sub, name, descriptor); impl != nil {
					classfile.AcceptMember(impl, cm)
				}
			}
			if o != nil && classfile.IsOverridable(o) {
				if cm.usage.IsUsed(sub) {
					// The override propagates further down itself.
					classfile.AcceptMember(o, cm)
					continue
				}
				cm.markPossiblyUsed(o)
			}
			walk(sub)
		}
	}
	walk(c)
}

// markInheritedImplementations marks the methods a used class inherits
// from its superclasses to implement used methods of its interfaces.
func (cm *ClassUsageMarker) markInheritedImplementations(c *classfile.ProgramClass) {
	for _, i := range interfaceClosure(c) {
		for _, im := range declaredMethods(i) {
			if !cm.usage.IsUsed(im) || !classfile.IsOverridable(im) {
				continue
			}
			name, descriptor := im.Name(), im.Descriptor()
			if c.FindMethod(name, descriptor) != nil {
				continue
			}
			if impl := inheritedImplementation(c, name, descriptor); impl != nil {
				restore := cm.usage.Enter(im, i, im, ReasonOverrides)
				classfile.AcceptMember(impl, cm)
				restore()
			}
		}
	}
}

// inheritedImplementation returns the concrete method c inherits from its
// superclass chain for the given signature, or nil. A chain that comes
// back to a class it already passed ends the walk.
func inheritedImplementation(c classfile.Clazz, name, descriptor string) classfile.Member {
	seen := map[classfile.Clazz]bool{c: true}
	for s := c.Super(); s != nil && !seen[s]; s = s.Super() {
		seen[s] = true
		m := s.FindMethod(name, descriptor)
		if m == nil {
			continue
		}
		if !classfile.IsOverridable(m) {
			return nil
		}
		if pm, ok := m.(*classfile.ProgramMethod); ok && pm.IsAbstract() {
			return nil
		}
		return m
	}
	return nil
}

// interfaceClosure returns the interfaces c declares, directly or through
// its interfaces, without duplicates.
func interfaceClosure(c classfile.Clazz) []classfile.Clazz {
	var out []classfile.Clazz
	seen := make(map[classfile.Clazz]bool)
	queue := append([]classfile.Clazz(nil), c.InterfaceClasses()...)
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		if i == nil || seen[i] {
			continue
		}
		seen[i] = true
		out = append(out, i)
		queue = append(queue, i.InterfaceClasses()...)
	}
	return out
}

// declaredMethods returns the methods a class declares, of either variant.
func declaredMethods(c classfile.Clazz) []classfile.Member {
	var out []classfile.Member
	switch c := c.(type) {
	case *classfile.ProgramClass:
		for _, m := range c.Methods {
			out = append(out, m)
		}
	case *classfile.LibraryClass:
		for _, m := range c.Methods {
			out = append(out, m)
		}
	}
	return out
}

// promoteOverridden implements the Conservative rule from below: a used
// concrete method makes the abstract methods it implements in used
// supertypes used.
func (cm *ClassUsageMarker) promoteOverridden(c *classfile.ProgramClass, m *classfile.ProgramMethod) {
	if cm.policy != Conservative || m.IsAbstract() || !classfile.IsOverridable(m) {
		return
	}
	restore := cm.usage.Enter(m, c, m, ReasonImplementedBy)
	defer restore()

	name, descriptor := m.Name(), m.Descriptor()
	seen := make(map[classfile.Clazz]bool)
	var climb func(k classfile.Clazz)
	climb = func(k classfile.Clazz) {
		for _, s := range classfile.Supertypes(k) {
			if seen[s] {
				continue
			}
			seen[s] = true
			if pc, ok := s.(*classfile.ProgramClass); ok && cm.usage.IsUsed(pc) {
				if am := pc.ProgramMethod(name, descriptor); am != nil && am.IsAbstract() && !cm.usage.IsUsed(am) {
					cm.VisitProgramMethod(pc, am)
				}
			}
			climb(s)
		}
	}
	climb(c)
}

// findUsedImplementation searches the subclasses of c for a used concrete
// override in a used class.
func (cm *ClassUsageMarker) findUsedImplementation(c classfile.Clazz, name, descriptor string, seen map[classfile.Clazz]bool) *classfile.ProgramMethod {
	for _, sub := range c.Subclasses() {
		if seen[sub] {
			continue
		}
		seen[sub] = true
		if pc, ok := sub.(*classfile.ProgramClass); ok && cm.usage.IsUsed(pc) {
			if o := pc.ProgramMethod(name, descriptor); o != nil && !o.IsAbstract() && cm.usage.IsUsed(o) {
				return o
			}
		}
		if o := cm.findUsedImplementation(sub, name, descriptor, seen); o != nil {
			return o
		}
	}
	return nil
}

// isEmptyMethod reports whether a method has no code or only a return.
func isEmptyMethod(m *classfile.ProgramMethod) bool {
	code := m.Code()
	return code == nil || (len(code.ConstantRefs) == 0 && code.CodeLength <= 1)
}
