package classfile

import (
	"fmt"
	"sort"
	"strings"
)

// LinkError lists the class names Link could not resolve. Unresolved
// references stay nil; the marker treats them as outside the graph.
type LinkError struct {
	Missing []string
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("unresolved classes (%d): %s", len(e.Missing), strings.Join(e.Missing, ", "))
}

// Link resolves the cross references of both pools in place:
//   - member owners
//   - class constants, field and method references
//   - superclass and interface pointers
//   - classes named in member descriptors and annotation types
//   - subclass back-references, including program subclasses of library
//     classes
//
// Program classes take precedence over library classes of the same name.
// Link is idempotent; calling it again after pool changes rebuilds every
// link. It returns a *LinkError when some names did not resolve, and a
// *HierarchyCycleError, before linking any reference, when a class is its
// own supertype.
func Link(program, library *ClassPool) error {
	l := &linker{
		pools:   &Pools{Program: program, Library: library},
		missing: make(map[string]bool),
	}

	for _, c := range program.Classes() {
		if pc, ok := c.(*ProgramClass); ok {
			pc.subclasses = nil
		}
	}
	for _, c := range library.Classes() {
		if lc, ok := c.(*LibraryClass); ok {
			lc.subclasses = nil
		}
	}

	for _, c := range library.Classes() {
		if lc, ok := c.(*LibraryClass); ok {
			l.linkLibraryClass(lc)
		}
	}
	for _, c := range program.Classes() {
		if pc, ok := c.(*ProgramClass); ok {
			l.linkProgramHierarchy(pc)
		}
	}
	// Every supertype walk below and in the markers assumes an acyclic
	// hierarchy.
	if path := hierarchyCycle(program, library); path != nil {
		return &HierarchyCycleError{Path: path}
	}
	// Member references need the complete hierarchy.
	for _, c := range program.Classes() {
		if pc, ok := c.(*ProgramClass); ok {
			l.linkProgramReferences(pc)
		}
	}

	if len(l.missing) == 0 {
		return nil
	}
	names := make([]string, 0, len(l.missing))
	for name := range l.missing {
		names = append(names, name)
	}
	sort.Strings(names)
	return &LinkError{Missing: names}
}

type linker struct {
	pools   *Pools
	missing map[string]bool
}

func (l *linker) lookup(name string) Clazz {
	if name == "" {
		return nil
	}
	c := l.pools.Lookup(name)
	if c == nil {
		l.missing[name] = true
	}
	return c
}

func (l *linker) linkLibraryClass(c *LibraryClass) {
	for _, f := range c.Fields {
		f.owner = c
	}
	for _, m := range c.Methods {
		m.owner = c
	}
	c.superClass = nil
	if c.SuperClassName != "" {
		// Library classes only ever extend library classes.
		c.superClass = l.pools.Library.Get(c.SuperClassName)
		if c.superClass == nil {
			l.missing[c.SuperClassName] = true
		}
	}
	c.interfaceClasses = make([]Clazz, len(c.InterfaceNames))
	for i, name := range c.InterfaceNames {
		c.interfaceClasses[i] = l.pools.Library.Get(name)
		if c.interfaceClasses[i] == nil {
			l.missing[name] = true
		}
	}
	addSubclass(c.superClass, c)
	for _, i := range c.interfaceClasses {
		addSubclass(i, c)
	}
}

func (l *linker) linkProgramHierarchy(c *ProgramClass) {
	for _, f := range c.Fields {
		f.owner = c
	}
	for _, m := range c.Methods {
		m.owner = c
	}
	c.superClass = l.lookup(c.SuperName())
	c.interfaceClasses = make([]Clazz, len(c.Interfaces))
	for i, index := range c.Interfaces {
		c.interfaceClasses[i] = l.lookup(c.ClassName(index))
	}
	addSubclass(c.superClass, c)
	for _, i := range c.interfaceClasses {
		addSubclass(i, c)
	}
}

func addSubclass(super Clazz, sub Clazz) {
	switch s := super.(type) {
	case *ProgramClass:
		if s != nil {
			s.subclasses = append(s.subclasses, sub)
		}
	case *LibraryClass:
		if s != nil {
			s.subclasses = append(s.subclasses, sub)
		}
	}
}

func (l *linker) linkProgramReferences(c *ProgramClass) {
	for _, constant := range c.ConstantPool {
		switch k := constant.(type) {
		case *ClassConstant:
			k.ReferencedClass = nil
			if name := ElementClassName(c.Utf8(k.NameIndex)); name != "" {
				k.ReferencedClass = l.lookup(name)
			}
		case *RefConstant:
			l.linkRef(c, k)
		}
	}

	for _, f := range c.Fields {
		f.ReferencedClasses = l.descriptorClasses(f.Descriptor())
		l.linkAttributes(c, f.Attributes)
	}
	for _, m := range c.Methods {
		m.ReferencedClasses = l.descriptorClasses(m.Descriptor())
		l.linkAttributes(c, m.Attributes)
	}
	l.linkAttributes(c, c.Attributes)
}

func (l *linker) linkRef(c *ProgramClass, ref *RefConstant) {
	ref.ReferencedClass = nil
	ref.ReferencedMember = nil
	name := ElementClassName(c.ClassName(ref.ClassIndex))
	if name == "" {
		return
	}
	target := l.lookup(name)
	if target == nil {
		return
	}
	ref.ReferencedClass = target

	nat, ok := c.Constant(ref.NameAndTypeIndex).(*NameAndTypeConstant)
	if !ok {
		return
	}
	memberName, descriptor := c.Utf8(nat.NameIndex), c.Utf8(nat.DescriptorIndex)
	if ref.RefTag == TagFieldref {
		ref.ReferencedMember = ResolveField(target, memberName, descriptor)
	} else {
		ref.ReferencedMember = ResolveMethod(target, memberName, descriptor)
	}
}

func (l *linker) descriptorClasses(descriptor string) []Clazz {
	var out []Clazz
	for _, name := range ClassNamesInDescriptor(descriptor) {
		if rc := l.lookup(name); rc != nil {
			out = append(out, rc)
		}
	}
	return out
}

func (l *linker) linkAttributes(c *ProgramClass, attrs []Attribute) {
	for _, a := range attrs {
		switch a := a.(type) {
		case *CodeAttribute:
			l.linkAttributes(c, a.Attributes)
		case *RecordAttribute:
			for _, rc := range a.Components {
				l.linkAttributes(c, rc.Attributes)
			}
		case *AnnotationsAttribute:
			for _, ann := range a.Annotations {
				l.linkAnnotation(c, ann)
			}
		case *AnnotationDefaultAttribute:
			l.linkElementValue(c, a.DefaultValue)
		}
	}
}

func (l *linker) linkAnnotation(c *ProgramClass, ann *Annotation) {
	ann.ReferencedClass = nil
	if names := ClassNamesInDescriptor(c.Utf8(ann.TypeIndex)); len(names) > 0 {
		ann.ReferencedClass = l.lookup(names[0])
	}
	for _, ev := range ann.ElementValues {
		l.linkElementValue(c, ev)
	}
}

func (l *linker) linkElementValue(c *ProgramClass, ev ElementValue) {
	switch v := ev.(type) {
	case *EnumConstantElementValue:
		v.ReferencedClass = nil
		if names := ClassNamesInDescriptor(c.Utf8(v.TypeNameIndex)); len(names) > 0 {
			v.ReferencedClass = l.lookup(names[0])
		}
	case *ClassElementValue:
		v.ReferencedClass = nil
		if names := ClassNamesInDescriptor(c.Utf8(v.ClassInfoIndex)); len(names) > 0 {
			v.ReferencedClass = l.lookup(names[0])
		}
	case *AnnotationElementValue:
		if v.Annotation != nil {
			l.linkAnnotation(c, v.Annotation)
		}
	case *ArrayElementValue:
		for _, nested := range v.Values {
			l.linkElementValue(c, nested)
		}
	}
}

// ResolveMethod looks a method up the way the JVM resolves a method
// reference: the class, then its superclasses, then its superinterfaces.
func ResolveMethod(c Clazz, name, descriptor string) Member {
	for s := c; s != nil; s = s.Super() {
		if m := s.FindMethod(name, descriptor); m != nil {
			return m
		}
	}
	return resolveInInterfaces(c, name, descriptor, make(map[Clazz]bool))
}

func resolveInInterfaces(c Clazz, name, descriptor string, seen map[Clazz]bool) Member {
	for s := c; s != nil; s = s.Super() {
		for _, i := range s.InterfaceClasses() {
			if i == nil || seen[i] {
				continue
			}
			seen[i] = true
			if m := i.FindMethod(name, descriptor); m != nil {
				return m
			}
			if m := resolveInInterfaces(i, name, descriptor, seen); m != nil {
				return m
			}
		}
	}
	return nil
}

// ResolveField looks a field up the way the JVM resolves a field
// reference: the class, its superinterfaces, then its superclass.
func ResolveField(c Clazz, name, descriptor string) Member {
	if c == nil {
		return nil
	}
	if f := c.FindField(name, descriptor); f != nil {
		return f
	}
	for _, i := range c.InterfaceClasses() {
		if i == nil {
			continue
		}
		if f := ResolveField(i, name, descriptor); f != nil {
			return f
		}
	}
	return ResolveField(c.Super(), name, descriptor)
}
