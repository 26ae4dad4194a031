package classfile

// Clazz is a sealed interface over the two class variants. Code that needs
// variant-specific behavior must resolve the variant (type switch or
// Accept) before dispatching.
type Clazz interface {
	Processable

	// Name returns the internal name, e.g. "java/lang/Object".
	Name() string
	// SuperName returns the superclass internal name, or "" for roots.
	SuperName() string
	// Flags returns the access flags.
	Flags() uint16

	// Super returns the resolved superclass, or nil.
	Super() Clazz
	// InterfaceClasses returns the resolved direct interfaces. Entries are
	// nil for interfaces that could not be resolved.
	InterfaceClasses() []Clazz
	// Subclasses returns the classes that directly extend or implement
	// this class. The set is a back-reference maintained by Link.
	Subclasses() []Clazz

	// FindMethod returns the method declared by this class with the given
	// name and descriptor, or nil.
	FindMethod(name, descriptor string) Member
	// FindField returns the field declared by this class with the given
	// name and descriptor, or nil.
	FindField(name, descriptor string) Member

	isClazz()
}

// ProgramClass is a fully structured class that the shrinker may modify.
type ProgramClass struct {
	Processing

	Access       uint16
	ConstantPool []Constant // index 0 is the reserved absent entry
	ThisClass    int
	SuperClass   int // 0 for java/lang/Object
	Interfaces   []int
	Fields       []*ProgramField
	Methods      []*ProgramMethod
	Attributes   []Attribute

	superClass       Clazz
	interfaceClasses []Clazz
	subclasses       []Clazz
}

func (*ProgramClass) isClazz() {}

// Name returns the internal class name.
func (c *ProgramClass) Name() string { return c.ClassName(c.ThisClass) }

// SuperName returns the internal name of the superclass, or "".
func (c *ProgramClass) SuperName() string { return c.ClassName(c.SuperClass) }

// Flags returns the class access flags.
func (c *ProgramClass) Flags() uint16 { return c.Access }

// Super returns the resolved superclass.
func (c *ProgramClass) Super() Clazz { return c.superClass }

// InterfaceClasses returns the resolved interfaces, index-aligned with
// Interfaces.
func (c *ProgramClass) InterfaceClasses() []Clazz { return c.interfaceClasses }

// Subclasses returns direct subclasses and implementers.
func (c *ProgramClass) Subclasses() []Clazz { return c.subclasses }

// IsInterface reports whether the class is an interface.
func (c *ProgramClass) IsInterface() bool { return c.Access&AccInterface != 0 }

// IsAbstract reports whether the class is abstract or an interface.
func (c *ProgramClass) IsAbstract() bool { return c.Access&(AccAbstract|AccInterface) != 0 }

// Constant returns the entry at index, or nil if index is 0 or out of
// range.
func (c *ProgramClass) Constant(index int) Constant {
	if c == nil || index <= 0 || index >= len(c.ConstantPool) {
		return nil
	}
	return c.ConstantPool[index]
}

// Utf8 returns the text of the Utf8Constant at index, or "".
func (c *ProgramClass) Utf8(index int) string {
	if u, ok := c.Constant(index).(*Utf8Constant); ok {
		return u.Value
	}
	return ""
}

// ClassName returns the name of the ClassConstant at index, or "".
func (c *ProgramClass) ClassName(index int) string {
	if cc, ok := c.Constant(index).(*ClassConstant); ok {
		return c.Utf8(cc.NameIndex)
	}
	return ""
}

// InterfaceNames returns the names of the declared interfaces.
func (c *ProgramClass) InterfaceNames() []string {
	names := make([]string, 0, len(c.Interfaces))
	for _, index := range c.Interfaces {
		names = append(names, c.ClassName(index))
	}
	return names
}

// AddField appends a field and makes this class its owner.
func (c *ProgramClass) AddField(f *ProgramField) {
	f.owner = c
	c.Fields = append(c.Fields, f)
}

// AddMethod appends a method and makes this class its owner.
func (c *ProgramClass) AddMethod(m *ProgramMethod) {
	m.owner = c
	c.Methods = append(c.Methods, m)
}

// FindMethod implements Clazz.
func (c *ProgramClass) FindMethod(name, descriptor string) Member {
	if m := c.findProgramMethod(name, descriptor); m != nil {
		return m
	}
	return nil
}

func (c *ProgramClass) findProgramMethod(name, descriptor string) *ProgramMethod {
	for _, m := range c.Methods {
		if m.Name() == name && m.Descriptor() == descriptor {
			return m
		}
	}
	return nil
}

// ProgramMethod returns the declared method with the given name and
// descriptor, or nil.
func (c *ProgramClass) ProgramMethod(name, descriptor string) *ProgramMethod {
	return c.findProgramMethod(name, descriptor)
}

// FindField implements Clazz.
func (c *ProgramClass) FindField(name, descriptor string) Member {
	if f := c.ProgramField(name, descriptor); f != nil {
		return f
	}
	return nil
}

// ProgramField returns the declared field with the given name and
// descriptor, or nil.
func (c *ProgramClass) ProgramField(name, descriptor string) *ProgramField {
	for _, f := range c.Fields {
		if f.Name() == name && f.Descriptor() == descriptor {
			return f
		}
	}
	return nil
}

// BootstrapMethods returns the class's BootstrapMethods attribute, or nil.
func (c *ProgramClass) BootstrapMethods() *BootstrapMethodsAttribute {
	for _, a := range c.Attributes {
		if bm, ok := a.(*BootstrapMethodsAttribute); ok {
			return bm
		}
	}
	return nil
}

// LibraryClass is a structurally opaque class from the library pool. It
// exposes identity, supertype links and member signatures only.
type LibraryClass struct {
	Processing

	Access         uint16
	ClassName      string
	SuperClassName string
	InterfaceNames []string
	Fields         []*LibraryField
	Methods        []*LibraryMethod

	superClass       Clazz
	interfaceClasses []Clazz
	subclasses       []Clazz
}

func (*LibraryClass) isClazz() {}

// Name returns the internal class name.
func (c *LibraryClass) Name() string { return c.ClassName }

// SuperName returns the internal name of the superclass.
func (c *LibraryClass) SuperName() string { return c.SuperClassName }

// Flags returns the class access flags.
func (c *LibraryClass) Flags() uint16 { return c.Access }

// Super returns the resolved superclass.
func (c *LibraryClass) Super() Clazz { return c.superClass }

// InterfaceClasses returns the resolved interfaces, index-aligned with
// InterfaceNames.
func (c *LibraryClass) InterfaceClasses() []Clazz { return c.interfaceClasses }

// Subclasses returns direct subclasses and implementers, which may be
// program classes.
func (c *LibraryClass) Subclasses() []Clazz { return c.subclasses }

// AddField appends a field signature and makes this class its owner.
func (c *LibraryClass) AddField(f *LibraryField) {
	f.owner = c
	c.Fields = append(c.Fields, f)
}

// AddMethod appends a method signature and makes this class its owner.
func (c *LibraryClass) AddMethod(m *LibraryMethod) {
	m.owner = c
	c.Methods = append(c.Methods, m)
}

// FindMethod implements Clazz.
func (c *LibraryClass) FindMethod(name, descriptor string) Member {
	for _, m := range c.Methods {
		if m.MethodName == name && m.MethodDescriptor == descriptor {
			return m
		}
	}
	return nil
}

// FindField implements Clazz.
func (c *LibraryClass) FindField(name, descriptor string) Member {
	for _, f := range c.Fields {
		if f.FieldName == name && f.FieldDescriptor == descriptor {
			return f
		}
	}
	return nil
}

// IsInterface reports whether the class is an interface.
func (c *LibraryClass) IsInterface() bool { return c.Access&AccInterface != 0 }

// Supertypes returns the superclass followed by the direct interfaces,
// skipping unresolved entries.
func Supertypes(c Clazz) []Clazz {
	var out []Clazz
	if s := c.Super(); s != nil {
		out = append(out, s)
	}
	for _, i := range c.InterfaceClasses() {
		if i != nil {
			out = append(out, i)
		}
	}
	return out
}
