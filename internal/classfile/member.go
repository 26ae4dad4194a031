package classfile

// Member is a sealed interface over fields and methods of either class
// variant. A member is owned by exactly one class.
type Member interface {
	Processable
	Name() string
	Descriptor() string
	Flags() uint16
	Owner() Clazz
	isMember()
}

// ProgramField is a field of a program class. Name and descriptor are
// constant-pool indices of the owning class.
type ProgramField struct {
	Processing
	Access          uint16
	NameIndex       int
	DescriptorIndex int
	Attributes      []Attribute

	// ReferencedClasses are the classes named in the descriptor, resolved
	// by Link. Unresolved names are left out.
	ReferencedClasses []Clazz

	owner *ProgramClass
}

func (*ProgramField) isMember() {}

// Name returns the field name.
func (f *ProgramField) Name() string { return f.owner.Utf8(f.NameIndex) }

// Descriptor returns the field descriptor.
func (f *ProgramField) Descriptor() string { return f.owner.Utf8(f.DescriptorIndex) }

// Flags returns the access flags.
func (f *ProgramField) Flags() uint16 { return f.Access }

// Owner returns the declaring class.
func (f *ProgramField) Owner() Clazz { return f.owner }

// Class returns the declaring program class.
func (f *ProgramField) Class() *ProgramClass { return f.owner }

// ProgramMethod is a method of a program class.
type ProgramMethod struct {
	Processing
	Access          uint16
	NameIndex       int
	DescriptorIndex int
	Attributes      []Attribute

	// ReferencedClasses are the classes named in the descriptor.
	ReferencedClasses []Clazz

	owner *ProgramClass
}

func (*ProgramMethod) isMember() {}

// Name returns the method name.
func (m *ProgramMethod) Name() string { return m.owner.Utf8(m.NameIndex) }

// Descriptor returns the method descriptor.
func (m *ProgramMethod) Descriptor() string { return m.owner.Utf8(m.DescriptorIndex) }

// Flags returns the access flags.
func (m *ProgramMethod) Flags() uint16 { return m.Access }

// Owner returns the declaring class.
func (m *ProgramMethod) Owner() Clazz { return m.owner }

// Class returns the declaring program class.
func (m *ProgramMethod) Class() *ProgramClass { return m.owner }

// IsAbstract reports whether the method has no body.
func (m *ProgramMethod) IsAbstract() bool { return m.Access&AccAbstract != 0 }

// Code returns the method's code attribute, or nil.
func (m *ProgramMethod) Code() *CodeAttribute {
	for _, a := range m.Attributes {
		if code, ok := a.(*CodeAttribute); ok {
			return code
		}
	}
	return nil
}

// LibraryField is a field signature of a library class.
type LibraryField struct {
	Processing
	Access          uint16
	FieldName       string
	FieldDescriptor string

	owner *LibraryClass
}

func (*LibraryField) isMember() {}

// Name returns the field name.
func (f *LibraryField) Name() string { return f.FieldName }

// Descriptor returns the field descriptor.
func (f *LibraryField) Descriptor() string { return f.FieldDescriptor }

// Flags returns the access flags.
func (f *LibraryField) Flags() uint16 { return f.Access }

// Owner returns the declaring class.
func (f *LibraryField) Owner() Clazz { return f.owner }

// LibraryMethod is a method signature of a library class.
type LibraryMethod struct {
	Processing
	Access           uint16
	MethodName       string
	MethodDescriptor string

	owner *LibraryClass
}

func (*LibraryMethod) isMember() {}

// Name returns the method name.
func (m *LibraryMethod) Name() string { return m.MethodName }

// Descriptor returns the method descriptor.
func (m *LibraryMethod) Descriptor() string { return m.MethodDescriptor }

// Flags returns the access flags.
func (m *LibraryMethod) Flags() uint16 { return m.Access }

// Owner returns the declaring class.
func (m *LibraryMethod) Owner() Clazz { return m.owner }

// IsOverridable reports whether a method takes part in virtual dispatch:
// not private, not static and not an initializer.
func IsOverridable(m Member) bool {
	if m.Flags()&(AccPrivate|AccStatic) != 0 {
		return false
	}
	name := m.Name()
	return name != MethodNameInit && name != MethodNameClinit
}

// MemberString renders a member as name plus descriptor, e.g.
// "run()V" or "count:I".
func MemberString(m Member) string {
	switch m.(type) {
	case *ProgramField, *LibraryField:
		return m.Name() + ":" + m.Descriptor()
	default:
		return m.Name() + m.Descriptor()
	}
}
