package classfile

// ClassVisitor receives classes after variant resolution.
//
// VisitAnyClass is reached only when Accept cannot resolve the variant
// (a nil class or a foreign implementation). Implementations decide
// whether that is an error; the usage markers treat it as fatal.
type ClassVisitor interface {
	VisitAnyClass(c Clazz)
	VisitProgramClass(c *ProgramClass)
	VisitLibraryClass(c *LibraryClass)
}

// Accept dispatches c to the visitor method matching its variant.
func Accept(c Clazz, v ClassVisitor) {
	switch c := c.(type) {
	case *ProgramClass:
		if c != nil {
			v.VisitProgramClass(c)
			return
		}
	case *LibraryClass:
		if c != nil {
			v.VisitLibraryClass(c)
			return
		}
	}
	v.VisitAnyClass(c)
}

// MemberVisitor receives members together with their resolved owner.
type MemberVisitor interface {
	VisitProgramField(c *ProgramClass, f *ProgramField)
	VisitProgramMethod(c *ProgramClass, m *ProgramMethod)
	VisitLibraryField(c *LibraryClass, f *LibraryField)
	VisitLibraryMethod(c *LibraryClass, m *LibraryMethod)
}

// AcceptMember dispatches m to the visitor method matching its variant.
// It reports false if m is nil or has no owner.
func AcceptMember(m Member, v MemberVisitor) bool {
	switch m := m.(type) {
	case *ProgramField:
		if m != nil && m.owner != nil {
			v.VisitProgramField(m.owner, m)
			return true
		}
	case *ProgramMethod:
		if m != nil && m.owner != nil {
			v.VisitProgramMethod(m.owner, m)
			return true
		}
	case *LibraryField:
		if m != nil && m.owner != nil {
			v.VisitLibraryField(m.owner, m)
			return true
		}
	case *LibraryMethod:
		if m != nil && m.owner != nil {
			v.VisitLibraryMethod(m.owner, m)
			return true
		}
	}
	return false
}

// MembersAccept visits every field and then every method of c.
func MembersAccept(c Clazz, v MemberVisitor) {
	switch c := c.(type) {
	case *ProgramClass:
		for _, f := range c.Fields {
			v.VisitProgramField(c, f)
		}
		for _, m := range c.Methods {
			v.VisitProgramMethod(c, m)
		}
	case *LibraryClass:
		for _, f := range c.Fields {
			v.VisitLibraryField(c, f)
		}
		for _, m := range c.Methods {
			v.VisitLibraryMethod(c, m)
		}
	}
}
