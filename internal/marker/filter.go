package marker

import (
	"github.com/roach88/keepmark/internal/classfile"
	"github.com/roach88/keepmark/internal/usage"
)

// UsedClassFilter routes used classes to one visitor and the others to a
// second one. Either visitor may be nil. It never writes marks.
type UsedClassFilter struct {
	usage  usage.Marker
	used   classfile.ClassVisitor
	unused classfile.ClassVisitor
}

var _ classfile.ClassVisitor = (*UsedClassFilter)(nil)

// NewUsedClassFilter creates a class filter.
func NewUsedClassFilter(m usage.Marker, used, unused classfile.ClassVisitor) *UsedClassFilter {
	return &UsedClassFilter{usage: m, used: used, unused: unused}
}

func (f *UsedClassFilter) target(c classfile.Clazz) classfile.ClassVisitor {
	if f.usage.IsUsed(c) {
		return f.used
	}
	return f.unused
}

// VisitAnyClass routes c if it can be queried and panics on nil.
func (f *UsedClassFilter) VisitAnyClass(c classfile.Clazz) {
	if c == nil {
		panic(usage.NewUnresolvedClassVariantError(usage.Describe(c)))
	}
	if v := f.target(c); v != nil {
		v.VisitAnyClass(c)
	}
}

// VisitProgramClass implements classfile.ClassVisitor.
func (f *UsedClassFilter) VisitProgramClass(c *classfile.ProgramClass) {
	if v := f.target(c); v != nil {
		v.VisitProgramClass(c)
	}
}

// VisitLibraryClass implements classfile.ClassVisitor.
func (f *UsedClassFilter) VisitLibraryClass(c *classfile.LibraryClass) {
	if v := f.target(c); v != nil {
		v.VisitLibraryClass(c)
	}
}

// UsedMemberFilter routes used members to one visitor and the others to
// a second one. Either visitor may be nil. It never writes marks.
type UsedMemberFilter struct {
	usage  usage.Marker
	used   classfile.MemberVisitor
	unused classfile.MemberVisitor
}

var _ classfile.MemberVisitor = (*UsedMemberFilter)(nil)

// NewUsedMemberFilter creates a member filter.
func NewUsedMemberFilter(m usage.Marker, used, unused classfile.MemberVisitor) *UsedMemberFilter {
	return &UsedMemberFilter{usage: m, used: used, unused: unused}
}

func (f *UsedMemberFilter) target(m classfile.Member) classfile.MemberVisitor {
	if f.usage.IsUsed(m) {
		return f.used
	}
	return f.unused
}

// VisitProgramField implements classfile.MemberVisitor.
func (f *UsedMemberFilter) VisitProgramField(c *classfile.ProgramClass, field *classfile.ProgramField) {
	if v := f.target(field); v != nil {
		v.VisitProgramField(c, field)
	}
}

// VisitProgramMethod implements classfile.MemberVisitor.
func (f *UsedMemberFilter) VisitProgramMethod(c *classfile.ProgramClass, m *classfile.ProgramMethod) {
	if v := f.target(m); v != nil {
		v.VisitProgramMethod(c, m)
	}
}

// VisitLibraryField implements classfile.MemberVisitor.
func (f *UsedMemberFilter) VisitLibraryField(c *classfile.LibraryClass, field *classfile.LibraryField) {
	if v := f.target(field); v != nil {
		v.VisitLibraryField(c, field)
	}
}

// VisitLibraryMethod implements classfile.MemberVisitor.
func (f *UsedMemberFilter) VisitLibraryMethod(c *classfile.LibraryClass, m *classfile.LibraryMethod) {
	if v := f.target(m); v != nil {
		v.VisitLibraryMethod(c, m)
	}
}
