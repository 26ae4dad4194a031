package usage

import (
	"fmt"

	"github.com/roach88/keepmark/internal/classfile"
)

// Describe renders a node for error messages and logs: external class
// names for classes, owner plus signature for members, the Go type for
// everything else.
func Describe(p classfile.Processable) string {
	switch n := p.(type) {
	case nil:
		return "<nil>"
	case classfile.Clazz:
		return ClassString(n)
	case classfile.Member:
		return MemberString(n)
	case *classfile.ResourceFile:
		return n.FileName
	case *classfile.KotlinModule:
		return "kotlin module " + n.Name
	default:
		return fmt.Sprintf("%T", p)
	}
}

// ClassString renders a class by external name, or "none".
func ClassString(c classfile.Clazz) string {
	if c == nil {
		return "none"
	}
	switch c := c.(type) {
	case *classfile.ProgramClass:
		if c == nil {
			return "none"
		}
	case *classfile.LibraryClass:
		if c == nil {
			return "none"
		}
	}
	return classfile.ExternalClassName(c.Name())
}

// MemberString renders a member as owner.signature, or "none".
func MemberString(m classfile.Member) string {
	if m == nil {
		return "none"
	}
	owner := ClassString(m.Owner())
	if owner == "none" {
		return classfile.MemberString(m)
	}
	return owner + "." + classfile.MemberString(m)
}
