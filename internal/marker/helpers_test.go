package marker

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/keepmark/internal/classfile"
	"github.com/roach88/keepmark/internal/usage"
)

const (
	acc      = classfile.AccPublic
	object   = "java/lang/Object"
	voidDesc = "()V"
)

func objectClass() *classfile.LibraryClass {
	return classfile.NewLibraryClass(object, "", acc, nil, "<init>()V", "toString()Ljava/lang/String;")
}

func stringClass() *classfile.LibraryClass {
	return classfile.NewLibraryClass("java/lang/String", object, acc|classfile.AccFinal, nil, "length()I")
}

// linkPools links the program classes against a library holding
// java/lang/Object plus any extra library classes.
func linkPools(t *testing.T, program []classfile.Clazz, library ...classfile.Clazz) *classfile.Pools {
	t.Helper()
	pools := &classfile.Pools{
		Program:   classfile.NewClassPool(program...),
		Library:   classfile.NewClassPool(append([]classfile.Clazz{objectClass()}, library...)...),
		Resources: classfile.NewResourceFilePool(),
	}
	require.NoError(t, classfile.Link(pools.Program, pools.Library))
	return pools
}

func newShortest(policy Policy) (*ClassUsageMarker, *usage.ShortestMarker) {
	s := usage.NewShortestMarker()
	return NewClassUsageMarker(s, policy), s
}

func newSimple(policy Policy) (*ClassUsageMarker, *usage.SimpleMarker) {
	s := usage.NewSimpleMarker()
	return NewClassUsageMarker(s, policy), s
}

func programClass(pools *classfile.Pools, name string) *classfile.ProgramClass {
	return pools.Program.Get(name).(*classfile.ProgramClass)
}

// fatalCode runs fn and returns the code of the *usage.Error it panics
// with, or "" if it does not panic.
func fatalCode(fn func()) (code usage.ErrorCode) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(*usage.Error); ok {
				code = e.Code
				return
			}
			panic(r)
		}
	}()
	fn()
	return ""
}

// revisitToFixedPoint repeats Revisit over the program pool until no new
// used transitions appear.
func revisitToFixedPoint(cm *ClassUsageMarker, pools *classfile.Pools) {
	for {
		before := cm.Usage().UsedTransitions()
		pools.Program.ClassesAccept(cm.Revisitor())
		if cm.Usage().UsedTransitions() == before {
			return
		}
	}
}

// countingMemberVisitor forwards to a real visitor and counts field
// visits.
type countingMemberVisitor struct {
	classfile.MemberVisitor
	fields int
}

func (v *countingMemberVisitor) VisitProgramField(c *classfile.ProgramClass, f *classfile.ProgramField) {
	v.fields++
	v.MemberVisitor.VisitProgramField(c, f)
}

// recordingClassVisitor records the names of visited classes.
type recordingClassVisitor struct {
	names []string
}

func (v *recordingClassVisitor) VisitAnyClass(c classfile.Clazz) {}

func (v *recordingClassVisitor) VisitProgramClass(c *classfile.ProgramClass) {
	v.names = append(v.names, c.Name())
}

func (v *recordingClassVisitor) VisitLibraryClass(c *classfile.LibraryClass) {
	v.names = append(v.names, c.Name())
}
