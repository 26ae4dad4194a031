package classfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_ReservesIndexZero(t *testing.T) {
	c := NewBuilder("com/example/A", "java/lang/Object", AccPublic).Build()

	require.NotEmpty(t, c.ConstantPool)
	assert.Nil(t, c.ConstantPool[0])
	assert.Nil(t, c.Constant(0))
	assert.Nil(t, c.Constant(-1))
	assert.Nil(t, c.Constant(len(c.ConstantPool)))
}

func TestBuilder_ClassNames(t *testing.T) {
	c := NewBuilder("com/example/A", "java/lang/Object", AccPublic).Build()

	assert.Equal(t, "com/example/A", c.Name())
	assert.Equal(t, "java/lang/Object", c.SuperName())
}

func TestBuilder_NoSuperclass(t *testing.T) {
	c := NewBuilder("java/lang/Object", "", AccPublic).Build()

	assert.Equal(t, 0, c.SuperClass)
	assert.Equal(t, "", c.SuperName())
}

func TestBuilder_DeduplicatesConstants(t *testing.T) {
	b := NewBuilder("com/example/A", "java/lang/Object", AccPublic)

	first := b.MethodRef("com/example/B", "run", "()V")
	second := b.MethodRef("com/example/B", "run", "()V")
	assert.Equal(t, first, second)

	assert.Equal(t, b.Utf8("run"), b.Utf8("run"))
	assert.Equal(t, b.Class("com/example/A"), b.Build().ThisClass)
	assert.NotEqual(t, b.MethodRef("com/example/B", "run", "()V"), b.InterfaceMethodRef("com/example/B", "run", "()V"))
}

func TestBuilder_RefConstantShape(t *testing.T) {
	b := NewBuilder("com/example/A", "java/lang/Object", AccPublic)
	index := b.FieldRef("com/example/B", "count", "I")
	c := b.Build()

	ref, ok := c.Constant(index).(*RefConstant)
	require.True(t, ok)
	assert.Equal(t, TagFieldref, ref.Tag())
	assert.Equal(t, "com/example/B", c.ClassName(ref.ClassIndex))

	nat, ok := c.Constant(ref.NameAndTypeIndex).(*NameAndTypeConstant)
	require.True(t, ok)
	assert.Equal(t, "count", c.Utf8(nat.NameIndex))
	assert.Equal(t, "I", c.Utf8(nat.DescriptorIndex))
}

func TestBuilder_MembersHaveOwner(t *testing.T) {
	b := NewBuilder("com/example/A", "java/lang/Object", AccPublic)
	f := b.Field(AccPrivate, "count", "I")
	m := b.Method(AccPublic, "run", "()V", b.Code())
	c := b.Build()

	assert.Same(t, c, f.Class())
	assert.Same(t, c, m.Class())
	assert.Equal(t, "count", f.Name())
	assert.Equal(t, "()V", m.Descriptor())
	assert.NotNil(t, m.Code())
	assert.Same(t, m, c.ProgramMethod("run", "()V"))
	assert.Same(t, f, c.ProgramField("count", "I"))
	assert.Nil(t, c.ProgramMethod("run", "(I)V"))
}

func TestBuilder_BootstrapMethods(t *testing.T) {
	b := NewBuilder("com/example/A", "java/lang/Object", AccPublic)
	handle := b.MethodHandle(6, b.MethodRef("java/lang/invoke/LambdaMetafactory", "metafactory", "()V"))

	first := b.BootstrapMethod(handle)
	second := b.BootstrapMethod(handle, b.MethodType("()V"))
	indy := b.InvokeDynamic(second, "run", "()Ljava/lang/Runnable;")
	c := b.Build()

	assert.Equal(t, 0, first)
	assert.Equal(t, 1, second)
	bm := c.BootstrapMethods()
	require.NotNil(t, bm)
	assert.Len(t, bm.Methods, 2)

	dyn, ok := c.Constant(indy).(*DynamicConstant)
	require.True(t, ok)
	assert.Equal(t, TagInvokeDynamic, dyn.Tag())
	assert.Equal(t, 1, dyn.BootstrapMethodIndex)
}

func TestBuilder_InnerClassesOptionalIndices(t *testing.T) {
	b := NewBuilder("com/example/A", "java/lang/Object", AccPublic)
	a := b.InnerClasses(
		InnerClass{Inner: "com/example/A$B", Outer: "com/example/A", Simple: "B"},
		InnerClass{Inner: "com/example/A$1"},
	)

	require.Len(t, a.Classes, 2)
	assert.NotZero(t, a.Classes[0].OuterClassIndex)
	assert.NotZero(t, a.Classes[0].InnerNameIndex)
	assert.Zero(t, a.Classes[1].OuterClassIndex)
	assert.Zero(t, a.Classes[1].InnerNameIndex)
}

func TestSplitMethodSignature(t *testing.T) {
	tests := []struct {
		sig        string
		name, desc string
	}{
		{"run()V", "run", "()V"},
		{"<init>(I)V", "<init>", "(I)V"},
		{"count", "count", ""},
	}
	for _, tt := range tests {
		t.Run(tt.sig, func(t *testing.T) {
			name, desc := SplitMethodSignature(tt.sig)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.desc, desc)
		})
	}
}
