package classfile

import (
	"fmt"
	"math"
)

// Builder assembles a ProgramClass, deduplicating constant-pool entries.
// Every method returning an int returns a constant-pool index.
//
//	b := NewBuilder("com/example/Main", "java/lang/Object", AccPublic)
//	run := b.MethodRef("com/example/Task", "run", "()V")
//	b.Method(AccPublic|AccStatic, "main", "([Ljava/lang/String;)V", b.Code(run))
//	main := b.Build()
type Builder struct {
	class   *ProgramClass
	entries map[string]int
}

// NewBuilder starts a class. An empty superName leaves SuperClass at 0.
func NewBuilder(name, superName string, access uint16) *Builder {
	b := &Builder{
		class:   &ProgramClass{Access: access, ConstantPool: []Constant{nil}},
		entries: make(map[string]int),
	}
	b.class.ThisClass = b.Class(name)
	if superName != "" {
		b.class.SuperClass = b.Class(superName)
	}
	return b
}

func (b *Builder) add(key string, c Constant) int {
	if index, ok := b.entries[key]; ok {
		return index
	}
	b.class.ConstantPool = append(b.class.ConstantPool, c)
	index := len(b.class.ConstantPool) - 1
	b.entries[key] = index
	return index
}

// Utf8 adds a text constant.
func (b *Builder) Utf8(s string) int {
	return b.add("utf8:"+s, &Utf8Constant{Value: s})
}

// Integer adds an int constant.
func (b *Builder) Integer(v int32) int {
	return b.add(fmt.Sprintf("int:%d", v), &IntegerConstant{Value: v})
}

// Long adds a long constant.
func (b *Builder) Long(v int64) int {
	return b.add(fmt.Sprintf("long:%d", v), &LongConstant{Value: v})
}

// Float adds a float constant.
func (b *Builder) Float(v float32) int {
	return b.add(fmt.Sprintf("float:%x", math.Float32bits(v)), &FloatConstant{Value: v})
}

// Double adds a double constant.
func (b *Builder) Double(v float64) int {
	return b.add(fmt.Sprintf("double:%x", math.Float64bits(v)), &DoubleConstant{Value: v})
}

// Class adds a class constant for an internal name.
func (b *Builder) Class(name string) int {
	nameIndex := b.Utf8(name)
	return b.add("class:"+name, &ClassConstant{NameIndex: nameIndex})
}

// String adds a string literal.
func (b *Builder) String(s string) int {
	stringIndex := b.Utf8(s)
	return b.add("string:"+s, &StringConstant{StringIndex: stringIndex})
}

// StringConstant returns the string constant at index, for linking it to
// a class, member or resource it names.
func (b *Builder) StringConstant(index int) *StringConstant {
	sc, _ := b.class.Constant(index).(*StringConstant)
	return sc
}

// NameAndType adds a name-and-type constant.
func (b *Builder) NameAndType(name, descriptor string) int {
	n, d := b.Utf8(name), b.Utf8(descriptor)
	return b.add("nat:"+name+":"+descriptor, &NameAndTypeConstant{NameIndex: n, DescriptorIndex: d})
}

func (b *Builder) ref(tag ConstantTag, class, name, descriptor string) int {
	ci, nat := b.Class(class), b.NameAndType(name, descriptor)
	key := fmt.Sprintf("ref%d:%s.%s:%s", tag, class, name, descriptor)
	return b.add(key, &RefConstant{RefTag: tag, ClassIndex: ci, NameAndTypeIndex: nat})
}

// FieldRef adds a field reference.
func (b *Builder) FieldRef(class, name, descriptor string) int {
	return b.ref(TagFieldref, class, name, descriptor)
}

// MethodRef adds a method reference.
func (b *Builder) MethodRef(class, name, descriptor string) int {
	return b.ref(TagMethodref, class, name, descriptor)
}

// InterfaceMethodRef adds an interface method reference.
func (b *Builder) InterfaceMethodRef(class, name, descriptor string) int {
	return b.ref(TagInterfaceMethodref, class, name, descriptor)
}

// MethodHandle adds a method handle over a reference constant.
func (b *Builder) MethodHandle(kind uint8, referenceIndex int) int {
	key := fmt.Sprintf("handle:%d:%d", kind, referenceIndex)
	return b.add(key, &MethodHandleConstant{ReferenceKind: kind, ReferenceIndex: referenceIndex})
}

// MethodType adds a method type constant.
func (b *Builder) MethodType(descriptor string) int {
	d := b.Utf8(descriptor)
	return b.add("mtype:"+descriptor, &MethodTypeConstant{DescriptorIndex: d})
}

// BootstrapMethod appends a bootstrap method to the class's
// BootstrapMethods attribute, creating the attribute on first use, and
// returns its index within the attribute.
func (b *Builder) BootstrapMethod(handleIndex int, arguments ...int) int {
	bm := b.class.BootstrapMethods()
	if bm == nil {
		bm = &BootstrapMethodsAttribute{NameIndex: b.Utf8(AttrBootstrapMethods)}
		b.class.Attributes = append(b.class.Attributes, bm)
	}
	bm.Methods = append(bm.Methods, &BootstrapMethodInfo{MethodHandleIndex: handleIndex, Arguments: arguments})
	return len(bm.Methods) - 1
}

// InvokeDynamic adds an invokedynamic call site.
func (b *Builder) InvokeDynamic(bootstrapIndex int, name, descriptor string) int {
	nat := b.NameAndType(name, descriptor)
	key := fmt.Sprintf("indy:%d:%d", bootstrapIndex, nat)
	return b.add(key, &DynamicConstant{Invoke: true, BootstrapMethodIndex: bootstrapIndex, NameAndTypeIndex: nat})
}

// Interface declares an implemented interface.
func (b *Builder) Interface(name string) *Builder {
	b.class.Interfaces = append(b.class.Interfaces, b.Class(name))
	return b
}

// Field declares a field.
func (b *Builder) Field(access uint16, name, descriptor string, attrs ...Attribute) *ProgramField {
	f := &ProgramField{
		Access:          access,
		NameIndex:       b.Utf8(name),
		DescriptorIndex: b.Utf8(descriptor),
		Attributes:      attrs,
	}
	b.class.AddField(f)
	return f
}

// Method declares a method.
func (b *Builder) Method(access uint16, name, descriptor string, attrs ...Attribute) *ProgramMethod {
	m := &ProgramMethod{
		Access:          access,
		NameIndex:       b.Utf8(name),
		DescriptorIndex: b.Utf8(descriptor),
		Attributes:      attrs,
	}
	b.class.AddMethod(m)
	return m
}

// Attribute attaches a class-level attribute.
func (b *Builder) Attribute(a Attribute) *Builder {
	b.class.Attributes = append(b.class.Attributes, a)
	return b
}

// Code creates a code attribute whose instructions reference the given
// constants.
func (b *Builder) Code(constantRefs ...int) *CodeAttribute {
	return &CodeAttribute{NameIndex: b.Utf8(AttrCode), ConstantRefs: constantRefs}
}

// SourceFile creates a SourceFile attribute.
func (b *Builder) SourceFile(name string) *SourceFileAttribute {
	return &SourceFileAttribute{NameIndex: b.Utf8(AttrSourceFile), SourceFileIndex: b.Utf8(name)}
}

// Signature creates a Signature attribute.
func (b *Builder) Signature(signature string) *SignatureAttribute {
	return &SignatureAttribute{NameIndex: b.Utf8(AttrSignature), SignatureIndex: b.Utf8(signature)}
}

// InnerClass describes one InnerClasses entry by name. Empty outer or
// simple names encode anonymous and local classes.
type InnerClass struct {
	Inner  string
	Outer  string
	Simple string
	Access uint16
}

// InnerClasses creates an InnerClasses attribute.
func (b *Builder) InnerClasses(entries ...InnerClass) *InnerClassesAttribute {
	a := &InnerClassesAttribute{NameIndex: b.Utf8(AttrInnerClasses)}
	for _, e := range entries {
		info := &InnerClassesInfo{InnerClassIndex: b.Class(e.Inner), Access: e.Access}
		if e.Outer != "" {
			info.OuterClassIndex = b.Class(e.Outer)
		}
		if e.Simple != "" {
			info.InnerNameIndex = b.Utf8(e.Simple)
		}
		a.Classes = append(a.Classes, info)
	}
	return a
}

// NestHost creates a NestHost attribute.
func (b *Builder) NestHost(host string) *NestHostAttribute {
	return &NestHostAttribute{NameIndex: b.Utf8(AttrNestHost), HostClassIndex: b.Class(host)}
}

// NestMembers creates a NestMembers attribute.
func (b *Builder) NestMembers(members ...string) *NestMembersAttribute {
	a := &NestMembersAttribute{NameIndex: b.Utf8(AttrNestMembers)}
	for _, m := range members {
		a.Classes = append(a.Classes, b.Class(m))
	}
	return a
}

// PermittedSubclasses creates a PermittedSubclasses attribute.
func (b *Builder) PermittedSubclasses(subclasses ...string) *PermittedSubclassesAttribute {
	a := &PermittedSubclassesAttribute{NameIndex: b.Utf8(AttrPermittedSubclasses)}
	for _, s := range subclasses {
		a.Classes = append(a.Classes, b.Class(s))
	}
	return a
}

// RecordComponent describes one record component by name and descriptor.
type RecordComponent struct {
	Name       string
	Descriptor string
}

// Record creates a Record attribute.
func (b *Builder) Record(components ...RecordComponent) *RecordAttribute {
	a := &RecordAttribute{NameIndex: b.Utf8(AttrRecord)}
	for _, rc := range components {
		a.Components = append(a.Components, &RecordComponentInfo{
			NameIndex:       b.Utf8(rc.Name),
			DescriptorIndex: b.Utf8(rc.Descriptor),
		})
	}
	return a
}

// Annotations creates an annotations attribute with one element-less
// annotation per type descriptor.
func (b *Builder) Annotations(visible bool, typeDescriptors ...string) *AnnotationsAttribute {
	name := AttrRuntimeInvisibleAnnotations
	if visible {
		name = AttrRuntimeVisibleAnnotations
	}
	a := &AnnotationsAttribute{NameIndex: b.Utf8(name), Visible: visible}
	for _, d := range typeDescriptors {
		a.Annotations = append(a.Annotations, &Annotation{TypeIndex: b.Utf8(d)})
	}
	return a
}

// AnnotationDefault creates an AnnotationDefault attribute.
func (b *Builder) AnnotationDefault(value ElementValue) *AnnotationDefaultAttribute {
	return &AnnotationDefaultAttribute{NameIndex: b.Utf8(AttrAnnotationDefault), DefaultValue: value}
}

// Build returns the assembled class. The builder must not be used
// afterwards.
func (b *Builder) Build() *ProgramClass {
	return b.class
}

// NewLibraryClass creates a library class with method signatures given as
// name+descriptor pairs, e.g. "run()V".
func NewLibraryClass(name, superName string, access uint16, interfaces []string, methods ...string) *LibraryClass {
	c := &LibraryClass{
		Access:         access,
		ClassName:      name,
		SuperClassName: superName,
		InterfaceNames: interfaces,
	}
	for _, sig := range methods {
		n, d := SplitMethodSignature(sig)
		c.AddMethod(&LibraryMethod{Access: AccPublic, MethodName: n, MethodDescriptor: d})
	}
	return c
}

// SplitMethodSignature splits "name(args)ret" into name and descriptor.
// A signature without '(' is returned as a name with an empty descriptor.
func SplitMethodSignature(sig string) (name, descriptor string) {
	for i := 0; i < len(sig); i++ {
		if sig[i] == '(' {
			return sig[:i], sig[i:]
		}
	}
	return sig, ""
}
