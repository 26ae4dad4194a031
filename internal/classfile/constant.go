package classfile

// ConstantTag identifies a constant-pool entry kind, using the class-file
// format's tag values.
type ConstantTag uint8

const (
	TagUtf8               ConstantTag = 1
	TagInteger            ConstantTag = 3
	TagFloat              ConstantTag = 4
	TagLong               ConstantTag = 5
	TagDouble             ConstantTag = 6
	TagClass              ConstantTag = 7
	TagString             ConstantTag = 8
	TagFieldref           ConstantTag = 9
	TagMethodref          ConstantTag = 10
	TagInterfaceMethodref ConstantTag = 11
	TagNameAndType        ConstantTag = 12
	TagMethodHandle       ConstantTag = 15
	TagMethodType         ConstantTag = 16
	TagDynamic            ConstantTag = 17
	TagInvokeDynamic      ConstantTag = 18
)

// Constant is a sealed interface over constant-pool entries.
// Indices held by constants point into the owning class's pool.
type Constant interface {
	Processable
	Tag() ConstantTag
	isConstant()
}

// Utf8Constant holds modified-UTF-8 text (names, descriptors, literals).
type Utf8Constant struct {
	Processing
	Value string
}

func (*Utf8Constant) Tag() ConstantTag { return TagUtf8 }
func (*Utf8Constant) isConstant()      {}

// IntegerConstant holds an int literal.
type IntegerConstant struct {
	Processing
	Value int32
}

func (*IntegerConstant) Tag() ConstantTag { return TagInteger }
func (*IntegerConstant) isConstant()      {}

// LongConstant holds a long literal.
type LongConstant struct {
	Processing
	Value int64
}

func (*LongConstant) Tag() ConstantTag { return TagLong }
func (*LongConstant) isConstant()      {}

// FloatConstant holds a float literal.
type FloatConstant struct {
	Processing
	Value float32
}

func (*FloatConstant) Tag() ConstantTag { return TagFloat }
func (*FloatConstant) isConstant()      {}

// DoubleConstant holds a double literal.
type DoubleConstant struct {
	Processing
	Value float64
}

func (*DoubleConstant) Tag() ConstantTag { return TagDouble }
func (*DoubleConstant) isConstant()      {}

// StringConstant is a string literal. A loader that recognizes reflective
// use (Class.forName, getResource) may link the literal to the class,
// member or resource file it names.
type StringConstant struct {
	Processing
	StringIndex int

	ReferencedClass    Clazz
	ReferencedMember   Member
	ReferencedResource *ResourceFile
}

func (*StringConstant) Tag() ConstantTag { return TagString }
func (*StringConstant) isConstant()      {}

// ClassConstant references a class by internal name. ReferencedClass is
// filled in lazily by Link and stays nil for classes outside both pools.
type ClassConstant struct {
	Processing
	NameIndex int

	ReferencedClass Clazz
}

func (*ClassConstant) Tag() ConstantTag { return TagClass }
func (*ClassConstant) isConstant()      {}

// NameAndTypeConstant pairs a member name with its descriptor.
type NameAndTypeConstant struct {
	Processing
	NameIndex       int
	DescriptorIndex int
}

func (*NameAndTypeConstant) Tag() ConstantTag { return TagNameAndType }
func (*NameAndTypeConstant) isConstant()      {}

// RefConstant is a field, method or interface-method reference.
type RefConstant struct {
	Processing
	RefTag           ConstantTag // TagFieldref, TagMethodref or TagInterfaceMethodref
	ClassIndex       int
	NameAndTypeIndex int

	ReferencedClass  Clazz
	ReferencedMember Member
}

func (c *RefConstant) Tag() ConstantTag { return c.RefTag }
func (*RefConstant) isConstant()        {}

// MethodHandleConstant wraps a field or method reference with a kind.
type MethodHandleConstant struct {
	Processing
	ReferenceKind  uint8
	ReferenceIndex int
}

func (*MethodHandleConstant) Tag() ConstantTag { return TagMethodHandle }
func (*MethodHandleConstant) isConstant()      {}

// MethodTypeConstant holds a method descriptor.
type MethodTypeConstant struct {
	Processing
	DescriptorIndex int
}

func (*MethodTypeConstant) Tag() ConstantTag { return TagMethodType }
func (*MethodTypeConstant) isConstant()      {}

// DynamicConstant is a dynamically computed call site (Invoke) or
// constant. BootstrapMethodIndex indexes the class's BootstrapMethods
// attribute, not the constant pool.
type DynamicConstant struct {
	Processing
	Invoke               bool
	BootstrapMethodIndex int
	NameAndTypeIndex     int
}

func (c *DynamicConstant) Tag() ConstantTag {
	if c.Invoke {
		return TagInvokeDynamic
	}
	return TagDynamic
}
func (*DynamicConstant) isConstant() {}
