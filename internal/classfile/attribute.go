package classfile

// Attribute names as they appear in the constant pool.
const (
	AttrCode                        = "Code"
	AttrConstantValue               = "ConstantValue"
	AttrExceptions                  = "Exceptions"
	AttrSignature                   = "Signature"
	AttrSourceFile                  = "SourceFile"
	AttrEnclosingMethod             = "EnclosingMethod"
	AttrInnerClasses                = "InnerClasses"
	AttrNestHost                    = "NestHost"
	AttrNestMembers                 = "NestMembers"
	AttrPermittedSubclasses         = "PermittedSubclasses"
	AttrRecord                      = "Record"
	AttrBootstrapMethods            = "BootstrapMethods"
	AttrAnnotationDefault           = "AnnotationDefault"
	AttrRuntimeVisibleAnnotations   = "RuntimeVisibleAnnotations"
	AttrRuntimeInvisibleAnnotations = "RuntimeInvisibleAnnotations"
)

// Attribute is a sealed interface over the attribute kinds the marker
// understands. Each attribute is attached to exactly one class, member,
// code attribute or record component.
type Attribute interface {
	Processable
	AttributeNameIndex() int
	isAttribute()
}

// ExceptionInfo is one exception-table row of a code attribute.
// CatchType is 0 for a catch-all handler.
type ExceptionInfo struct {
	StartPC   int
	EndPC     int
	HandlerPC int
	CatchType int
}

// CodeAttribute summarizes a method body by the constant-pool entries its
// instructions reference. Instruction encoding is the loader's concern.
type CodeAttribute struct {
	Processing
	NameIndex      int
	MaxStack       int
	MaxLocals      int
	CodeLength     int
	ConstantRefs   []int
	ExceptionTable []ExceptionInfo
	Attributes     []Attribute
}

func (a *CodeAttribute) AttributeNameIndex() int { return a.NameIndex }
func (*CodeAttribute) isAttribute()              {}

// ConstantValueAttribute gives a static field its initial value.
type ConstantValueAttribute struct {
	Processing
	NameIndex          int
	ConstantValueIndex int
}

func (a *ConstantValueAttribute) AttributeNameIndex() int { return a.NameIndex }
func (*ConstantValueAttribute) isAttribute()              {}

// ExceptionsAttribute lists the checked exceptions a method declares.
type ExceptionsAttribute struct {
	Processing
	NameIndex        int
	ExceptionIndices []int
}

func (a *ExceptionsAttribute) AttributeNameIndex() int { return a.NameIndex }
func (*ExceptionsAttribute) isAttribute()              {}

// SignatureAttribute holds a generic signature.
type SignatureAttribute struct {
	Processing
	NameIndex      int
	SignatureIndex int
}

func (a *SignatureAttribute) AttributeNameIndex() int { return a.NameIndex }
func (*SignatureAttribute) isAttribute()              {}

// SourceFileAttribute names the source file.
type SourceFileAttribute struct {
	Processing
	NameIndex       int
	SourceFileIndex int
}

func (a *SourceFileAttribute) AttributeNameIndex() int { return a.NameIndex }
func (*SourceFileAttribute) isAttribute()              {}

// EnclosingMethodAttribute links a local or anonymous class to its
// enclosing class and, optionally, method.
type EnclosingMethodAttribute struct {
	Processing
	NameIndex   int
	ClassIndex  int
	MethodIndex int
}

func (a *EnclosingMethodAttribute) AttributeNameIndex() int { return a.NameIndex }
func (*EnclosingMethodAttribute) isAttribute()              {}

// InnerClassesInfo is one entry of an InnerClasses attribute. Outer class
// and inner name indices are 0 for anonymous and local classes.
type InnerClassesInfo struct {
	Processing
	InnerClassIndex int
	OuterClassIndex int
	InnerNameIndex  int
	Access          uint16
}

// InnerClassesAttribute lists inner-class relationships.
type InnerClassesAttribute struct {
	Processing
	NameIndex int
	Classes   []*InnerClassesInfo
}

func (a *InnerClassesAttribute) AttributeNameIndex() int { return a.NameIndex }
func (*InnerClassesAttribute) isAttribute()              {}

// NestHostAttribute names the host of the nest this class belongs to.
type NestHostAttribute struct {
	Processing
	NameIndex      int
	HostClassIndex int
}

func (a *NestHostAttribute) AttributeNameIndex() int { return a.NameIndex }
func (*NestHostAttribute) isAttribute()              {}

// NestMembersAttribute lists the members of the nest hosted by this class.
type NestMembersAttribute struct {
	Processing
	NameIndex int
	Classes   []int
}

func (a *NestMembersAttribute) AttributeNameIndex() int { return a.NameIndex }
func (*NestMembersAttribute) isAttribute()              {}

// MemberClassConstantsAccept calls fn with each nest member class constant.
func (a *NestMembersAttribute) MemberClassConstantsAccept(c *ProgramClass, fn func(index int, constant *ClassConstant)) {
	for _, index := range a.Classes {
		if cc, ok := c.Constant(index).(*ClassConstant); ok {
			fn(index, cc)
		}
	}
}

// PermittedSubclassesAttribute lists the permitted subclasses of a sealed
// class.
type PermittedSubclassesAttribute struct {
	Processing
	NameIndex int
	Classes   []int
}

func (a *PermittedSubclassesAttribute) AttributeNameIndex() int { return a.NameIndex }
func (*PermittedSubclassesAttribute) isAttribute()              {}

// PermittedSubclassConstantsAccept calls fn with each permitted subclass
// class constant.
func (a *PermittedSubclassesAttribute) PermittedSubclassConstantsAccept(c *ProgramClass, fn func(index int, constant *ClassConstant)) {
	for _, index := range a.Classes {
		if cc, ok := c.Constant(index).(*ClassConstant); ok {
			fn(index, cc)
		}
	}
}

// RecordComponentInfo is one component of a record class.
type RecordComponentInfo struct {
	Processing
	NameIndex       int
	DescriptorIndex int
	Attributes      []Attribute
}

// RecordAttribute lists the components of a record class.
type RecordAttribute struct {
	Processing
	NameIndex  int
	Components []*RecordComponentInfo
}

func (a *RecordAttribute) AttributeNameIndex() int { return a.NameIndex }
func (*RecordAttribute) isAttribute()              {}

// BootstrapMethodInfo is one bootstrap method with its static arguments.
type BootstrapMethodInfo struct {
	Processing
	MethodHandleIndex int
	Arguments         []int
}

// BootstrapMethodsAttribute holds the class's bootstrap methods, indexed
// by DynamicConstant.BootstrapMethodIndex.
type BootstrapMethodsAttribute struct {
	Processing
	NameIndex int
	Methods   []*BootstrapMethodInfo
}

func (a *BootstrapMethodsAttribute) AttributeNameIndex() int { return a.NameIndex }
func (*BootstrapMethodsAttribute) isAttribute()              {}

// AnnotationDefaultAttribute holds the default value of an annotation
// interface element. Its element value carries no element name.
type AnnotationDefaultAttribute struct {
	Processing
	NameIndex    int
	DefaultValue ElementValue
}

func (a *AnnotationDefaultAttribute) AttributeNameIndex() int { return a.NameIndex }
func (*AnnotationDefaultAttribute) isAttribute()              {}

// Annotation is one annotation instance. ReferencedClass is the
// annotation interface, resolved by Link from the type descriptor.
type Annotation struct {
	Processing
	TypeIndex     int
	ElementValues []ElementValue

	ReferencedClass Clazz
}

// AnnotationsAttribute is a RuntimeVisibleAnnotations or
// RuntimeInvisibleAnnotations container.
type AnnotationsAttribute struct {
	Processing
	NameIndex   int
	Visible     bool
	Annotations []*Annotation
}

func (a *AnnotationsAttribute) AttributeNameIndex() int { return a.NameIndex }
func (*AnnotationsAttribute) isAttribute()              {}

// UnknownAttribute is any attribute the marker does not interpret.
// It is never marked, so the sweep drops it.
type UnknownAttribute struct {
	Processing
	NameIndex int
	Length    int
}

func (a *UnknownAttribute) AttributeNameIndex() int { return a.NameIndex }
func (*UnknownAttribute) isAttribute()              {}

// ElementValue is a sealed interface over annotation element values.
// ElementNameIndex is 0 where the format has no element name, as in an
// AnnotationDefault attribute or inside an array.
type ElementValue interface {
	ElementName() int
	isElementValue()
}

// ConstantElementValue is a primitive or String element value.
type ConstantElementValue struct {
	ElementNameIndex   int
	ValueTag           byte
	ConstantValueIndex int
}

func (v *ConstantElementValue) ElementName() int { return v.ElementNameIndex }
func (*ConstantElementValue) isElementValue()    {}

// EnumConstantElementValue is an enum constant element value.
type EnumConstantElementValue struct {
	ElementNameIndex  int
	TypeNameIndex     int
	ConstantNameIndex int

	ReferencedClass Clazz
}

func (v *EnumConstantElementValue) ElementName() int { return v.ElementNameIndex }
func (*EnumConstantElementValue) isElementValue()    {}

// ClassElementValue is a class literal element value.
type ClassElementValue struct {
	ElementNameIndex int
	ClassInfoIndex   int

	ReferencedClass Clazz
}

func (v *ClassElementValue) ElementName() int { return v.ElementNameIndex }
func (*ClassElementValue) isElementValue()    {}

// AnnotationElementValue is a nested annotation element value.
type AnnotationElementValue struct {
	ElementNameIndex int
	Annotation       *Annotation
}

func (v *AnnotationElementValue) ElementName() int { return v.ElementNameIndex }
func (*AnnotationElementValue) isElementValue()    {}

// ArrayElementValue is an array of element values.
type ArrayElementValue struct {
	ElementNameIndex int
	Values           []ElementValue
}

func (v *ArrayElementValue) ElementName() int { return v.ElementNameIndex }
func (*ArrayElementValue) isElementValue()    {}
