package classfile

// Processable is a graph node that can carry a usage mark.
type Processable interface {
	ProcessingInfo() any
	SetProcessingInfo(info any)
}

// Processing is embedded by every markable node.
type Processing struct {
	info any
}

// ProcessingInfo returns the value attached to the node, or nil.
func (p *Processing) ProcessingInfo() any {
	return p.info
}

// SetProcessingInfo replaces the value attached to the node.
func (p *Processing) SetProcessingInfo(info any) {
	p.info = info
}

// Access flags shared by classes and members.
const (
	AccPublic     uint16 = 0x0001
	AccPrivate    uint16 = 0x0002
	AccProtected  uint16 = 0x0004
	AccStatic     uint16 = 0x0008
	AccFinal      uint16 = 0x0010
	AccSuper      uint16 = 0x0020
	AccBridge     uint16 = 0x0040
	AccVarargs    uint16 = 0x0080
	AccNative     uint16 = 0x0100
	AccInterface  uint16 = 0x0200
	AccAbstract   uint16 = 0x0400
	AccSynthetic  uint16 = 0x1000
	AccAnnotation uint16 = 0x2000
	AccEnum       uint16 = 0x4000
)

// Special method names and descriptors.
const (
	MethodNameInit   = "<init>"
	MethodNameClinit = "<clinit>"
	MethodTypeClinit = "()V"
)
