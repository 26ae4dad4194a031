package classfile

import (
	"errors"
	"fmt"
)

// ErrDuplicateClass is returned when a pool already holds a class with the
// same name.
var ErrDuplicateClass = errors.New("duplicate class")

// ClassPool is a named, insertion-ordered collection of classes.
// Markers read the pool and write per-node marks; they never change its
// membership.
type ClassPool struct {
	classes []Clazz
	byName  map[string]Clazz
}

// NewClassPool creates a pool holding the given classes in order.
// It panics on duplicate names; use Add to handle them as errors.
func NewClassPool(classes ...Clazz) *ClassPool {
	p := &ClassPool{byName: make(map[string]Clazz, len(classes))}
	for _, c := range classes {
		if err := p.Add(c); err != nil {
			panic(err)
		}
	}
	return p
}

// Add appends a class.
func (p *ClassPool) Add(c Clazz) error {
	if p.byName == nil {
		p.byName = make(map[string]Clazz)
	}
	name := c.Name()
	if _, ok := p.byName[name]; ok {
		return fmt.Errorf("add %s: %w", name, ErrDuplicateClass)
	}
	p.classes = append(p.classes, c)
	p.byName[name] = c
	return nil
}

// Get returns the class with the given internal name, or nil.
func (p *ClassPool) Get(name string) Clazz {
	if p == nil {
		return nil
	}
	return p.byName[name]
}

// Classes returns the classes in insertion order. The slice is shared;
// callers must not modify it.
func (p *ClassPool) Classes() []Clazz {
	if p == nil {
		return nil
	}
	return p.classes
}

// Size returns the number of classes.
func (p *ClassPool) Size() int {
	if p == nil {
		return 0
	}
	return len(p.classes)
}

// ClassesAccept visits every class in insertion order.
func (p *ClassPool) ClassesAccept(v ClassVisitor) {
	for _, c := range p.Classes() {
		Accept(c, v)
	}
}

// ResourceFile is a non-class file shipped with the program.
type ResourceFile struct {
	Processing
	FileName string
	Size     int64

	// KotlinModule is set for META-INF/*.kotlin_module files.
	KotlinModule *KotlinModule
}

// ResourceFilePool is an insertion-ordered collection of resource files.
type ResourceFilePool struct {
	files  []*ResourceFile
	byName map[string]*ResourceFile
}

// NewResourceFilePool creates a pool holding the given files in order.
func NewResourceFilePool(files ...*ResourceFile) *ResourceFilePool {
	p := &ResourceFilePool{byName: make(map[string]*ResourceFile, len(files))}
	for _, f := range files {
		p.Add(f)
	}
	return p
}

// Add appends a resource file, replacing any file with the same name in
// the index.
func (p *ResourceFilePool) Add(f *ResourceFile) {
	if p.byName == nil {
		p.byName = make(map[string]*ResourceFile)
	}
	p.files = append(p.files, f)
	p.byName[f.FileName] = f
}

// Get returns the resource file with the given name, or nil.
func (p *ResourceFilePool) Get(name string) *ResourceFile {
	if p == nil {
		return nil
	}
	return p.byName[name]
}

// Files returns the files in insertion order.
func (p *ResourceFilePool) Files() []*ResourceFile {
	if p == nil {
		return nil
	}
	return p.files
}

// Pools bundles the three pools a marking run works on.
type Pools struct {
	Program   *ClassPool
	Library   *ClassPool
	Resources *ResourceFilePool
}

// Lookup finds a class by name, preferring the program pool.
func (p *Pools) Lookup(name string) Clazz {
	if c := p.Program.Get(name); c != nil {
		return c
	}
	return p.Library.Get(name)
}

// NodeCount returns the number of markable nodes across all pools. It
// bounds the length of any acyclic chain of marks.
func (p *Pools) NodeCount() int {
	n := 0
	for _, pool := range []*ClassPool{p.Program, p.Library} {
		for _, c := range pool.Classes() {
			switch c := c.(type) {
			case *ProgramClass:
				n += programClassNodes(c)
			case *LibraryClass:
				n += 1 + len(c.Fields) + len(c.Methods)
			}
		}
	}
	for _, f := range p.Resources.Files() {
		n++
		if f.KotlinModule != nil {
			n++
		}
	}
	return n
}

func programClassNodes(c *ProgramClass) int {
	n := 1 + len(c.ConstantPool) + attributeNodes(c.Attributes)
	for _, f := range c.Fields {
		n += 1 + attributeNodes(f.Attributes)
	}
	for _, m := range c.Methods {
		n += 1 + attributeNodes(m.Attributes)
	}
	return n
}

func attributeNodes(attrs []Attribute) int {
	n := len(attrs)
	for _, a := range attrs {
		switch a := a.(type) {
		case *CodeAttribute:
			n += attributeNodes(a.Attributes)
		case *InnerClassesAttribute:
			n += len(a.Classes)
		case *RecordAttribute:
			for _, rc := range a.Components {
				n += 1 + attributeNodes(rc.Attributes)
			}
		case *BootstrapMethodsAttribute:
			n += len(a.Methods)
		case *AnnotationsAttribute:
			n += len(a.Annotations)
		}
	}
	return n
}
