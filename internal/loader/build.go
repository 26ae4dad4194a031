package loader

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/token"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/keepmark/internal/classfile"
	"github.com/roach88/keepmark/internal/shrink"
)

// Program is a linked description ready to be marked.
type Program struct {
	Pools *classfile.Pools
	Seeds shrink.Seeds

	// Unresolved lists the class names referenced but defined nowhere.
	// They stay unlinked and the marker treats them as outside the graph.
	Unresolved []string
}

// ObjectName is the implicit superclass of described classes.
const ObjectName = "java/lang/Object"

var accessFlags = map[string]uint16{
	"public":     classfile.AccPublic,
	"private":    classfile.AccPrivate,
	"protected":  classfile.AccProtected,
	"static":     classfile.AccStatic,
	"final":      classfile.AccFinal,
	"super":      classfile.AccSuper,
	"bridge":     classfile.AccBridge,
	"varargs":    classfile.AccVarargs,
	"native":     classfile.AccNative,
	"interface":  classfile.AccInterface,
	"abstract":   classfile.AccAbstract,
	"synthetic":  classfile.AccSynthetic,
	"annotation": classfile.AccAnnotation,
	"enum":       classfile.AccEnum,
}

type classDesc struct {
	Super       *string  `json:"super"`
	Access      []string `json:"access"`
	Interfaces  []string `json:"interfaces"`
	SourceFile  string   `json:"sourceFile"`
	Signature   string   `json:"signature"`
	Annotations []string `json:"annotations"`

	NestHost            string           `json:"nestHost"`
	NestMembers         []string         `json:"nestMembers"`
	PermittedSubclasses []string         `json:"permittedSubclasses"`
	InnerClasses        []innerClassDesc `json:"innerClasses"`
	Record              []componentDesc  `json:"record"`
}

type innerClassDesc struct {
	Inner  string   `json:"inner"`
	Outer  string   `json:"outer"`
	Name   string   `json:"name"`
	Access []string `json:"access"`
}

type componentDesc struct {
	Name       string `json:"name"`
	Descriptor string `json:"descriptor"`
}

type memberDesc struct {
	Access      []string  `json:"access"`
	Signature   string    `json:"signature"`
	Annotations []string  `json:"annotations"`
	Code        []refDesc `json:"code"`
}

type refDesc struct {
	Class           string `json:"class"`
	Field           string `json:"field"`
	Method          string `json:"method"`
	InterfaceMethod string `json:"interfaceMethod"`
	String          string `json:"string"`
}

type libraryDesc struct {
	Super      *string  `json:"super"`
	Access     []string `json:"access"`
	Interfaces []string `json:"interfaces"`
	Fields     []string `json:"fields"`
	Methods    []string `json:"methods"`
}

type resourceDesc struct {
	Size         int64             `json:"size"`
	KotlinModule *kotlinModuleDesc `json:"kotlinModule"`
}

type kotlinModuleDesc struct {
	Name     string                       `json:"name"`
	Packages map[string]kotlinPackageDesc `json:"packages"`
}

type kotlinPackageDesc struct {
	Facades []string          `json:"facades"`
	Parts   map[string]string `json:"parts"`
}

type keepDesc struct {
	Classes   []string `json:"classes"`
	Members   []string `json:"members"`
	Resources []string `json:"resources"`
}

type builder struct {
	pools *classfile.Pools

	// src is the description before unification with the schema. Its
	// values have a single source, so their positions point into the
	// user's files.
	src cue.Value
}

// pos returns the position of v in the user's files.
func (b *builder) pos(v cue.Value) token.Pos {
	if p := b.src.LookupPath(v.Path()).Pos(); p.IsValid() {
		return p
	}
	return v.Pos()
}

// classPos returns the position of the class or library entry named
// name, or no position.
func (b *builder) classPos(v cue.Value, name string) token.Pos {
	for _, section := range []string{"classes", "library"} {
		if c := v.LookupPath(cue.MakePath(cue.Str(section), cue.Str(name))); c.Exists() {
			return b.pos(c)
		}
	}
	return token.NoPos
}

// build turns a validated description into linked pools and seeds.
func build(v, src cue.Value) (*Program, error) {
	b := &builder{
		pools: &classfile.Pools{
			Program:   classfile.NewClassPool(),
			Library:   classfile.NewClassPool(),
			Resources: classfile.NewResourceFilePool(),
		},
		src: src,
	}

	if err := eachField(v, "classes", b.programClass); err != nil {
		return nil, err
	}
	if err := eachField(v, "library", b.libraryClass); err != nil {
		return nil, err
	}
	if err := eachField(v, "resources", b.resource); err != nil {
		return nil, err
	}

	prog := &Program{Pools: b.pools}
	if err := classfile.Link(b.pools.Program, b.pools.Library); err != nil {
		var (
			le *classfile.LinkError
			ce *classfile.HierarchyCycleError
		)
		switch {
		case errors.As(err, &ce):
			return nil, &LoadError{Code: ErrCodeCycle, Message: ce.Error(), Pos: b.classPos(v, ce.Path[0])}
		case errors.As(err, &le):
			prog.Unresolved = le.Missing
		default:
			return nil, fmt.Errorf("linking: %w", err)
		}
	}
	classfile.LinkKotlinModules(b.pools.Resources, b.pools.Program)
	b.linkStrings()

	seeds, err := b.keepSeeds(v)
	if err != nil {
		return nil, err
	}
	prog.Seeds = seeds
	return prog, nil
}

// eachField calls fn for every field of the struct at path, in
// declaration order.
func eachField(v cue.Value, path string, fn func(name string, v cue.Value) error) error {
	s := v.LookupPath(cue.ParsePath(path))
	if !s.Exists() {
		return nil
	}
	iter, err := s.Fields()
	if err != nil {
		return formatCUEError(err, ErrCodeSchema)
	}
	for iter.Next() {
		if err := fn(nfc(iter.Selector().Unquoted()), iter.Value()); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) programClass(name string, v cue.Value) error {
	var d classDesc
	if err := v.Decode(&d); err != nil {
		return formatCUEError(err, ErrCodeSchema)
	}

	super := superName(name, d.Super)
	cb := classfile.NewBuilder(name, super, flags(d.Access))
	for _, i := range d.Interfaces {
		cb.Interface(nfc(i))
	}
	if d.SourceFile != "" {
		cb.Attribute(cb.SourceFile(d.SourceFile))
	}
	if d.Signature != "" {
		cb.Attribute(cb.Signature(d.Signature))
	}
	if len(d.Annotations) > 0 {
		cb.Attribute(cb.Annotations(true, annotationTypes(d.Annotations)...))
	}
	if d.NestHost != "" {
		cb.Attribute(cb.NestHost(nfc(d.NestHost)))
	}
	if len(d.NestMembers) > 0 {
		cb.Attribute(cb.NestMembers(nfcAll(d.NestMembers)...))
	}
	if len(d.PermittedSubclasses) > 0 {
		cb.Attribute(cb.PermittedSubclasses(nfcAll(d.PermittedSubclasses)...))
	}
	if len(d.InnerClasses) > 0 {
		entries := make([]classfile.InnerClass, 0, len(d.InnerClasses))
		for _, ic := range d.InnerClasses {
			entries = append(entries, classfile.InnerClass{
				Inner:  nfc(ic.Inner),
				Outer:  nfc(ic.Outer),
				Simple: nfc(ic.Name),
				Access: flags(ic.Access),
			})
		}
		cb.Attribute(cb.InnerClasses(entries...))
	}
	if len(d.Record) > 0 {
		components := make([]classfile.RecordComponent, 0, len(d.Record))
		for _, rc := range d.Record {
			components = append(components, classfile.RecordComponent{Name: nfc(rc.Name), Descriptor: nfc(rc.Descriptor)})
		}
		cb.Attribute(cb.Record(components...))
	}

	err := eachField(v, "fields", func(sig string, fv cue.Value) error {
		return b.field(cb, sig, fv)
	})
	if err != nil {
		return err
	}
	err = eachField(v, "methods", func(sig string, mv cue.Value) error {
		return b.method(cb, sig, mv)
	})
	if err != nil {
		return err
	}

	c := cb.Build()
	if err := b.pools.Program.Add(c); err != nil {
		return &LoadError{Code: ErrCodeDuplicate, Message: err.Error(), Pos: b.pos(v)}
	}
	return nil
}

func (b *builder) field(cb *classfile.Builder, sig string, v cue.Value) error {
	name, descriptor, ok := strings.Cut(sig, ":")
	if !ok || name == "" || descriptor == "" {
		return &LoadError{Code: ErrCodeSignature, Message: fmt.Sprintf("field %q: want name:descriptor", sig), Pos: b.pos(v)}
	}
	var d memberDesc
	if err := v.Decode(&d); err != nil {
		return formatCUEError(err, ErrCodeSchema)
	}
	cb.Field(flags(d.Access), name, descriptor, memberAttributes(cb, d)...)
	return nil
}

func (b *builder) method(cb *classfile.Builder, sig string, v cue.Value) error {
	name, descriptor := classfile.SplitMethodSignature(sig)
	if name == "" || descriptor == "" {
		return &LoadError{Code: ErrCodeSignature, Message: fmt.Sprintf("method %q: want name(args)return", sig), Pos: b.pos(v)}
	}
	var d memberDesc
	if err := v.Decode(&d); err != nil {
		return formatCUEError(err, ErrCodeSchema)
	}
	access := flags(d.Access)

	attrs := memberAttributes(cb, d)
	if access&(classfile.AccAbstract|classfile.AccNative) == 0 {
		refs := make([]int, 0, len(d.Code))
		for _, r := range d.Code {
			index, err := b.ref(cb, r)
			if err != nil {
				return &LoadError{Code: ErrCodeSignature, Message: fmt.Sprintf("method %s: %v", sig, err), Pos: b.pos(v)}
			}
			refs = append(refs, index)
		}
		attrs = append([]classfile.Attribute{cb.Code(refs...)}, attrs...)
	} else if len(d.Code) > 0 {
		return &LoadError{Code: ErrCodeSignature, Message: fmt.Sprintf("method %s: abstract or native method with code", sig), Pos: b.pos(v)}
	}
	cb.Method(access, name, descriptor, attrs...)
	return nil
}

// ref adds the constant a code reference names and returns its index.
func (b *builder) ref(cb *classfile.Builder, r refDesc) (int, error) {
	switch {
	case r.Class != "":
		return cb.Class(nfc(r.Class)), nil
	case r.Field != "":
		class, name, descriptor, err := splitMemberRef(r.Field)
		if err != nil {
			return 0, err
		}
		if descriptor == "" {
			return 0, fmt.Errorf("field reference %q has no descriptor", r.Field)
		}
		return cb.FieldRef(class, name, descriptor), nil
	case r.Method != "", r.InterfaceMethod != "":
		ref := r.Method + r.InterfaceMethod
		class, name, descriptor, err := splitMemberRef(ref)
		if err != nil {
			return 0, err
		}
		if descriptor == "" {
			return 0, fmt.Errorf("method reference %q has no descriptor", ref)
		}
		if r.InterfaceMethod != "" {
			return cb.InterfaceMethodRef(class, name, descriptor), nil
		}
		return cb.MethodRef(class, name, descriptor), nil
	default:
		return cb.String(nfc(r.String)), nil
	}
}

func memberAttributes(cb *classfile.Builder, d memberDesc) []classfile.Attribute {
	var attrs []classfile.Attribute
	if d.Signature != "" {
		attrs = append(attrs, cb.Signature(d.Signature))
	}
	if len(d.Annotations) > 0 {
		attrs = append(attrs, cb.Annotations(true, annotationTypes(d.Annotations)...))
	}
	return attrs
}

func (b *builder) libraryClass(name string, v cue.Value) error {
	var d libraryDesc
	if err := v.Decode(&d); err != nil {
		return formatCUEError(err, ErrCodeSchema)
	}
	methods := nfcAll(d.Methods)
	for _, sig := range methods {
		if n, desc := classfile.SplitMethodSignature(sig); n == "" || desc == "" {
			return &LoadError{Code: ErrCodeSignature, Message: fmt.Sprintf("library method %q: want name(args)return", sig), Pos: b.pos(v)}
		}
	}
	c := classfile.NewLibraryClass(name, superName(name, d.Super), flags(d.Access), nfcAll(d.Interfaces), methods...)
	for _, sig := range nfcAll(d.Fields) {
		n, desc, ok := strings.Cut(sig, ":")
		if !ok || n == "" || desc == "" {
			return &LoadError{Code: ErrCodeSignature, Message: fmt.Sprintf("library field %q: want name:descriptor", sig), Pos: b.pos(v)}
		}
		c.AddField(&classfile.LibraryField{Access: classfile.AccPublic, FieldName: n, FieldDescriptor: desc})
	}

	if b.pools.Program.Get(name) != nil {
		return &LoadError{Code: ErrCodeDuplicate, Message: fmt.Sprintf("%s is both a program and a library class", name), Pos: b.pos(v)}
	}
	if err := b.pools.Library.Add(c); err != nil {
		return &LoadError{Code: ErrCodeDuplicate, Message: err.Error(), Pos: b.pos(v)}
	}
	return nil
}

func (b *builder) resource(name string, v cue.Value) error {
	var d resourceDesc
	if err := v.Decode(&d); err != nil {
		return formatCUEError(err, ErrCodeSchema)
	}
	f := &classfile.ResourceFile{FileName: name, Size: d.Size}
	if km := d.KotlinModule; km != nil {
		f.KotlinModule = kotlinModule(km)
	}
	b.pools.Resources.Add(f)
	return nil
}

// kotlinModule converts a module description. Packages and parts are
// sorted by name.
func kotlinModule(d *kotlinModuleDesc) *classfile.KotlinModule {
	m := &classfile.KotlinModule{Name: d.Name}
	for _, fqName := range sortedKeys(d.Packages) {
		pd := d.Packages[fqName]
		pkg := &classfile.KotlinModulePackage{FqName: fqName, FileFacadeNames: nfcAll(pd.Facades)}
		for _, part := range sortedKeys(pd.Parts) {
			pkg.MultiFileClassParts = append(pkg.MultiFileClassParts, &classfile.KotlinMultiFilePart{
				PartName:   nfc(part),
				FacadeName: nfc(pd.Parts[part]),
			})
		}
		m.Packages = append(m.Packages, pkg)
	}
	return m
}

// linkStrings points string constants at the resource file or class they
// name. Resource files win over classes.
func (b *builder) linkStrings() {
	for _, c := range b.pools.Program.Classes() {
		pc, ok := c.(*classfile.ProgramClass)
		if !ok {
			continue
		}
		for _, constant := range pc.ConstantPool {
			sc, ok := constant.(*classfile.StringConstant)
			if !ok {
				continue
			}
			s := pc.Utf8(sc.StringIndex)
			if f := b.pools.Resources.Get(s); f != nil {
				sc.ReferencedResource = f
				continue
			}
			if target := b.pools.Lookup(classfile.InternalClassName(s)); target != nil {
				sc.ReferencedClass = target
			}
		}
	}
}

func (b *builder) keepSeeds(v cue.Value) (shrink.Seeds, error) {
	var seeds shrink.Seeds
	kv := v.LookupPath(cue.ParsePath("keep"))
	if !kv.Exists() {
		return seeds, nil
	}
	var d keepDesc
	if err := kv.Decode(&d); err != nil {
		return seeds, formatCUEError(err, ErrCodeSchema)
	}
	for _, name := range d.Classes {
		seeds.Classes = append(seeds.Classes, classfile.InternalClassName(nfc(name)))
	}
	for _, ref := range d.Members {
		class, name, descriptor, err := splitMemberRef(ref)
		if err != nil {
			return seeds, &LoadError{Code: ErrCodeSignature, Message: fmt.Sprintf("keep: %v", err), Pos: b.pos(kv)}
		}
		seeds.Members = append(seeds.Members, shrink.MemberSeed{Class: class, Name: name, Descriptor: descriptor})
	}
	seeds.Resources = nfcAll(d.Resources)
	return seeds, nil
}

// splitMemberRef splits "owner.name(args)ret", "owner.name:descriptor" or
// "owner.name". Internal class names never contain '.', so the first dot
// ends the owner.
func splitMemberRef(ref string) (class, name, descriptor string, err error) {
	ref = nfc(ref)
	class, sig, ok := strings.Cut(ref, ".")
	if !ok || class == "" || sig == "" {
		return "", "", "", fmt.Errorf("member reference %q: want owner.name", ref)
	}
	if strings.Contains(sig, "(") {
		name, descriptor = classfile.SplitMethodSignature(sig)
	} else {
		name, descriptor, _ = strings.Cut(sig, ":")
	}
	if name == "" {
		return "", "", "", fmt.Errorf("member reference %q: empty member name", ref)
	}
	return class, name, descriptor, nil
}

// superName resolves the super key: absent means java/lang/Object, empty
// means none.
func superName(name string, super *string) string {
	switch {
	case super != nil:
		return nfc(*super)
	case name == ObjectName:
		return ""
	default:
		return ObjectName
	}
}

func flags(names []string) uint16 {
	var access uint16
	for _, n := range names {
		access |= accessFlags[n]
	}
	return access
}

// annotationTypes accepts class names or type descriptors.
func annotationTypes(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = nfc(n)
		if !strings.HasPrefix(n, "L") || !strings.HasSuffix(n, ";") {
			n = "L" + n + ";"
		}
		out = append(out, n)
	}
	return out
}

func nfc(s string) string {
	return norm.NFC.String(s)
}

func nfcAll(names []string) []string {
	if names == nil {
		return nil
	}
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = nfc(n)
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
