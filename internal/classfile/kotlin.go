package classfile

// KotlinModule is the parsed content of a META-INF/<name>.kotlin_module
// resource: for each package, the file facades and multi-file class parts
// compiled into this module.
type KotlinModule struct {
	Processing
	Name     string
	Packages []*KotlinModulePackage
}

// KotlinModulePackage lists the facades of one package.
//
// FileFacadeNames and ReferencedFileFacades are index-aligned; a nil
// reference means the facade class was not found in the program pool.
type KotlinModulePackage struct {
	FqName                string
	FileFacadeNames       []string
	ReferencedFileFacades []*ProgramClass
	MultiFileClassParts   []*KotlinMultiFilePart
}

// KotlinMultiFilePart maps a multi-file class part to its facade.
type KotlinMultiFilePart struct {
	PartName   string
	FacadeName string

	ReferencedPart *ProgramClass
}

// LinkKotlinModules resolves facade and part names of every Kotlin module
// in resources against the program pool.
func LinkKotlinModules(resources *ResourceFilePool, program *ClassPool) {
	for _, f := range resources.Files() {
		if f.KotlinModule == nil {
			continue
		}
		for _, pkg := range f.KotlinModule.Packages {
			pkg.ReferencedFileFacades = make([]*ProgramClass, len(pkg.FileFacadeNames))
			for i, name := range pkg.FileFacadeNames {
				pkg.ReferencedFileFacades[i], _ = program.Get(name).(*ProgramClass)
			}
			for _, part := range pkg.MultiFileClassParts {
				part.ReferencedPart, _ = program.Get(part.PartName).(*ProgramClass)
			}
		}
	}
}
