package marker

import (
	"github.com/roach88/keepmark/internal/classfile"
	"github.com/roach88/keepmark/internal/usage"
)

// KotlinModuleUsageMarker prunes the file facades and multi-file class
// parts of every Kotlin module whose classes are not used. It filters
// only: it never marks anything.
type KotlinModuleUsageMarker struct {
	usage usage.Marker
}

// NewKotlinModuleUsageMarker creates the marker.
func NewKotlinModuleUsageMarker(m usage.Marker) *KotlinModuleUsageMarker {
	return &KotlinModuleUsageMarker{usage: m}
}

// VisitResourceFiles prunes the modules of every resource file in pool.
func (m *KotlinModuleUsageMarker) VisitResourceFiles(pool *classfile.ResourceFilePool) {
	for _, f := range pool.Files() {
		if f.KotlinModule != nil {
			m.VisitKotlinModule(f.KotlinModule)
		}
	}
}

// VisitKotlinModule prunes one module. FileFacadeNames and
// ReferencedFileFacades stay index-aligned.
func (m *KotlinModuleUsageMarker) VisitKotlinModule(module *classfile.KotlinModule) {
	for _, pkg := range module.Packages {
		names := make([]string, 0, len(pkg.FileFacadeNames))
		facades := make([]*classfile.ProgramClass, 0, len(pkg.FileFacadeNames))
		for i, name := range pkg.FileFacadeNames {
			var facade *classfile.ProgramClass
			if i < len(pkg.ReferencedFileFacades) {
				facade = pkg.ReferencedFileFacades[i]
			}
			if facade == nil || !m.usage.IsUsed(facade) {
				continue
			}
			names = append(names, name)
			facades = append(facades, facade)
		}
		pkg.FileFacadeNames = names
		pkg.ReferencedFileFacades = facades

		parts := make([]*classfile.KotlinMultiFilePart, 0, len(pkg.MultiFileClassParts))
		for _, part := range pkg.MultiFileClassParts {
			if part.ReferencedPart != nil && m.usage.IsUsed(part.ReferencedPart) {
				parts = append(parts, part)
			}
		}
		pkg.MultiFileClassParts = parts
	}
}
