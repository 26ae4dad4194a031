package loader

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
)

//go:embed schema.cue
var schemaCUE string

// Loader compiles program descriptions. A Loader owns one CUE context
// and is not safe for concurrent use.
type Loader struct {
	ctx     *cue.Context
	program cue.Value
}

// New creates a Loader with the description schema compiled.
func New() *Loader {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		panic(fmt.Sprintf("loader: invalid embedded schema: %v", err))
	}
	return &Loader{
		ctx:     ctx,
		program: schema.LookupPath(cue.ParsePath("#Program")),
	}
}

// Load reads a description from a .cue file or from every .cue file of a
// directory.
func (l *Loader) Load(path string) (*Program, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("path not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing %s: %v", path, err)}
	}
	if info.IsDir() {
		return l.LoadDir(path)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading %s: %v", path, err)}
	}
	return l.LoadSource(path, src)
}

// LoadDir loads the CUE package in dir.
func (l *Loader) LoadDir(dir string) (*Program, error) {
	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(files) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, formatCUEError(inst.Err, ErrCodeLoadFailed)
	}

	value := l.ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err, ErrCodeLoadFailed)
	}
	return l.compile(value)
}

// LoadSource compiles a description held in memory. filename is used in
// error positions only.
func (l *Loader) LoadSource(filename string, src []byte) (*Program, error) {
	value := l.ctx.CompileBytes(src, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err, ErrCodeLoadFailed)
	}
	return l.compile(value)
}

// compile validates v against the schema and builds the program. v must
// come from l's context.
func (l *Loader) compile(v cue.Value) (*Program, error) {
	unified := v.Unify(l.program)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err, ErrCodeSchema)
	}
	return build(unified, v)
}

// FindCUEFiles walks dir and returns every .cue file path.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
