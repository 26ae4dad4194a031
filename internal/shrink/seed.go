package shrink

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/keepmark/internal/classfile"
	"github.com/roach88/keepmark/internal/marker"
	"github.com/roach88/keepmark/internal/usage"
)

// Keeper marks seed nodes used. Every mark it writes is a root of the
// explanation graph.
type Keeper interface {
	KeepClass(c classfile.Clazz)
	KeepMember(m classfile.Member)
	KeepResource(f *classfile.ResourceFile)
}

// Seeder selects the entry points of a run.
type Seeder interface {
	Seed(pools *classfile.Pools, k Keeper) error
}

// SeederFunc adapts a function to a Seeder.
type SeederFunc func(pools *classfile.Pools, k Keeper) error

// Seed implements Seeder.
func (f SeederFunc) Seed(pools *classfile.Pools, k Keeper) error { return f(pools, k) }

// keeper routes seeds through the primary visitor under a fresh root mark.
type keeper struct {
	cm    *marker.ClassUsageMarker
	seeds int
}

func (k *keeper) KeepClass(c classfile.Clazz) {
	if c == nil {
		return
	}
	restore := k.cm.Usage().Enter(nil, nil, nil, usage.RootReason)
	defer restore()
	k.seeds++
	classfile.Accept(c, k.cm)
}

func (k *keeper) KeepMember(m classfile.Member) {
	if m == nil {
		return
	}
	restore := k.cm.Usage().Enter(nil, nil, nil, usage.RootReason)
	defer restore()
	k.seeds++
	k.cm.MarkMember(m)
}

func (k *keeper) KeepResource(f *classfile.ResourceFile) {
	if f == nil {
		return
	}
	restore := k.cm.Usage().Enter(nil, nil, nil, usage.RootReason)
	defer restore()
	k.seeds++
	k.cm.MarkResource(f)
}

// MemberSeed names a member to keep. An empty Descriptor keeps every
// member of the class with that name.
type MemberSeed struct {
	Class      string `json:"class" yaml:"class"`
	Name       string `json:"name" yaml:"name"`
	Descriptor string `json:"descriptor,omitempty" yaml:"descriptor,omitempty"`
}

func (s MemberSeed) String() string {
	return s.Class + "." + s.Name + s.Descriptor
}

// Seeds is a Seeder over names: internal class names, member seeds and
// resource file names.
type Seeds struct {
	Classes   []string     `json:"classes,omitempty" yaml:"classes,omitempty"`
	Members   []MemberSeed `json:"members,omitempty" yaml:"members,omitempty"`
	Resources []string     `json:"resources,omitempty" yaml:"resources,omitempty"`
}

// Len returns the number of seed directives.
func (s Seeds) Len() int {
	return len(s.Classes) + len(s.Members) + len(s.Resources)
}

// Seed resolves every name and keeps what it finds. Names that do not
// resolve are collected into a single *SeedError; the names that do
// resolve are still kept.
func (s Seeds) Seed(pools *classfile.Pools, k Keeper) error {
	var missing []string

	for _, name := range s.Classes {
		c := pools.Lookup(name)
		if c == nil {
			missing = append(missing, name)
			continue
		}
		k.KeepClass(c)
	}

	for _, ms := range s.Members {
		c := pools.Lookup(ms.Class)
		if c == nil {
			missing = append(missing, ms.String())
			continue
		}
		members := findMembers(c, ms.Name, ms.Descriptor)
		if len(members) == 0 {
			missing = append(missing, ms.String())
			continue
		}
		for _, m := range members {
			k.KeepMember(m)
		}
	}

	for _, name := range s.Resources {
		f := pools.Resources.Get(name)
		if f == nil {
			missing = append(missing, name)
			continue
		}
		k.KeepResource(f)
	}

	if len(missing) > 0 {
		return &SeedError{Missing: missing}
	}
	return nil
}

func findMembers(c classfile.Clazz, name, descriptor string) []classfile.Member {
	var out []classfile.Member
	match := func(m classfile.Member) {
		if m.Name() == name && (descriptor == "" || m.Descriptor() == descriptor) {
			out = append(out, m)
		}
	}
	switch c := c.(type) {
	case *classfile.ProgramClass:
		for _, f := range c.Fields {
			match(f)
		}
		for _, m := range c.Methods {
			match(m)
		}
	case *classfile.LibraryClass:
		for _, f := range c.Fields {
			match(f)
		}
		for _, m := range c.Methods {
			match(m)
		}
	}
	return out
}

// SeedError lists seed names that matched nothing.
type SeedError struct {
	Missing []string
}

func (e *SeedError) Error() string {
	return fmt.Sprintf("%d seed(s) matched nothing: %s", len(e.Missing), strings.Join(e.Missing, ", "))
}

// IsSeedError reports whether err is or wraps a *SeedError.
func IsSeedError(err error) bool {
	var se *SeedError
	return errors.As(err, &se)
}
