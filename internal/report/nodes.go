package report

import (
	"fmt"

	"github.com/roach88/keepmark/internal/classfile"
	"github.com/roach88/keepmark/internal/usage"
)

// Nodes maps the display name of every class, member and resource file of
// pools to its node. Names are the ones explanations print.
func Nodes(pools *classfile.Pools) map[string]classfile.Processable {
	nodes := make(map[string]classfile.Processable)
	add := func(p classfile.Processable) {
		nodes[usage.Describe(p)] = p
	}
	for _, pool := range []*classfile.ClassPool{pools.Program, pools.Library} {
		for _, c := range pool.Classes() {
			add(c)
			switch c := c.(type) {
			case *classfile.ProgramClass:
				for _, f := range c.Fields {
					add(f)
				}
				for _, m := range c.Methods {
					add(m)
				}
			case *classfile.LibraryClass:
				for _, f := range c.Fields {
					add(f)
				}
				for _, m := range c.Methods {
					add(m)
				}
			}
		}
	}
	for _, f := range pools.Resources.Files() {
		add(f)
	}
	return nodes
}

// PrintNode explains a class, member or resource file.
func (p *Printer) PrintNode(node classfile.Processable) error {
	switch n := node.(type) {
	case classfile.Clazz:
		return p.PrintClass(n)
	case classfile.Member:
		return p.PrintMember(n)
	case *classfile.ResourceFile:
		return p.PrintResource(n)
	default:
		return fmt.Errorf("cannot explain %T", node)
	}
}

// ExplainNode returns the verdict on one node, with its chain when m keeps
// explanations. maxHops caps the chain; 0 means DefaultMaxHops.
func ExplainNode(m usage.Marker, node classfile.Processable, maxHops int) (x Explanation, err error) {
	defer usage.Recover(&err)
	if maxHops <= 0 {
		maxHops = DefaultMaxHops
	}
	return newExplainer(m, maxHops).explain(node)
}

// WriteExplanation writes an explanation built elsewhere, such as one read
// back from a run store.
func (p *Printer) WriteExplanation(x Explanation) error {
	return p.write(x)
}
