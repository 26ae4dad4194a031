package report

import (
	"github.com/roach88/keepmark/internal/classfile"
	"github.com/roach88/keepmark/internal/usage"
)

// Node kinds.
const (
	KindClass    = "class"
	KindField    = "field"
	KindMethod   = "method"
	KindResource = "resource"
)

// Explanation is the verdict on one node, with its chain when the run
// kept explanations.
type Explanation struct {
	Node  string `json:"node" yaml:"node"`
	Kind  string `json:"kind" yaml:"kind"`
	State string `json:"state" yaml:"state"`
	Hops  []Hop  `json:"hops,omitempty" yaml:"hops,omitempty"`
}

// ClassReport is the verdict on a program class and its members.
type ClassReport struct {
	Explanation `yaml:",inline"`
	Members     []Explanation `json:"members,omitempty" yaml:"members,omitempty"`
}

// Report is the verdict on every program class, member and resource file
// of a run.
type Report struct {
	Classes   []ClassReport `json:"classes" yaml:"classes"`
	Resources []Explanation `json:"resources,omitempty" yaml:"resources,omitempty"`
}

// explainer builds explanations, with hops when the marker keeps them.
type explainer struct {
	marker   usage.Marker
	shortest *usage.ShortestMarker
	maxHops  int
}

func newExplainer(m usage.Marker, maxHops int) *explainer {
	e := &explainer{marker: m, maxHops: maxHops}
	e.shortest, _ = m.(*usage.ShortestMarker)
	return e
}

func (e *explainer) explain(p classfile.Processable) (Explanation, error) {
	x := Explanation{
		Node:  usage.Describe(p),
		Kind:  kindOf(p),
		State: usage.StateOf(e.marker, p).String(),
	}
	if e.shortest == nil {
		return x, nil
	}
	hops, err := Explain(e.shortest, p, e.maxHops)
	if err != nil {
		return Explanation{}, err
	}
	x.Hops = hops
	return x, nil
}

func (e *explainer) class(c *classfile.ProgramClass, members bool) (ClassReport, error) {
	x, err := e.explain(c)
	if err != nil {
		return ClassReport{}, err
	}
	cr := ClassReport{Explanation: x}
	if !members {
		return cr, nil
	}
	for _, f := range c.Fields {
		fx, err := e.explain(f)
		if err != nil {
			return ClassReport{}, err
		}
		cr.Members = append(cr.Members, fx)
	}
	for _, m := range c.Methods {
		mx, err := e.explain(m)
		if err != nil {
			return ClassReport{}, err
		}
		cr.Members = append(cr.Members, mx)
	}
	return cr, nil
}

// Build explains every program class, member and resource file of pools
// in pool order. maxHops caps each chain; 0 means the pools' node count.
func Build(pools *classfile.Pools, m usage.Marker, maxHops int) (r *Report, err error) {
	defer usage.Recover(&err)

	if maxHops <= 0 {
		maxHops = pools.NodeCount()
	}
	e := newExplainer(m, maxHops)
	r = &Report{Classes: []ClassReport{}}
	for _, c := range pools.Program.Classes() {
		pc, ok := c.(*classfile.ProgramClass)
		if !ok {
			continue
		}
		cr, err := e.class(pc, true)
		if err != nil {
			return nil, err
		}
		r.Classes = append(r.Classes, cr)
	}
	for _, f := range pools.Resources.Files() {
		x, err := e.explain(f)
		if err != nil {
			return nil, err
		}
		r.Resources = append(r.Resources, x)
	}
	return r, nil
}

func kindOf(p classfile.Processable) string {
	switch p.(type) {
	case classfile.Clazz:
		return KindClass
	case *classfile.ProgramField, *classfile.LibraryField:
		return KindField
	case classfile.Member:
		return KindMethod
	case *classfile.ResourceFile:
		return KindResource
	default:
		return ""
	}
}
