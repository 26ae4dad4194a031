package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/keepmark/internal/classfile"
	"github.com/roach88/keepmark/internal/usage"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Printer writes explanations of nodes in text or JSON.
//
// Text output puts the verdict on one line and each hop of the chain on
// its own line below it, indented:
//
//	com.example.Worker.count:I is used
//	  certain=true, depth=3: is invoked by(com.example.Worker): run()V
//	  ...
type Printer struct {
	w       io.Writer
	format  string
	marker  usage.Marker
	maxHops int
}

// PrinterOption configures a Printer.
type PrinterOption func(*Printer)

// WithFormat selects FormatText (default) or FormatJSON.
func WithFormat(format string) PrinterOption {
	return func(p *Printer) {
		p.format = format
	}
}

// WithMaxHops caps every chain. Default: the node count of the pools
// passed to PrintPools, or 1024 for single nodes.
func WithMaxHops(n int) PrinterOption {
	return func(p *Printer) {
		p.maxHops = n
	}
}

// DefaultMaxHops caps chains printed outside PrintPools.
const DefaultMaxHops = 1024

// NewPrinter creates a Printer reading marks through m.
func NewPrinter(w io.Writer, m usage.Marker, opts ...PrinterOption) *Printer {
	p := &Printer{w: w, format: FormatText, marker: m}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Printer) hops() int {
	if p.maxHops > 0 {
		return p.maxHops
	}
	return DefaultMaxHops
}

// PrintClass explains one class.
func (p *Printer) PrintClass(c classfile.Clazz) (err error) {
	defer usage.Recover(&err)
	x, err := newExplainer(p.marker, p.hops()).explain(c)
	if err != nil {
		return err
	}
	return p.write(x)
}

// PrintMember explains one member.
func (p *Printer) PrintMember(m classfile.Member) (err error) {
	defer usage.Recover(&err)
	x, err := newExplainer(p.marker, p.hops()).explain(m)
	if err != nil {
		return err
	}
	return p.write(x)
}

// PrintResource explains one resource file.
func (p *Printer) PrintResource(f *classfile.ResourceFile) (err error) {
	defer usage.Recover(&err)
	x, err := newExplainer(p.marker, p.hops()).explain(f)
	if err != nil {
		return err
	}
	return p.write(x)
}

// PrintPools explains every program class with its members, then every
// resource file.
func (p *Printer) PrintPools(pools *classfile.Pools) error {
	r, err := Build(pools, p.marker, p.maxHops)
	if err != nil {
		return err
	}
	return p.WriteReport(r)
}

// WriteReport writes a report built by Build.
func (p *Printer) WriteReport(r *Report) error {
	if p.format == FormatJSON {
		return p.encode(r)
	}
	for _, c := range r.Classes {
		if err := p.writeText(c.Explanation, 0); err != nil {
			return err
		}
		for _, m := range c.Members {
			if err := p.writeText(m, 1); err != nil {
				return err
			}
		}
	}
	for _, f := range r.Resources {
		if err := p.writeText(f, 0); err != nil {
			return err
		}
	}
	return nil
}

func (p *Printer) write(x Explanation) error {
	if p.format == FormatJSON {
		return p.encode(x)
	}
	return p.writeText(x, 0)
}

func (p *Printer) encode(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}

func (p *Printer) writeText(x Explanation, level int) error {
	indent := strings.Repeat("  ", level)
	if _, err := fmt.Fprintf(p.w, "%s%s is %s\n", indent, x.Node, verdict(x.State)); err != nil {
		return err
	}
	for _, h := range x.Hops {
		if _, err := fmt.Fprintf(p.w, "%s  %s\n", indent, h); err != nil {
			return err
		}
	}
	return nil
}

func verdict(state string) string {
	switch state {
	case usage.Used.String():
		return "used"
	case usage.PossiblyUsed.String():
		return "possibly used"
	default:
		return "not used"
	}
}
