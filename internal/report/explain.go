package report

import (
	"fmt"

	"github.com/roach88/keepmark/internal/classfile"
	"github.com/roach88/keepmark/internal/usage"
)

// Hop is one step of an explanation chain: why a node carries its mark.
type Hop struct {
	Certain bool   `json:"certain" yaml:"certain"`
	Depth   int    `json:"depth" yaml:"depth"`
	Reason  string `json:"reason" yaml:"reason"`
	Class   string `json:"class" yaml:"class"`
	Member  string `json:"member" yaml:"member"`
}

// String renders the hop in the explanation line format:
//
//	certain=<bool>, depth=<n>: <reason>(<class|none>): <member|none>
func (h Hop) String() string {
	return fmt.Sprintf("certain=%t, depth=%d: %s(%s): %s", h.Certain, h.Depth, h.Reason, h.Class, h.Member)
}

func hopOf(mark *usage.ShortestUsageMark) Hop {
	member := "none"
	if m := mark.Member(); m != nil {
		member = classfile.MemberString(m)
	}
	return Hop{
		Certain: mark.Certain(),
		Depth:   mark.Depth(),
		Reason:  mark.Reason(),
		Class:   usage.ClassString(mark.Class()),
		Member:  member,
	}
}

// Explain follows the cause chain of node's mark back to its root. An
// unmarked node has no hops. A chain longer than maxHops can only come
// from a cycle and is reported as a CAUSE_CYCLE error; pass the node
// count of the pools (classfile.Pools.NodeCount) as the cap. With
// maxHops <= 0 the chain is uncapped and a mark seen twice is the cycle.
func Explain(m *usage.ShortestMarker, node classfile.Processable, maxHops int) ([]Hop, error) {
	var (
		hops []Hop
		seen map[*usage.ShortestUsageMark]bool
	)
	if maxHops <= 0 {
		seen = make(map[*usage.ShortestUsageMark]bool)
	}
	for mark := m.GetShortestMark(node); mark != nil; mark = mark.Cause() {
		switch {
		case seen == nil && len(hops) >= maxHops:
			return nil, usage.NewCycleError(usage.Describe(node), maxHops)
		case seen != nil && seen[mark]:
			return nil, usage.NewCycleError(usage.Describe(node), len(hops))
		case seen != nil:
			seen[mark] = true
		}
		hops = append(hops, hopOf(mark))
	}
	return hops, nil
}
