package marker

import (
	"fmt"
	"strings"
)

// Policy decides when an abstract method is promoted from possibly used
// to used.
type Policy int

const (
	// Conservative promotes an abstract method of a used class as soon
	// as a concrete override in a used subclass is used. It keeps more.
	Conservative Policy = iota

	// Precise leaves abstract methods possibly used until they are
	// referenced or override a used supertype method.
	Precise
)

func (p Policy) String() string {
	switch p {
	case Conservative:
		return "conservative"
	case Precise:
		return "precise"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy parses "conservative" or "precise", case-insensitively.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "conservative", "":
		return Conservative, nil
	case "precise":
		return Precise, nil
	default:
		return Conservative, fmt.Errorf("unknown policy %q (want conservative or precise)", s)
	}
}
