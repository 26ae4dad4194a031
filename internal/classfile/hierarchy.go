package classfile

import (
	"fmt"
	"slices"
	"strings"
)

// HierarchyCycleError reports a class that is its own supertype. Path
// starts and ends with the same class name.
type HierarchyCycleError struct {
	Path []string
}

func (e *HierarchyCycleError) Error() string {
	return fmt.Sprintf("circular class hierarchy: %s", strings.Join(e.Path, " -> "))
}

// hierarchyCycle returns the first supertype cycle reachable from the
// classes of pools, in pool order, or nil. Edges are the superclass and
// the direct interfaces.
func hierarchyCycle(pools ...*ClassPool) []string {
	const (
		visiting = 1
		done     = 2
	)
	state := make(map[Clazz]int)
	var stack []Clazz
	var cycle []string

	var visit func(c Clazz) bool
	visit = func(c Clazz) bool {
		switch state[c] {
		case done:
			return false
		case visiting:
			for _, s := range stack[slices.Index(stack, c):] {
				cycle = append(cycle, s.Name())
			}
			cycle = append(cycle, c.Name())
			return true
		}
		state[c] = visiting
		stack = append(stack, c)
		for _, s := range Supertypes(c) {
			if visit(s) {
				return true
			}
		}
		stack = stack[:len(stack)-1]
		state[c] = done
		return false
	}

	for _, pool := range pools {
		for _, c := range pool.Classes() {
			if visit(c) {
				return cycle
			}
		}
	}
	return nil
}
