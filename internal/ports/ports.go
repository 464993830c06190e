// Package ports assigns stable port numbers to the named services of an
// environment. Allocation is pure computation; persistence happens when the
// state store records the environment.
package ports

import (
	groveerrors "github.com/zhubert/grove/internal/errors"
)

// Allocate assigns one port per name by scanning [base, max] in order and
// skipping ports already taken. The result is deterministic for identical
// inputs. Returns a port-kind error when the range is exhausted.
func Allocate(names []string, base, max int, taken []int) (map[string]int, error) {
	mappings := make(map[string]int, len(names))
	if len(names) == 0 {
		return mappings, nil
	}

	inUse := make(map[int]bool, len(taken))
	for _, p := range taken {
		inUse[p] = true
	}

	next := base
	for _, name := range names {
		for next <= max && inUse[next] {
			next++
		}
		if next > max {
			return nil, groveerrors.NoAvailablePort(base, max)
		}
		mappings[name] = next
		inUse[next] = true
		next++
	}

	return mappings, nil
}
