// Package stacktrace trims runtime stacks down to the frames of this module.
package stacktrace

import "strings"

// InternalPaths returns "internal/..../file.go:line" entries found in a raw
// runtime/debug stack, in call order.
func InternalPaths(stack []byte) []string {
	lines := strings.Split(string(stack), "\n")
	paths := make([]string, 0, len(lines)/2)

	for _, line := range lines {
		line = strings.TrimSpace(line)
		idx := strings.Index(line, ".go:")
		if idx == -1 {
			continue
		}

		loc := line
		if sp := strings.IndexByte(line[idx:], ' '); sp != -1 {
			loc = line[:idx+sp]
		}

		if i := strings.Index(loc, "/internal/"); i != -1 {
			paths = append(paths, loc[i+1:])
		}
	}

	return paths
}
