package registry

import (
	"regexp"
	"strconv"

	"github.com/dyc2021/runtime-programmable-switch/graph"
)

// mountPointPattern matches flex_func_mount_point_number_<N>$...$,
// per spec.md §4.2's "Special Flex naming" rule. Capturing the integer
// requires a real capture group, which is why this uses regexp
// (stdlib) rather than the pack's shape-only glob matcher — see
// DESIGN.md's registry/ entry.
var mountPointPattern = regexp.MustCompile(`^flex_func_mount_point_number_(-?\d+)\$.*\$$`)

// ParseMountPoint extracts the mount-point index from a Flex node's
// actual name. A name that does not match the pattern is anonymous:
// ParseMountPoint returns (-1, nil), never an error — per spec.md §8's
// boundary case ("An actual-name containing $...$ that does not match
// the Flex mount-point pattern is treated as anonymous (no error)").
// A matched but negative N is InvalidCommandError.
func ParseMountPoint(actualName string) (int, *graph.ReconfigError) {
	m := mountPointPattern.FindStringSubmatch(actualName)
	if m == nil {
		return -1, nil
	}

	n, err := strconv.Atoi(m[1])
	if err != nil {
		return -1, graph.NewError(graph.InvalidCommandError, "malformed mount-point index in %q", actualName)
	}
	if n < 0 {
		return -1, graph.NewError(graph.InvalidCommandError, "mount-point index %d must be non-negative", n)
	}
	return n, nil
}
