// Package planfile parses the line-oriented plan-file grammar of
// spec.md §4.4's command table into a sequence of Command values, for
// consumption by reconfig.RuntimeReconfig's batch entry point.
//
// Grounded on the teacher's own line-oriented config/plan parsing
// style (controlplane/yncp/cfg.go reads one YAML document; here the
// format is simpler, so bufio.Scanner over individual lines is the
// natural match — no example repo in the pack reaches for a grammar/
// parser-combinator library for anything this small).
package planfile

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Verb names every supported plan-file command, matching spec.md
// §4.4's table column for column.
type Verb string

const (
	VerbTableInit   Verb = "table_init"
	VerbTableChange Verb = "table_change"
	VerbTableDelete Verb = "table_delete"
	VerbCondInit    Verb = "cond_init"
	VerbCondChange  Verb = "cond_change"
	VerbCondDelete  Verb = "cond_delete"
	VerbFlexInit    Verb = "flex_init"
	VerbFlexChange  Verb = "flex_change"
	VerbFlexDelete  Verb = "flex_delete"
	VerbRegInit     Verb = "reg_init"
	VerbRegChange   Verb = "reg_change"
	VerbRegDelete   Verb = "reg_delete"
	VerbTrigger     Verb = "trigger"
	VerbInitChange  Verb = "init_change"
)

// Command is one parsed plan-file line: a verb plus its
// whitespace-separated arguments, still in string form — reconfig
// interprets and type-converts them per-verb.
type Command struct {
	Verb Verb
	Args []string
	Line int
}

// Arg returns the i'th argument, or "" if the line had fewer than
// i+1 arguments. The parser does not check argument counts: a missing
// argument reaches the reconfig command as "", where a missing
// identifier fails the prefix check (PrefixError) and a missing
// number fails to parse (InvalidCommandError).
func (c Command) Arg(i int) string {
	if i < 0 || i >= len(c.Args) {
		return ""
	}
	return c.Args[i]
}

// ArgUint32 parses the i'th argument as a uint32.
func (c Command) ArgUint32(i int) (uint32, error) {
	v, err := strconv.ParseUint(c.Arg(i), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("line %d: argument %d %q is not a uint32: %w", c.Line, i, c.Arg(i), err)
	}
	return uint32(v), nil
}

// ArgInt parses the i'th argument as a signed int, used for trigger
// numbers which may be -1 (meaning "all mount points").
func (c Command) ArgInt(i int) (int, error) {
	v, err := strconv.Atoi(c.Arg(i))
	if err != nil {
		return 0, fmt.Errorf("line %d: argument %d %q is not an int: %w", c.Line, i, c.Arg(i), err)
	}
	return v, nil
}

// ArgBool parses the i'th argument as "0"/"1" or "true"/"false".
func (c Command) ArgBool(i int) (bool, error) {
	switch strings.ToLower(c.Arg(i)) {
	case "1", "true":
		return true, nil
	case "0", "false":
		return false, nil
	default:
		return false, fmt.Errorf("line %d: argument %d %q is not a bool", c.Line, i, c.Arg(i))
	}
}

var knownVerbs = map[Verb]bool{
	VerbTableInit: true, VerbTableChange: true, VerbTableDelete: true,
	VerbCondInit: true, VerbCondChange: true, VerbCondDelete: true,
	VerbFlexInit: true, VerbFlexChange: true, VerbFlexDelete: true,
	VerbRegInit: true, VerbRegChange: true, VerbRegDelete: true,
	VerbTrigger: true, VerbInitChange: true,
}

// Parse reads r line by line. Blank lines and lines whose first
// non-whitespace character is '#' are skipped. Every other line must
// begin with a known verb; anything else is a parse error carrying
// the 1-based line number, which the batch entry point maps to
// graph.InvalidCommandError.
func Parse(r io.Reader) ([]Command, error) {
	var commands []Command

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		verb := Verb(fields[0])
		if !knownVerbs[verb] {
			return nil, fmt.Errorf("line %d: unknown command %q", lineNo, fields[0])
		}

		commands = append(commands, Command{
			Verb: verb,
			Args: fields[1:],
			Line: lineNo,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}
	return commands, nil
}

// ParseString is a convenience wrapper for the common case of an
// already-loaded plan document, e.g. the "planText" argument of
// reconfig.RuntimeReconfig.
func ParseString(planText string) ([]Command, error) {
	return Parse(strings.NewReader(planText))
}
