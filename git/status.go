package git

import (
	"strconv"
	"strings"
)

// Status is the part of `git status --porcelain=v2 --branch` the verifier
// reads: the branch and how much work is not yet committed or pushed.
type Status struct {
	Branch   string
	Upstream string
	Ahead    int
	Behind   int

	Staged     int
	Unstaged   int
	Untracked  int
	Conflicted int

	// Pending counts every path with any change, each path once.
	Pending int
}

// Detached reports whether HEAD is not on a branch.
func (s *Status) Detached() bool {
	return s.Branch == "(detached)"
}

// ParseStatus parses porcelain v2 output. Unknown lines are ignored so newer
// git versions stay readable.
func ParseStatus(output string) *Status {
	s := &Status{}
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "#" {
			s.header(fields[1:])
			continue
		}
		s.entry(fields)
	}
	return s
}

func (s *Status) header(fields []string) {
	if len(fields) < 2 {
		return
	}
	switch fields[0] {
	case "branch.head":
		s.Branch = fields[1]
	case "branch.upstream":
		s.Upstream = fields[1]
	case "branch.ab":
		s.Ahead, _ = strconv.Atoi(strings.TrimPrefix(fields[1], "+"))
		if len(fields) > 2 {
			s.Behind, _ = strconv.Atoi(strings.TrimPrefix(fields[2], "-"))
		}
	}
}

func (s *Status) entry(fields []string) {
	switch fields[0] {
	case "?":
		s.Untracked++
	case "1", "2":
		if len(fields) < 2 || len(fields[1]) != 2 {
			return
		}
		xy := fields[1]
		if xy[0] != '.' {
			s.Staged++
		}
		if xy[1] != '.' {
			s.Unstaged++
		}
	case "u":
		s.Conflicted++
	default:
		// "!" ignored entries and anything unknown
		return
	}
	s.Pending++
}
