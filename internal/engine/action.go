package engine

import (
	"regexp"
	"strings"
)

// actionRe matches "ACTION: Name [argument]". The argument may span lines and
// ends at the first closing bracket.
var actionRe = regexp.MustCompile(`(?is)ACTION:\s*(\w+)\s*\[(.*?)\]`)

// Action is a tool invocation requested by the model.
type Action struct {
	Tool     string
	Argument string
}

// ParseAction extracts the first action from a model response. Later actions
// in the same response are ignored.
func ParseAction(response string) (Action, bool) {
	m := actionRe.FindStringSubmatch(response)
	if m == nil {
		return Action{}, false
	}
	return Action{Tool: m[1], Argument: strings.TrimSpace(m[2])}, true
}
