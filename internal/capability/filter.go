// Package capability implements the Tool Capability Filter (C2): given a
// role and a tool name, decide inclusion via exact/wildcard/regex pattern
// matching, then auto-augment the computed set with coordination tools for
// agentic roles.
//
// Grounded on internal/tools/policy's allow/deny precedence and pattern
// vocabulary (types.go, resolver.go), generalized from the teacher's
// profile/group names to this spec's includedTools/excludedTools pair.
package capability

import (
	"regexp"
	"strings"

	"github.com/corehive/agentcore/internal/roles"
)

// coordinationTools are added for any role that declares enabledAgents,
// even an empty list (spec §4.2 point 1).
var coordinationTools = map[string]struct{}{
	"spawn_agent":     {},
	"speak_to_agent":  {},
	"get_agents":      {},
	"return_results":  {},
	"list_tasks":      {},
	"get_task":        {},
}

// taskTools are added when canCreateTasksFor is non-empty (spec §4.2
// point 2).
var taskTools = map[string]struct{}{
	"list_tasks": {},
	"edit_tasks": {},
	"get_task":   {},
}

// Filter decides tool inclusion for a role. It is stateless; the zero value
// is ready to use.
type Filter struct{}

// IsToolIncluded is total: it returns a boolean for every role and any tool
// name string, never an error (spec §8 "The capability filter is total").
func (Filter) IsToolIncluded(role *roles.Role, name string) bool {
	included := baseInclusion(role, name)

	if !included && isAutoAugmentCandidate(role, name) {
		if role.ExcludedTools != nil && matchesAny(role.ExcludedTools, name) {
			// explicitly excluded; do not auto-add (spec §4.2: "not matched
			// by excludedTools").
		} else {
			included = true
		}
	}

	return included
}

// baseInclusion implements the three-way precedence of spec §4.2: whitelist
// when includedTools is declared (even empty), else blacklist when
// excludedTools is declared, else default-deny.
func baseInclusion(role *roles.Role, name string) bool {
	switch {
	case role.IncludedTools != nil:
		return matchesAny(role.IncludedTools, name)
	case role.ExcludedTools != nil:
		return !matchesAny(role.ExcludedTools, name)
	default:
		return false
	}
}

func isAutoAugmentCandidate(role *roles.Role, name string) bool {
	if role.EnabledAgents != nil {
		if _, ok := coordinationTools[name]; ok {
			return true
		}
	}
	if len(role.CanCreateTasksFor) > 0 {
		if _, ok := taskTools[name]; ok {
			return true
		}
	}
	return false
}

func matchesAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if matchOne(p, name) {
			return true
		}
	}
	return false
}

// matchOne applies spec §4.2's pattern vocabulary: exact equality, then
// wildcard (contains '*', anchored regex with '*' -> '.*'), then regex
// (leading '/', trailing '/' separating body from flags). An invalid regex
// is treated as a literal string, which the exact-equality check already
// covers, so regex compile failure simply falls through to "no match".
func matchOne(pattern, name string) bool {
	if pattern == name {
		return true
	}

	if strings.HasPrefix(pattern, "/") {
		if re, ok := compileSlashRegex(pattern); ok {
			return re.MatchString(name)
		}
		return false
	}

	if strings.Contains(pattern, "*") {
		if re, ok := compileWildcard(pattern); ok {
			return re.MatchString(name)
		}
		return false
	}

	return false
}

func compileSlashRegex(pattern string) (*regexp.Regexp, bool) {
	idx := strings.LastIndex(pattern, "/")
	if idx <= 0 {
		return nil, false
	}
	body := pattern[1:idx]
	flags := pattern[idx+1:]
	src := body
	if strings.Contains(flags, "i") {
		src = "(?i)" + src
	}
	re, err := regexp.Compile(src)
	if err != nil {
		return nil, false
	}
	return re, true
}

func compileWildcard(pattern string) (*regexp.Regexp, bool) {
	escaped := regexp.QuoteMeta(pattern)
	escaped = strings.ReplaceAll(escaped, `\*`, ".*")
	re, err := regexp.Compile("^" + escaped + "$")
	if err != nil {
		return nil, false
	}
	return re, true
}
