package roles

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrToolConfigConflict is returned from capability queries (GetIncludedTools
// / GetExcludedTools) when a role declares both lists non-empty.
var ErrToolConfigConflict = errors.New("role declares both includedTools and excludedTools")

// UnknownRoleError is returned by lookups for a role name that does not
// resolve to anything in the registry. It lists every registered name so a
// caller can surface a helpful message (spec §7 "UnknownRole").
type UnknownRoleError struct {
	Spec      string
	Available []string
}

func (e *UnknownRoleError) Error() string {
	names := append([]string(nil), e.Available...)
	sort.Strings(names)
	return fmt.Sprintf("unknown role %q (available: %s)", e.Spec, strings.Join(names, ", "))
}

// AmbiguousRoleError is returned when a bare role name resolves into two or
// more non-global groups (spec §7 "AmbiguousRole").
type AmbiguousRoleError struct {
	Spec   string
	Groups []string
}

func (e *AmbiguousRoleError) Error() string {
	groups := append([]string(nil), e.Groups...)
	sort.Strings(groups)
	return fmt.Sprintf("role %q is ambiguous across groups: %s", e.Spec, strings.Join(groups, ", "))
}

// ToolConfigConflictError names the offending role (spec §7
// "ToolConfigConflict... at first capability query").
type ToolConfigConflictError struct {
	RoleName string
	Group    string
}

func (e *ToolConfigConflictError) Error() string {
	return fmt.Sprintf("role %s.%s declares both includedTools and excludedTools", e.Group, e.RoleName)
}

func (e *ToolConfigConflictError) Unwrap() error { return ErrToolConfigConflict }
