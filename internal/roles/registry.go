package roles

import (
	"sort"
	"sync"
)

type roleKey struct {
	group string
	name  string
}

// Registry is the process-wide, reload-between-immutable Role Registry
// (spec §3 "Ownership": "The Role Registry is process-wide and immutable
// between reloads"). The zero value is not usable; construct with New.
type Registry struct {
	mu sync.RWMutex

	roles map[roleKey]*Role
	// groupOrder preserves per-group insertion order, matching the data
	// model's "mapping group→ordered list of role names".
	groupOrder map[string][]string
	// nameGroups maps a simple role name to every group (including
	// "global") that defines it, used by Resolve's disambiguation rule.
	nameGroups map[string][]string
}

// New returns an empty registry. Populate it with Load or LoadFiles.
func New() *Registry {
	return &Registry{
		roles:      make(map[roleKey]*Role),
		groupOrder: make(map[string][]string),
		nameGroups: make(map[string][]string),
	}
}

// Replace atomically swaps the registry's contents for a freshly loaded set,
// serialized with respect to all readers (spec §5 shared-resource policy).
func (r *Registry) Replace(next *Registry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roles = next.roles
	r.groupOrder = next.groupOrder
	r.nameGroups = next.nameGroups
}

func (r *Registry) add(group, name string, role *Role) {
	role.Group = group
	role.Name = name
	k := roleKey{group: group, name: name}
	if _, exists := r.roles[k]; !exists {
		r.groupOrder[group] = append(r.groupOrder[group], name)
	}
	r.roles[k] = role

	for _, g := range r.nameGroups[name] {
		if g == group {
			return
		}
	}
	r.nameGroups[name] = append(r.nameGroups[name], group)
}

// Resolve implements spec §4.1's resolution algorithm exactly.
func (r *Registry) Resolve(spec string) Resolution {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolveLocked(spec)
}

func (r *Registry) resolveLocked(spec string) Resolution {
	if group, name, ok := splitSpec(spec); ok {
		if _, exists := r.roles[roleKey{group: group, name: name}]; exists {
			return Resolution{RoleName: name, Group: group, Found: true}
		}
		return Resolution{Found: false}
	}

	name := spec
	if _, exists := r.roles[roleKey{group: GlobalGroup, name: name}]; exists {
		return Resolution{RoleName: name, Group: GlobalGroup, Found: true}
	}

	var nonGlobal []string
	for _, g := range r.nameGroups[name] {
		if g != GlobalGroup {
			nonGlobal = append(nonGlobal, g)
		}
	}

	switch len(nonGlobal) {
	case 0:
		return Resolution{Found: false}
	case 1:
		return Resolution{RoleName: name, Group: nonGlobal[0], Found: true}
	default:
		// Return a freshly sorted copy; never mutate nameGroups' backing
		// array (spec §9 "group sorting... never mutate input").
		sorted := make([]string, len(nonGlobal))
		copy(sorted, nonGlobal)
		sort.Strings(sorted)
		return Resolution{Found: false, Ambiguous: true, AvailableGroups: sorted}
	}
}

func splitSpec(spec string) (group, name string, ok bool) {
	for i := 0; i < len(spec); i++ {
		if spec[i] == '.' {
			return spec[:i], spec[i+1:], true
		}
	}
	return "", "", false
}

// HasRole reports whether spec resolves to a registered role.
func (r *Registry) HasRole(spec string) bool {
	return r.Resolve(spec).Found
}

// Get resolves spec and returns the role, or an UnknownRoleError /
// AmbiguousRoleError per spec §7.
func (r *Registry) Get(spec string) (*Role, Resolution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res := r.resolveLocked(spec)
	if res.Ambiguous {
		return nil, res, &AmbiguousRoleError{Spec: spec, Groups: res.AvailableGroups}
	}
	if !res.Found {
		return nil, res, &UnknownRoleError{Spec: spec, Available: r.availableSpecsLocked()}
	}
	role := r.roles[roleKey{group: res.Group, name: res.RoleName}]
	return role, res, nil
}

// AvailableSpecs returns every registered role spec ("name" for global-group
// roles, "group.name" otherwise), sorted, for callers outside the package
// (e.g. a `role list` CLI command) that need the same listing
// UnknownRoleError already surfaces.
func (r *Registry) AvailableSpecs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.availableSpecsLocked()
}

func (r *Registry) availableSpecsLocked() []string {
	specs := make([]string, 0, len(r.roles))
	for k := range r.roles {
		if k.group == GlobalGroup {
			specs = append(specs, k.name)
		} else {
			specs = append(specs, k.group+"."+k.name)
		}
	}
	sort.Strings(specs)
	return specs
}

// GroupRoleNames returns a copy of the ordered role-name list for a group.
func (r *Registry) GroupRoleNames(group string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := r.groupOrder[group]
	out := make([]string, len(names))
	copy(out, names)
	return out
}

func (r *Registry) getLocked(spec string) (*Role, error) {
	role, _, err := r.Get(spec)
	return role, err
}

func (r *Registry) GetLevel(spec string) (Level, error) {
	role, err := r.getLocked(spec)
	if err != nil {
		return "", err
	}
	return role.Level, nil
}

func (r *Registry) GetReminder(spec string) (string, error) {
	role, err := r.getLocked(spec)
	if err != nil {
		return "", err
	}
	return role.Reminder, nil
}

func (r *Registry) GetExamples(spec string) ([]Message, error) {
	role, err := r.getLocked(spec)
	if err != nil {
		return nil, err
	}
	out := make([]Message, len(role.Examples))
	copy(out, role.Examples)
	return out, nil
}

// GetIncludedTools and GetExcludedTools surface ErrToolConfigConflict at
// first query, per spec §7 ("ToolConfigConflict ... at first capability
// query") rather than eagerly at load time.
func (r *Registry) GetIncludedTools(spec string) ([]string, error) {
	role, err := r.getLocked(spec)
	if err != nil {
		return nil, err
	}
	if role.HasToolConfigConflict() {
		return nil, &ToolConfigConflictError{RoleName: role.Name, Group: role.Group}
	}
	out := make([]string, len(role.IncludedTools))
	copy(out, role.IncludedTools)
	return out, nil
}

func (r *Registry) GetExcludedTools(spec string) ([]string, error) {
	role, err := r.getLocked(spec)
	if err != nil {
		return nil, err
	}
	if role.HasToolConfigConflict() {
		return nil, &ToolConfigConflictError{RoleName: role.Name, Group: role.Group}
	}
	out := make([]string, len(role.ExcludedTools))
	copy(out, role.ExcludedTools)
	return out, nil
}

func (r *Registry) GetParsingTools(spec string) ([]ParsingTool, error) {
	role, err := r.getLocked(spec)
	if err != nil {
		return nil, err
	}
	out := make([]ParsingTool, len(role.ParsingTools))
	copy(out, role.ParsingTools)
	return out, nil
}

func (r *Registry) GetEnabledAgents(spec string) ([]string, error) {
	role, err := r.getLocked(spec)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(role.EnabledAgents))
	copy(out, role.EnabledAgents)
	return out, nil
}

func (r *Registry) GetCanCreateTasksFor(spec string) ([]string, error) {
	role, err := r.getLocked(spec)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(role.CanCreateTasksFor))
	copy(out, role.CanCreateTasksFor)
	return out, nil
}

func (r *Registry) IsAgentic(spec string) (bool, error) {
	role, err := r.getLocked(spec)
	if err != nil {
		return false, err
	}
	return role.IsAgentic(), nil
}

// CanSpawnAgent reports whether parentSpec's role may spawn childSpec's
// resolved role (spec §4.1, used by Agent Manager's spawn invariant).
// childSpec must resolve unambiguously; an ambiguous or unresolved child
// spec is simply not spawnable, not an error here — the Agent Manager
// surfaces SpawnUnauthorized in that case.
func (r *Registry) CanSpawnAgent(parentSpec, childSpec string) (bool, error) {
	parent, err := r.getLocked(parentSpec)
	if err != nil {
		return false, err
	}
	childRes := r.Resolve(childSpec)
	if !childRes.Found {
		return false, nil
	}
	simple := childRes.RoleName
	prefixed := childRes.Group + "." + childRes.RoleName
	for _, enabled := range parent.EnabledAgents {
		if enabled == simple || enabled == prefixed {
			return true, nil
		}
	}
	return false, nil
}

// describe returns the agentDescription of spec's resolved role, or the
// fixed fallback text when it cannot be resolved or has none set.
func (r *Registry) describe(spec string) string {
	role, _, err := r.Get(spec)
	if err != nil || role.AgentDescription == "" {
		return "No description available"
	}
	return role.AgentDescription
}
