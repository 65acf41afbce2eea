package toolhook

// FileModifyingTools is the static declaration table spec §4.8 step 1
// refers to: the set of tool names the hook treats as file-modifying and
// therefore worth bracketing with a before/after capture. It is a plain
// value, not a registry, mirroring the fixed pattern lists
// internal/agent/tool_registry.go's matchesToolPatterns consults
// (RequireApproval, AsyncTools) rather than a tool-declared capability
// flag, since Tool itself carries no such metadata.
var FileModifyingTools = map[string]bool{
	"write_file":   true,
	"edit_file":    true,
	"str_replace":  true,
	"delete_file":  true,
	"apply_patch":  true,
	"run_command":  true,
	"bash":         true,
}

// ModifiesFiles reports whether name is declared as file-modifying.
func ModifiesFiles(name string) bool {
	return FileModifyingTools[name]
}
