package roles

import (
	"fmt"
	"sort"
	"strings"
)

// EnvironmentContext carries the values substituted into an environment
// template (spec §6 "Environment template file"). CurrentDateTime is
// pre-formatted by the caller rather than read from the wall clock here,
// keeping the registry itself free of a hidden time dependency.
type EnvironmentContext struct {
	OS              string
	CWD             string
	IndexExists     bool
	CurrentDateTime string
}

const noAgentDescription = "No description available"

const coordinationPreamble = "You can coordinate with other agents using the following tools: spawn_agent, speak_to_agent, get_agents, and return_results. Use them to delegate work to the agents listed below rather than attempting it yourself."

// GetSystemMessage builds the final system message for spec: the role's raw
// SystemMessage, followed by a generated coordination block when the role
// is agentic (spec §4.1), followed by the environment block produced by
// substituting env into template (spec §6). template may be empty, in which
// case no environment block is appended.
func (r *Registry) GetSystemMessage(spec string, env EnvironmentContext, template string) (string, error) {
	role, _, err := r.Get(spec)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(role.SystemMessage)

	if role.IsAgentic() {
		b.WriteString("\n\n")
		b.WriteString(r.coordinationBlock(role))
	}

	if template != "" {
		b.WriteString("\n\n")
		b.WriteString(substituteEnvironment(template, env))
	}

	return b.String(), nil
}

// coordinationBlock enumerates enabledAgents with their descriptions and
// canCreateTasksFor role names. It is generated for any role whose
// enabledAgents is non-empty, regardless of group — the literal-string
// "agentic" group comparison present in the source is deliberately not
// reproduced (spec §9 open question).
func (r *Registry) coordinationBlock(role *Role) string {
	var b strings.Builder
	b.WriteString(coordinationPreamble)
	b.WriteString("\n\nAvailable agents:\n")
	for _, agentSpec := range role.EnabledAgents {
		fmt.Fprintf(&b, "- %s: %s\n", agentSpec, r.describe(agentSpec))
	}

	if len(role.CanCreateTasksFor) > 0 {
		names := make([]string, len(role.CanCreateTasksFor))
		copy(names, role.CanCreateTasksFor)
		sort.Strings(names)
		b.WriteString("\nYou may also create tasks for: ")
		b.WriteString(strings.Join(names, ", "))
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func substituteEnvironment(template string, env EnvironmentContext) string {
	replacer := strings.NewReplacer(
		"{os}", env.OS,
		"{cwd}", env.CWD,
		"{indexExists}", fmt.Sprintf("%t", env.IndexExists),
		"{currentDateTime}", env.CurrentDateTime,
	)
	return replacer.Replace(template)
}
