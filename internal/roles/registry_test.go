package roles

import "testing"

func buildFixture() *Registry {
	reg := New()
	reg.add(GlobalGroup, "writer", &Role{SystemMessage: "you write prose"})
	reg.add("a", "helper", &Role{SystemMessage: "helper in a"})
	reg.add("b", "helper", &Role{SystemMessage: "helper in b"})
	reg.add("a", "architect", &Role{
		SystemMessage:    "you design systems",
		AgentDescription: "designs software architecture",
	})
	reg.add(GlobalGroup, "pm", &Role{
		SystemMessage:     "you manage projects",
		EnabledAgents:     []string{"a.architect"},
		CanCreateTasksFor: []string{"architect"},
	})
	return reg
}

func TestResolveAmbiguous(t *testing.T) {
	reg := buildFixture()

	res := reg.Resolve("helper")
	if res.Found || !res.Ambiguous {
		t.Fatalf("expected ambiguous, got %+v", res)
	}
	if len(res.AvailableGroups) != 2 || res.AvailableGroups[0] != "a" || res.AvailableGroups[1] != "b" {
		t.Fatalf("expected sorted [a b], got %v", res.AvailableGroups)
	}

	res = reg.Resolve("a.helper")
	if !res.Found || res.RoleName != "helper" || res.Group != "a" {
		t.Fatalf("expected found a.helper, got %+v", res)
	}
}

func TestResolveGlobalTakesPriorityOverNonGlobal(t *testing.T) {
	reg := buildFixture()
	res := reg.Resolve("writer")
	if !res.Found || res.Group != GlobalGroup {
		t.Fatalf("expected global writer, got %+v", res)
	}
}

func TestResolveSingleNonGlobalGroup(t *testing.T) {
	reg := buildFixture()
	res := reg.Resolve("architect")
	if !res.Found || res.Group != "a" {
		t.Fatalf("expected found in group a, got %+v", res)
	}
}

func TestResolveUnknown(t *testing.T) {
	reg := buildFixture()
	res := reg.Resolve("nobody")
	if res.Found || res.Ambiguous {
		t.Fatalf("expected not found, got %+v", res)
	}
	_, _, err := reg.Get("nobody")
	if _, ok := err.(*UnknownRoleError); !ok {
		t.Fatalf("expected UnknownRoleError, got %v", err)
	}
}

func TestResolveDoesNotMutateCallerState(t *testing.T) {
	reg := buildFixture()
	first := reg.Resolve("helper").AvailableGroups
	first[0] = "zzz"
	second := reg.Resolve("helper").AvailableGroups
	if second[0] != "a" {
		t.Fatalf("mutating a returned AvailableGroups slice leaked into the registry: %v", second)
	}
}

func TestCanSpawnAgentByPrefixedName(t *testing.T) {
	reg := buildFixture()
	ok, err := reg.CanSpawnAgent("pm", "a.architect")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatalf("expected pm to be able to spawn a.architect")
	}

	ok, err = reg.CanSpawnAgent("pm", "writer")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatalf("expected pm not to be able to spawn writer")
	}
}

func TestGetSystemMessageAddsCoordinationBlockOnlyWhenAgentic(t *testing.T) {
	reg := buildFixture()

	msg, err := reg.GetSystemMessage("writer", EnvironmentContext{}, "")
	if err != nil {
		t.Fatal(err)
	}
	if msg != "you write prose" {
		t.Fatalf("expected no coordination block for non-agentic role, got %q", msg)
	}

	msg, err = reg.GetSystemMessage("pm", EnvironmentContext{}, "")
	if err != nil {
		t.Fatal(err)
	}
	if !contains(msg, "a.architect: designs software architecture") {
		t.Fatalf("expected coordination block describing a.architect, got %q", msg)
	}
	if !contains(msg, "architect") || !contains(msg, "create tasks for") {
		t.Fatalf("expected canCreateTasksFor block, got %q", msg)
	}
}

func TestGetSystemMessageSubstitutesEnvironmentTemplate(t *testing.T) {
	reg := buildFixture()
	env := EnvironmentContext{OS: "linux", CWD: "/work", IndexExists: true, CurrentDateTime: "2026-07-31T00:00:00Z"}
	msg, err := reg.GetSystemMessage("writer", env, "os={os} cwd={cwd} idx={indexExists} now={currentDateTime}")
	if err != nil {
		t.Fatal(err)
	}
	want := "you write prose\n\nos=linux cwd=/work idx=true now=2026-07-31T00:00:00Z"
	if msg != want {
		t.Fatalf("want %q, got %q", want, msg)
	}
}

func contains(haystack, needle string) bool {
	return len(haystack) >= len(needle) && (func() bool {
		for i := 0; i+len(needle) <= len(haystack); i++ {
			if haystack[i:i+len(needle)] == needle {
				return true
			}
		}
		return false
	})()
}
