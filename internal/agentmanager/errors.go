package agentmanager

import "errors"

// ErrUnauthorizedSpawn is returned when canSpawnAgent rejects a spawn (spec
// §4.4 "fail with an 'unauthorized' error").
var ErrUnauthorizedSpawn = errors.New("agentmanager: parent role is not permitted to spawn this worker role")

// ErrAgentNotFound is a programmer error: the caller named an agent id that
// was never spawned or was already reset away (spec §7 "throws on
// programmer errors").
var ErrAgentNotFound = errors.New("agentmanager: unknown agent id")

// ErrAgentBusy is returned by SendMessage when the target agent is already
// running a send cycle (spec §4.4 sendMessage precondition).
var ErrAgentBusy = errors.New("agentmanager: agent is already running")
