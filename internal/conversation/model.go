package conversation

import "github.com/corehive/agentcore/internal/config"

// resolveModel implements spec §4.3 model selection: the requested level
// picks among configured variants, falling back to base when unconfigured.
func resolveModel(variants map[config.ModelLevel]config.ModelVariant, requested Level) (config.ModelVariant, Level) {
	if v, ok := variants[config.ModelLevel(requested)]; ok {
		return v, requested
	}
	return variants[config.LevelBase], LevelBase
}
