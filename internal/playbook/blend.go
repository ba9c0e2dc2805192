package playbook

import "fmt"

// BlendTarget selects which precedence ruleset a render uses
type BlendTarget int

const (
	// NotTemplateModule is the scope for ordinary task fields
	NotTemplateModule BlendTarget = iota

	// TemplateModule is the scope for the template module rendering file
	// contents. Only this target sees the control-node environment.
	TemplateModule
)

// String returns the blend target name
func (b BlendTarget) String() string {
	switch b {
	case NotTemplateModule:
		return "not_template_module"
	case TemplateModule:
		return "template_module"
	default:
		return fmt.Sprintf("blend_target(%d)", int(b))
	}
}

// Magic variable names added to every scope
const (
	VarInventoryHostname = "inventory_hostname"
	VarGroupNames        = "group_names"
	VarGroups            = "groups"
	VarEnv               = "env"
)

// blendVariables merges src into dst. Nested maps merge key by key; any other
// value in src replaces the one in dst.
func blendVariables(dst, src map[string]interface{}) {
	for key, value := range src {
		srcMap, srcIsMap := value.(map[string]interface{})
		dstMap, dstIsMap := dst[key].(map[string]interface{})
		if srcIsMap && dstIsMap {
			merged := make(map[string]interface{}, len(dstMap))
			blendVariables(merged, dstMap)
			blendVariables(merged, srcMap)
			dst[key] = merged
			continue
		}
		if srcIsMap {
			copied := make(map[string]interface{}, len(srcMap))
			blendVariables(copied, srcMap)
			dst[key] = copied
			continue
		}
		dst[key] = value
	}
}
