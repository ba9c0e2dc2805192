package playbook

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// varsDelimiter keeps dotted variable names as single keys
const varsDelimiter = "/"

// ParseVars decodes a YAML mapping of variables, as found in vars files and
// role defaults
func ParseVars(data []byte) (map[string]interface{}, error) {
	k := koanf.New(varsDelimiter)
	if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to parse variables: %w", err)
	}
	return k.Raw(), nil
}
