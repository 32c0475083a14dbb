package antenna

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// LoadAliases reads an operator alias table from a YAML file. The portal
// registers stations under legal entity names ("TELEFONICA BRASIL S.A.")
// that an alias table can fold into carrier labels ("VIVO") so the
// operator-diversity rule counts carriers, not subsidiaries.
//
// The YAML has a top-level "operators" key mapping canonical names to the
// entity names they cover:
//
//	operators:
//	  VIVO:
//	    - TELEFONICA BRASIL S.A.
//	  CLARO:
//	    - CLARO S.A.
//	    - AMERICEL S/A
func LoadAliases(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "antenna: read alias table %s", path)
	}

	var wrapper struct {
		Operators map[string][]string `yaml:"operators"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "antenna: parse alias table")
	}

	aliases := make(map[string]string)
	for canonical, entities := range wrapper.Operators {
		for _, entity := range entities {
			if existing, ok := aliases[entity]; ok && existing != canonical {
				return nil, eris.Errorf("antenna: entity %q mapped to both %q and %q", entity, existing, canonical)
			}
			aliases[entity] = canonical
		}
	}

	return aliases, nil
}
