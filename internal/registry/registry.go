// Package registry loads the entity registry the harvester operates on.
package registry

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/finstat-harvester/internal/model"
)

// LoadEntities reads a YAML list of entities from the given path.
// Every entity must carry a non-empty PIB; duplicate PIBs are rejected so a
// run can never emit the same (entity, statement) pair twice.
func LoadEntities(path string) ([]model.Entity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "registry: read entities file")
	}

	var entities []model.Entity
	if err := yaml.Unmarshal(data, &entities); err != nil {
		return nil, eris.Wrap(err, "registry: unmarshal entities file")
	}

	seen := make(map[string]string, len(entities))
	for _, e := range entities {
		if e.PIB == "" {
			return nil, eris.Errorf("registry: entity %q has no pib", e.Name)
		}
		if e.Name == "" {
			return nil, eris.Errorf("registry: entity %s has no name", e.PIB)
		}
		if prev, ok := seen[e.PIB]; ok {
			return nil, eris.Errorf("registry: duplicate pib %s (%s, %s)", e.PIB, prev, e.Name)
		}
		seen[e.PIB] = e.Name
	}

	return entities, nil
}
