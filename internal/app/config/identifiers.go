package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ghalamif/sck2eventhub/internal/domain"
)

// IdentifierTable maps symbolic names to platform ids. In YAML it is written
// as a mapping and keeps the order the entries appear in:
//
//	devices:
//	  VDK09: 12613
//	  VDK05: 12611
type IdentifierTable []domain.Identifier

func (t *IdentifierTable) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping of name to id", n.Line)
	}
	out := make(IdentifierTable, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		var id int
		if err := val.Decode(&id); err != nil {
			return fmt.Errorf("line %d: id for %q: %w", val.Line, key.Value, err)
		}
		out = append(out, domain.Identifier{Name: key.Value, ID: id})
	}
	*t = out
	return nil
}

func (t IdentifierTable) MarshalYAML() (any, error) {
	n := &yaml.Node{Kind: yaml.MappingNode}
	for _, id := range t {
		n.Content = append(n.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: id.Name},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: fmt.Sprint(id.ID)})
	}
	return n, nil
}

func (t IdentifierTable) validate(what string) error {
	if len(t) == 0 {
		return fmt.Errorf("%s: at least one entry is required", what)
	}
	names := make(map[string]bool, len(t))
	ids := make(map[int]string, len(t))
	for _, id := range t {
		if strings.TrimSpace(id.Name) == "" {
			return fmt.Errorf("%s: empty name", what)
		}
		if id.ID <= 0 {
			return fmt.Errorf("%s: %s has non-positive id %d", what, id.Name, id.ID)
		}
		// Sensor names become lower-case payload keys, so compare folded.
		folded := strings.ToLower(id.Name)
		if names[folded] {
			return fmt.Errorf("%s: duplicate name %s", what, id.Name)
		}
		names[folded] = true
		if prev, ok := ids[id.ID]; ok {
			return fmt.Errorf("%s: %s and %s share id %d", what, prev, id.Name, id.ID)
		}
		ids[id.ID] = id.Name
	}
	return nil
}
