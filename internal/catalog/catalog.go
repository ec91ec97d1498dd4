// Package catalog loads the supported-game catalog from a YAML file and
// validates the game-specific attribute blocks carried by account
// listings. One generic account entity plus a catalog entry per game
// replaces a schema-per-game design.
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

type Attribute struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"` // string, number, bool
	Required bool   `yaml:"required"`
}

type Game struct {
	Key        string      `yaml:"key"`
	Label      string      `yaml:"label"`
	Attributes []Attribute `yaml:"attributes"`
}

type Catalog struct {
	games map[string]Game
}

type catalogFile struct {
	Games []Game `yaml:"games"`
}

func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if len(file.Games) == 0 {
		return nil, fmt.Errorf("catalog defines no games")
	}

	games := make(map[string]Game, len(file.Games))
	for _, g := range file.Games {
		if g.Key == "" {
			return nil, fmt.Errorf("catalog entry missing key")
		}
		if _, ok := games[g.Key]; ok {
			return nil, fmt.Errorf("duplicate catalog entry: %s", g.Key)
		}
		for _, attr := range g.Attributes {
			switch attr.Type {
			case "string", "number", "bool":
			default:
				return nil, fmt.Errorf("game %s attribute %s has unknown type %q", g.Key, attr.Name, attr.Type)
			}
		}
		games[g.Key] = g
	}

	return &Catalog{games: games}, nil
}

// Has reports whether the game key is in the catalog.
func (c *Catalog) Has(game string) bool {
	_, ok := c.games[game]
	return ok
}

// Label returns the display label for a game key, or the key itself
// when unknown.
func (c *Catalog) Label(game string) string {
	if g, ok := c.games[game]; ok {
		return g.Label
	}
	return game
}

// Keys lists the supported game keys.
func (c *Catalog) Keys() []string {
	keys := make([]string, 0, len(c.games))
	for k := range c.games {
		keys = append(keys, k)
	}
	return keys
}

// ValidateAttributes checks an account's attribute block against the
// game's catalog entry: the game must exist, every attribute must be
// declared with a matching type, and required attributes must be
// present.
func (c *Catalog) ValidateAttributes(game string, attrs map[string]interface{}) error {
	g, ok := c.games[game]
	if !ok {
		return fmt.Errorf("unsupported game: %s", game)
	}

	declared := make(map[string]Attribute, len(g.Attributes))
	for _, attr := range g.Attributes {
		declared[attr.Name] = attr
	}

	for name, value := range attrs {
		attr, ok := declared[name]
		if !ok {
			return fmt.Errorf("game %s does not declare attribute %q", game, name)
		}
		if err := checkType(attr, value); err != nil {
			return err
		}
	}

	for _, attr := range g.Attributes {
		if !attr.Required {
			continue
		}
		if _, ok := attrs[attr.Name]; !ok {
			return fmt.Errorf("missing required attribute %q for game %s", attr.Name, game)
		}
	}

	return nil
}

func checkType(attr Attribute, value interface{}) error {
	switch attr.Type {
	case "string":
		if _, ok := value.(string); !ok {
			return fmt.Errorf("attribute %q must be a string", attr.Name)
		}
	case "number":
		switch value.(type) {
		case float64, int, int64:
		default:
			return fmt.Errorf("attribute %q must be a number", attr.Name)
		}
	case "bool":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("attribute %q must be a bool", attr.Name)
		}
	}
	return nil
}
