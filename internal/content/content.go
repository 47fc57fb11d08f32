// Package content holds the immutable scene catalog: characters, scenes and
// the three rounds of each scene.
package content

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// RoundsPerScene is the fixed number of rounds in every scene
const RoundsPerScene = 3

//go:embed scenes.yaml
var defaultCatalog []byte

// ErrNotFound is returned when a scene or round is not in the catalog
var ErrNotFound = errors.New("content not found")

// Character is a conversation partner shown in a round
type Character struct {
	ID    string `yaml:"-" json:"id"`
	Name  string `yaml:"name" json:"name"`
	Role  string `yaml:"role" json:"role"`
	Image string `yaml:"image" json:"image"`
}

// Round is one exercise: two target sentences plus shared distractors
type Round struct {
	N              int      `yaml:"n" json:"n"`
	CharacterID    string   `yaml:"character" json:"character_id"`
	CharacterLabel string   `yaml:"character_label" json:"character_label"`
	Intent         string   `yaml:"intent,omitempty" json:"intent,omitempty"`
	Situation      string   `yaml:"situation" json:"situation"`
	PartnerLine    string   `yaml:"partner_line" json:"partner_line"`
	TargetTokens1  []string `yaml:"target1" json:"-"`
	TargetTokens2  []string `yaml:"target2" json:"-"`
	ExtraTokens    []string `yaml:"extra" json:"-"`
}

// Scene groups three rounds that share a communicative pattern
type Scene struct {
	N             int      `yaml:"n" json:"n"`
	Title         string   `yaml:"title" json:"title"`
	PatternLabel  string   `yaml:"pattern_label" json:"pattern_label"`
	PatternLines  []string `yaml:"pattern_lines" json:"pattern_lines"`
	GoalLines     []string `yaml:"goal_lines" json:"goal_lines"`
	Sentence1Role string   `yaml:"sentence1_role" json:"sentence1_role"`
	Sentence2Role string   `yaml:"sentence2_role" json:"sentence2_role"`
	Description   string   `yaml:"description,omitempty" json:"description,omitempty"`
	Rounds        []Round  `yaml:"rounds" json:"-"`
}

// Catalog is the loaded, validated set of scenes
type Catalog struct {
	characters map[string]Character
	scenes     []Scene
	byN        map[int]int
}

type catalogFile struct {
	Characters map[string]Character `yaml:"characters"`
	Scenes     []Scene              `yaml:"scenes"`
}

// Default returns the catalog compiled into the binary
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog from path, or the built-in catalog when path is empty
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read content file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse content: %w", err)
	}

	c := &Catalog{
		characters: make(map[string]Character, len(file.Characters)),
		byN:        make(map[int]int, len(file.Scenes)),
	}
	for id, ch := range file.Characters {
		ch.ID = id
		c.characters[id] = ch
	}

	scenes := file.Scenes
	sort.SliceStable(scenes, func(i, j int) bool { return scenes[i].N < scenes[j].N })
	for i := range scenes {
		if err := c.validateScene(&scenes[i]); err != nil {
			return nil, err
		}
		if _, dup := c.byN[scenes[i].N]; dup {
			return nil, fmt.Errorf("scene %d defined twice", scenes[i].N)
		}
		c.byN[scenes[i].N] = i
	}
	if len(scenes) == 0 {
		return nil, errors.New("content has no scenes")
	}
	c.scenes = scenes
	return c, nil
}

func (c *Catalog) validateScene(s *Scene) error {
	if s.N < 1 {
		return fmt.Errorf("scene number must be at least 1, got %d", s.N)
	}
	if len(s.Rounds) != RoundsPerScene {
		return fmt.Errorf("scene %d: expected %d rounds, got %d", s.N, RoundsPerScene, len(s.Rounds))
	}

	sort.SliceStable(s.Rounds, func(i, j int) bool { return s.Rounds[i].N < s.Rounds[j].N })
	for i, r := range s.Rounds {
		if r.N != i+1 {
			return fmt.Errorf("scene %d: rounds must be numbered 1..%d", s.N, RoundsPerScene)
		}
		if len(r.TargetTokens1) == 0 || len(r.TargetTokens2) == 0 {
			return fmt.Errorf("scene %d round %d: target sentences must not be empty", s.N, r.N)
		}
		if _, ok := c.characters[r.CharacterID]; !ok {
			return fmt.Errorf("scene %d round %d: unknown character %q", s.N, r.N, r.CharacterID)
		}
	}
	return nil
}

// Scenes returns all scenes ordered by number
func (c *Catalog) Scenes() []Scene {
	out := make([]Scene, len(c.scenes))
	copy(out, c.scenes)
	return out
}

// Scene looks up a scene by number
func (c *Catalog) Scene(n int) (*Scene, error) {
	idx, ok := c.byN[n]
	if !ok {
		return nil, fmt.Errorf("scene %d: %w", n, ErrNotFound)
	}
	s := c.scenes[idx]
	return &s, nil
}

// Round looks up one round of a scene
func (c *Catalog) Round(sceneN, roundN int) (*Scene, *Round, error) {
	scene, err := c.Scene(sceneN)
	if err != nil {
		return nil, nil, err
	}
	if roundN < 1 || roundN > len(scene.Rounds) {
		return nil, nil, fmt.Errorf("scene %d round %d: %w", sceneN, roundN, ErrNotFound)
	}
	r := scene.Rounds[roundN-1]
	return scene, &r, nil
}

// Character looks up a character by id
func (c *Catalog) Character(id string) (Character, bool) {
	ch, ok := c.characters[id]
	return ch, ok
}

// Characters returns every character ordered by id
func (c *Catalog) Characters() []Character {
	out := make([]Character, 0, len(c.characters))
	for _, ch := range c.characters {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// MaxScene returns the highest scene number in the catalog
func (c *Catalog) MaxScene() int {
	return c.scenes[len(c.scenes)-1].N
}
