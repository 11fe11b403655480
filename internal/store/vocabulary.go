// Package store provides the vocabulary and pattern configuration backing
// categorization and field extraction. Both stores hand out immutable
// snapshots so concurrent batch workers never observe a half-reloaded state.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"mlaurent/scanledger/internal/logging"
)

// CategoryConfig is one category entry in the vocabulary YAML.
type CategoryConfig struct {
	Name          string   `yaml:"name"`
	Subcategories []string `yaml:"subcategories,omitempty"`
	Keywords      []string `yaml:"keywords,omitempty"`
}

// vocabularyFile is the top-level YAML document shape.
type vocabularyFile struct {
	Categories []CategoryConfig `yaml:"categories"`
}

// Vocabulary is an immutable snapshot of the allowed categories and their
// subcategories. Lookup keys are case-insensitive.
type Vocabulary struct {
	categories []CategoryConfig
	byName     map[string]*CategoryConfig
}

// NewVocabulary builds a snapshot from category entries.
func NewVocabulary(categories []CategoryConfig) *Vocabulary {
	v := &Vocabulary{
		categories: make([]CategoryConfig, len(categories)),
		byName:     make(map[string]*CategoryConfig, len(categories)),
	}
	copy(v.categories, categories)
	for i := range v.categories {
		v.byName[strings.ToLower(v.categories[i].Name)] = &v.categories[i]
	}
	return v
}

// CategoryNames returns the category names in sorted order.
func (v *Vocabulary) CategoryNames() []string {
	names := make([]string, 0, len(v.categories))
	for _, c := range v.categories {
		names = append(names, c.Name)
	}
	sort.Strings(names)
	return names
}

// HasCategory reports whether the vocabulary contains the category,
// ignoring case.
func (v *Vocabulary) HasCategory(name string) bool {
	_, ok := v.byName[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// CanonicalCategory returns the vocabulary spelling of a category name.
func (v *Vocabulary) CanonicalCategory(name string) (string, bool) {
	c, ok := v.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", false
	}
	return c.Name, true
}

// Subcategories returns the allowed subcategories for a category, or nil if
// the category is unknown or unconstrained.
func (v *Vocabulary) Subcategories(category string) []string {
	c, ok := v.byName[strings.ToLower(strings.TrimSpace(category))]
	if !ok {
		return nil
	}
	return c.Subcategories
}

// MatchKeyword scans a description for vocabulary keywords and returns the
// first matching category. Matching is case-insensitive substring search.
func (v *Vocabulary) MatchKeyword(description string) (string, bool) {
	lowered := strings.ToLower(description)
	for _, c := range v.categories {
		for _, kw := range c.Keywords {
			if kw != "" && strings.Contains(lowered, strings.ToLower(kw)) {
				return c.Name, true
			}
		}
	}
	return "", false
}

// CategoryStore loads the vocabulary YAML and serves snapshots of it.
type CategoryStore struct {
	mu       sync.RWMutex
	path     string
	log      logging.Logger
	snapshot *Vocabulary
}

// NewCategoryStore creates a store reading from path. The file is not read
// until Load or the first Snapshot call.
func NewCategoryStore(path string, log logging.Logger) *CategoryStore {
	if log == nil {
		log = logging.GetLogger()
	}
	return &CategoryStore{path: path, log: log}
}

// Load reads the vocabulary file and atomically replaces the snapshot. A
// missing file is not an error; the built-in default vocabulary is used.
func (s *CategoryStore) Load() error {
	vocab, err := s.read()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.snapshot = vocab
	s.mu.Unlock()
	return nil
}

// Reload is Load under a name that reads better at call sites that refresh
// an already-loaded store.
func (s *CategoryStore) Reload() error { return s.Load() }

// Snapshot returns the current vocabulary, loading it on first use. Readers
// holding an old snapshot keep it until they ask again.
func (s *CategoryStore) Snapshot() *Vocabulary {
	s.mu.RLock()
	snap := s.snapshot
	s.mu.RUnlock()
	if snap != nil {
		return snap
	}
	if err := s.Load(); err != nil {
		s.log.WithError(err).Warn("vocabulary load failed, using defaults",
			logging.Field{Key: logging.FieldFile, Value: s.path})
		s.mu.Lock()
		s.snapshot = DefaultVocabulary()
		s.mu.Unlock()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

func (s *CategoryStore) read() (*Vocabulary, error) {
	path := s.path
	if path == "" {
		path = filepath.Join("config", "categories.yaml")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			s.log.Warn("categories file not found, using defaults",
				logging.Field{Key: logging.FieldFile, Value: path})
			return DefaultVocabulary(), nil
		}
		return nil, fmt.Errorf("error reading categories file: %w", err)
	}

	var doc vocabularyFile
	if err := yaml.Unmarshal(data, &doc); err == nil && len(doc.Categories) > 0 {
		s.log.Debug("loaded categories",
			logging.Field{Key: logging.FieldFile, Value: path},
			logging.Field{Key: logging.FieldCount, Value: len(doc.Categories)})
		return NewVocabulary(doc.Categories), nil
	}

	// Fallback: a bare list without the top-level key.
	var flat []CategoryConfig
	if err := yaml.Unmarshal(data, &flat); err != nil {
		return nil, fmt.Errorf("error parsing categories file: %w", err)
	}
	return NewVocabulary(flat), nil
}

// DefaultVocabulary is the built-in category set used when no vocabulary
// file is configured.
func DefaultVocabulary() *Vocabulary {
	return NewVocabulary([]CategoryConfig{
		{Name: "Groceries", Subcategories: []string{"Supermarket", "Bakery", "Market"},
			Keywords: []string{"carrefour", "leclerc", "auchan", "lidl", "intermarche", "monoprix"}},
		{Name: "Restaurants", Subcategories: []string{"Restaurant", "Fast Food", "Cafe"},
			Keywords: []string{"restaurant", "mcdonald", "burger", "pizza", "uber eats", "deliveroo"}},
		{Name: "Transport", Subcategories: []string{"Fuel", "Public Transport", "Parking", "Tolls"},
			Keywords: []string{"sncf", "ratp", "total energies", "esso", "autoroute", "parking"}},
		{Name: "Housing", Subcategories: []string{"Rent", "Utilities", "Insurance", "Maintenance"},
			Keywords: []string{"loyer", "edf", "engie", "veolia", "assurance habitation"}},
		{Name: "Health", Subcategories: []string{"Pharmacy", "Doctor", "Insurance"},
			Keywords: []string{"pharmacie", "mutuelle", "docteur", "laboratoire"}},
		{Name: "Leisure", Subcategories: []string{"Streaming", "Sport", "Culture", "Travel"},
			Keywords: []string{"netflix", "spotify", "cinema", "fnac", "decathlon"}},
		{Name: "Salary", Subcategories: []string{"Salary", "Bonus"},
			Keywords: []string{"salaire", "paye", "virement salaire"}},
		{Name: "Uncategorized"},
	})
}
