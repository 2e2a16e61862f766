// Package catalog holds the fixed, read-only set of incidents served by the
// game and answers list, lookup and submission requests against it.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

//go:embed incidents.yaml
var defaultDocument []byte

// Catalog is an immutable index of incidents. It is safe for concurrent use.
type Catalog struct {
	incidents []Incident
	byIndex   map[int]int
}

type document struct {
	Incidents []Incident `yaml:"incidents"`
}

// New validates incidents and builds a catalog ordered by index. The input
// slice is copied.
func New(incidents []Incident) (*Catalog, error) {
	c := &Catalog{
		incidents: make([]Incident, 0, len(incidents)),
		byIndex:   make(map[int]int, len(incidents)),
	}
	ids := make(map[string]struct{}, len(incidents))

	for _, in := range incidents {
		in = clone(in)
		if err := normalize(&in); err != nil {
			return nil, err
		}
		if _, dup := c.byIndex[in.Index]; dup {
			return nil, fmt.Errorf("%w: duplicate index %d", ErrInvalid, in.Index)
		}
		if _, dup := ids[in.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrInvalid, in.ID)
		}
		ids[in.ID] = struct{}{}
		c.byIndex[in.Index] = -1
		c.incidents = append(c.incidents, in)
	}

	sort.SliceStable(c.incidents, func(i, j int) bool {
		return c.incidents[i].Index < c.incidents[j].Index
	})
	for pos, in := range c.incidents {
		c.byIndex[in.Index] = pos
	}
	return c, nil
}

// Default returns the built-in catalog. It panics if the embedded document
// is broken, which can only happen at development time.
func Default() *Catalog {
	c, err := Parse(defaultDocument)
	if err != nil {
		panic(fmt.Sprintf("catalog: built-in incidents: %v", err))
	}
	return c
}

// Load reads a YAML catalog document from path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("loading catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a YAML catalog document. Unknown fields are rejected.
func Parse(data []byte) (*Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalid)
		}
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	return New(doc.Incidents)
}

// Len returns the number of incidents.
func (c *Catalog) Len() int {
	return len(c.incidents)
}

// List returns every incident in ascending index order.
func (c *Catalog) List() []View {
	views := make([]View, 0, len(c.incidents))
	for _, in := range c.incidents {
		views = append(views, view(in))
	}
	return views
}

// Get returns the incident stored under index.
func (c *Catalog) Get(index int) (View, error) {
	in, ok := c.lookup(index)
	if !ok {
		return View{}, ErrNotFound
	}
	return view(in), nil
}

// Submit checks choice against the incident's correct answer. The choice is
// compared case-insensitively after trimming surrounding whitespace; anything
// that is not the correct key, including an empty string, is incorrect.
func (c *Catalog) Submit(index int, choice string) (AnswerResult, error) {
	in, ok := c.lookup(index)
	if !ok {
		return AnswerResult{}, ErrNotFound
	}

	if normalizeKey(choice) == in.CorrectChoice {
		return AnswerResult{Correct: true, Message: in.CorrectMessage}, nil
	}
	return AnswerResult{Correct: false, Message: in.IncorrectMessage}, nil
}

func (c *Catalog) lookup(index int) (Incident, bool) {
	pos, ok := c.byIndex[index]
	if !ok {
		return Incident{}, false
	}
	return c.incidents[pos], true
}

func normalizeKey(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func normalize(in *Incident) error {
	if in.Index <= 0 {
		return fmt.Errorf("%w: index %d must be positive", ErrInvalid, in.Index)
	}
	if strings.TrimSpace(in.ID) == "" {
		return fmt.Errorf("%w: incident %d has no id", ErrInvalid, in.Index)
	}

	keys := make(map[string]struct{}, len(in.Choices))
	for i := range in.Choices {
		key := normalizeKey(in.Choices[i].Key)
		r, size := utf8.DecodeRuneInString(key)
		if size == 0 || size != len(key) || !unicode.IsLetter(r) {
			return fmt.Errorf("%w: incident %d: choice key %q is not a single letter", ErrInvalid, in.Index, in.Choices[i].Key)
		}
		if _, dup := keys[key]; dup {
			return fmt.Errorf("%w: incident %d: duplicate choice key %q", ErrInvalid, in.Index, key)
		}
		keys[key] = struct{}{}
		in.Choices[i].Key = key
	}

	in.CorrectChoice = normalizeKey(in.CorrectChoice)
	if _, ok := keys[in.CorrectChoice]; !ok {
		return fmt.Errorf("%w: incident %d: correct choice %q is not one of its choices", ErrInvalid, in.Index, in.CorrectChoice)
	}

	if in.CorrectMessage == "" {
		in.CorrectMessage = defaultCorrectMessage
	}
	if in.IncorrectMessage == "" {
		in.IncorrectMessage = defaultIncorrectMessage
	}
	return nil
}

func clone(in Incident) Incident {
	in.Lines = append([]string{}, in.Lines...)
	in.Choices = append([]Choice{}, in.Choices...)
	return in
}

func view(in Incident) View {
	return View{
		ID:          in.ID,
		Index:       in.Index,
		Title:       in.Title,
		Description: in.Description,
		Lines:       append([]string{}, in.Lines...),
		Choices:     append([]Choice{}, in.Choices...),
	}
}
