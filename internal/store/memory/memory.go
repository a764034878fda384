package memory

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"chartsync/internal/core"
	"chartsync/internal/store"
)

// Ensure interface conformance
var (
	_ store.BlockStore   = (*Store)(nil)
	_ store.RecordSource = (*Store)(nil)
)

// Store is an in-process content tree and data source set. It backs the
// memory backend and doubles as the collaborator in tests.
type Store struct {
	mu       sync.Mutex
	children map[string][]core.Block
	schemas  map[string]map[string][]string
	records  map[string][]core.Record
	failures map[string]error

	listCalls int
	writes    []Write
}

// Write is one accepted ReplaceContent call.
type Write struct {
	BlockID string
	Text    string
}

func New() *Store {
	return &Store{
		children: map[string][]core.Block{},
		schemas:  map[string]map[string][]string{},
		records:  map[string][]core.Record{},
		failures: map[string]error{},
	}
}

// AddBlocks appends children under parent. The parent's HasChildren flag is
// derived when listing.
func (s *Store) AddBlocks(parent string, blocks ...core.Block) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.children[parent] = append(s.children[parent], blocks...)
}

// SetCategoryDomain declares the options of a select property.
func (s *Store) SetCategoryDomain(dataSourceID, property string, options ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.schemas[dataSourceID] == nil {
		s.schemas[dataSourceID] = map[string][]string{}
	}
	s.schemas[dataSourceID][property] = append([]string(nil), options...)
}

// AddRecords appends records to a data source.
func (s *Store) AddRecords(dataSourceID string, records ...core.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[dataSourceID] = append(s.records[dataSourceID], records...)
}

// FailWrites makes every ReplaceContent on blockID return err.
func (s *Store) FailWrites(blockID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[blockID] = err
}

// ListChildren returns a copy of the children of blockID.
func (s *Store) ListChildren(_ context.Context, blockID string) ([]core.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	out := make([]core.Block, len(s.children[blockID]))
	for i, b := range s.children[blockID] {
		b.HasChildren = len(s.children[b.ID]) > 0
		out[i] = b
	}
	return out, nil
}

// ReplaceContent overwrites the text of a code block.
func (s *Store) ReplaceContent(_ context.Context, blockID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failures[blockID]; err != nil {
		return err
	}
	for parent, blocks := range s.children {
		for i := range blocks {
			if blocks[i].ID != blockID {
				continue
			}
			if !blocks[i].IsCode() {
				return fmt.Errorf("block %s is a %s block, not code", blockID, blocks[i].Type)
			}
			s.children[parent][i].Text = text
			s.writes = append(s.writes, Write{BlockID: blockID, Text: text})
			return nil
		}
	}
	return fmt.Errorf("block %s not found", blockID)
}

// CategoryDomain returns the declared options in declaration order.
func (s *Store) CategoryDomain(_ context.Context, dataSourceID, property string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	props, ok := s.schemas[dataSourceID]
	if !ok {
		return nil, fmt.Errorf("data source %s not found", dataSourceID)
	}
	options, ok := props[property]
	if !ok {
		return nil, &core.SchemaMismatchError{Property: property, Expected: "select", Actual: "missing"}
	}
	return append([]string(nil), options...), nil
}

// QueryRecords returns the records of dataSourceID matching filter.
func (s *Store) QueryRecords(_ context.Context, dataSourceID string, filter *core.Filter) ([]core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Record
	for _, r := range s.records[dataSourceID] {
		if filter.Match(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Text returns the current payload of a block.
func (s *Store) Text(blockID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, blocks := range s.children {
		for _, b := range blocks {
			if b.ID == blockID {
				return b.Text, true
			}
		}
	}
	return "", false
}

// Writes returns the accepted writes in order.
func (s *Store) Writes() []Write {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Write(nil), s.writes...)
}

// ListCalls returns how many children listings were served.
func (s *Store) ListCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listCalls
}

// DataSource is a snapshot of one data source held by the store.
type DataSource struct {
	ID      string
	Schema  map[string][]string
	Records []core.Record
}

// DataSources returns every data source ordered by id.
func (s *Store) DataSources() []DataSource {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make(map[string]struct{}, len(s.schemas)+len(s.records))
	for id := range s.schemas {
		ids[id] = struct{}{}
	}
	for id := range s.records {
		ids[id] = struct{}{}
	}

	out := make([]DataSource, 0, len(ids))
	for id := range ids {
		ds := DataSource{ID: id, Schema: map[string][]string{}}
		for prop, options := range s.schemas[id] {
			ds.Schema[prop] = append([]string(nil), options...)
		}
		ds.Records = append([]core.Record(nil), s.records[id]...)
		out = append(out, ds)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type (
	seedFile struct {
		Blocks      map[string][]seedBlock    `yaml:"blocks"`
		DataSources map[string]seedDataSource `yaml:"data_sources"`
	}

	seedBlock struct {
		ID   string `yaml:"id"`
		Type string `yaml:"type"`
		Text string `yaml:"text"`
	}

	seedDataSource struct {
		Schema  map[string][]string `yaml:"schema"`
		Records []seedRecord        `yaml:"records"`
	}

	seedRecord struct {
		ID         string                  `yaml:"id"`
		Properties map[string]seedProperty `yaml:"properties"`
	}

	seedProperty struct {
		Number  *float64 `yaml:"number"`
		Formula *float64 `yaml:"formula"`
		Select  *string  `yaml:"select"`
		Date    *string  `yaml:"date"`
		Type    string   `yaml:"type"`
	}
)

// NewFromFile seeds a store from a YAML file. Blocks are keyed by parent id,
// data sources carry their select schema and records.
func NewFromFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file %s: %w", path, err)
	}
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}

	s := New()
	for parent, blocks := range seed.Blocks {
		for _, b := range blocks {
			t := strings.TrimSpace(b.Type)
			if t == "" {
				t = core.BlockTypeCode
			}
			s.AddBlocks(parent, core.Block{ID: b.ID, Type: t, Text: b.Text})
		}
	}
	for id, ds := range seed.DataSources {
		for prop, options := range ds.Schema {
			s.SetCategoryDomain(id, prop, dedupe(options)...)
		}
		for _, r := range ds.Records {
			rec := core.Record{ID: r.ID, Properties: map[string]core.Property{}}
			for name, p := range r.Properties {
				rec.Properties[name] = p.toProperty()
			}
			s.AddRecords(id, rec)
		}
	}
	return s, nil
}

func (p seedProperty) toProperty() core.Property {
	switch {
	case p.Number != nil:
		return core.NumberProperty(*p.Number)
	case p.Formula != nil:
		return core.FormulaProperty(*p.Formula)
	case p.Select != nil:
		return core.SelectProperty(*p.Select)
	case p.Date != nil:
		return core.DateProperty(*p.Date)
	default:
		return core.Property{Type: core.PropertyType(p.Type)}
	}
}

func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
