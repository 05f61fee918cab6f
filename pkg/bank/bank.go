// Package bank loads problem suites: the functions learners write
// and the test cases their snippets are checked against.
package bank

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"digital.vasic.snippetcheck/pkg/result"

	"gopkg.in/yaml.v3"
)

// Bank manages problems loaded from suite files.
type Bank struct {
	mu       sync.RWMutex
	problems map[string]*Problem
	order    []string
	sources  []string
}

// New creates a new empty Bank.
func New() *Bank {
	return &Bank{
		problems: make(map[string]*Problem),
	}
}

func readSuite(path string) (*SuiteFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read suite file %s: %w", path, err)
	}
	var file SuiteFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse suite file %s: %w", path, err)
	}
	return &file, nil
}

// LoadFile loads problems from a YAML or JSON suite file. A
// problem whose ID is already loaded replaces the earlier one.
func (b *Bank) LoadFile(path string) error {
	file, err := readSuite(path)
	if err != nil {
		return err
	}

	for i, p := range file.Problems {
		if p.ID == "" {
			return fmt.Errorf("problem at index %d in %s has no ID", i, path)
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range file.Problems {
		p := &file.Problems[i]
		if _, exists := b.problems[p.ID]; !exists {
			b.order = append(b.order, p.ID)
		}
		b.problems[p.ID] = p
	}
	b.sources = append(b.sources, path)
	return nil
}

// IsSuiteFile reports whether name has a suite file extension.
func IsSuiteFile(name string) bool {
	switch filepath.Ext(name) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

// LoadDir loads every suite file in dir, in name order.
func (b *Bank) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read suite directory %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !IsSuiteFile(entry.Name()) {
			continue
		}
		if err := b.LoadFile(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

// Get retrieves a problem by ID.
func (b *Bank) Get(id string) (*Problem, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	p, ok := b.problems[id]
	return p, ok
}

// All returns all loaded problems in load order.
func (b *Bank) All() []*Problem {
	b.mu.RLock()
	defer b.mu.RUnlock()
	result := make([]*Problem, 0, len(b.order))
	for _, id := range b.order {
		result = append(result, b.problems[id])
	}
	return result
}

// IDs returns the loaded problem IDs sorted.
func (b *Bank) IDs() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	ids := make([]string, len(b.order))
	copy(ids, b.order)
	sort.Strings(ids)
	return ids
}

// Count returns the number of loaded problems.
func (b *Bank) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.problems)
}

// Sources returns the list of loaded file paths.
func (b *Bank) Sources() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	result := make([]string, len(b.sources))
	copy(result, b.sources)
	return result
}

// LoadCases reads a YAML or JSON document holding a bare list of
// test cases.
func LoadCases(path string) ([]result.TestCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cases file %s: %w", path, err)
	}
	var docs []caseDoc
	if err := yaml.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("parse cases file %s: %w", path, err)
	}

	cases := make([]result.TestCase, 0, len(docs))
	for i, d := range docs {
		tc, err := d.testCase()
		if err != nil {
			return nil, fmt.Errorf("%s: case %d %w", path, i, err)
		}
		cases = append(cases, tc)
	}
	return cases, nil
}
