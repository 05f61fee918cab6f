package bank

import (
	"fmt"

	"digital.vasic.snippetcheck/pkg/result"
	"digital.vasic.snippetcheck/pkg/value"

	"gopkg.in/yaml.v3"
)

// SuiteFile is the document structure of a problem suite. JSON
// documents are accepted as YAML.
type SuiteFile struct {
	Version  string         `yaml:"version"`
	Name     string         `yaml:"name"`
	Problems []Problem      `yaml:"problems"`
	Metadata map[string]any `yaml:"metadata,omitempty"`
}

// Problem is one exercise: the function learners must write and
// the cases it is checked against.
type Problem struct {
	ID          string
	Title       string
	Description string

	// Function is the preferred function name; empty tests the
	// first function the snippet declares.
	Function string

	// Dialect overrides the engine default when set.
	Dialect string

	// Solution is an optional reference snippet expected to pass
	// every case.
	Solution string

	Cases []result.TestCase
}

type problemDoc struct {
	ID          string    `yaml:"id"`
	Title       string    `yaml:"title"`
	Description string    `yaml:"description"`
	Function    string    `yaml:"function"`
	Dialect     string    `yaml:"dialect"`
	Solution    string    `yaml:"solution"`
	Cases       []caseDoc `yaml:"cases"`
}

// caseDoc keeps raw nodes so that a missing key can be told apart
// from an explicit null.
type caseDoc struct {
	Input          yaml.Node `yaml:"input"`
	ExpectedOutput yaml.Node `yaml:"expectedOutput"`
	Description    string    `yaml:"description"`
}

func (c caseDoc) testCase() (result.TestCase, error) {
	input, err := value.FromYAML(&c.Input)
	if err != nil {
		return result.TestCase{}, fmt.Errorf("input: %w", err)
	}
	expected, err := value.FromYAML(&c.ExpectedOutput)
	if err != nil {
		return result.TestCase{}, fmt.Errorf("expectedOutput: %w", err)
	}
	return result.TestCase{
		Input:          input,
		ExpectedOutput: expected,
		Description:    c.Description,
	}, nil
}

// UnmarshalYAML decodes a problem, converting case values into the
// value model. An absent expectedOutput means undefined.
func (p *Problem) UnmarshalYAML(node *yaml.Node) error {
	var doc problemDoc
	if err := node.Decode(&doc); err != nil {
		return err
	}

	cases := make([]result.TestCase, 0, len(doc.Cases))
	for i, c := range doc.Cases {
		tc, err := c.testCase()
		if err != nil {
			return fmt.Errorf("problem %q case %d %w", doc.ID, i, err)
		}
		cases = append(cases, tc)
	}

	*p = Problem{
		ID:          doc.ID,
		Title:       doc.Title,
		Description: doc.Description,
		Function:    doc.Function,
		Dialect:     doc.Dialect,
		Solution:    doc.Solution,
		Cases:       cases,
	}
	return nil
}
