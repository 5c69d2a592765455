package bank

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"biodiversity-quiz/internal/domain"
)

//go:embed catalog.yaml
var builtinCatalog []byte

// ParseCatalog decodes a YAML list of question sets.
func ParseCatalog(data []byte) ([]domain.QuestionSet, error) {
	var sets []domain.QuestionSet
	if err := yaml.Unmarshal(data, &sets); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidCatalog, err)
	}
	return sets, nil
}

// FileLoader reads the catalog from a YAML file. An empty path selects the
// catalog compiled into the binary.
type FileLoader struct {
	Path string
}

func (l FileLoader) LoadQuestionSets(_ context.Context) ([]domain.QuestionSet, error) {
	if l.Path == "" {
		return ParseCatalog(builtinCatalog)
	}
	data, err := os.ReadFile(l.Path)
	if err != nil {
		return nil, err
	}
	return ParseCatalog(data)
}

// Builtin returns the bank of the compiled-in catalog.
func Builtin() (*Bank, error) {
	sets, err := ParseCatalog(builtinCatalog)
	if err != nil {
		return nil, err
	}
	return New(sets)
}
