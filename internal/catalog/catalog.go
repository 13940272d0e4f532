package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"hunt-event-service/internal/domain"
)

// Entry is one question as written in a catalog file.
type Entry struct {
	ID         string `yaml:"id" validate:"required"`
	Difficulty int    `yaml:"difficulty" validate:"min=1,max=5"`
	Question   string `yaml:"question"`
	Answer     string `yaml:"answer"`
}

type file struct {
	Questions []Entry `yaml:"questions"`
}

// Upserter stores catalog entries without touching their counters.
type Upserter interface {
	UpsertQuestions(ctx context.Context, questions []domain.Question) (int, error)
}

var validate = validator.New()

// Load reads and validates a YAML catalog file.
func Load(path string) ([]domain.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(bytes.NewReader(data))
}

// Parse decodes a catalog and checks every entry. All problems are reported together.
func Parse(r io.Reader) ([]domain.Question, error) {
	var f file
	if err := yaml.NewDecoder(r).Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	var errs []error
	seen := make(map[string]int, len(f.Questions))
	questions := make([]domain.Question, 0, len(f.Questions))
	for i, e := range f.Questions {
		if err := validate.Struct(e); err != nil {
			errs = append(errs, fmt.Errorf("question %d (%q): %w", i+1, e.ID, err))
			continue
		}
		if first, ok := seen[e.ID]; ok {
			errs = append(errs, fmt.Errorf("question %d: duplicate id %q (first at %d)", i+1, e.ID, first))
			continue
		}
		seen[e.ID] = i + 1
		questions = append(questions, domain.Question{
			ID:         e.ID,
			Difficulty: e.Difficulty,
			Question:   e.Question,
			Answer:     e.Answer,
		})
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return questions, nil
}

// Import loads path and upserts it into dst.
func Import(ctx context.Context, dst Upserter, path string) (int, error) {
	questions, err := Load(path)
	if err != nil {
		return 0, err
	}
	return dst.UpsertQuestions(ctx, questions)
}
