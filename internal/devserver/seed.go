package devserver

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/doroshop/dsadmin/internal/database/repository"
)

//go:embed seed.yaml
var builtinSeed []byte

// Seed maps a collection name to its documents.
type Seed map[string][]repository.Document

// seedOrder inserts referenced collections first.
var seedOrder = []string{colUsers, colSellers, colCategories, colMunicipalities, colPlans, colSubscriptions, colRefunds}

// DefaultSeed is the built-in fixture.
func DefaultSeed() (Seed, error) {
	return ParseSeed(builtinSeed)
}

// LoadSeed reads a YAML fixture.
func LoadSeed(path string) (Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	return ParseSeed(data)
}

func ParseSeed(data []byte) (Seed, error) {
	var s Seed
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	for name, docs := range s {
		for i, d := range docs {
			if id, _ := d["_id"].(string); id == "" {
				return nil, fmt.Errorf("seed %s[%d]: _id is required", name, i)
			}
		}
	}
	return s, nil
}

// Apply inserts the fixture into empty collections only, so it is safe to
// run on every startup.
func (s Seed) Apply(ctx context.Context, repo repository.Documents, now time.Time) error {
	names := append([]string(nil), seedOrder...)
	for name := range s {
		if !contains(names, name) {
			names = append(names, name)
		}
	}
	for _, name := range names {
		docs := s[name]
		if len(docs) == 0 {
			continue
		}
		n, err := repo.Count(ctx, name)
		if err != nil {
			return err
		}
		if n > 0 {
			continue
		}
		for _, d := range docs {
			if _, ok := d["createdAt"]; !ok {
				d["createdAt"] = now.UTC().Format(timeLayout)
			}
			if err := repo.Insert(ctx, name, d["_id"].(string), d); err != nil {
				return fmt.Errorf("seed %s: %w", name, err)
			}
		}
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
