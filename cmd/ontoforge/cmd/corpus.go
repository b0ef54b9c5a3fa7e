package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dbsmedya/ontoforge/internal/config"
	"github.com/dbsmedya/ontoforge/internal/corpus"
	"github.com/dbsmedya/ontoforge/internal/logger"
	"github.com/dbsmedya/ontoforge/internal/ontology"
)

// loadInputs loads every matching document under each path. A file path is loaded on
// its own even if the include globs would not match it.
func loadInputs(paths []string, cfg config.CorpusConfig, log *logger.Logger) ([]ontology.Input, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	var inputs []ontology.Input
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p, err)
		}

		if info.IsDir() {
			loader, err := corpus.NewLoader(p, cfg, log)
			if err != nil {
				return nil, err
			}
			items, err := loader.LoadAll()
			if err != nil {
				return nil, err
			}
			for _, item := range items {
				inputs = append(inputs, ontology.Input{Document: item.Document, Context: item.Context})
			}
			continue
		}

		loader, err := corpus.NewLoader(filepath.Dir(p), cfg, log)
		if err != nil {
			return nil, err
		}
		item, err := loader.Load(filepath.Base(p))
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, ontology.Input{Document: item.Document, Context: item.Context})
	}
	return inputs, nil
}
