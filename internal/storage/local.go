package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"mealplan-backend/internal/metadata"
	"mealplan-backend/internal/store"
)

// LocalStorage keeps one JSON array file per resource under basePath. It is
// used for seed fixtures and snapshot exports.
type LocalStorage struct {
	basePath string
}

func NewLocalStorage(basePath string) *LocalStorage {
	return &LocalStorage{basePath: basePath}
}

func (s *LocalStorage) path(resource string) string {
	return filepath.Join(s.basePath, resource+".json")
}

// Save writes records to <basePath>/<resource>.json, replacing any previous file.
func (s *LocalStorage) Save(_ context.Context, resource string, records []metadata.Record) (string, error) {
	if err := os.MkdirAll(s.basePath, 0755); err != nil {
		return "", fmt.Errorf("create dir: %w", err)
	}

	storagePath := s.path(resource)
	f, err := os.Create(storagePath)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return storagePath, nil
}

// Open reads the records of a resource. A missing file returns os.ErrNotExist.
func (s *LocalStorage) Open(_ context.Context, resource string) ([]metadata.Record, error) {
	f, err := os.Open(s.path(resource))
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	return decode(f)
}

func decode(r io.Reader) ([]metadata.Record, error) {
	var records []metadata.Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return records, nil
}

func (s *LocalStorage) Delete(_ context.Context, resource string) error {
	if err := os.Remove(s.path(resource)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

// Seed imports fixture files into empty collections. Resources that already
// hold records, or have no fixture file, are left alone. Records without an
// id get one.
func (s *LocalStorage) Seed(ctx context.Context, cols *store.Collections, schemas []*metadata.Schema) (int, error) {
	total := 0
	for _, schema := range schemas {
		if cols.Len(schema.Name) > 0 {
			continue
		}
		records, err := s.Open(ctx, schema.Name)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return total, fmt.Errorf("seed %s: %w", schema.Name, err)
		}

		for _, rec := range records {
			id, _ := rec["id"].(string)
			if id == "" {
				id = uuid.New().String()
				rec["id"] = id
			}
			if err := cols.Insert(ctx, schema.Name, id, rec); err != nil {
				return total, fmt.Errorf("seed %s: %w", schema.Name, err)
			}
			total++
		}
		log.Printf("Seeded %d %s", len(records), schema.Name)
	}
	return total, nil
}
