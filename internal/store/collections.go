package store

import (
	"context"
	"fmt"
	"log"
	"slices"
	"sync"

	"mealplan-backend/internal/metadata"
)

// StoredRecord is a record together with its collection position.
type StoredRecord struct {
	Resource string
	ID       string
	Seq      int64
	Record   metadata.Record
}

// Persister is the durable side of the collections. *Store implements it.
type Persister interface {
	LoadRecords(ctx context.Context) ([]StoredRecord, error)
	SaveRecord(ctx context.Context, sr StoredRecord) error
	DeleteRecord(ctx context.Context, resource, id string) error
}

type collection struct {
	records []metadata.Record
	ids     []string
	seqs    []int64
}

func (c *collection) indexOf(id string) int {
	return slices.Index(c.ids, id)
}

// Collections holds one ordered sequence of records per resource. Reads hand
// out snapshots; writes replace whole records and are serialized. Records
// inside a snapshot must not be mutated by callers.
type Collections struct {
	mu      sync.RWMutex
	byName  map[string]*collection
	nextSeq int64
	persist Persister // nil keeps everything in memory
}

func NewCollections(p Persister) *Collections {
	return &Collections{byName: make(map[string]*collection), nextSeq: 1, persist: p}
}

// Load replaces the in-memory state with what the persister holds.
func (c *Collections) Load(ctx context.Context) error {
	if c.persist == nil {
		return nil
	}
	stored, err := c.persist.LoadRecords(ctx)
	if err != nil {
		return fmt.Errorf("load collections: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.byName = make(map[string]*collection)
	c.nextSeq = 1
	for _, sr := range stored {
		col := c.get(sr.Resource)
		col.records = append(col.records, sr.Record)
		col.ids = append(col.ids, sr.ID)
		col.seqs = append(col.seqs, sr.Seq)
		if sr.Seq >= c.nextSeq {
			c.nextSeq = sr.Seq + 1
		}
	}
	log.Printf("Loaded %d records into %d collections", len(stored), len(c.byName))
	return nil
}

func (c *Collections) get(resource string) *collection {
	col, ok := c.byName[resource]
	if !ok {
		col = &collection{}
		c.byName[resource] = col
	}
	return col
}

// Snapshot returns the records of a resource in insertion order. The slice is
// a copy; later writes do not affect it.
func (c *Collections) Snapshot(resource string) []metadata.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	col, ok := c.byName[resource]
	if !ok {
		return []metadata.Record{}
	}
	return slices.Clone(col.records)
}

// Get returns a single record by id or ErrNotFound.
func (c *Collections) Get(resource, id string) (metadata.Record, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	col, ok := c.byName[resource]
	if !ok {
		return nil, ErrNotFound
	}
	i := col.indexOf(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	return col.records[i], nil
}

// Insert appends a record at the end of the collection.
func (c *Collections) Insert(ctx context.Context, resource, id string, rec metadata.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	col := c.get(resource)
	if col.indexOf(id) >= 0 {
		return fmt.Errorf("insert %s/%s: %w", resource, id, ErrUniqueViolation)
	}

	seq := c.nextSeq
	if c.persist != nil {
		if err := c.persist.SaveRecord(ctx, StoredRecord{Resource: resource, ID: id, Seq: seq, Record: rec}); err != nil {
			return fmt.Errorf("insert %s/%s: %w", resource, id, err)
		}
	}
	c.nextSeq++
	col.records = append(col.records, rec)
	col.ids = append(col.ids, id)
	col.seqs = append(col.seqs, seq)
	return nil
}

// Replace swaps the record with the given id, keeping its position.
func (c *Collections) Replace(ctx context.Context, resource, id string, rec metadata.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	col, ok := c.byName[resource]
	if !ok {
		return ErrNotFound
	}
	i := col.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}

	if c.persist != nil {
		if err := c.persist.SaveRecord(ctx, StoredRecord{Resource: resource, ID: id, Seq: col.seqs[i], Record: rec}); err != nil {
			return fmt.Errorf("replace %s/%s: %w", resource, id, err)
		}
	}
	col.records[i] = rec
	return nil
}

// Delete removes the record with the given id.
func (c *Collections) Delete(ctx context.Context, resource, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	col, ok := c.byName[resource]
	if !ok {
		return ErrNotFound
	}
	i := col.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}

	if c.persist != nil {
		if err := c.persist.DeleteRecord(ctx, resource, id); err != nil {
			return fmt.Errorf("delete %s/%s: %w", resource, id, err)
		}
	}
	col.records = slices.Delete(col.records, i, i+1)
	col.ids = slices.Delete(col.ids, i, i+1)
	col.seqs = slices.Delete(col.seqs, i, i+1)
	return nil
}

// Len returns the number of records in a resource collection.
func (c *Collections) Len(resource string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if col, ok := c.byName[resource]; ok {
		return len(col.records)
	}
	return 0
}
