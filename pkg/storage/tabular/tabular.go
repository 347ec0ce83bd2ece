// Package tabular implements the flat-file storage backend from
// spec.md §4.3: one CSV file per entity kind, each row holding an id
// and a JSON-encoded document, fully rewritten on every mutation. The
// whole table is also kept in memory, rebuilt from the file on Open.
package tabular

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/unet-io/unet/pkg/derived"
	"github.com/unet-io/unet/pkg/errcode"
	"github.com/unet-io/unet/pkg/policy"
	"github.com/unet-io/unet/pkg/types"
)

// Store is the tabular backend. It implements pkg/storage.Store.
type Store struct {
	mu  sync.RWMutex
	dir string

	nodes     map[uuid.UUID]*types.Node
	links     map[uuid.UUID]*types.Link
	locations map[uuid.UUID]*types.Location

	systemInfo map[uuid.UUID]*derived.SystemInfo
	ifMetrics  map[uuid.UUID][]derived.InterfaceMetrics
	policyRes  map[uuid.UUID][]policy.ExecutionResult
}

// Open loads (or creates) the CSV files under dir and rebuilds the
// in-memory image from their contents.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errcode.ConnectionError{Message: "cannot create tabular store directory: " + err.Error()}
	}
	s := &Store{
		dir:        dir,
		nodes:      map[uuid.UUID]*types.Node{},
		links:      map[uuid.UUID]*types.Link{},
		locations:  map[uuid.UUID]*types.Location{},
		systemInfo: map[uuid.UUID]*derived.SystemInfo{},
		ifMetrics:  map[uuid.UUID][]derived.InterfaceMetrics{},
		policyRes:  map[uuid.UUID][]policy.ExecutionResult{},
	}
	if err := s.loadNodes(); err != nil {
		return nil, err
	}
	if err := s.loadLinks(); err != nil {
		return nil, err
	}
	if err := s.loadLocations(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Name() string { return "tabular" }

func (s *Store) HealthCheck(ctx context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil || !info.IsDir() {
		return errcode.ConnectionError{Message: "tabular store directory unavailable: " + s.dir}
	}
	return nil
}

func (s *Store) Close() error { return nil }

// --- generic CSV load/persist helpers ---

func loadTable[T any](path string) (map[uuid.UUID]*T, error) {
	out := map[uuid.UUID]*T{}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return out, nil
	}
	if err != nil {
		return nil, errcode.ConnectionError{Message: "cannot open " + path + ": " + err.Error()}
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, errcode.SerializationError{Message: "cannot read " + path + ": " + err.Error()}
	}
	for i, row := range rows {
		if i == 0 || len(row) < 2 {
			continue // header row or malformed row
		}
		id, err := uuid.Parse(row[0])
		if err != nil {
			continue
		}
		var entity T
		if err := json.Unmarshal([]byte(row[1]), &entity); err != nil {
			return nil, errcode.SerializationError{Message: "cannot decode row for " + row[0] + ": " + err.Error()}
		}
		out[id] = &entity
	}
	return out, nil
}

func persistTable[T any](path string, table map[uuid.UUID]*T, idOf func(*T) uuid.UUID) error {
	ids := make([]uuid.UUID, 0, len(table))
	for id := range table {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return errcode.ConnectionError{Message: "cannot write " + path + ": " + err.Error()}
	}
	w := csv.NewWriter(f)
	if err := w.Write([]string{"id", "data"}); err != nil {
		f.Close()
		return errcode.SerializationError{Message: err.Error()}
	}
	for _, id := range ids {
		entity := table[id]
		data, err := json.Marshal(entity)
		if err != nil {
			f.Close()
			return errcode.SerializationError{Message: err.Error()}
		}
		if err := w.Write([]string{idOf(entity).String(), string(data)}); err != nil {
			f.Close()
			return errcode.SerializationError{Message: err.Error()}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return errcode.SerializationError{Message: err.Error()}
	}
	if err := f.Close(); err != nil {
		return errcode.ConnectionError{Message: err.Error()}
	}
	return os.Rename(tmp, path)
}

func (s *Store) nodesPath() string     { return filepath.Join(s.dir, "nodes.csv") }
func (s *Store) linksPath() string     { return filepath.Join(s.dir, "links.csv") }
func (s *Store) locationsPath() string { return filepath.Join(s.dir, "locations.csv") }

func (s *Store) loadNodes() error {
	t, err := loadTable[types.Node](s.nodesPath())
	if err != nil {
		return err
	}
	s.nodes = t
	return nil
}

func (s *Store) loadLinks() error {
	t, err := loadTable[types.Link](s.linksPath())
	if err != nil {
		return err
	}
	s.links = t
	return nil
}

func (s *Store) loadLocations() error {
	t, err := loadTable[types.Location](s.locationsPath())
	if err != nil {
		return err
	}
	s.locations = t
	return nil
}

func (s *Store) persistNodes() error {
	return persistTable(s.nodesPath(), s.nodes, func(n *types.Node) uuid.UUID { return n.ID })
}

func (s *Store) persistLinks() error {
	return persistTable(s.linksPath(), s.links, func(l *types.Link) uuid.UUID { return l.ID })
}

func (s *Store) persistLocations() error {
	return persistTable(s.locationsPath(), s.locations, func(l *types.Location) uuid.UUID { return l.ID })
}
