// Package registry implements Gato's process-global Repos Registry: the
// set of repository metadata-directory paths (each repository's .gato
// directory) the garbage collector must
// enumerate. original_source keeps this as a flat bincode-encoded file;
// here it is a bbolt bucket instead, reusing the teacher's own
// store.Manager/SharedDB singleton reference-counted database handle
// pattern (internal/store/manager.go) rather than introducing a second
// on-disk format. The registry's logical contents are unchanged: a
// deduplicated list of repository paths, scanned in full on every GC run.
package registry

import (
	"fmt"
	"path/filepath"
	"sync"

	"go.etcd.io/bbolt"
)

var reposBucket = []byte("repos")

// Registry is a shared, process-global handle on the repos.db bbolt
// database living under storeRoot (the directory global_store_root
// names in the external interface layout).
type Registry struct {
	db   *bbolt.DB
	path string
}

var (
	mu       sync.Mutex
	shared   *Registry
	refCount int
)

// Open returns a reference-counted handle on the registry database at
// <storeRoot>/repos.db. Multiple calls with the same storeRoot share one
// underlying *bbolt.DB, matching store.Manager/GetSharedDB's contract.
func Open(storeRoot string) (*Registry, error) {
	mu.Lock()
	defer mu.Unlock()

	path := filepath.Join(storeRoot, "repos.db")
	if shared == nil || shared.path != path {
		if shared != nil {
			_ = shared.db.Close()
		}
		db, err := bbolt.Open(path, 0666, nil)
		if err != nil {
			return nil, fmt.Errorf("open registry database: %w", err)
		}
		if err := db.Update(func(tx *bbolt.Tx) error {
			_, e := tx.CreateBucketIfNotExists(reposBucket)
			return e
		}); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create repos bucket: %w", err)
		}
		shared = &Registry{db: db, path: path}
		refCount = 0
	}
	refCount++
	return shared, nil
}

// Close decrements the reference count, closing the underlying database
// once no more references exist.
func (r *Registry) Close() error {
	mu.Lock()
	defer mu.Unlock()
	refCount--
	if refCount <= 0 && shared != nil {
		err := shared.db.Close()
		shared = nil
		return err
	}
	return nil
}

// Register adds root (a repository's metadata directory) to the
// registry, idempotently.
func (r *Registry) Register(root string) error {
	return r.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(reposBucket).Put([]byte(root), []byte{1})
	})
}

// Unregister removes root from the registry.
func (r *Registry) Unregister(root string) error {
	return r.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(reposBucket).Delete([]byte(root))
	})
}

// List returns every registered repository root path.
func (r *Registry) List() ([]string, error) {
	var roots []string
	err := r.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(reposBucket)
		return b.ForEach(func(k, _ []byte) error {
			roots = append(roots, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list registered repos: %w", err)
	}
	return roots, nil
}
