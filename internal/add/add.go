// Package add implements Gato's Add Pipeline (C6): given a list of
// working-directory paths, walk directories recursively honoring
// gato.toml's ignore patterns, then stage each file in parallel — small
// files (<= blob.ChunkThreshold) inline-compressed as a Normal blob,
// large files split, hashed and compressed chunk-by-chunk in parallel
// as a Chunked blob — and merge the results into the Index in one
// single-writer pass.
//
// The directory walk is grounded on internal/workspace's ScanWorkspace
// (filepath.WalkDir, relative-path prefix skip of the VCS directory,
// generalized here to gato.toml's configurable ignore list). The
// worker-pool fan-out is grounded on
// internal/converter/converter_concurrent.go's ConversionWorkerPool
// (bounded channel pool, runtime.NumCPU capped at 8, jobs/results
// channels), generalized from git-object conversion jobs to file-staging
// jobs, with an inner worker pool of the same shape reused for
// per-chunk compression within the large-file path.
package add

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/gato-vcs/gato/internal/blob"
	"github.com/gato-vcs/gato/internal/cas"
	"github.com/gato-vcs/gato/internal/chunker"
	"github.com/gato-vcs/gato/internal/codec"
	"github.com/gato-vcs/gato/internal/index"
)

// defaultWorkers returns a capped NumCPU worker count, matching the
// teacher's own conversion pool cap.
func defaultWorkers() int {
	w := runtime.NumCPU()
	if w > 8 {
		w = 8
	}
	if w < 1 {
		w = 1
	}
	return w
}

// ResolvePaths expands a list of working-directory-relative paths into
// the full set of file paths to stage, recursing into directories and
// skipping any path that has a component matching an ignore pattern.
// ignored entries are always-ignore names (the VCS metadata directory
// and the config file) in addition to the repo's own configured list.
func ResolvePaths(workDir string, inputs []string, ignore []string) ([]string, error) {
	ignoreSet := make(map[string]bool, len(ignore))
	for _, p := range ignore {
		ignoreSet[p] = true
	}

	var files []string
	seen := make(map[string]bool)

	var walk func(root string) error
	walk = func(root string) error {
		return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(workDir, path)
			if err != nil {
				return err
			}
			if isIgnored(rel, ignoreSet) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			if !seen[rel] {
				seen[rel] = true
				files = append(files, rel)
			}
			return nil
		})
	}

	for _, in := range inputs {
		full := filepath.Join(workDir, in)
		info, err := os.Stat(full)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", in, err)
		}
		if info.IsDir() {
			if err := walk(full); err != nil {
				return nil, fmt.Errorf("walk %s: %w", in, err)
			}
		} else {
			rel, err := filepath.Rel(workDir, full)
			if err != nil {
				return nil, err
			}
			if !isIgnored(rel, ignoreSet) && !seen[rel] {
				seen[rel] = true
				files = append(files, rel)
			}
		}
	}

	return files, nil
}

func isIgnored(rel string, ignoreSet map[string]bool) bool {
	if rel == "." {
		return false
	}
	if ignoreSet[rel] {
		return true
	}
	for _, component := range strings.Split(rel, string(filepath.Separator)) {
		if ignoreSet[component] {
			return true
		}
	}
	return false
}

// stageJob is one file queued for staging.
type stageJob struct {
	relPath string
}

// stageResult is the outcome of staging one file.
type stageResult struct {
	relPath string
	entry   index.Entry
	deps    []cas.Hash
	err     error
}

// Run stages every path in relPaths (already expanded by ResolvePaths)
// into idx, reading files relative to workDir. Any single file's
// failure aborts the whole add: idx is left unmodified and the error is
// returned, matching the spec's "no partial index save" error policy.
func Run(store *cas.Store, c codec.Codec, idx *index.Index, workDir string, relPaths []string) error {
	if len(relPaths) == 0 {
		return nil
	}

	workers := defaultWorkers()
	jobs := make(chan stageJob, workers*2)
	results := make(chan stageResult, workers*2)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				results <- stageFile(store, c, workDir, job.relPath)
			}
		}()
	}

	go func() {
		for _, p := range relPaths {
			jobs <- stageJob{relPath: p}
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	collected := make([]stageResult, 0, len(relPaths))
	var firstErr error
	for r := range results {
		if r.err != nil && firstErr == nil {
			firstErr = fmt.Errorf("stage %s: %w", r.relPath, r.err)
		}
		collected = append(collected, r)
	}
	if firstErr != nil {
		return firstErr
	}

	// Single-writer merge into the index, in deterministic path order.
	sort.Slice(collected, func(i, j int) bool { return collected[i].relPath < collected[j].relPath })
	for _, r := range collected {
		idx.AddEntry(r.relPath, r.entry)
		for _, d := range r.deps {
			idx.AddDependency(d)
		}
	}

	return nil
}

func stageFile(store *cas.Store, c codec.Codec, workDir, relPath string) stageResult {
	full := filepath.Join(workDir, relPath)
	info, err := os.Stat(full)
	if err != nil {
		return stageResult{relPath: relPath, err: err}
	}
	content, err := os.ReadFile(full)
	if err != nil {
		return stageResult{relPath: relPath, err: err}
	}

	if len(content) <= blob.ChunkThreshold {
		// Index the hash of the Normal envelope, the key blob.Store puts
		// the object under, so blob.Load can read it back by ContentHash.
		contentHash, err := blob.DryHash(c, content)
		if err != nil {
			return stageResult{relPath: relPath, err: err}
		}
		has, err := store.Has(contentHash)
		if err != nil {
			return stageResult{relPath: relPath, err: err}
		}
		if !has {
			if _, err := blob.Store(store, c, content); err != nil {
				return stageResult{relPath: relPath, err: err}
			}
		}
		return stageResult{
			relPath: relPath,
			entry: index.Entry{
				Path:        relPath,
				ContentHash: contentHash,
				Size:        info.Size(),
				ModTime:     info.ModTime().Unix(),
				Mode:        uint32(info.Mode()),
			},
			deps: []cas.Hash{contentHash},
		}
	}

	outerHash, chunkHashes, err := stageChunked(store, c, content)
	if err != nil {
		return stageResult{relPath: relPath, err: err}
	}

	deps := make([]cas.Hash, 0, len(chunkHashes)+1)
	deps = append(deps, chunkHashes...)
	deps = append(deps, outerHash)

	return stageResult{
		relPath: relPath,
		entry: index.Entry{
			Path:        relPath,
			ContentHash: outerHash,
			Size:        info.Size(),
			ModTime:     info.ModTime().Unix(),
			Mode:        uint32(info.Mode()),
		},
		deps: deps,
	}
}

type chunkJob struct {
	index int
	data  []byte
}

type chunkResult struct {
	index int
	hash  cas.Hash
	err   error
}

// stageChunked splits content into content-defined chunks, hashes and
// compresses each in parallel, puts any not already present, and stores
// the outer Chunked blob envelope. It returns the envelope's hash and
// the ordered list of chunk hashes.
func stageChunked(store *cas.Store, c codec.Codec, content []byte) (cas.Hash, []cas.Hash, error) {
	parts := chunker.Split(content)

	workers := defaultWorkers()
	jobs := make(chan chunkJob, workers*2)
	results := make(chan chunkResult, workers*2)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				results <- compressAndPutChunk(store, c, job)
			}
		}()
	}

	go func() {
		for i, part := range parts {
			jobs <- chunkJob{index: i, data: part.Data}
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	ordered := make([]cas.Hash, len(parts))
	for r := range results {
		if r.err != nil {
			return cas.Hash{}, nil, r.err
		}
		ordered[r.index] = r.hash
	}

	outerHash, err := blob.StoreChunkedEnvelope(store, ordered)
	if err != nil {
		return cas.Hash{}, nil, err
	}

	return outerHash, ordered, nil
}

// compressAndPutChunk compresses one chunk and puts it under the hash of
// its compressed bytes — the object store's Put verifies stored content
// against its key, so chunks are content-addressed by their stored
// (compressed) form rather than their raw form. Identical raw chunks
// still compress identically and therefore still dedup.
func compressAndPutChunk(store *cas.Store, c codec.Codec, job chunkJob) chunkResult {
	compressed, err := c.Compress(job.data)
	if err != nil {
		return chunkResult{index: job.index, err: fmt.Errorf("compress chunk: %w", err)}
	}
	chunkHash := cas.SumB3(compressed)
	has, err := store.Has(chunkHash)
	if err != nil {
		return chunkResult{index: job.index, err: err}
	}
	if !has {
		if err := store.Put(chunkHash, compressed); err != nil {
			return chunkResult{index: job.index, err: fmt.Errorf("put chunk: %w", err)}
		}
	}
	return chunkResult{index: job.index, hash: chunkHash}
}
