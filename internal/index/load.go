package index

import (
	"sort"
	"strings"
	"sync"

	"github.com/tkforge/tk/internal/ticket"
)

// SourceFile is one raw ticket file handed to the engine by the caller's
// document-read collaborator: its base name, the path recorded in the index,
// and the raw text.
type SourceFile struct {
	Filename string
	Path     string
	Raw      string
}

// File is the parse result for one source file. Exactly one of Doc and Err
// is set.
type File struct {
	Filename string
	Path     string
	Doc      *ticket.Document
	Err      error
}

// parseWorkers bounds the per-file parse concurrency.
const parseWorkers = 8

// ParseAll parses every source file, validating each id against its filename
// stem. Parsing runs on a small worker pool, but results are always returned
// in filename order so error aggregation stays deterministic regardless of
// read concurrency.
func ParseAll(sources []SourceFile) []File {
	ordered := make([]SourceFile, len(sources))
	copy(ordered, sources)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Filename < ordered[j].Filename })

	results := make([]File, len(ordered))
	jobs := make(chan int)

	var wg sync.WaitGroup
	workers := parseWorkers
	if len(ordered) < workers {
		workers = len(ordered)
	}
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				src := ordered[i]
				stem := strings.TrimSuffix(src.Filename, ".md")
				doc, err := ticket.Parse(src.Raw, src.Filename, stem)
				results[i] = File{Filename: src.Filename, Path: src.Path, Doc: doc, Err: err}
			}
		}()
	}
	for i := range ordered {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

// Valid filters parse results down to the successfully parsed files.
func Valid(files []File) []File {
	out := make([]File, 0, len(files))
	for _, f := range files {
		if f.Err == nil {
			out = append(out, f)
		}
	}
	return out
}

// Errors collects the parse failures, in filename order.
func Errors(files []File) []error {
	var errs []error
	for _, f := range files {
		if f.Err != nil {
			errs = append(errs, f.Err)
		}
	}
	return errs
}
