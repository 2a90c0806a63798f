package app

import (
	"context"
	"runtime"
	"sync"
)

// Result is the outcome of parsing one descriptor in a batch.
type Result struct {
	Path string
	Meta MetaInfo
	Err  error
}

// ParseFiles parses the descriptors at paths using up to workers goroutines
// (runtime.NumCPU() when workers <= 0). Results keep the order of paths.
// Once ctx is done no new files are started and the remaining ones report
// ctx.Err().
func (p Parser) ParseFiles(ctx context.Context, paths []string, workers int) []Result {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(paths) {
		workers = len(paths)
	}

	results := make([]Result, len(paths))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				meta, err := p.ParseFile(paths[idx])
				results[idx] = Result{Path: paths[idx], Meta: meta, Err: err}
			}
		}()
	}

	dispatched := 0
dispatch:
	for ; dispatched < len(paths); dispatched++ {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- dispatched:
		}
	}
	close(jobs)
	wg.Wait()

	for i := dispatched; i < len(paths); i++ {
		results[i] = Result{Path: paths[i], Err: ctx.Err()}
	}
	return results
}

// ParseTorrentFiles parses many descriptors in parallel with the default policy.
func ParseTorrentFiles(ctx context.Context, paths []string, workers int) []Result {
	return Parser{}.ParseFiles(ctx, paths, workers)
}
