package clamd

import (
	"context"
	"os"
	"path/filepath"
	"sync"
)

// ScanPath scans a file or a directory tree. The path is cleaned first.
//
// A directory is walked recursively and every regular file found is scanned
// in its own session; at most WithConcurrency sessions run at once. Each file
// yields exactly one result on the returned channel, in no particular order.
// Failures (stat, directory listing, open, daemon or transport errors) are
// delivered as results with Status "ERROR" and Err set, and never stop the
// rest of the walk. A path that is neither a directory nor a regular file
// yields a single error result.
//
// The channel is closed once every result has been delivered. If the
// consumer stops reading, cancel ctx so the walk and the workers can exit;
// results not yet received are then dropped.
func (c *Client) ScanPath(ctx context.Context, path string) (<-chan *ScanResult, error) {
	if path == "" {
		return nil, NewValidationError("path is required", nil)
	}
	path = filepath.Clean(path)

	results := make(chan *ScanResult, c.concurrency)
	jobs := make(chan string)

	// send delivers to results or gives up when ctx is done.
	send := func(r *ScanResult) bool {
		select {
		case results <- r:
			return true
		case <-ctx.Done():
			return false
		}
	}

	var workers sync.WaitGroup
	for range c.concurrency {
		workers.Go(func() {
			for file := range jobs {
				send(c.scanJob(ctx, file))
			}
		})
	}

	go func() {
		defer close(results)
		w := &walker{ctx: ctx, jobs: jobs, emit: send, visited: make(map[string]struct{})}
		w.walk(path)
		close(jobs)
		workers.Wait()
	}()

	return results, nil
}

// ScanPathCallback is like ScanPath but invokes fn for each result.
// Blocks until every result has been delivered or ctx is canceled; in the
// latter case some results may have been dropped and a timeout error is
// returned.
func (c *Client) ScanPathCallback(ctx context.Context, path string, fn func(*ScanResult)) error {
	results, err := c.ScanPath(ctx, path)
	if err != nil {
		return err
	}

	for result := range results {
		fn(result)
	}

	if err := ctx.Err(); err != nil {
		return classifyNetError(ctx, "scan interrupted", err)
	}
	return nil
}

// scanJob scans one discovered file and always returns a result.
func (c *Client) scanJob(ctx context.Context, file string) *ScanResult {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return errorResult(file, classifyNetError(ctx, "rate limiter", err))
		}
	}
	result, err := c.ScanFile(ctx, file)
	if err != nil {
		return errorResult(file, err)
	}
	return result
}

// walker traverses a tree, handing regular files to the worker pool and
// reporting everything else directly.
type walker struct {
	ctx     context.Context
	jobs    chan<- string
	emit    func(*ScanResult) bool
	visited map[string]struct{}
}

// walk follows symbolic links like stat does. Directories reached twice,
// through links or loops, are only listed the first time.
func (w *walker) walk(path string) {
	if w.ctx.Err() != nil {
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		w.emit(errorResult(path, NewFilesystemError("failed to stat path: "+path, err)))
		return
	}

	switch {
	case info.IsDir():
		if resolved, err := filepath.EvalSymlinks(path); err == nil {
			if _, seen := w.visited[resolved]; seen {
				return
			}
			w.visited[resolved] = struct{}{}
		}

		entries, err := os.ReadDir(path)
		if err != nil {
			w.emit(errorResult(path, NewFilesystemError("failed to read directory: "+path, err)))
			return
		}
		for _, entry := range entries {
			w.walk(filepath.Join(path, entry.Name()))
		}
	case info.Mode().IsRegular():
		select {
		case w.jobs <- path:
		case <-w.ctx.Done():
		}
	default:
		w.emit(errorResult(path, NewFilesystemError(msgNotRegularFile, nil)))
	}
}
