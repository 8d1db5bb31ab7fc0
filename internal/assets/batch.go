package assets

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Request is one photo to fetch as part of a batch.
type Request struct {
	Key      string
	URL      string
	FileName string
	Target   *Size
}

// Result is the outcome for one Request. An empty Path means the entry has no photo.
type Result struct {
	Key  string
	Path string
	Err  error
}

// FetchAll downloads every request concurrently. A failed entry does not
// stop its siblings; it just resolves to an empty Path. limit <= 0 means no
// bound beyond the number of requests.
func (f *Fetcher) FetchAll(ctx context.Context, reqs []Request, limit int) []Result {
	results := make([]Result, len(reqs))

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, req := range reqs {
		results[i].Key = req.Key
		if req.URL == "" {
			continue
		}
		g.Go(func() error {
			path, err := f.Fetch(ctx, req.URL, req.FileName, req.Target)
			if err != nil {
				slog.Warn("Photo download failed", "key", req.Key, "url", req.URL, "error", err)
				results[i].Err = err
				return nil
			}
			results[i].Path = path
			return nil
		})
	}
	_ = g.Wait()

	return results
}
