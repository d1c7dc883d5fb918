package discovery

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fedestu/RPA-Challenge/browser"
	"github.com/fedestu/RPA-Challenge/newsfeed"
)

// MediaFetcher downloads article images into one folder per run day.
type MediaFetcher struct {
	client    *http.Client
	userAgent string
	dir       string
	workers   int
}

// NewMediaFetcher creates <baseDir>/<YYYY-MM-DD> for day if it does not
// exist. A nil client uses a client without timeout. workers bounds the
// number of parallel downloads of one page; values below 1 mean one.
func NewMediaFetcher(client *http.Client, baseDir string, day time.Time, workers int) (*MediaFetcher, error) {
	if client == nil {
		client = &http.Client{}
	}
	if workers < 1 {
		workers = 1
	}

	dir := filepath.Join(baseDir, day.Format(newsfeed.DateLayout))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image folder: %w", err)
	}

	return &MediaFetcher{
		client:    client,
		userAgent: browser.DefaultUserAgent,
		dir:       dir,
		workers:   workers,
	}, nil
}

// Dir returns the day folder images are written to.
func (m *MediaFetcher) Dir() string {
	return m.dir
}

// Path returns the destination path of filename inside the day folder.
func (m *MediaFetcher) Path(filename string) string {
	return filepath.Join(m.dir, filename)
}

// DownloadImage streams url into destinationPath. The body is written as
// received. A partially written file is removed when the copy fails.
func (m *MediaFetcher) DownloadImage(ctx context.Context, url, destinationPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &ImageDownloadError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", m.userAgent)

	resp, err := m.client.Do(req)
	if err != nil {
		return &ImageDownloadError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &ImageDownloadError{URL: url, StatusCode: resp.StatusCode}
	}

	f, err := os.Create(destinationPath)
	if err != nil {
		return &ImageDownloadError{URL: url, Err: err}
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(destinationPath)
		return &ImageDownloadError{URL: url, Err: err}
	}

	if err := f.Close(); err != nil {
		return &ImageDownloadError{URL: url, Err: err}
	}

	return nil
}

// imageJob is one download of a page batch.
type imageJob struct {
	url      string
	filename string
}

// downloadAll runs jobs with at most m.workers in flight and returns one
// error slot per job, in job order.
func (m *MediaFetcher) downloadAll(ctx context.Context, jobs []imageJob) []error {
	errs := make([]error, len(jobs))

	if m.workers == 1 {
		for i, job := range jobs {
			errs[i] = m.DownloadImage(ctx, job.url, m.Path(job.filename))
		}
		return errs
	}

	// Jobs sharing a filename write the same file; later ones run after the
	// pool drains so the last article in page order wins, as in sequential
	// mode.
	var (
		wg        sync.WaitGroup
		repeated  []int
		semaphore = make(chan struct{}, m.workers)
		seen      = make(map[string]bool, len(jobs))
	)
	for i, job := range jobs {
		if seen[job.filename] {
			repeated = append(repeated, i)
			continue
		}
		seen[job.filename] = true

		wg.Add(1)
		semaphore <- struct{}{}
		go func(i int, job imageJob) {
			defer wg.Done()
			defer func() { <-semaphore }()

			errs[i] = m.DownloadImage(ctx, job.url, m.Path(job.filename))
		}(i, job)
	}
	wg.Wait()

	for _, i := range repeated {
		errs[i] = m.DownloadImage(ctx, jobs[i].url, m.Path(jobs[i].filename))
	}

	return errs
}
