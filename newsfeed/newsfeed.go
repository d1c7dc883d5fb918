package newsfeed

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
)

// ErrDatasetNotFound is returned when no snapshot exists for a run ID.
var ErrDatasetNotFound = errors.New("dataset not found")

// NewsFeed stores run datasets as JSON snapshots in a directory, one file
// per run.
type NewsFeed struct {
	storageDir string
}

// ReadError describes a failure to read a single snapshot file.
type ReadError struct {
	Filename string
	Err      error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("%s: %v", e.Filename, e.Err)
}

// ListResult contains the readable datasets plus per-file errors.
type ListResult struct {
	Datasets []Dataset
	Errors   []ReadError
}

// NewNewsFeed creates the storage directory if needed.
func NewNewsFeed(storageDir string) (*NewsFeed, error) {
	if err := os.MkdirAll(storageDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &NewsFeed{
		storageDir: storageDir,
	}, nil
}

// Save writes the dataset, replacing any earlier snapshot of the same run.
func (nf *NewsFeed) Save(ds Dataset) error {
	if ds.RunID == uuid.Nil {
		return errors.New("dataset has no run ID")
	}
	if ds.Articles == nil {
		ds.Articles = []ArticleRecord{}
	}

	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal dataset: %w", err)
	}

	if err := os.WriteFile(nf.path(ds.RunID), data, 0o644); err != nil {
		return fmt.Errorf("failed to write dataset: %w", err)
	}

	return nil
}

// Get reads the snapshot of one run.
func (nf *NewsFeed) Get(runID uuid.UUID) (*Dataset, error) {
	data, err := os.ReadFile(nf.path(runID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrDatasetNotFound
		}
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}

	var ds Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("failed to unmarshal dataset: %w", err)
	}

	return &ds, nil
}

// List returns every readable snapshot, newest first. Corrupted files are
// reported in the result's Errors rather than failing the whole listing.
func (nf *NewsFeed) List() (*ListResult, error) {
	entries, err := os.ReadDir(nf.storageDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read storage directory: %w", err)
	}

	result := &ListResult{}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(nf.storageDir, entry.Name()))
		if err != nil {
			result.Errors = append(result.Errors, ReadError{Filename: entry.Name(), Err: err})
			continue
		}

		var ds Dataset
		if err := json.Unmarshal(data, &ds); err != nil {
			result.Errors = append(result.Errors, ReadError{Filename: entry.Name(), Err: err})
			continue
		}

		result.Datasets = append(result.Datasets, ds)
	}

	sort.SliceStable(result.Datasets, func(i, j int) bool {
		return result.Datasets[i].CreatedAt.After(result.Datasets[j].CreatedAt)
	})

	return result, nil
}

func (nf *NewsFeed) path(runID uuid.UUID) string {
	return filepath.Join(nf.storageDir, runID.String()+".json")
}
