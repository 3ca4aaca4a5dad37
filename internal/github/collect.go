package github

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/torfstack/jumble/internal/logging"
	"github.com/torfstack/jumble/internal/merge"
)

const jsonSuffix = ".json"

// Collect walks the remote tree under path depth-first and returns the
// decoded content of every JSON file keyed by base filename. Duplicate
// basenames across subdirectories silently overwrite earlier ones. A failed
// listing anywhere in the walk is fatal, a failed download or parse only
// skips that file.
func (c *Client) Collect(ctx context.Context, path string) (merge.FileSet, error) {
	files := merge.FileSet{}
	if err := c.collect(ctx, path, files); err != nil {
		return nil, err
	}
	return files, nil
}

func (c *Client) collect(ctx context.Context, path string, files merge.FileSet) error {
	logging.Infof("Fetching file list from '%s/%s/%s'", c.owner, c.repo, path)
	entries, err := c.List(ctx, path)
	if err != nil {
		return err
	}

	for _, e := range entries {
		switch {
		case e.Type == TypeDir:
			logging.Debugf("Exploring subdirectory '%s'", e.Path)
			if err = c.collect(ctx, e.Path, files); err != nil {
				return err
			}
		case e.Type == TypeFile && strings.HasSuffix(e.Name, jsonSuffix):
			content, err := c.fileContent(ctx, e)
			if err != nil {
				logging.Errorf("Skipping '%s': could not download: %s", e.Path, err)
				continue
			}

			var decoded any
			if err = json.Unmarshal(content, &decoded); err != nil {
				logging.Errorf("Skipping '%s': could not parse JSON: %s", e.Path, err)
				continue
			}
			logging.Debugf("Loaded '%s'", e.Path)
			files[e.Name] = decoded
		}
	}
	return nil
}

func (c *Client) fileContent(ctx context.Context, e Entry) ([]byte, error) {
	if c.cache != nil && e.Sha != "" {
		content, ok, err := c.cache.Get(ctx, e.Sha)
		if err != nil {
			logging.Debugf("Cache lookup for '%s' failed: %s", e.Path, err)
		} else if ok {
			logging.Debugf("Cache hit for '%s'", e.Path)
			return content, nil
		}
	}

	if e.DownloadURL == "" {
		return nil, fmt.Errorf("entry '%s' has no download url", e.Path)
	}

	logging.Infof("Downloading '%s'", e.Path)
	content, err := c.Download(ctx, e.DownloadURL)
	if err != nil {
		return nil, err
	}

	if c.cache != nil && e.Sha != "" {
		if err = c.cache.Put(ctx, e.Sha, content); err != nil {
			logging.Debugf("Could not cache '%s': %s", e.Path, err)
		}
	}
	return content, nil
}

func decodeListing(body []byte, path string) ([]Entry, error) {
	var entries []Entry
	if err := json.Unmarshal(body, &entries); err == nil {
		return entries, nil
	}

	var single Entry
	if err := json.Unmarshal(body, &single); err != nil {
		return nil, fmt.Errorf("could not decode contents listing for '%s': %w", path, err)
	}
	return []Entry{single}, nil
}
