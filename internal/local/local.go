package local

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/torfstack/jumble/internal/logging"
	"github.com/torfstack/jumble/internal/merge"
)

const jsonSuffix = ".json"

// CollectDir walks a local directory tree and returns the decoded content
// of every JSON file keyed by base filename, with the same rules as the
// remote collector: duplicate basenames overwrite, unparseable files are
// skipped with a log line.
func CollectDir(root string) (merge.FileSet, error) {
	files := merge.FileSet{}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), jsonSuffix) {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			logging.Errorf("Skipping '%s': could not read: %s", path, err)
			return nil
		}

		var decoded any
		if err = json.Unmarshal(content, &decoded); err != nil {
			logging.Errorf("Skipping '%s': could not parse JSON: %s", path, err)
			return nil
		}
		logging.Debugf("Loaded '%s'", path)
		files[d.Name()] = decoded
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not walk directory '%s': %w", root, err)
	}

	return files, nil
}
