package pipeline

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/soundkeeper/taketake/internal/config"
	"github.com/soundkeeper/taketake/internal/progress"
)

// audioExtensions lists the source file extensions setup recognizes as
// recordings to transfer (spec.md §2).
var audioExtensions = map[string]bool{
	".wav": true,
}

// setup implements spec.md §4.2: discover or create the top-level progress
// directory, then enumerate source recordings into FileInfo records, one
// per-file progress sub-directory each. It never runs a speech-to-text or
// encode step itself; those belong to listen and flacenc.
func setup(cfg config.Config, logger *slog.Logger, now time.Time) (progress.Root, []*FileInfo, error) {
	root, found, err := progress.Discover(cfg.Source)
	if err != nil {
		return progress.Root{}, nil, fmt.Errorf("%s: %w", SetupFail, err)
	}
	if !found {
		root, err = progress.Create(cfg.Source, now)
		if err != nil {
			return progress.Root{}, nil, fmt.Errorf("%s: %w", SetupFail, err)
		}
		logger.Info("created progress directory", "dir", root.Dir)
	} else {
		logger.Info("resuming progress directory", "dir", root.Dir)
	}

	entries, err := os.ReadDir(cfg.Source)
	if err != nil {
		return progress.Root{}, nil, fmt.Errorf("%s: read source directory %q: %w", SetupFail, cfg.Source, err)
	}

	var basenames []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if audioExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			basenames = append(basenames, e.Name())
		}
	}
	sort.Strings(basenames)

	files := make([]*FileInfo, 0, len(basenames))
	for i, basename := range basenames {
		dir, err := root.CreateFileDir(basename)
		if err != nil {
			return progress.Root{}, nil, fmt.Errorf("%s: %w", SetupFail, err)
		}

		files = append(files, &FileInfo{
			Index:          i,
			SourceBasename: basename,
			SourcePath:     filepath.Join(cfg.Source, basename),
			ProgressDir:    dir,
			InProgressPath: filepath.Join(dir, progress.InProgressFlac),
			EncodedPath:    filepath.Join(dir, progress.EncodedFlac),
		})
	}

	return root, files, nil
}
