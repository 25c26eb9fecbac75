// Package scanner discovers the markdown files mdview can serve.
//
// Discovery is a flat, non-recursive read of one directory: every entry whose
// name ends in ".md" counts, with no check that it is a regular file. Results
// are recomputed on every call.
package scanner

import (
	"os"
	"sort"
	"strings"
	"time"

	"github.com/conneroisu/mdview/internal/errors"
)

// MarkdownExt is the suffix a servable file must carry.
const MarkdownExt = ".md"

// IsMarkdown reports whether name ends in the markdown suffix.
func IsMarkdown(name string) bool {
	return strings.HasSuffix(name, MarkdownExt)
}

// MarkdownFiles returns the markdown names in dir sorted in descending
// lexicographic order.
func MarkdownFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeDirUnreadable, "reading directory "+dir, err)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if IsMarkdown(entry.Name()) {
			files = append(files, entry.Name())
		}
	}

	sort.Sort(sort.Reverse(sort.StringSlice(files)))
	return files, nil
}

// FileInfo describes one discovered file for listings.
type FileInfo struct {
	Name    string    `json:"name" yaml:"name"`
	Size    int64     `json:"size" yaml:"size"`
	ModTime time.Time `json:"mod_time" yaml:"mod_time"`
	IsDir   bool      `json:"is_dir,omitempty" yaml:"is_dir,omitempty"`
}

// Describe returns MarkdownFiles with size and modification time. Entries
// that vanish between listing and stat are skipped.
func Describe(dir string) ([]FileInfo, error) {
	names, err := MarkdownFiles(dir)
	if err != nil {
		return nil, err
	}

	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeDirUnreadable, "opening directory "+dir, err)
	}
	defer root.Close()

	infos := make([]FileInfo, 0, len(names))
	for _, name := range names {
		fi, err := root.Stat(name)
		if err != nil {
			continue
		}
		infos = append(infos, FileInfo{
			Name:    name,
			Size:    fi.Size(),
			ModTime: fi.ModTime(),
			IsDir:   fi.IsDir(),
		})
	}
	return infos, nil
}
