package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// Scanner scans for test source files in a directory
type Scanner struct {
	skipDirs map[string]bool
	suffixes []string
}

// NewScanner creates a new Scanner with the given directories to skip and
// file suffixes to collect
func NewScanner(skipDirs []string, suffixes []string) *Scanner {
	skipMap := make(map[string]bool)
	for _, dir := range skipDirs {
		skipMap[dir] = true
	}
	return &Scanner{skipDirs: skipMap, suffixes: suffixes}
}

// Scan finds all source files in the given root directory
func (s *Scanner) Scan(root string) ([]string, error) {
	var files []string

	// Clean and validate the root path
	root = filepath.Clean(root)
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("test path does not exist: %s", root)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("test path is not a directory: %s", root)
	}

	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path == root {
				return nil
			}
			name := d.Name()
			// Skip hidden directories (starting with .)
			if strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			if s.skipDirs[name] {
				logrus.WithField("dir", path).Debug("skipping directory")
				return filepath.SkipDir
			}
			return nil
		}

		if s.matches(d.Name()) {
			files = append(files, path)
		}
		return nil
	})

	return files, err
}

func (s *Scanner) matches(name string) bool {
	for _, suffix := range s.suffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}
