package discovery

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"stp/internal/domain"
)

// SourceLoader turns a source tree into type descriptors: scan, parse each
// file, then resolve inheritance across the whole scan
type SourceLoader struct {
	scanner *Scanner
	parser  *Parser
}

// NewSourceLoader creates a new SourceLoader
func NewSourceLoader(scanner *Scanner, parser *Parser) *SourceLoader {
	return &SourceLoader{scanner: scanner, parser: parser}
}

// Load discovers every type under root in file walk order
func (l *SourceLoader) Load(root string) ([]domain.TypeDescriptor, error) {
	files, err := l.scanner.Scan(root)
	if err != nil {
		return nil, err
	}

	projects := newProjectResolver(root)
	var types []domain.TypeDescriptor
	for _, file := range files {
		parsed, err := l.parser.ParseFile(file, projects.assemblyOf(file))
		if err != nil {
			return nil, err
		}
		logrus.WithFields(logrus.Fields{"file": file, "types": len(parsed)}).Debug("parsed source file")
		types = append(types, parsed...)
	}

	return Flatten(types), nil
}

// projectResolver maps a source file to the nearest enclosing *.csproj name,
// falling back to the scan root's base name
type projectResolver struct {
	root     string
	fallback string
	cache    map[string]string
}

func newProjectResolver(root string) *projectResolver {
	root = filepath.Clean(root)
	fallback := filepath.Base(root)
	if abs, err := filepath.Abs(root); err == nil {
		fallback = filepath.Base(abs)
	}
	return &projectResolver{root: root, fallback: fallback, cache: make(map[string]string)}
}

func (p *projectResolver) assemblyOf(file string) string {
	return p.lookup(filepath.Dir(file))
}

func (p *projectResolver) lookup(dir string) string {
	if name, ok := p.cache[dir]; ok {
		return name
	}

	name := p.fallback
	if project := findProject(dir); project != "" {
		name = project
	} else if p.within(dir) {
		if parent := filepath.Dir(dir); parent != dir {
			name = p.lookup(parent)
		}
	}

	p.cache[dir] = name
	return name
}

// within reports whether dir is strictly below the scan root
func (p *projectResolver) within(dir string) bool {
	rel, err := filepath.Rel(p.root, dir)
	return err == nil && rel != "." && !strings.HasPrefix(rel, "..")
}

func findProject(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".csproj") {
			return strings.TrimSuffix(e.Name(), ".csproj")
		}
	}
	return ""
}
