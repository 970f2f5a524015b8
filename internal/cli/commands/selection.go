package commands

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"stp/internal/catalog"
	"stp/internal/config"
	"stp/internal/discovery"
	"stp/internal/storage"
)

// selector discovers the scenario catalog and applies the flag and config selection
type selector struct {
	config *config.Config
	parser *discovery.Parser
	filter *discovery.Filter
}

func newSelector(cfg *config.Config, parser *discovery.Parser, filter *discovery.Filter) *selector {
	return &selector{config: cfg, parser: parser, filter: filter}
}

// Select builds the catalog under the test path. Filters only disable, so the
// result lists every discovered class with its selection state.
func (s *selector) Select() (*catalog.Catalog, error) {
	scanner := discovery.NewScanner(s.config.PathsToIgnore, s.config.SourceSuffixes)
	root := s.config.GetTestPath()
	types, err := discovery.NewSourceLoader(scanner, s.parser).Load(root)
	if err != nil {
		return nil, fmt.Errorf("failed to discover scenarios in %s: %w", root, err)
	}

	cat := catalog.Build(types)
	flags := s.config.Flags
	byName := s.filter.FilterByName(cat, flags.NameFilter)
	byCase := s.filter.FilterByCase(cat, flags.CaseFilter)
	byCategory := s.filter.FilterByCategory(cat, s.config.IncludeCategories(), s.config.ExcludeCategories())

	logrus.WithFields(logrus.Fields{
		"classes":     cat.Len(),
		"by_name":     byName,
		"by_case":     byCase,
		"by_category": byCategory,
	}).Debug("selection applied")
	return cat, nil
}

// openStorage returns the JSON results file plus every configured mirror.
// publish forces the blob sink on. The returned func releases database handles.
func openStorage(cfg *config.Config, publish bool) (storage.Storage, func(), error) {
	primary := storage.NewJSONStorage(cfg)
	var mirrors []storage.Storage
	cleanup := func() {}

	if cfg.Results.MySQL {
		mysqlStorage, err := storage.OpenMySQLStorage(cfg)
		if err != nil {
			return nil, nil, err
		}
		mirrors = append(mirrors, mysqlStorage)
		cleanup = func() { _ = mysqlStorage.Close() }
	}
	if cfg.Results.Blob || publish {
		blobStorage, err := storage.NewBlobStorage(cfg)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		mirrors = append(mirrors, blobStorage)
	}

	if len(mirrors) == 0 {
		return primary, cleanup, nil
	}
	return storage.NewMultiStorage(primary, mirrors...), cleanup, nil
}
