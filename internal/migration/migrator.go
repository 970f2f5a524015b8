package migration

// Migrator prepares databases for a run with workerCount workers. Fresh
// drops existing results tables first.
type Migrator interface {
	Run(workerCount int, fresh bool) error
}
