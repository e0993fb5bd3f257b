// Package remote talks to the backend database through bun.
//
// EntitySource serves single-row reads for repositorycache, RangeQuery serves
// positional reads for paging. RepositorySource does both on top of an
// existing go-repository-bun repository. None of them wrap errors; callers
// classify them.
package remote
