// Package migration applies remote plans to repositories.
//
// Engine.Apply computes the difference between a repository's current remote and
// its plan, snapshots the git configuration before mutating, recreates the remote,
// and verifies the result. Engine.Run processes jobs sequentially in batches and
// collects per-repository outcomes into a BatchReport.
package migration
