// Package synchronization brings out-of-date local branches level with their upstreams.
//
// Repositories are processed one at a time in selection order. Each repository follows
// Start, optional Stash, UpdateEachBranch, optional StashPop, and ends in either success or failure.
// A failure never stops the remaining repositories; it is recorded on the repository's Outcome.
package synchronization
