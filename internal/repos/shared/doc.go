// Package shared holds the types and collaborator interfaces used across the
// repository packages: repository records, the filesystem and git executor
// boundaries, and the presenter consulted for progress and selection.
package shared
