// Package discovery locates git repositories below one or more root
// directories, following gitdir pointer files and .gitmodules manifests.
package discovery
