// Package inventory saves the list of discovered repositories and recreates them by cloning.
//
// The inventory file is a JSON array of {name, path, remote_url} objects. Files ending in .yaml or .yml are
// read and written as YAML with the same keys.
package inventory
