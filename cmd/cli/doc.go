// Package cli builds the gitfleet command-line interface: the Cobra command tree, configuration loading
// through Viper with GITFLEET_ environment overrides, and zap logging shared by the status, sync, prune,
// backup and restore commands.
package cli
