// Package flags binds the flags shared by gitfleet commands and reports which ones the user set.
package flags

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	// DryRunFlagName names the dry-run flag.
	DryRunFlagName = "dry-run"
	// DryRunFlagUsage describes the dry-run flag.
	DryRunFlagUsage = "Print the planned git commands without running them"
	// AssumeYesFlagName names the flag that skips interactive selection.
	AssumeYesFlagName = "yes"
	// AssumeYesFlagShorthand is the shorthand of the assume-yes flag.
	AssumeYesFlagShorthand = "y"
	// AssumeYesFlagUsage describes the assume-yes flag.
	AssumeYesFlagUsage = "Select every candidate without prompting"
)

// ExecutionDefaults describes default values of the execution flags.
type ExecutionDefaults struct {
	DryRun    bool
	AssumeYes bool
}

// ExecutionFlags reports execution flag values and whether each was set on the command line.
type ExecutionFlags struct {
	DryRun       bool
	DryRunSet    bool
	AssumeYes    bool
	AssumeYesSet bool
}

// BindExecutionFlags attaches the dry-run and assume-yes flags to the command.
func BindExecutionFlags(command *cobra.Command, defaults ExecutionDefaults) {
	if command == nil {
		return
	}
	flagSet := command.Flags()
	if flagSet.Lookup(DryRunFlagName) == nil {
		flagSet.Bool(DryRunFlagName, defaults.DryRun, DryRunFlagUsage)
	}
	if flagSet.Lookup(AssumeYesFlagName) == nil {
		flagSet.BoolP(AssumeYesFlagName, AssumeYesFlagShorthand, defaults.AssumeYes, AssumeYesFlagUsage)
	}
}

// ResolveExecutionFlags reads the execution flags. The boolean result is false when the command has none bound.
func ResolveExecutionFlags(command *cobra.Command) (ExecutionFlags, bool) {
	if command == nil {
		return ExecutionFlags{}, false
	}
	flagSet := command.Flags()
	dryRun, dryRunSet, dryRunBound := lookupBool(flagSet, DryRunFlagName)
	assumeYes, assumeYesSet, assumeYesBound := lookupBool(flagSet, AssumeYesFlagName)
	if !dryRunBound && !assumeYesBound {
		return ExecutionFlags{}, false
	}
	return ExecutionFlags{DryRun: dryRun, DryRunSet: dryRunSet, AssumeYes: assumeYes, AssumeYesSet: assumeYesSet}, true
}

// ResolveBool returns the flag value when the user set it, otherwise the configured value.
func ResolveBool(command *cobra.Command, flagName string, configured bool) bool {
	if command == nil {
		return configured
	}
	value, changed, bound := lookupBool(command.Flags(), flagName)
	if !bound || !changed {
		return configured
	}
	return value
}

func lookupBool(flagSet *pflag.FlagSet, flagName string) (bool, bool, bool) {
	if flagSet == nil || flagSet.Lookup(flagName) == nil {
		return false, false, false
	}
	value, valueError := flagSet.GetBool(flagName)
	if valueError != nil {
		return false, false, false
	}
	return value, flagSet.Changed(flagName), true
}
