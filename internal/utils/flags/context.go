package flags

import "github.com/spf13/cobra"

const (
	// RootFlagName names the repeatable repository root flag.
	RootFlagName = "root"
	// RootFlagUsage describes the repository root flag.
	RootFlagUsage = "Directory to scan for repositories (repeatable; positional arguments work too)"
	// RemoteFlagName names the remote flag.
	RemoteFlagName = "remote"
	// RemoteFlagUsage describes the remote flag.
	RemoteFlagUsage = "Remote used for fetch and push"
	// OutputFlagName names the report format flag.
	OutputFlagName = "output"
	// OutputFlagShorthand is the shorthand of the report format flag.
	OutputFlagShorthand = "o"
)

// RootFlagValues stores repository root flag values.
type RootFlagValues struct {
	Roots []string
}

// BindRootFlags attaches the repository root flag to the command, seeded with defaults.
func BindRootFlags(command *cobra.Command, defaults RootFlagValues) *RootFlagValues {
	values := RootFlagValues{Roots: append([]string{}, defaults.Roots...)}
	if command == nil {
		return &values
	}
	if command.Flags().Lookup(RootFlagName) == nil {
		command.Flags().StringSliceVar(&values.Roots, RootFlagName, values.Roots, RootFlagUsage)
	}
	return &values
}

// EnsureRemoteFlag guarantees the remote flag is available on the command.
func EnsureRemoteFlag(command *cobra.Command, defaultValue string) {
	if command == nil {
		return
	}
	if command.Flags().Lookup(RemoteFlagName) == nil {
		command.Flags().String(RemoteFlagName, defaultValue, RemoteFlagUsage)
	}
}

// StringFlagValue returns the flag value and whether the user set it explicitly.
func StringFlagValue(command *cobra.Command, flagName string) (string, bool) {
	if command == nil {
		return "", false
	}
	flag := command.Flags().Lookup(flagName)
	if flag == nil {
		return "", false
	}
	return flag.Value.String(), flag.Changed
}
