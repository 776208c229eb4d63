package utils

import "context"

type contextKey struct {
	name string
}

var configurationFilePathKey = &contextKey{name: "configuration-file-path"}

// CommandContextAccessor stores and retrieves invocation metadata on command contexts.
type CommandContextAccessor struct{}

// NewCommandContextAccessor constructs a CommandContextAccessor.
func NewCommandContextAccessor() CommandContextAccessor {
	return CommandContextAccessor{}
}

// WithConfigurationFilePath records the configuration file that produced the active settings.
// An empty path means only embedded defaults and environment overrides were applied.
func (CommandContextAccessor) WithConfigurationFilePath(parentContext context.Context, configurationFilePath string) context.Context {
	if parentContext == nil {
		parentContext = context.Background()
	}
	return context.WithValue(parentContext, configurationFilePathKey, configurationFilePath)
}

// ConfigurationFilePath returns the recorded configuration file and whether one was recorded at all.
func (CommandContextAccessor) ConfigurationFilePath(executionContext context.Context) (string, bool) {
	if executionContext == nil {
		return "", false
	}
	configurationFilePath, recorded := executionContext.Value(configurationFilePathKey).(string)
	return configurationFilePath, recorded
}
