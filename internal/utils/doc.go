// Package utils exposes reusable helpers consumed by multiple commands.
//
// It houses ConfigurationLoader and LoggerFactory, which integrate Viper,
// environment variables, zap logging and rotating log files for the CLI.
package utils
