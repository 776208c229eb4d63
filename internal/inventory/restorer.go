package inventory

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/gitfleet/internal/execshell"
	"github.com/temirov/gitfleet/internal/repos/filesystem"
	"github.com/temirov/gitfleet/internal/repos/shared"
)

const (
	gitCloneSubcommandConstant         = "clone"
	gitProgressFlagConstant            = "--progress"
	targetDirectoryPermissionsConstant = 0o755

	restoreProgressTemplateConstant       = "Cloning %s into %s"
	missingRemoteMessageConstant          = "entry has no remote url"
	invalidNameTemplateConstant           = "entry name %q cannot be used as a directory"
	destinationExistsMessageConstant      = "destination already exists"
	cloneFailedTemplateConstant           = "failed to clone %s: %w"
	targetDirectoryFailedTemplateConstant = "failed to prepare target directory %s: %w"
	targetRequiredMessageConstant         = "restore target directory required"
	gitExecutorMissingMessageConstant     = "git executor not configured"

	clonedLogMessageConstant      = "Cloned repository"
	cloneFailedLogMessageConstant = "Failed to clone repository"
	nameLogFieldConstant          = "name"
	destinationLogFieldConstant   = "destination"
)

// ErrGitExecutorNotConfigured indicates a restorer was built without a git executor.
var ErrGitExecutorNotConfigured = errors.New(gitExecutorMissingMessageConstant)

// ErrTargetRequired indicates a restore without a target directory.
var ErrTargetRequired = errors.New(targetRequiredMessageConstant)

// RestoreOptions configures a restore pass.
type RestoreOptions struct {
	TargetDirectory string
	DryRun          bool
	Presenter       shared.Presenter
}

// RestoreResult records what happened to one entry.
type RestoreResult struct {
	Name         string `json:"name" yaml:"name"`
	Destination  string `json:"destination" yaml:"destination"`
	Cloned       bool   `json:"cloned" yaml:"cloned"`
	Skipped      bool   `json:"skipped" yaml:"skipped"`
	ErrorMessage string `json:"error,omitempty" yaml:"error,omitempty"`
}

// RestoreReport aggregates a restore pass in entry order.
type RestoreReport struct {
	Results []RestoreResult `json:"results" yaml:"results"`
}

// FailedCount returns the number of entries that could not be cloned.
func (report RestoreReport) FailedCount() int {
	failedCount := 0
	for _, result := range report.Results {
		if !result.Cloned && !result.Skipped {
			failedCount++
		}
	}
	return failedCount
}

// Restorer clones inventory entries into a target directory.
type Restorer struct {
	gitExecutor shared.GitExecutor
	fileSystem  shared.FileSystem
	logger      *zap.Logger
}

// NewRestorer constructs a Restorer. A nil file system selects the operating system.
func NewRestorer(gitExecutor shared.GitExecutor, fileSystem shared.FileSystem, logger *zap.Logger) (*Restorer, error) {
	if gitExecutor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	if fileSystem == nil {
		fileSystem = filesystem.OSFileSystem{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Restorer{gitExecutor: gitExecutor, fileSystem: fileSystem, logger: logger}, nil
}

// Restore clones every entry into <target>/<name>. Existing destinations are skipped; a failed entry does not
// stop the others.
func (restorer *Restorer) Restore(executionContext context.Context, entries []Entry, options RestoreOptions) (RestoreReport, error) {
	targetDirectory := strings.TrimSpace(options.TargetDirectory)
	if len(targetDirectory) == 0 {
		return RestoreReport{}, ErrTargetRequired
	}
	if !options.DryRun {
		if directoryError := restorer.fileSystem.MkdirAll(targetDirectory, targetDirectoryPermissionsConstant); directoryError != nil {
			return RestoreReport{}, fmt.Errorf(targetDirectoryFailedTemplateConstant, targetDirectory, directoryError)
		}
	}

	report := RestoreReport{Results: make([]RestoreResult, 0, len(entries))}
	for _, entry := range entries {
		report.Results = append(report.Results, restorer.restoreEntry(executionContext, entry, targetDirectory, options))
	}
	return report, nil
}

func (restorer *Restorer) restoreEntry(executionContext context.Context, entry Entry, targetDirectory string, options RestoreOptions) RestoreResult {
	entryName := strings.TrimSpace(entry.Name)
	result := RestoreResult{Name: entryName}

	if len(entryName) == 0 || entryName != filepath.Base(entryName) || entryName == "." || entryName == ".." {
		result.ErrorMessage = fmt.Sprintf(invalidNameTemplateConstant, entry.Name)
		return result
	}
	result.Destination = filepath.Join(targetDirectory, entryName)

	remoteURL := strings.TrimSpace(entry.RemoteURL)
	if len(remoteURL) == 0 {
		result.ErrorMessage = missingRemoteMessageConstant
		return result
	}

	if _, statError := restorer.fileSystem.Stat(result.Destination); statError == nil {
		result.Skipped = true
		result.ErrorMessage = destinationExistsMessageConstant
		return result
	}

	if options.Presenter != nil {
		options.Presenter.NotifyProgress(fmt.Sprintf(restoreProgressTemplateConstant, remoteURL, result.Destination))
	}
	if options.DryRun {
		result.Cloned = true
		return result
	}

	cloneDetails := execshell.CommandDetails{
		Arguments:            []string{gitCloneSubcommandConstant, remoteURL, result.Destination},
		WorkingDirectory:     targetDirectory,
		EnvironmentVariables: shared.RepositoryRecord{}.GitEnvironment(),
	}
	if options.Presenter != nil {
		// git only reports progress to a terminal unless asked.
		cloneDetails.Arguments = []string{gitCloneSubcommandConstant, gitProgressFlagConstant, remoteURL, result.Destination}
		cloneDetails.ProgressLineHandler = options.Presenter.NotifyProgress
	}
	if _, cloneError := restorer.gitExecutor.ExecuteGit(executionContext, cloneDetails); cloneError != nil {
		result.ErrorMessage = fmt.Errorf(cloneFailedTemplateConstant, remoteURL, cloneError).Error()
		restorer.logger.Warn(cloneFailedLogMessageConstant,
			zap.String(nameLogFieldConstant, entryName),
			zap.String(destinationLogFieldConstant, result.Destination),
			zap.Error(cloneError),
		)
		return result
	}

	restorer.logger.Info(clonedLogMessageConstant,
		zap.String(nameLogFieldConstant, entryName),
		zap.String(destinationLogFieldConstant, result.Destination),
	)
	result.Cloned = true
	return result
}
