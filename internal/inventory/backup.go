package inventory

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/gitfleet/internal/execshell"
	"github.com/temirov/gitfleet/internal/repos/shared"
)

const (
	gitRemoteSubcommandConstant          = "remote"
	gitGetURLSubcommandConstant          = "get-url"
	remoteLookupFailedLogMessageConstant = "Failed to resolve remote url"
	repositoryLogFieldConstant           = "repository"
)

// RemoteResolver fills in the remote URL of repository records.
type RemoteResolver struct {
	gitExecutor shared.GitExecutor
	logger      *zap.Logger
	remoteName  string
}

// NewRemoteResolver constructs a RemoteResolver for the named remote; a blank name selects origin.
func NewRemoteResolver(gitExecutor shared.GitExecutor, logger *zap.Logger, remoteName string) (*RemoteResolver, error) {
	if gitExecutor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	trimmedRemoteName := strings.TrimSpace(remoteName)
	if len(trimmedRemoteName) == 0 {
		trimmedRemoteName = shared.OriginRemoteNameConstant
	}
	return &RemoteResolver{gitExecutor: gitExecutor, logger: logger, remoteName: trimmedRemoteName}, nil
}

// Resolve returns a copy of records with RemoteURL populated. Records without the remote keep an empty URL.
func (resolver *RemoteResolver) Resolve(executionContext context.Context, records []shared.RepositoryRecord) []shared.RepositoryRecord {
	resolved := make([]shared.RepositoryRecord, 0, len(records))
	for _, record := range records {
		if len(record.RemoteURL) == 0 {
			executionResult, executionError := resolver.gitExecutor.ExecuteGit(executionContext, record.GitCommandDetails(gitRemoteSubcommandConstant, gitGetURLSubcommandConstant, resolver.remoteName))
			if executionError == nil {
				record.RemoteURL = strings.TrimSpace(executionResult.StandardOutput)
			} else {
				var failedError execshell.CommandFailedError
				if !errors.As(executionError, &failedError) {
					resolver.logger.Warn(remoteLookupFailedLogMessageConstant,
						zap.String(repositoryLogFieldConstant, record.Path),
						zap.Error(executionError),
					)
				}
			}
		}
		resolved = append(resolved, record)
	}
	return resolved
}
