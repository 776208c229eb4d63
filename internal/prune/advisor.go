package prune

import (
	"fmt"
	"strings"
	"time"

	"github.com/temirov/gitfleet/internal/repos/shared"
	"github.com/temirov/gitfleet/internal/status"
)

const (
	hoursPerDayConstant = 24

	// ReasonMerged marks a branch whose commits are all reachable from the current branch or its live upstream.
	ReasonMerged = "merged"
	// ReasonGone marks a branch whose configured upstream no longer resolves.
	ReasonGone = "gone"
	// ReasonStale marks a branch whose last commit is older than the configured age.
	ReasonStale = "stale"

	candidateDescriptionTemplateConstant = "%s: %s (%s)"
	forceRequiredSuffixConstant          = ", requires force"
	reasonSeparatorConstant              = ", "
)

// DefaultProtectedBranches lists the branch names never offered for deletion unless overridden.
var DefaultProtectedBranches = []string{"main", "master"}

// Criteria selects which axes make a branch a deletion candidate. Enabled axes are combined with OR.
// When no axis is enabled, Merged applies.
type Criteria struct {
	Merged        bool
	Gone          bool
	OlderThanDays int
}

func (criteria Criteria) normalized() Criteria {
	if !criteria.Merged && !criteria.Gone && criteria.OlderThanDays <= 0 {
		criteria.Merged = true
	}
	return criteria
}

// Candidate is a branch recommended for deletion.
type Candidate struct {
	Record  shared.RepositoryRecord `json:"repository" yaml:"repository"`
	Branch  status.BranchStatus     `json:"branch" yaml:"branch"`
	Reasons []string                `json:"reasons" yaml:"reasons"`
}

// CanBeSafelyDeleted reports whether git will delete the branch without forcing.
func (candidate Candidate) CanBeSafelyDeleted() bool {
	return candidate.Branch.IsFullyMerged
}

// RequiresForce reports whether deleting the branch discards commits reachable from nowhere else.
func (candidate Candidate) RequiresForce() bool {
	return !candidate.CanBeSafelyDeleted()
}

// Describe renders the selection label of the candidate.
func (candidate Candidate) Describe() string {
	description := fmt.Sprintf(candidateDescriptionTemplateConstant, candidate.Record.Path, candidate.Branch.Name, strings.Join(candidate.Reasons, reasonSeparatorConstant))
	if candidate.RequiresForce() {
		description += forceRequiredSuffixConstant
	}
	return description
}

// AdvisorOption customizes an Advisor.
type AdvisorOption func(*Advisor)

// WithClock overrides the time source used for age checks.
func WithClock(clock shared.Clock) AdvisorOption {
	return func(advisor *Advisor) {
		if clock != nil {
			advisor.clock = clock
		}
	}
}

// WithProtectedBranches replaces the protected branch names. Blank names are ignored.
func WithProtectedBranches(branchNames []string) AdvisorOption {
	return func(advisor *Advisor) {
		advisor.protectedBranches = map[string]struct{}{}
		for _, branchName := range branchNames {
			trimmedName := strings.TrimSpace(branchName)
			if len(trimmedName) > 0 {
				advisor.protectedBranches[trimmedName] = struct{}{}
			}
		}
	}
}

// Advisor classifies branches for deletion.
type Advisor struct {
	clock             shared.Clock
	protectedBranches map[string]struct{}
}

// NewAdvisor constructs an Advisor protecting DefaultProtectedBranches.
func NewAdvisor(options ...AdvisorOption) *Advisor {
	advisor := &Advisor{clock: shared.SystemClock{}}
	WithProtectedBranches(DefaultProtectedBranches)(advisor)
	for _, option := range options {
		if option != nil {
			option(advisor)
		}
	}
	return advisor
}

// Advise returns the branches matching any enabled criterion. Repositories that failed collection, current
// branches and protected branches are never candidates. Order follows the statuses and their branches.
func (advisor *Advisor) Advise(statuses []status.RepositoryStatus, criteria Criteria) []Candidate {
	criteria = criteria.normalized()
	var staleBefore time.Time
	if criteria.OlderThanDays > 0 {
		staleBefore = advisor.clock.Now().Add(-time.Duration(criteria.OlderThanDays) * hoursPerDayConstant * time.Hour)
	}

	candidates := []Candidate{}
	for _, repositoryStatus := range statuses {
		if repositoryStatus.HasError() {
			continue
		}
		for _, branch := range repositoryStatus.LocalBranches {
			if branch.IsCurrent {
				continue
			}
			if _, protected := advisor.protectedBranches[branch.Name]; protected {
				continue
			}

			reasons := []string{}
			if criteria.Merged && branch.IsFullyMerged {
				reasons = append(reasons, ReasonMerged)
			}
			if criteria.Gone && branch.IsGone {
				reasons = append(reasons, ReasonGone)
			}
			if criteria.OlderThanDays > 0 && !branch.LastCommitDate.IsZero() && branch.LastCommitDate.Before(staleBefore) {
				reasons = append(reasons, ReasonStale)
			}
			if len(reasons) == 0 {
				continue
			}
			candidates = append(candidates, Candidate{Record: repositoryStatus.Record, Branch: branch, Reasons: reasons})
		}
	}
	return candidates
}
