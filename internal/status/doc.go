// Package status builds per-repository branch status by querying git.
//
// Collector issues a fixed sequence of git queries for one repository and
// never fails outright: any error is recorded on the returned RepositoryStatus
// so bulk callers can continue with the remaining repositories.
package status
