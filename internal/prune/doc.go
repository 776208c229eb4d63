// Package prune recommends local branches for deletion and deletes the ones a caller accepts.
package prune
