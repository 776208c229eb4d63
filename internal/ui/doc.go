// Package ui renders gitfleet output for people: command progress, selection prompts and status tables.
//
// Structured telemetry keeps flowing through zap; the types here only translate results into concise console
// text and collect answers from the terminal.
package ui
