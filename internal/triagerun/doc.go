// Package triagerun builds the triage collaborators from configuration and
// executes a single run. The CLI run, doctor and test-alert commands share
// these constructors so every entry point wires providers the same way.
package triagerun
