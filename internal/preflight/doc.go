// Package preflight provides readiness checks for the services and paths a
// triage run depends on.
//
// The doctor command runs every check through RunAll and prints the results.
// Checks for disabled features are skipped, and each check makes at most one
// network request with its own short timeout.
package preflight
