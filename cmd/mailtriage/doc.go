// Package main hosts the mailtriage CLI entrypoint and command graph.
//
// The Cobra command tree loads .env and the TOML configuration once, then
// dispatches to a triage run, ledger inspection, diagnostics, Gmail
// authorization, keyring secret management, or a one-off voice alert. The
// heavy lifting lives in the internal packages; commands here only wire and
// render.
package main
