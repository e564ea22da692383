// Package services defines shared utilities consumed by the triage pipeline
// and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers, message IDs, and labels for
//     logging.
//   - Structured error markers plus the Wrap helper that let adapters classify
//     failures (misconfiguration vs transient collaborator trouble).
//
// Use these helpers when wiring a new collaborator so error handling and
// observability stay uniform across the pipeline.
package services
