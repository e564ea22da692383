// Package config loads, normalizes, and validates mailtriage configuration.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and honours environment and OS keyring fallbacks for secrets such
// as OPENAI_API_KEY or TELEGRAM_BOT_TOKEN. Validate checks structural sanity
// for every command; ValidateForRun additionally requires the credentials a
// triage run cannot work without.
package config
