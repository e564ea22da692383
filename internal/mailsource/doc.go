// Package mailsource fetches recent inbox messages and moves spam out of the
// inbox.
//
// Two backends implement Source: Gmail (REST API behind a circuit breaker)
// and IMAP (UID MOVE into a configured spam mailbox). Both hand raw message
// parts to an Assembler, which merges plain-text and HTML bodies, runs OCR on
// image parts, and truncates every field to the configured limits so the
// classifier sees the same shape of text regardless of where it came from.
package mailsource
