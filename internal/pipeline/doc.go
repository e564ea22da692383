// Package pipeline runs one triage pass over the inbox.
//
// Each fetched message is checked against the ledger, classified, recorded,
// and then routed by label: spam is moved out of the inbox, job mail is
// mined for interview details and announced by voice alert, everything else
// is left alone. Fetch, classification and ledger failures halt the run;
// move, extraction and alert failures are logged, counted in the Summary,
// and the run continues with the next message.
//
// Runs on one host are serialized by an advisory file lock.
package pipeline
