// Package triage turns message text into decisions: Classifier maps a message
// to a Label and Extractor pulls interview details out of job mail.
//
// Model output is untrusted. ParseLabel accepts exactly one of the four known
// tokens and maps anything else to LabelUnclassifiable, which callers must
// handle as an explicit branch. Extractor decodes into nullable fields and
// reports, but never rejects, values that do not match the requested formats.
package triage
