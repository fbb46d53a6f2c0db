// Package pipeline drives one voice memo through the fixed stage sequence:
// watch, transcribe, index lookup, analyze, render, persist.
//
// A run owns its ProcessingContext exclusively and moves through statuses as
// stages complete. The watch stage returns a tagged result — new work or
// none — and the runner exits early on none. Stage failures are fatal for
// the run but leave every durable side effect in place (transcript sidecars,
// processed records), so re-running the same memo resumes at the stage that
// failed; anything that already committed is skipped through the caches.
// Minor problems (a missing sidecar field, a failed index write after the
// note exists) are advisories collected on the context instead of failures.
package pipeline
