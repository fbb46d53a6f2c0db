// Package services holds cross-cutting support for the external collaborators
// the pipeline talks to: error classification markers with stage context, and
// context annotations (memo stem, stage, run ID) that the logging package
// turns into structured fields.
package services
