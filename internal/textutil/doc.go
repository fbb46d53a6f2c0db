// Package textutil provides text helpers shared across the pipeline:
// slugs for note filenames and a conservative token estimator used for
// rate-limit admission.
package textutil
