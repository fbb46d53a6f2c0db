// Package memo discovers voice recordings and parses the companion sidecar
// files Voice Record Pro writes next to them.
//
// A sidecar may be JSON, XML, or the plain-text .meta.txt format; when none
// exists metadata falls back to the audio filename and modification time.
// Categories from the sidecar map onto note template keys through a fixed
// alias table, defaulting to the generic template for anything unknown.
package memo
