// Package vaultindex persists what the vault already contains: processed
// recording stems, note titles, tags, and wiki-links, backed by SQLite.
//
// The index serves two purposes. It is one of the two sources consulted to
// decide whether a recording was already processed (the inbox filesystem
// scan being the other), and it supplies the known tag and note sets the
// analysis stage feeds to the LLM for link suggestions. Losing the database
// is recoverable: the harvest command rebuilds it from the vault's markdown.
package vaultindex
