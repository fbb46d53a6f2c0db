// Package groq talks to the Groq chat completion API to turn voice memo
// transcripts into structured note analyses.
//
// Every request passes through the rate limiter before it leaves the
// process; the free tier returns 429s aggressively and the daily cap is
// real. Transcripts longer than the configured chunk limit are summarized
// chunk by chunk and then synthesized into one final analysis, keeping each
// individual request inside the token-per-minute window.
package groq
