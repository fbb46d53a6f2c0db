// Package whisper wraps the mlx-whisper command line tool for voice memo
// transcription.
//
// The tool is launched through uvx so no local Python environment needs
// managing. Output is read back from the JSON file mlx-whisper writes next
// to its working directory, which carries both the transcript text and the
// detected language.
package whisper
