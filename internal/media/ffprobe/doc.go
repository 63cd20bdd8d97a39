// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// The assembly engine uses it to measure clip durations before building a
// transition filter graph, and to decide whether audio crossfades apply.
package ffprobe
