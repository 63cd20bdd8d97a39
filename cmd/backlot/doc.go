// Package main hosts the Backlot CLI entrypoint and command graph.
//
// The Cobra-based command tree covers the full production lifecycle: produce
// runs a complete pipeline from idea to stitched video, regen retakes a
// single scene of a saved run, and plan, captions, and stitch expose the
// inspection and assembly stages stand-alone. It centralizes configuration
// resolution and structured logging setup so subcommands can focus on user
// experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
