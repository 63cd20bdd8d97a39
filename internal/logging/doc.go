// Package logging builds the slog loggers used across the pipeline and
// defines the standardized attribute keys shared by all components.
package logging
