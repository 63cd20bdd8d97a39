// Package services provides shared error classification and context helpers
// used by the pipeline components that talk to external collaborators.
package services
