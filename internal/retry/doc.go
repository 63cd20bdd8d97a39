// Package retry implements the jittered exponential backoff used to space
// retries of a single failed provider operation.
package retry
