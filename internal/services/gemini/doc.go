// Package gemini wraps the generative model service behind the narrow
// surface the pipeline needs: structured text generation, reference image
// generation, and asynchronous clip generation with polling.
package gemini
