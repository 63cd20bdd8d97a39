// Package quota spaces remote calls so the generative provider's per-minute
// request ceilings are never exceeded. Each call category (video, image,
// text) carries its own minimum interval; acquisitions within a category
// form a queue and never overlap below that interval.
package quota
