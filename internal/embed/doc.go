// Package embed normalizes author-supplied video references into canonical player URLs.
//
// Authors paste whatever the video host's share dialog gives them: a watch page link, the full
// <iframe> snippet, or the player URL itself. A [Normalizer] reduces all of these to the one form
// that can be used as an inline frame source, or reports that nothing usable was found.
//
// Normalization is a pure function of its input. It is applied once when a course is submitted and
// again when a course page is rendered, so rows written before normalization existed still play.
//
// Only one [Provider] is recognized per [Normalizer]; references to other hosts are rejected rather
// than guessed at.
package embed
