// Package region plans the rectangular areas of a normalized price-tag image
// that are handed to text recognition.
//
// All geometry is expressed in a Frame: the fixed canonical size every input
// is resized to before planning. Because tilt and scale correction are
// imperfect, the label position is not known precisely; a Profile therefore
// lists several vertical offsets for the label and the Planner emits one label
// Candidate per offset, plus a single price Candidate. Callers recognize every
// candidate and pick the most plausible reading.
//
// Candidates that do not fit inside the frame are rejected, never clamped. A
// rejection is not fatal: the Plan records it next to the valid candidates.
package region
