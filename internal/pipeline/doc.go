// Package pipeline turns a photographed price tag into recognized label and
// price text.
//
// A run moves through a fixed sequence of stages, each consuming the image the
// previous one produced:
//
//	Start -> TiltDetected -> (Deskewed | Skipped) -> Normalized -> Planned
//	      -> Preprocessed(i) -> Recognized(i) -> Aggregated
//
// Decoding, tilt estimation, deskewing and normalization are fatal stages: a
// failure there ends the run with a *StageError and no Report. From planning
// on, failures are confined to the candidate they concern and are carried in
// the Report next to the successful readings:
//
//   - a candidate outside the canonical frame is listed in Report.Rejected
//   - a candidate whose extraction or recognition fails has a Result with Err set
//
// Recognition is the only concurrent stage. Candidates are recognized by a
// bounded pool of workers and every Result is stored at its candidate's
// position, so the Report does not depend on completion order.
//
// The image transforms and the text engine are reached through the Transformer
// and Recognizer interfaces; internal/imaging and internal/ocr provide the
// production implementations.
package pipeline
