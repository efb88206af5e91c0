// Package obslog provides the engine's stage-prefixed logging and an
// optional error reporter, grounded on the teacher's "[stage] message"
// log.Printf convention.
package obslog

import "log"

// Stage identifies which pipeline component emitted a log line.
type Stage string

const (
	StageAnalyzing Stage = "analyzing"
	StageCacheHit  Stage = "cache hit"
	StageSelecting Stage = "selecting"
	StageOrdering  Stage = "ordering"
	StagePlanning  Stage = "planning"
	StageRender    Stage = "render"
)

// Logf writes a stage-prefixed log line, e.g. "[analyzing] track.mp3".
func Logf(stage Stage, format string, args ...interface{}) {
	log.Printf("[%s] "+format, append([]interface{}{stage}, args...)...)
}

// Warnf is Logf's alias for non-fatal degraded-path logging (e.g.
// AnalysisFailed); kept distinct so call sites read as intentional.
func Warnf(stage Stage, format string, args ...interface{}) {
	Logf(stage, "WARNING: "+format, args...)
}
