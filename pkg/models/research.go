// Package models defines the data types shared across the research pipeline.
package models

import "time"

// ReportStatus represents the terminal state of a research worker.
type ReportStatus string

const (
	// ReportStatusSuccess indicates the worker produced a complete report.
	ReportStatusSuccess ReportStatus = "success"
	// ReportStatusFailed indicates the worker terminated without a complete
	// report. Partial findings may still be present.
	ReportStatusFailed ReportStatus = "failed"
)

// Valid returns true if the status is a known value.
func (s ReportStatus) Valid() bool {
	return s == ReportStatusSuccess || s == ReportStatusFailed
}

// Subtask is one independently researchable unit derived from the research
// plan. Exactly one worker consumes each subtask.
type Subtask struct {
	// ID is the identifier for this subtask, unique within a run.
	ID string `json:"id"`
	// Title is a short human-readable label.
	Title string `json:"title"`
	// Instructions describe the scope of this subtask in free text.
	Instructions string `json:"instructions"`
}

// Source is a reference gathered during research.
type Source struct {
	// URL is the location of the source material.
	URL string `json:"url"`
	// Title is an optional human-readable name for the source.
	Title string `json:"title,omitempty"`
}

// WorkerReport is the result of researching a single subtask. A failed report
// still carries whatever findings were gathered before the failure.
type WorkerReport struct {
	// SubtaskID identifies the subtask this report answers.
	SubtaskID string `json:"subtask_id"`
	// Title is the subtask title, carried through for synthesis.
	Title string `json:"title"`
	// Status is success or failed.
	Status ReportStatus `json:"status"`
	// Summary is a short statement of the findings.
	Summary string `json:"summary,omitempty"`
	// Analysis is the detailed discussion of the findings.
	Analysis string `json:"analysis,omitempty"`
	// KeyPoints lists the most important findings in order.
	KeyPoints []string `json:"key_points,omitempty"`
	// Sources lists the references consulted, in the order encountered.
	Sources []Source `json:"sources,omitempty"`
	// Error describes why the worker failed, if it did.
	Error string `json:"error,omitempty"`
	// Steps is the number of model invocations the worker made.
	Steps int `json:"steps,omitempty"`
}

// Failed returns true if the worker did not complete its subtask.
func (r WorkerReport) Failed() bool {
	return r.Status != ReportStatusSuccess
}

// FinalReport is the terminal artifact of a pipeline run. It is produced once
// by the synthesizer and persisted by the surrounding CLI, not by the core.
type FinalReport struct {
	// Query is the original research question.
	Query string `json:"query"`
	// Narrative is the integrated findings document.
	Narrative string `json:"narrative"`
	// OpenQuestions is the delimited open-questions section.
	OpenQuestions string `json:"open_questions"`
	// Bibliography is the deduplicated list of sources in first-seen order.
	Bibliography []Source `json:"bibliography"`
	// Covered is the number of subtasks whose findings reached synthesis.
	Covered int `json:"covered"`
	// Uncovered lists subtask titles whose workers failed, so readers know
	// which areas the narrative could not draw on.
	Uncovered []string `json:"uncovered,omitempty"`
	// GeneratedAt is when synthesis completed.
	GeneratedAt time.Time `json:"generated_at"`
}
