package model

import "time"

// BucketSummary counts the applications and credentials in one risk bucket.
type BucketSummary struct {
	Applications int `json:"applications"`
	Credentials  int `json:"credentials"`
}

// RunResult summarizes one pipeline run. Delivered is false when the mail
// sink rejected the report; the run itself still counts as complete.
type RunResult struct {
	StartedAt    time.Time
	Duration     time.Duration
	Applications int
	Expired      BucketSummary
	Critical     BucketSummary
	Warning      BucketSummary
	Recipients   int
	Delivered    bool
}

// Summarize fills the per-bucket counts from a classified report.
func (r *RunResult) Summarize(report RiskReport) {
	r.Expired = BucketSummary{Applications: len(report.Expired), Credentials: report.CredentialCount(BucketExpired)}
	r.Critical = BucketSummary{Applications: len(report.Critical), Credentials: report.CredentialCount(BucketCritical)}
	r.Warning = BucketSummary{Applications: len(report.Warning), Credentials: report.CredentialCount(BucketWarning)}
}
