package sessionqueue

// ExportScoresheetJob renders and stores the scoresheet of a finished session.
type ExportScoresheetJob struct {
	SessionID string `json:"session_id"`
}

// Kind returns the job type identifier for River
func (ExportScoresheetJob) Kind() string { return "export_scoresheet" }
