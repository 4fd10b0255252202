package models

// ChatTurn is one message of an analysis conversation.
type ChatTurn struct {
	Role string `json:"role" validate:"oneof=user model"`
	Text string `json:"text" validate:"required"`
}

// AnalysisRequest asks for a free-form question about a survey's responses.
type AnalysisRequest struct {
	Query   string     `json:"query" validate:"required,max=2000"`
	History []ChatTurn `json:"history" validate:"max=50,dive"`
}

// AnalysisResult is the answer to an analysis request.
type AnalysisResult struct {
	SurveyID string `json:"survey_id"`
	Answer   string `json:"answer"`
	Source   string `json:"source"`
	Rows     int    `json:"rows"`
}

// Analysis answer sources.
const (
	AnalysisSourceModel = "model"
	AnalysisSourceLocal = "local"
	AnalysisSourceEmpty = "empty"
)

// ExportFormat selects the export renderer.
type ExportFormat string

const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
)

// ExportLink is a signed download for an exported response file.
type ExportLink struct {
	Token     string `json:"token"`
	URL       string `json:"url"`
	Filename  string `json:"filename"`
	ExpiresAt int64  `json:"expires_at"`
}
