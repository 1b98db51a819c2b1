package model

// SummaryRequest asks for a summary by title or by catalogue ID.
type SummaryRequest struct {
	Title string `json:"title,omitempty"`
	PubID *int   `json:"pub_id,omitempty"`
}

// SummaryResponse carries the summary text, or a human readable reason when
// no summary could be produced.
type SummaryResponse struct {
	Summary string `json:"summary"`
}
