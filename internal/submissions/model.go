package submissions

import "time"

// Submission is one generated cover letter in a user's history. Records are
// never edited after creation.
type Submission struct {
	ID               string    `json:"id"`
	UserID           string    `json:"-"`
	ResumeID         string    `json:"resumeId,omitempty"`
	CompanyName      string    `json:"companyName"`
	JobTitle         string    `json:"jobTitle"`
	JobDescription   string    `json:"jobDescription"`
	FocusAreas       string    `json:"focusAreas"`
	CoverLetter      string    `json:"coverLetter"`
	Model            string    `json:"model"`
	MetadataDegraded bool      `json:"metadataDegraded"`
	CreatedAt        time.Time `json:"createdAt"`
}
