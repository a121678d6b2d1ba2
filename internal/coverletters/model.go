package coverletters

import (
	"strings"
	"time"
)

// SubmissionRequest is the input to one generation.
type SubmissionRequest struct {
	ResumeText     string
	FocusAreas     string
	JobDescription string
}

// Profile is the candidate data the prompt needs.
type Profile struct {
	FirstName           string
	LastName            string
	PreferredModel      string
	CoverLetterTemplate string
}

func (p Profile) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
}

// Metadata is recovered from the job description. Fields may be empty.
type Metadata struct {
	CompanyName string `json:"companyName"`
	JobTitle    string `json:"jobTitle"`
}

// Upload is a résumé file sent with the request.
type Upload struct {
	FileName string
	MimeType string
	Data     []byte
}

// GenerateInput is what a caller supplies. Upload takes precedence over ResumeID.
type GenerateInput struct {
	ResumeID       string
	Upload         *Upload
	FocusAreas     string
	JobDescription string
}

// Result is a generated and saved cover letter.
type Result struct {
	SubmissionID     string    `json:"submissionId"`
	ResumeID         string    `json:"resumeId"`
	CoverLetter      string    `json:"coverLetter"`
	CompanyName      string    `json:"companyName"`
	JobTitle         string    `json:"jobTitle"`
	Model            string    `json:"model"`
	MetadataDegraded bool      `json:"metadataDegraded"`
	CreatedAt        time.Time `json:"createdAt"`
}
