package resumes

import "time"

// Resume is an uploaded résumé together with its extracted text.
type Resume struct {
	ID         string    `json:"id"`
	UserID     string    `json:"-"`
	FileName   string    `json:"fileName"`
	MimeType   string    `json:"mimeType"`
	SizeBytes  int64     `json:"sizeBytes"`
	StorageKey string    `json:"-"`
	Content    string    `json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
}
