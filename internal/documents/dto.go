package documents

import "time"

// DocumentResponse is the outward-facing representation of a document.
type DocumentResponse struct {
	DocumentID string `json:"documentId"`
	Title      string `json:"title"`
	FileName   string `json:"fileName"`
	MimeType   string `json:"mimeType"`
	SizeBytes  int64  `json:"sizeBytes"`
	Status     string `json:"status"`
	Class      string `json:"class"`
	TypeID     string `json:"typeId,omitempty"`

	Category            string   `json:"category"`
	Confidence          float64  `json:"confidence"`
	Tags                []string `json:"tags"`
	Summary             string   `json:"summary,omitempty"`
	Language            string   `json:"language"`
	Priority            string   `json:"priority"`
	ClassificationLevel string   `json:"classificationLevel"`
	ExtractionDegraded  bool     `json:"extractionDegraded"`

	EffectiveDate  string  `json:"effectiveDate"`
	ExpirationDate *string `json:"expirationDate,omitempty"`

	UploadedAt time.Time `json:"uploadedAt"`
}

// ToResponse maps a document to its outward representation.
func ToResponse(doc Document) DocumentResponse {
	resp := DocumentResponse{
		DocumentID:          doc.ID,
		Title:               doc.Title,
		FileName:            doc.FileName,
		MimeType:            doc.MimeType,
		SizeBytes:           doc.SizeBytes,
		Status:              string(doc.Status),
		Class:               string(doc.Class),
		TypeID:              doc.TypeID,
		Category:            doc.Category,
		Confidence:          doc.Confidence,
		Tags:                doc.Tags,
		Summary:             doc.Summary,
		Language:            doc.Language,
		Priority:            doc.Priority,
		ClassificationLevel: doc.ClassificationLevel,
		ExtractionDegraded:  doc.ExtractionDegraded,
		EffectiveDate:       doc.EffectiveDate.Format("2006-01-02"),
		UploadedAt:          doc.CreatedAt,
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	if doc.ExpirationDate != nil {
		formatted := doc.ExpirationDate.Format("2006-01-02")
		resp.ExpirationDate = &formatted
	}
	return resp
}
