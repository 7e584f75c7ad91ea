package documents

import "time"

type uploadResult struct {
	Success    bool   `json:"success"`
	DocumentID string `json:"documentId,omitempty"`
	JobID      string `json:"jobId,omitempty"`
	FileName   string `json:"fileName"`
	Error      string `json:"error,omitempty"`
}

type documentResponse struct {
	ID            string  `json:"id"`
	OriginalName  string  `json:"originalName"`
	FileName      string  `json:"fileName,omitempty"`
	Category      string  `json:"category,omitempty"`
	Status        string  `json:"status"`
	SizeBytes     int64   `json:"sizeBytes"`
	MimeType      string  `json:"mimeType"`
	SHA256        string  `json:"sha256,omitempty"`
	CompanyID     string  `json:"companyId"`
	DetectedCNPJ  string  `json:"detectedCnpj,omitempty"`
	OCRConfidence float64 `json:"ocrConfidence"`
	Encrypted     bool    `json:"encrypted"`
	UploadedBy    string  `json:"uploadedBy"`
	CreatedAt     string  `json:"createdAt"`
	UpdatedAt     string  `json:"updatedAt"`
}

func toResponse(doc Document) documentResponse {
	return documentResponse{
		ID:            doc.ID,
		OriginalName:  doc.OriginalName,
		FileName:      doc.FileName,
		Category:      string(doc.Category),
		Status:        string(doc.Status),
		SizeBytes:     doc.SizeBytes,
		MimeType:      doc.MimeType,
		SHA256:        doc.SHA256,
		CompanyID:     doc.CompanyID,
		DetectedCNPJ:  doc.DetectedCNPJ,
		OCRConfidence: doc.OCRConfidence,
		Encrypted:     doc.Encrypted,
		UploadedBy:    doc.UploadedBy,
		CreatedAt:     doc.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     doc.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

type listResponse struct {
	Items  []documentResponse `json:"items"`
	Total  int                `json:"total"`
	Limit  int                `json:"limit"`
	Offset int                `json:"offset"`
}

type protocolResponse struct {
	ID         string `json:"id"`
	DocumentID string `json:"documentId"`
	UserID     string `json:"userId"`
	Action     string `json:"action"`
	IPAddress  string `json:"ipAddress"`
	UserAgent  string `json:"userAgent"`
	FileHash   string `json:"fileHash"`
	CreatedAt  string `json:"createdAt"`
}

func toProtocolResponse(p DownloadProtocol) protocolResponse {
	return protocolResponse{
		ID:         p.ID,
		DocumentID: p.DocumentID,
		UserID:     p.UserID,
		Action:     p.Action,
		IPAddress:  p.IPAddress,
		UserAgent:  p.UserAgent,
		FileHash:   p.FileHash,
		CreatedAt:  p.CreatedAt.UTC().Format(time.RFC3339),
	}
}
