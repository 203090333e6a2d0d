package models

// ScanRequest represents a request for MRZ recognition of a remote image
type ScanRequest struct {
	URL          string `json:"url" binding:"required,url"`
	ExpectedText string `json:"expected_text,omitempty"`
}

// BatchScanRequest represents a request to scan several images in one call
type BatchScanRequest struct {
	URLs         []string `json:"urls" binding:"required,min=1"`
	ExpectedText string   `json:"expected_text,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
