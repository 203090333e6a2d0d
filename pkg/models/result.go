package models

// LineResult represents one recognized MRZ text line.
// Corner coordinates follow the engine's winding order: (x1,y1) is the
// top-left corner and the remaining points continue clockwise.
type LineResult struct {
	Confidence int    `json:"confidence"`
	Text       string `json:"text"`
	X1         int    `json:"x1"`
	Y1         int    `json:"y1"`
	X2         int    `json:"x2"`
	Y2         int    `json:"y2"`
	X3         int    `json:"x3"`
	Y3         int    `json:"y3"`
	X4         int    `json:"x4"`
	Y4         int    `json:"y4"`
}

// TextMatch compares recognized text against a caller-supplied expectation
type TextMatch struct {
	ExpectedText  string  `json:"expected_text"`
	Similarity    float64 `json:"similarity"`
	WordErrorRate float64 `json:"word_error_rate"`
}

// ScanResponse represents the response from a synchronous MRZ scan
type ScanResponse struct {
	ImageURL          string       `json:"image_url,omitempty"`
	FilePath          string       `json:"file_path,omitempty"`
	Timestamp         string       `json:"timestamp"`
	ProcessingTimeSec float64      `json:"processing_time_sec"`
	Lines             []LineResult `json:"lines"`
	TextMatch         *TextMatch   `json:"text_match,omitempty"`
	Errors            []string     `json:"errors,omitempty"`
}

// BatchScanResponse aggregates per-URL scan results
type BatchScanResponse struct {
	Results []ScanResponse `json:"results"`
}
