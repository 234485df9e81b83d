package models

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// HealthResponse is returned by the health endpoint
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// CropPreviewResponse is returned by POST /api/crop-preview
type CropPreviewResponse struct {
	Status   string `json:"status"`
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// SplitHalvesResponse is returned by POST /api/split-halves
type SplitHalvesResponse struct {
	Status     string         `json:"status"`
	TopHalf    PublishedAsset `json:"top_half"`
	BottomHalf PublishedAsset `json:"bottom_half"`
}

// SplitHalvesForm binds the form fields of POST /api/split-halves
type SplitHalvesForm struct {
	ImageURL string `form:"image_url"`
}
