package models

// FetchResponse is the response for POST /api/v1/fetch.
type FetchResponse struct {
	// Success indicates whether content was extracted.
	Success bool `json:"success"`

	// StatusCode is the HTTP status the target page committed with
	// (0 when unknown, e.g. a rescued partial load).
	StatusCode int `json:"status_code"`

	// SoftError is set when the page answered with an error status but
	// still rendered usable content.
	SoftError bool `json:"soft_error,omitempty"`

	// FinalURL is the URL after redirects.
	FinalURL string `json:"final_url"`

	// Content is the extracted output in the requested format.
	Content string `json:"content"`

	// Source names the extraction stage that produced Content.
	Source string `json:"source,omitempty"`

	// Strategy is the navigation wait strategy that committed.
	Strategy string `json:"strategy,omitempty"`

	// Attempts is the number of navigation attempts used.
	Attempts int `json:"attempts,omitempty"`

	Metadata Metadata   `json:"metadata"`
	Tokens   TokenInfo  `json:"tokens"`
	Timing   TimingInfo `json:"timing"`

	// CacheStatus is "hit", "miss", or empty when caching was not requested.
	CacheStatus string `json:"cache_status,omitempty"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// Metadata holds page-level information gathered while fetching.
type Metadata struct {
	Title     string `json:"title"`
	Language  string `json:"language,omitempty"`
	SourceURL string `json:"source_url"`
}

// TokenInfo provides before/after token estimates to show cleaning efficacy.
type TokenInfo struct {
	OriginalEstimate int     `json:"original_estimate"`
	CleanedEstimate  int     `json:"cleaned_estimate"`
	SavingsPercent   float64 `json:"savings_percent"`
}

// TimingInfo breaks down the time spent in each phase.
type TimingInfo struct {
	TotalMs      int64 `json:"total_ms"`
	NavigationMs int64 `json:"navigation_ms"`
	ExtractionMs int64 `json:"extraction_ms"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status    string    `json:"status"` // "healthy" or "degraded"
	Uptime    string    `json:"uptime"`
	Sessions  LoadStats `json:"sessions"`
	Extractor LoadStats `json:"extractor"`
	Version   string    `json:"version"`
}

// LoadStats reports in-flight work against a capacity.
type LoadStats struct {
	Capacity int `json:"capacity"`
	Active   int `json:"active"`
}
