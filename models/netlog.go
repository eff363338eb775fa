package models

import "time"

// NetworkLog type values.
const (
	LogConsole  = "console"
	LogRequest  = "request"
	LogResponse = "response"
)

// NetworkLog is a single captured console or network event.
type NetworkLog struct {
	Type         string            `json:"type"`
	Timestamp    time.Time         `json:"timestamp"`
	Message      string            `json:"message,omitempty"`
	URL          string            `json:"url,omitempty"`
	Method       string            `json:"method,omitempty"`
	ResourceType string            `json:"resourceType,omitempty"`
	Status       int               `json:"status,omitempty"`
	Headers      map[string]string `json:"headers,omitempty"`
	Body         string            `json:"body,omitempty"`
}

// DebugResponse is the response for GET /api/v1/debug/network.
type DebugResponse struct {
	PageTitle string       `json:"page_title"`
	FinalURL  string       `json:"final_url"`
	TotalLogs int          `json:"total_logs"`
	Truncated bool         `json:"truncated,omitempty"`
	Logs      []NetworkLog `json:"logs"`
}
