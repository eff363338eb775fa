package models

import (
	"fmt"
	"time"
)

// OutputKind selects the shape of the extracted content.
type OutputKind string

const (
	OutputText     OutputKind = "text"
	OutputMarkup   OutputKind = "html"
	OutputMarkdown OutputKind = "markdown"
)

// ParseOutputKind accepts "text", "html" (alias "markup") and "markdown".
func ParseOutputKind(s string) (OutputKind, error) {
	switch s {
	case "", "text":
		return OutputText, nil
	case "html", "markup":
		return OutputMarkup, nil
	case "markdown", "md":
		return OutputMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported output format %q", s)
	}
}

// FetchRequest is the immutable per-invocation input of the pipeline.
type FetchRequest struct {
	URL        string
	Output     OutputKind
	// Timeout bounds each navigate call, not the whole request.
	Timeout    time.Duration
	MaxRetries int
}

// FetchPayload is the JSON body for POST /api/v1/fetch.
type FetchPayload struct {
	// URL is the target page. Required.
	URL string `json:"url" binding:"required,url"`

	// OutputFormat: "text" (default), "html" or "markdown".
	OutputFormat string `json:"output_format,omitempty" binding:"omitempty,oneof=text html markup markdown"`

	// Timeout bounds each navigation in seconds. Default: 45. Max: 180.
	Timeout int `json:"timeout,omitempty" binding:"omitempty,min=1,max=180"`

	// MaxRetries bounds the navigation retry loop. Default: 2.
	MaxRetries *int `json:"max_retries,omitempty" binding:"omitempty,min=0,max=5"`

	// MaxAge enables the response cache: a cached response younger than
	// MaxAge milliseconds is returned without touching the browser.
	MaxAge int `json:"max_age,omitempty" binding:"omitempty,min=0"`
}

// Defaults applies default values to unset fields.
func (p *FetchPayload) Defaults(defaultTimeout time.Duration, defaultRetries int) {
	if p.Timeout == 0 {
		p.Timeout = int(defaultTimeout.Seconds())
	}
	if p.OutputFormat == "" {
		p.OutputFormat = string(OutputText)
	}
	if p.MaxRetries == nil {
		r := defaultRetries
		p.MaxRetries = &r
	}
}

// ToRequest converts the payload into a pipeline request.
func (p *FetchPayload) ToRequest() (FetchRequest, error) {
	kind, err := ParseOutputKind(p.OutputFormat)
	if err != nil {
		return FetchRequest{}, err
	}
	retries := 0
	if p.MaxRetries != nil {
		retries = *p.MaxRetries
	}
	return FetchRequest{
		URL:        p.URL,
		Output:     kind,
		Timeout:    time.Duration(p.Timeout) * time.Second,
		MaxRetries: retries,
	}, nil
}

// PageQuery is the query string of GET /api/v2/page.
type PageQuery struct {
	URL        string `form:"url" binding:"required,url"`
	Format     string `form:"format" binding:"omitempty,oneof=text html markup markdown md"`
	Timeout    int    `form:"timeout" binding:"omitempty,min=1,max=180"`
	MaxRetries *int   `form:"max_retries" binding:"omitempty,min=0,max=5"`
}

// ToRequest converts the query into a pipeline request.
func (q *PageQuery) ToRequest(defaultTimeout time.Duration, defaultRetries int) (FetchRequest, error) {
	kind, err := ParseOutputKind(q.Format)
	if err != nil {
		return FetchRequest{}, err
	}
	req := FetchRequest{
		URL:        q.URL,
		Output:     kind,
		Timeout:    defaultTimeout,
		MaxRetries: defaultRetries,
	}
	if q.Timeout > 0 {
		req.Timeout = time.Duration(q.Timeout) * time.Second
	}
	if q.MaxRetries != nil {
		req.MaxRetries = *q.MaxRetries
	}
	return req, nil
}

// DebugQuery is the query string of GET /api/v1/debug/network.
type DebugQuery struct {
	URL         string `form:"url" binding:"required,url"`
	WaitSeconds int    `form:"wait_seconds" binding:"omitempty,min=0,max=60"`
	IncludeBody bool   `form:"include_body"`
}
