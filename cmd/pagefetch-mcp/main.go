package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// fetchRequest mirrors the pagefetch API request model.
type fetchRequest struct {
	URL          string `json:"url"`
	OutputFormat string `json:"output_format,omitempty"`
	Timeout      int    `json:"timeout,omitempty"`
	MaxRetries   *int   `json:"max_retries,omitempty"`
}

// fetchResponse mirrors the pagefetch API response model.
type fetchResponse struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"status_code"`
	SoftError  bool   `json:"soft_error"`
	FinalURL   string `json:"final_url"`
	Content    string `json:"content"`
	Source     string `json:"source"`
	Metadata   *struct {
		Title     string `json:"title"`
		SourceURL string `json:"source_url"`
	} `json:"metadata"`
	Tokens *struct {
		OriginalEstimate int     `json:"original_estimate"`
		CleanedEstimate  int     `json:"cleaned_estimate"`
		SavingsPercent   float64 `json:"savings_percent"`
	} `json:"tokens"`
	Error *apiError `json:"error"`
}

// debugResponse mirrors the pagefetch network debug response.
type debugResponse struct {
	PageTitle string `json:"page_title"`
	FinalURL  string `json:"final_url"`
	TotalLogs int    `json:"total_logs"`
	Truncated bool   `json:"truncated"`
	Logs      []struct {
		Type    string `json:"type"`
		Message string `json:"message"`
		URL     string `json:"url"`
		Method  string `json:"method"`
		Status  int    `json:"status"`
	} `json:"logs"`
	Error *apiError `json:"error"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *apiError) String() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// client talks to a running pagefetch server.
type client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func main() {
	apiURL := os.Getenv("PAGEFETCH_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	c := &client{
		baseURL: strings.TrimRight(apiURL, "/"),
		apiKey:  os.Getenv("PAGEFETCH_API_KEY"),
		http:    &http.Client{Timeout: 200 * time.Second},
	}

	s := server.NewMCPServer(
		"pagefetch",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	fetchPageTool := mcp.NewTool("fetch_page",
		mcp.WithDescription("Render a web page in a real browser and return its main content. Handles JavaScript-heavy pages, slow loads and soft error pages."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the web page to fetch"),
		),
		mcp.WithString("output_format",
			mcp.Description("Output format: 'text' (default), 'html' or 'markdown'"),
			mcp.Enum("text", "html", "markdown"),
		),
		mcp.WithNumber("timeout",
			mcp.Description("Timeout of each navigation in seconds (default: 45, max: 180)"),
		),
		mcp.WithNumber("max_retries",
			mcp.Description("Navigation retries after the first attempt (default: 2, max: 5)"),
		),
	)
	s.AddTool(fetchPageTool, c.handleFetchPage)

	networkDebugTool := mcp.NewTool("network_debug",
		mcp.WithDescription("Load a page and list the console messages, requests and responses it produced. Useful to find the API a single-page application reads its data from."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the web page to inspect"),
		),
		mcp.WithNumber("wait_seconds",
			mcp.Description("Extra seconds to keep the page open after load (default: 0)"),
		),
	)
	s.AddTool(networkDebugTool, c.handleNetworkDebug)

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// do sends req with the API key and returns the body.
func (c *client) do(req *http.Request) ([]byte, error) {
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func (c *client) handleFetchPage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	target, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError("url is required"), nil
	}

	payload := fetchRequest{
		URL:          target,
		OutputFormat: request.GetString("output_format", ""),
		Timeout:      request.GetInt("timeout", 0),
	}
	if _, ok := request.GetArguments()["max_retries"]; ok {
		r := request.GetInt("max_retries", 2)
		payload.MaxRetries = &r
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal request: %v", err)), nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/fetch", bytes.NewReader(body))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to create request: %v", err)), nil
	}
	req.Header.Set("Content-Type", "application/json")

	respBody, err := c.do(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var resp fetchResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
	}
	if !resp.Success {
		msg := "fetch failed"
		if resp.Error != nil {
			msg = resp.Error.String()
		}
		return mcp.NewToolResultError(msg), nil
	}

	return mcp.NewToolResultText(formatFetch(&resp)), nil
}

func formatFetch(resp *fetchResponse) string {
	var sb strings.Builder
	if resp.Metadata != nil {
		fmt.Fprintf(&sb, "Title: %s\nSource: %s\n", resp.Metadata.Title, resp.FinalURL)
	}
	if resp.SoftError {
		fmt.Fprintf(&sb, "Note: the page answered HTTP %d but rendered content\n", resp.StatusCode)
	}
	sb.WriteString("\n")
	sb.WriteString(resp.Content)
	if resp.Tokens != nil {
		t := resp.Tokens
		fmt.Fprintf(&sb, "\n\n---\nTokens: %d (saved %.0f%% from original %d)",
			t.CleanedEstimate, t.SavingsPercent, t.OriginalEstimate)
	}
	return sb.String()
}

func (c *client) handleNetworkDebug(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	target, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError("url is required"), nil
	}

	q := url.Values{}
	q.Set("url", target)
	if wait := request.GetInt("wait_seconds", 0); wait > 0 {
		q.Set("wait_seconds", strconv.Itoa(wait))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/debug/network?"+q.Encode(), nil)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to create request: %v", err)), nil
	}
	respBody, err := c.do(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var resp debugResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
	}
	if resp.Error != nil {
		return mcp.NewToolResultError(resp.Error.String()), nil
	}

	return mcp.NewToolResultText(formatDebug(&resp)), nil
}

func formatDebug(resp *debugResponse) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Title: %s\nFinal URL: %s\nEvents: %d", resp.PageTitle, resp.FinalURL, resp.TotalLogs)
	if resp.Truncated {
		sb.WriteString(" (truncated)")
	}
	sb.WriteString("\n\n")
	for _, l := range resp.Logs {
		switch l.Type {
		case "console":
			fmt.Fprintf(&sb, "console  %s\n", l.Message)
		case "request":
			fmt.Fprintf(&sb, "request  %s %s\n", l.Method, l.URL)
		case "response":
			fmt.Fprintf(&sb, "response %d %s\n", l.Status, l.URL)
		}
	}
	return sb.String()
}
