// Package types holds records shared between the history store, the HTTP
// service and the CLI.
package types

import "time"

// Run sources.
const (
	SourceCLI  = "cli"
	SourceHTTP = "http"
)

// Run statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Run records one conversion.
type Run struct {
	ID             string    `json:"id"`
	Source         string    `json:"source"`
	Input          string    `json:"input"`
	Output         string    `json:"output,omitempty"`
	Format         string    `json:"format"`
	Title          string    `json:"title"`
	OpenAPIVersion string    `json:"openapi_version"`
	BaseURL        string    `json:"base_url"`
	CollectionID   string    `json:"collection_id,omitempty"`
	FolderCount    int       `json:"folder_count"`
	RequestCount   int       `json:"request_count"`
	ItemCount      int       `json:"item_count"`
	SkippedCount   int       `json:"skipped_count"`
	Warnings       []string  `json:"warnings,omitempty"`
	Status         string    `json:"status"`
	Error          string    `json:"error,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
