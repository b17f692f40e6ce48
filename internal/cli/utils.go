// Package cli provides CLI utilities for semcache: output formatting and a
// client for the HTTP API.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hyperjump/semcache/internal/models"
	"github.com/hyperjump/semcache/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputText, OutputJSON:
		return OutputFormat(s), nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteLookup writes a lookup result to w in the given format.
func WriteLookup(w io.Writer, resp *models.LookupResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	if !resp.Hit {
		fmt.Fprintf(w, "Cache miss for %q (%dms)\n", resp.Query, resp.QueryTime)
		return nil
	}
	fmt.Fprintf(w, "Cache hit (similarity %.2f%%, %dms)\n", resp.Score*100, resp.QueryTime)
	fmt.Fprintf(w, "Cached query: %s\n", utils.Truncate(resp.Text, 200))
	if resp.Timestamp > 0 {
		fmt.Fprintf(w, "Cached at:    %s\n", time.UnixMilli(resp.Timestamp).UTC().Format(time.RFC3339))
	}
	fmt.Fprintf(w, "\n%s\n", formatResponse(resp.Response))
	return nil
}

// formatResponse renders a JSON string response as plain text and anything
// else as indented JSON.
func formatResponse(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return string(raw)
	}
	return string(out)
}

// WriteStatus writes engine status to w in the given format.
func WriteStatus(w io.Writer, status *models.StatusResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, status)
	}
	fmt.Fprintf(w, "state:              %s\n", status.State)
	fmt.Fprintf(w, "entries:            %d   # cached responses in the index\n", status.Entries)
	if status.MemoizedEmbeddings > 0 {
		fmt.Fprintf(w, "memoized_embeddings: %d   # query embeddings held in memory\n", status.MemoizedEmbeddings)
	}
	if status.DiskUsage != nil {
		fmt.Fprintf(w, "disk_usage_bytes:   %d   # database files on disk\n", *status.DiskUsage)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "# configuration")
	fmt.Fprintf(w, "threshold:          %.2f\n", status.Threshold)
	fmt.Fprintf(w, "namespace:          %s\n", status.Namespace)
	if status.Backend != "" {
		fmt.Fprintf(w, "backend:            %s\n", status.Backend)
	}
	if status.ModelName != "" {
		fmt.Fprintf(w, "model:              %s\n", status.ModelName)
	}
	if status.Dimensions > 0 {
		fmt.Fprintf(w, "embedding_dims:     %d\n", status.Dimensions)
	}
	return nil
}

// JoinArgs joins positional args with spaces so multi-word queries work the
// same with or without shell quoting.
func JoinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
