package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// LookupRequest asks for the cached response closest in meaning to Query.
type LookupRequest struct {
	Query string `json:"query"`
}

// Validate returns an error if the query is empty.
func (r *LookupRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return fmt.Errorf("query cannot be empty")
	}
	return nil
}

// StoreRequest caches Response under the meaning of Query.
type StoreRequest struct {
	Query    string          `json:"query"`
	Response json.RawMessage `json:"response"`
}

// Validate returns an error if the query is empty or the response is missing.
func (r *StoreRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if len(r.Response) == 0 {
		return fmt.Errorf("response cannot be empty")
	}
	if !json.Valid(r.Response) {
		return fmt.Errorf("response must be valid JSON")
	}
	return nil
}

// EmbedRequest asks for the embedding of Text.
type EmbedRequest struct {
	Text string `json:"text"`
}
