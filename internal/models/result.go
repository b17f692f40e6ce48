package models

import "encoding/json"

// LookupResponse is the outcome of a lookup. On a miss only Hit (false) and
// Query are set.
type LookupResponse struct {
	Hit   bool   `json:"hit"`
	Query string `json:"query"`
	// Score is the cosine similarity between the query and the matched entry.
	Score float64 `json:"score,omitempty"`
	// Text is the query that originally produced the cached response.
	Text      string          `json:"text,omitempty"`
	Response  json.RawMessage `json:"response,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
	QueryTime int64           `json:"query_time_ms"`
}

// EmbedResponse carries an embedding and its dimensionality.
type EmbedResponse struct {
	Embedding  []float32 `json:"embedding"`
	Dimensions int       `json:"dimensions"`
}

// StatusResponse describes the engine and its configuration.
type StatusResponse struct {
	Ready      bool    `json:"ready"`
	State      string  `json:"state"`
	Entries    int     `json:"entries"`
	Threshold  float64 `json:"threshold"`
	ModelName  string  `json:"model_name"`
	Dimensions int     `json:"dimensions,omitempty"`
	Namespace  string  `json:"namespace"`
	Backend    string  `json:"backend,omitempty"`
	DiskUsage  *int64  `json:"disk_usage_bytes,omitempty"`
	// MemoizedEmbeddings counts query embeddings held in memory.
	MemoizedEmbeddings int `json:"memoized_embeddings,omitempty"`
}
