package models

import (
	"encoding/json"
	"testing"
)

func TestLookupRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     *LookupRequest
		wantErr bool
	}{
		{"empty query", &LookupRequest{Query: ""}, true},
		{"whitespace query", &LookupRequest{Query: "  \t"}, true},
		{"valid query", &LookupRequest{Query: "hello"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestStoreRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     *StoreRequest
		wantErr bool
	}{
		{"empty query", &StoreRequest{Query: "", Response: json.RawMessage(`1`)}, true},
		{"missing response", &StoreRequest{Query: "q"}, true},
		{"invalid json", &StoreRequest{Query: "q", Response: json.RawMessage(`{`)}, true},
		{"object response", &StoreRequest{Query: "q", Response: json.RawMessage(`{"answer":"x"}`)}, false},
		{"null response", &StoreRequest{Query: "q", Response: json.RawMessage(`null`)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
