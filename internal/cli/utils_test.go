package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hyperjump/semcache/internal/models"
)

func TestWriteLookup_JSON(t *testing.T) {
	resp := &models.LookupResponse{
		Hit:       true,
		Query:     "what is go",
		Score:     0.93,
		Text:      "What is Go?",
		Response:  json.RawMessage(`{"answer":"a language"}`),
		QueryTime: 4,
	}
	var buf bytes.Buffer
	if err := WriteLookup(&buf, resp, OutputJSON); err != nil {
		t.Fatalf("WriteLookup(json): %v", err)
	}
	var decoded models.LookupResponse
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if !decoded.Hit || decoded.Score != 0.93 || decoded.Text != "What is Go?" {
		t.Errorf("round-trip mismatch: %+v", decoded)
	}
}

func TestWriteLookup_TextHit(t *testing.T) {
	resp := &models.LookupResponse{
		Hit:       true,
		Query:     "q",
		Score:     0.9123,
		Text:      "cached question",
		Response:  json.RawMessage(`"plain answer"`),
		Timestamp: 1700000000000,
	}
	var buf bytes.Buffer
	if err := WriteLookup(&buf, resp, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Cache hit", "91.23%", "cached question", "plain answer", "2023-11-14T22:13:20Z"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, `"plain answer"`) {
		t.Errorf("string responses should be printed unquoted:\n%s", out)
	}
}

func TestWriteLookup_TextObjectIndented(t *testing.T) {
	resp := &models.LookupResponse{Hit: true, Response: json.RawMessage(`{"a":1}`)}
	var buf bytes.Buffer
	if err := WriteLookup(&buf, resp, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "{\n  \"a\": 1\n}") {
		t.Errorf("object response should be indented:\n%s", buf.String())
	}
}

func TestWriteLookup_TextMiss(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteLookup(&buf, &models.LookupResponse{Query: "nothing"}, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `Cache miss for "nothing"`) {
		t.Errorf("unexpected miss output: %q", buf.String())
	}
}

func TestWriteStatus(t *testing.T) {
	disk := int64(4096)
	status := &models.StatusResponse{
		Ready: true, State: "ready", Entries: 3, Threshold: 0.85,
		ModelName: "Xenova/all-MiniLM-L6-v2", Dimensions: 384,
		Namespace: "cache", Backend: "sqlite", DiskUsage: &disk,
		MemoizedEmbeddings: 5,
	}
	var buf bytes.Buffer
	if err := WriteStatus(&buf, status, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"entries:            3", "threshold:          0.85", "backend:            sqlite", "disk_usage_bytes:   4096", "embedding_dims:     384", "memoized_embeddings: 5"} {
		if !strings.Contains(out, want) {
			t.Errorf("status output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := WriteStatus(&buf, status, OutputJSON); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"disk_usage_bytes": 4096`) {
		t.Errorf("json status missing disk usage:\n%s", buf.String())
	}
}

func TestParseOutputFormat(t *testing.T) {
	if f, err := ParseOutputFormat("json"); err != nil || f != OutputJSON {
		t.Errorf("json: got %q, %v", f, err)
	}
	if f, err := ParseOutputFormat("text"); err != nil || f != OutputText {
		t.Errorf("text: got %q, %v", f, err)
	}
	if _, err := ParseOutputFormat("compact"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestJoinArgs(t *testing.T) {
	if got := JoinArgs([]string{"what", "is", "go"}); got != "what is go" {
		t.Errorf("JoinArgs = %q", got)
	}
	if got := JoinArgs([]string{" padded "}); got != "padded" {
		t.Errorf("JoinArgs should trim, got %q", got)
	}
	if got := JoinArgs(nil); got != "" {
		t.Errorf("JoinArgs(nil) = %q", got)
	}
}
