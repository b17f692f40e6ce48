package cli

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hyperjump/semcache/internal/models"
)

type recordedRequest struct {
	method string
	path   string
	body   string
}

func newTestClient(t *testing.T, status int, reply string) (*Client, *[]recordedRequest) {
	t.Helper()
	var reqs []recordedRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		reqs = append(reqs, recordedRequest{r.Method, r.URL.Path, string(b)})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(ts.Close)
	return NewClient(ts.URL + "/"), &reqs
}

func TestClient_Lookup(t *testing.T) {
	c, reqs := newTestClient(t, http.StatusOK, `{"hit":true,"query":"q","score":0.9,"text":"t","response":"r","query_time_ms":1}`)
	resp, err := c.Lookup(context.Background(), "q")
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Hit || resp.Score != 0.9 || string(resp.Response) != `"r"` {
		t.Errorf("unexpected response: %+v", resp)
	}
	got := (*reqs)[0]
	if got.method != http.MethodPost || got.path != "/api/v1/cache/lookup" {
		t.Errorf("request = %s %s", got.method, got.path)
	}
	var body models.LookupRequest
	if err := json.Unmarshal([]byte(got.body), &body); err != nil || body.Query != "q" {
		t.Errorf("request body = %q", got.body)
	}
}

func TestClient_Mutations(t *testing.T) {
	ctx := context.Background()

	c, reqs := newTestClient(t, http.StatusCreated, `{"status":"cached"}`)
	if err := c.Store(ctx, "q", json.RawMessage(`{"a":1}`)); err != nil {
		t.Fatal(err)
	}
	if got := (*reqs)[0]; got.method != http.MethodPut || got.path != "/api/v1/cache" || !strings.Contains(got.body, `"response":{"a":1}`) {
		t.Errorf("store request = %+v", got)
	}

	c, reqs = newTestClient(t, http.StatusOK, `{"status":"ok"}`)
	if err := c.Delete(ctx, "q"); err != nil {
		t.Fatal(err)
	}
	if err := c.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if got := (*reqs)[0]; got.method != http.MethodDelete || got.path != "/api/v1/cache/entry" {
		t.Errorf("delete request = %+v", got)
	}
	if got := (*reqs)[1]; got.method != http.MethodDelete || got.path != "/api/v1/cache" || got.body != "" {
		t.Errorf("clear request = %+v", got)
	}
}

func TestClient_EmbedAndStatus(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t, http.StatusOK, `{"embedding":[0.6,0.8],"dimensions":2}`)
	emb, err := c.Embed(ctx, "hello")
	if err != nil {
		t.Fatal(err)
	}
	if emb.Dimensions != 2 || len(emb.Embedding) != 2 {
		t.Errorf("unexpected embed response: %+v", emb)
	}

	c, reqs := newTestClient(t, http.StatusOK, `{"ready":true,"state":"ready","entries":5,"threshold":0.85,"model_name":"m","namespace":"cache"}`)
	status, err := c.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if status.Entries != 5 || (*reqs)[0].method != http.MethodGet {
		t.Errorf("unexpected status: %+v", status)
	}
}

func TestClient_ErrorStatus(t *testing.T) {
	c, _ := newTestClient(t, http.StatusServiceUnavailable, `{"error":"semcache: not initialized"}`)
	_, err := c.Lookup(context.Background(), "q")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "503") || !strings.Contains(err.Error(), "not initialized") {
		t.Errorf("error should carry status and body: %v", err)
	}
}
