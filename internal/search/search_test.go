package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeES struct {
	mu       sync.Mutex
	docs     map[string]Doc
	lastBody string
}

func (f *fakeES) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	f.mu.Lock()
	defer f.mu.Unlock()

	body, _ := io.ReadAll(r.Body)
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/":
		_, _ = io.WriteString(w, `{"version":{"number":"9.0.0"},"tagline":"You Know, for Search"}`)
	case strings.HasSuffix(r.URL.Path, "/_search"):
		f.lastBody = string(body)
		hits := make([]map[string]any, 0, len(f.docs))
		for _, d := range f.docs {
			hits = append(hits, map[string]any{"_source": d})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"hits": map[string]any{"total": map[string]any{"value": len(hits)}, "hits": hits},
		})
	case strings.Contains(r.URL.Path, "/_doc/"):
		id := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		if r.Method == http.MethodDelete {
			if _, ok := f.docs[id]; !ok {
				w.WriteHeader(http.StatusNotFound)
				_, _ = io.WriteString(w, `{"result":"not_found"}`)
				return
			}
			delete(f.docs, id)
			_, _ = io.WriteString(w, `{"result":"deleted"}`)
			return
		}
		var d Doc
		_ = json.Unmarshal(body, &d)
		f.docs[id] = d
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"result":"created"}`)
	default:
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"unexpected"}`)
	}
}

func newTestIndex(t *testing.T) (*Index, *fakeES) {
	t.Helper()
	fake := &fakeES{docs: map[string]Doc{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL, "", "")
	require.NoError(t, err)
	return NewIndex(client, "catalog"), fake
}

func TestIndex_UpsertSearchDelete(t *testing.T) {
	idx, fake := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, Doc{Kind: KindProduct, ID: 1, Name: "SEO Audit", Price: 500, IsActive: true}))
	require.NoError(t, idx.Upsert(ctx, Doc{Kind: KindAddon, ID: 1, Name: "Copywriting Pack", Price: 250, IsActive: true}))
	assert.Contains(t, fake.docs, "product-1")
	assert.Contains(t, fake.docs, "addon-1")

	total, docs, err := idx.Search(ctx, "seo", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, docs, 2)
	assert.Contains(t, fake.lastBody, `"multi_match"`)
	assert.Contains(t, fake.lastBody, `"isActive":true`)

	require.NoError(t, idx.Delete(ctx, KindProduct, 1))
	assert.NotContains(t, fake.docs, "product-1")

	// deleting a document that was never indexed is not an error
	require.NoError(t, idx.Delete(ctx, KindProduct, 99))
}

func TestNewClient_ErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":"security_exception"}`)
	}))
	t.Cleanup(srv.Close)

	_, err := NewClient(srv.URL, "elastic", "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
