package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guility/relrag/internal/relrag"
)

func TestEmbed_EmptyInputSkipsNetworkCall(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := NewClient(Config{APIURL: srv.URL, Model: "text-embedding-3-small"}, nil)
	out, err := c.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.False(t, called, "embedding endpoint must not be contacted for empty input")
}

func TestEmbed_PreservesOrderAndCardinality(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		resp := embedResponse{}
		for i := range req.Input {
			resp.Data = append(resp.Data, struct {
				Embedding []float32 `json:"embedding"`
			}{Embedding: []float32{float32(i), float32(i) + 0.5}})
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	c := NewClient(Config{APIURL: srv.URL, Model: "text-embedding-3-small"}, srv.Client())
	out, err := c.Embed(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, []float32{0, 0.5}, out[0])
	assert.Equal(t, []float32{2, 2.5}, out[2])
}

func TestEmbed_CardinalityMismatchIsUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"embedding":[1,2,3]}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIURL: srv.URL, Model: "m"}, srv.Client())
	_, err := c.Embed(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	var upstream *relrag.UpstreamFailureError
	assert.ErrorAs(t, err, &upstream)
}

func TestEmbed_NonSuccessStatusIsUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer srv.Close()

	c := NewClient(Config{APIURL: srv.URL, Model: "m"}, srv.Client())
	_, err := c.Embed(context.Background(), []string{"a"})
	require.Error(t, err)
	var upstream *relrag.UpstreamFailureError
	assert.ErrorAs(t, err, &upstream)
}

func TestProbeDimensions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"embedding":[0.1,0.2,0.3,0.4]}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIURL: srv.URL, Model: "m"}, srv.Client())
	dims, err := c.ProbeDimensions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, dims)
}
