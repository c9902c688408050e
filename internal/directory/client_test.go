package directory_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prehisle/ydms-sub001/internal/directory"
	"github.com/prehisle/ydms-sub001/internal/domain"
)

func TestGetNode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/nodes/n1", r.URL.Path)
		_ = json.NewEncoder(w).Encode(directory.Node{
			ID:             "n1",
			Name:           "Phones",
			Path:           "/products/phones",
			SourceDocCount: 3,
			OutputDocCount: 1,
		})
	}))
	defer server.Close()

	client := directory.NewClient(directory.WithBaseURL(server.URL))

	node, err := client.GetNode(context.Background(), "n1")
	require.NoError(t, err)
	assert.Equal(t, "Phones", node.Name)
	assert.Equal(t, 3, node.SourceDocCount)
}

func TestGetNodeNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := directory.NewClient(directory.WithBaseURL(server.URL))

	_, err := client.GetNode(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrRootNotFound)
}

func TestListDescendants(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/nodes/root/descendants", r.URL.Path)
		_ = json.NewEncoder(w).Encode(directory.ListNodesResponse{
			Nodes: []directory.Node{
				{ID: "n1", Name: "Phones"},
				{ID: "n2", Name: "Laptops"},
			},
			Count: 2,
		})
	}))
	defer server.Close()

	client := directory.NewClient(directory.WithBaseURL(server.URL))

	nodes, err := client.ListDescendants(context.Background(), "root")
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, "n1", nodes[0].ID)
}

func TestListDocumentsRecursive(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/nodes/root/documents", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("recursive"))
		_ = json.NewEncoder(w).Encode(directory.ListDocumentsResponse{
			Documents: []directory.Document{
				{ID: "d1", NodeID: "root", Title: "Spec", DocType: "sheet", HasSyncConfig: true},
			},
			Count: 1,
		})
	}))
	defer server.Close()

	client := directory.NewClient(directory.WithBaseURL(server.URL))

	documents, err := client.ListDocuments(context.Background(), "root", true)
	require.NoError(t, err)
	require.Len(t, documents, 1)
	assert.True(t, documents[0].HasSyncConfig)
}

func TestServiceTokenAttached(t *testing.T) {
	const secret = "test-secret"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		require.True(t, strings.HasPrefix(authHeader, "Bearer "))

		token, err := jwt.ParseWithClaims(
			strings.TrimPrefix(authHeader, "Bearer "),
			&jwt.RegisteredClaims{},
			func(*jwt.Token) (any, error) { return []byte(secret), nil },
		)
		require.NoError(t, err)
		claims := token.Claims.(*jwt.RegisteredClaims)
		assert.Equal(t, "ydms-admin", claims.Subject)

		_ = json.NewEncoder(w).Encode(directory.Node{ID: "n1"})
	}))
	defer server.Close()

	client := directory.NewClient(
		directory.WithBaseURL(server.URL),
		directory.WithJWTSecret(secret),
	)

	_, err := client.GetNode(context.Background(), "n1")
	require.NoError(t, err)
}

func TestErrorEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(directory.ErrorResponse{Error: "tree index corrupted"})
	}))
	defer server.Close()

	client := directory.NewClient(directory.WithBaseURL(server.URL))

	_, err := client.GetNode(context.Background(), "n1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tree index corrupted")
}
