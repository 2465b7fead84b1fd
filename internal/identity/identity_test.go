package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewVerifier_InvalidIssuerFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewVerifier(context.Background(), srv.URL, "relrag")
	if err == nil {
		t.Fatal("expected error for an issuer with no discovery document")
	}
}

func TestResolve_EmptyTokenIsAnonymous(t *testing.T) {
	v := &Verifier{}
	_, ok := v.Resolve(context.Background(), "")
	if ok {
		t.Fatal("expected empty bearer token to resolve as anonymous")
	}
}

func TestResolve_BlankBearerPrefixIsAnonymous(t *testing.T) {
	v := &Verifier{}
	_, ok := v.Resolve(context.Background(), "Bearer ")
	if ok {
		t.Fatal("expected a bare 'Bearer ' prefix to resolve as anonymous")
	}
}
