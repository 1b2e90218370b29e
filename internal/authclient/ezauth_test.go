/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package authclient

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateParsesProfileOnSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "session=token-A", r.Header.Get("Cookie"))
		require.Equal(t, "/profile", r.URL.Path)

		_, _ = w.Write([]byte(`{"_id":"A","username":"alice"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)

	p, err := c.Validate(t.Context(), "token-A")
	require.NoError(t, err)
	require.Equal(t, "A", p.ID)
	require.Equal(t, "alice", p.Username)
}

func TestValidateErrorsOnNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New(srv.URL)

	_, err := c.Validate(t.Context(), "bad-token")
	require.Error(t, err)
}
