package identity

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/UkralStul/content-approval-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIssuer(t *testing.T, ttl time.Duration) *Issuer {
	iss, err := NewIssuer("test-secret", ttl)
	require.NoError(t, err)
	return iss
}

func TestIssuer_RoundTrip(t *testing.T) {
	iss := newTestIssuer(t, time.Hour)

	tok, err := iss.Issue("writer-1", domain.RoleWriter)
	require.NoError(t, err)

	id, err := iss.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: "writer-1", Role: domain.RoleWriter}, id)
}

func TestIssuer_IssueAnonymous(t *testing.T) {
	iss := newTestIssuer(t, 0)

	tok, id, err := iss.IssueAnonymous()
	require.NoError(t, err)
	assert.Equal(t, domain.RoleClient, id.Role)
	assert.NotEmpty(t, id.UserID)

	parsed, err := iss.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

// Роль берётся только из claim'а: id, похожий на "writer", прав не даёт.
func TestIssuer_RoleIsNotInferredFromID(t *testing.T) {
	iss := newTestIssuer(t, 0)

	tok, err := iss.Issue("custom-token-uid-writer", domain.RoleClient)
	require.NoError(t, err)

	id, err := iss.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleClient, id.Role)
}

func TestIssuer_RejectsBadTokens(t *testing.T) {
	iss := newTestIssuer(t, time.Minute)
	other, err := NewIssuer("other-secret", time.Minute)
	require.NoError(t, err)

	foreign, err := other.Issue("u1", domain.RoleWriter)
	require.NoError(t, err)
	_, err = iss.Parse(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = iss.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	tok, err := iss.Issue("u1", domain.RoleClient)
	require.NoError(t, err)
	iss.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = iss.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuer_IssueValidation(t *testing.T) {
	iss := newTestIssuer(t, 0)

	_, err := iss.Issue("", domain.RoleClient)
	assert.Error(t, err)
	_, err = iss.Issue("u1", domain.Role("admin"))
	assert.Error(t, err)

	_, err = NewIssuer("", 0)
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	iss := newTestIssuer(t, 0)
	tok, err := iss.Issue("client-42", domain.RoleClient)
	require.NoError(t, err)

	var seen Identity
	var seenOK bool
	h := Middleware(iss, func(w http.ResponseWriter, r *http.Request, err error) {
		w.WriteHeader(http.StatusUnauthorized)
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, seenOK = FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, seenOK)
	assert.Equal(t, "client-42", seen.UserID)

	seenOK = false
	req = httptest.NewRequest(http.MethodGet, "/?access_token="+tok, nil)
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.True(t, seenOK)

	seenOK = false
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, seenOK)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
