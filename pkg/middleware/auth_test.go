package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/autokatalog/autokatalog/backend/go-services/internal/models"
	"github.com/autokatalog/autokatalog/backend/go-services/internal/sessions"
)

// fakeToken implements Token
type fakeToken struct {
	data map[string]interface{}
}

func (t *fakeToken) Claims(v interface{}) error {
	if mm, ok := v.(*map[string]interface{}); ok {
		*mm = t.data
		return nil
	}
	return fmt.Errorf("unsupported claims type")
}

// fakeVerifier implements Verifier
type fakeVerifier struct{}

func (f *fakeVerifier) Verify(ctx context.Context, raw string) (Token, error) {
	switch raw {
	case "editor-token":
		return &fakeToken{data: map[string]interface{}{"sub": "u1", "sid": "s-editor"}}, nil
	case "admin-token":
		return &fakeToken{data: map[string]interface{}{"sub": "u2", "sid": "s-admin"}}, nil
	case "stale-token":
		return &fakeToken{data: map[string]interface{}{"sub": "u3", "sid": "s-gone"}}, nil
	case "nosession-token":
		return &fakeToken{data: map[string]interface{}{"sub": "u4"}}, nil
	}
	return nil, fmt.Errorf("invalid token")
}

func newSessions(t *testing.T) SessionValidator {
	t.Helper()
	repo := sessions.NewMemoryRepository()
	exp := time.Now().UTC().Add(time.Hour)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &sessions.Session{ID: "s-editor", UserID: "u1", Username: "erika", Role: models.RoleEditor, ExpiresAt: exp}))
	require.NoError(t, repo.Create(ctx, &sessions.Session{ID: "s-admin", UserID: "u2", Username: "root", Role: models.RoleAdmin, ExpiresAt: exp}))
	return sessions.NewService(repo, time.Hour)
}

func request(g *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rw := httptest.NewRecorder()
	g.ServeHTTP(rw, req)
	return rw
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	g := gin.New()
	g.GET("/", AuthMiddleware(&fakeVerifier{}, newSessions(t)), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for name, header := range map[string]string{
		"no header":        "",
		"invalid header":   "BadHeader",
		"empty bearer":     "Bearer ",
		"bad token":        "Bearer forged",
		"expired session":  "Bearer stale-token",
		"token without id": "Bearer nosession-token",
	} {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, http.StatusUnauthorized, request(g, header).Code)
		})
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	g := gin.New()
	g.GET("/", AuthMiddleware(&fakeVerifier{}, newSessions(t)), func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		require.True(t, ok)
		claims, ok := c.Get(ClaimsKey)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"principal": p, "claims": claims})
	})

	rw := request(g, "Bearer editor-token")
	require.Equal(t, http.StatusOK, rw.Code)
	var got struct {
		Principal models.Principal       `json:"principal"`
		Claims    map[string]interface{} `json:"claims"`
	}
	require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &got))
	require.Equal(t, models.Principal{ID: "u1", Username: "erika", Role: models.RoleEditor}, got.Principal)
	require.Equal(t, "s-editor", got.Claims["sid"])
}

func TestRequireRole(t *testing.T) {
	g := gin.New()
	auth := AuthMiddleware(&fakeVerifier{}, newSessions(t))
	g.GET("/", auth, RequireRole(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	require.Equal(t, http.StatusForbidden, request(g, "Bearer editor-token").Code)
	require.Equal(t, http.StatusOK, request(g, "Bearer admin-token").Code)

	bare := gin.New()
	bare.GET("/", RequireRole(models.RoleEditor), func(c *gin.Context) { c.Status(http.StatusOK) })
	require.Equal(t, http.StatusUnauthorized, request(bare, "").Code)
}
