package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// echoIdentity writes the userID the middleware put into the context.
func echoIdentity(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := UserIDFromContext(r.Context())
		if !ok {
			t.Error("handler reached without identity in context")
		}
		w.Write([]byte(id))
	})
}

func TestRequireAuth_BearerHeader(t *testing.T) {
	ts := newTestTokenService(t)
	token, _ := ts.Generate("user-1")

	req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	RequireAuth(ts)(echoIdentity(t)).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "user-1" {
		t.Errorf("identity = %q, want %q", rec.Body.String(), "user-1")
	}
}

func TestRequireAuth_Cookie(t *testing.T) {
	ts := newTestTokenService(t)
	token, _ := ts.Generate("user-2")

	req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token})
	rec := httptest.NewRecorder()

	RequireAuth(ts)(echoIdentity(t)).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestRequireAuth_MissingToken(t *testing.T) {
	ts := newTestTokenService(t)

	req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	rec := httptest.NewRecorder()

	reached := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { reached = true })
	RequireAuth(ts)(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if reached {
		t.Error("handler should not run without a token")
	}
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	ts := newTestTokenService(t)

	req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	rec := httptest.NewRecorder()

	RequireAuth(ts)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestStaticIdentity(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	rec := httptest.NewRecorder()

	StaticIdentity("guest")(echoIdentity(t)).ServeHTTP(rec, req)

	if rec.Body.String() != "guest" {
		t.Errorf("identity = %q, want %q", rec.Body.String(), "guest")
	}
}
