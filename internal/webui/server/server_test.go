package server

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	tu "sysdeck/internal/testutil"
	appver "sysdeck/internal/version"
)

func get(t *testing.T, r *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestAPIEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	defer tu.WithEnv(t, "XDG_CONFIG_HOME", t.TempDir())()

	r := gin.New()
	mountAPI(r)

	if w := get(t, r, "/api/health"); w.Code != 200 || !strings.Contains(w.Body.String(), "ok") {
		t.Fatalf("health = %d %q", w.Code, w.Body.String())
	}
	if w := get(t, r, "/api/version"); !strings.Contains(w.Body.String(), appver.AppVersion) {
		t.Fatalf("version body = %q", w.Body.String())
	}
	// No tools.toml in the temp config dir, so the built-in catalog serves.
	if w := get(t, r, "/api/tools"); w.Code != 200 || !strings.Contains(w.Body.String(), "cfdisk") {
		t.Fatalf("tools = %d %q", w.Code, w.Body.String())
	}
	if w := get(t, r, "/api/tools/schema"); !strings.Contains(w.Body.String(), "destructive") {
		t.Fatalf("schema body = %q", w.Body.String())
	}
}
