// file: controllers/helpers_test.go
package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"pickle-web/middleware"
	"pickle-web/models"
	"pickle-web/services"
)

// setupTestRouter creates a Gin engine with sessions, auth resolution and
// small templates that print the fields the tests look at.
func setupTestRouter(t *testing.T, api *services.MockAPIService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	store := cookie.NewStore([]byte("test-secret"))
	router.Use(sessions.Sessions("testsession", store))
	router.Use(middleware.ResolveAuth(api))

	tmpDir := t.TempDir()
	if err := createDummyTemplates(tmpDir); err != nil {
		t.Fatalf("Failed to create dummy templates: %v", err)
	}
	router.LoadHTMLGlob(filepath.Join(tmpDir, "*.html"))
	return router
}

// createDummyTemplates writes a set of minimal HTML templates to the provided directory.
func createDummyTemplates(dir string) error {
	templates := map[string]string{
		"home.html":      `home|{{ .Error }}|{{ .Success }}|{{ .auth.IsAuthenticated }}`,
		"courts.html":    `courts|{{ .Error }}|{{ .Empty }}|{{ range .Courts }}{{ .Name }};{{ end }}`,
		"not_found.html": `not found|{{ .auth.IsAuthenticated }}`,
		"court_detail.html": `detail|{{ .Error }}|{{ with .Page }}{{ .Court.Name }}|{{ .SelectedDate }}|{{ .ShowForm }}|` +
			`{{ .BookingError }}|{{ .Success }}|{{ range .EmailInputs }}[{{ .Value }}]{{ end }}|` +
			`{{ range .FormErrors }}{{ .Field }};{{ end }}|` +
			`{{ range .Grid.Rows }}{{ range .Slots }}{{ if .Booked }}X{{ else }}.{{ end }}{{ end }}/{{ end }}{{ end }}`,
		"bookings.html": `bookings|{{ with .Page }}{{ .Tab }}|{{ .Error }}|{{ .Notice }}|{{ .EmptyMessage }}|` +
			`{{ range .Items }}{{ .ID }}:{{ .CourtName }}:{{ .Status }};{{ end }}{{ end }}`,
	}

	for name, content := range templates {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return err
		}
	}
	return nil
}

// SetSession sets the given key/value pairs in the session using a helper route
// and returns the session cookie that can be attached to subsequent test requests.
func SetSession(router *gin.Engine, route string, data map[string]interface{}) *http.Cookie {
	router.GET(route, func(c *gin.Context) {
		session := sessions.Default(c)
		for key, value := range data {
			session.Set(key, value)
		}
		if err := session.Save(); err != nil {
			c.String(http.StatusInternalServerError, "session save failed")
			return
		}
		c.String(http.StatusOK, "session set")
	})

	req, _ := http.NewRequest("GET", route, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == "testsession" {
			return cookie
		}
	}
	return nil
}

var testUser = models.User{ID: "u1", Email: "alice@example.com", Name: "Alice"}

// loginCookie returns a session cookie for testUser without a backend call.
func loginCookie(t *testing.T, router *gin.Engine) *http.Cookie {
	t.Helper()
	user, err := json.Marshal(testUser)
	if err != nil {
		t.Fatal(err)
	}
	cookie := SetSession(router, "/test/login", map[string]interface{}{
		services.SessionTokenKey: "tok",
		services.SessionUserKey:  string(user),
	})
	if cookie == nil {
		t.Fatal("no session cookie")
	}
	return cookie
}

// latestCookie keeps the session cookie current across requests.
func latestCookie(w *httptest.ResponseRecorder, current *http.Cookie) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == "testsession" {
			return c
		}
	}
	return current
}

func get(router *gin.Engine, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func post(router *gin.Engine, path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}
