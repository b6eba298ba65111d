// controllers/auth_controller_test.go
package controllers

import (
	"errors"
	"html"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pickle-web/apiclient"
	"pickle-web/services"
)

func setupAuthRoutes(t *testing.T, api *services.MockAPIService) (*gin.Engine, *services.ViewStore) {
	router := setupTestRouter(t, api)
	views := services.NewViewStore(time.Minute)
	ac := NewAuthController(views)
	router.GET("/", NewPageController().Home)
	router.GET("/login", ac.Login)
	router.GET("/auth/callback", ac.Callback)
	router.POST("/logout", ac.Logout)
	return router, views
}

func TestLogin_RedirectsToProvider(t *testing.T) {
	api := new(services.MockAPIService)
	api.On("LoginURL").Return("http://api.test/auth/google/login")
	router, _ := setupAuthRoutes(t, api)

	w := get(router, "/login", nil)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "http://api.test/auth/google/login", w.Header().Get("Location"))
}

func TestCallback_StoresTokenAndSignsIn(t *testing.T) {
	api := new(services.MockAPIService)
	api.On("CurrentUser", mock.Anything).Return(testUser, nil).Once()
	router, _ := setupAuthRoutes(t, api)

	w := get(router, "/auth/callback?token=fresh", nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	home := get(router, "/", latestCookie(w, nil))
	assert.Equal(t, "home|||true", home.Body.String())
	api.AssertNumberOfCalls(t, "CurrentUser", 1)
}

func TestCallback_NoToken(t *testing.T) {
	api := new(services.MockAPIService)
	router, _ := setupAuthRoutes(t, api)

	w := get(router, "/auth/callback", nil)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	api.AssertNotCalled(t, "CurrentUser", mock.Anything)
}

func TestCallback_BadTokenFlashesError(t *testing.T) {
	api := new(services.MockAPIService)
	api.On("CurrentUser", mock.Anything).
		Return(testUser, &apiclient.APIError{StatusCode: http.StatusUnauthorized}).Once()
	router, _ := setupAuthRoutes(t, api)

	w := get(router, "/auth/callback?token=bad", nil)
	home := get(router, "/", latestCookie(w, nil))

	assert.Equal(t, "home|"+html.EscapeString(MsgLoginFailed)+"||false", home.Body.String())
}

func TestLogout_ClearsSessionEvenWhenBackendFails(t *testing.T) {
	api := new(services.MockAPIService)
	api.On("Logout", mock.Anything).Return(errors.New("backend down"))
	router, views := setupAuthRoutes(t, api)
	cookie := SetSession(router, "/test/seed", map[string]interface{}{
		services.SessionTokenKey: "tok",
		services.SessionUserKey:  `{"id":"u1","name":"Alice"}`,
		bookingsViewKey:          "v1",
	})
	views.Put("v1", services.NewBookingsView(time.UTC))

	w := post(router, "/logout", nil, cookie)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	home := get(router, "/", latestCookie(w, cookie))
	assert.Equal(t, "home|||false", home.Body.String())
	api.AssertCalled(t, "Logout", mock.Anything)
	assert.Equal(t, 0, views.Len())
}
