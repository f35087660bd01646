package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vitrin/auth"
	"vitrin/cart"
	"vitrin/middleware"
	"vitrin/orders"
	"vitrin/products"
	"vitrin/ratelim"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) *httprouter.Router {
	t.Helper()

	router := httprouter.New()
	mw := middleware.NewAuth([]byte("test-secret"), nil)
	rl := ratelim.NewRateLimiter()
	t.Cleanup(rl.Stop)
	cartHandler := cart.NewHandler(nil)

	// Registration must not panic: httprouter rejects conflicting trees
	// at registration time.
	require.NotPanics(t, func() {
		AddAuthRoutes(router, auth.NewHandler(nil, nil, []byte("test-secret"), time.Hour), mw, rl)
		AddProductRoutes(router, products.NewHandler(nil), mw)
		AddCartRoutes(router, cartHandler, mw)
		AddOrderRoutes(router, orders.NewHandler(nil, cartHandler), mw)
	})
	return router
}

func TestAuthenticatedRoutesRejectMissingToken(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	tests := []struct {
		method, path string
	}{
		{http.MethodGet, "/api/cart"},
		{http.MethodPost, "/api/cart"},
		{http.MethodPut, "/api/cart"},
		{http.MethodDelete, "/api/cart"},
		{http.MethodDelete, "/api/cart/507f1f77bcf86cd799439011"},
		{http.MethodPost, "/api/orders"},
		{http.MethodGet, "/api/orders"},
		{http.MethodGet, "/api/orders/507f1f77bcf86cd799439011"},
		{http.MethodGet, "/api/orders/admin/all"},
		{http.MethodGet, "/api/orders/507f1f77bcf86cd799439011/invoice"},
		{http.MethodPut, "/api/orders/507f1f77bcf86cd799439011/status"},
		{http.MethodPost, "/api/products"},
		{http.MethodPut, "/api/products/507f1f77bcf86cd799439011"},
		{http.MethodDelete, "/api/products/507f1f77bcf86cd799439011"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/nothing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
