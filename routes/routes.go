package routes

import (
	"net/http"

	"vitrin/auth"
	"vitrin/cart"
	"vitrin/middleware"
	"vitrin/orders"
	"vitrin/products"
	"vitrin/ratelim"
	"vitrin/utils"

	"github.com/julienschmidt/httprouter"
)

func AddAuthRoutes(router *httprouter.Router, h *auth.Handler, mw *middleware.Auth, rl *ratelim.RateLimiter) {
	router.POST("/api/auth/register", rl.Limit(h.Register))
	router.POST("/api/auth/login", rl.Limit(h.Login))
	router.POST("/api/auth/logout", mw.Authenticate(h.Logout))
	router.POST("/api/auth/token/refresh", rl.Limit(mw.Authenticate(h.RefreshToken)))
}

func AddProductRoutes(router *httprouter.Router, h *products.Handler, mw *middleware.Auth) {
	router.GET("/api/products", h.GetProducts)
	router.GET("/api/products/:id", h.GetProduct)
	router.POST("/api/products", mw.Authenticate(mw.RequireAdmin(h.CreateProduct)))
	router.PUT("/api/products/:id", mw.Authenticate(mw.RequireAdmin(h.UpdateProduct)))
	router.DELETE("/api/products/:id", mw.Authenticate(mw.RequireAdmin(h.DeleteProduct)))
}

func AddCartRoutes(router *httprouter.Router, h *cart.Handler, mw *middleware.Auth) {
	router.GET("/api/cart", mw.Authenticate(h.GetCart))
	router.POST("/api/cart", mw.Authenticate(h.AddToCart))
	router.PUT("/api/cart", mw.Authenticate(h.UpdateCartItem))
	router.DELETE("/api/cart/:productId", mw.Authenticate(h.RemoveFromCart))
	router.DELETE("/api/cart", mw.Authenticate(h.ClearCart))
}

func AddOrderRoutes(router *httprouter.Router, h *orders.Handler, mw *middleware.Auth) {
	router.POST("/api/orders", mw.Authenticate(h.CreateOrder))
	router.GET("/api/orders", mw.Authenticate(h.GetOrders))
	router.GET("/api/orders/:id", mw.Authenticate(h.GetOrder))
	// httprouter cannot register the static /admin/all path next to the
	// :id wildcard, so the two-segment GETs share one dispatching route.
	router.GET("/api/orders/:id/:action", mw.Authenticate(orderSubRoute(h, mw)))
	router.PUT("/api/orders/:id/status", mw.Authenticate(mw.RequireAdmin(h.UpdateOrderStatus)))
}

// orderSubRoute serves GET /api/orders/admin/all and GET /api/orders/:id/invoice.
func orderSubRoute(h *orders.Handler, mw *middleware.Auth) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		switch {
		case ps.ByName("id") == "admin" && ps.ByName("action") == "all":
			mw.RequireAdmin(h.GetAllOrders)(w, r, ps)
		case ps.ByName("action") == "invoice":
			h.Invoice(w, r, ps)
		default:
			utils.RespondWithError(w, http.StatusNotFound, "Not found")
		}
	}
}
