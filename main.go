package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vitrin/auth"
	"vitrin/cart"
	"vitrin/config"
	"vitrin/db"
	"vitrin/middleware"
	"vitrin/orders"
	"vitrin/products"
	"vitrin/ratelim"
	"vitrin/rdx"
	"vitrin/routes"

	"github.com/joho/godotenv"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
)

// securityHeaders applies a set of recommended HTTP security headers.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "frame-ancestors 'none'")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs each request method, path, remote address, and duration.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s from %s – %v", r.Method, r.RequestURI, r.RemoteAddr, time.Since(start))
	})
}

// Index is a simple health check handler.
func Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	fmt.Fprint(w, `{"message":"E-commerce API is running!"}`)
}

func setupRouter(store *db.Store, cache *rdx.Cache, cfg config.Config, rateLimiter *ratelim.RateLimiter) *httprouter.Router {
	router := httprouter.New()
	router.GET("/health", Index)

	mw := middleware.NewAuth(cfg.JWTSecret, store)

	authHandler := auth.NewHandler(store, cache, cfg.JWTSecret, cfg.TokenTTL)
	productHandler := products.NewHandler(store)
	cartHandler := cart.NewHandler(store)
	orderHandler := orders.NewHandler(store, cartHandler)

	routes.AddAuthRoutes(router, authHandler, mw, rateLimiter)
	routes.AddProductRoutes(router, productHandler, mw)
	routes.AddCartRoutes(router, cartHandler, mw)
	routes.AddOrderRoutes(router, orderHandler, mw)

	return router
}

func main() {
	// load .env if present
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}
	cfg := config.Load()

	// connect to the document store; failure here is fatal
	store, err := db.Connect(context.Background(), cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}

	cache := rdx.New(cfg.RedisAddr)

	rateLimiter := ratelim.NewRateLimiter()
	router := setupRouter(store, cache, cfg, rateLimiter)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(router)

	handler := loggingMiddleware(securityHeaders(corsHandler))

	server := &http.Server{
		Addr:              cfg.Port,
		Handler:           handler,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	go func() {
		log.Printf("Server running on %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutdown signal received; shutting down gracefully...")
	err = gracefulShutdown(server,
		func() error {
			rateLimiter.Stop()
			return nil
		},
		func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return store.Close(ctx)
		},
		cache.Close,
	)
	if err != nil {
		log.Fatalf("Graceful shutdown failed: %v", err)
	}
	log.Println("Server stopped cleanly")
}

// gracefulShutdown drains in-flight requests and only then closes the
// backends; closing them any earlier would fail requests still being
// served during the drain window.
func gracefulShutdown(server *http.Server, closers ...func() error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return err
	}
	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Printf("Cleanup failed: %v", err)
		}
	}
	return nil
}
