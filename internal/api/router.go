package api

import (
	"database/sql"
	"net/http"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	itemsHandler := &ItemsHandler{DB: db}
	exchangeHandler := &ExchangeHandler{DB: db}

	authMW := AuthMiddleware(jwtSecret, db)

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Session management.
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))

	// Items.
	mux.Handle("GET /api/items", authMW(http.HandlerFunc(itemsHandler.List)))
	mux.Handle("POST /api/items", authMW(http.HandlerFunc(itemsHandler.Create)))
	mux.Handle("GET /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Get)))
	mux.Handle("PATCH /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Update)))
	mux.Handle("DELETE /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Delete)))
	mux.Handle("POST /api/items/{id}/restore", authMW(http.HandlerFunc(itemsHandler.Restore)))
	mux.Handle("DELETE /api/items/{id}/permanent", authMW(http.HandlerFunc(itemsHandler.PermanentDelete)))
	mux.Handle("GET /api/items/{id}/image", authMW(http.HandlerFunc(itemsHandler.GetImage)))

	// Autocomplete suggestions.
	mux.Handle("GET /api/suggestions/{attribute}", authMW(http.HandlerFunc(itemsHandler.Suggestions)))

	// Export and bulk import.
	mux.Handle("GET /api/export/json", authMW(http.HandlerFunc(exchangeHandler.ExportJSON)))
	mux.Handle("GET /api/export/csv", authMW(http.HandlerFunc(exchangeHandler.ExportCSV)))
	mux.Handle("POST /api/import/json", authMW(http.HandlerFunc(exchangeHandler.ImportJSON)))
	mux.Handle("POST /api/import/csv", authMW(http.HandlerFunc(exchangeHandler.ImportCSV)))

	return mux
}
