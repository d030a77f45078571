package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/gmlakar/zbirka/internal/db"
	"github.com/gmlakar/zbirka/internal/model"
	"github.com/gmlakar/zbirka/internal/store"
)

const (
	testJWTSecret = "test-secret"
	testPassword  = "catalog-password"
)

func setupTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	database := db.NewTestDB(t)
	router := NewRouter(database, testJWTSecret)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	// Set the app password.
	ctx := context.Background()
	hash, _ := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.DefaultCost)
	store.SetPasswordHash(ctx, database, string(hash))

	// Get token.
	body, _ := json.Marshal(map[string]string{"password": testPassword})
	resp, err := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d", resp.StatusCode)
	}

	var loginResp map[string]string
	json.NewDecoder(resp.Body).Decode(&loginResp)
	token := loginResp["token"]
	if token == "" {
		t.Fatal("empty token from login")
	}

	return server, token
}

func authRequest(method, url, token string, body any) (*http.Request, error) {
	var bodyReader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(data)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func rawRequest(method, url, token, contentType string, body []byte) (*http.Request, error) {
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", contentType)
	return req, nil
}

func TestLoginEndpoint(t *testing.T) {
	server, _ := setupTestServer(t)

	// Test invalid credentials.
	body, _ := json.Marshal(map[string]string{"password": "wrong"})
	resp, _ := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestUnauthenticatedAccess(t *testing.T) {
	database := db.NewTestDB(t)
	router := NewRouter(database, testJWTSecret)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	resp, _ := http.Get(server.URL + "/api/items")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for unauthenticated request, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestItemsAPIFlow(t *testing.T) {
	server, token := setupTestServer(t)

	// Create item.
	req, _ := authRequest("POST", server.URL+"/api/items", token, map[string]any{
		"title":  "Chrono Trigger",
		"type":   "video_game",
		"system": "SNES",
		"rating": 4.5,
	})
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var created model.Item
	json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()
	if created.ID == 0 || created.Title != "Chrono Trigger" {
		t.Fatalf("unexpected created item: %+v", created)
	}

	itemURL := fmt.Sprintf("%s/api/items/%d", server.URL, created.ID)

	// Get it back.
	req, _ = authRequest("GET", itemURL, token, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Patch one field.
	req, _ = authRequest("PATCH", itemURL, token, map[string]any{"rating": 5.0})
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from patch, got %d", resp.StatusCode)
	}
	var patched model.Item
	json.NewDecoder(resp.Body).Decode(&patched)
	resp.Body.Close()
	if patched.Rating == nil || *patched.Rating != 5.0 {
		t.Errorf("expected rating 5.0, got %v", patched.Rating)
	}
	if patched.System == nil || *patched.System != "SNES" {
		t.Errorf("expected system untouched, got %v", patched.System)
	}

	// Soft delete hides it from the default listing.
	req, _ = authRequest("DELETE", itemURL, token, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from delete, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	req, _ = authRequest("GET", server.URL+"/api/items", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	var listed []model.Item
	json.NewDecoder(resp.Body).Decode(&listed)
	resp.Body.Close()
	if len(listed) != 0 {
		t.Errorf("expected empty default listing after delete, got %d items", len(listed))
	}

	// Restore brings it back.
	req, _ = authRequest("POST", itemURL+"/restore", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from restore, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	req, _ = authRequest("GET", server.URL+"/api/items", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	json.NewDecoder(resp.Body).Decode(&listed)
	resp.Body.Close()
	if len(listed) != 1 {
		t.Errorf("expected 1 item after restore, got %d", len(listed))
	}

	// Permanent delete removes it for good.
	req, _ = authRequest("DELETE", itemURL+"/permanent", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from permanent delete, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	req, _ = authRequest("GET", itemURL, token, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 after permanent delete, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestItemValidationStatus(t *testing.T) {
	server, token := setupTestServer(t)

	req, _ := authRequest("POST", server.URL+"/api/items", token, map[string]any{
		"title":  "Bad Rating",
		"type":   "book",
		"rating": 9.0,
	})
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid rating, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestUnknownItemRoutes(t *testing.T) {
	server, token := setupTestServer(t)

	for _, tc := range []struct{ method, path string }{
		{"GET", "/api/items/999"},
		{"PATCH", "/api/items/999"},
		{"DELETE", "/api/items/999"},
		{"POST", "/api/items/999/restore"},
		{"DELETE", "/api/items/999/permanent"},
	} {
		var body any
		if tc.method == "PATCH" {
			body = map[string]any{"title": "Ghost"}
		}
		req, _ := authRequest(tc.method, server.URL+tc.path, token, body)
		resp, _ := http.DefaultClient.Do(req)
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("%s %s: expected 404, got %d", tc.method, tc.path, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func TestListFilterParams(t *testing.T) {
	server, token := setupTestServer(t)

	for _, item := range []map[string]any{
		{"title": "Unrated", "type": "book"},
		{"title": "Three", "type": "book", "rating": 3.0},
		{"title": "Four", "type": "dvd", "rating": 4.0},
		{"title": "Five", "type": "dvd", "rating": 5.0},
	} {
		req, _ := authRequest("POST", server.URL+"/api/items", token, item)
		resp, _ := http.DefaultClient.Do(req)
		resp.Body.Close()
	}

	req, _ := authRequest("GET", server.URL+"/api/items?min_rating=4", token, nil)
	resp, _ := http.DefaultClient.Do(req)
	var items []model.Item
	json.NewDecoder(resp.Body).Decode(&items)
	resp.Body.Close()
	if len(items) != 2 {
		t.Errorf("expected 2 items rated >= 4, got %d", len(items))
	}

	req, _ = authRequest("GET", server.URL+"/api/items?type=dvd&min_rating=5", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	json.NewDecoder(resp.Body).Decode(&items)
	resp.Body.Close()
	if len(items) != 1 || items[0].Title != "Five" {
		t.Errorf("expected combined filters to leave 'Five', got %v", items)
	}
}

func TestSuggestionsEndpoint(t *testing.T) {
	server, token := setupTestServer(t)

	for _, item := range []map[string]any{
		{"title": "A", "type": "sneakers", "brand": "Nike"},
		{"title": "B", "type": "sneakers", "brand": "Adidas"},
	} {
		req, _ := authRequest("POST", server.URL+"/api/items", token, item)
		resp, _ := http.DefaultClient.Do(req)
		resp.Body.Close()
	}

	req, _ := authRequest("GET", server.URL+"/api/suggestions/brand", token, nil)
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var brands []string
	json.NewDecoder(resp.Body).Decode(&brands)
	resp.Body.Close()
	if len(brands) != 2 || brands[0] != "Adidas" {
		t.Errorf("expected sorted brands, got %v", brands)
	}

	req, _ = authRequest("GET", server.URL+"/api/suggestions/title", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for unsupported attribute, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestExportImportJSONRoundTrip(t *testing.T) {
	server, token := setupTestServer(t)

	// Seed two items, one of them deleted.
	var ids []int64
	for _, item := range []map[string]any{
		{"title": "Kept", "type": "book", "brand": "Penguin"},
		{"title": "Gone", "type": "book"},
	} {
		req, _ := authRequest("POST", server.URL+"/api/items", token, item)
		resp, _ := http.DefaultClient.Do(req)
		var created model.Item
		json.NewDecoder(resp.Body).Decode(&created)
		resp.Body.Close()
		ids = append(ids, created.ID)
	}
	req, _ := authRequest("DELETE", fmt.Sprintf("%s/api/items/%d", server.URL, ids[1]), token, nil)
	resp, _ := http.DefaultClient.Do(req)
	resp.Body.Close()

	// Export everything, deleted included.
	req, _ = authRequest("GET", server.URL+"/api/export/json?include_deleted=1", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from export, got %d", resp.StatusCode)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Errorf("expected a download disposition, got %q", cd)
	}
	exported := new(bytes.Buffer)
	exported.ReadFrom(resp.Body)
	resp.Body.Close()

	// Import the export right back.
	req, _ = rawRequest("POST", server.URL+"/api/import/json", token, "application/json", exported.Bytes())
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from import, got %d", resp.StatusCode)
	}
	var summary model.ImportSummary
	json.NewDecoder(resp.Body).Decode(&summary)
	resp.Body.Close()
	if summary.Created != 2 || len(summary.Errors) != 0 {
		t.Fatalf("expected clean import of 2, got %+v", summary)
	}

	// The deleted flag survived the round trip: 2 original + 2 imported,
	// of which 2 are deleted.
	req, _ = authRequest("GET", server.URL+"/api/items?only_deleted=1", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	var deleted []model.Item
	json.NewDecoder(resp.Body).Decode(&deleted)
	resp.Body.Close()
	if len(deleted) != 2 {
		t.Errorf("expected 2 deleted items after round trip, got %d", len(deleted))
	}
}

func TestImportCSVEndpoint(t *testing.T) {
	server, token := setupTestServer(t)

	csvBlob := "title,type,rating\nFirst,book,4\nBroken,book,9.0\nThird,book,5\n"
	req, _ := rawRequest("POST", server.URL+"/api/import/csv", token, "text/csv", []byte(csvBlob))
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from partial import, got %d", resp.StatusCode)
	}
	var summary model.ImportSummary
	json.NewDecoder(resp.Body).Decode(&summary)
	resp.Body.Close()

	if summary.Created != 2 {
		t.Errorf("expected 2 created, got %d", summary.Created)
	}
	if len(summary.Errors) != 1 || !strings.Contains(summary.Errors[0], "row 2") {
		t.Errorf("expected a row 2 error, got %v", summary.Errors)
	}
}

func TestImportMalformedPayloads(t *testing.T) {
	server, token := setupTestServer(t)

	// Structured import must be an array.
	req, _ := rawRequest("POST", server.URL+"/api/import/json", token, "application/json", []byte(`{"title":"x"}`))
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for non-array import, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Tabular import needs title and type columns.
	req, _ = rawRequest("POST", server.URL+"/api/import/csv", token, "text/csv", []byte("title,brand\nDune,Penguin\n"))
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for missing type column, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestExportCSVEndpoint(t *testing.T) {
	server, token := setupTestServer(t)

	req, _ := authRequest("POST", server.URL+"/api/items", token, map[string]any{
		"title": `Game, "Special" Edition`,
		"type":  "video_game",
	})
	resp, _ := http.DefaultClient.Do(req)
	resp.Body.Close()

	req, _ = authRequest("GET", server.URL+"/api/export/csv", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("expected text/csv, got %q", ct)
	}
	body := new(bytes.Buffer)
	body.ReadFrom(resp.Body)
	resp.Body.Close()
	if !strings.Contains(body.String(), `"Game, ""Special"" Edition"`) {
		t.Errorf("expected quoted title in export, got %q", body.String())
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	server, token := setupTestServer(t)

	req, _ := authRequest("POST", server.URL+"/api/auth/logout", token, nil)
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from logout, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// The token no longer works.
	req, _ = authRequest("GET", server.URL+"/api/items", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestChangePassword(t *testing.T) {
	server, token := setupTestServer(t)

	// Too-short passwords are rejected.
	req, _ := authRequest("PUT", server.URL+"/api/auth/password", token, map[string]string{
		"current_password": testPassword,
		"new_password":     "short",
	})
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for short password, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Change it for real.
	req, _ = authRequest("PUT", server.URL+"/api/auth/password", token, map[string]string{
		"current_password": testPassword,
		"new_password":     "a-new-password",
	})
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from password change, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Old password stops working, the new one logs in.
	body, _ := json.Marshal(map[string]string{"password": testPassword})
	resp, _ = http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for old password, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	body, _ = json.Marshal(map[string]string{"password": "a-new-password"})
	resp, _ = http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 for new password, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestItemImageEndpoint(t *testing.T) {
	server, token := setupTestServer(t)

	// Write a real PNG the item can reference.
	img := image.NewRGBA(image.Rect(0, 0, 40, 40))
	for x := 0; x < 40; x++ {
		for y := 0; y < 40; y++ {
			img.Set(x, y, color.RGBA{0, 128, 0, 255})
		}
	}
	path := filepath.Join(t.TempDir(), "cover.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating test image: %v", err)
	}
	png.Encode(f, img)
	f.Close()

	req, _ := authRequest("POST", server.URL+"/api/items", token, map[string]any{
		"title": "Boxed Game",
		"type":  "video_game",
		"image": path,
	})
	resp, _ := http.DefaultClient.Do(req)
	var created model.Item
	json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()

	req, _ = authRequest("GET", fmt.Sprintf("%s/api/items/%d/image", server.URL, created.ID), token, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from image endpoint, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("expected image/jpeg preview, got %q", ct)
	}
	resp.Body.Close()

	// An item without an image answers 404.
	req, _ = authRequest("POST", server.URL+"/api/items", token, map[string]any{
		"title": "No Cover", "type": "book",
	})
	resp, _ = http.DefaultClient.Do(req)
	var bare model.Item
	json.NewDecoder(resp.Body).Decode(&bare)
	resp.Body.Close()

	req, _ = authRequest("GET", fmt.Sprintf("%s/api/items/%d/image", server.URL, bare.ID), token, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for missing image, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}
