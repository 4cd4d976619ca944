package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/utils"

	"mealplan-backend/internal/metadata"
	"mealplan-backend/internal/store"
)

const testScopeHeader = "X-Active-Household"

func newTestApp(t *testing.T) (*fiber.App, *store.Collections) {
	t.Helper()
	reg := metadata.NewRegistry()
	reg.Register(testSchema())

	cols := store.NewCollections(nil)
	h := NewHandler(cols, reg, Defaults())

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	scopeMW := func(c *fiber.Ctx) error {
		token, err := ParseScopeToken(utils.CopyString(c.Get(testScopeHeader)))
		if err != nil {
			return InvalidScopeError(err)
		}
		SetRequestScope(c, &RequestScope{Household: token})
		return c.Next()
	}
	RegisterDynamicRoutes(app, h, scopeMW)
	return app, cols
}

func doRequest(t *testing.T, app *fiber.App, method, path, household string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req, _ := http.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if household != "" {
		req.Header.Set(testScopeHeader, household)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return out
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	body := decode[ErrorResponse](t, resp)
	if body.Error == nil {
		t.Fatal("expected error body")
	}
	return body.Error.Code
}

func TestHandler_ListReturnsArrayAndTotal(t *testing.T) {
	app, _ := newTestApp(t)
	for _, r := range []map[string]any{
		{"name": "Chicken Soup", "calories": 300},
		{"name": "Beef Stew", "calories": 600},
		{"name": "Lamb Stew", "calories": 700},
	} {
		resp := doRequest(t, app, "POST", "/api/recipes", "hh1", r)
		if resp.StatusCode != 201 {
			t.Fatalf("create: expected 201, got %d", resp.StatusCode)
		}
	}

	resp := doRequest(t, app, "GET", "/api/recipes?calories[gt]=500&sort=-calories&limit=1", "hh1", nil)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get(TotalCountHeader); got != "2" {
		t.Fatalf("expected %s 2, got %q", TotalCountHeader, got)
	}
	items := decode[[]map[string]any](t, resp)
	if len(items) != 1 || items[0]["name"] != "Lamb Stew" {
		t.Fatalf("unexpected page: %v", items)
	}
}

func TestHandler_ListEncodedOperators(t *testing.T) {
	app, _ := newTestApp(t)
	doRequest(t, app, "POST", "/api/recipes", "", map[string]any{"name": "Mac, Cheese"})
	doRequest(t, app, "POST", "/api/recipes", "", map[string]any{"name": "Chicken Pasta"})

	resp := doRequest(t, app, "GET", "/api/recipes?name%5Blike%5D=MAC", "", nil)
	items := decode[[]map[string]any](t, resp)
	if len(items) != 1 || items[0]["name"] != "Mac, Cheese" {
		t.Fatalf("unexpected page: %v", items)
	}

	resp = doRequest(t, app, "GET", "/api/recipes?name=Chicken+Pasta", "", nil)
	items = decode[[]map[string]any](t, resp)
	if len(items) != 1 {
		t.Fatalf("expected plus-decoded match, got %v", items)
	}
}

func TestHandler_EmptyPageIsArray(t *testing.T) {
	app, _ := newTestApp(t)
	resp := doRequest(t, app, "GET", "/api/recipes?name=nothing", "", nil)
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "[]" {
		t.Fatalf("expected [], got %s", body)
	}
	if resp.Header.Get(TotalCountHeader) != "0" {
		t.Fatalf("expected total 0, got %q", resp.Header.Get(TotalCountHeader))
	}
}

func TestHandler_UnknownResource(t *testing.T) {
	app, _ := newTestApp(t)
	resp := doRequest(t, app, "GET", "/api/spaceships", "", nil)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if code := errorCode(t, resp); code != "UNKNOWN_RESOURCE" {
		t.Fatalf("expected UNKNOWN_RESOURCE, got %s", code)
	}
}

func TestHandler_InvalidScope(t *testing.T) {
	app, _ := newTestApp(t)
	resp := doRequest(t, app, "GET", "/api/recipes", "hh 1", nil)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if code := errorCode(t, resp); code != "INVALID_SCOPE" {
		t.Fatalf("expected INVALID_SCOPE, got %s", code)
	}
}

func TestHandler_MissingScopeMiddleware(t *testing.T) {
	reg := metadata.NewRegistry()
	reg.Register(testSchema())
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	RegisterDynamicRoutes(app, NewHandler(store.NewCollections(nil), reg, Defaults()))

	resp := doRequest(t, app, "GET", "/api/recipes", "", nil)
	if resp.StatusCode != 500 {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
}

func TestHandler_ScopeIsolation(t *testing.T) {
	app, _ := newTestApp(t)
	created := decode[map[string]any](t, doRequest(t, app, "POST", "/api/recipes", "hh1", map[string]any{
		"name":         "Ours",
		"household_id": "hh2",
	}))
	if created["household_id"] != "hh1" {
		t.Fatalf("expected scope stamped from header, got %v", created["household_id"])
	}
	id := created["id"].(string)

	resp := doRequest(t, app, "GET", "/api/recipes/"+id, "hh2", nil)
	if resp.StatusCode != 404 || errorCode(t, resp) != "NOT_FOUND" {
		t.Fatalf("expected NOT_FOUND from another household, got %d", resp.StatusCode)
	}
	resp = doRequest(t, app, "GET", "/api/recipes/"+id, "none", nil)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404 unscoped, got %d", resp.StatusCode)
	}
	resp = doRequest(t, app, "DELETE", "/api/recipes/"+id, "hh2", nil)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404 deleting from another household, got %d", resp.StatusCode)
	}

	items := decode[[]map[string]any](t, doRequest(t, app, "GET", "/api/recipes", "hh2", nil))
	if len(items) != 0 {
		t.Fatalf("expected no records for hh2, got %v", items)
	}
	items = decode[[]map[string]any](t, doRequest(t, app, "GET", "/api/recipes", "hh1", nil))
	if len(items) != 1 {
		t.Fatalf("expected one record for hh1, got %v", items)
	}
}

func TestHandler_CreateValidation(t *testing.T) {
	app, cols := newTestApp(t)
	resp := doRequest(t, app, "POST", "/api/recipes", "", map[string]any{
		"name":       42,
		"calories":   "lots",
		"difficulty": "impossible",
	})
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	body := decode[ErrorResponse](t, resp)
	if body.Error.Code != "INVALID_PAYLOAD" || len(body.Error.Details) != 3 {
		t.Fatalf("unexpected error: %+v", body.Error)
	}
	if cols.Len("recipes") != 0 {
		t.Fatal("invalid payload must not be stored")
	}
}

func TestHandler_UpdatePreservesIdentity(t *testing.T) {
	app, _ := newTestApp(t)
	created := decode[map[string]any](t, doRequest(t, app, "POST", "/api/recipes", "hh1", map[string]any{"name": "Soup"}))
	id := created["id"].(string)

	resp := doRequest(t, app, "PUT", "/api/recipes/"+id, "hh1", map[string]any{
		"id":           "other",
		"name":         "Better Soup",
		"household_id": "hh9",
		"created_at":   "2000-01-01",
	})
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	updated := decode[map[string]any](t, resp)
	if updated["id"] != id || updated["household_id"] != "hh1" || updated["created_at"] != created["created_at"] {
		t.Fatalf("identity not preserved: %v", updated)
	}
	if updated["name"] != "Better Soup" {
		t.Fatalf("expected name updated, got %v", updated["name"])
	}
}

func TestHandler_DeleteThenNotFound(t *testing.T) {
	app, _ := newTestApp(t)
	created := decode[map[string]any](t, doRequest(t, app, "POST", "/api/recipes", "", map[string]any{"name": "Soup"}))
	id := created["id"].(string)

	if resp := doRequest(t, app, "DELETE", "/api/recipes/"+id, "", nil); resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	resp := doRequest(t, app, "GET", "/api/recipes/"+id, "", nil)
	if resp.StatusCode != 404 || errorCode(t, resp) != "NOT_FOUND" {
		t.Fatalf("expected NOT_FOUND, got %d", resp.StatusCode)
	}
}

func TestHandler_TotalCountExposedToBrowsers(t *testing.T) {
	reg := metadata.NewRegistry()
	reg.Register(testSchema())
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Use(cors.New(cors.Config{ExposeHeaders: TotalCountHeader}))
	RegisterDynamicRoutes(app, NewHandler(store.NewCollections(nil), reg, Defaults()), func(c *fiber.Ctx) error {
		SetRequestScope(c, &RequestScope{})
		return c.Next()
	})

	req, _ := http.NewRequest("GET", "/api/recipes", nil)
	req.Header.Set("Origin", "http://example.com")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if got := resp.Header.Get("Access-Control-Expose-Headers"); got != TotalCountHeader {
		t.Fatalf("expected exposed %s, got %q", TotalCountHeader, got)
	}
	if resp.Header.Get(TotalCountHeader) != "0" {
		t.Fatalf("expected total 0, got %q", resp.Header.Get(TotalCountHeader))
	}
}

func TestHandler_StoredRecordSurvivesLaterRequests(t *testing.T) {
	app, cols := newTestApp(t)
	created := decode[map[string]any](t, doRequest(t, app, "POST", "/api/recipes", "hh1", map[string]any{"name": "Soup"}))
	id := created["id"].(string)

	resp := doRequest(t, app, "PUT", "/api/recipes/"+id, "hh1", map[string]any{"name": "Better Soup"})
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	for i := 0; i < 50; i++ {
		doRequest(t, app, "GET", fmt.Sprintf("/api/recipes/%036d", i), "zz9", nil)
	}

	stored := cols.Snapshot("recipes")
	if len(stored) != 1 {
		t.Fatalf("expected one stored record, got %d", len(stored))
	}
	if stored[0]["id"] != id || stored[0]["household_id"] != "hh1" {
		t.Fatalf("stored record changed: id=%v household=%v", stored[0]["id"], stored[0]["household_id"])
	}

	items := decode[[]map[string]any](t, doRequest(t, app, "GET", "/api/recipes", "zz9", nil))
	if len(items) != 0 {
		t.Fatalf("expected no records for zz9, got %v", items)
	}
}
