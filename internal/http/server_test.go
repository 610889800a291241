package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"tally/internal/auth"
	"tally/internal/cache"
	"tally/internal/core"
	"tally/internal/log"
	"tally/internal/middleware/ratelimit"
	"tally/internal/middleware/trace"
	"tally/internal/services"
	"tally/internal/storage"
	"tally/internal/storage/memory"
)

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("disk on fire") }

type ServerTestSuite struct {
	suite.Suite
	store  *memory.Store
	repo   *storage.SQLiteRepository
	server *Server
}

func (suite *ServerTestSuite) SetupTest() {
	suite.store = memory.New(
		memory.WithClock(func() time.Time { return testNow }),
		memory.WithHasher(auth.NewHasher(bcrypt.MinCost)),
	)

	repo, err := storage.NewSQLiteRepository(filepath.Join(suite.T().TempDir(), "sessions.db"))
	suite.Require().NoError(err)
	suite.T().Cleanup(func() { _ = repo.Close() })
	suite.repo = repo

	suite.server = suite.newServer(100)
}

func (suite *ServerTestSuite) newServer(authLimit int) *Server {
	stats := services.NewStatsService(suite.store, cache.NewLRUCache[core.ExpenseStats](100, time.Minute))
	return NewServer(Options{
		Addr:           ":0",
		Users:          services.NewUserService(suite.store, nil),
		Categories:     services.NewCategoryService(suite.store, stats, nil),
		Expenses:       services.NewExpenseService(suite.store, stats, nil),
		Stats:          stats,
		Sessions:       NewSessionManager(suite.repo, auth.NewTokenSigner("test-secret-0123456789", "tally"), 24*time.Hour, false),
		Readiness:      suite.repo,
		Logger:         log.New(log.Config{Output: io.Discard}),
		AllowedOrigins: []string{"http://localhost:5173"},
		AuthLimiter:    ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: authLimit}),
	})
}

func (suite *ServerTestSuite) do(method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	return suite.doOn(suite.server, method, path, body, cookies...)
}

func (suite *ServerTestSuite) doOn(srv *Server, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		suite.Require().NoError(err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "203.0.113.10:4321"
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func sessionCookie(rr *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == SessionCookieName {
			return c
		}
	}
	return nil
}

func (suite *ServerTestSuite) register(email string) *http.Cookie {
	rr := suite.do(http.MethodPost, "/api/auth/register", map[string]any{
		"email": email, "password": "s3cret!", "fullName": "Test " + email,
	})
	suite.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	c := sessionCookie(rr)
	suite.Require().NotNil(c)
	return c
}

func (suite *ServerTestSuite) decode(rr *httptest.ResponseRecorder, v any) {
	suite.Require().NoError(json.Unmarshal(rr.Body.Bytes(), v), rr.Body.String())
}

func (suite *ServerTestSuite) message(rr *httptest.ResponseRecorder) string {
	var m messageResponse
	suite.decode(rr, &m)
	return m.Message
}

func (suite *ServerTestSuite) createCategory(cookie *http.Cookie, name string) core.Category {
	rr := suite.do(http.MethodPost, "/api/categories", map[string]any{
		"name": name, "icon": "plane", "color": "#3B82F6",
	}, cookie)
	suite.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	var c core.Category
	suite.decode(rr, &c)
	return c
}

func (suite *ServerTestSuite) createExpense(cookie *http.Cookie, body map[string]any) core.Expense {
	rr := suite.do(http.MethodPost, "/api/expenses", body, cookie)
	suite.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	var e core.Expense
	suite.decode(rr, &e)
	return e
}

func (suite *ServerTestSuite) TestHealthAndReadiness() {
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := suite.do(http.MethodGet, path, nil)
		suite.Equal(http.StatusOK, rr.Code, path)
	}

	srv := suite.newServer(100)
	srv.readiness = failingPinger{}
	srv.Handler = srv.routes()
	rr := suite.doOn(srv, http.MethodGet, "/readyz", nil)
	suite.Equal(http.StatusServiceUnavailable, rr.Code)
	suite.Contains(rr.Body.String(), "not_ready")
}

func (suite *ServerTestSuite) TestCommonHeaders() {
	rr := suite.do(http.MethodGet, "/healthz", nil)
	suite.True(strings.HasPrefix(rr.Header().Get(trace.HeaderRequestID), "req_"))
	suite.Equal("nosniff", rr.Header().Get("X-Content-Type-Options"))
	suite.Equal("application/json; charset=utf-8", rr.Header().Get("Content-Type"))
}

func (suite *ServerTestSuite) TestCORSPreflight() {
	req := httptest.NewRequest(http.MethodOptions, "/api/expenses", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	suite.server.Handler.ServeHTTP(rr, req)

	suite.Equal("http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"))
	suite.Equal("true", rr.Header().Get("Access-Control-Allow-Credentials"))
}

func (suite *ServerTestSuite) TestUnknownRoute() {
	rr := suite.do(http.MethodGet, "/nope", nil)
	suite.Equal(http.StatusNotFound, rr.Code)
	suite.Equal(msgRouteNotFound, suite.message(rr))
}

func (suite *ServerTestSuite) TestAuthFlow() {
	rr := suite.do(http.MethodPost, "/api/auth/register", map[string]any{
		"email": "alice@example.com", "password": "s3cret!", "fullName": "Alice",
	})
	suite.Require().Equal(http.StatusOK, rr.Code)
	suite.JSONEq(`{"user":{"id":1,"email":"alice@example.com","fullName":"Alice"}}`, rr.Body.String())
	suite.NotContains(rr.Body.String(), "password")

	cookie := sessionCookie(rr)
	suite.Require().NotNil(cookie)
	suite.True(cookie.HttpOnly)
	suite.Equal(http.SameSiteLaxMode, cookie.SameSite)
	suite.InDelta(24*60*60, cookie.MaxAge, 2)

	rr = suite.do(http.MethodGet, "/api/auth/me", nil, cookie)
	suite.Equal(http.StatusOK, rr.Code)
	suite.JSONEq(`{"user":{"id":1,"email":"alice@example.com","fullName":"Alice"}}`, rr.Body.String())

	rr = suite.do(http.MethodPost, "/api/auth/login", map[string]any{
		"email": "alice@example.com", "password": "s3cret!",
	})
	suite.Equal(http.StatusOK, rr.Code)
	second := sessionCookie(rr)
	suite.Require().NotNil(second)
	suite.NotEqual(cookie.Value, second.Value)

	rr = suite.do(http.MethodPost, "/api/auth/logout", nil, cookie)
	suite.Equal(http.StatusOK, rr.Code)
	suite.Equal(msgLoggedOut, suite.message(rr))
	cleared := sessionCookie(rr)
	suite.Require().NotNil(cleared)
	suite.Empty(cleared.Value)

	rr = suite.do(http.MethodGet, "/api/auth/me", nil, cookie)
	suite.Equal(http.StatusUnauthorized, rr.Code, "a logged out cookie is revoked")

	rr = suite.do(http.MethodGet, "/api/auth/me", nil, second)
	suite.Equal(http.StatusOK, rr.Code, "other sessions survive")
}

func (suite *ServerTestSuite) TestRegister_Rejections() {
	suite.register("alice@example.com")

	rr := suite.do(http.MethodPost, "/api/auth/register", map[string]any{
		"email": "alice@example.com", "password": "other", "fullName": "Imposter",
	})
	suite.Equal(http.StatusBadRequest, rr.Code)
	suite.Equal(msgUserExists, suite.message(rr))

	tests := []struct {
		name string
		body any
		want string
	}{
		{"bad email", map[string]any{"email": "nope", "password": "x", "fullName": "A"}, "email: must be a valid email address"},
		{"missing name", map[string]any{"email": "b@example.com", "password": "x"}, "fullName: is required"},
		{"blank name", map[string]any{"email": "b@example.com", "password": "x", "fullName": "   "}, "fullName: is required"},
		{"wrong type", map[string]any{"email": 42, "password": "x", "fullName": "A"}, "email: must be a string"},
		{"not an object", `[1,2]`, "request body must be a JSON object"},
		{"malformed", `{"email":`, "request body must be a JSON object"},
	}
	for _, tt := range tests {
		suite.Run(tt.name, func() {
			rr := suite.do(http.MethodPost, "/api/auth/register", tt.body)
			suite.Equal(http.StatusBadRequest, rr.Code)
			suite.Equal(tt.want, suite.message(rr))
			suite.Nil(sessionCookie(rr))
		})
	}
}

func (suite *ServerTestSuite) TestLogin_InvalidCredentials() {
	suite.register("alice@example.com")

	for _, body := range []map[string]any{
		{"email": "alice@example.com", "password": "wrong"},
		{"email": "ghost@example.com", "password": "s3cret!"},
	} {
		rr := suite.do(http.MethodPost, "/api/auth/login", body)
		suite.Equal(http.StatusUnauthorized, rr.Code)
		suite.Equal(msgInvalidCredentials, suite.message(rr))
		suite.Nil(sessionCookie(rr))
	}

	rr := suite.do(http.MethodPost, "/api/auth/login", map[string]any{"email": "alice@example.com"})
	suite.Equal(http.StatusBadRequest, rr.Code)
}

func (suite *ServerTestSuite) TestProtectedRoutesRequireAuth() {
	routes := []struct{ method, path string }{
		{http.MethodPost, "/api/auth/logout"},
		{http.MethodGet, "/api/auth/me"},
		{http.MethodGet, "/api/categories"},
		{http.MethodPost, "/api/categories"},
		{http.MethodPost, "/api/categories/default"},
		{http.MethodPut, "/api/categories/1"},
		{http.MethodDelete, "/api/categories/1"},
		{http.MethodGet, "/api/expenses"},
		{http.MethodPost, "/api/expenses"},
		{http.MethodGet, "/api/expenses/1"},
		{http.MethodPut, "/api/expenses/1"},
		{http.MethodDelete, "/api/expenses/1"},
		{http.MethodGet, "/api/stats"},
	}
	forged := &http.Cookie{Name: SessionCookieName, Value: "not-a-token"}

	for _, rt := range routes {
		rr := suite.do(rt.method, rt.path, nil)
		suite.Equal(http.StatusUnauthorized, rr.Code, "%s %s", rt.method, rt.path)
		suite.Equal(msgAuthRequired, suite.message(rr))

		rr = suite.do(rt.method, rt.path, nil, forged)
		suite.Equal(http.StatusUnauthorized, rr.Code, "%s %s forged", rt.method, rt.path)
	}
}

func (suite *ServerTestSuite) TestTokenForOtherSecretRejected() {
	suite.register("alice@example.com")
	other := auth.NewTokenSigner("another-secret-9876543210", "tally")
	token, err := other.Sign("whatever", 1, time.Now().Add(time.Hour))
	suite.Require().NoError(err)

	rr := suite.do(http.MethodGet, "/api/auth/me", nil, &http.Cookie{Name: SessionCookieName, Value: token})
	suite.Equal(http.StatusUnauthorized, rr.Code)
}

func (suite *ServerTestSuite) TestSessionRenewal() {
	suite.repo.SetClock(func() time.Time { return time.Now().Add(-13 * time.Hour) })
	old := suite.register("alice@example.com")
	suite.repo.SetClock(time.Now)

	rr := suite.do(http.MethodGet, "/api/auth/me", nil, old)
	suite.Require().Equal(http.StatusOK, rr.Code)
	renewed := sessionCookie(rr)
	suite.Require().NotNil(renewed, "sessions past half their lifetime are renewed")
	suite.NotEqual(old.Value, renewed.Value)
	suite.InDelta(24*60*60, renewed.MaxAge, 5)

	rr = suite.do(http.MethodGet, "/api/auth/me", nil, renewed)
	suite.Equal(http.StatusOK, rr.Code)
	suite.Nil(sessionCookie(rr), "fresh sessions are left alone")
}

func (suite *ServerTestSuite) TestAuthRateLimit() {
	srv := suite.newServer(2)
	body := map[string]any{"email": "ghost@example.com", "password": "nope"}

	for i := 0; i < 2; i++ {
		rr := suite.doOn(srv, http.MethodPost, "/api/auth/login", body)
		suite.Equal(http.StatusUnauthorized, rr.Code)
	}
	rr := suite.doOn(srv, http.MethodPost, "/api/auth/login", body)
	suite.Equal(http.StatusTooManyRequests, rr.Code)
	suite.Equal(msgTooManyRequests, suite.message(rr))
	suite.NotEmpty(rr.Header().Get("Retry-After"))
}

func (suite *ServerTestSuite) TestSeedDefaultCategories() {
	cookie := suite.register("alice@example.com")

	rr := suite.do(http.MethodPost, "/api/categories/default", nil, cookie)
	suite.Equal(http.StatusOK, rr.Code)
	suite.Equal(msgDefaultsCreated, suite.message(rr))

	rr = suite.do(http.MethodPost, "/api/categories/default", nil, cookie)
	suite.Equal(http.StatusOK, rr.Code)
	suite.Equal(msgCategoriesExist, suite.message(rr))

	rr = suite.do(http.MethodGet, "/api/categories", nil, cookie)
	var categories []core.CategoryWithStats
	suite.decode(rr, &categories)
	suite.Len(categories, 6)
	suite.Equal("Food & Dining", categories[0].Name)
	suite.Equal("Healthcare", categories[5].Name)
}

func (suite *ServerTestSuite) TestCategoryCRUD() {
	cookie := suite.register("alice@example.com")

	rr := suite.do(http.MethodGet, "/api/categories", nil, cookie)
	suite.Equal(http.StatusOK, rr.Code)
	suite.JSONEq(`[]`, rr.Body.String())

	travel := suite.createCategory(cookie, "Travel")
	suite.Equal(int64(1), travel.ID)
	suite.Equal(int64(1), travel.UserID)

	rr = suite.do(http.MethodPut, fmt.Sprintf("/api/categories/%d", travel.ID), map[string]any{"name": "Trips"}, cookie)
	suite.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	var updated core.Category
	suite.decode(rr, &updated)
	suite.Equal("Trips", updated.Name)
	suite.Equal("plane", updated.Icon)

	rr = suite.do(http.MethodPut, fmt.Sprintf("/api/categories/%d", travel.ID), map[string]any{}, cookie)
	suite.Equal(http.StatusOK, rr.Code, "empty updates echo the record")

	for name, body := range map[string]map[string]any{
		"bad icon":   {"icon": "rocket"},
		"bad color":  {"color": "red"},
		"null name":  {"name": nil},
		"empty name": {"name": ""},
	} {
		rr = suite.do(http.MethodPut, fmt.Sprintf("/api/categories/%d", travel.ID), body, cookie)
		suite.Equal(http.StatusBadRequest, rr.Code, name)
	}

	rr = suite.do(http.MethodPost, "/api/categories", map[string]any{"name": "X", "icon": "rocket", "color": "#FFFFFF"}, cookie)
	suite.Equal(http.StatusBadRequest, rr.Code)
	suite.Contains(suite.message(rr), "icon: must be one of")

	rr = suite.do(http.MethodDelete, fmt.Sprintf("/api/categories/%d", travel.ID), nil, cookie)
	suite.Equal(http.StatusOK, rr.Code)
	suite.Equal(msgCategoryDeleted, suite.message(rr))

	rr = suite.do(http.MethodDelete, fmt.Sprintf("/api/categories/%d", travel.ID), nil, cookie)
	suite.Equal(http.StatusNotFound, rr.Code)
	suite.Equal(msgCategoryNotFound, suite.message(rr))

	for _, path := range []string{"/api/categories/abc", "/api/categories/0", "/api/categories/-1"} {
		rr = suite.do(http.MethodPut, path, map[string]any{"name": "Y"}, cookie)
		suite.Equal(http.StatusNotFound, rr.Code, path)
	}
}

func (suite *ServerTestSuite) TestCategoryStatsScenario() {
	cookie := suite.register("alice@example.com")
	travel := suite.createCategory(cookie, "Travel")
	suite.createExpense(cookie, map[string]any{
		"title": "Flight", "amount": 500, "categoryId": travel.ID, "date": "2024-06-01",
	})

	rr := suite.do(http.MethodGet, "/api/categories", nil, cookie)
	suite.Require().Equal(http.StatusOK, rr.Code)
	suite.Contains(rr.Body.String(), `"expenseCount":1`)
	suite.Contains(rr.Body.String(), `"totalAmount":500.00`)
}

func (suite *ServerTestSuite) TestExpenseCRUD() {
	cookie := suite.register("alice@example.com")
	food := suite.createCategory(cookie, "Food")

	e := suite.createExpense(cookie, map[string]any{
		"title": "Lunch", "amount": "12,345", "categoryId": food.ID, "date": "2024-06-10",
		"description": "with the team",
	})
	suite.Equal(int64(1235), e.Amount.Cents, "half-up to cents")
	suite.Require().NotNil(e.CategoryID)
	suite.Equal(food.ID, *e.CategoryID)
	suite.Equal("2024-06-10", e.Date.String())

	path := fmt.Sprintf("/api/expenses/%d", e.ID)

	rr := suite.do(http.MethodGet, path, nil, cookie)
	suite.Equal(http.StatusOK, rr.Code)
	suite.Contains(rr.Body.String(), `"amount":12.35`)
	suite.Contains(rr.Body.String(), `"date":"2024-06-10"`)

	rr = suite.do(http.MethodPut, path, map[string]any{"amount": 20.5}, cookie)
	suite.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	suite.Contains(rr.Body.String(), `"amount":20.50`)
	suite.Contains(rr.Body.String(), `"title":"Lunch"`, "absent fields stay")

	rr = suite.do(http.MethodPut, path, map[string]any{"categoryId": nil, "description": nil}, cookie)
	suite.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	var cleared core.Expense
	suite.decode(rr, &cleared)
	suite.Nil(cleared.CategoryID)
	suite.Nil(cleared.Description)

	rr = suite.do(http.MethodPut, path, "", cookie)
	suite.Equal(http.StatusOK, rr.Code, "empty body is an empty update")

	rr = suite.do(http.MethodDelete, path, nil, cookie)
	suite.Equal(http.StatusOK, rr.Code)
	suite.Equal(msgExpenseDeleted, suite.message(rr))

	rr = suite.do(http.MethodGet, path, nil, cookie)
	suite.Equal(http.StatusNotFound, rr.Code)
	suite.Equal(msgExpenseNotFound, suite.message(rr))

	rr = suite.do(http.MethodGet, "/api/expenses/abc", nil, cookie)
	suite.Equal(http.StatusNotFound, rr.Code)
}

func (suite *ServerTestSuite) TestExpenseValidation() {
	cookie := suite.register("alice@example.com")
	valid := func() map[string]any {
		return map[string]any{"title": "Coffee", "amount": "3.50", "date": "2024-06-10"}
	}

	tests := []struct {
		name   string
		modify func(map[string]any)
		want   string
	}{
		{"missing title", func(b map[string]any) { delete(b, "title") }, "title: is required"},
		{"zero amount", func(b map[string]any) { b["amount"] = 0 }, "amount: must be a positive number"},
		{"negative amount", func(b map[string]any) { b["amount"] = "-4" }, "amount: must be a positive number"},
		{"text amount", func(b map[string]any) { b["amount"] = "lots" }, "amount: must be a positive number"},
		{"boolean amount", func(b map[string]any) { b["amount"] = true }, "amount: must be a positive number"},
		{"missing amount", func(b map[string]any) { delete(b, "amount") }, "amount: is required"},
		{"bad date", func(b map[string]any) { b["date"] = "10/06/2024" }, "date: must be a valid date (YYYY-MM-DD)"},
		{"impossible date", func(b map[string]any) { b["date"] = "2024-02-30" }, "date: must be a valid date (YYYY-MM-DD)"},
		{"bad category", func(b map[string]any) { b["categoryId"] = "abc" }, "categoryId: must be a positive integer"},
		{"zero category", func(b map[string]any) { b["categoryId"] = 0 }, "categoryId: must be a positive integer"},
		{"unknown category", func(b map[string]any) { b["categoryId"] = 99 }, "categoryId: category not found"},
	}
	for _, tt := range tests {
		suite.Run(tt.name, func() {
			body := valid()
			tt.modify(body)
			rr := suite.do(http.MethodPost, "/api/expenses", body, cookie)
			suite.Equal(http.StatusBadRequest, rr.Code)
			suite.Equal(tt.want, suite.message(rr))
		})
	}

	for _, raw := range []string{
		`{"title":"Coffee","amount":1e400,"date":"2024-06-10"}`,
		`{"title":"Coffee","amount":1e-400,"date":"2024-06-10"}`,
		`{"title":"Coffee","amount":1E5,"date":"2024-06-10"}`,
		`{"title":"Coffee","amount":"1e-10000000","date":"2024-06-10"}`,
	} {
		rr := suite.do(http.MethodPost, "/api/expenses", raw, cookie)
		suite.Equal(http.StatusBadRequest, rr.Code, raw)
		suite.Equal("amount: must be a positive number", suite.message(rr), raw)
	}

	e := suite.createExpense(cookie, valid())
	suite.Nil(e.CategoryID, "categoryId is optional")

	path := fmt.Sprintf("/api/expenses/%d", e.ID)
	for name, body := range map[string]map[string]any{
		"null title":   {"title": nil},
		"null amount":  {"amount": nil},
		"bad amount":   {"amount": -1},
		"invalid date": {"date": "2024-13-01"},
	} {
		rr := suite.do(http.MethodPut, path, body, cookie)
		suite.Equal(http.StatusBadRequest, rr.Code, name)
	}
}

func (suite *ServerTestSuite) TestListExpenses_Filters() {
	cookie := suite.register("alice@example.com")
	food := suite.createCategory(cookie, "Food")
	foodID := food.ID

	suite.createExpense(cookie, map[string]any{"title": "Lunch at Cafe", "amount": 12, "categoryId": foodID, "date": "2024-06-10"})
	suite.createExpense(cookie, map[string]any{"title": "Train", "amount": 30, "date": "2024-06-12"})
	suite.createExpense(cookie, map[string]any{"title": "Groceries", "amount": 45, "categoryId": foodID, "date": "2024-05-20", "description": "cafe beans"})
	suite.createExpense(cookie, map[string]any{"title": "Books", "amount": 20, "date": "2024-06-01"})

	list := func(query string) []string {
		rr := suite.do(http.MethodGet, "/api/expenses"+query, nil, cookie)
		suite.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
		var items []core.ExpenseWithCategory
		suite.decode(rr, &items)
		out := make([]string, 0, len(items))
		for _, it := range items {
			out = append(out, it.Title)
		}
		return out
	}

	suite.Equal([]string{"Train", "Lunch at Cafe", "Books", "Groceries"}, list(""))
	suite.Equal([]string{"Lunch at Cafe", "Groceries"}, list("?search=cafe"))
	suite.Equal([]string{"Lunch at Cafe", "Groceries"}, list(fmt.Sprintf("?categoryId=%d", foodID)))
	suite.Equal([]string{"Lunch at Cafe", "Books"}, list("?startDate=2024-06-01&endDate=2024-06-10"))
	suite.Equal([]string{"Lunch at Cafe"}, list(fmt.Sprintf("?categoryId=%d&startDate=2024-06-01&search=CAFE", foodID)))
	suite.Equal([]string{"Train", "Lunch at Cafe", "Books", "Groceries"}, list("?categoryId=&search="))

	rr := suite.do(http.MethodGet, "/api/expenses?search=cafe", nil, cookie)
	suite.Contains(rr.Body.String(), `"category":{"id":1`, "expenses are joined with their category")

	for _, q := range []string{"?categoryId=abc", "?categoryId=0", "?startDate=06/01/2024", "?endDate=2024-06-31"} {
		rr := suite.do(http.MethodGet, "/api/expenses"+q, nil, cookie)
		suite.Equal(http.StatusBadRequest, rr.Code, q)
	}
}

func (suite *ServerTestSuite) TestDeleteCategory_OrphansExpenses() {
	cookie := suite.register("alice@example.com")
	food := suite.createCategory(cookie, "Food")
	for i := 0; i < 3; i++ {
		suite.createExpense(cookie, map[string]any{
			"title": fmt.Sprintf("Meal %d", i), "amount": 10, "categoryId": food.ID, "date": "2024-06-10",
		})
	}

	rr := suite.do(http.MethodDelete, fmt.Sprintf("/api/categories/%d", food.ID), nil, cookie)
	suite.Require().Equal(http.StatusOK, rr.Code)

	rr = suite.do(http.MethodGet, "/api/expenses", nil, cookie)
	var items []core.ExpenseWithCategory
	suite.decode(rr, &items)
	suite.Len(items, 3, "expenses survive their category")
	for _, it := range items {
		suite.Nil(it.CategoryID)
		suite.Nil(it.Category)
	}
	suite.NotContains(rr.Body.String(), `"category":`)
}

func (suite *ServerTestSuite) TestOwnershipIsolation() {
	alice := suite.register("alice@example.com")
	bob := suite.register("bob@example.com")

	cat := suite.createCategory(alice, "Private")
	exp := suite.createExpense(alice, map[string]any{
		"title": "Secret", "amount": 99, "categoryId": cat.ID, "date": "2024-06-10",
	})
	catPath := fmt.Sprintf("/api/categories/%d", cat.ID)
	expPath := fmt.Sprintf("/api/expenses/%d", exp.ID)

	checks := []struct {
		method, path string
		body         any
		want         string
	}{
		{http.MethodPut, catPath, map[string]any{"name": "Mine"}, msgCategoryNotFound},
		{http.MethodPut, catPath, map[string]any{}, msgCategoryNotFound},
		{http.MethodDelete, catPath, nil, msgCategoryNotFound},
		{http.MethodGet, expPath, nil, msgExpenseNotFound},
		{http.MethodPut, expPath, map[string]any{"title": "Mine"}, msgExpenseNotFound},
		{http.MethodPut, expPath, map[string]any{}, msgExpenseNotFound},
		{http.MethodDelete, expPath, nil, msgExpenseNotFound},
	}
	for _, c := range checks {
		rr := suite.do(c.method, c.path, c.body, bob)
		suite.Equal(http.StatusNotFound, rr.Code, "%s %s", c.method, c.path)
		suite.Equal(c.want, suite.message(rr))
	}

	rr := suite.do(http.MethodPost, "/api/expenses", map[string]any{
		"title": "Sneaky", "amount": 1, "categoryId": cat.ID, "date": "2024-06-10",
	}, bob)
	suite.Equal(http.StatusBadRequest, rr.Code)

	rr = suite.do(http.MethodGet, "/api/expenses", nil, bob)
	suite.JSONEq(`[]`, rr.Body.String())
	rr = suite.do(http.MethodGet, "/api/categories", nil, bob)
	suite.JSONEq(`[]`, rr.Body.String())
	rr = suite.do(http.MethodGet, fmt.Sprintf("/api/expenses?categoryId=%d", cat.ID), nil, bob)
	suite.JSONEq(`[]`, rr.Body.String())

	rr = suite.do(http.MethodGet, expPath, nil, alice)
	suite.Equal(http.StatusOK, rr.Code)
	suite.Contains(rr.Body.String(), `"title":"Secret"`, "alice's records are untouched")
}

func (suite *ServerTestSuite) TestStats() {
	cookie := suite.register("alice@example.com")

	rr := suite.do(http.MethodGet, "/api/stats", nil, cookie)
	suite.Require().Equal(http.StatusOK, rr.Code)
	suite.JSONEq(`{"totalExpenses":0,"weeklyExpenses":0,"categoriesCount":0,"dailyAverage":0}`, rr.Body.String())

	suite.createCategory(cookie, "Food")
	suite.createExpense(cookie, map[string]any{"title": "Recent", "amount": "10.10", "date": "2024-06-14"})
	suite.createExpense(cookie, map[string]any{"title": "Earlier", "amount": "0.05", "date": "2024-06-01"})
	suite.createExpense(cookie, map[string]any{"title": "Old", "amount": "2.00", "date": "2023-01-01"})

	rr = suite.do(http.MethodGet, "/api/stats", nil, cookie)
	suite.Require().Equal(http.StatusOK, rr.Code)
	body := rr.Body.String()
	suite.Contains(body, `"totalExpenses":12.15`)
	suite.Contains(body, `"weeklyExpenses":10.10`)
	suite.Contains(body, `"categoriesCount":1`)
	suite.Contains(body, `"dailyAverage":0.34`)

	suite.createExpense(cookie, map[string]any{"title": "Today", "amount": 5, "date": "2024-06-15"})
	rr = suite.do(http.MethodGet, "/api/stats", nil, cookie)
	suite.Contains(rr.Body.String(), `"totalExpenses":17.15`, "mutations invalidate cached stats")
}

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}
