package api_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt"

	"github.com/ghuser/sweetshop/pkg/app"
	"github.com/ghuser/sweetshop/pkg/auth"
	"github.com/ghuser/sweetshop/pkg/config"
	"github.com/ghuser/sweetshop/pkg/logger"
	"github.com/ghuser/sweetshop/services/sweet/application/api"
	"github.com/ghuser/sweetshop/services/sweet/application/handlers"
	appsvcs "github.com/ghuser/sweetshop/services/sweet/application/services"
)

const testSecret = "test-secret-that-is-long-enough!!"

type testServer struct {
	t       *testing.T
	handler http.Handler
}

func newTestServer(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()
	verifier, err := auth.NewTokenVerifier(testSecret)
	if err != nil {
		t.Fatal(err)
	}
	a := &app.Application{
		Config:   cfg,
		Logger:   logger.Nop(),
		Verifier: verifier,
	}
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		api.SweetRoutes(r, a, appsvcs.New(a))
	})
	return &testServer{t: t, handler: r}
}

func token(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func (s *testServer) do(method, path, tok, body string) *httptest.ResponseRecorder {
	s.t.Helper()
	var rd io.Reader = http.NoBody
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestSweetRoutes_Lifecycle(t *testing.T) {
	s := newTestServer(t, &config.Config{})
	adminTok := token(t, jwt.MapClaims{"sub": "admin-1", "is_admin": true})
	custTok := token(t, jwt.MapClaims{"sub": "cust-1", "role": "customer"})

	rr := s.do(http.MethodPost, "/api/sweets", adminTok, `{"name":"Toffee","category":"Hard Candy","price":1.5,"quantity":10}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d %s", rr.Code, rr.Body.String())
	}
	created := decode[handlers.SweetResponse](t, rr)
	if created.Price != "1.50" || created.Quantity != 10 || created.Version != 1 {
		t.Fatalf("unexpected created sweet: %+v", created)
	}
	path := "/api/sweets/" + created.ID.String()

	rr = s.do(http.MethodGet, "/api/sweets", custTok, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rr.Code)
	}
	if list := decode[[]handlers.SweetResponse](t, rr); len(list) != 1 || list[0].ID != created.ID {
		t.Fatalf("unexpected list: %+v", list)
	}

	rr = s.do(http.MethodPut, path, adminTok, `{"name":"Butter Toffee","category":"Hard Candy","price":"2.005","quantity":3}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d %s", rr.Code, rr.Body.String())
	}
	if updated := decode[handlers.SweetResponse](t, rr); updated.Name != "Butter Toffee" || updated.Price != "2.01" || updated.Quantity != 3 {
		t.Fatalf("unexpected updated sweet: %+v", updated)
	}

	rr = s.do(http.MethodPost, path+"/purchase", custTok, `{"quantity":3}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("purchase: expected 200, got %d %s", rr.Code, rr.Body.String())
	}
	if p := decode[handlers.PurchaseResponse](t, rr); p.Quantity != 0 || p.Purchased != 3 {
		t.Fatalf("unexpected purchase response: %+v", p)
	}

	rr = s.do(http.MethodPost, path+"/purchase", custTok, "")
	if rr.Code != http.StatusConflict {
		t.Fatalf("purchase sold out: expected 409, got %d", rr.Code)
	}

	rr = s.do(http.MethodDelete, path, adminTok, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", rr.Code)
	}
	if msg := decode[handlers.DeleteResponse](t, rr); msg.Msg != "deleted" {
		t.Fatalf("unexpected delete response: %+v", msg)
	}

	if rr = s.do(http.MethodDelete, path, adminTok, ""); rr.Code != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", rr.Code)
	}
	if rr = s.do(http.MethodGet, path, custTok, ""); rr.Code != http.StatusNotFound {
		t.Fatalf("get deleted: expected 404, got %d", rr.Code)
	}
}

func TestSweetRoutes_PurchaseDefaultsToOne(t *testing.T) {
	s := newTestServer(t, &config.Config{})
	adminTok := token(t, jwt.MapClaims{"sub": "admin-1", "role": "admin"})
	custTok := token(t, jwt.MapClaims{"sub": "cust-1"})

	created := decode[handlers.SweetResponse](t, s.do(http.MethodPost, "/api/sweets", adminTok, `{"name":"Fudge","category":"Chocolate","price":"3","quantity":5}`))

	rr := s.do(http.MethodPost, "/api/sweets/"+created.ID.String()+"/purchase", custTok, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", rr.Code, rr.Body.String())
	}
	if p := decode[handlers.PurchaseResponse](t, rr); p.Quantity != 4 || p.Purchased != 1 || p.Version != 2 {
		t.Fatalf("unexpected purchase response: %+v", p)
	}
}

func TestSweetRoutes_Errors(t *testing.T) {
	s := newTestServer(t, &config.Config{})
	adminTok := token(t, jwt.MapClaims{"sub": "admin-1", "role": "admin"})
	custTok := token(t, jwt.MapClaims{"sub": "cust-1", "role": "customer"})

	created := decode[handlers.SweetResponse](t, s.do(http.MethodPost, "/api/sweets", adminTok, `{"name":"Lollipop","category":"Hard Candy","price":"1.50","quantity":2}`))
	path := "/api/sweets/" + created.ID.String()

	tests := []struct {
		name     string
		method   string
		path     string
		tok      string
		body     string
		wantCode int
	}{
		{"anonymous list", http.MethodGet, "/api/sweets", "", "", http.StatusUnauthorized},
		{"bad token", http.MethodGet, "/api/sweets", "not.a.jwt", "", http.StatusUnauthorized},
		{"customer create", http.MethodPost, "/api/sweets", custTok, `{"name":"X","category":"Y","price":"1","quantity":1}`, http.StatusForbidden},
		{"customer update", http.MethodPut, path, custTok, `{"name":"X","category":"Y","price":"1","quantity":1}`, http.StatusForbidden},
		{"customer delete", http.MethodDelete, path, custTok, "", http.StatusForbidden},
		{"negative price", http.MethodPost, "/api/sweets", adminTok, `{"name":"X","category":"Y","price":-1,"quantity":5}`, http.StatusUnprocessableEntity},
		{"fractional quantity", http.MethodPost, "/api/sweets", adminTok, `{"name":"X","category":"Y","price":"1","quantity":2.5}`, http.StatusUnprocessableEntity},
		{"missing price", http.MethodPost, "/api/sweets", adminTok, `{"name":"X","category":"Y","quantity":2}`, http.StatusUnprocessableEntity},
		{"blank name", http.MethodPost, "/api/sweets", adminTok, `{"name":"  ","category":"Y","price":"1","quantity":2}`, http.StatusUnprocessableEntity},
		{"malformed json", http.MethodPost, "/api/sweets", adminTok, `{"name":`, http.StatusBadRequest},
		{"empty create body", http.MethodPost, "/api/sweets", adminTok, "", http.StatusBadRequest},
		{"purchase zero", http.MethodPost, path + "/purchase", custTok, `{"quantity":0}`, http.StatusUnprocessableEntity},
		{"purchase fraction", http.MethodPost, path + "/purchase", custTok, `{"quantity":1.5}`, http.StatusUnprocessableEntity},
		{"purchase too many", http.MethodPost, path + "/purchase", custTok, `{"quantity":3}`, http.StatusConflict},
		{"purchase anonymous", http.MethodPost, path + "/purchase", "", "", http.StatusUnauthorized},
		{"purchase unknown", http.MethodPost, "/api/sweets/5b0c6a5e-6f5c-4a52-9d61-2b7a0e1d9c10/purchase", custTok, "", http.StatusNotFound},
		{"malformed id", http.MethodGet, "/api/sweets/not-a-uuid", custTok, "", http.StatusNotFound},
		{"update unknown", http.MethodPut, "/api/sweets/5b0c6a5e-6f5c-4a52-9d61-2b7a0e1d9c10", adminTok, `{"name":"X","category":"Y","price":"1","quantity":1}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := s.do(tt.method, tt.path, tt.tok, tt.body)
			if rr.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d %s", tt.wantCode, rr.Code, rr.Body.String())
			}
			if body := decode[handlers.ErrorResponse](t, rr); body.Error == "" {
				t.Fatal("expected error message in body")
			}
		})
	}

	got := decode[handlers.SweetResponse](t, s.do(http.MethodGet, path, custTok, ""))
	if got.Quantity != 2 || got.Version != 1 {
		t.Fatalf("failed requests changed the sweet: %+v", got)
	}
}

func TestSweetRoutes_AnonymousBrowse(t *testing.T) {
	s := newTestServer(t, &config.Config{AllowAnonymousBrowse: true})
	adminTok := token(t, jwt.MapClaims{"sub": "admin-1", "role": "admin"})
	created := decode[handlers.SweetResponse](t, s.do(http.MethodPost, "/api/sweets", adminTok, `{"name":"Caramel","category":"Caramel","price":"2","quantity":6}`))

	if rr := s.do(http.MethodGet, "/api/sweets", "", ""); rr.Code != http.StatusOK {
		t.Fatalf("anonymous list: expected 200, got %d", rr.Code)
	}
	if rr := s.do(http.MethodGet, "/api/sweets/"+created.ID.String(), "", ""); rr.Code != http.StatusOK {
		t.Fatalf("anonymous get: expected 200, got %d", rr.Code)
	}
	if rr := s.do(http.MethodPost, "/api/sweets/"+created.ID.String()+"/purchase", "", ""); rr.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous purchase: expected 401, got %d", rr.Code)
	}
}

func TestSweetRoutes_WritesRequireIdentity(t *testing.T) {
	// Open browsing must not open the write routes.
	s := newTestServer(t, &config.Config{AllowAnonymousBrowse: true})
	unknown := "/api/sweets/5b0c6a5e-6f5c-4a52-9d61-2b7a0e1d9c10"

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"create", http.MethodPost, "/api/sweets", `{"name":`},
		{"update", http.MethodPut, unknown, `{"name":"X","category":"Y","price":"1","quantity":1}`},
		{"delete", http.MethodDelete, unknown, ""},
		{"purchase", http.MethodPost, unknown + "/purchase", ""},
		{"purchase malformed id", http.MethodPost, "/api/sweets/not-a-uuid/purchase", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := s.do(tt.method, tt.path, "", tt.body)
			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d %s", rr.Code, rr.Body.String())
			}
			if body := decode[handlers.ErrorResponse](t, rr); body.Error != auth.ErrUnauthenticated.Error() {
				t.Fatalf("unexpected error body: %+v", body)
			}
		})
	}
}

func TestSweetRoutes_ConcurrentPurchases(t *testing.T) {
	s := newTestServer(t, &config.Config{})
	adminTok := token(t, jwt.MapClaims{"sub": "admin-1", "role": "admin"})
	custTok := token(t, jwt.MapClaims{"sub": "cust-1", "role": "customer"})
	created := decode[handlers.SweetResponse](t, s.do(http.MethodPost, "/api/sweets", adminTok, `{"name":"Jelly Beans","category":"Gummies","price":"2.75","quantity":10}`))
	path := "/api/sweets/" + created.ID.String() + "/purchase"

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		counts = map[int]int{}
	)
	for range 25 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rr := s.do(http.MethodPost, path, custTok, `{"quantity":1}`)
			mu.Lock()
			counts[rr.Code]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	if counts[http.StatusOK] != 10 || counts[http.StatusConflict] != 15 {
		t.Fatalf("unexpected status counts: %v", counts)
	}
}
