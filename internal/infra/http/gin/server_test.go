package ginserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"

	"tinyhouse/internal/app/apperr"
	"tinyhouse/internal/app/commands"
	"tinyhouse/internal/app/dto"
	authapp "tinyhouse/internal/app/handlers/auth"
	bookingapp "tinyhouse/internal/app/handlers/bookings"
	listingapp "tinyhouse/internal/app/handlers/listings"
	usersapp "tinyhouse/internal/app/handlers/users"
	"tinyhouse/internal/app/queries"
	"tinyhouse/internal/app/services/session"
	domainlistings "tinyhouse/internal/domain/listings"
	domainuser "tinyhouse/internal/domain/user"
	"tinyhouse/internal/infra/config"
	"tinyhouse/internal/infra/obs"
	"tinyhouse/internal/infra/security"
)

type fakeResolver struct {
	subject domainuser.ID
	token   string
	err     error
}

func (f *fakeResolver) Viewer(ctx context.Context, subject domainuser.ID, token string) (domainuser.Viewer, error) {
	if f.err != nil {
		return domainuser.Viewer{}, f.err
	}
	if subject == f.subject && token == f.token {
		return domainuser.Viewer{ID: subject, Token: token, DidRequest: true}, nil
	}
	return domainuser.Anonymous(), nil
}

type harness struct {
	router   *gin.Engine
	signer   *security.CookieSigner
	resolver *fakeResolver
	commands commands.BusFunc
	queries  queries.BusFunc
}

func newHarness(t *testing.T, cmds commands.BusFunc, qs queries.BusFunc) *harness {
	t.Helper()
	signer, err := security.NewCookieSigner(security.CookieSignerParams{Secret: "test-secret"})
	if err != nil {
		t.Fatal(err)
	}
	resolver := &fakeResolver{subject: "g-1", token: "tok"}
	cfg := config.Config{Env: "test", PublicURL: "http://localhost:3000", LoginRatePerMin: 60, LoginBurst: 2}
	viewer := ViewerMiddleware{Resolver: resolver, Cookies: signer}
	router := NewRouter(cfg, obs.Middleware{}, obs.HealthHandlers{}, Handlers{
		Auth:    AuthHandler{Commands: cmds, Queries: qs, Cookies: signer},
		User:    UserHandler{Queries: qs},
		Listing: ListingHandler{Commands: cmds, Queries: qs},
		Booking: BookingHandler{Commands: cmds},
		Wallet:  WalletHandler{Commands: cmds},
		Viewer:  viewer.Handle,
	})
	return &harness{router: router, signer: signer, resolver: resolver, commands: cmds, queries: qs}
}

func (h *harness) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func (h *harness) authed(t *testing.T, req *http.Request) *http.Request {
	t.Helper()
	value, err := h.signer.Sign("g-1")
	if err != nil {
		t.Fatal(err)
	}
	req.AddCookie(&http.Cookie{Name: ViewerCookie, Value: value})
	req.Header.Set(CSRFHeader, "tok")
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, into any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), into); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestLoginIssuesCookie(t *testing.T) {
	var got authapp.LoginCommand
	cmds := commands.BusFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
		got = cmd.(authapp.LoginCommand)
		return &session.Result{
			Viewer: domainuser.Viewer{ID: "g-1", Token: "tok", Avatar: "a.png", DidRequest: true},
			Cookie: session.CookieIssue,
		}, nil
	})
	h := newHarness(t, cmds, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"code":"abc"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := h.do(t, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	if got.Code != "abc" || got.CookieSubject != "" {
		t.Fatalf("command = %+v", got)
	}
	cookie := rec.Header().Get("Set-Cookie")
	for _, want := range []string{ViewerCookie + "=", "HttpOnly", "SameSite=Strict", "Path=/"} {
		if !strings.Contains(cookie, want) {
			t.Errorf("Set-Cookie %q missing %q", cookie, want)
		}
	}
	var body dto.Viewer
	decode(t, rec, &body)
	if body.ID != "g-1" || body.Token != "tok" || !body.DidRequest || body.HasWallet != nil {
		t.Errorf("body = %+v", body)
	}
}

func TestLoginResumesFromCookie(t *testing.T) {
	var got authapp.LoginCommand
	cmds := commands.BusFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
		got = cmd.(authapp.LoginCommand)
		return &session.Result{Viewer: domainuser.Anonymous(), Cookie: session.CookieClear}, nil
	})
	h := newHarness(t, cmds, nil)

	value, _ := h.signer.Sign("g-9")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	req.AddCookie(&http.Cookie{Name: ViewerCookie, Value: value})
	rec := h.do(t, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	if got.CookieSubject != "g-9" || got.Code != "" {
		t.Fatalf("command = %+v", got)
	}
	if cookie := rec.Header().Get("Set-Cookie"); !strings.Contains(cookie, "Max-Age=0") {
		t.Errorf("cookie not cleared: %q", cookie)
	}
	if body := rec.Body.String(); body != `{"didRequest":true}` {
		t.Errorf("body = %s", body)
	}
}

func TestLoginRateLimited(t *testing.T) {
	cmds := commands.BusFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
		return &session.Result{Viewer: domainuser.Anonymous()}, nil
	})
	h := newHarness(t, cmds, nil)
	var last int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		last = h.do(t, req).Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("third login status = %d, want 429", last)
	}
}

func TestAuthURL(t *testing.T) {
	qs := queries.BusFunc(func(ctx context.Context, q queries.Query) (any, error) {
		return "https://accounts.example.com/auth", nil
	})
	h := newHarness(t, nil, qs)
	rec := h.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/auth/url", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"url":"https://accounts.example.com/auth"`) {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
}

func TestViewerResolution(t *testing.T) {
	var seen []domainuser.Viewer
	qs := queries.BusFunc(func(ctx context.Context, q queries.Query) (any, error) {
		seen = append(seen, q.(usersapp.GetUserQuery).Viewer)
		return dto.UserDetail{ID: "g-1"}, nil
	})
	h := newHarness(t, nil, qs)

	h.do(t, h.authed(t, httptest.NewRequest(http.MethodGet, "/api/v1/users/g-1", nil)))

	noHeader := h.authed(t, httptest.NewRequest(http.MethodGet, "/api/v1/users/g-1", nil))
	noHeader.Header.Del(CSRFHeader)
	h.do(t, noHeader)

	tampered := httptest.NewRequest(http.MethodGet, "/api/v1/users/g-1", nil)
	tampered.AddCookie(&http.Cookie{Name: ViewerCookie, Value: "g-1"})
	tampered.Header.Set(CSRFHeader, "tok")
	h.do(t, tampered)

	if len(seen) != 3 {
		t.Fatalf("queries = %d", len(seen))
	}
	if seen[0].ID != "g-1" {
		t.Errorf("signed cookie with token should resolve, got %+v", seen[0])
	}
	for i, v := range seen[1:] {
		if v.Authenticated() {
			t.Errorf("request %d should be anonymous, got %+v", i+1, v)
		}
	}
}

func TestViewerStoreFailureAborts(t *testing.T) {
	called := false
	qs := queries.BusFunc(func(ctx context.Context, q queries.Query) (any, error) {
		called = true
		return dto.UserDetail{}, nil
	})
	h := newHarness(t, nil, qs)
	h.resolver.err = apperr.Store("authz.ResolveViewer", errors.New("connection reset"))

	rec := h.do(t, h.authed(t, httptest.NewRequest(http.MethodGet, "/api/v1/users/g-1", nil)))
	if rec.Code != http.StatusInternalServerError || called {
		t.Fatalf("status = %d, handler called = %v", rec.Code, called)
	}
	if strings.Contains(rec.Body.String(), "connection reset") {
		t.Errorf("store cause leaked: %s", rec.Body.String())
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		kind   apperr.Kind
	}{
		{apperr.NotFound("listings.get", domainlistings.ErrNotFound), http.StatusNotFound, apperr.KindNotFound},
		{apperr.Invalid("listings.get", "bad"), http.StatusBadRequest, apperr.KindValidation},
		{apperr.NotAuthenticated("x", "viewer cannot be found"), http.StatusUnauthorized, apperr.KindNotAuthenticated},
		{apperr.Conflict("x", errors.New("taken")), http.StatusConflict, apperr.KindConflict},
		{apperr.Provider("x", errors.New("timeout")), http.StatusBadGateway, apperr.KindProvider},
		{errors.New("boom"), http.StatusInternalServerError, apperr.KindStore},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			qs := queries.BusFunc(func(ctx context.Context, q queries.Query) (any, error) {
				return nil, tt.err
			})
			h := newHarness(t, nil, qs)
			rec := h.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/listings/l-1", nil))
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			var body struct {
				Error string `json:"error"`
				Kind  string `json:"kind"`
			}
			decode(t, rec, &body)
			if body.Kind != string(tt.kind) || body.Error == "" {
				t.Errorf("body = %+v", body)
			}
		})
	}
}

func TestSearchParsesQuery(t *testing.T) {
	var got listingapp.SearchListingsQuery
	qs := queries.BusFunc(func(ctx context.Context, q queries.Query) (any, error) {
		got = q.(listingapp.SearchListingsQuery)
		return dto.ListingsPage{}, nil
	})
	h := newHarness(t, nil, qs)
	rec := h.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/listings?location=Toronto&sort=price_low_to_high&page=2&limit=4", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	want := listingapp.SearchListingsQuery{Location: "Toronto", Sort: domainlistings.SortPriceLowToHigh, Page: 2, Limit: 4}
	if got != want {
		t.Fatalf("query = %+v, want %+v", got, want)
	}
}

func TestCreateBookingForwardsIdempotencyKey(t *testing.T) {
	var got bookingapp.CreateBookingCommand
	cmds := commands.BusFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
		got = cmd.(bookingapp.CreateBookingCommand)
		return &dto.BookingView{ID: "b-1"}, nil
	})
	h := newHarness(t, cmds, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings",
		strings.NewReader(`{"id":"l-1","source":"tok_visa","checkIn":"2030-01-01","checkOut":"2030-01-03"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(IdempotencyHeader, " key-1 ")
	rec := h.do(t, h.authed(t, req))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	if got.IdempotencyKey() != "g-1:key-1" || got.ListingID != "l-1" || got.CheckOut != "2030-01-03" {
		t.Fatalf("command = %+v", got)
	}
}

func TestInvalidPayload(t *testing.T) {
	called := false
	cmds := commands.BusFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
		called = true
		return nil, nil
	})
	h := newHarness(t, cmds, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/listings", strings.NewReader(`{"price":"free"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := h.do(t, req)
	if rec.Code != http.StatusBadRequest || called {
		t.Fatalf("status = %d, dispatched = %v", rec.Code, called)
	}
}

func TestRateLimiterSweepsIdleVisitors(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := newIPRateLimiter(60, 1)
	rl.now = func() time.Time { return now }
	if !rl.allow("a") || rl.allow("a") {
		t.Fatal("burst of one not enforced")
	}
	now = now.Add(time.Hour)
	rl.allow("b")
	if _, ok := rl.visitors["a"]; ok {
		t.Error("idle visitor not swept")
	}
}
