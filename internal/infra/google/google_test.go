package google

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestAuthURL(t *testing.T) {
	c := NewOAuthClient(OAuthConfig{ClientID: "cid", RedirectURL: "http://localhost:3000/login"})
	u, err := url.Parse(c.AuthURL())
	if err != nil {
		t.Fatal(err)
	}
	q := u.Query()
	if q.Get("client_id") != "cid" || q.Get("redirect_uri") != "http://localhost:3000/login" || q.Get("access_type") != "online" || q.Get("response_type") != "code" {
		t.Errorf("query = %v", q)
	}
	if !strings.Contains(q.Get("scope"), "userinfo.email") || !strings.Contains(q.Get("scope"), "userinfo.profile") {
		t.Errorf("scope = %q", q.Get("scope"))
	}
}

func TestExchange(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if r.Form.Get("code") != "auth-code" || r.Form.Get("grant_type") != "authorization_code" || r.Form.Get("client_id") != "cid" {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"at-1","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-1" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"sub":"g-123","name":"Ann","picture":"https://img/a.png","email":"ann@example.com"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewOAuthClient(OAuthConfig{ClientID: "cid", TokenURL: srv.URL + "/token", UserInfoURL: srv.URL + "/userinfo", HTTPClient: srv.Client()})
	p, err := c.Exchange(context.Background(), "auth-code")
	if err != nil {
		t.Fatalf("Exchange() error = %v", err)
	}
	if p.ID != "g-123" || p.Name != "Ann" || p.Avatar != "https://img/a.png" || p.Contact != "ann@example.com" {
		t.Errorf("profile = %+v", p)
	}

	if _, err := c.Exchange(context.Background(), "wrong"); err == nil {
		t.Fatal("rejected code must fail")
	}
}

func TestExchangeEmptyToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"token_type":"Bearer"}`))
	}))
	defer srv.Close()

	c := NewOAuthClient(OAuthConfig{TokenURL: srv.URL})
	if _, err := c.Exchange(context.Background(), "c"); err == nil || !strings.Contains(err.Error(), "access_token") {
		t.Fatalf("error = %v", err)
	}
}

func TestGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("address") {
		case "Toronto":
			w.Write([]byte(`{"status":"OK","results":[{"address_components":[
				{"long_name":"Toronto","types":["locality","political"]},
				{"long_name":"Ontario","types":["administrative_area_level_1","political"]},
				{"long_name":"Canada","types":["country","political"]}]}]}`))
		case "nowhere":
			w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
		default:
			w.Write([]byte(`{"status":"REQUEST_DENIED","error_message":"bad key"}`))
		}
	}))
	defer srv.Close()

	g := &Geocoder{Key: "k", URL: srv.URL, HTTPClient: srv.Client()}
	loc, err := g.Geocode(context.Background(), "Toronto")
	if err != nil {
		t.Fatalf("Geocode() error = %v", err)
	}
	if loc.Country != "Canada" || loc.Admin != "Ontario" || loc.City != "Toronto" {
		t.Errorf("loc = %+v", loc)
	}
	if _, err := g.Geocode(context.Background(), "nowhere"); !errors.Is(err, ErrNoGeocodeResult) {
		t.Errorf("zero results error = %v", err)
	}
	if _, err := g.Geocode(context.Background(), "denied"); err == nil || !strings.Contains(err.Error(), "REQUEST_DENIED") {
		t.Errorf("denied error = %v", err)
	}
	if _, err := (&Geocoder{}).Geocode(context.Background(), "Toronto"); !errors.Is(err, ErrGeocodeKeyMissing) {
		t.Errorf("missing key error = %v", err)
	}
}
