package kite

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	c := NewClient("apikey", "token", srv.URL, "NSE", "MIS")
	return c, srv
}

func TestLTP(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/quote/ltp" {
			t.Errorf("path=%s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "token apikey:token" {
			t.Errorf("auth header=%q", got)
		}
		if got := r.Header.Get("X-Kite-Version"); got != "3" {
			t.Errorf("version header=%q", got)
		}
		if got := r.URL.Query().Get("i"); got != "NSE:RELIANCE" {
			t.Errorf("instrument=%q", got)
		}
		fmt.Fprint(w, `{"status":"success","data":{"NSE:RELIANCE":{"instrument_token":738561,"last_price":2495.35}}}`)
	})
	defer srv.Close()

	price, err := c.LTP(context.Background(), "reliance")
	if err != nil {
		t.Fatalf("LTP returned error: %v", err)
	}
	if price != 2495.35 {
		t.Fatalf("price=%v, expected 2495.35", price)
	}
}

func TestLTPAPIError(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"status":"error","message":"Incorrect api_key or access_token.","error_type":"TokenException"}`)
	})
	defer srv.Close()

	_, err := c.LTP(context.Background(), "RELIANCE")
	if err == nil || !strings.Contains(err.Error(), "TokenException") {
		t.Fatalf("expected TokenException error, got %v", err)
	}
}

func TestGetOHLC(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"success","data":{"NSE:INFY":{"last_price":1510.5,"ohlc":{"open":1500,"high":1520,"low":1490,"close":1505}}}}`)
	})
	defer srv.Close()

	q, err := c.GetOHLC(context.Background(), "INFY")
	if err != nil {
		t.Fatalf("GetOHLC returned error: %v", err)
	}
	if q.LastPrice != 1510.5 || q.OHLC.High != 1520 || q.OHLC.Low != 1490 {
		t.Fatalf("quote=%+v", q)
	}
}

func TestPlaceMarketOrder(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/orders/regular" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.PostForm.Get("tradingsymbol") != "RELIANCE" ||
			r.PostForm.Get("transaction_type") != "BUY" ||
			r.PostForm.Get("order_type") != "MARKET" ||
			r.PostForm.Get("quantity") != "5" ||
			r.PostForm.Get("product") != "MIS" {
			t.Errorf("form=%v", r.PostForm)
		}
		fmt.Fprint(w, `{"status":"success","data":{"order_id":"151220000000000"}}`)
	})
	defer srv.Close()

	id, err := c.PlaceMarketOrder(context.Background(), "reliance", SideBuy, 5)
	if err != nil {
		t.Fatalf("PlaceMarketOrder returned error: %v", err)
	}
	if id != "151220000000000" {
		t.Fatalf("order id=%q", id)
	}
}

func TestPositionsReturnsNet(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"success","data":{"net":[{"tradingsymbol":"SBIN","quantity":10,"average_price":550.5,"pnl":120}],"day":[]}}`)
	})
	defer srv.Close()

	positions, err := c.Positions(context.Background())
	if err != nil {
		t.Fatalf("Positions returned error: %v", err)
	}
	if len(positions) != 1 || positions[0].TradingSymbol != "SBIN" || positions[0].Quantity != 10 {
		t.Fatalf("positions=%+v", positions)
	}
}

func TestGenerateSessionChecksum(t *testing.T) {
	want := sha256.Sum256([]byte("apikey" + "reqtoken" + "secret"))

	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/session/token" {
			t.Errorf("path=%s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.PostForm.Get("checksum") != hex.EncodeToString(want[:]) {
			t.Errorf("checksum=%q", r.PostForm.Get("checksum"))
		}
		fmt.Fprint(w, `{"status":"success","data":{"access_token":"fresh-token","user_id":"AB1234"}}`)
	})
	defer srv.Close()

	token, err := c.GenerateSession(context.Background(), "reqtoken", "secret")
	if err != nil {
		t.Fatalf("GenerateSession returned error: %v", err)
	}
	if token != "fresh-token" {
		t.Fatalf("token=%q", token)
	}
	if c.AccessToken != "fresh-token" {
		t.Fatal("token not installed on client")
	}
}

func TestTokenPersistence(t *testing.T) {
	path := t.TempDir() + "/kite_token.json"

	if tok, err := LoadToken(path); err != nil || tok != "" {
		t.Fatalf("LoadToken on missing file: %q, %v", tok, err)
	}

	if err := SaveToken(path, "saved-token"); err != nil {
		t.Fatalf("SaveToken returned error: %v", err)
	}
	tok, err := LoadToken(path)
	if err != nil {
		t.Fatalf("LoadToken returned error: %v", err)
	}
	if tok != "saved-token" {
		t.Fatalf("token=%q", tok)
	}
}
