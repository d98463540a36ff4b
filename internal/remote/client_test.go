package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/appetiteclub/till/internal/ledger"
)

func TestClientConfigured(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		want     bool
	}{
		{name: "empty", endpoint: "", want: false},
		{name: "https", endpoint: "https://script.example.com/macros/s/abc/exec", want: true},
		{name: "http", endpoint: "http://localhost:9000/till", want: true},
		{name: "relative", endpoint: "/exec", want: false},
		{name: "otherScheme", endpoint: "ftp://example.com/x", want: false},
		{name: "garbage", endpoint: "::not a url", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewClient(tt.endpoint, time.Second, nil).Configured(); got != tt.want {
				t.Errorf("Configured() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFetchMenu(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Query().Get("action") != ActionGetMenu {
			t.Errorf("request = %s %s", r.Method, r.URL)
		}
		_, _ = w.Write([]byte(`{
			"status": "success",
			"menuItems": [
				{"id": "3", "name": "Takoyaki", "price": "60", "category": "Food"},
				{"id": 4, "name": "Green Tea", "price": 35.5, "category": "Drinks"},
				{"id": "x", "name": "Broken", "price": 1, "category": "Food"}
			],
			"categories": ["Food", "Drinks"]
		}`))
	}))
	defer srv.Close()

	menu, err := NewClient(srv.URL, time.Second, nil).FetchMenu(context.Background())
	if err != nil {
		t.Fatalf("FetchMenu() error = %v", err)
	}
	if len(menu.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(menu.Items))
	}
	if menu.Items[0].ID != 3 || !menu.Items[0].Price.Equal(decimal.NewFromInt(60)) {
		t.Errorf("first item = %+v", menu.Items[0])
	}
	if !menu.Items[1].Price.Equal(decimal.RequireFromString("35.5")) {
		t.Errorf("second price = %s, want 35.5", menu.Items[1].Price)
	}
	if len(menu.Categories) != 2 || menu.Categories[0] != "Food" {
		t.Errorf("categories = %v", menu.Categories)
	}
}

func TestFetchMenuErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr bool
	}{
		{
			name:    "httpError",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusBadGateway) },
			wantErr: true,
		},
		{
			name: "statusError",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"status":"error","message":"sheet missing"}`))
			},
			wantErr: true,
		},
		{
			name:    "badJSON",
			handler: func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`<html>`)) },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()
			_, err := NewClient(srv.URL, time.Second, nil).FetchMenu(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("FetchMenu() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSaveOrder(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "text/plain;charset=utf-8" {
			t.Errorf("Content-Type = %s", ct)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"status":"success"}`))
	}))
	defer srv.Close()

	o := ledger.Order{ID: "20240501-0001", Total: decimal.NewFromInt(150)}
	if err := NewClient(srv.URL, time.Second, nil).SaveOrder(context.Background(), o); err != nil {
		t.Fatalf("SaveOrder() error = %v", err)
	}
	if got["action"] != ActionSaveOrder {
		t.Errorf("action = %v, want %s", got["action"], ActionSaveOrder)
	}
	order, _ := got["order"].(map[string]interface{})
	if order["id"] != "20240501-0001" {
		t.Errorf("order id = %v", order["id"])
	}
}

func TestSaveOrderRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"error","message":"quota"}`))
	}))
	defer srv.Close()

	err := NewClient(srv.URL, time.Second, nil).SaveOrder(context.Background(), ledger.Order{ID: "x"})
	var remoteErr *Error
	if !errors.As(err, &remoteErr) || remoteErr.Message != "quota" {
		t.Errorf("SaveOrder() error = %v, want remote error quota", err)
	}
}

func TestNotConfigured(t *testing.T) {
	c := NewClient("", time.Second, nil)
	if _, err := c.FetchMenu(context.Background()); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("FetchMenu() error = %v, want %v", err, ErrNotConfigured)
	}
	if err := c.SaveOrder(context.Background(), ledger.Order{}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("SaveOrder() error = %v, want %v", err, ErrNotConfigured)
	}
}

func TestMutateReturnsItem(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"status":"success","item":{"id":"42","name":"Ramune","price":"40","category":"Drinks"}}`))
	}))
	defer srv.Close()

	reply, err := NewClient(srv.URL, time.Second, nil).Mutate(context.Background(), ActionAddMenuItem, map[string]interface{}{
		"item": map[string]interface{}{"name": "Ramune"},
	})
	if err != nil {
		t.Fatalf("Mutate() error = %v", err)
	}
	if got["action"] != ActionAddMenuItem || got["item"] == nil {
		t.Errorf("body = %v", got)
	}
	if reply.Item == nil || reply.Item.ID != 42 {
		t.Errorf("item = %+v, want id 42", reply.Item)
	}
}
