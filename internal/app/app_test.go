package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/appetiteclub/till/pkg/platform"
)

func TestNew(t *testing.T) {
	if _, err := New(nil, nil); err == nil {
		t.Error("New() without config should fail")
	}
	a, err := New(platform.NewConfig(), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if a.logger == nil {
		t.Error("New() should set noop logger when nil")
	}
	if err := a.Run(context.Background()); err == nil {
		t.Error("Run() before Initialize should fail")
	}
}

func TestNewBackend(t *testing.T) {
	tests := []struct {
		name      string
		driver    string
		wantErr   bool
		wantHooks bool
	}{
		{name: "memory", driver: DriverMemory},
		{name: "file", driver: DriverFile},
		{name: "mongo", driver: DriverMongo, wantHooks: true},
		{name: "postgres", driver: DriverPostgres, wantHooks: true},
		{name: "unknown", driver: "redis", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := platform.NewConfig()
			cfg.Set("storage.driver", tt.driver)
			cfg.Set("storage.file.dir", t.TempDir())

			kv, hooks, err := NewBackend(cfg, nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewBackend() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if kv == nil {
				t.Fatal("NewBackend() returned nil store")
			}
			if (hooks.OnStart != nil) != tt.wantHooks {
				t.Errorf("hooks present = %v, want %v", hooks.OnStart != nil, tt.wantHooks)
			}
		})
	}
}

func TestOpenBackendMemory(t *testing.T) {
	cfg := platform.NewConfig()
	cfg.Set("storage.driver", DriverMemory)

	kv, stop, err := OpenBackend(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("OpenBackend() error = %v", err)
	}
	if err := kv.Put(context.Background(), "k", []byte("v")); err != nil {
		t.Errorf("Put() error = %v", err)
	}
	if err := stop(context.Background()); err != nil {
		t.Errorf("stop() error = %v", err)
	}
}

func TestInitializeRoutes(t *testing.T) {
	cfg := platform.NewConfig()
	cfg.Set("storage.driver", DriverMemory)

	a, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := a.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{name: "health", path: "/healthz", status: http.StatusOK},
		{name: "settings", path: "/api/settings", status: http.StatusOK},
		{name: "menu", path: "/api/menu", status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			a.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if w.Code != tt.status {
				t.Errorf("GET %s = %d, want %d", tt.path, w.Code, tt.status)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" http://a.test , ,http://b.test")
	if len(got) != 2 || got[0] != "http://a.test" || got[1] != "http://b.test" {
		t.Errorf("splitList() = %v", got)
	}
}

func TestInitializeTaxRate(t *testing.T) {
	tests := []struct {
		name string
		rate interface{}
		want string
	}{
		{name: "default", want: "0.07"},
		{name: "zero", rate: 0, want: "0"},
		{name: "custom", rate: "0.1", want: "0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := platform.NewConfig()
			cfg.Set("storage.driver", DriverMemory)
			if tt.rate != nil {
				cfg.Set("tax.rate", tt.rate)
			}
			a, _ := New(cfg, nil)
			if err := a.Initialize(context.Background()); err != nil {
				t.Fatalf("Initialize() error = %v", err)
			}
			if got := a.engine.VatRate().String(); got != tt.want {
				t.Errorf("VatRate() = %s, want %s", got, tt.want)
			}
		})
	}
}
