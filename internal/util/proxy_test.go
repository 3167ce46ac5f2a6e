package util

import (
	"net/http"
	"testing"
)

func TestNewProxyFunc_Explicit(t *testing.T) {
	proxy := NewProxyFunc("http://proxy.local:3128", "http://secure.local:3129", "localhost, .internal")

	req, _ := http.NewRequest(http.MethodGet, "https://www.wikidata.org/w/api.php", nil)
	u, err := proxy(req)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if u == nil || u.Host != "secure.local:3129" {
		t.Errorf("Expected https proxy, got %v", u)
	}

	req, _ = http.NewRequest(http.MethodGet, "http://example.com/", nil)
	u, _ = proxy(req)
	if u == nil || u.Host != "proxy.local:3128" {
		t.Errorf("Expected http proxy, got %v", u)
	}
}

func TestNewProxyFunc_NoProxy(t *testing.T) {
	proxy := NewProxyFunc("http://proxy.local:3128", "", "localhost, .internal")

	for _, raw := range []string{"http://localhost:8080/api", "http://annotations.internal/x"} {
		req, _ := http.NewRequest(http.MethodGet, raw, nil)
		u, err := proxy(req)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if u != nil {
			t.Errorf("Expected %s to bypass proxy, got %v", raw, u)
		}
	}
}
