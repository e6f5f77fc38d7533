package util

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

func TestNewProxyFunc_Explicit(t *testing.T) {
	proxy := NewProxyFunc("http://proxy.local:3128", "http://secure.local:3128", "dbpedia.org")

	req := &http.Request{URL: &url.URL{Scheme: "https", Host: "query.wikidata.org"}}
	got, err := proxy(req)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Host != "secure.local:3128" {
		t.Errorf("Expected https proxy, got %v", got)
	}

	req = &http.Request{URL: &url.URL{Scheme: "https", Host: "dbpedia.org"}}
	got, err = proxy(req)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("Expected no_proxy host to bypass the proxy, got %v", got)
	}
}

func TestRobotsChecker_Preflight(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			fmt.Fprint(w, "User-agent: semsolver\nDisallow: /private\nCrawl-delay: 2\n")
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	checker := NewRobotsChecker("semsolver/0.3 (+https://example.org)", 5*time.Second, nil)

	delay, err := checker.Preflight(context.Background(), server.URL+"/sparql")
	if err != nil {
		t.Fatalf("Expected /sparql to be allowed, got %v", err)
	}
	if delay != 2*time.Second {
		t.Errorf("Expected 2s crawl delay, got %v", delay)
	}

	_, err = checker.Preflight(context.Background(), server.URL+"/private/sparql")
	if !errors.Is(err, ErrDisallowed) {
		t.Errorf("Expected ErrDisallowed, got %v", err)
	}
}

func TestRobotsChecker_MissingFileAllows(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	checker := NewRobotsChecker("semsolver", 5*time.Second, nil)
	allowed, _, err := checker.CanFetch(context.Background(), server.URL+"/sparql")
	if err != nil || !allowed {
		t.Errorf("Expected missing robots.txt to allow, got allowed=%v err=%v", allowed, err)
	}
}

func TestNormalizeUserAgent(t *testing.T) {
	if got := NormalizeUserAgent("semsolver/0.3 (+https://x)"); got != "semsolver" {
		t.Errorf("Expected semsolver, got %q", got)
	}
}
