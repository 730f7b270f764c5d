package serper

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_SearchSendsKeyAndParams(t *testing.T) {
	var gotPath string
	var gotHeaders http.Header
	var gotBody map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotHeaders = r.Header.Clone()
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"organic":[]}`))
	}))
	defer srv.Close()

	client := NewClient("test-api-key", WithBaseURL(srv.URL))
	result, err := client.Search(context.Background(), Query{
		Q:   "openai company",
		GL:  "us",
		Num: 10,
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if string(result) != `{"organic":[]}` {
		t.Errorf("result = %s", result)
	}

	if gotPath != "/search" {
		t.Errorf("path = %s, want /search", gotPath)
	}
	if gotHeaders.Get("X-API-KEY") != "test-api-key" {
		t.Errorf("X-API-KEY = %q", gotHeaders.Get("X-API-KEY"))
	}
	if gotHeaders.Get("Authorization") != "Bearer test-api-key" {
		t.Errorf("Authorization = %q", gotHeaders.Get("Authorization"))
	}

	if gotBody["q"] != "openai company" {
		t.Errorf("body q = %v", gotBody["q"])
	}
	if gotBody["gl"] != "us" {
		t.Errorf("body gl = %v", gotBody["gl"])
	}
	if gotBody["num"] != float64(10) {
		t.Errorf("body num = %v", gotBody["num"])
	}
	// Unset optional params stay out of the upstream body.
	if _, present := gotBody["location"]; present {
		t.Error("body carries unset location")
	}
	if _, present := gotBody["page"]; present {
		t.Error("body carries unset page")
	}
	// autocorrect is always sent, matching the upstream default handling.
	if _, present := gotBody["autocorrect"]; !present {
		t.Error("body missing autocorrect")
	}
}

func TestClient_EndpointPaths(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient("", WithBaseURL(srv.URL))
	ctx := context.Background()
	if _, err := client.Search(ctx, Query{Q: "a"}); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if _, err := client.News(ctx, Query{Q: "b"}); err != nil {
		t.Fatalf("News() error = %v", err)
	}
	if _, err := client.Scholar(ctx, Query{Q: "c"}); err != nil {
		t.Fatalf("Scholar() error = %v", err)
	}

	want := []string{"/search", "/news", "/scholar"}
	for i, p := range want {
		if paths[i] != p {
			t.Errorf("call %d path = %s, want %s", i, paths[i], p)
		}
	}
}

func TestClient_NoKeyOmitsAuthHeaders(t *testing.T) {
	var gotHeaders http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient("", WithBaseURL(srv.URL))
	if _, err := client.Search(context.Background(), Query{Q: "a"}); err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if gotHeaders.Get("X-API-KEY") != "" {
		t.Error("X-API-KEY sent without a configured key")
	}
	if gotHeaders.Get("Authorization") != "" {
		t.Error("Authorization sent without a configured key")
	}
}

func TestClient_UpstreamErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewClient("bad-key", WithBaseURL(srv.URL))
	if _, err := client.Search(context.Background(), Query{Q: "a"}); err == nil {
		t.Error("Search() returned no error for upstream 403")
	}
}

func TestQueryFromArgs(t *testing.T) {
	q := queryFromArgs(map[string]interface{}{
		"q":           "retrieval augmented generation",
		"gl":          "us",
		"hl":          "en",
		"location":    "Zurich, Switzerland",
		"autocorrect": true,
		"num":         float64(10),
		"page":        float64(2),
	})

	if q.Q != "retrieval augmented generation" || q.GL != "us" || q.HL != "en" {
		t.Errorf("unexpected query: %+v", q)
	}
	if q.Location != "Zurich, Switzerland" {
		t.Errorf("location = %q", q.Location)
	}
	if !q.Autocorrect {
		t.Error("autocorrect not set")
	}
	if q.Num != 10 || q.Page != 2 {
		t.Errorf("num/page = %d/%d", q.Num, q.Page)
	}

	// Missing and mistyped args degrade to zero values.
	q = queryFromArgs(map[string]interface{}{"q": 42, "num": "ten"})
	if q.Q != "" || q.Num != 0 {
		t.Errorf("mistyped args not zeroed: %+v", q)
	}
}

func TestDefaultPrice(t *testing.T) {
	price := DefaultPrice()
	if price.Amount != "10000000000000" {
		t.Errorf("amount = %s", price.Amount)
	}
	if price.Asset.Network != "sepolia" {
		t.Errorf("network = %s", price.Asset.Network)
	}
	if price.Asset.EIP712.Name != "IATPWallet" || price.Asset.EIP712.Version != "1" {
		t.Errorf("signing domain = %+v", price.Asset.EIP712)
	}
}
