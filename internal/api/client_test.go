package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(url string) *Client {
	return New(url, "secret-token", 5*time.Second, time.Second)
}

func TestClient_SendsBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).SearchMemories("q", 5)
	if err != nil {
		t.Fatalf("SearchMemories failed: %v", err)
	}
	if gotAuth != "Bearer secret-token" {
		t.Errorf("Authorization = %q, want Bearer secret-token", gotAuth)
	}
}

func TestClient_OmitsAuthHeaderWithoutToken(t *testing.T) {
	var hasAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasAuth = r.Header["Authorization"]
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := New(srv.URL, "", 5*time.Second, time.Second)
	if _, err := c.SearchMemories("q", 5); err != nil {
		t.Fatalf("SearchMemories failed: %v", err)
	}
	if hasAuth {
		t.Error("Authorization header should be omitted when no token is set")
	}
}

func TestClient_SearchMemoriesRequestShape(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/memories/search" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&body)
		w.Write([]byte(`{"memories":[],"total":0}`))
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL).SearchMemories("find me", 7); err != nil {
		t.Fatalf("SearchMemories failed: %v", err)
	}
	if body["query"] != "find me" || body["limit"] != float64(7) || body["mode"] != "deep" {
		t.Errorf("request body = %v", body)
	}
}

func TestClient_ErrorCarriesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).GetThread("t1")
	apiErr, ok := err.(*Error)
	if !ok {
		t.Fatalf("err = %T, want *Error", err)
	}
	if apiErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want 500", apiErr.StatusCode)
	}
}

func TestSaveThread_RetriesServerErrors(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			http.Error(w, "try again", http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"thread":{"thread_id":"x"}}`))
	}))
	defer srv.Close()

	raw, err := newTestClient(srv.URL).SaveThread(map[string]string{"title": "t"}, 1)
	if err != nil {
		t.Fatalf("SaveThread failed: %v", err)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
	if len(raw) == 0 {
		t.Error("expected response body")
	}
}

func TestSaveThread_ClientErrorFailsFast(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		http.Error(w, "bad payload", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).SaveThread(map[string]string{}, 3)
	if err == nil {
		t.Fatal("SaveThread should fail")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (no retry on 422)", attempts)
	}
}

func TestSaveThread_NoContentEchoesPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	raw, err := newTestClient(srv.URL).SaveThread(map[string]string{"title": "t"}, 0)
	if err != nil {
		t.Fatalf("SaveThread failed: %v", err)
	}
	var resp struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "success" {
		t.Errorf("status = %q, want success", resp.Status)
	}
}

func TestClient_HealthAndAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.WriteHeader(http.StatusOK)
		case "/threads":
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	if ok, err := c.Health(); !ok {
		t.Errorf("Health = false (%v), want true", err)
	}
	if ok, err := c.AuthCheck(); ok || err == nil {
		t.Error("AuthCheck should fail on 401")
	}
}
