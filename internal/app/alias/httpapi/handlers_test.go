package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"zoorl.local/gee"
	"zoorl.local/internal/app/alias"
	"zoorl.local/internal/app/alias/events"
	"zoorl.local/internal/app/alias/repo"
	"zoorl.local/internal/platform/auth"
)

var testNow = time.Date(2021, 7, 24, 17, 30, 0, 0, time.UTC)

const googleURL = "http://www.google.com"

type testServer struct {
	engine    *gee.Engine
	repo      *repo.MemoryRepo
	collector *events.ChannelCollector
}

func newTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()
	clock := alias.FixedClock(testNow)
	r := repo.NewMemoryRepo(clock)
	c := events.NewChannelCollector(16)
	t.Cleanup(c.Close)

	opts.Clock = clock
	opts.Collector = c
	e := gee.Default()
	RegisterRoutes(e, alias.NewService(r, clock), opts)
	return &testServer{engine: e, repo: r, collector: c}
}

func (s *testServer) do(method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func TestCreate_DefaultTTL(t *testing.T) {
	s := newTestServer(t, Options{})

	w := s.do(http.MethodPost, "/u", `{"url":"`+googleURL+`"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	got := decode[aliasResponse](t, w)
	want := aliasResponse{Alias: "bJd4bYF", URL: googleURL, Expiry: testNow.Add(24 * time.Hour).Unix()}
	if got != want {
		t.Fatalf("response = %+v, want %+v", got, want)
	}
	if _, ok, _ := s.repo.GetByAlias(context.Background(), "bJd4bYF"); !ok {
		t.Fatal("record not persisted")
	}
}

func TestCreate_ExplicitTTL(t *testing.T) {
	s := newTestServer(t, Options{})

	w := s.do(http.MethodPost, "/u", `{"url":"`+googleURL+`","ttl":1}`, nil)
	got := decode[aliasResponse](t, w)
	if got.Expiry != testNow.Add(time.Hour).Unix() {
		t.Fatalf("expiry = %d", got.Expiry)
	}

	// ttl 0 与缺省相同
	w = s.do(http.MethodPost, "/u", `{"url":"`+googleURL+`","ttl":0}`, nil)
	got = decode[aliasResponse](t, w)
	if got.Expiry != testNow.Add(24*time.Hour).Unix() {
		t.Fatalf("ttl 0 expiry = %d", got.Expiry)
	}
}

func TestCreate_BadInput(t *testing.T) {
	s := newTestServer(t, Options{})

	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"malformed json", `{"url":`},
		{"unknown field", `{"url":"http://a.example","code":"x"}`},
		{"missing url", `{}`},
		{"relative url", `{"url":"/just/a/path"}`},
		{"ftp scheme", `{"url":"ftp://files.example"}`},
		{"negative ttl", `{"url":"http://a.example","ttl":-1}`},
		{"huge ttl", `{"url":"http://a.example","ttl":1000000}`},
		{"string ttl", `{"url":"http://a.example","ttl":"1"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodPost, "/u", tt.body, nil)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
			}
			if body := decode[gee.ErrorResponse](t, w); body.Code != http.StatusBadRequest {
				t.Fatalf("error body = %+v", body)
			}
		})
	}
	if s.repo.Len() != 0 {
		t.Fatalf("bad input persisted %d records", s.repo.Len())
	}
}

func TestLookup(t *testing.T) {
	s := newTestServer(t, Options{})
	s.do(http.MethodPost, "/u", `{"url":"`+googleURL+`"}`, nil)

	w := s.do(http.MethodGet, "/u/bJd4bYF", "", map[string]string{"User-Agent": "test-agent"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	got := decode[aliasResponse](t, w)
	if got.URL != googleURL || got.Alias != "bJd4bYF" || got.Expiry != testNow.Add(24*time.Hour).Unix() {
		t.Fatalf("response = %+v", got)
	}

	select {
	case ev := <-s.collector.Events():
		if ev.Alias != "bJd4bYF" || ev.Redirect || ev.UserAgent != "test-agent" || !ev.ResolvedAt.Equal(testNow) {
			t.Fatalf("event = %+v", ev)
		}
	default:
		t.Fatal("no resolve event collected")
	}
}

func TestLookup_NotFound(t *testing.T) {
	s := newTestServer(t, Options{})

	for _, path := range []string{"/u/zzzzzzz", "/u/not-an-alias", "/u/toolongalias"} {
		w := s.do(http.MethodGet, path, "", nil)
		if w.Code != http.StatusNotFound {
			t.Fatalf("%s: status = %d", path, w.Code)
		}
		body := decode[gee.ErrorResponse](t, w)
		if body.Message != "The specified URL hash is invalid or expired!" || body.Code != 404 {
			t.Fatalf("%s: body = %+v", path, body)
		}
	}
	if len(s.collector.Events()) != 0 {
		t.Fatal("misses must not emit events")
	}
}

func TestLookup_Expired(t *testing.T) {
	s := newTestServer(t, Options{})
	_ = s.repo.Save(context.Background(), alias.Record{Alias: "old1", URL: googleURL, Expiry: testNow.Unix() - 1})

	if w := s.do(http.MethodGet, "/u/old1", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expired record: status = %d", w.Code)
	}
}

func TestRedirect(t *testing.T) {
	s := newTestServer(t, Options{})
	s.do(http.MethodPost, "/u", `{"url":"`+googleURL+`"}`, nil)

	w := s.do(http.MethodGet, "/r/bJd4bYF", "", map[string]string{"Referer": "https://ref.example/"})
	if w.Code != http.StatusMovedPermanently {
		t.Fatalf("status = %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != googleURL {
		t.Fatalf("Location = %q", loc)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/html" {
		t.Fatalf("Content-Type = %q", ct)
	}

	ev := <-s.collector.Events()
	if !ev.Redirect || ev.Referer != "https://ref.example/" {
		t.Fatalf("event = %+v", ev)
	}
}

func TestRedirect_NotFound(t *testing.T) {
	s := newTestServer(t, Options{})

	w := s.do(http.MethodGet, "/r/abc", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	if body := decode[gee.ErrorResponse](t, w); body.Message != "Alias 'abc' is unknown or expired!" {
		t.Fatalf("message = %q", body.Message)
	}
	if w.Header().Get("Location") != "" {
		t.Fatal("404 must not carry Location")
	}
}

type brokenRepo struct{}

func (brokenRepo) Save(context.Context, alias.Record) error {
	return errors.New("pq: connection refused to 10.0.0.5")
}

func (brokenRepo) GetByAlias(context.Context, string) (alias.Record, bool, error) {
	return alias.Record{}, false, errors.New("pq: connection refused to 10.0.0.5")
}

func TestStorageErrorsAreGeneric(t *testing.T) {
	e := gee.Default()
	RegisterRoutes(e, alias.NewService(brokenRepo{}, nil), Options{})

	cases := []struct{ method, path, body string }{
		{http.MethodPost, "/u", `{"url":"` + googleURL + `"}`},
		{http.MethodGet, "/u/bJd4bYF", ""},
		{http.MethodGet, "/r/bJd4bYF", ""},
	}
	for _, c := range cases {
		req := httptest.NewRequest(c.method, c.path, strings.NewReader(c.body))
		w := httptest.NewRecorder()
		e.ServeHTTP(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("%s %s: status = %d", c.method, c.path, w.Code)
		}
		body := decode[gee.ErrorResponse](t, w)
		if body.Message != "Internal server error" || strings.Contains(w.Body.String(), "10.0.0.5") {
			t.Fatalf("%s %s leaked detail: %s", c.method, c.path, w.Body.String())
		}
	}
}

func TestCreate_RequiresToken(t *testing.T) {
	ts, err := auth.NewHS256Service("secret", "zoorl", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	s := newTestServer(t, Options{Tokens: ts})
	body := `{"url":"` + googleURL + `"}`

	if w := s.do(http.MethodPost, "/u", body, nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status = %d", w.Code)
	}
	tok, _ := ts.Sign("ops", auth.ScopeCreate)
	if w := s.do(http.MethodPost, "/u", body, map[string]string{"Authorization": "Bearer " + tok}); w.Code != http.StatusOK {
		t.Fatalf("with token: status = %d", w.Code)
	}
	// 读取接口不需要 token
	if w := s.do(http.MethodGet, "/u/bJd4bYF", "", nil); w.Code != http.StatusOK {
		t.Fatalf("lookup: status = %d", w.Code)
	}
}

func TestRoundTrip(t *testing.T) {
	s := newTestServer(t, Options{})
	target := "https://jasonwatmore.com/post/2019/11/21/angular-http-post-request-examples"

	created := decode[aliasResponse](t, s.do(http.MethodPost, "/u", `{"url":"`+target+`","ttl":48}`, nil))
	if created.Alias != "3ZlbRMf" {
		t.Fatalf("alias = %q", created.Alias)
	}
	resolved := decode[aliasResponse](t, s.do(http.MethodGet, "/u/"+created.Alias, "", nil))
	if resolved != created {
		t.Fatalf("resolved %+v, created %+v", resolved, created)
	}
}
