package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequest_QueryAndResult(t *testing.T) {
	var gotQuery, gotKey, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotKey = r.Header.Get("X-Key")
		gotAccept = r.Header.Get("Accept")
		w.Write([]byte(`{"price":"10.5"}`))
	}))
	defer srv.Close()

	c, err := New(
		WithProviderName("test"),
		WithBaseURL(srv.URL),
		WithHeaders(map[string]string{"Accept": "application/json"}),
	)
	if err != nil {
		t.Fatal(err)
	}

	var out struct {
		Price string `json:"price"`
	}
	_, err = c.NewRequest(WithEndpoint("depth"), WithHeaderTracing("X-Key")).
		SetQueryParam("symbol", "VIRTUALUSDT").
		SetQueryParam("limit", "100").
		SetRawQuery("timestamp=1&signature=abc").
		SetHeader("X-Key", "k").
		SetResult(&out).
		Get(context.Background(), "/api/v3/depth")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if want := "limit=100&symbol=VIRTUALUSDT&timestamp=1&signature=abc"; gotQuery != want {
		t.Errorf("query = %q, want %q", gotQuery, want)
	}
	if gotKey != "k" || gotAccept != "application/json" {
		t.Errorf("headers = %q, %q", gotKey, gotAccept)
	}
	if out.Price != "10.5" {
		t.Errorf("price = %q", out.Price)
	}
}

func TestRequest_HeadersDoNotLeakBetweenRequests(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("X-Key"))
	}))
	defer srv.Close()

	c, err := New(WithBaseURL(srv.URL))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if _, err := c.NewRequest().SetHeader("X-Key", "secret").Get(ctx, "/a"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.NewRequest().Get(ctx, "/b"); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 2 || seen[0] != "secret" || seen[1] != "" {
		t.Errorf("seen = %v", seen)
	}
}

func TestRequest_Errors(t *testing.T) {
	sentinel := errors.New("bad request")

	tests := []struct {
		name     string
		status   int
		body     string
		handler  ResponseErrorHandler
		result   bool
		wantIs   error
		wantBody bool
	}{
		{
			name:   "handler error",
			status: http.StatusBadRequest,
			body:   `{"code":-1121,"msg":"Invalid symbol."}`,
			handler: func(status int, _ []byte) error {
				if status >= 400 {
					return sentinel
				}
				return nil
			},
			wantIs:   sentinel,
			wantBody: true,
		},
		{name: "status without handler", status: http.StatusServiceUnavailable, body: "down", wantBody: true},
		{name: "decode failure", status: http.StatusOK, body: "not json", result: true, wantBody: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c, err := New(WithBaseURL(srv.URL))
			if err != nil {
				t.Fatal(err)
			}

			var opts []RequestOption
			if tt.handler != nil {
				opts = append(opts, WithErrorHandler(tt.handler))
			}
			req := c.NewRequest(opts...)
			if tt.result {
				var out map[string]any
				req.SetResult(&out)
			}

			resp, err := req.Get(context.Background(), "/x")
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantIs != nil && !errors.Is(err, tt.wantIs) {
				t.Errorf("err = %v, want %v", err, tt.wantIs)
			}
			if tt.wantBody && (resp == nil || !strings.Contains(resp.String(), tt.body)) {
				t.Errorf("response should carry the body")
			}
		})
	}
}

func TestRequest_URL(t *testing.T) {
	c, err := New(WithBaseURL("https://api.example.com/"))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		path  string
		setup func(Request)
		want  string
	}{
		{"/api/v3/depth", func(Request) {}, "https://api.example.com/api/v3/depth"},
		{"api/v3/depth?x=1", func(r Request) { r.SetQueryParam("a", "b") }, "https://api.example.com/api/v3/depth?x=1&a=b"},
		{"https://other.example.com/p", func(r Request) { r.SetRawQuery("s=1") }, "https://other.example.com/p?s=1"},
	}
	for _, tt := range tests {
		r := c.NewRequest().(*request)
		tt.setup(r)
		if got := r.url(tt.path); got != tt.want {
			t.Errorf("url(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
