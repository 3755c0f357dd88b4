package main

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

func newTestRouter(t *testing.T) *echo.Echo {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return newRouter(logrus.NewEntry(logger))
}

func postForm(e *echo.Echo, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestTranslate(t *testing.T) {
	e := newTestRouter(t)

	tests := []struct {
		name   string
		source string
		want   []string
	}{
		{
			name:   "Canonical",
			source: "eq(donor.gender, 'male')",
			want: []string{
				"eq(donor.gender,&#34;male&#34;)",
				"&#34;op&#34;: &#34;eq&#34;",
			},
		},
		{
			name:   "SyntaxError",
			source: "eq(test,)",
			want:   []string{"text-red-900", "syntax error"},
		},
		{
			name:   "SemanticError",
			source: "count(),select(*)",
			want:   []string{"text-red-900", "semantic error"},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			rec := postForm(e, "/translate", url.Values{"source": {test.source}})
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d; want %d", rec.Code, http.StatusOK)
			}
			body := rec.Body.String()
			for _, want := range test.want {
				if !strings.Contains(body, want) {
					t.Errorf("body = %q; does not contain %q", body, want)
				}
			}
		})
	}
}

func TestSuggest(t *testing.T) {
	e := newTestRouter(t)

	rec := postForm(e, "/suggest", url.Values{
		"source": {"eq(donor.g"},
		"start":  {"10"},
		"end":    {"10"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want %d", rec.Code, http.StatusOK)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `data-analysis-text-param="donor.gender"`) {
		t.Errorf("body = %q; want donor.gender completion", body)
	}
	if strings.Contains(body, "donor.age") {
		t.Errorf("body = %q; contains completion not matching prefix", body)
	}

	rec = postForm(e, "/suggest", url.Values{
		"source": {"eq(a,1)"},
		"start":  {"7"},
		"end":    {"7"},
	})
	if body := rec.Body.String(); !strings.Contains(body, "No completions.") {
		t.Errorf("body = %q; want no completions", body)
	}
}

func TestSuggestBadCursor(t *testing.T) {
	e := newTestRouter(t)

	tests := []url.Values{
		{"source": {"eq("}, "start": {"x"}, "end": {"3"}},
		{"source": {"eq("}, "start": {"3"}, "end": {""}},
		{"source": {"eq("}, "start": {"3"}, "end": {"4"}},
		{"source": {"eq("}, "start": {"3"}, "end": {"2"}},
	}
	for _, form := range tests {
		rec := postForm(e, "/suggest", form)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("POST /suggest %v: status = %d; want %d", form, rec.Code, http.StatusUnprocessableEntity)
		}
	}
}

func TestStatic(t *testing.T) {
	e := newTestRouter(t)

	for _, path := range []string{"/", "/app.js"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s: status = %d; want %d", path, rec.Code, http.StatusOK)
		}
		if rec.Body.Len() == 0 {
			t.Errorf("GET %s: empty body", path)
		}
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET /missing: status = %d; want %d", rec.Code, http.StatusNotFound)
	}
}

func TestServeListenerFailure(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	// Serving on a closed listener fails immediately.
	ln.Close()

	done := make(chan error, 1)
	go func() {
		done <- serveListener(context.Background(), logrus.NewEntry(logger), ln)
	}()
	select {
	case err := <-done:
		if err == nil {
			t.Error("serveListener returned <nil>; want error")
		}
	case <-time.After(10 * time.Second):
		t.Fatal("serveListener did not return after the server failed")
	}
}

func TestServeListenerShutdown(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- serveListener(ctx, logrus.NewEntry(logger), ln)
	}()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("serveListener: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("serveListener did not return after cancellation")
	}
}
