package http_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-zelasli/framework/config"
	gohttp "github.com/km-arc/go-zelasli/framework/http"
	"github.com/km-arc/go-zelasli/framework/http/validation"
	"github.com/km-arc/go-zelasli/framework/session"
)

func newJSONRequest(t *testing.T, body string) *gohttp.Request {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json; charset=utf-8")
	return gohttp.NewRequest(r)
}

func newFormRequest(t *testing.T, target string, values url.Values) *gohttp.Request {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return gohttp.NewRequest(r)
}

func newGetRequest(t *testing.T, rawQuery string) *gohttp.Request {
	t.Helper()
	return gohttp.NewRequest(httptest.NewRequest(http.MethodGet, "/?"+rawQuery, nil))
}

// routed serves target through a chi route with pattern and returns the
// Request the handler saw.
func routed(t *testing.T, pattern, target string) *gohttp.Request {
	t.Helper()
	var got *gohttp.Request
	mux := chi.NewRouter()
	mux.Get(pattern, func(_ http.ResponseWriter, r *http.Request) {
		got = gohttp.NewRequest(r)
	})
	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, target, nil))
	require.NotNil(t, got, "route %s did not match %s", pattern, target)
	return got
}

// ── Binding ──────────────────────────────────────────────────────────────────

type notePayload struct {
	Title    string `json:"title" form:"title" validate:"required,min=2"`
	Priority int    `json:"priority" form:"prio"`
	Pinned   bool   `json:"pinned"`
}

func TestRequest_Bind(t *testing.T) {
	tests := []struct {
		name    string
		req     func(t *testing.T) *gohttp.Request
		want    notePayload
		wantErr bool
	}{
		{
			name: "json with charset",
			req: func(t *testing.T) *gohttp.Request {
				return newJSONRequest(t, `{"title":"Groceries","priority":2,"pinned":true}`)
			},
			want: notePayload{Title: "Groceries", Priority: 2, Pinned: true},
		},
		{
			name: "form tags and string conversion",
			req: func(t *testing.T) *gohttp.Request {
				return newFormRequest(t, "/", url.Values{"title": {"Groceries"}, "prio": {"3"}, "pinned": {"1"}})
			},
			want: notePayload{Title: "Groceries", Priority: 3, Pinned: true},
		},
		{
			name: "form ignores the query string",
			req: func(t *testing.T) *gohttp.Request {
				return newFormRequest(t, "/?title=FromQuery", url.Values{"prio": {"1"}})
			},
			want: notePayload{Priority: 1},
		},
		{
			name: "malformed json",
			req: func(t *testing.T) *gohttp.Request {
				return newJSONRequest(t, `{"title":`)
			},
			wantErr: true,
		},
		{
			name: "unconvertible form value",
			req: func(t *testing.T) *gohttp.Request {
				return newFormRequest(t, "/", url.Values{"prio": {"high"}})
			},
			wantErr: true,
		},
		{
			name: "unsupported media type",
			req: func(t *testing.T) *gohttp.Request {
				r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("title=x"))
				r.Header.Set("Content-Type", "text/plain")
				return gohttp.NewRequest(r)
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got notePayload
			err := tt.req(t).Bind(&got)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRequest_Bind_EmptyJSONBody(t *testing.T) {
	var p notePayload
	assert.ErrorIs(t, newJSONRequest(t, "").Bind(&p), gohttp.ErrEmptyBody)
}

func TestRequest_Bind_MultipartValues(t *testing.T) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("title", "Upload"))
	require.NoError(t, w.WriteField("prio", "5"))
	require.NoError(t, w.Close())

	r := httptest.NewRequest(http.MethodPost, "/", &buf)
	r.Header.Set("Content-Type", w.FormDataContentType())
	req := gohttp.NewRequest(r)

	var p notePayload
	require.NoError(t, req.Bind(&p))
	assert.Equal(t, notePayload{Title: "Upload", Priority: 5}, p)
	assert.Equal(t, "Upload", req.Input("title"))
}

func TestRequest_BindValid(t *testing.T) {
	var ok notePayload
	errs, err := newJSONRequest(t, `{"title":"Groceries"}`).BindValid(&ok)
	require.NoError(t, err)
	assert.Nil(t, errs)

	var short notePayload
	errs, err = newJSONRequest(t, `{"title":"G"}`).BindValid(&short)
	require.NoError(t, err)
	require.NotNil(t, errs)
	assert.NotEmpty(t, errs.First("title"))

	_, err = newJSONRequest(t, `{`).BindValid(&short)
	assert.Error(t, err)
}

// ── Input ────────────────────────────────────────────────────────────────────

func TestRequest_Input_Precedence(t *testing.T) {
	req := routed(t, "/notes/{id}", "/notes/7")
	assert.Equal(t, "7", req.Input("id"))
	assert.Equal(t, "7", req.RouteParam("id"))
	assert.Equal(t, "fallback", req.Input("title", "fallback"))

	req = routed(t, "/notes/{id}", "/notes/7?id=9")
	assert.Equal(t, "9", req.Input("id"), "query input wins over the route parameter")
	assert.Equal(t, "7", req.RouteParam("id"))

	req = newFormRequest(t, "/?title=query", url.Values{"title": {"body"}})
	assert.Equal(t, "body", req.Input("title"), "body input wins over the query string")
	assert.Equal(t, "query", req.Query("title"))
	assert.Equal(t, "1", req.Query("page", "1"))
}

func TestRequest_All(t *testing.T) {
	req := newFormRequest(t, "/?page=2", url.Values{"title": {"a", "b"}})
	assert.Equal(t, map[string]string{"title": "a", "page": "2"}, req.All())
}

func TestRequest_HasAndFilled(t *testing.T) {
	req := newGetRequest(t, "name=Ada&blank=%20&empty=")

	assert.True(t, req.Has("name"))
	assert.True(t, req.Has("empty"))
	assert.False(t, req.Has("missing"))

	assert.True(t, req.Filled("name"))
	assert.False(t, req.Filled("blank"))
	assert.False(t, req.Filled("empty"))
}

func TestRequest_Validate(t *testing.T) {
	rules := validation.Rules{
		"company": "required_if:type,business",
		"start":   "required|date_after:2024-01-01",
	}

	v := newGetRequest(t, "type=business&start=2023-05-01").Validate(rules)
	require.True(t, v.Fails())
	assert.Equal(t, "The company field is required when type is business.", v.Errors().First("company"))
	assert.Equal(t, "The start must be a date after 2024-01-01.", v.Errors().First("start"))

	v = newGetRequest(t, "type=personal&start=2024-05-01").Validate(rules)
	assert.True(t, v.Passes(), "errors: %v", v.Errors().Bag)
}

// ── Session, cookies and target ──────────────────────────────────────────────

func TestRequest_Session(t *testing.T) {
	assert.Nil(t, newGetRequest(t, "").Session())

	m := session.NewManager(config.SessionConfig{Cookie: "sid", Lifetime: time.Hour}, nil, nil)
	var got *session.Session
	m.Start(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := gohttp.NewRequest(r)
		got = req.Session()
		got.Set("visits", 1)
	})).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotNil(t, got)
	assert.Equal(t, 1, got.Get("visits", 0))
}

func TestRequest_CookieAndTarget(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/notes?page=2", nil)
	r.AddCookie(&http.Cookie{Name: "theme", Value: "dark"})
	req := gohttp.NewRequest(r)

	assert.Equal(t, "dark", req.Cookie("theme"))
	assert.Empty(t, req.Cookie("missing"))
	assert.Equal(t, "/notes?page=2", req.Target())
	assert.Equal(t, "/notes", req.Path())
	assert.Equal(t, http.MethodGet, req.Method())
}

// ── Headers ──────────────────────────────────────────────────────────────────

func TestRequest_BearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc.def", "abc.def"},
		{"bearer abc.def", "abc.def"},
		{"Basic dXNlcjpwYXNz", ""},
		{"Bearer", ""},
		{"", ""},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", tt.header)
		assert.Equal(t, tt.want, gohttp.NewRequest(r).BearerToken(), tt.header)
	}
}

func TestRequest_IsJSON(t *testing.T) {
	tests := []struct {
		contentType, accept string
		want                bool
	}{
		{"application/json", "", true},
		{"Application/JSON; charset=utf-8", "", true},
		{"", "text/html, application/json;q=0.9", true},
		{"application/x-www-form-urlencoded", "text/html", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Content-Type", tt.contentType)
		r.Header.Set("Accept", tt.accept)
		assert.Equal(t, tt.want, gohttp.NewRequest(r).IsJSON(), "%q / %q", tt.contentType, tt.accept)
	}
}

func TestRequest_IP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "203.0.113.9:52100"
	assert.Equal(t, "203.0.113.9", gohttp.NewRequest(r).IP())

	r.RemoteAddr = "203.0.113.9"
	assert.Equal(t, "203.0.113.9", gohttp.NewRequest(r).IP())
}

// ── Uploads ──────────────────────────────────────────────────────────────────

func TestRequest_Files(t *testing.T) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, name := range []string{"a.txt", "b.txt"} {
		fw, err := w.CreateFormFile("attachments", name)
		require.NoError(t, err)
		_, _ = fw.Write([]byte(name))
	}
	require.NoError(t, w.Close())

	r := httptest.NewRequest(http.MethodPost, "/", &buf)
	r.Header.Set("Content-Type", w.FormDataContentType())
	req := gohttp.NewRequest(r)

	files, err := req.Files("attachments")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "b.txt", files[1].Filename)

	fh, err := req.File("attachments")
	require.NoError(t, err)
	assert.Equal(t, "a.txt", fh.Filename)

	_, err = req.File("avatar")
	assert.ErrorIs(t, err, http.ErrMissingFile)

	_, err = newGetRequest(t, "").File("avatar")
	assert.Error(t, err)
}
