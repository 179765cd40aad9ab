package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-viper/mapstructure/v2"

	"github.com/km-arc/go-zelasli/framework/http/validation"
	"github.com/km-arc/go-zelasli/framework/session"
)

const maxMemory = 32 << 20 // 32 MB

// ErrEmptyBody is returned by Bind when a JSON request has no body.
var ErrEmptyBody = errors.New("empty request body")

// Request wraps the incoming *http.Request handed to controllers.
type Request struct {
	raw *http.Request
}

// NewRequest wraps a standard *http.Request.
func NewRequest(r *http.Request) *Request {
	return &Request{raw: r}
}

// Raw returns the underlying *http.Request.
func (req *Request) Raw() *http.Request { return req.raw }

// ── Binding ──────────────────────────────────────────────────────────────────

// Bind decodes the request body into v according to its media type.
//
// JSON bodies use the `json` tags of v. Url-encoded and multipart forms use
// the `form` tags, or the field name compared case-insensitively, and
// convert strings to the field's kind ("42" into an int field).
func (req *Request) Bind(v any) error {
	switch req.mediaType() {
	case "application/json":
		return req.decodeJSON(v)
	case "multipart/form-data":
		if err := req.raw.ParseMultipartForm(maxMemory); err != nil {
			return err
		}
		return decodeForm(req.raw.MultipartForm.Value, v)
	case "application/x-www-form-urlencoded", "":
		if err := req.raw.ParseForm(); err != nil {
			return err
		}
		return decodeForm(req.raw.PostForm, v)
	default:
		return fmt.Errorf("unsupported content type %q", req.ContentType())
	}
}

func (req *Request) decodeJSON(v any) error {
	if req.raw.Body == nil || req.raw.Body == http.NoBody {
		return ErrEmptyBody
	}
	defer req.raw.Body.Close()
	err := json.NewDecoder(req.raw.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return ErrEmptyBody
	}
	return err
}

func decodeForm(values map[string][]string, v any) error {
	in := make(map[string]any, len(values))
	for k, vals := range values {
		if len(vals) == 1 {
			in[k] = vals[0]
		} else {
			in[k] = vals
		}
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "form",
		WeaklyTypedInput: true,
		Result:           v,
	})
	if err != nil {
		return err
	}
	return dec.Decode(in)
}

// BindValid binds the body into v and checks its validate tags.
// A nil *validation.Errors means v is valid.
func (req *Request) BindValid(v any) (*validation.Errors, error) {
	if err := req.Bind(v); err != nil {
		return nil, err
	}
	return validation.Struct(v)
}

// Validate runs rules over All().
//
//	if v := req.Validate(validation.Rules{"email": "required|email"}); v.Fails() { ... }
func (req *Request) Validate(rules validation.Rules) *validation.Validator {
	return validation.Make(req.All(), rules)
}

// ── Input ────────────────────────────────────────────────────────────────────

// Input returns a body or query value, falling back to the route parameter
// of the same name and then to fallback.
func (req *Request) Input(key string, fallback ...string) string {
	if v := req.form().Get(key); v != "" {
		return v
	}
	if v := req.RouteParam(key); v != "" {
		return v
	}
	return first(fallback, "")
}

// Query returns a query-string value or fallback.
func (req *Request) Query(key string, fallback ...string) string {
	if v := req.raw.URL.Query().Get(key); v != "" {
		return v
	}
	return first(fallback, "")
}

// All returns body and query input as a flat map, first value per key.
func (req *Request) All() map[string]string {
	form := req.form()
	out := make(map[string]string, len(form))
	for k, v := range form {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}

// Has reports whether key was sent, even empty.
func (req *Request) Has(key string) bool {
	_, ok := req.form()[key]
	return ok
}

// Filled reports whether key was sent with a non-blank value.
func (req *Request) Filled(key string) bool {
	return strings.TrimSpace(req.form().Get(key)) != ""
}

// form parses the body once; parse errors leave the query values.
func (req *Request) form() url.Values {
	if req.raw.Form == nil {
		if req.mediaType() == "multipart/form-data" {
			_ = req.raw.ParseMultipartForm(maxMemory)
		} else {
			_ = req.raw.ParseForm()
		}
	}
	return req.raw.Form
}

// RouteParam returns a route parameter matched by the router.
func (req *Request) RouteParam(key string) string {
	return chi.URLParam(req.raw, key)
}

// Session returns the session started by session.Manager.Start, or nil.
func (req *Request) Session() *session.Session {
	return session.FromContext(req.raw.Context())
}

// Cookie returns a cookie value, or "".
func (req *Request) Cookie(name string) string {
	if c, err := req.raw.Cookie(name); err == nil {
		return c.Value
	}
	return ""
}

// ── Request line and headers ─────────────────────────────────────────────────

func (req *Request) Method() string { return req.raw.Method }

func (req *Request) Path() string { return req.raw.URL.Path }

// Target returns the request target (path and query) as sent by the client.
func (req *Request) Target() string { return req.raw.RequestURI }

func (req *Request) Header(key string) string { return req.raw.Header.Get(key) }

func (req *Request) ContentType() string { return req.raw.Header.Get("Content-Type") }

// mediaType is the lower-cased Content-Type without parameters.
func (req *Request) mediaType() string {
	ct := req.ContentType()
	if ct == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(strings.Split(ct, ";")[0]))
	}
	return mt
}

// IsJSON reports whether the client sent or accepts JSON.
func (req *Request) IsJSON() bool {
	return req.mediaType() == "application/json" ||
		strings.Contains(req.raw.Header.Get("Accept"), "application/json")
}

// BearerToken returns the credentials of an "Authorization: Bearer" header.
// The scheme is matched case-insensitively.
func (req *Request) BearerToken() string {
	scheme, token, ok := strings.Cut(req.raw.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// IP returns the client address without its port. Behind a proxy, install
// chi's middleware.RealIP first.
func (req *Request) IP() string {
	host, _, err := net.SplitHostPort(req.raw.RemoteAddr)
	if err != nil {
		return req.raw.RemoteAddr
	}
	return host
}

// ── Uploads ──────────────────────────────────────────────────────────────────

// File returns the first file uploaded under key.
func (req *Request) File(key string) (*multipart.FileHeader, error) {
	files, err := req.Files(key)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, http.ErrMissingFile
	}
	return files[0], nil
}

// Files returns every file uploaded under key.
func (req *Request) Files(key string) ([]*multipart.FileHeader, error) {
	if err := req.raw.ParseMultipartForm(maxMemory); err != nil {
		return nil, err
	}
	return req.raw.MultipartForm.File[key], nil
}
