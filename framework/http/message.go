package http

import (
	"net/http"
	"strconv"
)

// Message is a complete response built by a controller action: status,
// headers and body, sent in one go.
type Message struct {
	Status int
	Header http.Header
	Body   []byte
}

// NewMessage returns a 200 text/html message with content as body.
func NewMessage(content string) *Message {
	return HTML(http.StatusOK, content)
}

// HTML returns a text/html message.
func HTML(status int, content string) *Message {
	return &Message{
		Status: status,
		Header: http.Header{"Content-Type": {"text/html; charset=utf-8"}},
		Body:   []byte(content),
	}
}

// Text returns a text/plain message.
func Text(status int, content string) *Message {
	return &Message{
		Status: status,
		Header: http.Header{"Content-Type": {"text/plain; charset=utf-8"}},
		Body:   []byte(content),
	}
}

// WithHeader sets a header and returns m.
func (m *Message) WithHeader(key, value string) *Message {
	if m.Header == nil {
		m.Header = http.Header{}
	}
	m.Header.Set(key, value)
	return m
}

// Send writes headers, status and body to w.
func (m *Message) Send(w http.ResponseWriter) error {
	h := w.Header()
	for k, vs := range m.Header {
		h[k] = append([]string(nil), vs...)
	}
	h.Set("Content-Length", strconv.Itoa(len(m.Body)))

	status := m.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, err := w.Write(m.Body)
	return err
}
