package client

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Request describes one logical backend operation. Two requests with equal
// method, path, query, headers and body are the same operation for
// coalescing purposes. Immutable once issued.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Headers map[string]string
	Body    []byte
}

// NewGet builds a GET request for the given path.
func NewGet(path string) Request {
	return Request{Method: "GET", Path: path}
}

// WithQuery returns a copy of the request with the query parameter set.
func (r Request) WithQuery(key, value string) Request {
	q := url.Values{}
	for k, vs := range r.Query {
		q[k] = append([]string(nil), vs...)
	}
	q.Set(key, value)
	r.Query = q
	return r
}

// WithHeader returns a copy of the request with the header set.
func (r Request) WithHeader(key, value string) Request {
	h := make(map[string]string, len(r.Headers)+1)
	for k, v := range r.Headers {
		h[k] = v
	}
	h[key] = value
	r.Headers = h
	return r
}

// Key returns the structural identity of the request. Header and query
// serialization is order-independent so logically equal requests always
// collide.
func (r Request) Key() string {
	var sb strings.Builder
	sb.WriteString(r.Method)
	sb.WriteString(" ")
	sb.WriteString(r.Path)
	sb.WriteString("?")
	sb.WriteString(r.Query.Encode()) // Encode sorts keys

	keys := make([]string, 0, len(r.Headers))
	for k := range r.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteString(fmt.Sprintf("|%s=%s", k, r.Headers[k]))
	}

	sb.WriteString("#")
	sb.Write(r.Body)
	return sb.String()
}
