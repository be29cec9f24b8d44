//go:build !release
// +build !release

package mock

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	piperhttp "github.com/whitehorses/servicebus-plugin/pkg/http"
)

// HttpRequest is one request recorded by HttpClientMock.
type HttpRequest struct {
	Method string
	URL    string
	Body   []byte
	Header http.Header
}

// HttpResponse is a canned response returned by HttpClientMock.
type HttpResponse struct {
	StatusCode int
	Body       string
	Err        error
}

// HttpClientMock mock struct
type HttpClientMock struct {
	ClientOptions []piperhttp.ClientOptions // set by mock
	Requests      []HttpRequest             // set by mock
	// Responses are keyed by "METHOD URL". Requests without a registered response fail.
	Responses map[string]HttpResponse
}

// SendRequest mock
func (c *HttpClientMock) SendRequest(method string, url string, r io.Reader, header http.Header, cookies []*http.Cookie) (*http.Response, error) {
	request := HttpRequest{Method: method, URL: url, Header: header}
	if r != nil {
		body, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		request.Body = body
	}
	c.Requests = append(c.Requests, request)

	canned, ok := c.Responses[method+" "+url]
	if !ok {
		return nil, fmt.Errorf("no response registered for %v %v", method, url)
	}
	response := &http.Response{
		StatusCode: canned.StatusCode,
		Body:       io.NopCloser(bytes.NewReader([]byte(canned.Body))),
		Header:     http.Header{},
	}
	return response, canned.Err
}

// SetOptions mock
func (c *HttpClientMock) SetOptions(options piperhttp.ClientOptions) {
	c.ClientOptions = append(c.ClientOptions, options)
}
