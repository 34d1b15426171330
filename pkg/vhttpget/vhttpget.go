// Package vhttpget fetches documents over plain HTTP GET.
package vhttpget

import (
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
)

// UserAgent is sent with every request unless overridden by a Header option.
const UserAgent = "buildmaster"

type Option interface {
	Set(o *Opts)
}

type Opts struct {
	Header map[string]string
}

func (o Opts) Set(another *Opts) {
	*another = o
}

// Getter fetches the body of a URL as a string. Any non-2xx response is an error.
type Getter interface {
	Get(url string, opt ...Option) (string, error)
}

// StatusError is returned for responses outside of the 2xx range.
type StatusError struct {
	URL     string
	Status  string
	Code    int
	Snippet string
}

func (e *StatusError) Error() string {
	if e.Snippet != "" {
		return fmt.Sprintf("GET %s: %s: %s", e.URL, e.Status, e.Snippet)
	}
	return fmt.Sprintf("GET %s: %s", e.URL, e.Status)
}

type getter struct {
	responseBodyFor func(url string, opts Opts) (io.ReadCloser, error)
}

func New() Getter {
	return NewWithClient(http.DefaultClient)
}

func NewWithClient(client *http.Client) Getter {
	return &getter{
		responseBodyFor: func(url string, opts Opts) (io.ReadCloser, error) {
			req, err := http.NewRequest(http.MethodGet, url, nil)
			if err != nil {
				return nil, err
			}

			req.Header.Set("User-Agent", UserAgent)
			for k, v := range opts.Header {
				req.Header.Set(k, v)
			}

			res, err := client.Do(req)
			if err != nil {
				return nil, err
			}

			if res.StatusCode < 200 || res.StatusCode >= 300 {
				defer res.Body.Close()
				body, _ := ioutil.ReadAll(io.LimitReader(res.Body, 512))
				return nil, &StatusError{URL: url, Status: res.Status, Code: res.StatusCode, Snippet: string(body)}
			}

			return res.Body, nil
		},
	}
}

// NewTester returns a Getter answering from expectations keyed by URL.
// Unknown URLs fail the request.
func NewTester(expectations map[string]string) Getter {
	return &getter{
		responseBodyFor: func(url string, opts Opts) (io.ReadCloser, error) {
			res, ok := expectations[url]
			if !ok {
				return nil, fmt.Errorf("unexpected input: url=%v, opts=%v", url, opts)
			}
			return ioutil.NopCloser(bytes.NewReader([]byte(res))), nil
		},
	}
}

func (t *getter) Get(url string, opt ...Option) (string, error) {
	opts := &Opts{}
	for _, o := range opt {
		o.Set(opts)
	}

	res, err := t.responseBodyFor(url, *opts)
	if err != nil {
		return "", err
	}
	defer res.Close()

	body, err := ioutil.ReadAll(res)
	if err != nil {
		return "", fmt.Errorf("read body of %s: %w", url, err)
	}

	return string(body), nil
}
