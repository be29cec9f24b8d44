package http

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/whitehorses/servicebus-plugin/pkg/log"
)

// Client defines an http client object
type Client struct {
	timeout      time.Duration
	username     string
	password     string
	token        string
	maxRetries   int
	retryWaitMin time.Duration
	logger       *logrus.Entry
}

// ClientOptions defines the options to be set on the client
type ClientOptions struct {
	Timeout  time.Duration
	Username string
	Password string
	Token    string
	// MaxRetries applies to idempotent requests (GET, HEAD) only.
	MaxRetries int
}

// Sender provides an interface to the piper http client for uid/pwd authenticated requests
type Sender interface {
	SendRequest(method, url string, body io.Reader, header http.Header, cookies []*http.Cookie) (*http.Response, error)
	SetOptions(options ClientOptions)
}

// SendRequest sends an http request with a defined method
func (c *Client) SendRequest(method, url string, body io.Reader, header http.Header, cookies []*http.Cookie) (*http.Response, error) {
	c.applyDefaults()

	httpClient := c.initialize(method)

	request, err := retryablehttp.NewRequest(method, url, body)
	c.logger.Debugf("New %v request to %v", method, url)
	if err != nil {
		return &http.Response{}, errors.Wrapf(err, "error creating %v request to %v", method, url)
	}

	for name, headers := range header {
		for _, h := range headers {
			request.Header.Add(name, h)
		}
	}

	for _, cookie := range cookies {
		request.AddCookie(cookie)
	}

	if len(c.username) > 0 && len(c.password) > 0 {
		request.SetBasicAuth(c.username, c.password)
		c.logger.Debug("Using Basic Authentication ****/****")
	}

	if len(c.token) > 0 {
		request.Header.Add("Authorization", c.token)
	}

	response, err := httpClient.Do(request)
	if err != nil {
		return response, errors.Wrapf(err, "error opening %v", url)
	}

	// 2xx codes do not create an error
	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return response, nil
	}

	switch response.StatusCode {
	case http.StatusUnauthorized:
		c.logger.WithField("HTTP Error", "401 (Unauthorized)").Error("Credentials invalid, please check your user credentials!")
	case http.StatusForbidden:
		c.logger.WithField("HTTP Error", "403 (Forbidden)").Error("Permission issue, please check your user permissions!")
	case http.StatusNotFound:
		c.logger.WithField("HTTP Error", "404 (Not Found)").Error("Requested resource could not be found")
	case http.StatusInternalServerError:
		c.logger.WithField("HTTP Error", "500 (Internal Server Error)").Error("Unknown error occurred.")
	}

	return response, fmt.Errorf("Request to %v returned with HTTP Code %v", url, response.StatusCode)
}

// SetOptions sets options used for the http client
func (c *Client) SetOptions(options ClientOptions) {
	c.timeout = options.Timeout
	c.username = options.Username
	c.password = options.Password
	c.token = options.Token
	c.maxRetries = options.MaxRetries
}

func (c *Client) applyDefaults() {
	if c.timeout == 0 {
		c.timeout = time.Second * 10
	}
	if c.retryWaitMin == 0 {
		c.retryWaitMin = time.Second
	}
	if c.logger == nil {
		c.logger = log.Entry().WithField("package", "servicebus-plugin/pkg/http")
	}
}

func (c *Client) initialize(method string) *retryablehttp.Client {
	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = &http.Client{Timeout: c.timeout}
	retryClient.Logger = leveledLogger{logger: c.logger}
	retryClient.RetryWaitMin = c.retryWaitMin
	retryClient.RetryWaitMax = c.retryWaitMin * 8
	// keep the last response instead of the generic "giving up" error
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.RetryMax = 0
	if method == http.MethodGet || method == http.MethodHead {
		retryClient.RetryMax = c.maxRetries
	}
	c.logger.Debugf("Timeout set to %v, max retries %v", c.timeout, retryClient.RetryMax)
	return retryClient
}

// leveledLogger routes the retry client's output into logrus at debug level.
type leveledLogger struct {
	logger *logrus.Entry
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.WithFields(fields(keysAndValues)).Debug(msg)
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.WithFields(fields(keysAndValues)).Debug(msg)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.WithFields(fields(keysAndValues)).Debug(msg)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.WithFields(fields(keysAndValues)).Warn(msg)
}

func fields(keysAndValues []interface{}) logrus.Fields {
	result := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		result[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return result
}
