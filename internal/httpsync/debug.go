package httpsync

import (
	"net/http"
	"net/http/httputil"

	"github.com/quran-assets/assetsync/internal/logging"
)

// LoggingTransport is an http.RoundTripper that logs requests and responses.
// Bodies are not dumped: asset payloads are binary and large.
type LoggingTransport struct {
	Transport http.RoundTripper
	Logger    *logging.Logger
}

// NewLoggingTransport creates a new LoggingTransport.  If transport is nil,
// http.DefaultTransport is used.  If logger is nil, a no-op logger is used.
func NewLoggingTransport(transport http.RoundTripper, logger *logging.Logger) *LoggingTransport {
	if transport == nil {
		transport = http.DefaultTransport
	}
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &LoggingTransport{
		Transport: transport,
		Logger:    logger,
	}
}

// RoundTrip executes a single HTTP transaction, logging the request and response.
func (t *LoggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	reqDump, err := httputil.DumpRequestOut(req, false)
	if err != nil {
		t.Logger.Debugf("Error dumping request: %v", err)
	} else {
		t.Logger.Debugf("Request:\n%s", string(reqDump))
	}

	resp, err := t.Transport.RoundTrip(req)
	if err != nil {
		t.Logger.Debugf("Error making request: %v", err)
		return resp, err // Return the response and error, even if the response is nil.
	}

	respDump, err := httputil.DumpResponse(resp, false)
	if err != nil {
		t.Logger.Debugf("Error dumping response: %v", err)
	} else {
		t.Logger.Debugf("Response:\n%s", string(respDump))
	}

	return resp, nil
}
