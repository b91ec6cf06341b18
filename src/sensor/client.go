package sensor

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Client fetches readings from the sensor data service. One Client serves one
// visualization session; the bearer credential may be swapped while fetches
// are in flight (the user can re-enter the password at any time).
//
// The client enforces no timeout, performs no retries and keeps no cache:
// every call is one fresh request, and a hung request simply stays in flight
// until the transport gives up.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu         sync.Mutex
	credential string
}

// NewClient creates a client for the service at baseURL (no trailing slash
// required).
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

// SetCredential replaces the bearer credential attached to subsequent
// requests. An empty credential is valid for unauthenticated deployments.
func (c *Client) SetCredential(token string) {
	c.mu.Lock()
	c.credential = token
	c.mu.Unlock()
}

func (c *Client) currentCredential() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.credential
}

// FetchReadings issues one request for the query's window and classifies the
// response. Any non-200 status becomes a failure carrying the response body
// text; a transport error or an undecodable body becomes a failure carrying
// the error text. ElapsedMs measures request start to body fully decoded.
func (c *Client) FetchReadings(ctx context.Context, q Query) Outcome {
	start := time.Now()

	body, failure := c.get(ctx, q.Path())
	if failure != "" {
		return Failure(failure)
	}

	var readings []Reading
	if err := json.Unmarshal(body, &readings); err != nil {
		return Failure(err.Error())
	}

	elapsed := time.Since(start).Milliseconds()
	Debugf("fetched %d readings for %s in %d ms", len(readings), q, elapsed)
	return Success(readings, elapsed)
}

// FetchCurrentCO2 fetches the bare-numeric current CO2 value used for the
// band display.
func (c *Client) FetchCurrentCO2(ctx context.Context) (float64, error) {
	body, failure := c.get(ctx, "/api/co2/current")
	if failure != "" {
		return 0, &fetchError{failure}
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(body)), 64)
	if err != nil {
		return 0, err
	}
	return v, nil
}

// get performs one GET and applies the shared response classification. It
// returns the body on 200, or a non-empty failure message otherwise.
func (c *Client) get(ctx context.Context, path string) (body []byte, failure string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err.Error()
	}
	if cred := c.currentCredential(); cred != "" {
		req.Header.Set("Authorization", "Bearer "+cred)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err.Error()
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, err.Error()
	}
	if resp.StatusCode != http.StatusOK {
		// The service responds with plain-text messages; show them verbatim.
		return nil, string(body)
	}
	return body, ""
}

type fetchError struct{ msg string }

func (e *fetchError) Error() string { return e.msg }
