// Package taxisportal provides a client for the TaxisPortal financial
// statement endpoints.
package taxisportal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/finstat-harvester/internal/model"
)

// Variant selects which statement-content endpoint the client uses. The
// portal exposes the same resource behind two routes with different methods;
// neither is documented as canonical.
type Variant string

// Statement-content endpoint variants.
const (
	// VariantDetails fetches via POST FinancialStatement/Details?rbr=<n>.
	VariantDetails Variant = "details"
	// VariantGetStatement fetches via GET FinancialStatement/GetStatement?id=<n>.
	VariantGetStatement Variant = "getstatement"
)

// Client defines the portal operations used by the harvester.
type Client interface {
	// ListStatements returns the published statements for a taxpayer.
	// Exactly one listing request is issued per call.
	ListStatements(ctx context.Context, pib string) ([]model.StatementRef, error)
	// FetchStatement returns the raw HTML markup of one statement.
	FetchStatement(ctx context.Context, ref model.StatementRef) (string, error)
}

// ListingError reports a failed or unparseable statement listing. The caller
// is expected to skip the whole entity.
type ListingError struct {
	PIB string
	Err error
}

func (e *ListingError) Error() string {
	return fmt.Sprintf("taxisportal: list statements for %s: %v", e.PIB, e.Err)
}

func (e *ListingError) Unwrap() error { return e.Err }

// FetchError reports a failed statement-content fetch. The caller is
// expected to skip this statement only.
type FetchError struct {
	StatementID string
	Err         error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("taxisportal: fetch statement %s: %v", e.StatementID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// listEnvelope is the listing response wrapper. The portal serializes item
// fields in PascalCase; encoding/json matches keys case-insensitively, so
// lowercase variants decode too.
type listEnvelope struct {
	Data []model.StatementRef `json:"data"`
}

// Option configures the portal client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithVariant selects the statement-content endpoint variant.
func WithVariant(v Variant) Option {
	return func(c *httpClient) {
		c.variant = v
	}
}

// WithPageSize sets the listing page-size bound.
func WithPageSize(n int) Option {
	return func(c *httpClient) {
		c.pageSize = n
	}
}

type httpClient struct {
	session  string
	baseURL  string
	variant  Variant
	pageSize int
	http     *http.Client
}

// NewClient creates a portal client authenticated with the given session
// cookie value (the "taxisSession=..." pair). The token is assumed valid;
// expiry surfaces as an ordinary HTTP failure.
func NewClient(session string, opts ...Option) Client {
	c := &httpClient{
		session:  session,
		baseURL:  "https://eprijava.tax.gov.me/TaxisPortal",
		variant:  VariantDetails,
		pageSize: 20,
		http: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do issues the request and returns the body. No retries: the portal has no
// documented rate tolerance and re-runs are cheap against a warm cache.
func (c *httpClient) do(req *http.Request) ([]byte, error) {
	req.Header.Set("Cookie", c.session)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, eris.Errorf("unexpected status %d from %s", resp.StatusCode, req.URL.String())
	}

	return body, nil
}

func (c *httpClient) ListStatements(ctx context.Context, pib string) ([]model.StatementRef, error) {
	reqURL := fmt.Sprintf("%s/FinancialStatement/TaxPayerStatementsList?PIB=%s&take=%d",
		c.baseURL, url.QueryEscape(pib), c.pageSize)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, nil)
	if err != nil {
		return nil, &ListingError{PIB: pib, Err: eris.Wrap(err, "create request")}
	}
	// The portal requires an explicit Content-Length: 0 on bodyless POSTs;
	// net/http emits it automatically for nil-body requests.
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req)
	if err != nil {
		return nil, &ListingError{PIB: pib, Err: err}
	}

	var envelope listEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &ListingError{PIB: pib, Err: eris.Wrap(err, "unmarshal listing")}
	}

	return envelope.Data, nil
}

func (c *httpClient) FetchStatement(ctx context.Context, ref model.StatementRef) (string, error) {
	var req *http.Request
	var err error

	switch c.variant {
	case VariantGetStatement:
		reqURL := fmt.Sprintf("%s/FinancialStatement/GetStatement?id=%s",
			c.baseURL, url.QueryEscape(ref.StatementID))
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	default:
		reqURL := fmt.Sprintf("%s/FinancialStatement/Details?rbr=%s",
			c.baseURL, url.QueryEscape(ref.StatementID))
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, reqURL, nil)
	}
	if err != nil {
		return "", &FetchError{StatementID: ref.StatementID, Err: eris.Wrap(err, "create request")}
	}

	body, err := c.do(req)
	if err != nil {
		return "", &FetchError{StatementID: ref.StatementID, Err: err}
	}

	return string(body), nil
}
