package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// HTTPProvider fetches live quotes from a JSON rate API:
//
//	GET {baseURL}/rates?from=UGX&to=KES -> {"rate":..., "inverse_rate":..., "spread":..., "source":"..."}
//
// Outgoing requests are throttled so the sweep cannot exceed the vendor quota.
type HTTPProvider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewHTTPProvider(baseURL, apiKey string, requestsPerSecond float64, timeout time.Duration) *HTTPProvider {
	burst := int(requestsPerSecond)
	if burst < 1 {
		burst = 1
	}
	return &HTTPProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

func (p *HTTPProvider) FetchRate(ctx context.Context, from, to string) (Quote, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return Quote{}, err
	}

	q := url.Values{}
	q.Set("from", from)
	q.Set("to", to)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/rates?"+q.Encode(), nil)
	if err != nil {
		return Quote{}, err
	}
	req.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return Quote{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Quote{}, fmt.Errorf("rate provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var quote Quote
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		return Quote{}, fmt.Errorf("decode rate response: %w", err)
	}
	if quote.Source == "" {
		quote.Source = "http"
	}
	quote.IsLive = true
	return quote, nil
}
