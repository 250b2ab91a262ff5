package partner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"remit/internal/models"
)

// HTTPGateway speaks a small JSON protocol against each partner's APIEndpoint:
//
//	POST {endpoint}/transfers           -> SendResult
//	GET  {endpoint}/transfers/{ref}     -> StatusUpdate
type HTTPGateway struct {
	httpClient *http.Client
	apiKey     string
}

func NewHTTPGateway(apiKey string, timeout time.Duration) *HTTPGateway {
	return &HTTPGateway{
		httpClient: &http.Client{Timeout: timeout},
		apiKey:     apiKey,
	}
}

type sendRequest struct {
	Reference      string           `json:"reference"`
	Amount         float64          `json:"amount"`
	Currency       string           `json:"currency"`
	Country        string           `json:"country"`
	DeliveryMethod string           `json:"delivery_method"`
	Recipient      models.Recipient `json:"recipient"`
	SenderName     string           `json:"sender_name"`
}

func (g *HTTPGateway) Send(ctx context.Context, p *models.TransferPartner, t *models.Transfer) (SendResult, error) {
	payload := sendRequest{
		Reference:      t.TrackingNumber,
		Amount:         t.ReceiveAmount,
		Currency:       t.TargetCurrency,
		Country:        t.DestinationCountry,
		DeliveryMethod: t.DeliveryMethod,
		Recipient:      t.Recipient,
		SenderName:     t.SenderName,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return SendResult{}, err
	}

	var res SendResult
	if err := g.do(ctx, http.MethodPost, endpoint(p, "transfers"), bytes.NewReader(body), &res); err != nil {
		return SendResult{}, err
	}
	return res, nil
}

func (g *HTTPGateway) Poll(ctx context.Context, p *models.TransferPartner, t *models.Transfer) (StatusUpdate, error) {
	ref := t.PartnerReference
	if ref == "" {
		ref = t.TrackingNumber
	}
	var update StatusUpdate
	if err := g.do(ctx, http.MethodGet, endpoint(p, "transfers", url.PathEscape(ref)), nil, &update); err != nil {
		return StatusUpdate{}, err
	}
	return update, nil
}

func endpoint(p *models.TransferPartner, parts ...string) string {
	return strings.TrimRight(p.APIEndpoint, "/") + "/" + strings.Join(parts, "/")
}

func (g *HTTPGateway) do(ctx context.Context, method, target string, body io.Reader, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("partner returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
