package rates

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"remit/internal/logger"
	"remit/internal/models"
	"remit/internal/repositories"
	"remit/internal/services/currency"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferenceProvider_CrossRate(t *testing.T) {
	reg := currency.NewRegistry(repositories.NewMemoryCurrencyRepository(), logger.Discard())
	require.NoError(t, reg.Reload(context.Background(), []models.Currency{
		{Code: "UGX", RateToBase: 3700},
		{Code: "KES", RateToBase: 129, Decimals: 2},
	}))

	q, err := NewReferenceProvider(reg, 0.01).FetchRate(context.Background(), "UGX", "KES")
	require.NoError(t, err)
	assert.InDelta(t, 0.034864, q.Rate, 1e-6)
	assert.InDelta(t, 1.0, q.Rate*q.InverseRate, models.InverseEpsilon)
	assert.Equal(t, "reference", q.Source)

	_, err = NewReferenceProvider(reg, 0).FetchRate(context.Background(), "UGX", "XXX")
	assert.Error(t, err)
}

func TestHTTPProvider_FetchRate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rates", r.URL.Path)
		assert.Equal(t, "UGX", r.URL.Query().Get("from"))
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"rate":0.0349,"inverse_rate":28.653,"spread":0.002,"source":"fxvendor"}`))
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL+"/", "key", 10, time.Second)
	q, err := p.FetchRate(context.Background(), "UGX", "KES")
	require.NoError(t, err)
	assert.Equal(t, 0.0349, q.Rate)
	assert.Equal(t, "fxvendor", q.Source)
	assert.True(t, q.IsLive)
}

func TestHTTPProvider_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewHTTPProvider(srv.URL, "", 10, time.Second).FetchRate(context.Background(), "UGX", "KES")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
