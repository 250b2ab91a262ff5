package partner

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"remit/internal/logger"
	"remit/internal/metrics"
	"remit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockGateway struct {
	mock.Mock
	delay time.Duration
}

func (m *MockGateway) Send(ctx context.Context, p *models.TransferPartner, t *models.Transfer) (SendResult, error) {
	time.Sleep(m.delay)
	args := m.Called(p.ID, t.ID)
	return args.Get(0).(SendResult), args.Error(1)
}

func (m *MockGateway) Poll(ctx context.Context, p *models.TransferPartner, t *models.Transfer) (StatusUpdate, error) {
	time.Sleep(m.delay)
	args := m.Called(p.ID, t.ID)
	return args.Get(0).(StatusUpdate), args.Error(1)
}

func TestDispatcher_Dispatch(t *testing.T) {
	gw := new(MockGateway)
	gw.On("Send", "p1", "t1").Return(SendResult{Accepted: true, PartnerReference: "REF1"}, nil)

	d := NewDispatcher(gw, time.Second, metrics.Noop{}, logger.Discard())
	res, err := d.Dispatch(context.Background(), &models.TransferPartner{ID: "p1"}, &models.Transfer{ID: "t1"})
	require.NoError(t, err)
	assert.Equal(t, "REF1", res.PartnerReference)
	gw.AssertExpectations(t)
}

func TestDispatcher_DispatchTimeout(t *testing.T) {
	gw := &MockGateway{delay: 200 * time.Millisecond}
	gw.On("Send", "p1", "t1").Return(SendResult{Accepted: true}, nil)

	d := NewDispatcher(gw, 20*time.Millisecond, metrics.Noop{}, logger.Discard())
	_, err := d.Dispatch(context.Background(), &models.TransferPartner{ID: "p1"}, &models.Transfer{ID: "t1"})
	assert.ErrorIs(t, err, ErrGatewayTimeout)
}

func TestDispatcher_PollRejectsUnknownState(t *testing.T) {
	gw := new(MockGateway)
	gw.On("Poll", "p1", "t1").Return(StatusUpdate{State: "teleported"}, nil)

	d := NewDispatcher(gw, time.Second, metrics.Noop{}, logger.Discard())
	_, err := d.Poll(context.Background(), &models.TransferPartner{ID: "p1"}, &models.Transfer{ID: "t1"})
	assert.ErrorIs(t, err, ErrUnknownPollState)
}

func TestDispatcher_PropagatesGatewayError(t *testing.T) {
	gw := new(MockGateway)
	gw.On("Poll", "p1", "t1").Return(StatusUpdate{}, errors.New("502 bad gateway"))

	d := NewDispatcher(gw, time.Second, metrics.Noop{}, logger.Discard())
	_, err := d.Poll(context.Background(), &models.TransferPartner{ID: "p1"}, &models.Transfer{ID: "t1"})
	assert.EqualError(t, err, "502 bad gateway")
}

func TestHTTPGateway_SendAndPoll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/transfers":
			var body sendRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "RMTEST", body.Reference)
			assert.Equal(t, "KES", body.Currency)
			_ = json.NewEncoder(w).Encode(SendResult{Accepted: true, PartnerReference: "EQ-77"})
		case r.Method == http.MethodGet && r.URL.Path == "/transfers/EQ-77":
			_ = json.NewEncoder(w).Encode(StatusUpdate{State: DeliveryCompleted})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	gw := NewHTTPGateway("", time.Second)
	p := &models.TransferPartner{ID: "equity", APIEndpoint: srv.URL + "/"}
	tr := &models.Transfer{ID: "t1", TrackingNumber: "RMTEST", TargetCurrency: "KES", ReceiveAmount: 3225}

	res, err := gw.Send(context.Background(), p, tr)
	require.NoError(t, err)
	assert.True(t, res.Accepted)

	tr.PartnerReference = res.PartnerReference
	update, err := gw.Poll(context.Background(), p, tr)
	require.NoError(t, err)
	assert.Equal(t, DeliveryCompleted, update.State)

	tr.PartnerReference = "unknown"
	_, err = gw.Poll(context.Background(), p, tr)
	assert.Error(t, err)
}

func TestSimulatedGateway_CompletionFollowsSuccessRate(t *testing.T) {
	gw := NewSimulatedGateway(42, 0)
	tr := &models.Transfer{ID: "t1"}

	res, err := gw.Send(context.Background(), &models.TransferPartner{ID: "sim"}, tr)
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.NotEmpty(t, res.PartnerReference)

	always := &models.TransferPartner{ID: "always", SuccessRate: 100}
	never := &models.TransferPartner{ID: "never", SuccessRate: 0}
	for i := 0; i < 20; i++ {
		u, err := gw.Poll(context.Background(), always, tr)
		require.NoError(t, err)
		assert.Equal(t, DeliveryCompleted, u.State)

		u, err = gw.Poll(context.Background(), never, tr)
		require.NoError(t, err)
		assert.Equal(t, DeliveryPending, u.State)
	}
}
