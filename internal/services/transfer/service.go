// Package transfer owns the per-transfer state machine: initiation, compliance
// gating, payment confirmation, partner dispatch, cancellation and refund.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"remit/internal/events"
	apperrors "remit/internal/errors"
	"remit/internal/metrics"
	"remit/internal/models"
	"remit/internal/repositories"
	"remit/internal/services/corridor"
	"remit/internal/services/partner"
	"remit/internal/services/payment"
	"remit/internal/validation"

	"github.com/google/uuid"
)

// Dependencies are the collaborators the orchestrator drives.
type Dependencies struct {
	Transfers  repositories.TransferRepository
	Corridors  CorridorResolver
	Rates      RateSource
	Rounder    corridor.Rounder
	Compliance ComplianceRunner
	Partners   PartnerDirectory
	Dispatcher PartnerDispatcher
	Verifier   payment.Verifier
	Refunder   payment.Refunder
	Events     events.Publisher
	Metrics    metrics.Collector
	Logger     *slog.Logger
}

type service struct {
	transfers  repositories.TransferRepository
	corridors  CorridorResolver
	rates      RateSource
	rounder    corridor.Rounder
	compliance ComplianceRunner
	partners   PartnerDirectory
	dispatcher PartnerDispatcher
	verifier   payment.Verifier
	refunder   payment.Refunder
	events     events.Publisher
	metrics    metrics.Collector
	logger     *slog.Logger
	locks      *keyedLocker
	now        func() time.Time
}

// NewService creates a new transfer orchestrator.
func NewService(deps Dependencies) Service {
	return newService(deps)
}

func newService(deps Dependencies) *service {
	s := &service{
		transfers:  deps.Transfers,
		corridors:  deps.Corridors,
		rates:      deps.Rates,
		rounder:    deps.Rounder,
		compliance: deps.Compliance,
		partners:   deps.Partners,
		dispatcher: deps.Dispatcher,
		verifier:   deps.Verifier,
		refunder:   deps.Refunder,
		events:     deps.Events,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		locks:      newKeyedLocker(),
		now:        time.Now,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.metrics == nil {
		s.metrics = metrics.Noop{}
	}
	if s.events == nil {
		s.events = &events.EventProducerFallback{Logger: s.logger}
	}
	return s
}

// InitiateTransfer validates and prices the request, persists the transfer
// and runs compliance screening. Nothing is stored when the request is
// rejected.
func (s *service) InitiateTransfer(ctx context.Context, req InitiateRequest) (*models.Transfer, error) {
	req.OriginCountry = strings.ToUpper(strings.TrimSpace(req.OriginCountry))
	req.DestinationCountry = strings.ToUpper(strings.TrimSpace(req.DestinationCountry))
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	lane, err := s.corridors.Resolve(req.OriginCountry, req.DestinationCountry)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.CorridorUnavailable("no corridor from %s to %s", req.OriginCountry, req.DestinationCountry)
		}
		return nil, err
	}
	if !lane.IsActive {
		return nil, apperrors.CorridorUnavailable("corridor %s is not active", lane.Key())
	}
	if err := corridor.ValidateAmount(lane, req.SendAmount); err != nil {
		return nil, err
	}
	method, err := corridor.ValidateMethod(lane, req.PaymentMethod, req.SendAmount)
	if err != nil {
		return nil, err
	}
	if method != nil {
		if err := validateRecipientFields(method, req.Recipient); err != nil {
			return nil, err
		}
		if method.DailyLimit > 0 || method.MonthlyLimit > 0 {
			// Held until the transfer is stored so concurrent requests see each other.
			unlockSender := s.locks.Lock("sender:" + req.SenderID + ":" + method.Type)
			defer unlockSender()
			if err := s.checkUsage(ctx, req.SenderID, method, req.SendAmount); err != nil {
				return nil, err
			}
		}
	}

	rate, err := s.rates.GetRate(ctx, lane.SourceCurrency, lane.TargetCurrency)
	if err != nil {
		return nil, err
	}
	quote := corridor.Price(lane, method, req.SendAmount, rate.Rate, s.rounder)

	now := s.now()
	id := uuid.NewString()
	t := &models.Transfer{
		ID:                 id,
		TrackingNumber:     trackingNumber(now),
		SenderID:           req.SenderID,
		SenderName:         req.SenderName,
		Recipient:          req.Recipient,
		OriginCountry:      lane.OriginCountry,
		DestinationCountry: lane.DestinationCountry,
		SourceCurrency:     lane.SourceCurrency,
		TargetCurrency:     lane.TargetCurrency,
		SendAmount:         quote.SendAmount,
		ReceiveAmount:      quote.ReceiveAmount,
		ExchangeRate:       quote.ExchangeRate,
		Fee:                quote.Fee,
		MethodFee:          quote.MethodFee,
		TotalCost:          quote.TotalCost,
		PaymentMethod:      req.PaymentMethod,
		DeliveryMethod:     req.DeliveryMethod,
		Status:             models.StatusInitiated,
		ComplianceTier:     lane.ComplianceTier,
		ComplianceChecks:   models.ComplianceChecks{},
		StatusHistory:      models.StatusHistory{{To: models.StatusInitiated, At: now}},
		Purpose:            req.Purpose,
		SourceOfFunds:      req.SourceOfFunds,
		Relationship:       req.Relationship,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if lane.EstimatedDelivery > 0 {
		eta := now.Add(lane.EstimatedDelivery)
		t.EstimatedDelivery = &eta
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	if err := s.transfers.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create transfer: %w", err)
	}
	s.metrics.RecordTransition("", string(models.StatusInitiated))
	s.publish(ctx, t, "", "")
	s.logger.Info("transfer initiated", "transfer_id", t.ID, "tracking_number", t.TrackingNumber,
		"corridor", t.CorridorKey(), "send_amount", t.SendAmount, "fee", t.Fee, "receive_amount", t.ReceiveAmount)

	if err := s.transition(ctx, t, models.StatusComplianceCheck, ""); err != nil {
		return nil, s.abandon(ctx, t, err)
	}

	checks := s.compliance.RunChecks(ctx, t)
	t.ComplianceChecks = append(t.ComplianceChecks, checks...)

	if t.RequiresManualReview() {
		if err := s.save(ctx, t); err != nil {
			return nil, s.abandon(ctx, t, err)
		}
		s.logger.Warn("transfer held for manual review", "transfer_id", t.ID, "checks", len(checks))
		return t, nil
	}
	if err := s.transition(ctx, t, models.StatusAwaitingPayment, ""); err != nil {
		return nil, s.abandon(ctx, t, err)
	}
	return t, nil
}

// abandon cancels a transfer whose initiation could not be completed after
// it was stored, so no half-initiated record is left behind. It returns
// cause for the caller.
func (s *service) abandon(ctx context.Context, t *models.Transfer, cause error) error {
	reason := "initiation aborted: " + cause.Error()
	t.CancellationReason = reason
	if err := s.transition(ctx, t, models.StatusCancelled, reason); err != nil {
		s.logger.Error("could not cancel partially initiated transfer", "transfer_id", t.ID,
			"status", t.Status, "cause", cause, "error", err)
		return cause
	}
	s.logger.Warn("transfer initiation aborted", "transfer_id", t.ID, "error", cause)
	return cause
}

// checkUsage enforces the method's daily and monthly limits over the
// sender's live transfers. Days and months are UTC calendar periods.
func (s *service) checkUsage(ctx context.Context, senderID string, method *models.PaymentMethod, amount float64) error {
	now := s.now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	var usedToday, usedThisMonth float64
	var err error
	if method.DailyLimit > 0 {
		if usedToday, err = s.transfers.SumBySenderMethodSince(ctx, senderID, method.Type, dayStart); err != nil {
			return fmt.Errorf("sum daily usage: %w", err)
		}
	}
	if method.MonthlyLimit > 0 {
		if usedThisMonth, err = s.transfers.SumBySenderMethodSince(ctx, senderID, method.Type, monthStart); err != nil {
			return fmt.Errorf("sum monthly usage: %w", err)
		}
	}
	return corridor.ValidateUsage(method, amount, usedToday, usedThisMonth)
}

func validateRequest(req InitiateRequest) error {
	v := validation.New()
	v.Required("sender_id", req.SenderID)
	v.MaxLength("sender_name", req.SenderName, validation.MaxNameLength)
	v.Required("recipient.name", req.Recipient.Name)
	v.MaxLength("recipient.name", req.Recipient.Name, validation.MaxNameLength)
	if req.Recipient.Phone != "" {
		v.Phone("recipient.phone", req.Recipient.Phone)
	}
	if req.Recipient.Email != "" {
		v.Email("recipient.email", req.Recipient.Email)
	}
	v.CountryCode("origin_country", req.OriginCountry)
	v.CountryCode("destination_country", req.DestinationCountry)
	v.Check(req.OriginCountry != req.DestinationCountry, "destination_country", "must differ from origin_country")
	v.Positive("send_amount", req.SendAmount)
	v.MaxLength("purpose", req.Purpose, validation.MaxMetadataLength)
	v.MaxLength("source_of_funds", req.SourceOfFunds, validation.MaxMetadataLength)
	v.MaxLength("relationship", req.Relationship, validation.MaxMetadataLength)
	return v.Err("transfer request")
}

func validateRecipientFields(method *models.PaymentMethod, r models.Recipient) error {
	v := validation.New()
	for _, field := range method.RequiredFields {
		v.Required("recipient."+field, recipientField(r, field))
	}
	return v.Err("recipient for " + method.Type)
}

func recipientField(r models.Recipient, name string) string {
	switch name {
	case "name":
		return r.Name
	case "phone":
		return r.Phone
	case "email":
		return r.Email
	case "account_number":
		return r.AccountNumber
	case "bank_code":
		return r.BankCode
	case "mobile_wallet":
		return r.MobileWallet
	}
	return ""
}

func trackingNumber(now time.Time) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "RM" + now.UTC().Format("060102") + strings.ToUpper(raw[:10])
}

// ProcessPayment confirms the sender's payment and hands the transfer to a
// partner. A decline or an unreachable verifier fails the transfer.
func (s *service) ProcessPayment(ctx context.Context, id, proof string) (*models.Transfer, error) {
	proof = strings.TrimSpace(proof)
	v := validation.New()
	v.Required("proof", proof)
	v.MaxLength("proof", proof, validation.MaxReferenceLength)
	if err := v.Err("payment"); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Status != models.StatusAwaitingPayment {
		return nil, apperrors.InvalidState("transfer %s is %s, payment expected in %s", t.ID, t.Status, models.StatusAwaitingPayment)
	}

	ok, err := s.verifier.Verify(ctx, t, proof)
	if err != nil {
		s.logger.Error("payment verifier unavailable", "transfer_id", t.ID, "error", err)
		return s.fail(ctx, t, "payment verification unavailable: "+err.Error())
	}
	if !ok {
		return s.fail(ctx, t, "payment verification declined")
	}

	t.PaymentReference = proof
	if err := s.transition(ctx, t, models.StatusPaymentConfirmed, ""); err != nil {
		return nil, err
	}
	if err := s.transition(ctx, t, models.StatusProcessing, ""); err != nil {
		return nil, err
	}

	p, ok := s.partners.Select(t)
	if !ok {
		return s.fail(ctx, t, "no eligible partner for "+t.CorridorKey())
	}
	return s.send(ctx, t, p)
}

// send dispatches t, which must be in processing, to p.
func (s *service) send(ctx context.Context, t *models.Transfer, p *models.TransferPartner) (*models.Transfer, error) {
	t.PartnerID = p.ID
	res, err := s.dispatcher.Dispatch(ctx, p, t)
	switch {
	case errors.Is(err, partner.ErrGatewayTimeout):
		if serr := s.save(ctx, t); serr != nil {
			return nil, serr
		}
		s.logger.Warn("partner dispatch timed out", "transfer_id", t.ID, "partner_id", p.ID)
		return t, apperrors.External("partner "+p.ID, ErrDispatchTimeout)
	case err != nil:
		return s.fail(ctx, t, fmt.Sprintf("partner %s error: %v", p.ID, err))
	case !res.Accepted:
		reason := res.Reason
		if reason == "" {
			reason = "no reason given"
		}
		return s.fail(ctx, t, fmt.Sprintf("partner %s rejected transfer: %s", p.ID, reason))
	}

	t.PartnerReference = res.PartnerReference
	if err := s.transition(ctx, t, models.StatusSentToPartner, ""); err != nil {
		return nil, err
	}
	return t, nil
}

// RetryDispatch re-sends a transfer left in processing by a timed-out
// dispatch. The partner chosen on the first attempt is reused when it is
// still in the directory.
func (s *service) RetryDispatch(ctx context.Context, id string) (*models.Transfer, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Status != models.StatusProcessing {
		return nil, apperrors.InvalidState("transfer %s is %s, only %s transfers can be retried", t.ID, t.Status, models.StatusProcessing)
	}

	var p *models.TransferPartner
	if t.PartnerID != "" {
		p, _ = s.partners.Get(t.PartnerID)
	}
	if p == nil {
		var ok bool
		if p, ok = s.partners.Select(t); !ok {
			return s.fail(ctx, t, "no eligible partner for "+t.CorridorKey())
		}
	}
	s.logger.Info("retrying partner dispatch", "transfer_id", t.ID, "partner_id", p.ID)
	return s.send(ctx, t, p)
}

// GetTransferStatus returns the stored transfer, polling the partner first
// when delivery is outstanding.
func (s *service) GetTransferStatus(ctx context.Context, id string) (*models.Transfer, error) {
	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.pollable(t) {
		return t, nil
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	// status may have moved while waiting for the lock
	if t, err = s.load(ctx, id); err != nil {
		return nil, err
	}
	if !s.pollable(t) {
		return t, nil
	}
	return s.reconcile(ctx, t)
}

func (s *service) TrackTransfer(ctx context.Context, trackingNumber string) (*models.Transfer, error) {
	t, err := s.transfers.GetByTrackingNumber(ctx, strings.ToUpper(strings.TrimSpace(trackingNumber)))
	if err != nil {
		if errors.Is(err, repositories.ErrTransferNotFound) {
			return nil, apperrors.NotFound("transfer %s not found", trackingNumber)
		}
		return nil, err
	}
	return s.GetTransferStatus(ctx, t.ID)
}

func (s *service) pollable(t *models.Transfer) bool {
	switch t.Status {
	case models.StatusSentToPartner:
		return true
	case models.StatusProcessing:
		return t.PartnerID != ""
	}
	return false
}

// reconcile applies the partner's view of t. A transfer still in processing
// after a timed-out dispatch is promoted to sent_to_partner once the partner
// acknowledges it; poll errors leave it untouched so RetryDispatch can run.
func (s *service) reconcile(ctx context.Context, t *models.Transfer) (*models.Transfer, error) {
	p, err := s.partners.Get(t.PartnerID)
	if err != nil {
		s.logger.Warn("partner missing for transfer", "transfer_id", t.ID, "partner_id", t.PartnerID)
		return t, nil
	}

	update, err := s.dispatcher.Poll(ctx, p, t)
	if errors.Is(err, partner.ErrGatewayTimeout) {
		s.logger.Warn("partner poll timed out", "transfer_id", t.ID, "partner_id", p.ID)
		return t, nil
	}
	if err != nil {
		if t.Status == models.StatusProcessing {
			s.logger.Warn("partner has no record of transfer yet", "transfer_id", t.ID, "partner_id", p.ID, "error", err)
			return t, nil
		}
		return s.fail(ctx, t, fmt.Sprintf("partner %s poll error: %v", p.ID, err))
	}

	if update.State == partner.DeliveryFailed {
		reason := update.Reason
		if reason == "" {
			reason = "delivery failed"
		}
		return s.fail(ctx, t, fmt.Sprintf("partner %s reported failure: %s", p.ID, reason))
	}

	if t.Status == models.StatusProcessing {
		if err := s.transition(ctx, t, models.StatusSentToPartner, "acknowledged by partner"); err != nil {
			return nil, err
		}
	}
	if update.State == partner.DeliveryCompleted {
		delivered := s.now()
		if update.DeliveredAt != nil {
			delivered = *update.DeliveredAt
		}
		t.ActualDelivery = &delivered
		if err := s.transition(ctx, t, models.StatusCompleted, ""); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// CancelTransfer cancels a transfer that has not been paid for yet. If the
// payment lands between the read and the write, the confirmed transfer is
// cancelled and its total cost refunded instead.
func (s *service) CancelTransfer(ctx context.Context, id, reason string) (*models.Transfer, error) {
	reason = strings.TrimSpace(reason)
	v := validation.New()
	v.MaxLength("reason", reason, validation.MaxReasonLength)
	if err := v.Err("cancellation"); err != nil {
		return nil, err
	}
	if reason == "" {
		reason = "cancelled by sender"
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.Status.IsCancellable() {
		return nil, apperrors.InvalidState("transfer %s cannot be cancelled from %s", t.ID, t.Status)
	}

	t.CancellationReason = reason
	err = s.transition(ctx, t, models.StatusCancelled, reason)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, repositories.ErrStaleStatus) {
		return nil, err
	}

	// the stored status moved underneath us
	current, lerr := s.load(ctx, id)
	if lerr != nil {
		return nil, lerr
	}
	if current.Status != models.StatusPaymentConfirmed {
		return nil, apperrors.InvalidState("transfer %s cannot be cancelled from %s", current.ID, current.Status)
	}
	s.logger.Warn("payment confirmed during cancellation; refunding", "transfer_id", current.ID)
	current.CancellationReason = reason
	if err := s.transition(ctx, current, models.StatusCancelled, reason); err != nil {
		return nil, err
	}
	return s.refund(ctx, current)
}

func (s *service) refund(ctx context.Context, t *models.Transfer) (*models.Transfer, error) {
	ref, err := s.refunder.Refund(ctx, t)
	if err != nil {
		s.logger.Error("refund failed", "transfer_id", t.ID, "error", err)
		return t, apperrors.External("refund", err)
	}

	refundedAt := s.now()
	t.RefundAmount = t.TotalCost
	t.RefundedAt = &refundedAt
	if err := s.transition(ctx, t, models.StatusRefunded, "refund "+ref); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *service) ListTransfers(ctx context.Context, senderID string, limit, offset int) ([]*models.Transfer, int64, error) {
	if strings.TrimSpace(senderID) == "" {
		return nil, 0, apperrors.Validation("sender id is required")
	}
	return s.transfers.ListBySender(ctx, senderID, limit, offset)
}

func (s *service) load(ctx context.Context, id string) (*models.Transfer, error) {
	t, err := s.transfers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTransferNotFound) {
			return nil, apperrors.NotFound("transfer %s not found", id)
		}
		return nil, fmt.Errorf("load transfer %s: %w", id, err)
	}
	return t, nil
}

// save persists t without changing its status.
func (s *service) save(ctx context.Context, t *models.Transfer) error {
	t.UpdatedAt = s.now()
	if err := s.transfers.Update(ctx, t, t.Status); err != nil {
		return fmt.Errorf("save transfer %s: %w", t.ID, err)
	}
	return nil
}

// fail moves t to failed with reason and returns it as the caller's result.
func (s *service) fail(ctx context.Context, t *models.Transfer, reason string) (*models.Transfer, error) {
	t.FailureReason = reason
	if err := s.transition(ctx, t, models.StatusFailed, reason); err != nil {
		return nil, err
	}
	s.logger.Warn("transfer failed", "transfer_id", t.ID, "reason", reason)
	return t, nil
}

// transition moves t to next if the transition table allows it and the
// stored status still matches t's current one.
func (s *service) transition(ctx context.Context, t *models.Transfer, next models.TransferStatus, reason string) error {
	from := t.Status
	if !from.CanTransitionTo(next) {
		return apperrors.InvalidState("transfer %s cannot move from %s to %s", t.ID, from, next)
	}

	now := s.now()
	history := len(t.StatusHistory)
	t.Status = next
	t.UpdatedAt = now
	t.StatusHistory = append(t.StatusHistory, models.StatusEvent{From: from, To: next, Reason: reason, At: now})

	if err := s.transfers.Update(ctx, t, from); err != nil {
		t.Status = from
		t.StatusHistory = t.StatusHistory[:history]
		return fmt.Errorf("transition %s to %s: %w", from, next, err)
	}

	s.metrics.RecordTransition(string(from), string(next))
	s.publish(ctx, t, from, reason)
	s.logger.Debug("transfer transitioned", "transfer_id", t.ID, "from", from, "to", next)
	return nil
}

func (s *service) publish(ctx context.Context, t *models.Transfer, from models.TransferStatus, reason string) {
	ev := events.NewTransferStatusEvent(t, from, reason, t.UpdatedAt)
	if err := s.events.PublishTransferStatus(ctx, ev); err != nil {
		s.logger.Warn("publish transfer event failed", "transfer_id", t.ID, "status", t.Status, "error", err)
	}
}
