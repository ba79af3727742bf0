package billing

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ManuelReschke/DealerHub/app/models"
)

// Processor runs one webhook delivery through the whole pipeline and decides
// what the provider gets back.
type Processor struct {
	verifier *Verifier
	resolver *Resolver
	service  *Service
	repo     Repository
	sink     Sink
	timeout  time.Duration
}

// NewProcessor wires the pipeline from explicit dependencies.
func NewProcessor(verifier *Verifier, repo Repository, sink Sink, storeTimeout time.Duration) *Processor {
	if storeTimeout <= 0 {
		storeTimeout = DefaultStoreTimeout
	}
	if sink == nil {
		sink = LogSink{}
	}
	return &Processor{
		verifier: verifier,
		resolver: NewResolver(repo, storeTimeout),
		service:  NewService(repo, storeTimeout),
		repo:     repo,
		sink:     sink,
		timeout:  storeTimeout,
	}
}

// Handle verifies, routes and applies a raw webhook delivery.
func (p *Processor) Handle(ctx context.Context, payload []byte, signatureHeader string) Response {
	event, err := p.verifier.Verify(payload, signatureHeader)
	if err != nil {
		return p.fail(ctx, Outcome{}, err)
	}

	checkout, err := Route(event)
	if err != nil {
		return p.fail(ctx, Outcome{EventID: event.ID, EventType: event.Type}, err)
	}
	if checkout == nil {
		p.sink.Record(ctx, Outcome{
			Status:     OutcomeIgnored,
			EventID:    event.ID,
			EventType:  event.Type,
			HTTPStatus: http.StatusOK,
			RecordedAt: time.Now(),
		})
		return acknowledge(OutcomeIgnored, event.ID, "")
	}

	stored := p.recordEvent(ctx, event, checkout)
	if stored != nil && stored.ProcessedCleanly() {
		p.sink.Record(ctx, Outcome{
			Status:     OutcomeDuplicate,
			EventID:    event.ID,
			EventType:  event.Type,
			SessionID:  checkout.CorrelationID,
			HTTPStatus: http.StatusOK,
			RecordedAt: time.Now(),
		})
		return acknowledge(OutcomeDuplicate, event.ID, checkout.CorrelationID)
	}

	resp, processingErr := p.apply(ctx, event, checkout)
	p.markProcessed(ctx, stored, processingErr)
	return resp
}

func (p *Processor) apply(ctx context.Context, event *InboundEvent, checkout *CheckoutCompleted) (Response, error) {
	base := Outcome{EventID: event.ID, EventType: event.Type, SessionID: checkout.CorrelationID}

	session, err := p.resolver.Resolve(ctx, checkout.CorrelationID)
	if errors.Is(err, ErrEmptySelections) {
		// The group is still activated; there is just nothing to provision.
		report, gerr := p.service.ActivateGroup(ctx, session)
		base.DealerGroupID = report.DealerGroupID
		if gerr != nil {
			return p.fail(ctx, base, gerr), gerr
		}
		return p.fail(ctx, base, err), err
	}
	if err != nil {
		return p.fail(ctx, base, err), err
	}

	report, err := p.service.Activate(ctx, session, checkout.ExternalSubscriptionID)
	base.DealerGroupID = session.DealerGroupID
	if err != nil {
		return p.fail(ctx, base, err), err
	}

	status := report.Status()
	outcome := base
	outcome.Status = status
	outcome.Selections = report.Selections
	outcome.HTTPStatus = http.StatusOK
	outcome.RecordedAt = time.Now()
	var issues []string
	for _, f := range report.Failed() {
		outcome.FailedSelection = append(outcome.FailedSelection, f.Err.Error())
		issues = append(issues, f.Err.Error())
	}
	if report.SessionCompletionErr != nil {
		outcome.Error = report.SessionCompletionErr.Error()
		issues = append(issues, report.SessionCompletionErr.Error())
	}
	p.sink.Record(ctx, outcome)

	resp := acknowledge(status, event.ID, session.ID)
	resp.Body["activated"] = report.Succeeded()
	resp.Body["failed"] = len(report.Failed())
	resp.Body["session_completed"] = report.SessionCompleted

	var processingErr error
	if len(issues) > 0 {
		processingErr = errors.New(strings.Join(issues, "; "))
	}
	return resp, processingErr
}

func (p *Processor) fail(ctx context.Context, o Outcome, err error) Response {
	status := StatusCode(err)
	o.Status = OutcomeFailure
	o.Error = err.Error()
	o.HTTPStatus = status
	o.RecordedAt = time.Now()
	p.sink.Record(ctx, o)

	return Response{
		StatusCode: status,
		Body:       map[string]interface{}{"error": publicMessage(err)},
	}
}

// recordEvent stores the delivery for auditing and deduplication. It is best
// effort: the pipeline is idempotent without it.
func (p *Processor) recordEvent(ctx context.Context, event *InboundEvent, checkout *CheckoutCompleted) *models.BillingWebhookEvent {
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	_, stored, err := p.repo.CreateWebhookEventIfNotExists(callCtx, &models.BillingWebhookEvent{
		Provider:          models.BillingProviderStripe,
		ProviderEventID:   event.ID,
		EventType:         event.Type,
		CheckoutSessionID: checkout.CorrelationID,
		PayloadJSON:       string(event.Payload),
	})
	if err != nil {
		p.sink.Record(ctx, Outcome{
			Status:     OutcomeWarning,
			EventID:    event.ID,
			EventType:  event.Type,
			SessionID:  checkout.CorrelationID,
			Error:      "record webhook event: " + err.Error(),
			RecordedAt: time.Now(),
		})
		return nil
	}
	return stored
}

func (p *Processor) markProcessed(ctx context.Context, stored *models.BillingWebhookEvent, processingErr error) {
	if stored == nil {
		return
	}
	msg := ""
	if processingErr != nil {
		msg = processingErr.Error()
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.repo.MarkWebhookProcessed(callCtx, stored.ID, msg); err != nil {
		p.sink.Record(ctx, Outcome{
			Status:     OutcomeWarning,
			EventID:    stored.ProviderEventID,
			EventType:  stored.EventType,
			SessionID:  stored.CheckoutSessionID,
			Error:      "mark webhook processed: " + err.Error(),
			RecordedAt: time.Now(),
		})
	}
}

func acknowledge(status, eventID, sessionID string) Response {
	body := map[string]interface{}{
		"received": true,
		"status":   status,
	}
	if eventID != "" {
		body["event_id"] = eventID
	}
	if sessionID != "" {
		body["session_id"] = sessionID
	}
	return Response{StatusCode: http.StatusOK, Body: body}
}

var publicErrors = []error{
	ErrMissingSignature,
	ErrMissingSecret,
	ErrInvalidSignature,
	ErrStaleEvent,
	ErrMalformedEvent,
	ErrSessionNotFound,
	ErrEmptySelections,
	ErrGroupActivationFailed,
	ErrStoreUnavailable,
}

// publicMessage keeps store and library details out of the response body.
func publicMessage(err error) string {
	for _, known := range publicErrors {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return "internal error"
}
