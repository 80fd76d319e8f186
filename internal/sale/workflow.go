// Package sale implements the sale confirmation workflow: pinning a product,
// choosing a payment method, and submitting exactly one sale per confirmation.
package sale

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"pos-catalog-browser/internal/domain"
	"pos-catalog-browser/internal/imageresolver"
	"pos-catalog-browser/internal/notify"

	"go.uber.org/zap"
)

// DefaultFailureMessage is shown when a failed submission carries no server message.
const DefaultFailureMessage = "Could not register the sale"

var (
	// ErrNotConfirming is returned by dialog operations when no confirmation is open.
	ErrNotConfirming = errors.New("sale: no sale awaiting confirmation")
	// ErrUnknownPayment is returned by SelectPayment for an unsupported method.
	ErrUnknownPayment = errors.New("sale: unknown payment type")
	// ErrSubmissionInFlight is returned when the pinned product already has an outstanding submission.
	ErrSubmissionInFlight = errors.New("sale: submission already in flight for product")
)

// State of the workflow as seen by the operator.
type State int

const (
	StateIdle State = iota
	StateConfirming
	StateSubmitting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConfirming:
		return "confirming"
	case StateSubmitting:
		return "submitting"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Products is the catalog the workflow pins products from and refreshes after a sale.
type Products interface {
	Find(id int64) (domain.Product, bool)
	Reload(ctx context.Context) error
}

// Notifier surfaces sale outcomes.
type Notifier interface {
	Success(msg string) notify.Notification
	Error(msg string) notify.Notification
}

// confirmation is the pinned context of an open dialog.
type confirmation struct {
	product domain.Product
	preview *imageresolver.Cursor
	payment domain.PaymentType
}

// Dialog is a read-only view of the open confirmation.
type Dialog struct {
	Product        domain.Product
	Payment        domain.PaymentType
	Preview        string // active preview location, empty when HasPreview is false
	HasPreview     bool
	Placeholder    string
	ActionsEnabled bool
}

// Result describes how a confirmed submission ended.
type Result struct {
	ProductID int64
	Payment   domain.PaymentType
	Message   string // text of the notification that was surfaced
	Err       error  // submission failure, nil on success
	ReloadErr error  // failure of the follow-up catalog reload, success path only
}

// Succeeded reports whether the sale was registered.
func (r Result) Succeeded() bool {
	return r.Err == nil
}

// Workflow is the sale state machine. Each method applies its state change atomically;
// the network round trip of Confirm runs outside the lock.
type Workflow struct {
	products  Products
	submitter Submitter
	notifier  Notifier
	resolver  *imageresolver.Resolver
	logger    *zap.Logger

	mu      sync.Mutex
	dialog  *confirmation
	pending []int64 // outstanding submissions in confirmation order
}

// NewWorkflow wires a Workflow.
func NewWorkflow(products Products, submitter Submitter, notifier Notifier, resolver *imageresolver.Resolver, logger *zap.Logger) *Workflow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Workflow{
		products:  products,
		submitter: submitter,
		notifier:  notifier,
		resolver:  resolver,
		logger:    logger,
	}
}

// RequestSale opens the confirmation for productID, pinning a copy of the product as it is
// in the current snapshot. Any open confirmation is replaced. It reports false and changes
// nothing when the product is unknown or already has a submission in flight.
func (w *Workflow) RequestSale(productID int64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if slices.Contains(w.pending, productID) {
		w.logger.Debug("sale request ignored, submission in flight", zap.Int64("product_id", productID))
		return false
	}
	p, ok := w.products.Find(productID)
	if !ok {
		w.logger.Debug("sale request ignored, product not in catalog", zap.Int64("product_id", productID))
		return false
	}
	w.dialog = &confirmation{
		product: p.Clone(),
		preview: imageresolver.NewCursor(w.resolver.Candidates(p)),
		payment: domain.DefaultPayment,
	}
	return true
}

// SelectPayment changes the payment method of the open confirmation.
func (w *Workflow) SelectPayment(payment domain.PaymentType) error {
	if !payment.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownPayment, payment)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.dialog == nil {
		return ErrNotConfirming
	}
	w.dialog.payment = payment
	return nil
}

// Cancel discards the open confirmation.
func (w *Workflow) Cancel() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.dialog == nil {
		return ErrNotConfirming
	}
	if slices.Contains(w.pending, w.dialog.product.ID) {
		return ErrSubmissionInFlight
	}
	w.dialog = nil
	return nil
}

// PreviewFailed handles a load failure of the dialog preview and advances its own cursor.
func (w *Workflow) PreviewFailed() (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.dialog == nil {
		return "", false
	}
	return w.dialog.preview.Advance()
}

// Dialog returns a view of the open confirmation, or false when none is open.
func (w *Workflow) Dialog() (Dialog, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.dialog == nil {
		return Dialog{}, false
	}
	loc, ok := w.dialog.preview.Active()
	return Dialog{
		Product:        w.dialog.product.Clone(),
		Payment:        w.dialog.payment,
		Preview:        loc,
		HasPreview:     ok,
		Placeholder:    imageresolver.Placeholder(w.dialog.product.Code),
		ActionsEnabled: !slices.Contains(w.pending, w.dialog.product.ID),
	}, true
}

// Confirm closes the dialog, marks the pinned product in flight and submits exactly one sale.
// It is Begin followed by Run. The returned error only reports an invalid transition.
func (w *Workflow) Confirm(ctx context.Context) (Result, error) {
	sub, err := w.Begin()
	if err != nil {
		return Result{}, err
	}
	return sub.Run(ctx), nil
}

// Begin performs the synchronous half of a confirmation: it captures the pinned product and
// payment, discards the dialog and marks the product in flight. The request itself is issued by Run.
func (w *Workflow) Begin() (*Submission, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.dialog == nil {
		return nil, ErrNotConfirming
	}
	product, payment := w.dialog.product, w.dialog.payment
	if slices.Contains(w.pending, product.ID) {
		return nil, fmt.Errorf("%w %d", ErrSubmissionInFlight, product.ID)
	}
	w.dialog = nil
	w.pending = append(w.pending, product.ID)
	return &Submission{w: w, product: product, payment: payment}, nil
}

// Submission is a confirmed sale whose product is marked in flight.
type Submission struct {
	w       *Workflow
	product domain.Product
	payment domain.PaymentType

	once   sync.Once
	result Result
}

// Product is the pinned product being sold.
func (s *Submission) Product() domain.Product {
	return s.product.Clone()
}

// Payment is the chosen payment method.
func (s *Submission) Payment() domain.PaymentType {
	return s.payment
}

// Run issues the sale request once; later calls return the first result.
// The request and the follow-up reload are not cancelable: ctx only contributes values.
// Every outcome is turned into a notification and the in-flight mark is always cleared.
func (s *Submission) Run(ctx context.Context) Result {
	s.once.Do(func() {
		s.result = s.w.submit(context.WithoutCancel(ctx), s.product, s.payment)
	})
	return s.result
}

func (w *Workflow) submit(ctx context.Context, product domain.Product, payment domain.PaymentType) Result {
	log := w.logger.With(zap.Int64("product_id", product.ID), zap.String("payment_type", string(payment)))
	log.Info("submitting sale")

	err := w.submitter.SubmitSale(ctx, product.ID, payment)

	w.mu.Lock()
	if i := slices.Index(w.pending, product.ID); i >= 0 {
		w.pending = slices.Delete(w.pending, i, i+1)
	}
	w.mu.Unlock()

	res := Result{ProductID: product.ID, Payment: payment}
	if err != nil {
		res.Err = err
		res.Message = failureMessage(err)
		w.notifier.Error(res.Message)
		log.Warn("sale failed", zap.Error(err))
		return res
	}

	res.Message = fmt.Sprintf("Sale registered for %s", product.Name)
	w.notifier.Success(res.Message)
	log.Info("sale registered")
	if res.ReloadErr = w.products.Reload(ctx); res.ReloadErr != nil {
		log.Warn("catalog reload after sale failed", zap.Error(res.ReloadErr))
	}
	return res
}

// State reports the workflow state. An open dialog takes precedence over outstanding submissions.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch {
	case w.dialog != nil:
		return StateConfirming
	case len(w.pending) > 0:
		return StateSubmitting
	default:
		return StateIdle
	}
}

// InFlight is the in-flight marker: the most recently confirmed product whose submission is outstanding.
func (w *Workflow) InFlight() (int64, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.pending) == 0 {
		return 0, false
	}
	return w.pending[len(w.pending)-1], true
}

// Submitting reports whether productID has an outstanding submission; its sell action must be disabled.
func (w *Workflow) Submitting(productID int64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Contains(w.pending, productID)
}

func failureMessage(err error) string {
	var subErr *SubmissionError
	if errors.As(err, &subErr) && subErr.Message != "" {
		return subErr.Message
	}
	return DefaultFailureMessage
}
