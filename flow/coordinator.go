package flow

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/paycrest/cardflow/auth"
	"github.com/paycrest/cardflow/client"
	"github.com/paycrest/cardflow/config"
	"github.com/paycrest/cardflow/storage"
	"github.com/paycrest/cardflow/status"
	"github.com/paycrest/cardflow/types"
	"github.com/paycrest/cardflow/utils/logger"
	"github.com/paycrest/cardflow/version"
)

const (
	retryFlagKey   = "retry_attempt"
	firstLaunchKey = "first_launch"
	kycIDKey       = "kyc_id"
)

// API is the backend surface the coordinator consumes.
type API interface {
	LastKYCStatus(ctx context.Context) (*types.UserState, error)
	AttemptCount(ctx context.Context) (*types.KYCAttempts, error)
	IBANAccounts(ctx context.Context) ([]types.IBANAccount, error)
	VersionManifest(ctx context.Context) (*types.VersionManifest, error)
}

// View is the data accompanying a rendered step. The presenter may branch
// on Status.Kind and nothing rawer.
type View struct {
	Status   types.UserStatus
	Attempts types.KYCAttempts
	Gate     types.BalanceGate
	Err      error
}

// Presenter renders a step. It is the SDK's only outward-facing UI surface;
// implementations belong to the host shell.
type Presenter interface {
	Present(ctx context.Context, step Step, view View)
}

// Coordinator drives the onboarding flow: it owns the current step, applies
// events through the pure Transition function, and performs the entry
// actions (status resolution, capture start) each step requires.
type Coordinator struct {
	api       API
	presenter Presenter
	capture   types.CaptureCapability
	tokens    *auth.TokenStore
	kv        storage.KV
	balance   *Value[types.BalanceGate]

	clientConf *config.ClientConfiguration
	cardConf   *config.CardConfiguration

	mu        sync.Mutex
	step      Step
	view      View
	lastState *types.UserState
}

// NewCoordinator wires the coordinator from explicitly constructed services.
// Lifecycle is owned by the host application.
func NewCoordinator(api API, presenter Presenter, capture types.CaptureCapability, tokens *auth.TokenStore, kv storage.KV, balance *Value[types.BalanceGate]) *Coordinator {
	return &Coordinator{
		api:        api,
		presenter:  presenter,
		capture:    capture,
		tokens:     tokens,
		kv:         kv,
		balance:    balance,
		clientConf: config.ClientConfig(),
		cardConf:   config.CardConfig(),
		step:       StepCheckingVersion,
	}
}

// Step returns the current step.
func (c *Coordinator) Step() Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

// Start enters the flow at the version gate and begins watching the balance
// stream for funding-screen refreshes.
func (c *Coordinator) Start(ctx context.Context) {
	c.markLaunched(ctx)
	go c.watchBalance(ctx)
	c.render(ctx, StepCheckingVersion)
	c.checkVersion(ctx)
}

// Dispatch applies a host-originated event to the flow.
func (c *Coordinator) Dispatch(ctx context.Context, event Event) {
	c.apply(ctx, event)
}

// RequestRetry records the user's decision to spend a free attempt, then
// re-enters the status decision point.
func (c *Coordinator) RequestRetry(ctx context.Context) {
	if err := c.kv.Set(ctx, retryFlagKey, "true"); err != nil {
		logger.Errorf("Failed to persist retry flag", logger.Fields{"Error": err.Error()})
	}
	c.apply(ctx, EventRetryRequested{})
}

// Reset clears the retry flag and the stored token, forcing a fresh login.
// It is the only recovery path offered after a network failure.
func (c *Coordinator) Reset(ctx context.Context) {
	if err := c.kv.Delete(ctx, retryFlagKey); err != nil {
		logger.Errorf("Failed to clear retry flag", logger.Fields{"Error": err.Error()})
	}
	if err := c.tokens.Clear(ctx); err != nil {
		logger.Errorf("Failed to clear stored token", logger.Fields{"Error": err.Error()})
	}
	c.apply(ctx, EventReset{})
}

// apply runs one event through the pure transition, renders the new step,
// and executes its entry action.
func (c *Coordinator) apply(ctx context.Context, event Event) {
	c.mu.Lock()
	next := Transition(c.step, event)
	moved := next != c.step
	c.step = next
	if e, ok := event.(EventStatusResolved); ok {
		c.view.Status = e.Status
	}
	if e, ok := event.(EventNetworkFailed); ok {
		c.view.Err = e.Err
	}
	c.mu.Unlock()

	if !moved {
		return
	}
	c.render(ctx, next)

	switch next {
	case StepStatusCheck:
		c.resolveStatus(ctx)
	case StepKYCCapture:
		c.startCapture(ctx)
	}
}

func (c *Coordinator) render(ctx context.Context, step Step) {
	c.mu.Lock()
	view := c.view
	c.mu.Unlock()
	logger.Infof("Presenting step", logger.Fields{"Step": step.String()})
	c.presenter.Present(ctx, step, view)
}

// checkVersion fetches the manifest and applies the version gate. A
// manifest that cannot be fetched is a network failure like any other; an
// unparseable version string fails open with a warning because blocking
// every user on a server typo is worse than skipping one advisory gate.
func (c *Coordinator) checkVersion(ctx context.Context) {
	manifest, err := c.api.VersionManifest(ctx)
	if err != nil {
		c.apply(ctx, EventNetworkFailed{Err: err})
		return
	}

	severity, err := version.Compare(manifest.RequiredClientVersion, c.clientConf.ClientVersion)
	if err != nil {
		logger.Warnf("Unparseable version manifest, skipping gate", logger.Fields{
			"Required": manifest.RequiredClientVersion,
			"Current":  c.clientConf.ClientVersion,
		})
		severity = version.SeverityNone
	}
	c.apply(ctx, EventVersionChecked{Severity: severity})

	if severity.Blocking() {
		return
	}
	if c.tokens.Token(ctx) != nil {
		c.apply(ctx, EventSessionResumed{})
	} else {
		c.apply(ctx, EventLoginRequired{})
	}
}

// resolveStatus is the StepStatusCheck entry action: it gathers the raw
// record, reconciles it, and feeds the decision event back into the flow.
func (c *Coordinator) resolveStatus(ctx context.Context) {
	state, err := c.api.LastKYCStatus(ctx)
	if err != nil {
		c.apply(ctx, EventNetworkFailed{Err: err})
		return
	}
	attempts, err := c.api.AttemptCount(ctx)
	if err != nil {
		c.apply(ctx, EventNetworkFailed{Err: err})
		return
	}

	resolved := status.Resolve(*state)

	hasIBAN := false
	if resolved.Kind == types.StatusSuccessful {
		ibans, err := c.api.IBANAccounts(ctx)
		if err != nil {
			c.apply(ctx, EventNetworkFailed{Err: err})
			return
		}
		hasIBAN = len(ibans) > 0
	}

	if state.KYCID != "" {
		if err := c.kv.Set(ctx, kycIDKey, state.KYCID); err != nil {
			logger.Errorf("Failed to cache KYC id", logger.Fields{"Error": err.Error()})
		}
	}

	gate, _ := c.balance.Get()

	c.mu.Lock()
	c.lastState = state
	c.view.Attempts = *attempts
	c.view.Gate = gate
	c.mu.Unlock()

	c.apply(ctx, EventStatusResolved{
		Status:            resolved,
		HasIBAN:           hasIBAN,
		HasFreeAttempts:   attempts.HasFreeAttempts,
		RetryRequested:    c.retryRequested(ctx),
		BalanceGatePassed: gate.Passed,
	})
}

// startCapture is the StepKYCCapture entry action. An abort is not a
// failure; both feed back into the status decision point.
func (c *Coordinator) startCapture(ctx context.Context) {
	c.mu.Lock()
	state := c.lastState
	c.mu.Unlock()

	referenceID := ""
	referenceNumber := ""
	if state != nil {
		referenceID = state.ReferenceID
		referenceNumber = state.UserReferenceNumber
	}
	if referenceNumber == "" {
		referenceNumber = uuid.NewString()
	}

	result, err := c.capture.Start(ctx, referenceID, referenceNumber, c.cardConf.CaptureLanguage)
	if err != nil {
		var aborted client.ErrAborted
		if errors.As(err, &aborted) {
			c.apply(ctx, EventCaptureAborted{})
			return
		}
		logger.Errorf("Document capture failed to start", logger.Fields{"Error": err.Error()})
		c.apply(ctx, EventCaptureFailed{Message: err.Error()})
		return
	}
	if result.Aborted {
		c.apply(ctx, EventCaptureAborted{})
		return
	}
	if result.ErrorCode != "" {
		logger.Warnf("Document capture reported an error", logger.Fields{"Code": result.ErrorCode, "Message": result.ErrorMsg})
		c.apply(ctx, EventCaptureFailed{Code: result.ErrorCode, Message: result.ErrorMsg})
		return
	}

	if result.KYCID != "" {
		if err := c.kv.Set(ctx, kycIDKey, result.KYCID); err != nil {
			logger.Errorf("Failed to cache KYC id", logger.Fields{"Error": err.Error()})
		}
	}
	// A completed capture also consumes the local retry request.
	if err := c.kv.Delete(ctx, retryFlagKey); err != nil {
		logger.Errorf("Failed to clear retry flag", logger.Fields{"Error": err.Error()})
	}
	c.apply(ctx, EventCaptureSucceeded{KYCID: result.KYCID})
}

// watchBalance re-renders the funding screen whenever the balance gate
// changes. The gate flipping does not transition steps; the user still has
// to act.
func (c *Coordinator) watchBalance(ctx context.Context) {
	for gate := range c.balance.Subscribe(ctx) {
		c.mu.Lock()
		c.view.Gate = gate
		current := c.step
		c.mu.Unlock()
		if current == StepFunding {
			c.render(ctx, StepFunding)
		}
	}
}

func (c *Coordinator) retryRequested(ctx context.Context) bool {
	value, err := c.kv.Get(ctx, retryFlagKey)
	if err != nil {
		return false
	}
	return value == "true"
}

func (c *Coordinator) markLaunched(ctx context.Context) {
	if _, err := c.kv.Get(ctx, firstLaunchKey); err == nil {
		return
	}
	if err := c.kv.Set(ctx, firstLaunchKey, "done"); err != nil {
		logger.Errorf("Failed to persist first-launch flag", logger.Fields{"Error": err.Error()})
	}
}
