package flow

import (
	"github.com/paycrest/cardflow/types"
	"github.com/paycrest/cardflow/version"
)

// Step is one screen/decision point of the onboarding flow. The host shell
// renders steps; the coordinator owns all movement between them.
type Step int

const (
	StepCheckingVersion Step = iota
	StepUpdateRequired
	StepAuthenticating
	StepLogin
	StepTerms
	StepPhoneEntry
	StepPhoneOTP
	StepNameEntry
	StepEmailEntry
	StepEmailOTP
	StepStatusCheck
	StepFunding
	StepGetPrepared
	StepKYCCapture
	StepStatus
	StepCardHub
	StepError
)

func (s Step) String() string {
	switch s {
	case StepCheckingVersion:
		return "checking_version"
	case StepUpdateRequired:
		return "update_required"
	case StepAuthenticating:
		return "authenticating"
	case StepLogin:
		return "login"
	case StepTerms:
		return "terms"
	case StepPhoneEntry:
		return "phone_entry"
	case StepPhoneOTP:
		return "phone_otp"
	case StepNameEntry:
		return "name_entry"
	case StepEmailEntry:
		return "email_entry"
	case StepEmailOTP:
		return "email_otp"
	case StepStatusCheck:
		return "status_check"
	case StepFunding:
		return "funding"
	case StepGetPrepared:
		return "get_prepared"
	case StepKYCCapture:
		return "kyc_capture"
	case StepStatus:
		return "status"
	case StepCardHub:
		return "card_hub"
	case StepError:
		return "error"
	default:
		return "unknown"
	}
}

// Event moves the flow between steps. Events originate from the coordinator
// itself (version check, status resolution) or from host callbacks (screen
// completions, capture outcomes).
type Event interface {
	isEvent()
}

type (
	// EventVersionChecked carries the version gate verdict.
	EventVersionChecked struct{ Severity version.Severity }

	// EventSessionResumed fires when a stored token pair exists.
	EventSessionResumed struct{}

	// EventLoginRequired fires when no user is signed in.
	EventLoginRequired struct{}

	// EventLoggedIn fires when the host completed credential entry.
	EventLoggedIn struct{}

	// EventTermsAccepted fires when the user accepted the terms.
	EventTermsAccepted struct{}

	// EventPhoneSubmitted fires when a phone number was entered.
	EventPhoneSubmitted struct{}

	// EventPhoneVerified carries which profile fields are still missing.
	EventPhoneVerified struct {
		NeedsName  bool
		NeedsEmail bool
	}

	// EventNameSubmitted fires when the user entered their name.
	EventNameSubmitted struct{}

	// EventEmailSubmitted fires when an email address was entered.
	EventEmailSubmitted struct{}

	// EventEmailVerified fires when the email OTP was confirmed.
	EventEmailVerified struct{}

	// EventStatusResolved carries everything the status decision needs.
	EventStatusResolved struct {
		Status            types.UserStatus
		HasIBAN           bool
		HasFreeAttempts   bool
		RetryRequested    bool
		BalanceGatePassed bool
	}

	// EventPrepared fires when the user finished the capture briefing.
	EventPrepared struct{}

	// EventCaptureSucceeded carries the vendor-issued KYC id.
	EventCaptureSucceeded struct{ KYCID string }

	// EventCaptureAborted fires when the user left document capture. It is
	// not a failure; the flow returns to the prior decision point.
	EventCaptureAborted struct{}

	// EventCaptureFailed carries the vendor error.
	EventCaptureFailed struct {
		Code    string
		Message string
	}

	// EventFunded fires when the user acts on the funding screen.
	EventFunded struct{}

	// EventRetryRequested fires when the user asked for a free re-attempt.
	EventRetryRequested struct{}

	// EventPaymentCompleted fires when the payment widget reports success.
	EventPaymentCompleted struct{}

	// EventNetworkFailed surfaces a failure while resolving status.
	EventNetworkFailed struct{ Err error }

	// EventReset clears local state and forces re-login.
	EventReset struct{}
)

func (EventVersionChecked) isEvent()   {}
func (EventSessionResumed) isEvent()   {}
func (EventLoginRequired) isEvent()    {}
func (EventLoggedIn) isEvent()         {}
func (EventTermsAccepted) isEvent()    {}
func (EventPhoneSubmitted) isEvent()   {}
func (EventPhoneVerified) isEvent()    {}
func (EventNameSubmitted) isEvent()    {}
func (EventEmailSubmitted) isEvent()   {}
func (EventEmailVerified) isEvent()    {}
func (EventStatusResolved) isEvent()   {}
func (EventPrepared) isEvent()         {}
func (EventCaptureSucceeded) isEvent() {}
func (EventCaptureAborted) isEvent()   {}
func (EventCaptureFailed) isEvent()    {}
func (EventFunded) isEvent()           {}
func (EventRetryRequested) isEvent()   {}
func (EventPaymentCompleted) isEvent() {}
func (EventNetworkFailed) isEvent()    {}
func (EventReset) isEvent()            {}

// Transition is the pure decision function of the flow. Given the current
// step and an event it returns the next step; events that do not apply to
// the current step leave it unchanged.
func Transition(current Step, event Event) Step {
	// Resets and network failures apply from any step. A blocked version
	// gate is final until the app updates, so not even those move it.
	if current == StepUpdateRequired {
		return current
	}
	switch event.(type) {
	case EventReset:
		return StepLogin
	case EventNetworkFailed:
		return StepError
	}

	switch current {
	case StepCheckingVersion:
		if e, ok := event.(EventVersionChecked); ok {
			if e.Severity.Blocking() {
				return StepUpdateRequired
			}
			return StepAuthenticating
		}
	case StepAuthenticating:
		switch event.(type) {
		case EventSessionResumed:
			return StepStatusCheck
		case EventLoginRequired:
			return StepLogin
		}
	case StepLogin:
		if _, ok := event.(EventLoggedIn); ok {
			return StepTerms
		}
	case StepTerms:
		if _, ok := event.(EventTermsAccepted); ok {
			return StepPhoneEntry
		}
	case StepPhoneEntry:
		if _, ok := event.(EventPhoneSubmitted); ok {
			return StepPhoneOTP
		}
	case StepPhoneOTP:
		if e, ok := event.(EventPhoneVerified); ok {
			if e.NeedsName {
				return StepNameEntry
			}
			if e.NeedsEmail {
				return StepEmailEntry
			}
			return StepStatusCheck
		}
	case StepNameEntry:
		if _, ok := event.(EventNameSubmitted); ok {
			return StepEmailEntry
		}
	case StepEmailEntry:
		if _, ok := event.(EventEmailSubmitted); ok {
			return StepEmailOTP
		}
	case StepEmailOTP:
		if _, ok := event.(EventEmailVerified); ok {
			return StepStatusCheck
		}
	case StepStatusCheck:
		if e, ok := event.(EventStatusResolved); ok {
			return decideStatus(e)
		}
	case StepFunding:
		if _, ok := event.(EventFunded); ok {
			return StepStatusCheck
		}
	case StepGetPrepared:
		if _, ok := event.(EventPrepared); ok {
			return StepKYCCapture
		}
	case StepKYCCapture:
		switch event.(type) {
		case EventCaptureSucceeded, EventCaptureAborted, EventCaptureFailed:
			return StepStatusCheck
		}
	case StepStatus:
		switch event.(type) {
		case EventRetryRequested, EventPaymentCompleted:
			return StepStatusCheck
		}
	}
	return current
}

// decideStatus implements the status-check decision table.
func decideStatus(e EventStatusResolved) Step {
	switch e.Status.Kind {
	case types.StatusSuccessful:
		if e.HasIBAN {
			return StepCardHub
		}
		return StepStatus
	case types.StatusNotStarted:
		if e.BalanceGatePassed {
			return StepGetPrepared
		}
		return StepFunding
	case types.StatusUserCanceled:
		// Abandoned or inconsistent flow: re-enter capture from the last
		// reference number.
		return StepGetPrepared
	default:
		// Pending and rejected records only re-enter capture when the user
		// explicitly asked to retry; otherwise they land on the terminal
		// status display.
		if e.RetryRequested {
			return StepGetPrepared
		}
		return StepStatus
	}
}
