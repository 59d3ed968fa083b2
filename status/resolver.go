// Package status reconciles the raw backend status fields into the one
// canonical user-facing status the rest of the SDK branches on.
package status

import "github.com/paycrest/cardflow/types"

// Resolve maps a raw account record onto a canonical status. It is a pure
// function; the same record always resolves the same way.
//
// An accepted verification verdict wins over every kycStatus value,
// including a kycStatus that itself claims success. The converse does not
// hold: a successful kycStatus without an accepted verification is treated
// as an abandoned or inconsistent flow, so the user re-enters capture from
// their last reference number instead of being shown a card they don't
// have.
func Resolve(state types.UserState) types.UserStatus {
	if state.VerificationStatus == types.VerificationAccepted {
		return types.UserStatus{Kind: types.StatusSuccessful}
	}

	switch state.KYCStatus {
	case types.KYCCompleted:
		// Documents submitted, verdict pending.
		return types.UserStatus{Kind: types.StatusPending}
	case types.KYCRetry, types.KYCRejected:
		return types.UserStatus{
			Kind:              types.StatusRejected,
			RejectionReasons:  state.RejectionReasons,
			ReasonDescription: state.AdditionalInfo,
		}
	case types.KYCStarted, types.KYCFailed, types.KYCSuccessful:
		return types.UserStatus{Kind: types.StatusUserCanceled}
	default:
		return types.UserStatus{Kind: types.StatusNotStarted}
	}
}
