package types

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// KYCStatus is the raw document-verification state reported by the backend.
type KYCStatus string

const (
	KYCNotStarted KYCStatus = "not_started"
	KYCStarted    KYCStatus = "started"
	KYCCompleted  KYCStatus = "completed"
	KYCSuccessful KYCStatus = "successful"
	KYCFailed     KYCStatus = "failed"
	KYCRejected   KYCStatus = "rejected"
	KYCRetry      KYCStatus = "retry"
)

// VerificationStatus is the raw compliance verdict reported by the backend.
// It can disagree with KYCStatus; StatusResolver reconciles the two.
type VerificationStatus string

const (
	VerificationNone     VerificationStatus = "none"
	VerificationPending  VerificationStatus = "pending"
	VerificationAccepted VerificationStatus = "accepted"
	VerificationRejected VerificationStatus = "rejected"
)

// UserState is one logical account record from the backend. Each fetch
// supersedes the previous record wholesale; fields are never merged.
type UserState struct {
	KYCID               string             `json:"kycId"`
	PersonID            string             `json:"personId"`
	UserReferenceNumber string             `json:"userReferenceNumber"`
	ReferenceID         string             `json:"referenceId"`
	KYCStatus           KYCStatus          `json:"kycStatus"`
	VerificationStatus  VerificationStatus `json:"verificationStatus"`
	IBANStatus          string             `json:"ibanStatus"`
	RejectionReasons    []string           `json:"rejectionReasons"`
	AdditionalInfo      string             `json:"additionalDescription"`
	UpdatedAt           int64              `json:"updateTimestamp"`
}

// UserStatusKind enumerates the canonical user-facing statuses. This is the
// only status the presentation layer may branch on.
type UserStatusKind string

const (
	StatusNotStarted   UserStatusKind = "not_started"
	StatusPending      UserStatusKind = "pending"
	StatusRejected     UserStatusKind = "rejected"
	StatusSuccessful   UserStatusKind = "successful"
	StatusUserCanceled UserStatusKind = "user_canceled"
)

// UserStatus is the reconciled status derived from a UserState record.
// Reason fields are populated only for StatusRejected.
type UserStatus struct {
	Kind              UserStatusKind
	RejectionReasons  []string
	ReasonDescription string
}

// KYCAttempts is a read-only snapshot of the server-side attempt counters.
type KYCAttempts struct {
	Total             int  `json:"total"`
	Completed         int  `json:"completed"`
	Rejected          int  `json:"rejected"`
	TotalFreeAttempts int  `json:"totalFreeAttempts"`
	FreeAttemptsLeft  int  `json:"freeAttemptsLeft"`
	HasFreeAttempts   bool `json:"hasFreeAttempts"`
}

// Token is a refresh/access token pair. Mutated only by the refresh
// operation, never partially updated.
type Token struct {
	RefreshToken              string `json:"refreshToken"`
	AccessToken               string `json:"accessToken"`
	AccessTokenExpirationTime int64  `json:"accessTokenExpirationTime"`
}

// ExpiresWithin reports whether the access token expires before now+leeway.
func (t *Token) ExpiresWithin(leeway time.Duration) bool {
	return time.Now().Add(leeway).Unix() >= t.AccessTokenExpirationTime
}

// TokenGrant is the result of exchanging a refresh token.
type TokenGrant struct {
	AccessToken string `json:"accessToken"`
	ExpiresAt   int64  `json:"expiresAt"`
}

// AuthorizationData is a per-request authorization grant, optionally carrying
// a proof-of-possession header value.
type AuthorizationData struct {
	AccessToken       string `json:"accessToken"`
	ProofOfPossession string `json:"proofOfPossession"`
}

// AuthCapability is the external authentication service the SDK negotiates
// tokens with.
type AuthCapability interface {
	// RequestAccessToken exchanges a refresh token for a new access token.
	RequestAccessToken(ctx context.Context, refreshToken string) (*TokenGrant, error)

	// GetAuthorizationData obtains a per-request grant for the given target.
	// Returns ErrSignInRequired when the user must re-authenticate.
	GetAuthorizationData(ctx context.Context, targetPath, method string) (*AuthorizationData, error)
}

// CaptureResult is the terminal outcome of a document capture session.
type CaptureResult struct {
	KYCID     string
	Aborted   bool
	ErrorCode string
	ErrorMsg  string
}

// CaptureCapability is the external document-capture vendor SDK, treated as
// an opaque "start capture, report outcome" surface.
type CaptureCapability interface {
	Start(ctx context.Context, referenceID, referenceNumber, language string) (*CaptureResult, error)
}

// IBANAccount represents the issued card's linked account.
type IBANAccount struct {
	IBAN     string `json:"iban"`
	Currency string `json:"currency"`
	Active   bool   `json:"active"`
}

// RetryFee is the fee charged for a paid KYC re-submission.
type RetryFee struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// PriceQuote is the XOR/EUR conversion rate used by the balance gate.
type PriceQuote struct {
	Pair  string          `json:"pair"`
	Price decimal.Decimal `json:"price"`
}

// VersionManifest is the server-advertised client version requirement.
type VersionManifest struct {
	RequiredClientVersion string `json:"requiredClientVersion"`
}

// X1PaymentStatus is the state of a card-issuance fee payment.
type X1PaymentStatus struct {
	PaymentID string `json:"paymentId"`
	Status    string `json:"status"`
	Paid      bool   `json:"paid"`
}

// BalanceGate is a snapshot of the free-issuance balance check.
type BalanceGate struct {
	XORBalance     decimal.Decimal
	FiatEquivalent decimal.Decimal
	ThresholdEUR   decimal.Decimal
	Passed         bool
}
