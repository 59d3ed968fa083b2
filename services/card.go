package services

import (
	"context"
	"encoding/json"

	"github.com/paycrest/cardflow/client"
	"github.com/paycrest/cardflow/types"
)

// Backend REST surface consumed by the SDK. Price and version are the only
// unauthenticated endpoints.
const (
	endpointKYCLastStatus   = "/v1/kyc/status/last"
	endpointKYCHistory      = "/v1/kyc/status/history"
	endpointKYCAttempts     = "/v1/kyc/attempts"
	endpointKYCRetryFee     = "/v1/kyc/retry-fee"
	endpointIBANAccounts    = "/v1/accounts/ibans"
	endpointXORPrice        = "/v1/rates/xor-eur"
	endpointVersionManifest = "/v1/client/version"
	endpointX1Payment       = "/v1/payments/x1/status"
)

// Requester is the coalescing request surface the API service rides on.
type Requester interface {
	Execute(ctx context.Context, req client.Request, requiresAuth bool) ([]byte, error)
}

// CardAPIService exposes the backend surface as typed accessors.
type CardAPIService struct {
	backend Requester
}

// NewCardAPIService constructs the API service over a request client.
func NewCardAPIService(backend Requester) *CardAPIService {
	return &CardAPIService{backend: backend}
}

func (s *CardAPIService) get(ctx context.Context, req client.Request, requiresAuth bool, out interface{}) error {
	body, err := s.backend.Execute(ctx, req, requiresAuth)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return client.ErrCannotDecodeRawData{Err: err}
	}
	return nil
}

// LastKYCStatus fetches the most recent account record. Each record
// supersedes the previous one wholesale.
func (s *CardAPIService) LastKYCStatus(ctx context.Context) (*types.UserState, error) {
	var state types.UserState
	if err := s.get(ctx, client.NewGet(endpointKYCLastStatus), true, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// StatusHistory fetches every account record the backend kept.
func (s *CardAPIService) StatusHistory(ctx context.Context) ([]types.UserState, error) {
	var history []types.UserState
	if err := s.get(ctx, client.NewGet(endpointKYCHistory), true, &history); err != nil {
		return nil, err
	}
	return history, nil
}

// AttemptCount fetches the server-side free-attempt counters.
func (s *CardAPIService) AttemptCount(ctx context.Context) (*types.KYCAttempts, error) {
	var attempts types.KYCAttempts
	if err := s.get(ctx, client.NewGet(endpointKYCAttempts), true, &attempts); err != nil {
		return nil, err
	}
	return &attempts, nil
}

// RetryFee fetches the fee for a paid re-submission.
func (s *CardAPIService) RetryFee(ctx context.Context) (*types.RetryFee, error) {
	var fee types.RetryFee
	if err := s.get(ctx, client.NewGet(endpointKYCRetryFee), true, &fee); err != nil {
		return nil, err
	}
	return &fee, nil
}

// IBANAccounts fetches the accounts linked to issued cards.
func (s *CardAPIService) IBANAccounts(ctx context.Context) ([]types.IBANAccount, error) {
	var accounts []types.IBANAccount
	if err := s.get(ctx, client.NewGet(endpointIBANAccounts), true, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// XORPrice fetches the XOR/EUR conversion rate. Unauthenticated.
func (s *CardAPIService) XORPrice(ctx context.Context) (*types.PriceQuote, error) {
	var quote types.PriceQuote
	if err := s.get(ctx, client.NewGet(endpointXORPrice), false, &quote); err != nil {
		return nil, err
	}
	return &quote, nil
}

// VersionManifest fetches the server-advertised minimum client version.
// The manifest is unauthenticated, so the payload is validated against an
// embedded schema before it is trusted to gate anything.
func (s *CardAPIService) VersionManifest(ctx context.Context) (*types.VersionManifest, error) {
	body, err := s.backend.Execute(ctx, client.NewGet(endpointVersionManifest), false)
	if err != nil {
		return nil, err
	}
	if err := validateManifest(body); err != nil {
		return nil, err
	}
	var manifest types.VersionManifest
	if err := json.Unmarshal(body, &manifest); err != nil {
		return nil, client.ErrCannotDecodeRawData{Err: err}
	}
	return &manifest, nil
}

// X1PaymentStatus fetches the state of a card-issuance fee payment.
func (s *CardAPIService) X1PaymentStatus(ctx context.Context, paymentID string) (*types.X1PaymentStatus, error) {
	req := client.NewGet(endpointX1Payment).WithQuery("paymentId", paymentID)
	var payment types.X1PaymentStatus
	if err := s.get(ctx, req, true, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}
