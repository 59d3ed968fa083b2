package main

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/paycrest/cardflow/auth"
	"github.com/paycrest/cardflow/flow"
	"github.com/paycrest/cardflow/storage"
	"github.com/paycrest/cardflow/types"
)

// Fake collaborators standing in for the host shell and backend, so the
// coordinator can be exercised end to end from a terminal.

type demoAPI struct {
	state types.UserState
}

func (d *demoAPI) LastKYCStatus(ctx context.Context) (*types.UserState, error) {
	state := d.state
	return &state, nil
}

func (d *demoAPI) AttemptCount(ctx context.Context) (*types.KYCAttempts, error) {
	return &types.KYCAttempts{Total: 1, Rejected: 1, TotalFreeAttempts: 2, FreeAttemptsLeft: 1, HasFreeAttempts: true}, nil
}

func (d *demoAPI) IBANAccounts(ctx context.Context) ([]types.IBANAccount, error) {
	if d.state.VerificationStatus != types.VerificationAccepted {
		return nil, nil
	}
	return []types.IBANAccount{{IBAN: "DE02120300000000202051", Currency: "EUR", Active: true}}, nil
}

func (d *demoAPI) VersionManifest(ctx context.Context) (*types.VersionManifest, error) {
	return &types.VersionManifest{RequiredClientVersion: "1.0.0"}, nil
}

type demoPresenter struct{}

func (demoPresenter) Present(ctx context.Context, step flow.Step, view flow.View) {
	fmt.Printf("-> %s (status=%s, gate passed=%v)\n", step, view.Status.Kind, view.Gate.Passed)
}

type demoCapture struct{}

func (demoCapture) Start(ctx context.Context, referenceID, referenceNumber, language string) (*types.CaptureResult, error) {
	fmt.Printf("   capture session ref=%s lang=%s\n", referenceNumber, language)
	return &types.CaptureResult{KYCID: "demo-kyc-id"}, nil
}

type demoAuth struct{}

func (demoAuth) RequestAccessToken(ctx context.Context, refreshToken string) (*types.TokenGrant, error) {
	return &types.TokenGrant{AccessToken: "demo-access", ExpiresAt: time.Now().Add(time.Hour).Unix()}, nil
}

func (demoAuth) GetAuthorizationData(ctx context.Context, targetPath, method string) (*types.AuthorizationData, error) {
	return &types.AuthorizationData{AccessToken: "demo-access"}, nil
}

func main() {
	ctx := context.Background()

	kv := storage.NewMemoryKV()
	tokens := auth.NewTokenStore(kv, demoAuth{})
	_ = tokens.Save(ctx, &types.Token{
		RefreshToken:              "demo-refresh",
		AccessToken:               "demo-access",
		AccessTokenExpirationTime: time.Now().Add(time.Hour).Unix(),
	})

	balance := flow.NewValue[types.BalanceGate]()
	balance.Set(types.BalanceGate{
		FiatEquivalent: decimal.NewFromInt(150),
		ThresholdEUR:   decimal.NewFromInt(100),
		Passed:         true,
	})

	api := &demoAPI{state: types.UserState{
		KYCStatus:          types.KYCRejected,
		VerificationStatus: types.VerificationRejected,
		RejectionReasons:   []string{"document_expired"},
		ReferenceID:        "demo-ref",
	}}

	coordinator := flow.NewCoordinator(api, demoPresenter{}, demoCapture{}, tokens, kv, balance)

	fmt.Println("Example 1: rejected record lands on the status screen")
	coordinator.Start(ctx)

	fmt.Println("\nExample 2: user spends a free attempt and re-enters capture")
	coordinator.RequestRetry(ctx)
	coordinator.Dispatch(ctx, flow.EventPrepared{})

	fmt.Println("\nExample 3: verification accepted, card hub")
	api.state = types.UserState{
		KYCStatus:          types.KYCSuccessful,
		VerificationStatus: types.VerificationAccepted,
	}
	coordinator.Dispatch(ctx, flow.EventPaymentCompleted{})
}
