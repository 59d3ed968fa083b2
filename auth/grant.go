package auth

import (
	"context"
	"net/http"
	"time"

	fastshot "github.com/opus-domini/fast-shot"

	"github.com/paycrest/cardflow/client"
	"github.com/paycrest/cardflow/config"
	"github.com/paycrest/cardflow/types"
)

// HTTPAuthCapability talks to the authentication backend. It is the default
// types.AuthCapability; hosts embedding a native auth SDK supply their own.
type HTTPAuthCapability struct {
	authConf   *config.AuthConfiguration
	clientConf *config.ClientConfiguration
}

// NewHTTPAuthCapability constructs the default auth capability from config.
func NewHTTPAuthCapability() types.AuthCapability {
	return &HTTPAuthCapability{
		authConf:   config.AuthConfig(),
		clientConf: config.ClientConfig(),
	}
}

// RequestAccessToken exchanges a refresh token for a new access token.
func (a *HTTPAuthCapability) RequestAccessToken(ctx context.Context, refreshToken string) (*types.TokenGrant, error) {
	res, err := fastshot.NewClient(a.clientConf.AuthBaseURL).
		Config().SetTimeout(30 * time.Second).
		Build().POST(a.authConf.TokenEndpoint).
		Body().AsJSON(map[string]interface{}{
		"grant_type":    "refresh_token",
		"client_id":     a.authConf.ClientID,
		"refresh_token": refreshToken,
	}).
		Send()
	if err != nil {
		return nil, client.ErrTransport{Err: err}
	}

	if res.Status().Code() == http.StatusUnauthorized || res.Status().Code() == http.StatusForbidden {
		return nil, client.ErrSignInRequired{}
	}
	if res.Status().IsError() {
		body, _ := res.Body().AsString()
		return nil, client.ErrHTTPStatus{Code: res.Status().Code(), Body: body}
	}

	var grant types.TokenGrant
	if err := res.Body().AsJSON(&grant); err != nil {
		return nil, client.ErrCannotDecodeRawData{Err: err}
	}
	return &grant, nil
}

// GetAuthorizationData obtains a per-request grant for the given target,
// supporting proof-of-possession style tokens scoped to one path and method.
func (a *HTTPAuthCapability) GetAuthorizationData(ctx context.Context, targetPath, method string) (*types.AuthorizationData, error) {
	res, err := fastshot.NewClient(a.clientConf.AuthBaseURL).
		Config().SetTimeout(30 * time.Second).
		Build().POST(a.authConf.AuthorizeEndpoint).
		Body().AsJSON(map[string]interface{}{
		"client_id": a.authConf.ClientID,
		"target":    targetPath,
		"method":    method,
	}).
		Send()
	if err != nil {
		return nil, client.ErrTransport{Err: err}
	}

	if res.Status().Code() == http.StatusUnauthorized || res.Status().Code() == http.StatusForbidden {
		return nil, client.ErrSignInRequired{}
	}
	if res.Status().IsError() {
		body, _ := res.Body().AsString()
		return nil, client.ErrHTTPStatus{Code: res.Status().Code(), Body: body}
	}

	var data types.AuthorizationData
	if err := res.Body().AsJSON(&data); err != nil {
		return nil, client.ErrCannotDecodeRawData{Err: err}
	}
	return &data, nil
}
