package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"

	"github.com/paycrest/cardflow/client"
	"github.com/paycrest/cardflow/config"
)

func TestHTTPAuthCapability(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	ctx := context.Background()
	capability := NewHTTPAuthCapability()
	tokenURL := config.ClientConfig().AuthBaseURL + config.AuthConfig().TokenEndpoint
	authorizeURL := config.ClientConfig().AuthBaseURL + config.AuthConfig().AuthorizeEndpoint

	t.Run("successful token exchange", func(t *testing.T) {
		httpmock.RegisterResponder("POST", tokenURL,
			httpmock.NewJsonResponderOrPanic(200, map[string]interface{}{
				"accessToken": "new-access",
				"expiresAt":   4102444800,
			}))

		grant, err := capability.RequestAccessToken(ctx, "refresh-1")
		assert.NoError(t, err)
		assert.Equal(t, "new-access", grant.AccessToken)
		assert.Equal(t, int64(4102444800), grant.ExpiresAt)
	})

	t.Run("401 maps to sign-in required", func(t *testing.T) {
		httpmock.RegisterResponder("POST", tokenURL,
			httpmock.NewJsonResponderOrPanic(401, map[string]interface{}{
				"error": "invalid_grant",
			}))

		_, err := capability.RequestAccessToken(ctx, "revoked")
		var signIn client.ErrSignInRequired
		assert.True(t, errors.As(err, &signIn))
	})

	t.Run("5xx maps to HTTP status error", func(t *testing.T) {
		httpmock.RegisterResponder("POST", tokenURL,
			httpmock.NewStringResponder(503, "maintenance"))

		_, err := capability.RequestAccessToken(ctx, "refresh-1")
		var httpErr client.ErrHTTPStatus
		assert.True(t, errors.As(err, &httpErr))
		assert.Equal(t, 503, httpErr.Code)
	})

	t.Run("non-JSON body maps to decode error", func(t *testing.T) {
		httpmock.RegisterResponder("POST", tokenURL,
			httpmock.NewStringResponder(200, "<html>gateway</html>"))

		_, err := capability.RequestAccessToken(ctx, "refresh-1")
		var decodeErr client.ErrCannotDecodeRawData
		assert.True(t, errors.As(err, &decodeErr))
	})

	t.Run("authorization data carries proof of possession", func(t *testing.T) {
		httpmock.RegisterResponder("POST", authorizeURL,
			httpmock.NewJsonResponderOrPanic(200, map[string]interface{}{
				"accessToken":       "scoped-token",
				"proofOfPossession": "pop-header",
			}))

		data, err := capability.GetAuthorizationData(ctx, "/v1/kyc/status/last", "GET")
		assert.NoError(t, err)
		assert.Equal(t, "scoped-token", data.AccessToken)
		assert.Equal(t, "pop-header", data.ProofOfPossession)
	})
}
