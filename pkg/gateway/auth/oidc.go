package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/synaptica-ai/cardiorisk/pkg/common/logger"
	"github.com/synaptica-ai/cardiorisk/pkg/gateway/httpclient"
	"golang.org/x/oauth2"
)

var ErrInvalidToken = errors.New("invalid token")

// OIDCAuthenticator validates bearer tokens against the issuer's userinfo
// endpoint.
type OIDCAuthenticator struct {
	config      *oauth2.Config
	issuer      string
	userInfoURL string
	httpClient  *http.Client
}

func NewOIDCAuthenticator(issuer, clientID, clientSecret string) (*OIDCAuthenticator, error) {
	if issuer == "" || clientID == "" {
		return nil, fmt.Errorf("OIDC configuration incomplete")
	}
	issuer = strings.TrimRight(issuer, "/")

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  fmt.Sprintf("%s/authorize", issuer),
			TokenURL: fmt.Sprintf("%s/token", issuer),
		},
		Scopes: []string{"openid", "profile", "email"},
	}

	return &OIDCAuthenticator{
		config:      config,
		issuer:      issuer,
		userInfoURL: fmt.Sprintf("%s/userinfo", issuer),
		httpClient:  httpclient.New(10 * time.Second),
	}, nil
}

func (a *OIDCAuthenticator) Issuer() string {
	return a.issuer
}

// ValidateToken returns the userinfo claims for token. Tokens the issuer
// refuses yield ErrInvalidToken.
func (a *OIDCAuthenticator) ValidateToken(ctx context.Context, token string) (map[string]interface{}, error) {
	if token == "" {
		return nil, fmt.Errorf("token is empty: %w", ErrInvalidToken)
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}))

	var claims map[string]interface{}
	err := httpclient.Retry(ctx, httpclient.DefaultPolicy, func() error {
		var err error
		claims, err = a.fetchUserInfo(ctx, client)
		return err
	})
	if err != nil {
		return nil, err
	}
	if sub, _ := claims["sub"].(string); sub == "" {
		return nil, fmt.Errorf("userinfo missing subject: %w", ErrInvalidToken)
	}

	logger.Log.WithField("sub", claims["sub"]).Debug("Token validated")
	return claims, nil
}

func (a *OIDCAuthenticator) fetchUserInfo(ctx context.Context, client *http.Client) (map[string]interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("userinfo request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrInvalidToken
	case resp.StatusCode != http.StatusOK:
		return nil, httpclient.StatusError{Code: resp.StatusCode}
	}

	var claims map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&claims); err != nil {
		return nil, fmt.Errorf("decoding userinfo: %w", err)
	}
	return claims, nil
}
