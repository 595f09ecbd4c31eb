// Package google talks to the Google OAuth and Geocoding APIs.
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"tinyhouse/internal/app/services/session"
	domainuser "tinyhouse/internal/domain/user"
)

const (
	defaultAuthURL     = "https://accounts.google.com/o/oauth2/v2/auth"
	defaultTokenURL    = "https://oauth2.googleapis.com/token"
	defaultUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
)

var oauthScopes = []string{
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
}

type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// Overridable in tests.
	AuthURL     string
	TokenURL    string
	UserInfoURL string
	HTTPClient  *http.Client
}

// OAuthClient implements the identity provider over Google OAuth 2.0.
type OAuthClient struct {
	oauth       *oauth2.Config
	userInfoURL string
	httpClient  *http.Client
}

func NewOAuthClient(config OAuthConfig) *OAuthClient {
	if config.AuthURL == "" {
		config.AuthURL = defaultAuthURL
	}
	if config.TokenURL == "" {
		config.TokenURL = defaultTokenURL
	}
	if config.UserInfoURL == "" {
		config.UserInfoURL = defaultUserInfoURL
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &OAuthClient{
		oauth: &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			RedirectURL:  config.RedirectURL,
			Scopes:       oauthScopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   config.AuthURL,
				TokenURL:  config.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		userInfoURL: config.UserInfoURL,
		httpClient:  config.HTTPClient,
	}
}

// AuthURL is the consent page asking for the email and profile scopes.
func (c *OAuthClient) AuthURL() string {
	return c.oauth.AuthCodeURL("", oauth2.AccessTypeOnline)
}

type userInfo struct {
	Sub     string `json:"sub"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
	Email   string `json:"email"`
}

// Exchange trades the authorization code for the subject's profile.
func (c *OAuthClient) Exchange(ctx context.Context, code string) (domainuser.Profile, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	token, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return domainuser.Profile{}, fmt.Errorf("exchange token: %w", err)
	}
	info, err := c.fetchUserInfo(ctx, token)
	if err != nil {
		return domainuser.Profile{}, fmt.Errorf("fetch user info: %w", err)
	}
	return domainuser.Profile{
		ID:      domainuser.ID(info.Sub),
		Name:    info.Name,
		Avatar:  info.Picture,
		Contact: info.Email,
	}, nil
}

func (c *OAuthClient) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*userInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.oauth.Client(ctx, token).Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var info userInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

var _ session.IdentityProvider = (*OAuthClient)(nil)
