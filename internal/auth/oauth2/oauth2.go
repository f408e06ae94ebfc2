// Package oauth2 acquires access tokens for Snowflake external OAuth.
package oauth2

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/loykin/snowup/internal/common"
	"github.com/loykin/snowup/internal/store"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Supported grant types
const (
	GrantClientCredentials = "client_credentials"
	GrantPassword          = "password"
)

// Config holds the token endpoint and credentials for one grant.
type Config struct {
	Grant     string   `mapstructure:"grant_type"`
	ClientID  string   `mapstructure:"client_id"`
	ClientSec string   `mapstructure:"client_secret"`
	TokenURL  string   `mapstructure:"token_url"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Scopes    []string `mapstructure:"scopes"`
}

// Load decodes an oauth option map into a Config
func Load(opts map[string]any) (*Config, error) {
	cfg := &Config{}
	if err := store.DecodeOptions(opts, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Token fetches an access token using the configured grant.
func (c Config) Token(ctx context.Context) (string, error) {
	grant := strings.TrimSpace(c.Grant)
	if grant == "" {
		grant = GrantClientCredentials
	}
	tokenURL := strings.TrimSpace(c.TokenURL)
	if tokenURL == "" {
		return "", errors.New("oauth2: token_url is required")
	}

	logger := common.GetLogger().WithComponent("oauth2")
	logger.Debug("requesting access token", "grant_type", grant, "token_url", tokenURL)

	var (
		tok *oauth2.Token
		err error
	)
	switch grant {
	case GrantClientCredentials:
		tok, err = c.clientCredentials(ctx, tokenURL)
	case GrantPassword:
		tok, err = c.password(ctx, tokenURL)
	default:
		return "", fmt.Errorf("oauth2: unsupported grant_type %q", grant)
	}
	if err != nil {
		logger.Error("failed to acquire access token", "grant_type", grant, "error", err)
		return "", err
	}
	if tok == nil || strings.TrimSpace(tok.AccessToken) == "" {
		return "", errors.New("oauth2: token endpoint returned no access token")
	}
	return tok.AccessToken, nil
}

func (c Config) clientCredentials(ctx context.Context, tokenURL string) (*oauth2.Token, error) {
	clientID := strings.TrimSpace(c.ClientID)
	clientSecret := strings.TrimSpace(c.ClientSec)
	if clientID == "" || clientSecret == "" {
		return nil, errors.New("oauth2: client_id and client_secret are required for client_credentials grant")
	}
	cc := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
		Scopes:       c.Scopes,
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	return cc.Token(ctx)
}

func (c Config) password(ctx context.Context, tokenURL string) (*oauth2.Token, error) {
	clientID := strings.TrimSpace(c.ClientID)
	username := strings.TrimSpace(c.Username)
	if clientID == "" || username == "" || c.Password == "" {
		return nil, errors.New("oauth2: client_id, username and password are required for password grant")
	}
	oc := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: strings.TrimSpace(c.ClientSec),
		Endpoint:     oauth2.Endpoint{TokenURL: tokenURL, AuthStyle: oauth2.AuthStyleInParams},
		Scopes:       c.Scopes,
	}
	return oc.PasswordCredentialsToken(ctx, username, c.Password)
}
