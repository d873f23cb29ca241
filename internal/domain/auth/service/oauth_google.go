package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/markbates/goth"
	"github.com/markbates/goth/providers/google"
	"github.com/sony/gobreaker/v2"

	"github.com/FACorreiaa/campusnest-api/internal/domain/auth/common"
)

const ProviderGoogle = "google"

// OAuthUser is the provider-neutral identity returned by an OAuth provider.
type OAuthUser struct {
	Provider       string
	ProviderUserID string
	Email          string
	EmailVerified  bool
	FirstName      string
	LastName       string
	AvatarURL      string
	AccessToken    string
	RefreshToken   string
}

// OAuthProvider resolves a provider access token into an identity.
type OAuthProvider interface {
	Name() string
	FetchUser(ctx context.Context, accessToken string) (*OAuthUser, error)
}

// GoogleProvider asks Google's userinfo endpoint through goth. Calls are
// guarded by a circuit breaker so an outage fails fast.
type GoogleProvider struct {
	provider *google.Provider
	breaker  *gobreaker.CircuitBreaker[goth.User]
	logger   *slog.Logger
}

func NewGoogleProvider(clientID, clientSecret, callbackURL string, logger *slog.Logger) *GoogleProvider {
	p := google.New(clientID, clientSecret, callbackURL, "email", "profile")
	breaker := gobreaker.NewCircuitBreaker[goth.User](gobreaker.Settings{
		Name:        "google-oauth",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})
	return &GoogleProvider{provider: p, breaker: breaker, logger: logger}
}

// Goth exposes the underlying goth provider for the browser redirect flow.
func (g *GoogleProvider) Goth() goth.Provider { return g.provider }

func (g *GoogleProvider) Name() string { return ProviderGoogle }

func (g *GoogleProvider) FetchUser(ctx context.Context, accessToken string) (*OAuthUser, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("missing google access token: %w", common.ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	gu, err := g.breaker.Execute(func() (goth.User, error) {
		return g.provider.FetchUser(&google.Session{AccessToken: accessToken})
	})
	if err != nil {
		g.logger.WarnContext(ctx, "google userinfo lookup failed", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", err.Error(), common.ErrOAuthUnavailable)
	}
	return FromGothUser(gu), nil
}

// FromGothUser converts a goth user into an OAuthUser. Google reports email
// verification under different keys depending on the userinfo version.
func FromGothUser(gu goth.User) *OAuthUser {
	verified := false
	for _, key := range []string{"verified_email", "email_verified"} {
		if v, ok := gu.RawData[key].(bool); ok {
			verified = v
			break
		}
	}
	provider := gu.Provider
	if provider == "" {
		provider = ProviderGoogle
	}
	return &OAuthUser{
		Provider:       provider,
		ProviderUserID: gu.UserID,
		Email:          gu.Email,
		EmailVerified:  verified,
		FirstName:      gu.FirstName,
		LastName:       gu.LastName,
		AvatarURL:      gu.AvatarURL,
		AccessToken:    gu.AccessToken,
		RefreshToken:   gu.RefreshToken,
	}
}
