package stripeprovider

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"

	"github.com/JoshuaLakeSexton/Reeflux/checkout"
)

var _ checkout.Provider = (*Provider)(nil)

// Provider creates and retrieves Stripe Checkout sessions.
type Provider struct {
	api        *client.API
	httpClient *http.Client
	backendURL string
	retries    int64
}

type Option func(*Provider)

// WithHTTPClient sets the client used for Stripe API calls.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(p *Provider) {
		p.httpClient = httpClient
	}
}

// WithBackendURL points the provider at a different API host (primarily for testing)
func WithBackendURL(url string) Option {
	return func(p *Provider) {
		p.backendURL = url
	}
}

// WithMaxNetworkRetries sets how often the SDK retries idempotent failures.
func WithMaxNetworkRetries(retries int64) Option {
	return func(p *Provider) {
		p.retries = retries
	}
}

// New creates a Stripe provider for the given secret key.
func New(secretKey string, timeout time.Duration, options ...Option) *Provider {
	p := &Provider{
		httpClient: &http.Client{Timeout: timeout},
		retries:    1,
	}
	for _, opt := range options {
		opt(p)
	}

	backendConfig := &stripe.BackendConfig{
		HTTPClient:        p.httpClient,
		MaxNetworkRetries: stripe.Int64(p.retries),
		LeveledLogger:     zerologLogger{logger: log.With().Str("component", "stripe").Logger()},
	}
	if p.backendURL != "" {
		backendConfig.URL = stripe.String(p.backendURL)
	}

	p.api = client.New(secretKey, stripe.NewBackendsWithConfig(backendConfig))
	return p
}

func (p *Provider) CreateSession(ctx context.Context, params checkout.SessionParams) (*checkout.Session, error) {
	sessionParams := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(params.Mode)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(params.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(params.SuccessURL),
		CancelURL:  stripe.String(params.CancelURL),
	}
	sessionParams.Context = ctx
	for key, value := range params.Metadata {
		sessionParams.AddMetadata(key, value)
	}

	session, err := p.api.CheckoutSessions.New(sessionParams)
	if err != nil {
		return nil, fmt.Errorf("stripe checkout session create: %w", err)
	}
	return toSession(session), nil
}

func (p *Provider) GetSession(ctx context.Context, sessionID string) (*checkout.Session, error) {
	sessionParams := &stripe.CheckoutSessionParams{}
	sessionParams.Context = ctx

	session, err := p.api.CheckoutSessions.Get(sessionID, sessionParams)
	if err != nil {
		return nil, fmt.Errorf("stripe checkout session retrieve: %w", err)
	}
	return toSession(session), nil
}

func toSession(s *stripe.CheckoutSession) *checkout.Session {
	return &checkout.Session{
		ID:            s.ID,
		URL:           s.URL,
		Mode:          checkout.Mode(s.Mode),
		Status:        string(s.Status),
		PaymentStatus: string(s.PaymentStatus),
		Metadata:      s.Metadata,
	}
}

// zerologLogger routes the SDK's own logging through zerolog.
type zerologLogger struct {
	logger zerolog.Logger
}

func (l zerologLogger) Debugf(format string, v ...interface{}) {
	l.logger.Debug().Msgf(format, v...)
}

func (l zerologLogger) Infof(format string, v ...interface{}) {
	l.logger.Debug().Msgf(format, v...)
}

func (l zerologLogger) Warnf(format string, v ...interface{}) {
	l.logger.Warn().Msgf(format, v...)
}

func (l zerologLogger) Errorf(format string, v ...interface{}) {
	l.logger.Error().Msgf(format, v...)
}
