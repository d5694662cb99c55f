package firebase

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sardor-M/p-website-backend/config"
	"github.com/Sardor-M/p-website-backend/docstore"
	"github.com/Sardor-M/p-website-backend/errs"
)

// Client is the part of *firestore.Client the rest of the service uses.
type Client interface {
	docstore.CollectionOpener
	Close() error
}

// Dialer opens document store clients.
type Dialer interface {
	Dial(ctx context.Context, cred *Credential) (Client, error)
	DialFallback(ctx context.Context, projectID string) (Client, error)
}

// RetryPolicy waits 2^attempt × Base between attempts.
type RetryPolicy struct {
	MaxAttempts int
	Base        time.Duration
}

func (p RetryPolicy) backOff() *backoff.ExponentialBackOff {
	return &backoff.ExponentialBackOff{
		InitialInterval:     2 * p.Base,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         time.Duration(1<<p.MaxAttempts) * p.Base,
	}
}

// App owns the process-wide document store client. Init runs exactly once;
// callers of Client wait for it instead of starting their own.
type App struct {
	env               Environment
	dialer            Dialer
	policy            RetryPolicy
	fallbackProjectID string
	logger            zerolog.Logger

	mu       sync.Mutex
	started  bool
	ready    chan struct{}
	client   Client
	fallback bool
	err      error
}

func NewApp(cfg config.Config, env Environment, dialer Dialer) *App {
	return &App{
		env:    env,
		dialer: dialer,
		policy: RetryPolicy{
			MaxAttempts: cfg.Firebase.RetryAttempts,
			Base:        cfg.Firebase.RetryBase,
		},
		fallbackProjectID: cfg.Firebase.FallbackProjectID,
		logger:            log.With().Str("component", "firebase").Logger(),
		ready:             make(chan struct{}),
	}
}

// Init resolves credentials and connects. Transient failures are retried
// per the policy and then degrade to an unauthenticated fallback client;
// only malformed credentials, cancellation, or a failing fallback dial are
// returned as errors. A second call waits for the first and returns its
// result.
func (a *App) Init(ctx context.Context) error {
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		<-a.ready
		return a.err
	}
	a.started = true
	a.mu.Unlock()

	a.client, a.fallback, a.err = a.connect(ctx)
	close(a.ready)
	return a.err
}

func (a *App) connect(ctx context.Context) (Client, bool, error) {
	attempt := 0
	client, err := backoff.Retry(ctx,
		func() (Client, error) {
			attempt++
			cred, err := Resolve(a.env)
			if err != nil {
				return nil, backoff.Permanent(err)
			}
			a.logger.Info().Str("source", string(cred.Source)).Str("projectId", cred.ProjectID).Int("attempt", attempt).Msg("connecting to firestore")
			return a.dialer.Dial(ctx, cred)
		},
		backoff.WithBackOff(a.policy.backOff()),
		backoff.WithMaxTries(uint(a.policy.MaxAttempts)),
		backoff.WithNotify(func(err error, next time.Duration) {
			a.logger.Warn().Err(err).Int("attempt", attempt).Dur("retryIn", next).Msg("firestore connection failed")
		}),
	)
	if err == nil {
		a.logger.Info().Msg("firestore initialized")
		return client, false, nil
	}
	if errs.IsCredentialMalformed(err) {
		a.logger.Error().Err(err).Msg("firebase credentials are malformed")
		return nil, false, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, false, ctxErr
	}

	a.logger.Warn().Err(err).Str("projectId", a.fallbackProjectID).Msg("falling back to an unauthenticated firestore client")
	client, err = a.dialer.DialFallback(ctx, a.fallbackProjectID)
	if err != nil {
		return nil, false, errs.NewDocumentStoreError("open fallback client", err)
	}
	return client, true, nil
}

// Client returns the client once Init has finished. Before Init has been
// called it fails immediately with errs.ErrStoreNotInitialized.
func (a *App) Client(ctx context.Context) (Client, error) {
	a.mu.Lock()
	started := a.started
	a.mu.Unlock()
	if !started {
		return nil, errs.NewStoreNotInitializedError()
	}

	select {
	case <-a.ready:
		if a.err != nil {
			return nil, a.err
		}
		return a.client, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Fallback reports whether the client is the unauthenticated fallback.
func (a *App) Fallback() bool {
	select {
	case <-a.ready:
		return a.fallback
	default:
		return false
	}
}

// Close releases the client. Failures are logged.
func (a *App) Close() {
	select {
	case <-a.ready:
	default:
		return
	}
	if a.client == nil {
		return
	}
	if err := a.client.Close(); err != nil {
		a.logger.Error().Err(err).Msg("error closing firestore connection")
		return
	}
	a.logger.Info().Msg("firestore connection closed")
}
