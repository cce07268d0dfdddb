package refresh

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/jrsteele09/go-schooltracker-client/credentials"
	"github.com/jrsteele09/go-schooltracker-client/internal/errors"
	"github.com/jrsteele09/go-schooltracker-client/sessions"
)

// Refresher exchanges a refresh token for a new token pair.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (credentials.TokenPair, error)
}

// TokenStore is the part of credentials.Store the coordinator needs.
type TokenStore interface {
	Read() (credentials.TokenPair, bool)
	ReadRefresh() string
	Replace(pair credentials.TokenPair) error
}

// Publisher receives the authentication failure signal.
type Publisher interface {
	Publish(sig sessions.Signal)
}

// Coordinator makes sure at most one refresh runs at a time. Callers that
// arrive while a refresh is in flight wait for it and share its outcome.
type Coordinator struct {
	tokens    TokenStore
	refresher Refresher
	publisher Publisher
	tracer    trace.Tracer

	group singleflight.Group
	mu    sync.Mutex // held for the duration of a refresh call

	refreshing atomic.Bool
	waiting    atomic.Int32
	attempts   atomic.Int64
}

func NewCoordinator(tokens TokenStore, refresher Refresher, publisher Publisher) *Coordinator {
	return &Coordinator{
		tokens:    tokens,
		refresher: refresher,
		publisher: publisher,
		tracer:    otel.Tracer("github.com/jrsteele09/go-schooltracker-client/token/refresh"),
	}
}

// Refresh returns a token pair newer than staleAccess. If another caller has
// already replaced staleAccess, the stored pair is returned without a
// network call. Otherwise the caller joins the in-flight refresh or starts one.
func (c *Coordinator) Refresh(ctx context.Context, staleAccess string) (credentials.TokenPair, error) {
	if pair, ok := c.superseded(staleAccess); ok {
		return pair, nil
	}

	c.waiting.Add(1)
	defer c.waiting.Add(-1)

	// The refresh outlives any single caller's cancellation; other waiters
	// depend on it.
	flightCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(staleAccess, func() (interface{}, error) {
		return c.refresh(flightCtx, staleAccess)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return credentials.TokenPair{}, res.Err
		}
		return res.Val.(credentials.TokenPair), nil
	case <-ctx.Done():
		return credentials.TokenPair{}, ctx.Err()
	}
}

// Refreshing reports whether a refresh call is outstanding.
func (c *Coordinator) Refreshing() bool {
	return c.refreshing.Load()
}

// Waiting returns the number of callers blocked on a refresh.
func (c *Coordinator) Waiting() int {
	return int(c.waiting.Load())
}

// Attempts returns how many refresh calls have been made.
func (c *Coordinator) Attempts() int64 {
	return c.attempts.Load()
}

func (c *Coordinator) superseded(staleAccess string) (credentials.TokenPair, bool) {
	current, ok := c.tokens.Read()
	if !ok || current.Access == staleAccess {
		return credentials.TokenPair{}, false
	}
	return current, true
}

func (c *Coordinator) refresh(ctx context.Context, staleAccess string) (pair credentials.TokenPair, returnError error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// A refresh keyed on a different stale token may have finished while we
	// waited for the lock.
	if current, ok := c.superseded(staleAccess); ok {
		return current, nil
	}

	ctx, span := c.tracer.Start(ctx, "refresh.Refresh")
	defer span.End()

	c.refreshing.Store(true)
	defer c.refreshing.Store(false)
	defer func() {
		if r := recover(); r != nil {
			returnError = c.fail(fmt.Errorf("refresher panic: %v", r), "Failed to refresh token")
		}
		if returnError != nil {
			span.SetStatus(codes.Error, returnError.Error())
		}
	}()

	refreshToken := c.tokens.ReadRefresh()
	if refreshToken == "" {
		return credentials.TokenPair{}, c.fail(errors.ErrNoRefreshToken, "No refresh token available")
	}

	c.attempts.Add(1)
	log.Info().Int("waiting", c.Waiting()).Msg("refreshing access token")

	pair, err := c.refresher.Refresh(ctx, refreshToken)
	if err != nil {
		return credentials.TokenPair{}, c.fail(err, "Failed to refresh token")
	}
	if pair.Access == "" {
		return credentials.TokenPair{}, c.fail(errors.ErrInvalidResponse, "Failed to refresh token")
	}
	if pair.Refresh == "" {
		// Servers without rotation only return a new access token.
		pair.Refresh = refreshToken
	}
	if err := c.tokens.Replace(pair); err != nil {
		return credentials.TokenPair{}, c.fail(err, "Failed to store refreshed token")
	}

	if claims, err := credentials.InspectAccess(pair.Access); err == nil && !claims.ExpiresAt.IsZero() {
		log.Info().Time("expires_at", claims.ExpiresAt).Msg("access token refreshed")
	} else {
		log.Info().Msg("access token refreshed")
	}
	return pair, nil
}

func (c *Coordinator) fail(cause error, message string) error {
	log.Warn().Err(cause).Msg(message)
	if c.publisher != nil {
		c.publisher.Publish(sessions.Signal{Type: sessions.AuthFailed, Message: message})
	}
	if errors.Is(cause, errors.ErrRefreshFailed) {
		return cause
	}
	return fmt.Errorf("%w: %w", errors.ErrRefreshFailed, cause)
}
