// Package auth signs users in and out of the tracker service and announces
// session changes on the broadcaster.
package auth

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-schooltracker-client/credentials"
	"github.com/jrsteele09/go-schooltracker-client/gateway"
	"github.com/jrsteele09/go-schooltracker-client/internal/utils"
	"github.com/jrsteele09/go-schooltracker-client/sessions"
)

const (
	signInPath   = "/signin/"
	registerPath = "/register/"
)

const (
	GenderMale   = "Male"
	GenderFemale = "Female"
	GenderOther  = "Other"
)

type User struct {
	ID          int64     `json:"id" yaml:"id"`
	Email       string    `json:"email" yaml:"email"`
	FirstName   string    `json:"first_name" yaml:"first_name"`
	LastName    string    `json:"last_name" yaml:"last_name"`
	Phone       string    `json:"phone,omitempty" yaml:"phone,omitempty"`
	DateOfBirth string    `json:"date_of_birth,omitempty" yaml:"date_of_birth,omitempty"`
	Gender      string    `json:"gender,omitempty" yaml:"gender,omitempty"`
	Country     string    `json:"country" yaml:"country"`
	CreatedAt   time.Time `json:"created_at,omitzero" yaml:"created_at,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitzero" yaml:"updated_at,omitempty"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignUpRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Phone       string `json:"phone,omitempty"`
	DateOfBirth string `json:"date_of_birth,omitempty"`
	Gender      string `json:"gender,omitempty"`
	Country     string `json:"country"`
}

type authResponse struct {
	Status       string `json:"status"`
	User         User   `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// CredentialStore is the part of credentials.Store the client needs.
type CredentialStore interface {
	Store(pair credentials.TokenPair, persist bool) error
	Clear() error
	ReadAccess() string
}

type Publisher interface {
	Publish(sig sessions.Signal)
}

type Subscriber interface {
	Subscribe(handler sessions.Handler, types ...sessions.SignalType) (unsubscribe func())
}

// Status describes the stored session.
type Status struct {
	Authenticated bool                      `json:"authenticated" yaml:"authenticated"`
	Expired       bool                      `json:"expired" yaml:"expired"`
	Claims        *credentials.AccessClaims `json:"claims,omitempty" yaml:"claims,omitempty"`
}

// Client talks to the auth endpoints. Requests never carry a bearer token.
type Client struct {
	gw        *gateway.Gateway
	creds     CredentialStore
	publisher Publisher
	validator *Validator
	nowTime   func() time.Time

	mu   sync.RWMutex
	user *User
}

type ClientOption func(*clientOptions)

type clientOptions struct {
	httpClient *http.Client
	nowTime    func() time.Time
}

func WithHTTPClient(client *http.Client) ClientOption {
	return func(o *clientOptions) {
		o.httpClient = client
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ClientOption {
	return func(o *clientOptions) {
		o.nowTime = nowFunc
	}
}

// anonymous supplies no token so auth calls are never rejected for a stale one.
type anonymous struct{}

func (anonymous) ReadAccess() string { return "" }

// NewClient creates a client for the auth service rooted at authBaseURL.
func NewClient(authBaseURL string, creds CredentialStore, publisher Publisher, opts ...ClientOption) *Client {
	o := clientOptions{nowTime: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	var gwOpts []gateway.Option
	if o.httpClient != nil {
		gwOpts = append(gwOpts, gateway.WithHTTPClient(o.httpClient))
	}
	return &Client{
		gw:        gateway.New(authBaseURL, anonymous{}, nil, gwOpts...),
		creds:     creds,
		publisher: publisher,
		validator: NewValidator(),
		nowTime:   o.nowTime,
	}
}

// SignIn exchanges credentials for a token pair. remember keeps the pair in
// the durable tier; otherwise it lives for this process only.
func (c *Client) SignIn(ctx context.Context, req SignInRequest, remember bool) (*User, error) {
	if err := c.validator.ValidateSignIn(req); err != nil {
		return nil, err
	}
	return c.authenticate(ctx, signInPath, req, remember)
}

// SignUp registers a new account and signs it in.
func (c *Client) SignUp(ctx context.Context, req SignUpRequest, remember bool) (*User, error) {
	if err := c.validator.ValidateSignUp(req); err != nil {
		return nil, err
	}
	return c.authenticate(ctx, registerPath, req, remember)
}

func (c *Client) authenticate(ctx context.Context, path string, body any, remember bool) (*User, error) {
	var resp authResponse
	if err := c.gw.PostJSON(ctx, path, body, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		return nil, MissingTokensErr
	}

	if err := c.creds.Store(credentials.TokenPair{Access: resp.AccessToken, Refresh: resp.RefreshToken}, remember); err != nil {
		return nil, err
	}

	user := utils.Ptr(resp.User)
	c.mu.Lock()
	c.user = user
	c.mu.Unlock()

	log.Info().Str("email", user.Email).Bool("remember", remember).Msg("signed in")
	return user, nil
}

// SignOut forgets the token pair and tells every store to drop its data.
// The signal is published even when clearing the credentials fails.
func (c *Client) SignOut() error {
	err := c.creds.Clear()

	c.mu.Lock()
	c.user = nil
	c.mu.Unlock()

	c.publisher.Publish(sessions.Signal{Type: sessions.SignedOut})
	log.Info().Msg("signed out")
	return err
}

// ForceReset tells every store to drop its data without signing out.
func (c *Client) ForceReset() {
	c.publisher.Publish(sessions.Signal{Type: sessions.ForceReset})
}

// User returns the user returned by the last sign-in in this process.
func (c *Client) User() *User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

// Status inspects the stored access token without contacting the server.
func (c *Client) Status() Status {
	access := c.creds.ReadAccess()
	if access == "" {
		return Status{}
	}

	status := Status{Authenticated: true}
	if claims, err := credentials.InspectAccess(access); err == nil {
		status.Claims = &claims
		status.Expired = claims.Expired(c.nowTime())
	}
	return status
}

// SignOutOnAuthFailure signs out whenever a token refresh fails for good.
// It returns the function that stops watching.
func (c *Client) SignOutOnAuthFailure(subscriber Subscriber) (unsubscribe func()) {
	return subscriber.Subscribe(func(sig sessions.Signal) {
		log.Warn().Str("reason", sig.Message).Msg("session expired")
		if err := c.SignOut(); err != nil {
			log.Error().Err(err).Msg("failed to clear credentials")
		}
	}, sessions.AuthFailed)
}
