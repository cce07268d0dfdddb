package credentials

import (
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/jrsteele09/go-schooltracker-client/internal/errors"
)

// Storage keys shared by every tier.
const (
	AccessTokenKey  = "access_token"
	RefreshTokenKey = "refresh_token"
)

// TokenPair is the access/refresh pair issued at sign-in and on every refresh.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// OAuth2 exposes the pair as a bearer token.
func (p TokenPair) OAuth2() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  p.Access,
		RefreshToken: p.Refresh,
		TokenType:    "Bearer",
	}
}

// Tier is one persistence level for tokens. Get returns errors.ErrNotFound
// when the key is absent.
type Tier interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// Store reads and writes the token pair across a durable tier and a
// session-scoped tier. It never inspects token contents.
type Store struct {
	durable Tier
	session Tier
	mu      sync.Mutex
}

func NewStore(durable, session Tier) *Store {
	return &Store{
		durable: durable,
		session: session,
	}
}

// Store saves the pair to the durable tier when persist is set, otherwise to
// the session tier. Any pair in the other tier is removed so reads cannot
// return a superseded token.
func (s *Store) Store(pair TokenPair, persist bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, other := s.session, s.durable
	if persist {
		target, other = s.durable, s.session
	}
	if err := clearTier(other); err != nil {
		return errors.Wrapf(err, "Store.Store clear")
	}
	return writePair(target, pair)
}

// Replace writes a refreshed pair into whichever tier holds the current pair,
// keeping the original "remember me" choice.
func (s *Store) Replace(pair TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.session
	if v, err := s.durable.Get(AccessTokenKey); err == nil && v != "" {
		target = s.durable
	}
	return writePair(target, pair)
}

// Clear removes the pair from both tiers.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return errors.Join(clearTier(s.durable), clearTier(s.session))
}

// ReadAccess returns the access token from the durable tier, then the session
// tier, or "" when neither holds one.
func (s *Store) ReadAccess() string {
	return s.read(AccessTokenKey)
}

// ReadRefresh returns the refresh token using the same tier order as ReadAccess.
func (s *Store) ReadRefresh() string {
	return s.read(RefreshTokenKey)
}

// Read returns the current pair and whether an access token is present. Both
// tokens come from the same write.
func (s *Store) Read() (TokenPair, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pair := TokenPair{Access: s.readLocked(AccessTokenKey), Refresh: s.readLocked(RefreshTokenKey)}
	return pair, pair.Access != ""
}

func (s *Store) Authenticated() bool {
	return s.ReadAccess() != ""
}

// read never observes half of a Store or Replace.
func (s *Store) read(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked(key)
}

func (s *Store) readLocked(key string) string {
	for _, tier := range []Tier{s.durable, s.session} {
		v, err := tier.Get(key)
		if err == nil && v != "" {
			return v
		}
		if err != nil && !errors.Is(err, errors.ErrNotFound) {
			log.Warn().Err(err).Str("key", key).Msg("credential tier read failed")
		}
	}
	return ""
}

func writePair(tier Tier, pair TokenPair) error {
	if err := tier.Set(AccessTokenKey, pair.Access); err != nil {
		return errors.Wrapf(err, "set %s", AccessTokenKey)
	}
	if err := tier.Set(RefreshTokenKey, pair.Refresh); err != nil {
		return errors.Wrapf(err, "set %s", RefreshTokenKey)
	}
	return nil
}

func clearTier(tier Tier) error {
	var errs []error
	for _, key := range []string{AccessTokenKey, RefreshTokenKey} {
		if err := tier.Delete(key); err != nil && !errors.Is(err, errors.ErrNotFound) {
			errs = append(errs, errors.Wrapf(err, "delete %s", key))
		}
	}
	return errors.Join(errs...)
}
