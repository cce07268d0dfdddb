package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-schooltracker-client/applications"
	"github.com/jrsteele09/go-schooltracker-client/auth"
	"github.com/jrsteele09/go-schooltracker-client/credentials"
	"github.com/jrsteele09/go-schooltracker-client/documents"
	"github.com/jrsteele09/go-schooltracker-client/events"
	"github.com/jrsteele09/go-schooltracker-client/gateway"
	"github.com/jrsteele09/go-schooltracker-client/internal/config"
	"github.com/jrsteele09/go-schooltracker-client/notify"
	"github.com/jrsteele09/go-schooltracker-client/sessions"
	"github.com/jrsteele09/go-schooltracker-client/syncstore"
	"github.com/jrsteele09/go-schooltracker-client/syncstore/snapshot"
	"github.com/jrsteele09/go-schooltracker-client/token/refresh"
)

// app is everything one command invocation needs, wired from config.
type app struct {
	cfg         config.Config
	creds       *credentials.Store
	broadcaster *sessions.Broadcaster
	notifier    *notify.Recorder
	auth        *auth.Client
	snapshots   snapshot.Repo

	applications *applications.Store
	documents    *documents.Store
	events       *events.Store

	unsubscribe func()
}

func newApp(cfg config.Config) (*app, error) {
	durable, err := durableTier(cfg)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:         cfg,
		creds:       credentials.NewStore(durable, credentials.NewMemoryTier()),
		broadcaster: sessions.NewBroadcaster(),
		notifier:    notify.NewRecorder(notify.LogNotifier{}),
	}

	httpClient := &http.Client{Timeout: cfg.GetHTTPTimeout()}
	a.auth = auth.NewClient(cfg.GetAuthBaseURL(), a.creds, a.broadcaster, auth.WithHTTPClient(httpClient))
	a.unsubscribe = a.auth.SignOutOnAuthFailure(a.broadcaster)

	refresher := refresh.NewHTTPRefresher(cfg.GetAuthBaseURL()+cfg.GetRefreshPath(), httpClient)
	coordinator := refresh.NewCoordinator(a.creds, refresher, a.broadcaster)
	gw := gateway.New(cfg.GetBaseURL(), a.creds, coordinator,
		gateway.WithHTTPClient(httpClient),
		gateway.WithRateLimit(cfg.GetRequestsPerMinute(), cfg.GetRequestBurst()),
	)

	opts := []syncstore.Option{
		syncstore.WithStalenessWindow(cfg.GetStalenessWindow()),
		syncstore.WithDetailCache(cfg.GetDetailCacheSize(), cfg.GetDetailCacheTTL()),
	}
	if path := cfg.GetSnapshotPath(); path != "" {
		repo, err := snapshot.NewSQLiteRepo(path)
		if err != nil {
			return nil, fmt.Errorf("open snapshot store: %w", err)
		}
		a.snapshots = repo
		opts = append(opts, syncstore.WithSnapshots(repo))
	}

	a.applications = applications.NewStore(applications.NewRemote(gw), a.creds, a.broadcaster, a.notifier, opts...)
	a.documents = documents.NewStore(documents.NewRemote(gw), a.creds, a.broadcaster, a.notifier, opts...)
	a.events = events.NewStore(events.NewRemote(gw), a.creds, a.broadcaster, a.notifier, opts...)
	return a, nil
}

func durableTier(cfg config.CredentialConfig) (credentials.Tier, error) {
	switch cfg.GetCredentialTier() {
	case config.TierFile:
		if cfg.GetCredentialPassphrase() == "" {
			return nil, fmt.Errorf("credentials.passphrase is required for the file tier")
		}
		return credentials.NewFileTier(cfg.GetCredentialFile(), cfg.GetCredentialPassphrase())
	case config.TierKeyring, "":
		return credentials.NewKeyringTier(cfg.GetKeyringService()), nil
	default:
		return nil, fmt.Errorf("unknown credential tier %q", cfg.GetCredentialTier())
	}
}

// restore seeds the stores from their snapshots when signed in.
func (a *app) restore(ctx context.Context) error {
	if !a.creds.Authenticated() {
		return nil
	}
	for _, r := range []interface{ Restore(context.Context) error }{a.applications, a.documents, a.events} {
		if err := r.Restore(ctx); err != nil {
			log.Warn().Err(err).Msg("ignoring unreadable snapshot")
		}
	}
	return nil
}

func (a *app) requireSignedIn() error {
	if !a.creds.Authenticated() {
		return fmt.Errorf("not signed in; run `schooltracker signin` first")
	}
	return nil
}

// lastError turns the most recent error notification into an error, or
// returns fallback when none was recorded.
func (a *app) lastError(fallback string) error {
	errs := a.notifier.Errors()
	if len(errs) == 0 {
		return fmt.Errorf("%s", fallback)
	}
	return fmt.Errorf("%s", errs[len(errs)-1])
}

func (a *app) close() {
	a.unsubscribe()
	a.applications.Close()
	a.documents.Close()
	a.events.Close()
	if a.snapshots != nil {
		if err := a.snapshots.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close snapshot store")
		}
	}
}
