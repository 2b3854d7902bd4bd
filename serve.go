package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/robalobadob/pokeguess/internal/accounts"
	"github.com/robalobadob/pokeguess/internal/artwork"
	"github.com/robalobadob/pokeguess/internal/config"
	"github.com/robalobadob/pokeguess/internal/database"
	"github.com/robalobadob/pokeguess/internal/game"
	"github.com/robalobadob/pokeguess/internal/httpserver"
	"github.com/robalobadob/pokeguess/internal/pokeapi"
	"github.com/robalobadob/pokeguess/internal/results"
	"github.com/robalobadob/pokeguess/internal/roster"
	"github.com/robalobadob/pokeguess/internal/store"
	"github.com/robalobadob/pokeguess/internal/target"
)

// serve wires every component and runs until ctx is cancelled.
func serve(ctx context.Context, cfg *config.Config) error {
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		return err
	}

	ros, err := roster.Load(cfg.RosterFile)
	if err != nil {
		return err
	}
	api := pokeapi.New(cfg.PokeAPIBaseURL, cfg.LookupTimeout)
	acc := accounts.NewService(accounts.NewSQLStore(db))

	picker, err := target.New(target.Options{
		Strategy: cfg.TargetStrategy,
		Name:     cfg.TargetName,
		Salt:     cfg.DailySalt,
		Roster:   ros,
		Lookup:   api,
	})
	if err != nil {
		return err
	}
	prefetch, err := newPrefetcher(ctx, cfg.Artwork, cfg.LookupTimeout)
	if err != nil {
		return err
	}

	sessions := store.NewMemoryStore()
	reaper, err := store.StartReaper(sessions, cfg.SessionIdleTimeout, cfg.ReapInterval, nil)
	if err != nil {
		return err
	}

	srv := httpserver.New(httpserver.Deps{
		Settings: httpserver.Settings{
			CookieName:   cfg.CookieName,
			ClientOrigin: cfg.ClientOrigin,
			PublicURL:    cfg.PublicURL,
			Secure:       cfg.Production(),
			Lives:        cfg.CompetitiveLives,
			Seconds:      cfg.CompetitiveSeconds,
			Timeout:      handlerTimeout(cfg.LookupTimeout),
		},
		Sessions: sessions,
		Users:    acc,
		Auth:     acc,
		Tokens:   accounts.NewTokens(cfg.JWTSecret, cfg.TokenTTL()),
		Results:  results.NewStore(db),
		Lookup:   api,
		Targets:  picker,
		Roster:   ros,
		Prefetch: prefetch,
		Checks: map[string]func(context.Context) error{
			"sqlite": func(ctx context.Context) error { return database.Ping(ctx, db) },
		},
	})
	hs := httpserver.NewHTTPServer(cfg.Addr(), srv)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().
			Str("addr", hs.Addr).
			Str("version", releaseVersion).
			Str("target", cfg.TargetStrategy).
			Str("artwork", cfg.Artwork.Mode).
			Int("roster", ros.Len()).
			Msg("starting pokeguess")
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listening on %s: %w", hs.Addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := hs.Shutdown(sctx)
		if rerr := reaper.Stop(); err == nil {
			err = rerr
		}
		// close every live session
		sessions.Reap(sctx, time.Now().Add(time.Hour))
		return err
	})
	return g.Wait()
}

// handlerTimeout bounds a request that resolves a guess: two sequential
// PokeAPI calls, each allowed the lookup timeout, plus slack for the rest.
func handlerTimeout(lookup time.Duration) time.Duration {
	return 2*lookup + 5*time.Second
}

// newPrefetcher picks the artwork prefetcher for the configured mode.
func newPrefetcher(ctx context.Context, a config.Artwork, timeout time.Duration) (game.Prefetcher, error) {
	switch a.Mode {
	case "off":
		return artwork.Noop{}, nil
	case "", "warm":
		return artwork.NewWarmer(timeout), nil
	case "s3":
		client, err := artwork.NewS3Client(ctx, artwork.S3Config{
			Bucket:          a.Bucket,
			Endpoint:        a.Endpoint,
			Region:          a.Region,
			AccessKeyID:     a.AccessKeyID,
			SecretAccessKey: a.SecretAccessKey,
			Prefix:          a.Prefix,
		})
		if err != nil {
			return nil, err
		}
		return artwork.NewS3Mirror(client, a.Bucket, a.Prefix), nil
	}
	return nil, fmt.Errorf("unknown artwork mode %q", a.Mode)
}
