package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/freshtrack/expiry-cli/internal/pattern"
	"github.com/freshtrack/expiry-cli/internal/recognize"
	"github.com/freshtrack/expiry-cli/internal/store"
)

func initStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "expiry.db"
		}
		st, err = store.NewSQLite(dsn)
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// loadLibrary returns the builtin pattern library, extended by the custom
// pattern file when one is configured.
func loadLibrary() (*pattern.Library, error) {
	if cfg.Patterns.Path == "" {
		return pattern.Builtin(), nil
	}
	return pattern.Load(cfg.Patterns.Path)
}

func newRecognizer() (*recognize.Recognizer, error) {
	lib, err := loadLibrary()
	if err != nil {
		return nil, err
	}
	return recognize.New(lib), nil
}
