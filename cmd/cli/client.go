package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/bigredeye/schoolbook/internal/cache"
	"github.com/bigredeye/schoolbook/internal/config"
	"github.com/bigredeye/schoolbook/internal/database"
	"github.com/bigredeye/schoolbook/internal/gateway"
	"github.com/bigredeye/schoolbook/internal/mutation"
	"github.com/bigredeye/schoolbook/internal/notify"
	"github.com/bigredeye/schoolbook/internal/table"
)

type client struct {
	conf   *config.Config
	remote *gateway.Gateway
	store  *cache.Store
	db     *database.DataBase
}

func newClient() (*client, error) {
	conf, err := config.ParseConfig(configPath)
	if err != nil {
		return nil, err
	}

	// Failures are already logged by the gateway.
	remote := gateway.New(conf, log, notify.Func(func(notify.Notification) {}))

	store := cache.NewStore(cache.Options{
		StaleTime: conf.Cache.StaleTime,
		MaxSize:   conf.Cache.MaxSize,
		Retries:   conf.Cache.Retries,
	}, log)
	for key, fetch := range remote.Queries() {
		store.Register(key, fetch)
	}

	c := &client{conf: conf, remote: remote, store: store}
	if conf.DataBase.DSN != "" {
		if c.db, err = database.OpenDataBase(log, conf.DataBase.DSN); err != nil {
			store.Close()
			return nil, errors.Wrap(err, "Failed to open database")
		}
	}
	return c, nil
}

func (c *client) Close() {
	c.store.Close()
}

// load waits for all three collections, however long the retries take.
func (c *client) load(ctx context.Context) (table.View, error) {
	view := table.NewModel(c.store, 0, log).Load(ctx)
	if err := ctx.Err(); err != nil {
		return view, err
	}
	if view.IsError {
		return view, view.Err
	}
	return view, nil
}

func (c *client) mutations() *mutation.Controller {
	var opts []mutation.Option
	if c.db != nil {
		opts = append(opts, mutation.WithJournal(c.db))
	}
	return mutation.New(c.store, c.remote, log, opts...)
}
