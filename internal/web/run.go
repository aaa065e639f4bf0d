package web

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/bigredeye/schoolbook/internal/cache"
	"github.com/bigredeye/schoolbook/internal/config"
	"github.com/bigredeye/schoolbook/internal/database"
	"github.com/bigredeye/schoolbook/internal/gateway"
	"github.com/bigredeye/schoolbook/internal/mutation"
	"github.com/bigredeye/schoolbook/internal/notify"
	"github.com/bigredeye/schoolbook/internal/table"
	"github.com/bigredeye/schoolbook/internal/tgbot"
)

const boardSize = 16

func Run(ctx context.Context, conf *config.Config, logger *zap.Logger) error {
	board := notify.NewBoard(boardSize)
	notifiers := notify.Multi{board}

	if conf.Telegram.BotToken != "" {
		bot, err := tgbot.NewBot(conf, logger)
		if err != nil {
			return errors.Wrap(err, "Failed to start telegram bot")
		}
		go bot.Run(ctx)
		notifiers = append(notifiers, bot)
	}

	remote := gateway.New(conf, logger, notifiers)

	store := cache.NewStore(cache.Options{
		StaleTime: conf.Cache.StaleTime,
		MaxSize:   conf.Cache.MaxSize,
		Retries:   conf.Cache.Retries,
	}, logger)
	defer store.Close()
	for key, fetch := range remote.Queries() {
		store.Register(key, fetch)
	}

	var opts []mutation.Option
	if conf.DataBase.DSN != "" {
		db, err := database.OpenDataBase(logger, conf.DataBase.DSN)
		if err != nil {
			return errors.Wrap(err, "Failed to open database")
		}
		opts = append(opts, mutation.WithJournal(db))
	}
	mutations := mutation.New(store, remote, logger, opts...)

	model := table.NewModel(store, conf.Server.RenderTimeout, logger)

	s := newServer(ctx, conf, logger, model, mutations, board)
	return errors.Wrap(s.run(), "Server failed")
}
