package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/twingatebot/bot"
	"github.com/twingatebot/config"
	"github.com/twingatebot/database"
	"github.com/twingatebot/handlers"
	"github.com/twingatebot/logger"
	"github.com/twingatebot/middleware"
	"github.com/twingatebot/router"
	"github.com/twingatebot/secrets"
	"github.com/twingatebot/service"
	"github.com/twingatebot/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	botCfg, err := config.LoadEnvCfg(".env")
	if err != nil {
		log.Fatal(err)
	}

	sugar, closeLog, err := logger.NewLogger(botCfg)
	if err != nil {
		log.Fatal(err)
	}
	defer closeLog()

	token, err := secrets.Resolve(botCfg.Token, botCfg.KeychainAccount)
	if err != nil {
		sugar.Fatalf("resolve bot token: %v", err)
	}

	client := bot.NewBot(botCfg, token, sugar)
	if name, err := client.Me(ctx); err != nil {
		if errors.Is(err, bot.ErrPlatformRejected) {
			sugar.Fatalf("bot token rejected: %v", err)
		}
		sugar.Warnf("platform unreachable at startup, polling anyway: %v", err)
	} else {
		sugar.Infof("authorized on account @%v", name)
	}

	var opts []service.Option
	if botCfg.JournalEnabled() {
		pool, err := database.GetPool(ctx, botCfg, sugar)
		if err != nil {
			sugar.Fatal(err)
		}
		defer pool.Close()

		journal := storage.NewBotStorage(pool, sugar)
		if err := journal.EnsureSchema(ctx); err != nil {
			sugar.Fatal(err)
		}
		opts = append(opts, service.WithJournal(journal))
	}

	h := handlers.NewBotHandler(client, handlers.NoProgress{}, botCfg.Formatting(), sugar)
	r := router.New()
	r.Use(middleware.Recover(sugar), middleware.Logging(sugar))
	h.RegisterRoutes(r)

	service.NotifyStartup(ctx, botCfg, h, time.Now(), sugar)

	svc := service.NewService(botCfg, client, r, sugar, opts...)
	if err := svc.Run(ctx); err != nil {
		sugar.Errorf("poll loop: %v", err)
	}
	sugar.Infof("shutting down, last offset %d", svc.Offset())
}
