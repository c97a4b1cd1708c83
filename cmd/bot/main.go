package main

import (
	"log"
	"net/http"

	"voron-bot/internal/bot"
	"voron-bot/internal/config"
	"voron-bot/internal/database"
	"voron-bot/internal/migrate"
	"voron-bot/internal/notify"
	"voron-bot/internal/payment"
	"voron-bot/internal/referral"
	"voron-bot/internal/remnawave"
	"voron-bot/internal/worker"

	"github.com/mymmrac/telego"
)

func main() {
	// Load Configuration
	cfg := config.LoadConfig()

	// Connect to Database
	db, err := database.ConnectPostgres(cfg)
	if err != nil {
		log.Fatalf("Could not connect to database: %v", err)
	}

	// Schema migrations run before anything serves traffic; a failed
	// migration is fatal.
	if err := migrate.Run(db, migrate.Migrations()); err != nil {
		log.Fatalf("Could not run migrations: %v", err)
	}

	// Connect to Redis
	rdb, err := database.ConnectRedis(cfg)
	if err != nil {
		log.Fatalf("Could not connect to redis: %v", err)
	}

	tgBot, err := telego.NewBot(cfg.BotToken)
	if err != nil {
		log.Fatalf("Could not create bot: %v", err)
	}

	rwClient := remnawave.NewClient(cfg.RemnawaveURL, cfg.RemnawaveKey)
	activator := remnawave.NewActivator(rwClient, db, cfg.RemnawaveSquadID)

	payClient := payment.NewClient(cfg.CryptoPayToken, cfg.CryptoPayTestnet)
	invoicer := payment.NewInvoicer(db, payClient, cfg.CryptoPayAsset, cfg.CryptoPayCurrency)

	notifier := notify.NewService(tgBot, cfg.AdminChatID)
	ledger := referral.NewLedger(db, cfg.MinimumPayout)

	settlement := payment.NewSettlement(db, tgBot, activator, notifier, cfg.BotUsername, cfg.AllowedWebhookCIDRs, cfg.ReferralRewardPercent)

	// Payment provider webhook server
	go func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/webhook/cryptopay", settlement.HandleWebhook)
		log.Printf("Webhook server listening on %s", cfg.WebhookListenAddr)
		if err := http.ListenAndServe(cfg.WebhookListenAddr, mux); err != nil {
			log.Fatalf("Webhook server failed: %v", err)
		}
	}()

	// Background expiry checker
	checker := worker.NewChecker(db, rdb, rwClient, tgBot)
	go checker.Start()

	log.Println("Service started successfully")

	b := bot.NewBot(tgBot, db, invoicer, ledger, notifier, cfg.BotUsername)
	b.Start()
}
