// cmd/bot/main.go
package main

import (
	"os"
	"os/signal"
	"syscall"

	"discord-music-bot/internal/bot"
	"discord-music-bot/internal/config"
	"discord-music-bot/internal/database"
	"discord-music-bot/internal/lavalink"
	"discord-music-bot/internal/player"
	"discord-music-bot/internal/ui"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := database.NewDB(cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	discord, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create Discord session")
	}
	discord.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildVoiceStates

	// Audio backend client; a single instance shared by the whole core.
	node := lavalink.NewClient(discord, lavalink.NodeConfig{
		Host:     cfg.LavalinkHost,
		Port:     cfg.LavalinkPort,
		Password: cfg.LavalinkPassword,
		Secure:   cfg.LavalinkSecure,
	})
	backend := bot.Backend{Client: node}

	// Player core.
	registry := player.NewRegistry(db, backend, bot.NewResolver(discord))
	presenter := ui.NewPresenter(ui.NewDiscordEditor(discord))
	syncer := player.NewSyncer(registry, presenter)
	queue := player.NewQueueController(registry, backend, syncer, cfg.SelectTimeout)
	reconciler := player.NewReconciler(registry, backend, syncer, bot.NewRoster(discord))
	events := player.NewEventHandler(registry, backend, db, syncer)

	handler := bot.NewHandler(db, registry, queue, reconciler)
	handler.SetSession(discord)

	if err := discord.Open(); err != nil {
		log.Fatal().Err(err).Msg("failed to open Discord connection")
	}
	defer discord.Close()

	if err := handler.RegisterCommands(); err != nil {
		log.Error().Err(err).Msg("failed to register slash commands")
	}

	if err := node.Open(); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to audio node")
	}
	defer node.Close()

	go events.Run(node.Events())

	log.Info().Msg("music bot is running")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")
}
