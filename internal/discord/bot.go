// Package discord binds the game engine to Discord: it turns guild
// messages into commands, fans engine notifications out to the right
// channels and threads, and drives the phase timer.
package discord

import (
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/tyrian-games/luthadel/internal/command"
	"github.com/tyrian-games/luthadel/internal/engine"
)

// sweepSpec is how often the bot checks phase deadlines. The engine's
// warning windows are sized for this cadence.
const sweepSpec = "@every 10s"

// Config carries everything the bot needs to come up.
type Config struct {
	Token    string
	Games    *engine.Registry
	Commands *command.Dispatcher
	Log      *zap.Logger
}

// Bot is the Discord front end for the game engine.
type Bot struct {
	session  *discordgo.Session
	games    *engine.Registry
	commands *command.Dispatcher
	log      *zap.Logger
	cron     *cron.Cron

	mu       sync.Mutex
	webhooks map[string]*discordgo.Webhook // channelID -> anonymous webhook
	dms      map[string]string             // userID -> DM channel
}

// New builds the bot and its gateway session but does not connect.
func New(cfg Config) (*Bot, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("discord: no bot token configured")
	}
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("discord: create session: %w", err)
	}
	b := &Bot{
		session:  session,
		games:    cfg.Games,
		commands: cfg.Commands,
		log:      cfg.Log,
		cron:     cron.New(),
		webhooks: make(map[string]*discordgo.Webhook),
		dms:      make(map[string]string),
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent
	session.AddHandler(b.onMessage)
	if _, err := b.cron.AddFunc(sweepSpec, b.sweep); err != nil {
		return nil, fmt.Errorf("discord: schedule sweep: %w", err)
	}
	return b, nil
}

// Start opens the gateway connection and starts the phase timer.
func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("discord: open gateway: %w", err)
	}
	b.cron.Start()
	b.log.Info("discord bot connected")
	return nil
}

// Stop halts the timer, waits for an in-flight sweep, and closes the
// gateway connection.
func (b *Bot) Stop() error {
	<-b.cron.Stop().Done()
	b.log.Info("discord bot stopping")
	return b.session.Close()
}

// sweep runs one scheduler pass and fans out whatever it produced.
func (b *Bot) sweep() {
	for _, ev := range b.games.Sweep(time.Now()) {
		b.deliver(ev.GuildID, ev.Notes)
		if ev.Transition != nil {
			b.deliver(ev.GuildID, ev.Transition.Notes)
			b.moveDead(ev.GuildID, ev.Transition.Deaths)
		}
	}
}
