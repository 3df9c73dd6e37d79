package bot

import (
	"log"

	"github.com/bwmarrin/discordgo"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/nuscas/omikuji-bot/src/bot/components/discord"
	"github.com/nuscas/omikuji-bot/src/bot/components/dispatch"
	"github.com/nuscas/omikuji-bot/src/bot/components/flow"
	"github.com/nuscas/omikuji-bot/src/bot/components/session"
	"github.com/nuscas/omikuji-bot/src/bot/config"
	"github.com/nuscas/omikuji-bot/src/shared/slips"
)

type Bot struct {
	session *discordgo.Session
	db      *gorm.DB
	rdb     *redis.Client
	config  config.Config
	handler *discord.Handler
}

// New wires the bot. rdb may be nil, which disables slip event
// publishing but nothing else.
func New(cfg config.Config, db *gorm.DB, rdb *redis.Client) (*Bot, error) {
	dg, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, err
	}

	bot := &Bot{
		session: dg,
		db:      db,
		rdb:     rdb,
		config:  cfg,
	}

	bot.initializeComponents()
	bot.registerHandlers()

	dg.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent |
		discordgo.IntentsGuilds |
		discordgo.IntentsDirectMessages

	return bot, nil
}

func (b *Bot) initializeComponents() {
	repo := slips.NewRepository(b.db)
	engine := flow.NewEngine(session.NewStore(), repo, slips.NewVoting(repo), b.rdb)

	b.handler = discord.NewHandler(discord.Config{
		Engine:     engine,
		Dispatcher: dispatch.New(),
		GuildID:    b.config.GuildID,
		ChannelID:  b.config.ChannelID,
	})
}

func (b *Bot) registerHandlers() {
	b.session.AddHandler(b.handleReady)
	b.session.AddHandler(b.handler.HandleMessage)
	b.session.AddHandler(b.handler.HandleInteraction)
}

func (b *Bot) Start() error {
	return b.session.Open()
}

func (b *Bot) Stop() {
	b.session.Close()

	// Close database connection
	if b.db != nil {
		if sqlDB, err := b.db.DB(); err == nil {
			sqlDB.Close()
		}
	}

	// Close Redis connection
	if b.rdb != nil {
		b.rdb.Close()
	}
}

func (b *Bot) handleReady(s *discordgo.Session, event *discordgo.Ready) {
	log.Printf("Discord bot logged in as %s", event.User.Username)
}
