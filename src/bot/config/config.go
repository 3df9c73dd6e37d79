package config

import (
	"log"
	"os"

	"gorm.io/gorm"

	"github.com/nuscas/omikuji-bot/src/shared/data"
)

type Config struct {
	Token     string
	GuildID   string
	ChannelID string
	MySQLDSN  string
	// RedisURL is optional. Empty disables slip event publishing.
	RedisURL string
}

func Load(db *gorm.DB) Config {
	// Load settings from database
	if err := data.LoadSettings(db); err != nil {
		log.Printf("Failed to load settings: %v", err)
	}

	// Get values from database with env fallbacks
	discordToken := data.GetSetting("discord_token")
	if discordToken == "" {
		discordToken = os.Getenv("DISCORD_TOKEN")
	}

	guildID := data.GetSetting("guild_id")
	if guildID == "" {
		guildID = os.Getenv("GUILD_ID")
	}

	channelID := data.GetSetting("channel_id")
	if channelID == "" {
		channelID = os.Getenv("CHANNEL_ID")
	}

	redisURL := data.GetSetting("redis_url")
	if redisURL == "" {
		redisURL = os.Getenv("REDIS_URL")
	}

	return Config{
		Token:     discordToken,
		GuildID:   guildID,
		ChannelID: channelID,
		MySQLDSN:  GetMySQLDSN(),
		RedisURL:  redisURL,
	}
}

// GetMySQLDSN resolves the MySQL DSN from the environment. It is needed
// before the settings table can be read, so it never consults the
// database.
func GetMySQLDSN() string {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "omikuji:omikuji@tcp(127.0.0.1:3306)/omikuji"
	}
	return dsn
}
