// Seeds the slips table with sample omikuji for local development.
//
// Run from repo root:
//
//	go run ./cmd/slip-seeder -count 8 -buried 1
//
// Environment:
//
//	MYSQL_DSN – database DSN (flag -dsn overrides)
//	REDIS_URL – optional, slip_saved events go to the omikuji.slips stream
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/nuscas/omikuji-bot/src/shared/data"
	"github.com/nuscas/omikuji-bot/src/shared/fortune"
	"github.com/nuscas/omikuji-bot/src/shared/slips"
)

var (
	dsnFlag    = flag.String("dsn", "", "MySQL DSN (defaults to MYSQL_DSN)")
	redisFlag  = flag.String("redis", "", "Redis URL for slip events (defaults to REDIS_URL)")
	countFlag  = flag.Int("count", 8, "How many slips to seed")
	buriedFlag = flag.Int("buried", 1, "How many seeded slips to sink below the draw threshold")
	authorFlag = flag.String("author", "Shrine Keeper", "Author name recorded on seeded slips")
)

type sample struct {
	class       fortune.Class
	description string
	sections    []fortune.Section
}

var samples = []sample{
	{
		class:       fortune.GreatBlessing,
		description: "The morning sun clears every cloud from your road.",
		sections: []fortune.Section{
			{Kind: fortune.Travel, Text: "Leave early and the journey rewards you twice."},
			{Kind: fortune.Business, Text: "A bold offer made this week will be accepted."},
		},
	},
	{
		class:       fortune.MiddleBlessing,
		description: "Steady hands finish what clever hands abandon.",
		sections: []fortune.Section{
			{Kind: fortune.Study, Text: "Review old notes before chasing new material."},
		},
	},
	{
		class:       fortune.SmallBlessing,
		description: "A small kindness returns from an unexpected direction.",
		sections: []fortune.Section{
			{Kind: fortune.Love, Text: "Someone waits for a word you keep postponing."},
			{Kind: fortune.LostArticle, Text: "Look low, near water."},
		},
	},
	{
		class:       fortune.Blessing,
		description: "What you planted in silence begins to sprout.",
		sections: []fortune.Section{
			{Kind: fortune.Desire, Text: "Granted, but later than you hoped."},
		},
	},
	{
		class:       fortune.SmallCurse,
		description: "A borrowed thing becomes a burden this month.",
		sections: []fortune.Section{
			{Kind: fortune.Dispute, Text: "Yield the small point to win the larger one."},
			{Kind: fortune.Illness, Text: "Rest now or rest longer later."},
		},
	},
	{
		class:       fortune.GreatCurse,
		description: "The path ahead is fog. Wait for it to lift.",
		sections: []fortune.Section{
			{Kind: fortune.Travel, Text: "Postpone any crossing of water."},
			{Kind: fortune.PersonWaitedFor, Text: "Will not come."},
		},
	},
}

func main() {
	log.SetFlags(0)
	flag.Parse()

	if *countFlag <= 0 {
		log.Fatal("count must be positive")
	}
	if *buriedFlag > *countFlag {
		log.Fatal("cannot bury more slips than are seeded")
	}

	dsn := pickFirst(*dsnFlag, os.Getenv("MYSQL_DSN"), "omikuji:omikuji@tcp(127.0.0.1:3306)/omikuji")
	db := data.MustMySQL(dsn)
	data.Migrate(db)

	var rdb *redis.Client
	if url := pickFirst(*redisFlag, os.Getenv("REDIS_URL")); url != "" {
		rdb = data.MustRedis(url)
		defer rdb.Close()
	}

	repo := slips.NewRepository(db)

	for i := 0; i < *countFlag; i++ {
		s := samples[i%len(samples)]
		msg := fortune.Message{Class: s.class, Description: s.description, Sections: s.sections}
		encoded, err := msg.Encode()
		if err != nil {
			log.Fatalf("encode sample %d: %v", i, err)
		}

		authorID := "seed-" + uuid.NewString()[:8]
		slip, err := repo.Create(encoded, nil, authorID, *authorFlag)
		if err != nil {
			log.Fatalf("seed slip %d: %v", i, err)
		}

		if i < *buriedFlag {
			if err := repo.AdjustVote(slip.ID, slips.DrawThreshold); err != nil {
				log.Fatalf("bury slip %d: %v", slip.ID, err)
			}
		}

		if rdb != nil {
			_ = data.PublishSlipEvent(context.Background(), rdb, "slip_saved", map[string]interface{}{
				"slip_id":   slip.ID,
				"author_id": authorID,
			})
		}
		fmt.Printf("seeded slip %d (%s)\n", slip.ID, msg.Class)
	}

	stats, err := repo.CountStats()
	if err != nil {
		log.Fatalf("count stats: %v", err)
	}
	fmt.Printf("library now holds %d slips, %d eligible\n", stats.Total, stats.Eligible)
}

func pickFirst(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
