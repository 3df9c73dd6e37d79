package main

import (
	"log"
	"os"

	"github.com/nuscas/omikuji-bot/src/shared/data"
	"github.com/nuscas/omikuji-bot/src/shared/fortune"
	"github.com/nuscas/omikuji-bot/src/shared/slips"
)

func main() {
	// Connect to MySQL
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "omikuji:omikuji@tcp(127.0.0.1:3306)/omikuji?parseTime=true"
	}
	db := data.MustMySQL(dsn)

	repo := slips.NewRepository(db)

	stats, err := repo.CountStats()
	if err != nil {
		log.Fatalf("Error counting slips: %v", err)
	}

	log.Printf("Slip library:")
	log.Printf("  Total: %d", stats.Total)
	log.Printf("  Eligible: %d", stats.Eligible)

	slip, err := repo.DrawRandom()
	if err != nil {
		log.Fatalf("Error drawing slip: %v", err)
	}
	if slip == nil {
		log.Printf("No slips above the draw threshold")
		return
	}

	msg, err := fortune.DecodeMessage(slip.Message)
	if err != nil {
		log.Fatalf("Error decoding slip %d: %v", slip.ID, err)
	}

	log.Printf("Drew slip %d:", slip.ID)
	log.Printf("  Class: %s", msg.Class)
	log.Printf("  Description: %s", msg.Description)
	for _, s := range msg.Sections {
		log.Printf("  %s: %s", s.Kind, s.Text)
	}
	log.Printf("  Votes: %d", slip.VoteCount)
	log.Printf("  Author: %s (%s)", slip.AuthorName, slip.AuthorID)

	if slip.Photo != nil {
		log.Printf("  Photo: %s", *slip.Photo)
	}
}
