// Minimal end‑to‑end integration test for the Omikuji API.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	baseURL  = getenv("API_URL", "http://localhost:8080/v1")
	redisURL = os.Getenv("REDIS_URL") // optional, checks the slip event stream
)

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func main() {
	total, eligible := fetchStats()
	fmt.Printf("✓ stats: %d slips, %d eligible\n", total, eligible)

	if eligible == 0 {
		doJSON("GET", "/draw", nil, nil, http.StatusNotFound)
		fmt.Println("✓ draw on empty library answers 404")
		fmt.Println("✓ all endpoints passed (submit slips via the bot to cover voting)")
		return
	}

	id := draw()
	before := fetchSlip(id)

	castVote(id, "up")
	if got := fetchSlip(id); got != before+1 {
		log.Fatalf("vote up: count %d, want %d", got, before+1)
	}
	castVote(id, "down")
	if got := fetchSlip(id); got != before {
		log.Fatalf("vote down: count %d, want %d", got, before)
	}

	if redisURL != "" {
		checkStream()
	}

	fmt.Println("✓ all endpoints passed")
}

// ----------------------------- slips

func fetchStats() (uint64, uint64) {
	var resp struct {
		Total    uint64 `json:"total"`
		Eligible uint64 `json:"eligible"`
	}
	doJSON("GET", "/stats", nil, &resp, http.StatusOK)
	return resp.Total, resp.Eligible
}

func draw() uint64 {
	var resp struct {
		ID    uint64 `json:"id"`
		Class string `json:"class"`
	}
	doJSON("GET", "/draw", nil, &resp, http.StatusOK)
	if resp.ID == 0 {
		log.Fatal("draw: empty slip id")
	}
	fmt.Printf("✓ drew slip %d (%s)\n", resp.ID, resp.Class)
	return resp.ID
}

func fetchSlip(id uint64) int64 {
	var resp struct{ Votes int64 }
	doJSON("GET", fmt.Sprintf("/slips/%d", id), nil, &resp, http.StatusOK)
	return resp.Votes
}

// ----------------------------- votes

func castVote(id uint64, choice string) {
	doJSON("POST", fmt.Sprintf("/slips/%d/votes", id), map[string]any{
		"choice": choice,
	}, nil, http.StatusCreated)
}

// ----------------------------- events

func checkStream() {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatalf("redis url: %v", err)
	}
	rdb := redis.NewClient(opt)
	defer rdb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	entries, err := rdb.XRevRangeN(ctx, "omikuji.slips", "+", "-", 10).Result()
	if err != nil {
		log.Fatalf("redis stream: %v", err)
	}
	for _, e := range entries {
		if e.Values["event"] == "slip_voted" {
			fmt.Println("✓ slip_voted event on stream")
			return
		}
	}
	log.Fatal("events: slip_voted not found on stream")
}

// ----------------------------- helpers

func doJSON(method, path string, body, out any, want int) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			log.Fatalf("%s %s encode: %v", method, path, err)
		}
	}
	req, _ := http.NewRequest(method, baseURL+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("%s %s: %v", method, path, err)
	}
	defer res.Body.Close()
	if res.StatusCode != want {
		log.Fatalf("%s %s: want %d got %d", method, path, want, res.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			log.Fatalf("%s %s decode: %v", method, path, err)
		}
	}
}
