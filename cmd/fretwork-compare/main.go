// ABOUTME: Command-line client for the reference song comparison service
// ABOUTME: Uploads a take and prints the similarity score
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/fretwork/fretwork-go/pkg/compare"
)

var (
	baseURL     = flag.String("url", envOr("FRETWORK_COMPARE_URL", "http://localhost:8000"), "Comparison service base URL")
	songID      = flag.String("song", "", "Reference song ID")
	file        = flag.String("file", "", "Recording to upload")
	hop         = flag.Int("hop", 0, "Analysis hop length (0 = server default)")
	delta       = flag.Float64("delta", 0, "Onset delta (0 = server default)")
	matchWindow = flag.Float64("match-window", 0, "Match window in seconds (0 = server default)")
	sr          = flag.Int("sr", 0, "Analysis sample rate (0 = server default)")
	timeout     = flag.Duration("timeout", 2*time.Minute, "Request timeout")
	details     = flag.Bool("details", false, "Print the full details object")
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	flag.Parse()
	if *songID == "" || *file == "" {
		log.Fatalf("-song and -file are required")
	}

	req := compare.Request{SongID: *songID, File: *file}
	if *hop > 0 {
		req.Hop = hop
	}
	if *delta > 0 {
		req.Delta = delta
	}
	if *matchWindow > 0 {
		req.MatchWindow = matchWindow
	}
	if *sr > 0 {
		req.SR = sr
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	res, err := compare.NewClient(*baseURL).Compare(ctx, req)
	if err != nil {
		var apiErr *compare.APIError
		if errors.As(err, &apiErr) {
			log.Fatalf("Service rejected the comparison (%d): %s", apiErr.StatusCode, apiErr.Body)
		}
		log.Fatalf("Comparison failed: %v", err)
	}

	fmt.Printf("Score:      %.1f\n", res.Score)
	fmt.Printf("Similarity: %.3f\n", res.Similarity)
	if *details && len(res.Details) > 0 {
		var pretty interface{}
		if err := json.Unmarshal(res.Details, &pretty); err == nil {
			out, _ := json.MarshalIndent(pretty, "", "  ")
			fmt.Println(string(out))
		}
	}
}
