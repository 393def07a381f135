package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/eshu30/AI-Stockbot/internal/config"
	"github.com/eshu30/AI-Stockbot/internal/model/chat"
	"github.com/eshu30/AI-Stockbot/internal/model/market"
	"github.com/eshu30/AI-Stockbot/internal/service/ai"
	marketservice "github.com/eshu30/AI-Stockbot/internal/service/market"
)

// Manual smoke tool for the quote and generation clients. Run with
// -mode=quote to print a snapshot, or -mode=ask to send one grounded
// question through the same prompt pipeline the server uses.
func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("[WARN] no .env file, using system environment: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	mode := flag.String("mode", "", "test mode: quote or ask")
	symbol := flag.String("symbol", "", "ticker symbol (required for quote, optional context for ask)")
	question := flag.String("question", "", "question to send in ask mode")
	timeout := flag.Duration("timeout", 45*time.Second, "request timeout")

	flag.Parse()

	if *mode != "quote" && *mode != "ask" {
		flag.Usage()
		log.Fatal("specify -mode=quote or -mode=ask")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	quotes := marketservice.NewClient(cfg.Market)

	switch *mode {
	case "quote":
		runQuote(ctx, quotes, *symbol)
	case "ask":
		runAsk(ctx, quotes, ai.NewClient(cfg.AI), *symbol, *question)
	}
}

func runQuote(ctx context.Context, quotes *marketservice.Client, symbol string) {
	if symbol == "" {
		log.Fatal("quote mode requires -symbol")
	}

	started := time.Now()
	snap, err := quotes.Lookup(ctx, symbol)
	if err != nil {
		log.Fatalf("lookup failed: %v", err)
	}
	log.Printf("lookup finished in %s", time.Since(started))

	fmt.Printf("symbol:     %s\n", snap.Symbol)
	fmt.Printf("name:       %s\n", snap.DisplayName)
	fmt.Printf("price:      %s\n", snap.CurrentPrice)
	fmt.Printf("52w range:  %s - %s\n", snap.FiftyTwoWeekLow, snap.FiftyTwoWeekHigh)
	fmt.Printf("sector:     %s\n", snap.Sector)
	fmt.Printf("market cap: %s\n", snap.MarketCap)
	fmt.Printf("summary:    %s\n", snap.BusinessSummary)
}

func runAsk(ctx context.Context, quotes *marketservice.Client, gen *ai.Client, symbol, question string) {
	if question == "" {
		log.Fatal("ask mode requires -question")
	}

	var snap *market.Snapshot
	if symbol != "" {
		looked, err := quotes.Lookup(ctx, symbol)
		if err != nil {
			log.Fatalf("lookup failed: %v", err)
		}
		snap = &looked
	}

	conversation := chat.NewConversation(ai.SystemPrompt)
	conversation = append(conversation, chat.Message{Role: chat.RoleUser, Content: question})

	started := time.Now()
	reply := gen.GenerateDisplay(ctx, ai.InjectContext(conversation, snap))
	log.Printf("generation finished in %s", time.Since(started))

	fmt.Println(reply)
}
