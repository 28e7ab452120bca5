package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/wuwenbin0122/agentmate/internal/db"
	"github.com/wuwenbin0122/agentmate/internal/utils"
)

func main() {
	userID := flag.String("user", "", "user id to inspect")
	limit := flag.Int("limit", 50, "maximum number of turns to print")
	clearHistory := flag.Bool("clear", false, "delete the user's history after printing it")
	flag.Parse()

	if *userID == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect_history -user <id> [-limit n] [-clear]")
		os.Exit(2)
	}

	cfg, err := utils.LoadConfig()
	if err != nil {
		panic(err)
	}

	ctx := context.Background()
	history, err := db.Open(ctx, cfg.History)
	if err != nil {
		panic(err)
	}
	defer history.Close()

	total, err := history.Count(ctx, *userID)
	if err != nil {
		panic(err)
	}

	turns, err := history.Recent(ctx, *userID, *limit)
	if err != nil {
		panic(err)
	}

	fmt.Printf("%s backend, user %s: %d turns stored\n", cfg.History.Backend, *userID, total)
	for _, turn := range turns {
		fmt.Printf("#%d %s [%s] %s\n", turn.ID, turn.CreatedAt.Local().Format(time.DateTime), turn.Role, turn.Content)
	}

	if *clearHistory {
		if err := history.Clear(ctx, *userID); err != nil {
			panic(err)
		}
		fmt.Printf("cleared history for %s\n", *userID)
	}
}
