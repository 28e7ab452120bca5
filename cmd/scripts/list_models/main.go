package main

import (
	"context"
	"fmt"
	"time"

	"github.com/wuwenbin0122/agentmate/internal/llm"
	"github.com/wuwenbin0122/agentmate/internal/utils"
)

func main() {
	cfg, err := utils.LoadConfig()
	if err != nil {
		panic(err)
	}

	client, err := llm.NewClient(cfg.LLM)
	if err != nil {
		panic(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	models, err := client.ListModels(ctx)
	if err != nil {
		panic(err)
	}

	fmt.Printf("models available at %s:\n", cfg.LLM.BaseURL)
	for _, id := range models {
		fmt.Printf("- %s\n", id)
	}
}
