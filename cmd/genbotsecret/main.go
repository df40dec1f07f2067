package main

import (
	"fmt"
	"log"

	"colloquium/core"
)

func main() {
	log.Printf("🔑 Generating new bot token signing secret...")

	secret, err := core.NewSecretKey("bts")
	if err != nil {
		log.Fatalf("❌ Failed to generate signing secret: %v", err)
	}

	fmt.Printf("Generated signing secret: %s\n", secret)
	log.Printf("✅ Set BOT_TOKEN_SIGNING_SECRET to the value above")
}
