package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"happymeter/config"
	"happymeter/internal/auth"
	"happymeter/internal/database"
	"happymeter/internal/domain"
	"happymeter/internal/seed"
)

func main() {
	path := flag.String("file", "seed.yaml", "seed file")
	flag.Parse()

	cfg := config.Load()
	f, err := seed.Load(*path)
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	programs, err := seed.Apply(context.Background(), db, f)
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	for _, p := range programs {
		log.Printf("[seed] created program %d %q", p.ID, p.Name)
	}

	token, err := auth.GenerateAccessToken(&cfg.JWT, f.OwnerID, domain.RoleOwner)
	if err != nil {
		log.Fatalf("token: %v", err)
	}
	fmt.Println(token)
}
