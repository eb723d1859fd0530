// Command seed inserts demo users and prints a bearer token for each, so the
// post endpoints can be exercised against a fresh database.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"omiit/config"
	"omiit/database"
	"omiit/middleware"
	"omiit/models"
	"omiit/repository"

	"github.com/brianvoe/gofakeit/v6"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func main() {
	count := flag.Int("users", 3, "number of demo users to create")
	ttl := flag.Duration("ttl", 24*time.Hour, "lifetime of the printed tokens")
	flag.Parse()

	slog.SetDefault(middleware.Logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	middleware.ConfigureLogger(cfg.Env)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := database.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		slog.Error("failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer db.Disconnect()

	users := repository.NewUserStore(db.Users, db.Posts)
	auth := middleware.NewAuthenticator(cfg.JWTSecret)

	fmt.Println("========================================")
	for i := 0; i < *count; i++ {
		u := &models.User{
			ID:      primitive.NewObjectID(),
			Name:    gofakeit.Name(),
			Email:   gofakeit.Email(),
			Avatar:  gofakeit.URL(),
			PostIDs: []primitive.ObjectID{},
		}
		if err := users.Save(ctx, u); err != nil {
			slog.Error("failed to save user", "error", err)
			os.Exit(1)
		}

		token, err := auth.Issue(u.ID.Hex(), *ttl)
		if err != nil {
			slog.Error("failed to issue token", "error", err)
			os.Exit(1)
		}

		fmt.Printf("USER %s (%s)\n", u.ID.Hex(), u.Name)
		fmt.Println("  POST   /" + u.ID.Hex() + "/add-post")
		fmt.Println("  Authorization: Bearer " + token)
	}
	fmt.Println("========================================")
}
