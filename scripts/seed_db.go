package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"tictactoe-server/internal/auth"
	"tictactoe-server/internal/config"
	"tictactoe-server/internal/db"
	"tictactoe-server/internal/models"
	"tictactoe-server/internal/utils"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
)

func main() {
	username := flag.String("username", "", "account name (random when empty)")
	password := flag.String("password", "", "optional password to store")
	admin := flag.Bool("admin", false, "grant admin rights")
	rating := flag.Float64("rating", models.DefaultRating, "starting rating")
	clearResults := flag.Bool("clear-results", false, "delete all match results first")
	flag.Parse()

	cfg, err := config.Load(config.GetEnv())
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	mongodb, err := db.NewMongoDB(ctx, cfg.MongoDB.URI, cfg.MongoDB.Database, zerolog.Nop())
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer mongodb.Close(context.Background())

	if *clearResults {
		res, err := mongodb.MatchResults().DeleteMany(ctx, bson.M{})
		if err != nil {
			log.Fatalf("Failed to delete match results: %v", err)
		}
		fmt.Printf("Deleted %d match results\n", res.DeletedCount)
	}

	name := *username
	if name == "" {
		name, err = utils.UniqueDisplayName(func(n string) (bool, error) {
			return mongodb.UsernameTaken(ctx, n)
		})
		if err != nil {
			log.Fatalf("Failed to pick a username: %v", err)
		}
	}

	user := &models.User{Username: name, IsAdmin: *admin, Rating: *rating}
	if *password != "" {
		passwords := auth.NewPasswordService()
		if err := passwords.ValidatePasswordStrength(*password); err != nil {
			log.Fatalf("Rejected password: %v", err)
		}
		if user.PasswordHash, err = passwords.HashPassword(*password); err != nil {
			log.Fatalf("Failed to hash password: %v", err)
		}
	}

	if err := mongodb.CreateUser(ctx, user); err != nil {
		log.Fatalf("Failed to create user: %v", err)
	}

	jwt := auth.NewJWTService(cfg.JWT.AccessSecret, time.Duration(cfg.JWT.AccessTTL)*time.Minute)
	token, err := jwt.GenerateAccessToken(user.ID.Hex(), user.Username)
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}

	fmt.Printf("Created %s (id %s, mmr %.0f, admin %t)\n", user.Username, user.ID.Hex(), user.Rating, user.IsAdmin)
	fmt.Printf("Token: %s\n", token)
}
