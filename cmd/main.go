package main

import (
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"github.com/skotte/skyfall/skyfall-server/config"
	"github.com/skotte/skyfall/skyfall-server/game"
	"github.com/skotte/skyfall/skyfall-server/handlers"
	"github.com/skotte/skyfall/skyfall-server/repository"
	"github.com/skotte/skyfall/skyfall-server/session"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file loaded:", err)
	}
	cfg := config.LoadConfig()

	db, err := repository.ConnectPostgres(cfg)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL:", err)
	}
	log.Println("Successfully connected to PostgreSQL")

	mongoClient, err := repository.ConnectMongo(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	log.Println("Successfully connected to MongoDB")

	matches := repository.NewMatchStore(db, mongoClient)

	catalog := game.DefaultCatalog()
	if cfg.CatalogPath != "" {
		catalog, err = game.LoadCatalog(cfg.CatalogPath)
		if err != nil {
			log.Fatal("Failed to load enemy catalog:", err)
		}
	}

	sess := session.New(session.Config{
		Name:      cfg.SessionName,
		AllowSolo: cfg.AllowSolo,
		Catalog:   catalog,
		Saver:     matches,
	})
	go sess.Run()

	api := handlers.NewAPI(sess, db, matches, cfg)
	r := handlers.NewRouter(api)

	log.Printf("Server running on http://localhost:%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal(err)
	}
}
