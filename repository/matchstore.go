package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/skotte/skyfall/skyfall-server/models"
)

// MatchStore persists finished matches: the event log goes to MongoDB,
// the summary row to PostgreSQL. It implements session.MatchSaver.
type MatchStore struct {
	DB    *sql.DB
	Mongo *mongo.Client
}

const matchLogDatabase = "skyfall"

func NewMatchStore(db *sql.DB, mongoClient *mongo.Client) *MatchStore {
	return &MatchStore{DB: db, Mongo: mongoClient}
}

func (s *MatchStore) SaveMatch(rec models.MatchRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	collection := s.Mongo.Database(matchLogDatabase).Collection("match_logs")
	if _, err := collection.InsertOne(ctx, models.MatchLog{MatchID: rec.ID, Events: rec.Events}); err != nil {
		return fmt.Errorf("insert match log: %w", err)
	}

	_, err := s.DB.ExecContext(ctx,
		"INSERT INTO matches (id, created_at, finished_at, user_ids) VALUES ($1, $2, $3, $4)",
		rec.ID, rec.StartedAt.UTC(), rec.FinishedAt.UTC(), pq.Array(rec.UserIDs))
	if err != nil {
		return fmt.Errorf("insert match row: %w", err)
	}

	log.Printf("Match %s saved (%d events)", rec.ID, len(rec.Events))
	return nil
}

// UserMatches lists the finished matches a user took part in.
func (s *MatchStore) UserMatches(userID string) ([]models.Match, error) {
	rows, err := s.DB.Query(
		"SELECT id, created_at, finished_at, user_ids FROM matches WHERE $1 = ANY(user_ids)", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []models.Match
	for rows.Next() {
		var m models.Match
		if err := rows.Scan(&m.ID, &m.CreatedAt, &m.FinishedAt, pq.Array(&m.UserIDs)); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// MatchEvents fetches a match's event log.
func (s *MatchStore) MatchEvents(matchID string) (*models.MatchLog, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	collection := s.Mongo.Database(matchLogDatabase).Collection("match_logs")
	var matchLog models.MatchLog
	err := collection.FindOne(ctx, bson.M{"matchId": matchID}).Decode(&matchLog)
	if err != nil {
		return nil, err
	}
	return &matchLog, nil
}
