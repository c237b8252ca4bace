// Package handlers is the HTTP and WebSocket edge of the server: auth,
// match history, and the transport that feeds the session actor.
package handlers

import (
	"database/sql"

	"github.com/skotte/skyfall/skyfall-server/config"
	"github.com/skotte/skyfall/skyfall-server/repository"
	"github.com/skotte/skyfall/skyfall-server/session"
)

// API carries the shared dependencies of every handler. One instance per
// process, built in main.
type API struct {
	Session *session.Session
	DB      *sql.DB
	Matches *repository.MatchStore
	Cfg     *config.Config
}

func NewAPI(sess *session.Session, db *sql.DB, matches *repository.MatchStore, cfg *config.Config) *API {
	return &API{Session: sess, DB: db, Matches: matches, Cfg: cfg}
}
