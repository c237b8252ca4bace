package handlers

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/skotte/skyfall/skyfall-server/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WsHandler upgrades the connection, validates the token from the path
// and admits the peer to the session.
func (a *API) WsHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	tokenStr := vars["token"]

	claims, err := a.ValidateToken(tokenStr)
	if err != nil {
		log.Println(err)
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("Upgrade error:", err)
		return
	}

	conn := newConnection(ws, claims.ID, claims.Username)

	reply := make(chan session.JoinResult, 1)
	a.Session.Inbox <- session.Join{
		Conn:     conn,
		UserID:   claims.ID,
		Username: claims.Username,
		Reply:    reply,
	}
	res := <-reply
	conn.peer = res.Peer

	go conn.writePump()
	log.Printf("peer %d (%s) connected", conn.peer, claims.Username)
	conn.readPump(a.Session)
}
