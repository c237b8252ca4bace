package handlers

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/skotte/skyfall/skyfall-server/common"
	"github.com/skotte/skyfall/skyfall-server/models"
	"github.com/skotte/skyfall/skyfall-server/responses"
	"github.com/skotte/skyfall/skyfall-server/utils"
)

// FetchUserMatches lists the authenticated user's finished matches.
func (a *API) FetchUserMatches(w http.ResponseWriter, r *http.Request) {
	authInfo, ok := r.Context().Value(common.AuthInfoKey).(*models.CustomClaims)
	if !ok {
		utils.HandleError(w, responses.InternalServerError{Msg: "Error processing request."})
		return
	}

	matches, err := a.Matches.UserMatches(authInfo.ID)
	if err != nil {
		log.Printf("Error fetching matches: %v", err)
		utils.HandleError(w, responses.InternalServerError{Msg: "Failed to fetch user matches."})
		return
	}
	if matches == nil {
		matches = []models.Match{}
	}
	utils.HandleSuccess(w, models.SuccessResponse(matches))
}

// FetchMatchEvents returns the event log of one match, provided the
// requesting user took part in it.
func (a *API) FetchMatchEvents(w http.ResponseWriter, r *http.Request) {
	authInfo, ok := r.Context().Value(common.AuthInfoKey).(*models.CustomClaims)
	if !ok {
		utils.HandleError(w, responses.InternalServerError{Msg: "Error processing request."})
		return
	}

	matchID := mux.Vars(r)["matchID"]
	if matchID == "" {
		utils.HandleError(w, responses.BadRequestError{Msg: "matchID is required."})
		return
	}

	var match models.Match
	err := a.DB.QueryRow("SELECT id, created_at, finished_at FROM matches WHERE id = $1", matchID).
		Scan(&match.ID, &match.CreatedAt, &match.FinishedAt)
	if err != nil {
		utils.HandleError(w, responses.NotFoundError{Msg: "Match not found."})
		return
	}

	var isParticipant bool
	err = a.DB.QueryRow("SELECT $1 = ANY(user_ids) FROM matches WHERE id = $2", authInfo.ID, matchID).
		Scan(&isParticipant)
	if err != nil || !isParticipant {
		utils.HandleError(w, responses.ForbiddenError{Msg: "User is not part of the match."})
		return
	}

	matchLog, err := a.Matches.MatchEvents(matchID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			utils.HandleError(w, responses.NotFoundError{Msg: "Match log not found."})
			return
		}
		log.Printf("Error fetching match log: %v", err)
		utils.HandleError(w, responses.InternalServerError{Msg: "Error fetching match log."})
		return
	}

	utils.HandleSuccess(w, models.SuccessResponse(matchLog))
}
