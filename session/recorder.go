package session

import (
	"time"

	"github.com/skotte/skyfall/skyfall-server/events"
	"github.com/skotte/skyfall/skyfall-server/models"
)

// Recorder captures every gameplay signal the local bus publishes, in
// order, for the match event log.
type Recorder struct {
	log []models.MatchEvent
}

func NewRecorder(bus *events.Bus) *Recorder {
	r := &Recorder{}
	for _, k := range []events.Kind{events.PlayerEliminated, events.EnemyOutOfBounds, events.PlayerHitEnemy} {
		kind := k
		bus.Subscribe(kind, func(payload any) {
			r.log = append(r.log, models.MatchEvent{
				Kind:      kind.String(),
				Payload:   payload,
				Timestamp: time.Now().UnixMilli(),
			})
		})
	}
	return r
}

// Drain returns the captured events and starts a fresh log.
func (r *Recorder) Drain() []models.MatchEvent {
	out := r.log
	r.log = nil
	return out
}
