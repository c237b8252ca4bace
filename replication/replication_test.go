package replication

import (
	"encoding/json"
	"testing"
)

func TestVarOnlyOwnerAssigns(t *testing.T) {
	host := &Context{Local: Host}
	observer := &Context{Local: 2}

	v := NewVar(Host, 3)
	if err := v.Set(host, 5); err != nil {
		t.Fatalf("owner Set: %v", err)
	}
	if v.Get() != 5 {
		t.Fatalf("Get = %d, want 5", v.Get())
	}

	if err := v.Set(observer, 7); err != ErrNotOwner {
		t.Fatalf("non-owner Set err = %v, want ErrNotOwner", err)
	}
	if v.Get() != 5 {
		t.Fatalf("non-owner Set changed value to %d", v.Get())
	}

	// Apply is the replication path and bypasses ownership.
	v.Apply(9)
	if v.Get() != 9 {
		t.Fatalf("Apply: Get = %d, want 9", v.Get())
	}
}

func TestDispatcherDropsDuplicateCalls(t *testing.T) {
	d := NewDispatcher(&Context{Local: Host})
	calls := 0
	d.Register("enemy:1", "destroy", func(json.RawMessage) { calls++ })

	c := Call{Sender: 2, Seq: 1, Target: "enemy:1", Method: "destroy"}
	d.Apply(c)
	d.Apply(c)
	if calls != 1 {
		t.Fatalf("calls = %d, want 1 (duplicate must be dropped)", calls)
	}

	// A later sequence number from the same sender goes through.
	d.Apply(Call{Sender: 2, Seq: 2, Target: "enemy:1", Method: "destroy"})
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestDispatcherTracksSequencePerSender(t *testing.T) {
	d := NewDispatcher(&Context{Local: Host})
	calls := 0
	d.Register("session", "restart_ack", func(json.RawMessage) { calls++ })

	d.Apply(Call{Sender: 2, Seq: 5, Target: "session", Method: "restart_ack"})
	// Sender 3 reuses sequence number 5; it must not be treated as a
	// duplicate of sender 2's call.
	d.Apply(Call{Sender: 3, Seq: 5, Target: "session", Method: "restart_ack"})
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestCallToDeregisteredTargetIsDropped(t *testing.T) {
	d := NewDispatcher(&Context{Local: Host})
	calls := 0
	d.Register("enemy:1", "destroy", func(json.RawMessage) { calls++ })
	d.Deregister("enemy:1")

	d.Apply(Call{Sender: Host, Seq: 1, Target: "enemy:1", Method: "destroy"})
	if calls != 0 {
		t.Fatalf("calls = %d, want 0 (stale target must be a no-op)", calls)
	}
}

func TestInvokeExecutesLocallyThroughLoopback(t *testing.T) {
	d := NewDispatcher(&Context{Local: Host})
	var got int
	d.Register("player:0", "reset", func(args json.RawMessage) {
		var a struct {
			Health int `json:"health"`
		}
		if err := json.Unmarshal(args, &a); err != nil {
			t.Fatalf("unmarshal args: %v", err)
		}
		got = a.Health
	})

	d.Invoke("player:0", "reset", map[string]int{"health": 3})
	if got != 3 {
		t.Fatalf("handler saw health %d, want 3", got)
	}
}
