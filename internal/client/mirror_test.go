package client

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/avalon-p2p/avalon-backend/internal/engine"
	"github.com/avalon-p2p/avalon-backend/internal/protocol"
	"github.com/avalon-p2p/avalon-backend/internal/session"
)

func TestMirror_AppliesBroadcastSequence(t *testing.T) {
	m := NewMirror()

	m.Apply(protocol.Message{Type: protocol.TypePlayersUpdate, Players: []protocol.PlayerInfo{
		{ID: "A", Name: "Alice", Ready: true},
		{ID: "B", Name: "Bob"},
	}})
	m.Apply(protocol.Message{Type: protocol.TypeStartGame})
	m.Apply(protocol.Message{Type: protocol.TypeRoleAssigned, Role: "merlin"})
	m.Apply(protocol.Message{Type: protocol.TypeStartTeamSelection, LeaderIndex: 0, Mission: 1})
	m.Apply(protocol.Message{Type: protocol.TypeTeamProposed, Team: []string{"A", "B"}})
	m.Apply(protocol.Message{Type: protocol.TypeVoteResult, Approves: 3, Rejects: 2, Approved: true})
	m.Apply(protocol.Message{Type: protocol.TypeMissionStart})
	m.Apply(protocol.Message{Type: protocol.TypeMissionResult, Success: false, Fails: 1})

	if m.Phase != "missionResult" {
		t.Fatalf("want missionResult, got %s", m.Phase)
	}
	if m.MyRole != "merlin" {
		t.Fatalf("want merlin, got %q", m.MyRole)
	}
	if len(m.MissionResults) != 1 || m.MissionResults[0] {
		t.Fatalf("want one failed mission, got %+v", m.MissionResults)
	}
	if leader, ok := m.Leader(); !ok || leader.ID != "A" {
		t.Fatalf("want leader A, got %+v", leader)
	}

	m.Apply(protocol.Message{Type: protocol.TypeStartTeamSelection, LeaderIndex: 1, Mission: 2})
	if m.Team != nil || m.LastVote != nil {
		t.Fatalf("new round must clear team and vote outcome")
	}
}

// Five mirrors fed by a live session must converge on identical public state,
// with the host's mirror walking the exact same path as everyone else's.
func TestMirror_ConvergesAcrossPeers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := session.New(ctx, zap.NewNop())

	ids := []string{"A", "B", "C", "D", "E"}
	outs := make(map[string]chan protocol.Message, len(ids))
	for _, id := range ids {
		outs[id] = make(chan protocol.Message, 64)
		s.Inbox() <- session.Join{PeerID: id, Name: "Player " + id, Outbox: outs[id]}
	}

	s.Inbox() <- session.FromPeer{PeerID: "A", Msg: protocol.Message{Type: protocol.TypeStartGame}}
	s.Inbox() <- session.FromPeer{PeerID: "A", Msg: protocol.Message{Type: protocol.TypeRoleConfirm}}
	s.Inbox() <- session.FromPeer{PeerID: "A", Msg: protocol.Message{
		Type: protocol.TypeTeamProposed, Team: []string{"A", "B"},
	}}
	for _, id := range ids {
		s.Inbox() <- session.FromPeer{PeerID: id, Msg: protocol.Message{
			Type: protocol.TypeVote, Vote: engine.VoteApprove,
		}}
	}
	s.Inbox() <- session.FromPeer{PeerID: "A", Msg: protocol.Message{Type: protocol.TypeMissionAction, Action: engine.ActionSuccess}}
	s.Inbox() <- session.FromPeer{PeerID: "B", Msg: protocol.Message{Type: protocol.TypeMissionAction, Action: engine.ActionSuccess}}
	s.Inbox() <- session.FromPeer{PeerID: "C", Msg: protocol.Message{Type: protocol.TypeNextPhase}}

	// wait for the last broadcast, then drain each outbox into a mirror
	mirrors := make(map[string]*Mirror, len(ids))
	for _, id := range ids {
		m := NewMirror()
		deadline := time.After(2 * time.Second)
		for m.Phase != "teamProposal" || m.Mission != 2 {
			select {
			case msg, ok := <-outs[id]:
				if !ok {
					t.Fatalf("peer %s outbox closed early", id)
				}
				m.Apply(msg)
			case <-deadline:
				t.Fatalf("peer %s never reached mission 2 (phase %s)", id, m.Phase)
			}
		}
		mirrors[id] = m
	}

	ref := mirrors["A"]
	if len(ref.MissionResults) != 1 || !ref.MissionResults[0] {
		t.Fatalf("host mirror should record one success, got %+v", ref.MissionResults)
	}
	if leader, ok := ref.Leader(); !ok || leader.ID != "B" {
		t.Fatalf("host mirror should see leader B, got %+v", leader)
	}
	for _, id := range ids[1:] {
		m := mirrors[id]
		if m.LeaderIndex != ref.LeaderIndex || m.Mission != ref.Mission || m.Phase != ref.Phase {
			t.Fatalf("peer %s diverged: %+v vs %+v", id, m, ref)
		}
		if len(m.Players) != len(ref.Players) {
			t.Fatalf("peer %s roster diverged", id)
		}
		if m.MyRole == "" {
			t.Fatalf("peer %s never learned its role", id)
		}
	}
}
