package client

import (
	"slices"

	"github.com/avalon-p2p/avalon-backend/internal/protocol"
)

// Mirror is the read-only session view a peer maintains by applying host
// broadcasts in arrival order. Every peer, the host included, runs the same
// Apply path, so mirrors converge as long as they see the same messages.
type Mirror struct {
	Players        []protocol.PlayerInfo
	MyRole         string
	LeaderIndex    int
	Mission        int
	MissionResults []bool
	Team           []string
	Phase          string
	LastVote       *VoteOutcome
	Winner         string
}

type VoteOutcome struct {
	Approves int
	Rejects  int
	Approved bool
}

func NewMirror() *Mirror {
	return &Mirror{Mission: 1, Phase: "lobby"}
}

func (m *Mirror) Apply(msg protocol.Message) {
	switch msg.Type {
	case protocol.TypePlayersUpdate:
		m.Players = slices.Clone(msg.Players)
	case protocol.TypeStartGame:
		m.Phase = "roleReveal"
	case protocol.TypeRoleAssigned:
		m.MyRole = msg.Role
	case protocol.TypeStartTeamSelection:
		m.LeaderIndex = msg.LeaderIndex
		m.Mission = msg.Mission
		m.Team = nil
		m.LastVote = nil
		m.Phase = "teamProposal"
	case protocol.TypeTeamProposed:
		m.Team = slices.Clone(msg.Team)
		m.Phase = "teamVoting"
	case protocol.TypeVoteRequest:
		// ballot collection is open; nothing to mirror
	case protocol.TypeVoteResult:
		m.LastVote = &VoteOutcome{Approves: msg.Approves, Rejects: msg.Rejects, Approved: msg.Approved}
	case protocol.TypeMissionStart:
		m.Phase = "missionExecution"
	case protocol.TypeMissionResult:
		m.MissionResults = append(m.MissionResults, msg.Success)
		m.Phase = "missionResult"
	case protocol.TypeVictory:
		m.Winner = msg.Winner
		m.Phase = "gameOver"
	}
}

// Leader resolves the current leader from the mirrored roster.
func (m *Mirror) Leader() (protocol.PlayerInfo, bool) {
	if m.LeaderIndex < 0 || m.LeaderIndex >= len(m.Players) {
		return protocol.PlayerInfo{}, false
	}
	return m.Players[m.LeaderIndex], true
}
