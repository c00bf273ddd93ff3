package engine

import (
	"maps"
	"slices"
)

type Phase string

const (
	PhaseLobby            Phase = "lobby"
	PhaseRoleReveal       Phase = "roleReveal"
	PhaseTeamProposal     Phase = "teamProposal"
	PhaseTeamVoting       Phase = "teamVoting"
	PhaseMissionExecution Phase = "missionExecution"
	PhaseMissionResult    Phase = "missionResult"
	PhaseGameOver         Phase = "gameOver"
)

const (
	MinPlayers   = 5
	MaxPlayers   = 10
	MissionCount = 5
)

type Player struct {
	ID    string
	Name  string
	Ready bool
}

// State is the authoritative session state. Player order is join order and
// doubles as the leader rotation order, so it must never be re-sorted.
type State struct {
	Phase          Phase
	Players        []Player
	Roles          map[string]RoleID // host-side only, never broadcast together
	LeaderIndex    int
	Mission        int // 1..MissionCount
	MissionResults []bool
	Team           []string
	TeamVotes      BallotBox
	MissionVotes   BallotBox
	Winner         Alignment
}

func NewState() State {
	return State{
		Phase:   PhaseLobby,
		Mission: 1,
	}
}

// clone copies the fields Apply may mutate so that the caller's State stays
// untouched when a command is rejected.
func (s State) clone() State {
	next := s
	next.Players = slices.Clone(s.Players)
	next.MissionResults = slices.Clone(s.MissionResults)
	next.Team = slices.Clone(s.Team)
	next.TeamVotes.Ballots = slices.Clone(s.TeamVotes.Ballots)
	next.MissionVotes.Ballots = slices.Clone(s.MissionVotes.Ballots)
	if s.Roles != nil {
		next.Roles = maps.Clone(s.Roles)
	}
	return next
}

func (s State) playerIndex(id string) int {
	return slices.IndexFunc(s.Players, func(p Player) bool { return p.ID == id })
}

// Leader returns the current leader, or false when the roster is empty.
func (s State) Leader() (Player, bool) {
	if len(s.Players) == 0 || s.LeaderIndex >= len(s.Players) {
		return Player{}, false
	}
	return s.Players[s.LeaderIndex], true
}
