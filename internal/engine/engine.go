package engine

import (
	"errors"
	"slices"
)

var ErrWrongPhase = errors.New("command not valid in current phase")
var ErrNotHost = errors.New("only the host may start the game")
var ErrNotLeader = errors.New("only the current leader may propose a team")
var ErrTooFewPlayers = errors.New("not enough players")
var ErrUnsupportedPlayerCount = errors.New("unsupported player count")
var ErrDuplicatePlayer = errors.New("player already joined")
var ErrUnknownPlayer = errors.New("unknown player")
var ErrInvalidTeam = errors.New("invalid team proposal")
var ErrDuplicateBallot = errors.New("player already voted this round")
var ErrNotEligible = errors.New("player is not on the mission team")
var ErrUnsupportedCommand = errors.New("unsupported command")
var ErrGameOver = errors.New("game already completed")

type CommandType string

const (
	CmdJoin              CommandType = "Join"
	CmdLeave             CommandType = "Leave"
	CmdStartGame         CommandType = "StartGame"
	CmdConfirmRole       CommandType = "ConfirmRole"
	CmdProposeTeam       CommandType = "ProposeTeam"
	CmdCastTeamVote      CommandType = "CastTeamVote"
	CmdCastMissionAction CommandType = "CastMissionAction"
	CmdAdvancePhase      CommandType = "AdvancePhase"
)

type Command struct {
	Type     CommandType
	PlayerID string
	Name     string
	Team     []string
	Vote     string // VoteApprove | VoteReject
	Action   string // ActionSuccess | ActionFail
}

type EventType string

const (
	EvtPlayersUpdated       EventType = "PlayersUpdated"
	EvtGameStarted          EventType = "GameStarted"
	EvtRoleAssigned         EventType = "RoleAssigned"
	EvtTeamSelectionStarted EventType = "TeamSelectionStarted"
	EvtTeamProposed         EventType = "TeamProposed"
	EvtVoteRequested        EventType = "VoteRequested"
	EvtVoteResolved         EventType = "VoteResolved"
	EvtMissionStarted       EventType = "MissionStarted"
	EvtMissionResolved      EventType = "MissionResolved"
	EvtVictory              EventType = "Victory"
)

// Event is an outbound state-transition notice. To selects a single recipient
// for private disclosures; empty means broadcast to every peer, the host's own
// mirror included.
type Event struct {
	Type        EventType
	To          string
	Players     []Player
	Role        RoleID
	LeaderIndex int
	Mission     int
	Team        []string
	Approves    int
	Rejects     int
	Approved    bool
	Success     bool
	Fails       int
	Winner      Alignment
}

// Apply runs one command against the session state and returns the events to
// emit plus the next state. The input state is never mutated; on error it is
// returned unchanged.
func Apply(s State, cmd Command) ([]Event, State, error) {
	if s.Phase == PhaseGameOver && cmd.Type != CmdLeave {
		return nil, s, ErrGameOver
	}

	switch cmd.Type {
	case CmdJoin:
		if s.Phase != PhaseLobby {
			return nil, s, ErrWrongPhase
		}
		if s.playerIndex(cmd.PlayerID) >= 0 {
			return nil, s, ErrDuplicatePlayer
		}
		next := s.clone()
		// The first peer to join is the host and opens the rotation.
		ready := len(next.Players) == 0
		next.Players = append(next.Players, Player{ID: cmd.PlayerID, Name: cmd.Name, Ready: ready})
		return []Event{playersUpdated(next)}, next, nil

	case CmdLeave:
		return applyLeave(s, cmd)

	case CmdStartGame:
		if s.Phase != PhaseLobby {
			return nil, s, ErrWrongPhase
		}
		if len(s.Players) == 0 || s.Players[0].ID != cmd.PlayerID {
			return nil, s, ErrNotHost
		}
		if len(s.Players) < MinPlayers {
			return nil, s, ErrTooFewPlayers
		}
		roles, err := AssignRoles(s.Players)
		if err != nil {
			return nil, s, err
		}
		next := s.clone()
		next.Roles = roles
		next.Phase = PhaseRoleReveal
		events := []Event{{Type: EvtGameStarted}}
		for _, p := range next.Players {
			events = append(events, Event{Type: EvtRoleAssigned, To: p.ID, Role: roles[p.ID]})
		}
		return events, next, nil

	case CmdConfirmRole:
		if s.Phase != PhaseRoleReveal {
			return nil, s, ErrWrongPhase
		}
		i := s.playerIndex(cmd.PlayerID)
		if i < 0 {
			return nil, s, ErrUnknownPlayer
		}
		// The first confirmation opens the game; later ones arrive in
		// teamProposal and are rejected as wrong-phase.
		next := s.clone()
		next.Players[i].Ready = true
		next.LeaderIndex = 0
		next.Mission = 1
		next.Team = nil
		next.TeamVotes = BallotBox{}
		next.MissionVotes = BallotBox{}
		next.Phase = PhaseTeamProposal
		return []Event{teamSelectionStarted(next)}, next, nil

	case CmdProposeTeam:
		if s.Phase != PhaseTeamProposal {
			return nil, s, ErrWrongPhase
		}
		leader, ok := s.Leader()
		if !ok || leader.ID != cmd.PlayerID {
			return nil, s, ErrNotLeader
		}
		if !validTeam(s, cmd.Team) {
			return nil, s, ErrInvalidTeam
		}
		next := s.clone()
		next.Team = slices.Clone(cmd.Team)
		next.TeamVotes = BallotBox{}
		next.Phase = PhaseTeamVoting
		return []Event{
			{Type: EvtTeamProposed, Team: slices.Clone(cmd.Team)},
			{Type: EvtVoteRequested},
		}, next, nil

	case CmdCastTeamVote:
		if s.Phase != PhaseTeamVoting {
			return nil, s, ErrWrongPhase
		}
		if s.playerIndex(cmd.PlayerID) < 0 {
			return nil, s, ErrUnknownPlayer
		}
		next := s.clone()
		box, err := next.TeamVotes.Submit(Ballot{PlayerID: cmd.PlayerID, Value: cmd.Vote})
		if err != nil {
			return nil, s, err
		}
		next.TeamVotes = box
		if !next.TeamVotes.Complete(len(next.Players)) {
			return nil, next, nil
		}
		next, events := resolveTeamRound(next)
		return events, next, nil

	case CmdCastMissionAction:
		if s.Phase != PhaseMissionExecution {
			return nil, s, ErrWrongPhase
		}
		if !slices.Contains(s.Team, cmd.PlayerID) {
			return nil, s, ErrNotEligible
		}
		next := s.clone()
		box, err := next.MissionVotes.Submit(Ballot{PlayerID: cmd.PlayerID, Value: cmd.Action})
		if err != nil {
			return nil, s, err
		}
		next.MissionVotes = box
		if !next.MissionVotes.Complete(len(next.Team)) {
			return nil, next, nil
		}
		next, events := resolveMissionRound(next)
		return events, next, nil

	case CmdAdvancePhase:
		if s.Phase != PhaseMissionResult {
			return nil, s, ErrWrongPhase
		}
		next := s.clone()
		switch Evaluate(next.MissionResults) {
		case OutcomeGoodVictory:
			next.Phase = PhaseGameOver
			next.Winner = AlignmentGood
			return []Event{{Type: EvtVictory, Winner: AlignmentGood}}, next, nil
		case OutcomeEvilVictory:
			next.Phase = PhaseGameOver
			next.Winner = AlignmentEvil
			return []Event{{Type: EvtVictory, Winner: AlignmentEvil}}, next, nil
		default:
			next.Mission++
			next.LeaderIndex = (next.LeaderIndex + 1) % len(next.Players)
			next = invalidateProposal(next)
			return []Event{teamSelectionStarted(next)}, next, nil
		}

	default:
		return nil, s, ErrUnsupportedCommand
	}
}

// applyLeave removes a departed peer and shrinks the eligible voter set, so an
// open round can still resolve. A departed team member invalidates the current
// proposal back to team selection under the same leader.
func applyLeave(s State, cmd Command) ([]Event, State, error) {
	i := s.playerIndex(cmd.PlayerID)
	if i < 0 {
		return nil, s, ErrUnknownPlayer
	}
	next := s.clone()
	next.Players = slices.Delete(next.Players, i, i+1)
	events := []Event{playersUpdated(next)}

	switch s.Phase {
	case PhaseLobby, PhaseRoleReveal, PhaseGameOver:
		return events, next, nil
	}

	if len(next.Players) == 0 {
		next.LeaderIndex = 0
		return events, next, nil
	}

	if i < next.LeaderIndex {
		next.LeaderIndex--
	}
	if next.LeaderIndex >= len(next.Players) {
		next.LeaderIndex = 0
	}
	next.TeamVotes = next.TeamVotes.Without(cmd.PlayerID)
	next.MissionVotes = next.MissionVotes.Without(cmd.PlayerID)
	wasOnTeam := slices.Contains(next.Team, cmd.PlayerID)

	switch s.Phase {
	case PhaseTeamProposal:
		if i == s.LeaderIndex {
			// Leadership passed to the next seat; announce it.
			events = append(events, teamSelectionStarted(next))
		}
	case PhaseTeamVoting:
		if wasOnTeam {
			next = invalidateProposal(next)
			events = append(events, teamSelectionStarted(next))
		} else if next.TeamVotes.Complete(len(next.Players)) {
			var more []Event
			next, more = resolveTeamRound(next)
			events = append(events, more...)
		}
	case PhaseMissionExecution:
		if wasOnTeam {
			next = invalidateProposal(next)
			events = append(events, teamSelectionStarted(next))
		}
	}
	return events, next, nil
}

func resolveTeamRound(next State) (State, []Event) {
	res := next.TeamVotes.TeamResult()
	events := []Event{{
		Type:     EvtVoteResolved,
		Approves: res.Approves,
		Rejects:  res.Rejects,
		Approved: res.Approved,
	}}
	if res.Approved {
		next.MissionVotes = BallotBox{}
		next.Phase = PhaseMissionExecution
		events = append(events, Event{Type: EvtMissionStarted})
	} else {
		next.LeaderIndex = (next.LeaderIndex + 1) % len(next.Players)
		next = invalidateProposal(next)
		events = append(events, teamSelectionStarted(next))
	}
	return next, events
}

func resolveMissionRound(next State) (State, []Event) {
	res := next.MissionVotes.MissionResult()
	next.MissionResults = append(next.MissionResults, res.Success)
	next.Phase = PhaseMissionResult
	return next, []Event{{Type: EvtMissionResolved, Success: res.Success, Fails: res.Fails}}
}

func invalidateProposal(next State) State {
	next.Team = nil
	next.TeamVotes = BallotBox{}
	next.MissionVotes = BallotBox{}
	next.Phase = PhaseTeamProposal
	return next
}

func validTeam(s State, team []string) bool {
	if len(team) == 0 || len(team) > len(s.Players) {
		return false
	}
	seen := make(map[string]bool, len(team))
	for _, id := range team {
		if seen[id] || s.playerIndex(id) < 0 {
			return false
		}
		seen[id] = true
	}
	return true
}

func playersUpdated(s State) Event {
	return Event{Type: EvtPlayersUpdated, Players: slices.Clone(s.Players)}
}

func teamSelectionStarted(s State) Event {
	return Event{Type: EvtTeamSelectionStarted, LeaderIndex: s.LeaderIndex, Mission: s.Mission}
}
