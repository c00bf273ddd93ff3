package protocol

// Message is the single wire envelope for every peer-to-host and host-to-peer
// message. Type is the discriminant; unused payload fields are omitted where
// the zero value is never meaningful. LeaderIndex, the vote tallies, and the
// outcome booleans keep their zero values on the wire because 0/false are
// valid payloads for them.
type Message struct {
	Type        string       `json:"type"`
	PlayerID    string       `json:"playerId,omitempty"`
	Name        string       `json:"name,omitempty"`
	Players     []PlayerInfo `json:"players,omitempty"`
	Role        string       `json:"role,omitempty"`
	RoleName    string       `json:"roleName,omitempty"`
	RoleTeam    string       `json:"roleTeam,omitempty"`
	RoleDesc    string       `json:"roleDesc,omitempty"`
	LeaderIndex int          `json:"leaderIndex"`
	Mission     int          `json:"mission"`
	Team        []string     `json:"team,omitempty"`
	Vote        string       `json:"vote,omitempty"`   // approve | reject
	Action      string       `json:"action,omitempty"` // success | fail
	Approves    int          `json:"approves"`
	Rejects     int          `json:"rejects"`
	Approved    bool         `json:"approved"`
	Success     bool         `json:"success"`
	Fails       int          `json:"fails"`
	Winner      string       `json:"winner,omitempty"` // good | evil
	Error       string       `json:"error,omitempty"`
}

type PlayerInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Ready bool   `json:"ready"`
}

// Peer -> host.
const (
	TypeJoin          = "join"
	TypeRoleConfirm   = "roleConfirm"
	TypeTeamProposed  = "teamProposed"
	TypeVote          = "vote"
	TypeMissionAction = "missionAction"
	TypeNextPhase     = "nextPhase"
	TypeStartGame     = "startGame"
)

// Host -> peers. roleAssigned is always directed at a single peer; no message
// ever carries the full role assignment.
const (
	TypePlayersUpdate      = "playersUpdate"
	TypeRoleAssigned       = "roleAssigned"
	TypeStartTeamSelection = "startTeamSelection"
	TypeVoteRequest        = "voteRequest"
	TypeVoteResult         = "voteResult"
	TypeMissionStart       = "missionStart"
	TypeMissionResult      = "missionResult"
	TypeVictory            = "victory"
	TypeError              = "error"
)
