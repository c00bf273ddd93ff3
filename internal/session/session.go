package session

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/avalon-p2p/avalon-backend/internal/engine"
	"github.com/avalon-p2p/avalon-backend/internal/protocol"
)

type Msg interface{ isSessionMsg() }

// Join registers a peer's outbox and seats the player. The first peer to join
// becomes the host.
type Join struct {
	PeerID string
	Name   string
	Outbox chan protocol.Message
}

func (Join) isSessionMsg() {}

type Leave struct{ PeerID string }

func (Leave) isSessionMsg() {}

type FromPeer struct {
	PeerID string
	Msg    protocol.Message
}

func (FromPeer) isSessionMsg() {}

type Shutdown struct{}

func (Shutdown) isSessionMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isSessionMsg() {}

type View struct {
	NumPeers int
	State    engine.State
}

// Session is the authority for one room. A single goroutine consumes the inbox
// and handles each message to completion, which serializes every concurrent
// peer action; the engine state is never touched from anywhere else.
type Session struct {
	inbox  chan Msg
	state  engine.State
	peers  map[string]chan protocol.Message
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func New(parent context.Context, log *zap.Logger) *Session {
	ctx, cancel := context.WithCancel(parent)
	s := &Session{
		inbox:  make(chan Msg, 64),
		state:  engine.NewState(),
		peers:  make(map[string]chan protocol.Message),
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
	go s.loop()
	return s
}

func (s *Session) Inbox() chan<- Msg { return s.inbox }

func (s *Session) loop() {
	for {
		select {
		case <-s.ctx.Done():
			s.shutdown()
			return

		case m := <-s.inbox:
			switch msg := m.(type) {
			case Join:
				s.peers[msg.PeerID] = msg.Outbox
				s.apply(msg.PeerID, engine.Command{
					Type:     engine.CmdJoin,
					PlayerID: msg.PeerID,
					Name:     msg.Name,
				})

			case Leave:
				// Close before delete so the transport writer draining the
				// outbox terminates; all sends happen on this goroutine.
				if ch, ok := s.peers[msg.PeerID]; ok {
					close(ch)
					delete(s.peers, msg.PeerID)
				}
				s.unseat(msg.PeerID)

			case FromPeer:
				cmd, ok := toCommand(msg.PeerID, msg.Msg)
				if !ok {
					s.sendError(msg.PeerID, "unknown message type")
					break
				}
				s.apply(msg.PeerID, cmd)

			case GetState:
				msg.Reply <- View{NumPeers: len(s.peers), State: s.state}

			case Shutdown:
				s.shutdown()
				return
			}
		}
	}
}

func (s *Session) apply(peerID string, cmd engine.Command) {
	events, next, err := engine.Apply(s.state, cmd)
	if err != nil {
		s.log.Debug("command rejected",
			zap.String("peer", peerID),
			zap.String("command", string(cmd.Type)),
			zap.Error(err))
		s.sendError(peerID, err.Error())
		return
	}
	s.state = next
	s.dispatch(events)
}

// dispatch fans events out as wire messages. Directed events go to a single
// peer; everything else goes to every registered peer so every mirror,
// including the host's, applies the same transition. Peers dropped for being
// slow are unseated afterwards, so the electorate never counts a peer that can
// no longer hear broadcasts.
func (s *Session) dispatch(events []engine.Event) {
	var dropped []string
	for _, e := range events {
		m := eventMessage(e)
		if e.To != "" {
			if !s.send(e.To, m) {
				dropped = append(dropped, e.To)
			}
			continue
		}
		for id := range s.peers {
			if !s.send(id, m) {
				dropped = append(dropped, id)
			}
		}
	}
	for _, id := range dropped {
		s.unseat(id)
	}
}

// send reports false when the peer had to be dropped.
func (s *Session) send(peerID string, m protocol.Message) bool {
	ch, ok := s.peers[peerID]
	if !ok {
		return true // already gone
	}
	select {
	case ch <- m:
		return true
	default:
		// Peer is slow/full - drop them.
		close(ch)
		delete(s.peers, peerID)
		return false
	}
}

// unseat removes a departed peer from the game state and fans out whatever
// the departure resolves. Recursion through dispatch terminates because the
// peer set strictly shrinks.
func (s *Session) unseat(peerID string) {
	events, next, err := engine.Apply(s.state, engine.Command{
		Type:     engine.CmdLeave,
		PlayerID: peerID,
	})
	if err != nil {
		// Peer was never seated (e.g. joined mid-game); nothing to undo.
		return
	}
	s.state = next
	s.dispatch(events)
}

func (s *Session) sendError(peerID string, msg string) {
	if !s.send(peerID, protocol.Message{Type: protocol.TypeError, Error: msg}) {
		s.unseat(peerID)
	}
}

func (s *Session) shutdown() {
	for id, ch := range s.peers {
		close(ch)
		delete(s.peers, id)
	}
	s.cancel()
}

// toCommand translates a wire message into an engine command. The sender's
// identity always comes from the connection, never from the payload.
func toCommand(peerID string, m protocol.Message) (engine.Command, bool) {
	switch m.Type {
	case protocol.TypeJoin:
		return engine.Command{Type: engine.CmdJoin, PlayerID: peerID, Name: m.Name}, true
	case protocol.TypeStartGame:
		return engine.Command{Type: engine.CmdStartGame, PlayerID: peerID}, true
	case protocol.TypeRoleConfirm:
		return engine.Command{Type: engine.CmdConfirmRole, PlayerID: peerID}, true
	case protocol.TypeTeamProposed:
		return engine.Command{Type: engine.CmdProposeTeam, PlayerID: peerID, Team: m.Team}, true
	case protocol.TypeVote:
		if m.Vote != engine.VoteApprove && m.Vote != engine.VoteReject {
			return engine.Command{}, false
		}
		return engine.Command{Type: engine.CmdCastTeamVote, PlayerID: peerID, Vote: m.Vote}, true
	case protocol.TypeMissionAction:
		if m.Action != engine.ActionSuccess && m.Action != engine.ActionFail {
			return engine.Command{}, false
		}
		return engine.Command{Type: engine.CmdCastMissionAction, PlayerID: peerID, Action: m.Action}, true
	case protocol.TypeNextPhase:
		return engine.Command{Type: engine.CmdAdvancePhase, PlayerID: peerID}, true
	default:
		return engine.Command{}, false
	}
}

func eventMessage(e engine.Event) protocol.Message {
	switch e.Type {
	case engine.EvtPlayersUpdated:
		return protocol.Message{Type: protocol.TypePlayersUpdate, Players: playerInfos(e.Players)}
	case engine.EvtGameStarted:
		return protocol.Message{Type: protocol.TypeStartGame}
	case engine.EvtRoleAssigned:
		info := e.Role.Info()
		return protocol.Message{
			Type:     protocol.TypeRoleAssigned,
			Role:     string(e.Role),
			RoleName: info.Name,
			RoleTeam: string(info.Team),
			RoleDesc: info.Desc,
		}
	case engine.EvtTeamSelectionStarted:
		return protocol.Message{
			Type:        protocol.TypeStartTeamSelection,
			LeaderIndex: e.LeaderIndex,
			Mission:     e.Mission,
		}
	case engine.EvtTeamProposed:
		return protocol.Message{Type: protocol.TypeTeamProposed, Team: e.Team}
	case engine.EvtVoteRequested:
		return protocol.Message{Type: protocol.TypeVoteRequest}
	case engine.EvtVoteResolved:
		return protocol.Message{
			Type:     protocol.TypeVoteResult,
			Approves: e.Approves,
			Rejects:  e.Rejects,
			Approved: e.Approved,
		}
	case engine.EvtMissionStarted:
		return protocol.Message{Type: protocol.TypeMissionStart}
	case engine.EvtMissionResolved:
		return protocol.Message{
			Type:    protocol.TypeMissionResult,
			Success: e.Success,
			Fails:   e.Fails,
		}
	case engine.EvtVictory:
		return protocol.Message{Type: protocol.TypeVictory, Winner: string(e.Winner)}
	default:
		return protocol.Message{Type: protocol.TypeError, Error: errUnknownEvent.Error()}
	}
}

func playerInfos(players []engine.Player) []protocol.PlayerInfo {
	out := make([]protocol.PlayerInfo, len(players))
	for i, p := range players {
		out[i] = protocol.PlayerInfo{ID: p.ID, Name: p.Name, Ready: p.Ready}
	}
	return out
}

var errUnknownEvent = errors.New("unknown engine event")
