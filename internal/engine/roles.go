package engine

import (
	"math/rand/v2"
	"slices"
)

type Alignment string

const (
	AlignmentGood Alignment = "good"
	AlignmentEvil Alignment = "evil"
)

type RoleID string

const (
	RoleMerlin   RoleID = "merlin"
	RolePercival RoleID = "percival"
	RoleLoyal    RoleID = "loyal"
	RoleMordred  RoleID = "mordred"
	RoleMorgana  RoleID = "morgana"
	RoleOberon   RoleID = "oberon"
	RoleAssassin RoleID = "assassin"
)

type RoleInfo struct {
	Name string
	Team Alignment
	Desc string
}

var roleData = map[RoleID]RoleInfo{
	RoleMerlin:   {Name: "Merlin", Team: AlignmentGood, Desc: "You know who the evil players are (except Mordred)"},
	RolePercival: {Name: "Percival", Team: AlignmentGood, Desc: "You know who Merlin and Morgana are"},
	RoleLoyal:    {Name: "Loyal Servant of Arthur", Team: AlignmentGood, Desc: "You have no special ability, find the evil players"},
	RoleMordred:  {Name: "Mordred", Team: AlignmentEvil, Desc: "Merlin does not know you are evil"},
	RoleMorgana:  {Name: "Morgana", Team: AlignmentEvil, Desc: "You appear as Merlin"},
	RoleOberon:   {Name: "Oberon", Team: AlignmentEvil, Desc: "The other evil players do not know who you are"},
	RoleAssassin: {Name: "Assassin", Team: AlignmentEvil, Desc: "If good wins, you may assassinate Merlin"},
}

func (r RoleID) Info() RoleInfo { return roleData[r] }

func (r RoleID) Team() Alignment { return roleData[r].Team }

// roleSets is the fixed role multiset per player count.
var roleSets = map[int][]RoleID{
	5:  {RoleMerlin, RolePercival, RoleLoyal, RoleMordred, RoleAssassin},
	6:  {RoleMerlin, RolePercival, RoleLoyal, RoleLoyal, RoleMordred, RoleAssassin},
	7:  {RoleMerlin, RolePercival, RoleLoyal, RoleLoyal, RoleMordred, RoleMorgana, RoleAssassin},
	8:  {RoleMerlin, RolePercival, RoleLoyal, RoleLoyal, RoleLoyal, RoleMordred, RoleMorgana, RoleAssassin},
	9:  {RoleMerlin, RolePercival, RoleLoyal, RoleLoyal, RoleLoyal, RoleMordred, RoleMorgana, RoleOberon, RoleAssassin},
	10: {RoleMerlin, RolePercival, RoleLoyal, RoleLoyal, RoleLoyal, RoleLoyal, RoleMordred, RoleMorgana, RoleOberon, RoleAssassin},
}

// shuffleRoles randomizes how the multiset binds to seats. Package var so
// tests can pin the permutation.
var shuffleRoles = func(roles []RoleID) {
	rand.Shuffle(len(roles), func(i, j int) { roles[i], roles[j] = roles[j], roles[i] })
}

// AssignRoles deals one role to each player. Counts outside 5-10 are an error;
// there is no fallback set.
func AssignRoles(players []Player) (map[string]RoleID, error) {
	set, ok := roleSets[len(players)]
	if !ok {
		return nil, ErrUnsupportedPlayerCount
	}
	dealt := slices.Clone(set)
	shuffleRoles(dealt)

	assigned := make(map[string]RoleID, len(players))
	for i, p := range players {
		assigned[p.ID] = dealt[i]
	}
	return assigned, nil
}
