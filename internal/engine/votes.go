package engine

import "slices"

const (
	VoteApprove = "approve"
	VoteReject  = "reject"

	ActionSuccess = "success"
	ActionFail    = "fail"
)

type Ballot struct {
	PlayerID string
	Value    string
}

// BallotBox accumulates one round of ballots. Aggregation is count-based, so
// arrival order never changes the outcome.
type BallotBox struct {
	Ballots []Ballot
}

func (b BallotBox) Has(playerID string) bool {
	return slices.ContainsFunc(b.Ballots, func(bl Ballot) bool { return bl.PlayerID == playerID })
}

func (b BallotBox) Submit(ballot Ballot) (BallotBox, error) {
	if b.Has(ballot.PlayerID) {
		return b, ErrDuplicateBallot
	}
	b.Ballots = append(slices.Clone(b.Ballots), ballot)
	return b, nil
}

// Without discards a departed voter's ballot so counts stay consistent with
// the shrunken electorate.
func (b BallotBox) Without(playerID string) BallotBox {
	b.Ballots = slices.DeleteFunc(slices.Clone(b.Ballots), func(bl Ballot) bool {
		return bl.PlayerID == playerID
	})
	return b
}

func (b BallotBox) Complete(expected int) bool {
	return len(b.Ballots) >= expected
}

type TeamResult struct {
	Approves int
	Rejects  int
	Approved bool
}

// TeamResult resolves a team-approval round: strict majority, a tie rejects.
func (b BallotBox) TeamResult() TeamResult {
	res := TeamResult{}
	for _, bl := range b.Ballots {
		if bl.Value == VoteApprove {
			res.Approves++
		} else {
			res.Rejects++
		}
	}
	res.Approved = res.Approves > res.Rejects
	return res
}

type MissionResult struct {
	Fails   int
	Success bool
}

// MissionResult resolves a mission round: any single fail fails the mission,
// regardless of mission number or team size.
func (b BallotBox) MissionResult() MissionResult {
	res := MissionResult{}
	for _, bl := range b.Ballots {
		if bl.Value == ActionFail {
			res.Fails++
		}
	}
	res.Success = res.Fails == 0
	return res
}
