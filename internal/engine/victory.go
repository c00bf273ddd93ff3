package engine

type Outcome int

const (
	OutcomeContinue Outcome = iota
	OutcomeGoodVictory
	OutcomeEvilVictory
)

// Evaluate decides the game from the mission history: three successes win for
// good, three failures for evil. Results accumulate one at a time, so at most
// one threshold can trip per call.
func Evaluate(missionResults []bool) Outcome {
	successes, fails := 0, 0
	for _, r := range missionResults {
		if r {
			successes++
		} else {
			fails++
		}
	}
	if successes >= 3 {
		return OutcomeGoodVictory
	}
	if fails >= 3 {
		return OutcomeEvilVictory
	}
	return OutcomeContinue
}
