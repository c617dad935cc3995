package game

// VoteAbstain is the target id recorded for an explicit skip. Abstentions
// count toward "everyone voted" but never toward a tally.
const VoteAbstain = ""

// VoteLedger records at most one target per voter for the current day-voting
// phase. It is cleared when a new voting phase opens.
type VoteLedger struct {
	votes map[string]string // voter id -> target id, VoteAbstain for a skip
}

func NewVoteLedger() *VoteLedger {
	return &VoteLedger{votes: make(map[string]string)}
}

// RegisterVote records the voter's choice, overwriting any earlier vote from
// the same voter. Last vote wins.
func (l *VoteLedger) RegisterVote(voterID, targetID string) {
	l.votes[voterID] = targetID
}

// PlayerVote returns the voter's current choice and whether one exists.
func (l *VoteLedger) PlayerVote(voterID string) (string, bool) {
	t, ok := l.votes[voterID]
	return t, ok
}

func (l *VoteLedger) Reset() {
	l.votes = make(map[string]string)
}

// HaveAllVoted reports whether every living player in the registry has a
// ledger entry, abstentions included.
func (l *VoteLedger) HaveAllVoted(reg *Registry) bool {
	for _, p := range reg.Living() {
		if _, ok := l.votes[p.ID]; !ok {
			return false
		}
	}
	return true
}

// CountVotes tallies the non-abstaining votes of living voters.
// No such votes: ("", false) — nobody is eliminated and there is no tie.
// A shared maximum: ("", true) — tie, nobody dies.
// Otherwise the sole maximum-count target id is returned.
func (l *VoteLedger) CountVotes(reg *Registry) (eliminatedID string, tie bool) {
	counts := make(map[string]int)
	for voterID, targetID := range l.votes {
		voter := reg.FindByID(voterID)
		if voter == nil || !voter.IsAlive {
			// Stale entry from a dead or removed player.
			continue
		}
		if targetID == VoteAbstain {
			continue
		}
		counts[targetID]++
	}
	if len(counts) == 0 {
		return "", false
	}

	max := 0
	for _, n := range counts {
		if n > max {
			max = n
		}
	}
	top := make([]string, 0, 1)
	for id, n := range counts {
		if n == max {
			top = append(top, id)
		}
	}
	if len(top) > 1 {
		return "", true
	}
	return top[0], false
}
