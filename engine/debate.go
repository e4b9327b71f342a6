package engine

// debateOrder is the fixed speaking order inside one round.
var debateOrder = []DebateRole{RoleAdvocate, RoleSkeptic, RoleMediator}

// nodeForRole maps a debate speaker to its pipeline node identity.
var nodeForRole = map[DebateRole]NodeID{
	RoleAdvocate: NodeAdvocate,
	RoleSkeptic:  NodeSkeptic,
	RoleMediator: NodeMediator,
}

// turn is one scheduled debate utterance. Round is 1-based.
type turn struct {
	role  DebateRole
	round int
}

// debateTurns expands a round budget into the full turn schedule.
// A non-positive budget yields no turns: the debate is skipped
// entirely and control passes straight to synthesis.
//
// The exit condition is the round counter alone. Transcript content
// never shortens or extends the schedule.
func debateTurns(rounds int) []turn {
	if rounds <= 0 {
		return nil
	}
	turns := make([]turn, 0, rounds*len(debateOrder))
	for r := 1; r <= rounds; r++ {
		for _, role := range debateOrder {
			turns = append(turns, turn{role: role, round: r})
		}
	}
	return turns
}

// clampRounds resolves a caller-requested round count against the
// configured default and ceiling. A nil request value means "use the
// default"; an explicit zero means "skip the debate".
func clampRounds(requested *int, def, max int) int {
	rounds := def
	if requested != nil {
		rounds = *requested
	}
	if rounds < 0 {
		rounds = 0
	}
	if max > 0 && rounds > max {
		rounds = max
	}
	return rounds
}
