package scenario

import (
	"fmt"

	"github.com/procsim/procsim/sim"
)

// runTokenRing passes a token around a ring of parked players for a number
// of rounds. The token holder wakes each player with an activation at time
// -1, which the registry clamps to the current time. The token waits at
// sim.PriorityMax so a woken player always runs before the next pass, even
// when the pass takes no time.
func runTokenRing(env *sim.Environment, cfg *Config, rng *PartitionedRNG, res *Result) error {
	tr := cfg.TokenRing
	players := make([]*sim.Handle, tr.Players)
	for i := range players {
		players[i] = sim.Spawn(env, fmt.Sprintf("player_%d", i), func(y *sim.Yielder) error {
			w := y.Park()
			res.Counters[y.Self().Name()]++
			res.Completions = append(res.Completions, Completion{
				Name:    fmt.Sprintf("token_%d", len(res.Completions)),
				Worker:  y.Self().Name(),
				Arrival: w.Time,
				Start:   w.Time,
				End:     w.Time,
			})
			return nil
		}, sim.Forever())
	}

	draws := rng.ForSubsystem(SubsystemToken)
	sim.Spawn(env, "token", func(y *sim.Yielder) error {
		for round := 0; round < tr.Rounds; round++ {
			for _, p := range players {
				y.Wait(sim.At(y.Now()+sim.Time(tr.Pass.Draw(draws)), sim.PriorityMax))
				if err := p.Activate(-1, ReasonToken); err != nil {
					return err
				}
				res.Counters["passes"]++
			}
		}
		return nil
	})
	return env.Run()
}
