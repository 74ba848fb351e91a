package scenario

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/procsim/procsim/sim"
	"github.com/procsim/procsim/sim/locks"
)

// runPingPong has players take turns holding a lock (the ball) for a random
// time. It never quiesces and needs a horizon.
//
// Counters: "handoffs" is the number of grants, "max_holders" the most
// players ever inside the critical section at once.
func runPingPong(env *sim.Environment, cfg *Config, rng *PartitionedRNG, res *Result) error {
	ball := locks.NewLock()
	holders := 0

	for i := 0; i < cfg.PingPong.Players; i++ {
		draws := rng.ForSubsystem(SubsystemPlayer(i))
		sim.Spawn(env, fmt.Sprintf("player_%d", i), func(y *sim.Yielder) error {
			self := y.Self()
			y.Wait(ball.Acquire(self))
			holders++
			res.Counters["handoffs"]++
			res.Counters["max_holders"] = max(res.Counters["max_holders"], holders)
			logrus.Debugf("[t %s] %s catches the ball", y.Now(), self.Name())

			start := y.Now()
			y.Sleep(sim.Time(cfg.PingPong.Hold.Draw(draws)))
			holders--
			res.Completions = append(res.Completions, Completion{
				Name:    fmt.Sprintf("hold_%d", res.Counters["handoffs"]),
				Worker:  self.Name(),
				Arrival: start,
				Start:   start,
				End:     y.Now(),
			})
			return ball.Release(self)
		}, sim.Forever())
	}
	return env.Run()
}
