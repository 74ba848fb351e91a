package scenario

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/procsim/procsim/sim"
	"github.com/procsim/procsim/sim/locks"
)

type job struct {
	name    string
	arrival sim.Time
	done    *locks.Condition
}

// runProdCons has producers hand tasks to a single consumer.
//
// In activate mode producers append to a shared queue and wake the
// consumer only if it is parked; waking a busy consumer would cut its
// service short. In semaphore mode every task is announced through a
// semaphore and the producer waits on a per-task condition until the
// consumer finishes it.
func runProdCons(env *sim.Environment, cfg *Config, rng *PartitionedRNG, res *Result) error {
	pc := cfg.ProdCons
	service := rng.ForSubsystem(SubsystemConsumer)
	var queue []job

	complete := func(j job, start, end sim.Time) {
		res.Completions = append(res.Completions, Completion{
			Name: j.name, Worker: "consumer", Arrival: j.arrival, Start: start, End: end,
		})
		logrus.Debugf("[t %s] consumer completes %s", end, j.name)
	}

	if pc.Mode == ModeSemaphore {
		sem := locks.NewSemaphore(0)
		sem.Reason = ReasonNewTask
		// the consumer is registered first so it parks on the semaphore
		// before any producer releases it
		sim.Spawn(env, "consumer", func(y *sim.Yielder) error {
			y.Wait(sem.Acquire(y.Self()))
			j := queue[0]
			queue = queue[1:]
			start := y.Now()
			y.Wait(sim.At(start+sim.Time(pc.Service.Draw(service)), ReasonTaskDone))
			complete(j, start, y.Now())
			return j.done.Set()
		}, sim.Forever())

		for i := 0; i < pc.Producers; i++ {
			sim.Spawn(env, fmt.Sprintf("producer_%d", i), func(y *sim.Yielder) error {
				for n := 0; n < pc.Tasks; n++ {
					cond := locks.NewWaitEvent()
					cond.Reason = ReasonTaskDone
					queue = append(queue, job{name: fmt.Sprintf("%s_%d", y.Self().Name(), n), arrival: y.Now(), done: cond})
					res.Counters["produced"]++
					if err := sem.Release(); err != nil {
						return err
					}
					y.Wait(cond.Wait(y.Self()))
				}
				return nil
			})
		}
	} else {
		consumer := sim.Spawn(env, "consumer", func(y *sim.Yielder) error {
			if len(queue) == 0 {
				y.Park()
				return nil
			}
			j := queue[0]
			queue = queue[1:]
			start := y.Now()
			y.Wait(sim.At(start+sim.Time(pc.Service.Draw(service)), ReasonTaskDone))
			complete(j, start, y.Now())
			return nil
		}, sim.Forever())

		for i := 0; i < pc.Producers; i++ {
			interval := rng.ForSubsystem(SubsystemProducer(i))
			sim.Spawn(env, fmt.Sprintf("producer_%d", i), func(y *sim.Yielder) error {
				for n := 0; n < pc.Tasks; n++ {
					queue = append(queue, job{name: fmt.Sprintf("%s_%d", y.Self().Name(), n), arrival: y.Now()})
					res.Counters["produced"]++
					if consumer.IsParked() {
						if err := consumer.Activate(y.Now(), ReasonNewTask); err != nil {
							return err
						}
					}
					y.Wait(sim.At(y.Now()+sim.Time(pc.Interval.Draw(interval)), ReasonNewTask))
				}
				return nil
			})
		}
	}

	if err := env.Run(); err != nil {
		return err
	}
	res.Counters["completed"] = len(res.Completions)
	res.Counters["backlog"] = len(queue)
	return nil
}
