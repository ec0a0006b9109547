// Command qsim runs a suite of benchmark circuits, compares the simulation
// backends against each other, samples measurement shots, and archives the
// runs in a SQLite database. It prints a CSV summary of the archive.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/pkg/errors"

	"qsim"
	"qsim/gate"
	"qsim/measure"
	"qsim/store"
)

var (
	dbPath = flag.String("db", "runs.db", "run database path")
	shots  = flag.Int("shots", 1000, "measurement shots per circuit")
	seed   = flag.Uint64("seed", 42, "random seed")
)

type benchmark struct {
	name    string
	circuit *qsim.Circuit
}

func benchmarks(rnd *rand.Rand) ([]benchmark, error) {
	bs := []benchmark{{name: "bell", circuit: qsim.BellState()}}

	for _, n := range []int{3, 4, 5} {
		c, err := qsim.GHZState(n)
		if err != nil {
			return nil, errors.Wrap(err, "")
		}
		bs = append(bs, benchmark{name: fmt.Sprintf("ghz%d", n), circuit: c})
	}

	c, err := randomCircuit(rnd, 4, 24)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	bs = append(bs, benchmark{name: "random4", circuit: c})
	return bs, nil
}

// randomCircuit builds a circuit with redundancy for the optimizer to find:
// self-inverse gates repeat and rotations pile up on the same qubits.
func randomCircuit(rnd *rand.Rand, n, gates int) (*qsim.Circuit, error) {
	c, err := qsim.New(n)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	for i := 0; i < gates; i++ {
		var err error
		switch rnd.IntN(4) {
		case 0:
			q := rnd.IntN(n)
			if err = c.H(q); err == nil && rnd.IntN(2) == 0 {
				err = c.H(q)
			}
		case 1:
			q := rnd.IntN(n)
			if err = c.RY(q, rnd.Float64()); err == nil && rnd.IntN(2) == 0 {
				err = c.RY(q, rnd.Float64())
			}
		case 2:
			err = c.RZ(rnd.IntN(n), rnd.Float64()*2*math.Pi)
		default:
			control := rnd.IntN(n)
			target := (control + 1 + rnd.IntN(n-1)) % n
			err = c.CNOT(control, target)
		}
		if err != nil {
			return nil, errors.Wrap(err, "")
		}
	}
	return c, nil
}

// runOne optimizes the circuit, runs it on every backend, checks that the
// backends agree, samples the dense state and archives the run.
func runOne(s *store.Store, b benchmark, rnd *rand.Rand) error {
	optimized, metrics := b.circuit.Optimized()
	log.Printf("%s: %d gates depth %d -> %d gates depth %d",
		b.name, metrics.GatesBefore, metrics.DepthBefore, metrics.GatesAfter, metrics.DepthAfter)

	dense, err := optimized.Run(qsim.Dense)
	if err != nil {
		return errors.Wrap(err, "")
	}
	sparse, err := optimized.Run(qsim.Sparse)
	if err != nil {
		return errors.Wrap(err, "")
	}
	if f := qsim.Fidelity(dense.State, sparse.State); math.Abs(f-1) > 1e-9 {
		return errors.Errorf("%s: dense and sparse disagree, fidelity %v", b.name, f)
	}
	tn, err := optimized.Run(qsim.TensorNetwork)
	if err != nil {
		return errors.Wrap(err, "")
	}
	if f := qsim.Fidelity(dense.State, tn.State); math.Abs(f-1) > 1e-3 {
		return errors.Errorf("%s: tensor network disagrees, fidelity %v", b.name, f)
	}
	if tn.Truncation.Events > 0 {
		log.Printf("%s: %d truncation events, discarded weight %g", b.name, tn.Truncation.Events, tn.Truncation.Discarded)
	}

	counts, err := measure.Sample(dense.State, *shots, rand.NewPCG(rnd.Uint64(), rnd.Uint64()))
	if err != nil {
		return errors.Wrap(err, "")
	}

	doc, err := json.Marshal(optimized)
	if err != nil {
		return errors.Wrap(err, "")
	}
	run := &store.Run{
		Backend:     dense.Backend.String(),
		Qubits:      optimized.Len(),
		Shots:       *shots,
		Circuit:     doc,
		Counts:      counts,
		GatesBefore: metrics.GatesBefore,
		GatesAfter:  metrics.GatesAfter,
	}
	if _, err := s.Save(run); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

func printSummary(s *store.Store) error {
	runs, err := s.List()
	if err != nil {
		return errors.Wrap(err, "")
	}
	fmt.Printf("id,backend,qubits,shots,gates_before,gates_after,top_outcome\n")
	for _, r := range runs {
		outcomes := make([]string, 0, len(r.Counts))
		for o := range r.Counts {
			outcomes = append(outcomes, o)
		}
		sort.Slice(outcomes, func(i, j int) bool {
			if r.Counts[outcomes[i]] != r.Counts[outcomes[j]] {
				return r.Counts[outcomes[i]] > r.Counts[outcomes[j]]
			}
			return outcomes[i] < outcomes[j]
		})
		top := ""
		if len(outcomes) > 0 {
			top = fmt.Sprintf("%s:%d", outcomes[0], r.Counts[outcomes[0]])
		}
		fmt.Printf("%d,%s,%d,%d,%d,%d,%s\n",
			r.ID, r.Backend, r.Qubits, r.Shots, r.GatesBefore, r.GatesAfter, top)
	}
	return nil
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds | log.Llongfile | log.LstdFlags)

	if err := mainWithErr(); err != nil {
		log.Fatalf("%+v", err)
	}
}

func mainWithErr() error {
	s, err := store.Open(*dbPath)
	if err != nil {
		return errors.Wrap(err, "")
	}
	defer s.Close()

	rnd := rand.New(rand.NewPCG(*seed, *seed+1))
	bs, err := benchmarks(rnd)
	if err != nil {
		return errors.Wrap(err, "")
	}
	for _, b := range bs {
		if err := runOne(s, b, rnd); err != nil {
			return errors.Wrap(err, b.name)
		}
		info := b.circuit.Info()
		log.Printf("%s: %d qubits, %d %v gates", b.name, info.Qubits, info.GateCount[gate.CNOT], gate.CNOT)
	}

	return printSummary(s)
}
