// Package optimizer rewrites gate sequences into equivalent shorter ones.
//
// Two rewrite rules are applied until no more fire: adjacent self-inverse
// pairs on the same qubits cancel, and adjacent rotations of the same kind
// on the same qubit merge by summing their angles. Two gates count as
// adjacent when every gate between them acts on disjoint qubits, so the
// rules never reorder gates that share a qubit. Rewriting preserves the
// circuit's unitary up to a global phase.
package optimizer

import (
	"math"

	"qsim/gate"
)

// angleTol is the threshold below which a merged rotation angle counts as
// the identity and the gate is dropped.
const angleTol = 1e-10

// Metrics reports what a rewrite achieved.
type Metrics struct {
	GatesBefore int
	GatesAfter  int
	DepthBefore int
	DepthAfter  int
	// ReductionByKind counts removed gates per kind.
	ReductionByKind map[gate.Kind]int
}

// Optimize rewrites the sequence to a fixpoint and returns the result with
// reduction metrics. The input slice is not modified, and optimizing an
// already optimized sequence returns it unchanged.
func Optimize(gates []gate.Gate) ([]gate.Gate, Metrics) {
	metrics := Metrics{
		GatesBefore:     len(gates),
		DepthBefore:     Depth(gates),
		ReductionByKind: make(map[gate.Kind]int),
	}

	gs := append([]gate.Gate(nil), gates...)
	for {
		changed := false
		for i := 0; i < len(gs) && !changed; i++ {
			j := combinable(gs, i)
			if j < 0 {
				continue
			}
			switch {
			case gate.Rotation(gs[i].Kind):
				gs, changed = merge(gs, i, j, &metrics)
			default:
				metrics.ReductionByKind[gs[i].Kind] += 2
				gs = append(gs[:j:j], gs[j+1:]...)
				gs = append(gs[:i:i], gs[i+1:]...)
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	metrics.GatesAfter = len(gs)
	metrics.DepthAfter = Depth(gs)
	return gs, metrics
}

// combinable returns the index of the first gate after i that combines with
// gate i, or -1. The first later gate sharing a qubit with gate i either
// combines with it or blocks the search; gates on disjoint qubits are
// skipped over.
func combinable(gs []gate.Gate, i int) int {
	gi := gs[i]
	for j := i + 1; j < len(gs); j++ {
		gj := gs[j]
		if disjoint(gi.Qubits, gj.Qubits) {
			continue
		}
		if gj.Kind == gi.Kind && sameQubits(gi.Qubits, gj.Qubits) &&
			(gate.Rotation(gi.Kind) || gate.SelfInverse(gi.Kind)) {
			return j
		}
		return -1
	}
	return -1
}

// merge replaces rotations i and j with one rotation carrying the summed
// angle, or drops both when the sum is the identity.
func merge(gs []gate.Gate, i, j int, metrics *Metrics) ([]gate.Gate, bool) {
	theta := normalizeAngle(gs[i].Theta + gs[j].Theta)
	gs = append(gs[:j:j], gs[j+1:]...)
	if math.Abs(theta) < angleTol {
		metrics.ReductionByKind[gs[i].Kind] += 2
		return append(gs[:i:i], gs[i+1:]...), true
	}
	metrics.ReductionByKind[gs[i].Kind]++
	gs[i].Theta = theta
	return gs, true
}

// normalizeAngle wraps an angle into (-pi, pi].
func normalizeAngle(theta float64) float64 {
	theta = math.Mod(theta, 2*math.Pi)
	switch {
	case theta > math.Pi:
		theta -= 2 * math.Pi
	case theta <= -math.Pi:
		theta += 2 * math.Pi
	}
	return theta
}

func disjoint(a, b []int) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return false
			}
		}
	}
	return true
}

func sameQubits(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Depth is the length of the longest chain of gates linked by shared
// qubits, the number of layers of a schedule that runs disjoint gates in
// parallel.
func Depth(gates []gate.Gate) int {
	layers := map[int]int{}
	depth := 0
	for _, g := range gates {
		d := 0
		for _, q := range g.Qubits {
			if layers[q] > d {
				d = layers[q]
			}
		}
		d++
		for _, q := range g.Qubits {
			layers[q] = d
		}
		if d > depth {
			depth = d
		}
	}
	return depth
}

// CountByKind tallies the gates per kind.
func CountByKind(gates []gate.Gate) map[gate.Kind]int {
	counts := make(map[gate.Kind]int)
	for _, g := range gates {
		counts[g.Kind]++
	}
	return counts
}
