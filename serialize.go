package qsim

import (
	"encoding/json"

	"github.com/pkg/errors"

	"qsim/gate"
)

// The JSON form of a circuit is
//
//	{"n_qubits": 2, "gates": [
//	  {"gate": "H", "qubits": [0]},
//	  {"gate": "RY", "qubits": [1], "params": {"theta": 0.5}}]}
//
// Parametric gates carry their angle under the gate's parameter name.
type circuitDoc struct {
	NQubits int       `json:"n_qubits"`
	Gates   []gateDoc `json:"gates"`
}

type gateDoc struct {
	Gate   string             `json:"gate"`
	Qubits []int              `json:"qubits"`
	Params map[string]float64 `json:"params,omitempty"`
}

// MarshalJSON serializes the circuit's qubit count and gate history.
// Resource limits are not part of the wire form.
func (c *Circuit) MarshalJSON() ([]byte, error) {
	doc := circuitDoc{NQubits: c.n, Gates: make([]gateDoc, 0, len(c.gates))}
	for _, g := range c.gates {
		gd := gateDoc{Gate: g.Kind.String(), Qubits: g.Qubits}
		if gate.Parametric(g.Kind) {
			gd.Params = map[string]float64{gate.ParamName(g.Kind): g.Theta}
		}
		doc.Gates = append(doc.Gates, gd)
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	return b, nil
}

// UnmarshalJSON rebuilds a circuit through the same validation as Append,
// so a malformed document is rejected, not deferred to execution. The
// receiver's config is kept; a zero receiver gets DefaultConfig.
func (c *Circuit) UnmarshalJSON(b []byte) error {
	var doc circuitDoc
	if err := json.Unmarshal(b, &doc); err != nil {
		return errors.Wrap(err, "")
	}

	cfg := c.cfg
	if cfg == (Config{}) {
		cfg = DefaultConfig()
	}
	parsed, err := New(doc.NQubits, cfg)
	if err != nil {
		return errors.Wrap(err, "")
	}
	for i, gd := range doc.Gates {
		kind, err := gate.ParseKind(gd.Gate)
		if err != nil {
			return errors.Wrapf(err, "gate %d", i)
		}
		var theta []float64
		if gate.Parametric(kind) {
			v, ok := gd.Params[gate.ParamName(kind)]
			if !ok {
				return errors.Wrapf(gate.ErrParameter, "gate %d %v missing %q", i, kind, gate.ParamName(kind))
			}
			theta = []float64{v}
		}
		if err := parsed.Append(kind, gd.Qubits, theta...); err != nil {
			return errors.Wrapf(err, "gate %d", i)
		}
	}

	*c = *parsed
	return nil
}
