package codec

import (
	"github.com/pkg/errors"
	"github.com/zkfl/zkptoolkit/crypto/r1cs"
	"github.com/zkfl/zkptoolkit/crypto/zkerr"
)

type traceBody struct {
	_       struct{} `cbor:",toarray"`
	Public  [][]byte
	Private [][]byte
	Gates   []gateBody
}

type gateBody struct {
	_     struct{} `cbor:",toarray"`
	Op    uint8
	Left  uint32
	Right uint32
	Out   uint32
	Const []byte
}

// EncodeTrace produces the computation data accepted by statement proving.
func EncodeTrace(t *r1cs.ComputationTrace) ([]byte, error) {
	body := traceBody{
		Public:  encodeElements(t.Public),
		Private: encodeElements(t.Private),
		Gates:   make([]gateBody, len(t.Gates)),
	}

	for i, g := range t.Gates {
		body.Gates[i] = gateBody{
			Op:    uint8(g.Op),
			Left:  g.Left,
			Right: g.Right,
			Out:   g.Out,
			Const: encodeElement(&g.Const),
		}
	}

	out, err := seal(KindTrace, body)
	return out, errors.Wrap(err, "encode trace")
}

func DecodeTrace(b []byte) (*r1cs.ComputationTrace, error) {
	var body traceBody
	if err := open(KindTrace, b, &body); err != nil {
		return nil, errors.Wrap(err, "decode trace")
	}

	public, err := decodeElements(body.Public)
	if err != nil {
		return nil, errors.Wrap(err, "decode trace")
	}

	private, err := decodeElements(body.Private)
	if err != nil {
		return nil, errors.Wrap(err, "decode trace")
	}

	if len(body.Gates) == 0 {
		return nil, zkerr.Encoding(nil, "decode trace: no gates")
	}

	t := &r1cs.ComputationTrace{
		Public:  public,
		Private: private,
		Gates:   make([]r1cs.Gate, len(body.Gates)),
	}

	for i, g := range body.Gates {
		op := r1cs.GateOp(g.Op)
		if op < r1cs.GateAdd || op > r1cs.GateAssertEqual {
			return nil, zkerr.Encoding(nil, "decode trace: unknown gate "+op.String())
		}

		c, err := decodeElement(g.Const)
		if err != nil {
			return nil, errors.Wrap(err, "decode trace")
		}

		t.Gates[i] = r1cs.Gate{
			Op:    op,
			Left:  g.Left,
			Right: g.Right,
			Out:   g.Out,
			Const: c,
		}
	}

	return t, nil
}
