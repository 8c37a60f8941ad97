package codec

import (
	"github.com/pkg/errors"
	"github.com/zkfl/zkptoolkit/crypto/aggregate"
	"github.com/zkfl/zkptoolkit/crypto/folding"
	"github.com/zkfl/zkptoolkit/crypto/zkerr"
)

type instanceBody struct {
	_     struct{} `cbor:",toarray"`
	CommW []byte
	CommE []byte
	U     []byte
	X     [][]byte
}

type freshBody struct {
	_     struct{} `cbor:",toarray"`
	CommW []byte
	X     [][]byte
}

type witnessBody struct {
	_  struct{} `cbor:",toarray"`
	W  [][]byte
	RW []byte
	E  [][]byte
	RE []byte
}

type foldBody struct {
	_         struct{} `cbor:",toarray"`
	Quotients [][]byte
}

// claimBody leaves Prior and StepFold empty for the first step.
type claimBody struct {
	_           struct{} `cbor:",toarray"`
	Step        uint64
	Fresh       freshBody
	Prior       []instanceBody
	StepFold    []foldBody
	Accumulator instanceBody
	Random      instanceBody
	DeciderFold foldBody
}

type statementBody struct {
	_       struct{} `cbor:",toarray"`
	Shape   shapeBody
	Claim   claimBody
	Opening witnessBody
}

type aggregateBody struct {
	_       struct{} `cbor:",toarray"`
	Count   uint64
	Shape   shapeBody
	Claims  []claimBody
	Chunks  []foldBody
	Final   instanceBody
	Opening witnessBody
}

func EncodeStatementProof(p *folding.StatementProof) ([]byte, error) {
	if p == nil || p.Shape == nil || p.Claim == nil || p.Opening == nil {
		return nil, errors.New("encode statement proof: incomplete proof")
	}

	claim, err := encodeClaim(p.Claim)
	if err != nil {
		return nil, errors.Wrap(err, "encode statement proof")
	}

	out, err := seal(KindStatementProof, statementBody{
		Shape:   encodeShape(p.Shape),
		Claim:   claim,
		Opening: encodeWitness(p.Opening),
	})
	return out, errors.Wrap(err, "encode statement proof")
}

func DecodeStatementProof(b []byte) (*folding.StatementProof, error) {
	var body statementBody
	if err := open(KindStatementProof, b, &body); err != nil {
		return nil, errors.Wrap(err, "decode statement proof")
	}

	shape, err := decodeShape(body.Shape)
	if err != nil {
		return nil, errors.Wrap(err, "decode statement proof")
	}

	claim, err := decodeClaim(body.Claim)
	if err != nil {
		return nil, errors.Wrap(err, "decode statement proof")
	}

	opening, err := decodeWitness(body.Opening)
	if err != nil {
		return nil, errors.Wrap(err, "decode statement proof")
	}

	return &folding.StatementProof{
		Shape:   shape,
		Claim:   claim,
		Opening: opening,
	}, nil
}

func EncodeAggregateProof(a *aggregate.AggregateProof) ([]byte, error) {
	if a == nil || a.Shape == nil || a.Final == nil || a.Opening == nil {
		return nil, errors.New("encode aggregate proof: incomplete proof")
	}

	body := aggregateBody{
		Count:   a.Count,
		Shape:   encodeShape(a.Shape),
		Claims:  make([]claimBody, len(a.Claims)),
		Chunks:  make([]foldBody, len(a.Chunks)),
		Final:   encodeInstance(a.Final),
		Opening: encodeWitness(a.Opening),
	}

	for i, c := range a.Claims {
		claim, err := encodeClaim(c)
		if err != nil {
			return nil, errors.Wrapf(err, "encode aggregate proof: claim %d", i)
		}

		body.Claims[i] = claim
	}

	for i, c := range a.Chunks {
		if c == nil {
			return nil, errors.Errorf("encode aggregate proof: chunk %d missing", i)
		}

		body.Chunks[i] = encodeFold(c)
	}

	out, err := seal(KindAggregateProof, body)
	return out, errors.Wrap(err, "encode aggregate proof")
}

func DecodeAggregateProof(b []byte) (*aggregate.AggregateProof, error) {
	var body aggregateBody
	if err := open(KindAggregateProof, b, &body); err != nil {
		return nil, errors.Wrap(err, "decode aggregate proof")
	}

	if body.Count == 0 || body.Count != uint64(len(body.Claims)) {
		return nil, zkerr.Encoding(nil, "decode aggregate proof: count")
	}

	shape, err := decodeShape(body.Shape)
	if err != nil {
		return nil, errors.Wrap(err, "decode aggregate proof")
	}

	a := &aggregate.AggregateProof{
		Count:  body.Count,
		Shape:  shape,
		Claims: make([]*folding.StatementClaim, len(body.Claims)),
		Chunks: make([]*folding.FoldProof, len(body.Chunks)),
	}

	for i, c := range body.Claims {
		a.Claims[i], err = decodeClaim(c)
		if err != nil {
			return nil, errors.Wrapf(err, "decode aggregate proof: claim %d", i)
		}
	}

	for i, c := range body.Chunks {
		a.Chunks[i], err = decodeFold(c)
		if err != nil {
			return nil, errors.Wrapf(err, "decode aggregate proof: chunk %d", i)
		}
	}

	if a.Final, err = decodeInstance(body.Final); err != nil {
		return nil, errors.Wrap(err, "decode aggregate proof")
	}

	if a.Opening, err = decodeWitness(body.Opening); err != nil {
		return nil, errors.Wrap(err, "decode aggregate proof")
	}

	return a, nil
}

func encodeClaim(c *folding.StatementClaim) (claimBody, error) {
	if c == nil || c.Fresh == nil || c.Accumulator == nil ||
		c.Random == nil || c.DeciderFold == nil {
		return claimBody{}, errors.New("incomplete claim")
	}

	body := claimBody{
		Step: c.Step,
		Fresh: freshBody{
			CommW: encodePoint(&c.Fresh.CommW),
			X:     encodeElements(c.Fresh.X),
		},
		Prior:       []instanceBody{},
		StepFold:    []foldBody{},
		Accumulator: encodeInstance(c.Accumulator),
		Random:      encodeInstance(c.Random),
		DeciderFold: encodeFold(c.DeciderFold),
	}

	if c.Prior != nil {
		body.Prior = []instanceBody{encodeInstance(c.Prior)}
	}

	if c.StepFold != nil {
		body.StepFold = []foldBody{encodeFold(c.StepFold)}
	}

	return body, nil
}

func decodeClaim(body claimBody) (*folding.StatementClaim, error) {
	if len(body.Prior) > 1 || len(body.StepFold) > 1 {
		return nil, zkerr.Encoding(nil, "claim: optional field repeated")
	}

	commW, err := decodePoint(body.Fresh.CommW)
	if err != nil {
		return nil, errors.Wrap(err, "claim")
	}

	x, err := decodeElements(body.Fresh.X)
	if err != nil {
		return nil, errors.Wrap(err, "claim")
	}

	c := &folding.StatementClaim{
		Step:  body.Step,
		Fresh: &folding.FreshInstance{CommW: commW, X: x},
	}

	if len(body.Prior) == 1 {
		if c.Prior, err = decodeInstance(body.Prior[0]); err != nil {
			return nil, errors.Wrap(err, "claim")
		}
	}

	if len(body.StepFold) == 1 {
		if c.StepFold, err = decodeFold(body.StepFold[0]); err != nil {
			return nil, errors.Wrap(err, "claim")
		}
	}

	if c.Accumulator, err = decodeInstance(body.Accumulator); err != nil {
		return nil, errors.Wrap(err, "claim")
	}

	if c.Random, err = decodeInstance(body.Random); err != nil {
		return nil, errors.Wrap(err, "claim")
	}

	if c.DeciderFold, err = decodeFold(body.DeciderFold); err != nil {
		return nil, errors.Wrap(err, "claim")
	}

	return c, nil
}

func encodeInstance(i *folding.Instance) instanceBody {
	return instanceBody{
		CommW: encodePoint(&i.CommW),
		CommE: encodePoint(&i.CommE),
		U:     encodeElement(&i.U),
		X:     encodeElements(i.X),
	}
}

func decodeInstance(body instanceBody) (*folding.Instance, error) {
	commW, err := decodePoint(body.CommW)
	if err != nil {
		return nil, err
	}

	commE, err := decodePoint(body.CommE)
	if err != nil {
		return nil, err
	}

	u, err := decodeElement(body.U)
	if err != nil {
		return nil, err
	}

	x, err := decodeElements(body.X)
	if err != nil {
		return nil, err
	}

	return &folding.Instance{CommW: commW, CommE: commE, U: u, X: x}, nil
}

func encodeWitness(w *folding.Witness) witnessBody {
	return witnessBody{
		W:  encodeElements(w.W),
		RW: encodeElement(&w.RW),
		E:  encodeElements(w.E),
		RE: encodeElement(&w.RE),
	}
}

func decodeWitness(body witnessBody) (*folding.Witness, error) {
	w, err := decodeElements(body.W)
	if err != nil {
		return nil, errors.Wrap(err, "witness")
	}

	rW, err := decodeElement(body.RW)
	if err != nil {
		return nil, errors.Wrap(err, "witness")
	}

	e, err := decodeElements(body.E)
	if err != nil {
		return nil, errors.Wrap(err, "witness")
	}

	rE, err := decodeElement(body.RE)
	if err != nil {
		return nil, errors.Wrap(err, "witness")
	}

	return &folding.Witness{W: w, RW: rW, E: e, RE: rE}, nil
}

func encodeFold(f *folding.FoldProof) foldBody {
	return foldBody{Quotients: encodePoints(f.Quotients)}
}

func decodeFold(body foldBody) (*folding.FoldProof, error) {
	q, err := decodePoints(body.Quotients)
	if err != nil {
		return nil, errors.Wrap(err, "fold")
	}

	return &folding.FoldProof{Quotients: q}, nil
}
