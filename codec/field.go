package codec

import (
	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/zkfl/zkptoolkit/crypto/pedersen"
	"github.com/zkfl/zkptoolkit/crypto/zkerr"
)

func encodeElement(e *fr.Element) []byte {
	b := e.Bytes()
	return b[:]
}

func decodeElement(b []byte) (fr.Element, error) {
	e, err := pedersen.ScalarFromBytes(b)
	if err != nil {
		return e, zkerr.Encoding(err, "element")
	}

	return e, nil
}

func encodeElements(v []fr.Element) [][]byte {
	out := make([][]byte, len(v))
	for i := range v {
		out[i] = encodeElement(&v[i])
	}

	return out
}

func decodeElements(v [][]byte) ([]fr.Element, error) {
	out := make([]fr.Element, len(v))
	for i := range v {
		e, err := decodeElement(v[i])
		if err != nil {
			return nil, err
		}

		out[i] = e
	}

	return out, nil
}

func encodePoint(p *bn254.G1Affine) []byte {
	b := p.Bytes()
	return b[:]
}

func decodePoint(b []byte) (bn254.G1Affine, error) {
	p, err := pedersen.PointFromBytes(b)
	if err != nil {
		return p, zkerr.Encoding(err, "point")
	}

	return p, nil
}

func encodePoints(v []bn254.G1Affine) [][]byte {
	out := make([][]byte, len(v))
	for i := range v {
		out[i] = encodePoint(&v[i])
	}

	return out
}

func decodePoints(v [][]byte) ([]bn254.G1Affine, error) {
	out := make([]bn254.G1Affine, len(v))
	for i := range v {
		p, err := decodePoint(v[i])
		if err != nil {
			return nil, err
		}

		out[i] = p
	}

	return out, nil
}

// EncodePublicInstance concatenates the 32 byte encodings of x.
func EncodePublicInstance(x []fr.Element) []byte {
	out := make([]byte, 0, len(x)*fr.Bytes)
	for i := range x {
		out = append(out, encodeElement(&x[i])...)
	}

	return out
}

func DecodePublicInstance(b []byte) ([]fr.Element, error) {
	if len(b)%fr.Bytes != 0 {
		return nil, zkerr.Encoding(nil, "decode public instance: length")
	}

	out := make([]fr.Element, len(b)/fr.Bytes)
	for i := range out {
		e, err := decodeElement(b[i*fr.Bytes : (i+1)*fr.Bytes])
		if err != nil {
			return nil, err
		}

		out[i] = e
	}

	return out, nil
}
