package codec

import (
	"github.com/pkg/errors"
	"github.com/zkfl/zkptoolkit/crypto/curves"
	"github.com/zkfl/zkptoolkit/crypto/identity"
	"github.com/zkfl/zkptoolkit/crypto/zkerr"
)

type keyPairBody struct {
	_         struct{} `cbor:",toarray"`
	Curve     uint8
	SecretKey []byte
	PublicKey []byte
}

func EncodeKeyPair(k *identity.KeyPair) ([]byte, error) {
	out, err := seal(KindKeyPair, keyPairBody{
		Curve:     uint8(k.Curve.ID()),
		SecretKey: k.SecretKey,
		PublicKey: k.PublicKey,
	})
	return out, errors.Wrap(err, "encode key pair")
}

// DecodeKeyPair decodes and validates a key pair.
func DecodeKeyPair(b []byte) (*identity.KeyPair, error) {
	var body keyPairBody
	if err := open(KindKeyPair, b, &body); err != nil {
		return nil, errors.Wrap(err, "decode key pair")
	}

	curve, err := curves.ByID(curves.CurveID(body.Curve))
	if err != nil {
		return nil, zkerr.Encoding(err, "decode key pair")
	}

	k := &identity.KeyPair{
		Curve:     curve,
		SecretKey: body.SecretKey,
		PublicKey: body.PublicKey,
	}

	if err := k.Validate(); err != nil {
		return nil, errors.Wrap(err, "decode key pair")
	}

	return k, nil
}
