package store

import (
	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
)

var recordEncMode cbor.EncMode

func init() {
	var err error
	recordEncMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
}

func marshalRecord(v any) ([]byte, error) {
	data, err := recordEncMode.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(errors.Wrap(err, ErrInvalidData.Error()), "marshal record")
	}

	return data, nil
}

func unmarshalRecord(data []byte, v any) error {
	if err := cbor.Unmarshal(data, v); err != nil {
		return errors.Wrap(errors.Wrap(err, ErrInvalidData.Error()), "unmarshal record")
	}

	return nil
}
