package contract

import (
	"math/big"

	"github.com/ClipFinance/ton-relay-lib/chains/ton/abi"
	relayerrors "github.com/ClipFinance/ton-relay-lib/common/errors"
	"github.com/ClipFinance/ton-relay-lib/common/types"
	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

// field binds one output parameter of the accessor to a field of T.
type field[T any] struct {
	param  abi.Param
	decode func(abi.Value, *T) error
	encode func(*T) (abi.Value, error)
}

func params[T any](fields []field[T]) []abi.Param {
	out := make([]abi.Param, len(fields))
	for i, f := range fields {
		out[i] = f.param
	}
	return out
}

// decodeFields fills dst from tokens. The number of tokens must match the
// table exactly.
func decodeFields[T any](fields []field[T], tokens []abi.Token, dst *T) error {
	if len(tokens) != len(fields) {
		return relayerrors.ErrInvalidAbi
	}
	for i, f := range fields {
		if err := f.decode(tokens[i].Value, dst); err != nil {
			return relayerrors.ErrInvalidAbi
		}
	}
	return nil
}

func encodeFields[T any](fields []field[T], src *T) ([]abi.Token, error) {
	tokens := make([]abi.Token, len(fields))
	for i, f := range fields {
		v, err := f.encode(src)
		if err != nil {
			return nil, err
		}
		tokens[i] = abi.Token{Name: f.param.Name, Value: v}
	}
	return tokens, nil
}

type initField = field[types.EventInitData]

type detailsField = field[types.EventDetails]

func eventTransactionField() initField {
	return initField{
		param: abi.Param{Name: "eventTransaction", Type: abi.Uint(256)},
		decode: func(v abi.Value, d *types.EventInitData) (err error) {
			d.EventTransaction, err = parseUint256(v)
			return err
		},
		encode: func(d *types.EventInitData) (abi.Value, error) {
			n := new(big.Int)
			if d.EventTransaction != nil {
				n = d.EventTransaction.ToBig()
			}
			return abi.UintValue{Size: 256, Number: n}, nil
		},
	}
}

func eventTransactionLtField() initField {
	return initField{
		param: abi.Param{Name: "eventTransactionLt", Type: abi.Uint(64)},
		decode: func(v abi.Value, d *types.EventInitData) (err error) {
			d.EventTransactionLt, err = parseUint(v, 64)
			return err
		},
		encode: func(d *types.EventInitData) (abi.Value, error) {
			return abi.NewUint(64, d.EventTransactionLt), nil
		},
	}
}

func eventTimestampField() initField {
	return initField{
		param: abi.Param{Name: "eventTimestamp", Type: abi.Uint(32)},
		decode: func(v abi.Value, d *types.EventInitData) error {
			n, err := parseUint(v, 32)
			d.EventTimestamp = uint32(n)
			return err
		},
		encode: func(d *types.EventInitData) (abi.Value, error) {
			return abi.NewUint(32, uint64(d.EventTimestamp)), nil
		},
	}
}

func eventIndexField() initField {
	return initField{
		param: abi.Param{Name: "eventIndex", Type: abi.Uint(32)},
		decode: func(v abi.Value, d *types.EventInitData) error {
			n, err := parseUint(v, 32)
			d.EventIndex = uint32(n)
			return err
		},
		encode: func(d *types.EventInitData) (abi.Value, error) {
			return abi.NewUint(32, uint64(d.EventIndex)), nil
		},
	}
}

func cellField(name string, get func(*types.EventInitData) **cell.Cell) initField {
	return initField{
		param: abi.Param{Name: name, Type: abi.Cell()},
		decode: func(v abi.Value, d *types.EventInitData) (err error) {
			*get(d), err = parseCell(v)
			return err
		},
		encode: func(d *types.EventInitData) (abi.Value, error) {
			return abi.CellValue{Cell: *get(d)}, nil
		},
	}
}

func configurationField(name string) initField {
	return initField{
		param: abi.Param{Name: name, Type: abi.Address()},
		decode: func(v abi.Value, d *types.EventInitData) (err error) {
			d.Configuration, err = parseAddress(v)
			return err
		},
		encode: func(d *types.EventInitData) (abi.Value, error) {
			return abi.AddressValue{Address: d.Configuration}, nil
		},
	}
}

// thresholdField reads a vote threshold declared as a bits-wide integer.
func thresholdField(name string, bits int, get func(*types.EventInitData) **big.Int) initField {
	return initField{
		param: abi.Param{Name: name, Type: abi.Uint(bits)},
		decode: func(v abi.Value, d *types.EventInitData) error {
			n, err := parseBigUint(v)
			if err != nil {
				return err
			}
			if n.BitLen() > bits {
				return relayerrors.ErrInvalidAbi
			}
			*get(d) = n
			return nil
		},
		encode: func(d *types.EventInitData) (abi.Value, error) {
			n := *get(d)
			if n == nil {
				n = new(big.Int)
			}
			return abi.UintValue{Size: bits, Number: n}, nil
		},
	}
}

func confirmations(d *types.EventInitData) **big.Int { return &d.RequiredConfirmations }
func rejections(d *types.EventInitData) **big.Int    { return &d.RequiredRejections }
func eventData(d *types.EventInitData) **cell.Cell   { return &d.EventData }
func configurationMeta(d *types.EventInitData) **cell.Cell {
	return &d.ConfigurationMeta
}

var initFieldsV1 = []initField{
	eventTransactionField(),
	eventTransactionLtField(),
	eventIndexField(),
	cellField("eventData", eventData),
	configurationField("tonEventConfiguration"),
	thresholdField("requiredConfirmations", 256, confirmations),
	thresholdField("requiredRejects", 256, rejections),
}

var initFieldsV2 = []initField{
	eventTransactionField(),
	eventTransactionLtField(),
	eventTimestampField(),
	eventIndexField(),
	cellField("eventData", eventData),
	configurationField("configuration"),
	thresholdField("requiredConfirmations", 16, confirmations),
	thresholdField("requiredRejects", 16, rejections),
	cellField("configurationMeta", configurationMeta),
}

func detailsFields(init []initField) []detailsField {
	return []detailsField{
		{
			param: abi.Param{Name: "_initData", Type: abi.Tuple(params(init)...)},
			decode: func(v abi.Value, d *types.EventDetails) error {
				tokens, err := parseTuple(v)
				if err != nil {
					return err
				}
				return decodeFields(init, tokens, &d.InitData)
			},
			encode: func(d *types.EventDetails) (abi.Value, error) {
				tokens, err := encodeFields(init, &d.InitData)
				if err != nil {
					return nil, err
				}
				return abi.TupleValue(tokens), nil
			},
		},
		{
			param: abi.Param{Name: "_status", Type: abi.Uint(8)},
			decode: func(v abi.Value, d *types.EventDetails) error {
				code, err := parseUint(v, 8)
				if err != nil {
					return err
				}
				d.Status, err = types.ParseEventStatus(uint8(code))
				return err
			},
			encode: func(d *types.EventDetails) (abi.Value, error) {
				code, err := d.Status.Code()
				if err != nil {
					return nil, err
				}
				return abi.NewUint(8, uint64(code)), nil
			},
		},
		addressesField("_confirmRelays", func(d *types.EventDetails) *[]*address.Address { return &d.Confirms }),
		addressesField("_rejectRelays", func(d *types.EventDetails) *[]*address.Address { return &d.Rejections }),
		{
			param: abi.Param{Name: "_eventDataSignatures", Type: abi.Array(abi.Bytes())},
			decode: func(v abi.Value, d *types.EventDetails) (err error) {
				d.Signatures, err = parseBytesList(v)
				return err
			},
			encode: func(d *types.EventDetails) (abi.Value, error) {
				items := make([]abi.Value, len(d.Signatures))
				for i, s := range d.Signatures {
					items[i] = abi.BytesValue(s)
				}
				return abi.ArrayValue{Elem: abi.Bytes(), Items: items}, nil
			},
		},
	}
}

func addressesField(name string, get func(*types.EventDetails) *[]*address.Address) detailsField {
	return detailsField{
		param: abi.Param{Name: name, Type: abi.Array(abi.Address())},
		decode: func(v abi.Value, d *types.EventDetails) (err error) {
			*get(d), err = parseAddresses(v)
			return err
		},
		encode: func(d *types.EventDetails) (abi.Value, error) {
			addrs := *get(d)
			items := make([]abi.Value, len(addrs))
			for i, addr := range addrs {
				items[i] = abi.AddressValue{Address: addr}
			}
			return abi.ArrayValue{Elem: abi.Address(), Items: items}, nil
		},
	}
}
