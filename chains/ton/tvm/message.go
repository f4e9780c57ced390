package tvm

import (
	"math/big"

	relayerrors "github.com/ClipFinance/ton-relay-lib/common/errors"
	"github.com/pkg/errors"
	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tlb"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

// StateInit is the code and data a contract is deployed with.
type StateInit = tlb.StateInit

// MessageType is the kind of the message info header.
type MessageType uint8

const (
	MessageInternal MessageType = iota
	MessageExternalIn
	MessageExternalOut
)

// String returns a human readable message type.
func (t MessageType) String() string {
	switch t {
	case MessageInternal:
		return "internal"
	case MessageExternalIn:
		return "external_in"
	case MessageExternalOut:
		return "external_out"
	default:
		return "unknown"
	}
}

// Message is a TON message. Which of the header fields are meaningful depends
// on Type: Value, fees and bounce flags belong to internal messages,
// ImportFee to inbound external ones and the creation time to internal and
// outbound external ones.
type Message struct {
	Type MessageType
	Src  *address.Address
	Dst  *address.Address

	IHRDisabled bool
	Bounce      bool
	Bounced     bool
	Value       *big.Int
	IHRFee      *big.Int
	FwdFee      *big.Int
	ImportFee   *big.Int
	CreatedLt   uint64
	CreatedAt   uint32

	Init *StateInit
	Body *cell.Cell
}

// NewExternalMessage builds an inbound external message without source and
// import fee.
func NewExternalMessage(dst *address.Address, body *cell.Cell) *Message {
	return &Message{
		Type: MessageExternalIn,
		Src:  address.NewAddressNone(),
		Dst:  dst,
		Body: body,
	}
}

// ZeroAddress returns the all-zero standard address of the basechain.
func ZeroAddress() *address.Address {
	return address.NewAddress(0, 0, make([]byte, 32))
}

// ToCell serializes the message. The state init and the body are stored
// inline when they fit next to the header and as references otherwise.
func (m *Message) ToCell() (*cell.Cell, error) {
	src, dst := orNone(m.Src), orNone(m.Dst)

	var msg tlb.AnyMessage
	switch m.Type {
	case MessageInternal:
		msg = &tlb.InternalMessage{
			IHRDisabled: m.IHRDisabled,
			Bounce:      m.Bounce,
			Bounced:     m.Bounced,
			SrcAddr:     src,
			DstAddr:     dst,
			Amount:      coins(m.Value),
			IHRFee:      coins(m.IHRFee),
			FwdFee:      coins(m.FwdFee),
			CreatedLT:   m.CreatedLt,
			CreatedAt:   m.CreatedAt,
			StateInit:   m.Init,
			Body:        m.Body,
		}
	case MessageExternalIn:
		msg = &tlb.ExternalMessage{
			SrcAddr:   src,
			DstAddr:   dst,
			ImportFee: coins(m.ImportFee),
			StateInit: m.Init,
			Body:      m.Body,
		}
	case MessageExternalOut:
		msg = &tlb.ExternalMessageOut{
			SrcAddr:   src,
			DstAddr:   dst,
			CreatedLT: m.CreatedLt,
			CreatedAt: m.CreatedAt,
			StateInit: m.Init,
			Body:      m.Body,
		}
	default:
		return nil, errors.Wrapf(relayerrors.ErrInvalidMessageType, "%d", m.Type)
	}

	c, err := tlb.ToCell(msg)
	if err != nil {
		return nil, errors.Wrap(relayerrors.ErrMessageSerialization, err.Error())
	}
	return c, nil
}

// ParseMessage reads a Message or MessageRelaxed from c. An empty inline body
// is reported as absent.
func ParseMessage(c *cell.Cell) (*Message, error) {
	if c == nil {
		return nil, errors.New("message cell is nil")
	}

	var raw tlb.Message
	if err := raw.LoadFromCell(c.BeginParse()); err != nil {
		return nil, errors.Wrap(err, "failed to load message")
	}

	var m *Message
	switch msg := raw.Msg.(type) {
	case *tlb.InternalMessage:
		m = &Message{
			Type:        MessageInternal,
			Src:         msg.SrcAddr,
			Dst:         msg.DstAddr,
			IHRDisabled: msg.IHRDisabled,
			Bounce:      msg.Bounce,
			Bounced:     msg.Bounced,
			Value:       msg.Amount.Nano(),
			IHRFee:      msg.IHRFee.Nano(),
			FwdFee:      msg.FwdFee.Nano(),
			CreatedLt:   msg.CreatedLT,
			CreatedAt:   msg.CreatedAt,
			Init:        msg.StateInit,
			Body:        msg.Body,
		}
	case *tlb.ExternalMessage:
		m = &Message{
			Type:      MessageExternalIn,
			Src:       msg.SrcAddr,
			Dst:       msg.DstAddr,
			ImportFee: msg.ImportFee.Nano(),
			Init:      msg.StateInit,
			Body:      msg.Body,
		}
	case *tlb.ExternalMessageOut:
		m = &Message{
			Type:      MessageExternalOut,
			Src:       msg.SrcAddr,
			Dst:       msg.DstAddr,
			CreatedLt: msg.CreatedLT,
			CreatedAt: msg.CreatedAt,
			Init:      msg.StateInit,
			Body:      msg.Body,
		}
	default:
		return nil, errors.Wrapf(relayerrors.ErrInvalidMessageType, "%T", raw.Msg)
	}

	if m.Body != nil && m.Body.BitsSize() == 0 && m.Body.RefsNum() == 0 {
		m.Body = nil
	}
	return m, nil
}

func orNone(addr *address.Address) *address.Address {
	if addr == nil {
		return address.NewAddressNone()
	}
	return addr
}

func coins(amount *big.Int) tlb.Coins {
	if amount == nil {
		return tlb.ZeroCoins
	}
	return tlb.FromNanoTON(amount)
}
