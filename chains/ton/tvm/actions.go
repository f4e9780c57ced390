package tvm

import (
	"math/big"

	relayerrors "github.com/ClipFinance/ton-relay-lib/common/errors"
	"github.com/pkg/errors"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

const (
	tagSendMsg       = 0x0ec3c86d
	tagSetCode       = 0xad4de08e
	tagReserve       = 0x36e6b809
	tagChangeLibrary = 0x26fa1dd4

	// maxActions is the TVM limit on the length of the output action list.
	maxActions = 255
)

// OutAction is an entry of the output action list. The set of
// implementations is closed.
type OutAction interface {
	isOutAction()
}

type (
	SendMsgAction struct {
		Mode    uint8
		Message *Message
	}

	SetCodeAction struct {
		Code *cell.Cell
	}

	// ReserveCurrencyAction reserves Amount nanotons. Extra currencies are
	// kept as the raw dictionary root.
	ReserveCurrencyAction struct {
		Mode   uint8
		Amount *big.Int
		Extra  *cell.Cell
	}

	// ChangeLibraryAction references a library either by Hash or by its Library cell.
	ChangeLibraryAction struct {
		Mode    uint8
		Hash    []byte
		Library *cell.Cell
	}
)

func (SendMsgAction) isOutAction()         {}
func (SetCodeAction) isOutAction()         {}
func (ReserveCurrencyAction) isOutAction() {}
func (ChangeLibraryAction) isOutAction()   {}

// ParseOutActions walks the OutList stored in c5 and returns the actions in
// the order they were produced. The list itself links every action to the
// previous one, so its root is the newest action.
func ParseOutActions(c *cell.Cell) ([]OutAction, error) {
	var actions []OutAction
	for c != nil && (c.BitsSize() > 0 || c.RefsNum() > 0) {
		if len(actions) == maxActions {
			return nil, errors.Wrap(relayerrors.ErrInvalidActions, "too many actions")
		}
		s := c.BeginParse()
		prev, err := s.LoadRefCell()
		if err != nil {
			return nil, errors.Wrap(relayerrors.ErrInvalidActions, "failed to load previous action")
		}
		action, err := loadOutAction(s)
		if err != nil {
			return nil, errors.Wrap(relayerrors.ErrInvalidActions, err.Error())
		}
		if s.BitsLeft() != 0 || s.RefsNum() != 0 {
			return nil, errors.Wrap(relayerrors.ErrInvalidActions, "trailing data after action")
		}
		actions = append(actions, action)
		c = prev
	}

	for i, j := 0, len(actions)-1; i < j; i, j = i+1, j-1 {
		actions[i], actions[j] = actions[j], actions[i]
	}
	return actions, nil
}

func loadOutAction(s *cell.Slice) (OutAction, error) {
	tag, err := s.LoadUInt(32)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load action tag")
	}

	switch tag {
	case tagSendMsg:
		mode, err := s.LoadUInt(8)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load send mode")
		}
		ref, err := s.LoadRefCell()
		if err != nil {
			return nil, errors.Wrap(err, "failed to load message")
		}
		msg, err := ParseMessage(ref)
		if err != nil {
			return nil, err
		}
		return SendMsgAction{Mode: uint8(mode), Message: msg}, nil
	case tagSetCode:
		code, err := s.LoadRefCell()
		if err != nil {
			return nil, errors.Wrap(err, "failed to load code")
		}
		return SetCodeAction{Code: code}, nil
	case tagReserve:
		mode, err := s.LoadUInt(8)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load reserve mode")
		}
		amount, err := s.LoadBigCoins()
		if err != nil {
			return nil, errors.Wrap(err, "failed to load reserve amount")
		}
		extra, err := loadMaybeRef(s)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load extra currencies")
		}
		return ReserveCurrencyAction{Mode: uint8(mode), Amount: amount, Extra: extra}, nil
	case tagChangeLibrary:
		mode, err := s.LoadUInt(7)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load library mode")
		}
		byRef, err := s.LoadBoolBit()
		if err != nil {
			return nil, errors.Wrap(err, "failed to load library reference")
		}
		action := ChangeLibraryAction{Mode: uint8(mode)}
		if byRef {
			action.Library, err = s.LoadRefCell()
		} else {
			action.Hash, err = s.LoadSlice(256)
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to load library reference")
		}
		return action, nil
	default:
		return nil, errors.Errorf("unknown action tag 0x%08x", tag)
	}
}

// BuildOutActions serializes actions into an OutList, the first action
// ending up deepest in the list.
func BuildOutActions(actions []OutAction) (*cell.Cell, error) {
	list := cell.BeginCell().EndCell()
	for _, action := range actions {
		b := cell.BeginCell()
		if err := b.StoreRef(list); err != nil {
			return nil, err
		}
		if err := storeOutAction(b, action); err != nil {
			return nil, err
		}
		list = b.EndCell()
	}
	return list, nil
}

func storeOutAction(b *cell.Builder, action OutAction) error {
	switch a := action.(type) {
	case SendMsgAction:
		msg, err := a.Message.ToCell()
		if err != nil {
			return err
		}
		if err := b.StoreUInt(tagSendMsg, 32); err != nil {
			return err
		}
		if err := b.StoreUInt(uint64(a.Mode), 8); err != nil {
			return err
		}
		return b.StoreRef(msg)
	case SetCodeAction:
		if err := b.StoreUInt(tagSetCode, 32); err != nil {
			return err
		}
		return b.StoreRef(a.Code)
	case ReserveCurrencyAction:
		if err := b.StoreUInt(tagReserve, 32); err != nil {
			return err
		}
		if err := b.StoreUInt(uint64(a.Mode), 8); err != nil {
			return err
		}
		if err := storeGrams(b, a.Amount); err != nil {
			return err
		}
		return b.StoreMaybeRef(a.Extra)
	case ChangeLibraryAction:
		if err := b.StoreUInt(tagChangeLibrary, 32); err != nil {
			return err
		}
		if err := b.StoreUInt(uint64(a.Mode), 7); err != nil {
			return err
		}
		if a.Library != nil {
			if err := b.StoreBoolBit(true); err != nil {
				return err
			}
			return b.StoreRef(a.Library)
		}
		if len(a.Hash) != 32 {
			return errors.New("library hash must be 32 bytes")
		}
		if err := b.StoreBoolBit(false); err != nil {
			return err
		}
		return b.StoreSlice(a.Hash, 256)
	default:
		return errors.Errorf("unsupported action %T", action)
	}
}

func loadMaybeRef(s *cell.Slice) (*cell.Cell, error) {
	present, err := s.LoadBoolBit()
	if err != nil || !present {
		return nil, err
	}
	return s.LoadRefCell()
}

func storeGrams(b *cell.Builder, amount *big.Int) error {
	if amount == nil {
		amount = new(big.Int)
	}
	return b.StoreBigCoins(amount)
}
