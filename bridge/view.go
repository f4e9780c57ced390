package bridge

import (
	"encoding/base64"
	"math/big"
	"strconv"

	"github.com/ClipFinance/ton-relay-lib/common/types"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

// InitDataView is the textual form of types.EventInitData.
type InitDataView struct {
	EventTransaction      string `json:"eventTransaction"`
	EventTransactionLt    string `json:"eventTransactionLt"`
	EventTimestamp        string `json:"eventTimestamp,omitempty"`
	EventIndex            string `json:"eventIndex"`
	EventData             string `json:"eventData"`
	Configuration         string `json:"configuration"`
	RequiredConfirmations string `json:"requiredConfirmations"`
	RequiredRejects       string `json:"requiredRejects"`
	ConfigurationMeta     string `json:"configurationMeta,omitempty"`
}

// DetailsView is the textual form of types.EventDetails: cells as base64
// BOC, addresses in raw form, byte strings as 0x hex and integers as
// decimal strings.
type DetailsView struct {
	Version    string       `json:"version"`
	InitData   InitDataView `json:"initData"`
	Status     string       `json:"status"`
	Confirms   []string     `json:"confirms"`
	Rejections []string     `json:"rejections"`
	Signatures []string     `json:"signatures"`
}

// NewDetailsView converts event details into their textual form.
//
// Parameters:
// - details: the event details.
//
// Returns:
// - *DetailsView: the textual form.
// - error: an error if details are missing.
func NewDetailsView(details *types.EventDetails) (*DetailsView, error) {
	if details == nil {
		return nil, errors.New("event details are required")
	}

	initData := details.InitData
	view := &DetailsView{
		Version: details.Version.String(),
		InitData: InitDataView{
			EventTransactionLt:    strconv.FormatUint(initData.EventTransactionLt, 10),
			EventIndex:            strconv.FormatUint(uint64(initData.EventIndex), 10),
			EventData:             cellText(initData.EventData),
			Configuration:         addressText(initData.Configuration),
			RequiredConfirmations: decimal(initData.RequiredConfirmations),
			RequiredRejects:       decimal(initData.RequiredRejections),
		},
		Status:     string(details.Status),
		Confirms:   addressesText(details.Confirms),
		Rejections: addressesText(details.Rejections),
		Signatures: make([]string, len(details.Signatures)),
	}

	if initData.EventTransaction != nil {
		view.InitData.EventTransaction = initData.EventTransaction.Dec()
	} else {
		view.InitData.EventTransaction = "0"
	}
	if details.Version == types.SchemaV2 {
		view.InitData.EventTimestamp = strconv.FormatUint(uint64(initData.EventTimestamp), 10)
		view.InitData.ConfigurationMeta = cellText(initData.ConfigurationMeta)
	}
	for i, signature := range details.Signatures {
		view.Signatures[i] = hexutil.Encode(signature)
	}

	return view, nil
}

func cellText(c *cell.Cell) string {
	if c == nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(c.ToBOC())
}

func addressText(addr *address.Address) string {
	if addr == nil {
		return ""
	}
	return types.RawAddress(addr)
}

func addressesText(addrs []*address.Address) []string {
	out := make([]string, len(addrs))
	for i, addr := range addrs {
		out[i] = addressText(addr)
	}
	return out
}

func decimal(n *big.Int) string {
	if n == nil {
		return "0"
	}
	return n.String()
}
