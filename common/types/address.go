package types

import (
	"fmt"

	"github.com/xssnick/tonutils-go/address"
)

// RawAddress formats a standard TON address as "workchain:hex", the form
// accepted by address.ParseRawAddr. A nil address yields an empty string.
func RawAddress(addr *address.Address) string {
	if addr == nil {
		return ""
	}
	return fmt.Sprintf("%d:%x", addr.Workchain(), addr.Data())
}
