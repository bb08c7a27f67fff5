package ports

import (
	"context"

	"github.com/btcsuite/btcd/btcutil/psbt"
)

// SigningDevice produces signatures for partially signed transactions. A
// device that has nothing to add returns the packet unchanged.
type SigningDevice interface {
	SignPsbt(ctx context.Context, packet *psbt.Packet) (*psbt.Packet, error)
}
