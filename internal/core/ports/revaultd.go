package ports

import (
	"context"

	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/revault/revault-gui/internal/core/domain"
)

// RevaultD is the client of the revaultd daemon. Every call concerns at most
// the vault named by the outpoint and fails with a *DaemonError.
type RevaultD interface {
	GetInfo(ctx context.Context) (domain.DaemonInfo, error)
	ListVaults(
		ctx context.Context,
		statuses []domain.VaultStatus, outpoints []domain.Outpoint,
	) ([]domain.Vault, error)
	ListOnchainTransactions(
		ctx context.Context, outpoint domain.Outpoint,
	) (domain.VaultTransactions, error)
	GetUnvaultTx(
		ctx context.Context, outpoint domain.Outpoint,
	) (domain.UnvaultTransaction, error)
	GetRevocationTxs(
		ctx context.Context, outpoint domain.Outpoint,
	) (domain.RevocationTransactions, error)
	SetUnvaultTx(
		ctx context.Context, outpoint domain.Outpoint, unvaultTx *psbt.Packet,
	) error
	SetRevocationTxs(
		ctx context.Context, outpoint domain.Outpoint,
		emergencyTx, emergencyUnvaultTx, cancelTx *psbt.Packet,
	) error
	Revault(ctx context.Context, outpoint domain.Outpoint) error
}
