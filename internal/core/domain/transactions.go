package domain

import (
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/wire"
)

// WalletTransaction is a transaction of the vault lifecycle as seen by the
// daemon's wallet.
type WalletTransaction struct {
	Tx          *wire.MsgTx
	BlockHeight *int32
	ReceivedAt  int64
	BlockTime   *int64
}

// IsConfirmed ...
func (t *WalletTransaction) IsConfirmed() bool {
	return t != nil && t.BlockHeight != nil
}

// VaultTransactions is the onchain history of a single vault.
type VaultTransactions struct {
	Outpoint         Outpoint
	Deposit          *WalletTransaction
	Unvault          *WalletTransaction
	Cancel           *WalletTransaction
	Emergency        *WalletTransaction
	UnvaultEmergency *WalletTransaction
	Spend            *WalletTransaction
}

// NewVaultTransactions ...
func NewVaultTransactions(
	outpoint Outpoint, deposit *WalletTransaction,
) (VaultTransactions, error) {
	if deposit == nil || deposit.Tx == nil {
		return VaultTransactions{}, ErrMissingDepositTx
	}
	return VaultTransactions{Outpoint: outpoint, Deposit: deposit}, nil
}

// All returns the known transactions in lifecycle order.
func (t VaultTransactions) All() []*WalletTransaction {
	txs := make([]*WalletTransaction, 0, 6)
	for _, tx := range []*WalletTransaction{
		t.Deposit, t.Unvault, t.Cancel, t.Emergency, t.UnvaultEmergency, t.Spend,
	} {
		if tx != nil {
			txs = append(txs, tx)
		}
	}
	return txs
}

// LastBroadcastedTx returns the most recently received transaction, the
// deposit when nothing else was broadcast.
func (t VaultTransactions) LastBroadcastedTx() *WalletTransaction {
	last := t.Deposit
	for _, tx := range t.All() {
		if last == nil || tx.ReceivedAt > last.ReceivedAt {
			last = tx
		}
	}
	return last
}

// UnvaultTransaction is the unvault template a stakeholder signs to delegate
// the vault to the managers.
type UnvaultTransaction struct {
	UnvaultTx *psbt.Packet
}

// RevocationTransactions are the three templates a stakeholder signs to
// secure a deposit.
type RevocationTransactions struct {
	CancelTx           *psbt.Packet
	EmergencyTx        *psbt.Packet
	EmergencyUnvaultTx *psbt.Packet
}

// DaemonInfo ...
type DaemonInfo struct {
	Version           string
	Network           string
	BlockHeight       int32
	Sync              float64
	Vaults            int
	ManagersThreshold int
}

// IsSynced ...
func (i DaemonInfo) IsSynced() bool {
	return i.Sync >= 1
}
