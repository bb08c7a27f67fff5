package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// VaultStatus is the lifecycle state of a vault as reported by revaultd.
type VaultStatus int

const (
	VaultStatusUnconfirmed VaultStatus = iota
	VaultStatusFunded
	VaultStatusSecuring
	VaultStatusSecured
	VaultStatusActivating
	VaultStatusActive
	VaultStatusUnvaulting
	VaultStatusUnvaulted
	VaultStatusCanceling
	VaultStatusCanceled
	VaultStatusEmergencyVaulting
	VaultStatusEmergencyVaulted
	VaultStatusUnvaultEmergencyVaulting
	VaultStatusUnvaultEmergencyVaulted
	VaultStatusSpending
	VaultStatusSpent
)

var vaultStatusNames = map[VaultStatus]string{
	VaultStatusUnconfirmed:              "unconfirmed",
	VaultStatusFunded:                   "funded",
	VaultStatusSecuring:                 "securing",
	VaultStatusSecured:                  "secured",
	VaultStatusActivating:               "activating",
	VaultStatusActive:                   "active",
	VaultStatusUnvaulting:               "unvaulting",
	VaultStatusUnvaulted:                "unvaulted",
	VaultStatusCanceling:                "canceling",
	VaultStatusCanceled:                 "canceled",
	VaultStatusEmergencyVaulting:        "emergencyvaulting",
	VaultStatusEmergencyVaulted:         "emergencyvaulted",
	VaultStatusUnvaultEmergencyVaulting: "unvaultemergencyvaulting",
	VaultStatusUnvaultEmergencyVaulted:  "unvaultemergencyvaulted",
	VaultStatusSpending:                 "spending",
	VaultStatusSpent:                    "spent",
}

func (s VaultStatus) String() string {
	if name, ok := vaultStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(s))
}

// ParseVaultStatus returns the status matching the revaultd name.
func ParseVaultStatus(name string) (VaultStatus, error) {
	for status, n := range vaultStatusNames {
		if n == strings.ToLower(name) {
			return status, nil
		}
	}
	return 0, ErrUnknownVaultStatus
}

// Outpoint identifies a vault by its deposit transaction output.
type Outpoint struct {
	Txid chainhash.Hash
	Vout uint32
}

// ParseOutpoint parses the txid:vout notation used by revaultd.
func ParseOutpoint(s string) (Outpoint, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return Outpoint{}, ErrInvalidOutpoint
	}
	txid, err := chainhash.NewHashFromStr(parts[0])
	if err != nil {
		return Outpoint{}, fmt.Errorf("%w: %s", ErrInvalidOutpoint, err)
	}
	vout, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return Outpoint{}, fmt.Errorf("%w: %s", ErrInvalidOutpoint, err)
	}
	return Outpoint{*txid, uint32(vout)}, nil
}

func (o Outpoint) String() string {
	return fmt.Sprintf("%s:%d", o.Txid, o.Vout)
}

// Vault is the local copy of a vault owned by revaultd.
type Vault struct {
	Outpoint        Outpoint
	Status          VaultStatus
	Amount          btcutil.Amount
	Address         string
	DerivationIndex uint32
	BlockHeight     int32
	ReceivedAt      int64
	UpdatedAt       int64
}

// IsDeposit returns whether the vault is still a plain deposit, not yet
// secured by revocation transactions.
func (v Vault) IsDeposit() bool {
	return v.Status == VaultStatusUnconfirmed || v.Status == VaultStatusFunded
}
