package application_test

import (
	"context"

	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/revault/revault-gui/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

// **** RevaultD ****

type mockRevaultD struct {
	mock.Mock
}

func (m *mockRevaultD) GetInfo(ctx context.Context) (domain.DaemonInfo, error) {
	args := m.Called(ctx)

	var res domain.DaemonInfo
	if a := args.Get(0); a != nil {
		res = a.(domain.DaemonInfo)
	}
	return res, args.Error(1)
}

func (m *mockRevaultD) ListVaults(
	ctx context.Context,
	statuses []domain.VaultStatus,
	outpoints []domain.Outpoint,
) ([]domain.Vault, error) {
	args := m.Called(ctx, statuses, outpoints)

	var res []domain.Vault
	if a := args.Get(0); a != nil {
		res = a.([]domain.Vault)
	}
	return res, args.Error(1)
}

func (m *mockRevaultD) ListOnchainTransactions(
	ctx context.Context,
	outpoint domain.Outpoint,
) (domain.VaultTransactions, error) {
	args := m.Called(ctx, outpoint)

	var res domain.VaultTransactions
	if a := args.Get(0); a != nil {
		res = a.(domain.VaultTransactions)
	}
	return res, args.Error(1)
}

func (m *mockRevaultD) GetUnvaultTx(
	ctx context.Context,
	outpoint domain.Outpoint,
) (domain.UnvaultTransaction, error) {
	args := m.Called(ctx, outpoint)

	var res domain.UnvaultTransaction
	if a := args.Get(0); a != nil {
		res = a.(domain.UnvaultTransaction)
	}
	return res, args.Error(1)
}

func (m *mockRevaultD) GetRevocationTxs(
	ctx context.Context,
	outpoint domain.Outpoint,
) (domain.RevocationTransactions, error) {
	args := m.Called(ctx, outpoint)

	var res domain.RevocationTransactions
	if a := args.Get(0); a != nil {
		res = a.(domain.RevocationTransactions)
	}
	return res, args.Error(1)
}

func (m *mockRevaultD) SetUnvaultTx(
	ctx context.Context,
	outpoint domain.Outpoint,
	unvaultTx *psbt.Packet,
) error {
	args := m.Called(ctx, outpoint, unvaultTx)
	return args.Error(0)
}

func (m *mockRevaultD) SetRevocationTxs(
	ctx context.Context,
	outpoint domain.Outpoint,
	emergencyTx, emergencyUnvaultTx, cancelTx *psbt.Packet,
) error {
	args := m.Called(ctx, outpoint, emergencyTx, emergencyUnvaultTx, cancelTx)
	return args.Error(0)
}

func (m *mockRevaultD) Revault(
	ctx context.Context,
	outpoint domain.Outpoint,
) error {
	args := m.Called(ctx, outpoint)
	return args.Error(0)
}

// **** Signing device ****

type mockSigningDevice struct {
	mock.Mock
}

func (m *mockSigningDevice) SignPsbt(
	ctx context.Context,
	packet *psbt.Packet,
) (*psbt.Packet, error) {
	args := m.Called(ctx, packet)

	var res *psbt.Packet
	if a := args.Get(0); a != nil {
		res = a.(*psbt.Packet)
	}
	return res, args.Error(1)
}
