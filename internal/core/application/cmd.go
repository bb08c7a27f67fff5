package application

import (
	"context"
	"time"

	"github.com/btcsuite/btcd/btcutil/psbt"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/revault/revault-gui/internal/core/domain"
	"github.com/revault/revault-gui/internal/core/ports"
)

// Env holds the handles shared by every vault controller. The daemon client
// is safe for concurrent use, so a single Env serves all open vaults.
type Env struct {
	RevaultD       ports.RevaultD
	Device         ports.SigningDevice
	CallTimeout    time.Duration
	SigningTimeout time.Duration
}

func (e *Env) callContext() (context.Context, context.CancelFunc) {
	if e.CallTimeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), e.CallTimeout)
}

func (e *Env) getInfo() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := e.callContext()
		defer cancel()
		info, err := e.RevaultD.GetInfo(ctx)
		return InfoLoadedMsg{info, err}
	}
}

func (e *Env) listVaults() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := e.callContext()
		defer cancel()
		vaults, err := e.RevaultD.ListVaults(ctx, nil, nil)
		return VaultsLoadedMsg{vaults, err}
	}
}

func (e *Env) getOnchainTxs(outpoint domain.Outpoint) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := e.callContext()
		defer cancel()
		txs, err := e.RevaultD.ListOnchainTransactions(ctx, outpoint)
		return OnchainTransactionsMsg{txs, err}
	}
}

func (e *Env) getUnvaultTx(outpoint domain.Outpoint) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := e.callContext()
		defer cancel()
		tx, err := e.RevaultD.GetUnvaultTx(ctx, outpoint)
		return UnvaultTransactionMsg{tx, err}
	}
}

func (e *Env) getRevocationTxs(outpoint domain.Outpoint) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := e.callContext()
		defer cancel()
		txs, err := e.RevaultD.GetRevocationTxs(ctx, outpoint)
		return RevocationTransactionsMsg{txs, err}
	}
}

func (e *Env) setUnvaultTx(
	outpoint domain.Outpoint, unvaultTx *psbt.Packet,
) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := e.callContext()
		defer cancel()
		err := e.RevaultD.SetUnvaultTx(ctx, outpoint, unvaultTx)
		return DelegatedMsg{err}
	}
}

func (e *Env) setRevocationTxs(
	outpoint domain.Outpoint,
	emergencyTx, emergencyUnvaultTx, cancelTx *psbt.Packet,
) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := e.callContext()
		defer cancel()
		err := e.RevaultD.SetRevocationTxs(
			ctx, outpoint, emergencyTx, emergencyUnvaultTx, cancelTx,
		)
		return SecuredMsg{err}
	}
}

func (e *Env) revault(outpoint domain.Outpoint) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := e.callContext()
		defer cancel()
		err := e.RevaultD.Revault(ctx, outpoint)
		return RevaultedMsg{err}
	}
}
