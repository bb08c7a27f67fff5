package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/revault/revault-gui/internal/core/application"
	"github.com/revault/revault-gui/internal/core/domain"
)

const defaultWidth = 80

func (model Model) View() string {
	sections := []string{model.renderHeader()}

	if warning := model.list.Warning(); warning != nil {
		sections = append(sections, model.renderWarning(warning))
	}

	if selected := model.list.Selected(); selected != nil {
		sections = append(sections, model.renderVault(selected))
	} else {
		sections = append(sections, model.renderList())
	}

	separator := lipgloss.NewStyle().
		Foreground(model.theme.BorderColor).
		Render(strings.Repeat("─", model.contentWidth()))
	sections = append(sections, separator, model.renderHelp())

	return strings.Join(sections, "\n")
}

func (model Model) contentWidth() int {
	if model.width <= 0 {
		return defaultWidth
	}
	return model.width
}

func (model Model) renderHeader() string {
	title := lipgloss.NewStyle().
		Foreground(model.theme.HeaderForeground).
		Bold(true).
		Render("Revault")

	info, ok := model.list.Info()
	if !ok {
		return title
	}

	sync := "synced"
	if !info.IsSynced() {
		sync = fmt.Sprintf("syncing %.0f%%", info.Sync*100)
	}
	meta := lipgloss.NewStyle().
		Foreground(model.theme.FaintText).
		Render(fmt.Sprintf(
			"  %s  block %d  %s  revaultd %s",
			info.Network, info.BlockHeight, sync, info.Version,
		))
	return title + meta
}

func (model Model) renderWarning(err error) string {
	return lipgloss.NewStyle().
		Foreground(model.theme.Warning).
		Render("! " + err.Error())
}

func (model Model) renderList() string {
	vaults := model.list.Vaults()
	if len(vaults) == 0 {
		text := "No vaults"
		if model.list.Loading() {
			text = "Loading..."
		}
		return lipgloss.NewStyle().Foreground(model.theme.FaintText).Render(text)
	}

	lines := make([]string, 0, len(vaults))
	for index, vault := range vaults {
		line := fmt.Sprintf(
			"%-24s %-26s %s",
			model.converter.Format(vault.Amount),
			lipgloss.NewStyle().
				Foreground(model.theme.StatusColor(vault.Status)).
				Render(vault.Status.String()),
			vault.Outpoint,
		)
		if index == model.cursor {
			line = lipgloss.NewStyle().
				Background(model.theme.SelectedBackground).
				Foreground(model.theme.SelectedForeground).
				Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (model Model) renderVault(selected *application.Vault) string {
	vault := selected.Vault()

	title := selected.Title()
	if title == "" {
		title = "Vault"
	}
	lines := []string{
		lipgloss.NewStyle().
			Foreground(model.theme.HeaderForeground).
			Bold(true).
			Render(title),
		fmt.Sprintf(
			"%s  %s",
			model.converter.Format(vault.Amount),
			lipgloss.NewStyle().
				Foreground(model.theme.StatusColor(vault.Status)).
				Render(vault.Status.String()),
		),
		lipgloss.NewStyle().Foreground(model.theme.FaintText).
			Render(vault.Outpoint.String()),
		"",
	}
	if warning := selected.Warning(); warning != nil {
		lines = append(lines, model.renderWarning(warning))
	}

	switch section := selected.Section().(type) {
	case *application.UnloadedSection:
		lines = append(lines, model.faint("Loading..."))
	case *application.OnchainTransactionsSection:
		lines = append(lines, model.renderTransactions(section.Txs())...)
	case *application.DelegateSection:
		lines = append(lines, renderSigner(model, section.Signer())...)
		switch {
		case section.Delegated():
			lines = append(lines, model.success("Vault delegated to the managers"))
		case section.Processing():
			lines = append(lines, model.faint("Submitting the unvault transaction..."))
		}
		if warning := section.Warning(); warning != nil {
			lines = append(lines, model.renderWarning(warning))
		}
	case *application.SecureSection:
		lines = append(lines, renderSigner(model, section.Signer())...)
		if section.Secured() {
			lines = append(lines, model.success("Vault secured"))
		}
		if warning := section.Warning(); warning != nil {
			lines = append(lines, model.renderWarning(warning))
		}
	case *application.RevaultSection:
		switch {
		case section.Success():
			lines = append(lines, model.success("Cancel transaction broadcast"))
		case section.Processing():
			lines = append(lines, model.faint("Broadcasting the cancel transaction..."))
		default:
			lines = append(lines, "Cancel the unvault and send the funds back to a vault? (y)")
		}
		if warning := section.Warning(); warning != nil {
			lines = append(lines, model.renderWarning(warning))
		}
	}
	return strings.Join(lines, "\n")
}

func (model Model) renderTransactions(txs domain.VaultTransactions) []string {
	rows := []struct {
		name string
		tx   *domain.WalletTransaction
	}{
		{"deposit", txs.Deposit},
		{"unvault", txs.Unvault},
		{"cancel", txs.Cancel},
		{"emergency", txs.Emergency},
		{"unvault emergency", txs.UnvaultEmergency},
		{"spend", txs.Spend},
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		if row.tx == nil || row.tx.Tx == nil {
			continue
		}
		state := "unconfirmed"
		if row.tx.IsConfirmed() {
			state = fmt.Sprintf("block %d", *row.tx.BlockHeight)
		}
		lines = append(lines, fmt.Sprintf(
			"%-18s %s %s", row.name, row.tx.Tx.TxHash(), model.faint(state),
		))
	}
	return lines
}

// renderSigner lists the transactions of the signing target with their
// signature state.
func renderSigner[T application.Target](
	model Model, signer *application.Signer[T],
) []string {
	target := signer.Target()
	lines := make([]string, 0, target.Len()+2)
	for index := 0; index < target.Len(); index++ {
		mark := model.faint("[ ]")
		if signer.IsSigned(index) {
			mark = model.success("[x]")
		}
		lines = append(lines, fmt.Sprintf("%s %s", mark, target.Name(index)))
	}
	if signer.Processing() {
		lines = append(lines, model.faint("Waiting for the signing device..."))
	}
	if err := signer.Err(); err != nil {
		lines = append(lines, model.renderWarning(err))
	}
	return lines
}

func (model Model) renderHelp() string {
	var bindings []key.Binding
	if selected := model.list.Selected(); selected != nil {
		vault := selected.Vault()
		bindings = append(bindings, model.keys.Back, model.keys.History)
		if canDelegate(vault) {
			bindings = append(bindings, model.keys.Delegate)
		}
		if canSecure(vault) {
			bindings = append(bindings, model.keys.Secure)
		}
		if canRevault(vault) {
			bindings = append(bindings, model.keys.Revault)
		}
		switch selected.Section().(type) {
		case *application.DelegateSection, *application.SecureSection:
			bindings = append(bindings, model.keys.Sign)
		case *application.RevaultSection:
			bindings = append(bindings, model.keys.Confirm)
		}
	} else {
		bindings = append(bindings, model.keys.Up, model.keys.Down, model.keys.Open)
	}
	bindings = append(bindings, model.keys.Refresh, model.keys.Quit)

	hints := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		help := binding.Help()
		hints = append(hints, help.Key+" "+help.Desc)
	}
	return lipgloss.NewStyle().
		Foreground(model.theme.HelpText).
		Render(" " + strings.Join(hints, "  "))
}

func (model Model) faint(text string) string {
	return lipgloss.NewStyle().Foreground(model.theme.FaintText).Render(text)
}

func (model Model) success(text string) string {
	return lipgloss.NewStyle().Foreground(model.theme.Success).Render(text)
}
