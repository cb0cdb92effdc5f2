package app

import (
	"context"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	actionOnChain   = "onchain"
	actionExchange  = "exchange"
	actionCombined  = "combined"
	actionBalances  = "refresh-balances"
	actionCostBasis = "refresh-costbasis"
	actionExit      = "exit"
)

var (
	menuTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"})

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#C53030", Dark: "#FF5F5F"})
)

// RunMenu drives the interactive session until the user exits or ctx is
// cancelled.
func RunMenu(ctx context.Context, c *Controller, logger *zap.Logger) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var choice string
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title(menuTitleStyle.Render("CRYPTOFOLIO")).
					Description(fmt.Sprintf("state: %s", c.State())).
					Options(
						huh.NewOption("1. Show on-chain report", actionOnChain),
						huh.NewOption("2. Show exchange report", actionExchange),
						huh.NewOption("3. Show combined report", actionCombined),
						huh.NewOption("4. Refresh balances", actionBalances),
						huh.NewOption("5. Refresh cost-basis sheet", actionCostBasis),
						huh.NewOption("6. Exit", actionExit),
					).
					Value(&choice),
			),
		)
		if err := form.Run(); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil
			}
			return errors.Wrap(err, "menu")
		}

		var err error
		switch choice {
		case actionOnChain:
			err = c.ReportOnChain(ctx)
		case actionExchange:
			err = c.ReportExchange(ctx)
		case actionCombined:
			err = c.ReportCombined(ctx)
		case actionBalances:
			c.RefreshBalances(ctx)
		case actionCostBasis:
			err = c.RefreshCostBasis(ctx)
		case actionExit:
			return nil
		}

		if err != nil {
			fmt.Println(errorStyle.Render(err.Error()))
			if !errors.Is(err, ErrNotReady) {
				logger.Warn("command failed", zap.String("command", choice), zap.Error(err))
			}
		}
	}
}
