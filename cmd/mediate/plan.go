package main

import (
	"fmt"
	"io"
	"strings"

	mediate "github.com/glimte/mediate-go"
	"github.com/glimte/mediate-go/contracts"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newPlanCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "plan [contract]",
		Short: "Show the behaviour chain of a handler contract",
		Long: fmt.Sprintf(`Print the behaviours a handler declaring the given contract would run,
outermost first, grouped by contract level. Defaults to %s.

Known contracts: %s`, PingContract.Name(), strings.Join(contractNames(), ", ")),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := PingContract.Name()
			if len(args) == 1 {
				name = args[0]
			}

			contract, err := lookupContract(name)
			if err != nil {
				return err
			}

			_, d, err := setup(v, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			stages, err := d.mediator.Plan(contract)
			if err != nil {
				return fmt.Errorf("failed to plan %s: %w", name, err)
			}

			printPlan(cmd.OutOrStdout(), contract, stages)
			return nil
		},
	}
}

func renderPlan(contract *contracts.Contract, stages []mediate.PlanStage) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Pipeline for " + contract.Name()))
	b.WriteString("\n")

	total := 0
	for i, stage := range stages {
		b.WriteString(contractStyle.Render(fmt.Sprintf("%d. %s", i+1, stage.Contract.Name())))
		b.WriteString("\n")

		if len(stage.Behaviours) == 0 {
			b.WriteString(behaviourStyle.Render(mutedStyle.Render("(no behaviours)")))
			b.WriteString("\n")
			continue
		}

		for _, name := range stage.Behaviours {
			total++
			b.WriteString(behaviourStyle.Render(fmt.Sprintf("%2d  %s", total, name)))
			b.WriteString("\n")
		}
	}
	b.WriteString(behaviourStyle.Render(mutedStyle.Render("→ handler")))

	return b.String()
}

func printPlan(w io.Writer, contract *contracts.Contract, stages []mediate.PlanStage) {
	fmt.Fprintln(w, renderPlan(contract, stages))
}
