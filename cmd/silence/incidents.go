package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kalambet/silence/internal/catalog"
)

var incidentsCmd = &cobra.Command{
	Use:   "incidents",
	Short: "Browse and answer incidents on a running server",
}

var incidentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all incidents",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		views, err := client.listIncidents(cmd.Context())
		if err != nil {
			return err
		}
		for _, v := range views {
			fmt.Fprintf(os.Stdout, "  %s %s\n", colorize(colorBold, fmt.Sprintf("[%d]", v.Index)), v.Title)
		}
		return nil
	},
}

var incidentsShowCmd = &cobra.Command{
	Use:   "show <index>",
	Short: "Show one incident with its trace and choices",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := parseIndex(args[0])
		if err != nil {
			return err
		}
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		v, err := client.getIncident(cmd.Context(), index)
		if err != nil {
			return err
		}
		printIncident(os.Stdout, v)
		return nil
	},
}

var incidentsAnswerCmd = &cobra.Command{
	Use:   "answer <index> <choice>",
	Short: "Submit an answer for an incident",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := parseIndex(args[0])
		if err != nil {
			return err
		}
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		res, err := client.submitAnswer(cmd.Context(), index, args[1])
		if err != nil {
			return err
		}
		printOutcome(res.Correct, res.Message)
		return nil
	},
}

func init() {
	incidentsCmd.AddCommand(incidentsListCmd)
	incidentsCmd.AddCommand(incidentsShowCmd)
	incidentsCmd.AddCommand(incidentsAnswerCmd)
}

func parseIndex(s string) (int, error) {
	index, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("incident index must be an integer, got %q", s)
	}
	return index, nil
}

func printIncident(w io.Writer, v catalog.View) {
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintf(w, "Incident: %s\n", colorize(colorBold, v.Title))
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintf(w, "%s\n\n", v.Description)
	for _, line := range v.Lines {
		fmt.Fprintln(w, colorize(colorCyan, line))
	}
	if len(v.Lines) > 0 {
		fmt.Fprintln(w)
	}
	for _, c := range v.Choices {
		fmt.Fprintf(w, "%s) %s\n", c.Key, c.Label)
	}
}
