package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kalambet/silence/internal/catalog"
	"github.com/kalambet/silence/internal/config"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play through every incident in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		cat, err := loadCatalog(cfg)
		if err != nil {
			return err
		}
		_, err = play(os.Stdin, os.Stdout, cat)
		return err
	},
}

// play walks the player through each incident in order and returns how
// many were resolved. The score lives only here; the catalog is untouched.
func play(in io.Reader, out io.Writer, cat *catalog.Catalog) (int, error) {
	scanner := bufio.NewScanner(in)

	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Repeat("█", 53))
	fmt.Fprintln(out, "     THE  SILENCE  ENGINE")
	fmt.Fprintln(out, strings.Repeat("█", 53))
	fmt.Fprintln(out)
	fmt.Fprintln(out, "In the last days of Resonance, the world hums on the edge of collapse.")
	fmt.Fprintln(out, "You are a Soundwright, keeper of the old mechanisms.")
	fmt.Fprintln(out, "Stabilize what remains.")

	incidents := cat.List()
	score := 0
	for _, v := range incidents {
		fmt.Fprintln(out)
		printIncident(out, v)
		fmt.Fprintf(out, "\nYour answer (%s): ", choiceKeys(v))

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return score, fmt.Errorf("reading answer: %w", err)
			}
			fmt.Fprintln(out)
			break
		}

		res, err := cat.Submit(v.Index, scanner.Text())
		if err != nil {
			return score, err
		}
		fmt.Fprintf(out, "\n%s\n", res.Message)
		if res.Correct {
			score++
			fmt.Fprintln(out, colorize(colorGreen, "\n✓ Resonance stabilized."))
		} else {
			fmt.Fprintln(out, colorize(colorRed, "\n✗ The lattice trembles. Stability uncertain."))
		}
	}

	fmt.Fprintln(out, strings.Repeat("=", 60))
	fmt.Fprintf(out, "You resolved %d/%d resonance failures.\n", score, len(incidents))
	fmt.Fprintln(out, "The Silence recedes… for now.")
	fmt.Fprintln(out, strings.Repeat("=", 60))
	return score, nil
}

func choiceKeys(v catalog.View) string {
	keys := make([]string, 0, len(v.Choices))
	for _, c := range v.Choices {
		keys = append(keys, c.Key)
	}
	return strings.Join(keys, "/")
}
