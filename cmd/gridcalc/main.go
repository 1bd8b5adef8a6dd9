// Command gridcalc recalculates spreadsheet grids from the command line.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/javajack/gridcalc"
	"github.com/spf13/cobra"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run executes the CLI with the given arguments.
func run(args []string, out, errOut io.Writer) error {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	return cmd.Execute()
}

// rootFlags are the persistent flags shared by every command.
type rootFlags struct {
	mode      string
	maxPasses int
	json      bool
	verbose   bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:   "gridcalc",
		Short: "Spreadsheet formula recalculation",
		Long: `Recalculate spreadsheet grids and explore the supported functions.

Commands:
  calc       Recalculate a .json or .xlsx grid.
  demo       List the demo grids or run one.
  describe   Print the parsed structure of a formula.
  validate   Report formula problems without evaluating.
  functions  List the supported functions.

Examples:
  gridcalc demo VLOOKUP
  gridcalc demo SUM --set B2=100
  gridcalc --mode fixed calc grid.json
  gridcalc describe "=IF(A1>0,SUM(B1:B3),0)"`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&flags.mode, "mode", "graph", "Recalculation mode: graph, fixed or delegated")
	cmd.PersistentFlags().IntVar(&flags.maxPasses, "max-passes", 10, "Pass budget for fixed mode")
	cmd.PersistentFlags().BoolVar(&flags.json, "json", false, "Output JSON instead of tables")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Log debug details to stderr")

	cmd.AddCommand(newCalcCmd(flags))
	cmd.AddCommand(newDemoCmd(flags))
	cmd.AddCommand(newDescribeCmd())
	cmd.AddCommand(newValidateCmd(flags))
	cmd.AddCommand(newFunctionsCmd(flags))
	return cmd
}

// calculator builds a Calculator from the persistent flags.
func (f *rootFlags) calculator(cmd *cobra.Command) (*gridcalc.Calculator, error) {
	mode, err := gridcalc.ParseMode(f.mode)
	if err != nil {
		return nil, err
	}
	level := slog.LevelWarn
	if f.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return gridcalc.New(
		gridcalc.WithMode(mode),
		gridcalc.WithMaxPasses(f.maxPasses),
		gridcalc.WithLogger(logger),
	), nil
}

func newCalcCmd(flags *rootFlags) *cobra.Command {
	var sheet, outPath string
	cmd := &cobra.Command{
		Use:   "calc FILE",
		Short: "Recalculate a .json or .xlsx grid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := loadGrid(args[0], sheet)
			if err != nil {
				return err
			}
			calc, err := flags.calculator(cmd)
			if err != nil {
				return err
			}
			res, err := calc.Recalculate(g)
			if err != nil {
				return err
			}
			if outPath != "" {
				if err := saveWorkbook(outPath, res.Grid, sheet); err != nil {
					return err
				}
			}
			if flags.json {
				return writeJSON(cmd.OutOrStdout(), res.Grid.Render())
			}
			printGrid(cmd.OutOrStdout(), res.Grid)
			printSummary(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().StringVar(&sheet, "sheet", "", "Sheet to read from an .xlsx file (default: first sheet)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the recalculated grid to an .xlsx file")
	return cmd
}

func newDemoCmd(flags *rootFlags) *cobra.Command {
	var sets []string
	cmd := &cobra.Command{
		Use:   "demo [FUNCTION]",
		Short: "List the demo grids or run one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "FUNCTION\tDESCRIPTION")
				for _, d := range gridcalc.Demos() {
					fmt.Fprintf(tw, "%s\t%s\n", d.Function, d.Description)
				}
				return tw.Flush()
			}

			d, err := gridcalc.LookupDemo(args[0])
			if err != nil {
				return err
			}
			g := d.Grid()
			for _, s := range sets {
				address, input, err := gridcalc.ParseAssignment(s)
				if err != nil {
					return err
				}
				if err := g.SetInput(address, input); err != nil {
					return fmt.Errorf("set %s: %w", address, err)
				}
			}
			calc, err := flags.calculator(cmd)
			if err != nil {
				return err
			}
			res, err := calc.Recalculate(g)
			if err != nil {
				return err
			}
			if flags.json {
				return writeJSON(out, res.Grid.Render())
			}

			fmt.Fprintf(out, "%s: %s\n\n", d.Function, d.Description)
			printGrid(out, res.Grid)
			if ref, err := d.FocusRef(); err == nil {
				cell, _ := res.Grid.Cell(ref)
				fmt.Fprintf(out, "\n%s %s = %s\n", ref, cell.Formula, cell.Value)
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Override a demo input before recalculating, e.g. --set A1=42")
	return cmd
}

func newDescribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe FORMULA",
		Short: "Print the parsed structure of a formula",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := gridcalc.Describe(args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), s)
			return nil
		},
	}
}

// validateReport is the JSON shape of validate: the issues plus the
// references each formula cell mentions.
type validateReport struct {
	Issues       []string            `json:"issues"`
	Dependencies map[string][]string `json:"dependencies"`
}

// errValidation is returned when validate finds error-level issues.
var errValidation = errors.New("validation failed")

func newValidateCmd(flags *rootFlags) *cobra.Command {
	var sheet string
	cmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Report formula problems without evaluating",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := loadGrid(args[0], sheet)
			if err != nil {
				return err
			}
			issues := gridcalc.Validate(g, nil)
			out := cmd.OutOrStdout()
			if flags.json {
				report := validateReport{
					Issues:       make([]string, len(issues)),
					Dependencies: gridcalc.DependencyMap(g),
				}
				for i, issue := range issues {
					report.Issues[i] = issue.String()
				}
				if err := writeJSON(out, report); err != nil {
					return err
				}
			} else {
				for _, issue := range issues {
					fmt.Fprintln(out, issue)
				}
				if len(issues) == 0 {
					fmt.Fprintln(out, "no issues")
				}
			}
			errCount := 0
			for _, issue := range issues {
				if issue.Severity == gridcalc.SeverityError {
					errCount++
				}
			}
			if errCount > 0 {
				return fmt.Errorf("%w: %d error(s)", errValidation, errCount)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sheet, "sheet", "", "Sheet to read from an .xlsx file (default: first sheet)")
	return cmd
}

func newFunctionsCmd(flags *rootFlags) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "functions",
		Short: "List the supported functions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			type entry struct {
				Name      string `json:"name"`
				Category  string `json:"category"`
				Args      string `json:"args"`
				Authority string `json:"authority"`
				Volatile  bool   `json:"volatile,omitempty"`
			}
			var entries []entry
			for _, d := range gridcalc.DefaultRegistry().Descriptors() {
				if category != "" && !strings.EqualFold(string(d.Category), category) {
					continue
				}
				entries = append(entries, entry{
					Name:      d.Name,
					Category:  string(d.Category),
					Args:      d.Arity(),
					Authority: d.Authority.String(),
					Volatile:  d.Volatile,
				})
			}
			if flags.json {
				return writeJSON(cmd.OutOrStdout(), entries)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tCATEGORY\tARGS\tAUTHORITY\tVOLATILE")
			for _, e := range entries {
				volatile := ""
				if e.Volatile {
					volatile = "yes"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.Name, e.Category, e.Args, e.Authority, volatile)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "Only list one category (math, statistics, logical, lookup, text, date, information)")
	return cmd
}

// loadGrid reads a grid from a .json or .xlsx file.
func loadGrid(path, sheet string) (*gridcalc.Grid, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return gridcalc.ReadWorkbook(path, sheet)
	case ".json":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open grid %q: %w", path, err)
		}
		defer f.Close()
		return gridcalc.DecodeGrid(f)
	}
	return nil, fmt.Errorf("unsupported grid file %q (want .json or .xlsx)", path)
}

func saveWorkbook(path string, g *gridcalc.Grid, sheet string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %q: %w", path, err)
	}
	if err := gridcalc.WriteWorkbook(f, g, sheet); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printGrid writes the grid as a table with column letters and row numbers.
func printGrid(w io.Writer, g *gridcalc.Grid) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := []string{""}
	for c := 0; c < g.Cols(); c++ {
		header = append(header, gridcalc.ColToName(c))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for r, row := range g.Values() {
		line := []string{fmt.Sprint(r + 1)}
		for _, v := range row {
			line = append(line, v.String())
		}
		fmt.Fprintln(tw, strings.Join(line, "\t"))
	}
	tw.Flush()
}

func printSummary(w io.Writer, res *gridcalc.Result) {
	fmt.Fprintf(w, "\nmode=%s passes=%d converged=%t", res.Mode, res.Passes, res.Converged)
	if res.Mode == gridcalc.ModeDelegated {
		fmt.Fprintf(w, " delegated=%d fallback=%t", res.Delegated, res.Fallback)
	}
	if len(res.Cycles) > 0 {
		fmt.Fprintf(w, " cycles=%d", len(res.Cycles))
	}
	fmt.Fprintln(w)
}
