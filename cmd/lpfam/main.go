/*
Copyright © 2023-2026 the lpfam authors

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <http://www.gnu.org/licenses/>.
*/

// Command lpfam solves a scenario file and prints a purchase report.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/go-logr/logr"
	"github.com/spf13/viper"

	"github.com/lpfam/lpfam"
	"github.com/lpfam/lpfam/scenario"
	"github.com/lpfam/lpfam/solver/simplex"
	"github.com/lpfam/lpfam/store"
)

func main() {
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(out io.Writer, args []string) error {
	fs := flag.NewFlagSet("lpfam", flag.ContinueOnError)
	scenarioPath := fs.String("scenario", "", "path to the scenario file (required)")
	configPath := fs.String("config", "", "optional settings file")
	save := fs.Bool("save", false, "record the run in the run database")
	verbose := fs.Bool("v", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *scenarioPath == "" {
		return fmt.Errorf("missing required -scenario flag")
	}

	v := viper.New()
	v.SetDefault("db_path", "lpfam.db")
	v.SetDefault("max_iterations", 10000)
	v.SetDefault("max_nodes", 100000)
	v.SetEnvPrefix("LPFAM")
	v.AutomaticEnv()
	if *configPath != "" {
		v.SetConfigFile(*configPath)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read settings: %w", err)
		}
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	logger := logr.FromSlogHandler(handler)

	sc, err := scenario.Load(*scenarioPath)
	if err != nil {
		return err
	}
	model, err := sc.Build(lpfam.WithLogger(logger))
	if err != nil {
		return err
	}

	backend := simplex.New(
		simplex.WithMaxIterations(v.GetInt("max_iterations")),
		simplex.WithMaxNodes(v.GetInt("max_nodes")),
	)
	sol, err := model.SolveWithContext(context.Background(), backend)
	if err != nil {
		return err
	}

	printReport(out, sc, model, sol)

	if *save {
		return saveRun(context.Background(), v.GetString("db_path"), model, sol)
	}
	return nil
}

func printReport(out io.Writer, sc *scenario.Scenario, model *lpfam.Model, sol *lpfam.Solution) {
	fmt.Fprintf(out, "scenario %s: %s (%.4f, %s)\n",
		model.Name(), sol.Status(), sol.ObjectiveValue(), sol.SolveTime())
	if !sol.Status().HasSolution() {
		return
	}

	servings := sol.Mapped(model.Variables(scenario.ServingsFamily))
	names := make([]string, 0, len(servings))
	for key := range servings {
		names = append(names, fmt.Sprintf("%v", key))
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "  %-20s %8.3f\n", name, servings[name])
	}

	for _, r := range sc.Requirements {
		if !r.Soft {
			continue
		}
		name := "need:" + r.Nutrient
		if sol.IsGoalSatisfied(name, 1e-6) {
			fmt.Fprintf(out, "  goal %-18s met\n", r.Nutrient)
			continue
		}
		dev, err := sol.GoalDeviations(name)
		if err != nil {
			continue
		}
		fmt.Fprintf(out, "  goal %-18s short by %.3f\n", r.Nutrient, dev.NegScalar())
	}

	if sc.Budget != nil && sc.Budget.Priority == 0 {
		if report, err := sol.AnalyzeConstraint("budget"); err == nil {
			fmt.Fprintf(out, "  budget: spent %.2f of %.2f", report.Activity, report.RHS)
			if report.HasShadowPrice {
				fmt.Fprintf(out, " (shadow price %.4f)", report.ShadowPrice)
			}
			fmt.Fprintln(out)
		}
	}
}

func saveRun(ctx context.Context, dbPath string, model *lpfam.Model, sol *lpfam.Solution) error {
	db, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	values := make(map[string]float64)
	for key, val := range sol.Mapped(model.Variables(scenario.ServingsFamily)) {
		values[fmt.Sprintf("%v", key)] = val
	}
	id, err := db.SaveRun(ctx, store.Run{
		Model:     model.Name(),
		Status:    sol.Status().String(),
		Objective: sol.ObjectiveValue(),
		SolveTime: sol.SolveTime(),
		Values:    values,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "recorded run %d in %s\n", id, dbPath)
	return nil
}
