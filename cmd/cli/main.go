// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"ecoforge/internal/app"
	"ecoforge/internal/domain"
	"ecoforge/pkg/config"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}
	cmd := os.Args[1]
	args := os.Args[2:]
	switch cmd {
	case "version":
		fmt.Println("ecoforge cli 0.1.0")
	case "analyze":
		runAnalyze(args)
	case "plan":
		if len(args) < 1 {
			fmt.Fprintln(os.Stderr, "Usage: ecoforge plan <session_id>")
			os.Exit(1)
		}
		runPlan(args[0])
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`ecoforge — carbon footprint action planner

Usage:
  ecoforge analyze [-session id] [-cost N] [-tolerance N] <lifestyle text>
  ecoforge plan <session_id>
  ecoforge version`)
}

func newBootstrap() *app.Bootstrap {
	cfg, err := config.Load(os.Getenv("ECOFORGE_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}
	bootstrap, err := app.NewBootstrap(context.Background(), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化失败: %v\n", err)
		os.Exit(1)
	}
	return bootstrap
}

func runAnalyze(args []string) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	sessionID := fs.String("session", "", "继续已有会话")
	cost := fs.Int("cost", 0, "可接受的最高 cost rank（1-5），0 不限")
	tolerance := fs.Int("tolerance", 0, "可接受的最高 difficulty rank（1-5），0 不限")
	_ = fs.Parse(args)
	text := strings.Join(fs.Args(), " ")

	bootstrap := newBootstrap()
	defer bootstrap.Close()

	plan, err := bootstrap.Runner.Analyze(context.Background(),
		domain.LifestyleDescription{SessionID: *sessionID, Text: text},
		domain.Constraints{CostCeiling: *cost, ChangeTolerance: *tolerance})
	if err != nil {
		fmt.Fprintf(os.Stderr, "分析失败: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Session:  %s\nEcoScore: %.1f / 100\nBaseline: %.0f kg CO2e/year\nPotential reduction: %.0f kg CO2e/year\n\n%s\n\n",
		plan.SessionID, plan.EcoScore, plan.BaselineKg, plan.ReductionKg, plan.Rationale)
	for _, it := range plan.Final.Items {
		if it.Status != domain.ItemActive {
			continue
		}
		fmt.Printf("%2d. [%-9s] %s (−%.0f kg/year)\n",
			it.Priority, it.Domain, it.Recommendation.Text, it.AdjustedKg)
	}
}

func runPlan(sessionID string) {
	bootstrap := newBootstrap()
	defer bootstrap.Close()

	plan, err := bootstrap.Runner.LastPlan(context.Background(), sessionID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取失败: %v\n", err)
		os.Exit(1)
	}
	out, _ := json.MarshalIndent(plan, "", "  ")
	fmt.Println(string(out))
}
