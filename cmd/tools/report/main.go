package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/david/funding-tracker/internal/db"
)

func main() {
	limit := flag.Int("limit", 10, "number of recent events to show")
	flag.Parse()

	ctx := context.Background()
	pool, err := db.Connect(ctx)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	store := db.NewStore(pool)

	events, err := store.GetRecentEvents(ctx, *limit)
	if err != nil {
		log.Fatalf("Failed to load recent events: %v", err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Company", "Amount", "Stage", "Sector", "Score", "Investors", "Date"})

	for _, ev := range events {
		var investors []string
		for _, inv := range ev.Investors {
			name := inv.Name
			if inv.IsLead {
				name += " (lead)"
			}
			investors = append(investors, name)
		}

		t.AppendRow(table.Row{
			ev.CompanyName,
			ev.AmountText,
			ev.FundingStage,
			ev.CompanySector,
			fmt.Sprintf("%.2f", ev.QualityScore),
			strings.Join(investors, ", "),
			ev.AnnouncementDate,
		})
	}
	t.Render()

	stats, err := store.GetStats(ctx)
	if err != nil {
		log.Fatalf("Failed to load stats: %v", err)
	}

	fmt.Printf("\nTotal events: %v  Companies: %v  Investors: %v\n",
		stats["total_events"], stats["total_companies"], stats["total_investors"])
	fmt.Printf("Total tracked funding: $%.0f  Avg quality score: %.2f  Unprocessed articles: %v\n",
		toFloat(stats["total_amount"]), toFloat(stats["avg_quality_score"]), stats["unprocessed_articles"])

	if byStage, ok := stats["by_stage"].(map[string]int); ok && len(byStage) > 0 {
		fmt.Println("\nBy stage:")
		for stage, count := range byStage {
			fmt.Printf("  %-20s %d\n", stage, count)
		}
	}
	if bySector, ok := stats["by_sector"].(map[string]int); ok && len(bySector) > 0 {
		fmt.Println("\nBy sector:")
		for sector, count := range bySector {
			fmt.Printf("  %-20s %d\n", sector, count)
		}
	}
}

func toFloat(v any) float64 {
	f, _ := v.(float64)
	return f
}
