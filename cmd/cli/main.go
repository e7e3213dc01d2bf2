package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"goscout/app"
	"goscout/internal/config"
	"goscout/internal/container"
	"goscout/models"
)

func main() {
	var (
		queries  = flag.String("queries", "", "comma separated discovery queries")
		stage    = flag.String("stage", "", "run a single stage instead of a full pipeline")
		ids      = flag.String("ids", "", "comma separated entity ids for -stage")
		days     = flag.Int("days", 0, "restrict discovery to the last N days")
		report   = flag.Bool("report", false, "print the latest run report as markdown")
		workbook = flag.String("workbook", "", "write an xlsx export to the given path")
	)
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	c, err := container.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer c.Close()

	ctx := context.Background()

	switch {
	case *report:
		md, err := c.Reports.Markdown(ctx)
		if err != nil {
			log.Fatalf("Report failed: %v", err)
		}
		fmt.Print(md)

	case *workbook != "":
		f, err := os.Create(*workbook)
		if err != nil {
			log.Fatalf("Cannot create %s: %v", *workbook, err)
		}
		defer f.Close()
		if err := c.Exporter.WriteWorkbook(ctx, f); err != nil {
			log.Fatalf("Export failed: %v", err)
		}
		log.Printf("Wrote %s", *workbook)

	case *stage != "":
		name := models.StageName(*stage)
		if !name.Valid() {
			log.Fatalf("Unknown stage %q", *stage)
		}
		result, err := c.Orchestrator.RunStage(ctx, name, splitIDs(*ids))
		if err != nil {
			log.Fatalf("Stage failed: %v", err)
		}
		printJSON(result)

	case *queries != "":
		req := buildRunRequest(*queries, *days)
		summary, err := c.Orchestrator.RunPipeline(ctx, req)
		if err != nil {
			log.Printf("Run finished with error: %v", err)
		}
		printJSON(summary)

	default:
		flag.Usage()
		os.Exit(2)
	}
}

func buildRunRequest(queries string, days int) (req app.RunRequest) {
	for _, part := range strings.Split(queries, ",") {
		if s := strings.TrimSpace(part); s != "" {
			req.Queries = append(req.Queries, s)
		}
	}
	if days > 0 {
		from := time.Now().UTC().AddDate(0, 0, -days)
		req.MinDate = &from
	}
	return req
}

func splitIDs(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func printJSON(v interface{}) {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("Encoding failed: %v", err)
	}
	fmt.Println(string(payload))
}
