package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"
)

var cli struct {
	GoBase     string        `help:"Availability API base URL." default:"http://localhost:8080/api/v1"`
	LegacyBase string        `help:"Legacy booking app base URL." default:"http://localhost:3000"`
	Targets    string        `help:"JSON file listing the cases to compare." type:"path" default:"scripts/shadow_compare/targets.json"`
	Timeout    time.Duration `help:"HTTP client timeout." default:"10s"`
	Verbose    bool          `help:"Log every request." short:"v"`
}

func main() {
	kong.Parse(&cli,
		kong.Name("shadow_compare"),
		kong.Description("Compare legacy available-slots answers with the availability API."),
		kong.UsageOnError(),
	)

	logger := zap.NewNop()
	if cli.Verbose {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync() //nolint:errcheck

	cases, err := loadCases(cli.Targets)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load targets: %v\n", err)
		os.Exit(2)
	}

	cmp := &comparer{
		client:     &http.Client{Timeout: cli.Timeout},
		goBase:     cli.GoBase,
		legacyBase: cli.LegacyBase,
		logger:     logger,
	}

	results := make([]comparison, 0, len(cases))
	for _, tc := range cases {
		results = append(results, cmp.compare(context.Background(), tc))
	}

	breaking, optional := printReport(os.Stdout, results)
	fmt.Printf("Breaking diffs: %d, Optional diffs: %d\n", breaking, optional)
	if breaking > 0 {
		os.Exit(1)
	}
}
