package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/sevigo/diff-warden/internal/core"
	"github.com/sevigo/diff-warden/internal/llm"
	"github.com/sevigo/diff-warden/internal/pipeline"
	"github.com/sevigo/diff-warden/internal/report"
	"github.com/sevigo/diff-warden/internal/shell"
	"github.com/sevigo/diff-warden/internal/web"
	"github.com/sevigo/diff-warden/internal/wire"
)

// errFindingsFound makes the process exit with status 1 in CI mode.
var errFindingsFound = errors.New("findings found")

func newConsole() (*report.Console, error) {
	return report.NewConsole(os.Stdout, "")
}

// runScan scans source, optionally lets the user triage the findings, publishes the
// review and writes the requested outputs.
func runScan(ctx context.Context, source core.SourceProvider) error {
	timer := newStepTimer(3, verbosity > 0)
	overallStart := time.Now()

	titleColor.Println("🛡️  Diff-Warden scan")
	dimColor.Printf("   Target: %s\n\n", source.Name())

	timer.step("Preparing scanner")
	p, err := wire.InitializeScanner(ctx, cfg, source, appLogger)
	if err != nil {
		return fmt.Errorf("failed to initialize scanner: %w", err)
	}
	timer.info("Provider: %s", cfg.AI.LLMProvider)
	if cfg.AI.GeneratorModel != "" {
		timer.info("Model: %s", cfg.AI.GeneratorModel)
	}
	timer.info("Analysts: %v", cfg.Scan.Analysts)
	timer.done()

	timer.step("Analyzing changed files")
	result, err := p.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	timer.info("Changed: %d, analyzed: %d, cached: %d", result.Changed, result.Analyzed, result.Cached)
	timer.done(fmt.Sprintf("%d finding(s)", len(result.Findings)))
	for _, f := range result.Failures {
		warnColor.Printf("   ⚠ %s could not be analyzed: %v\n", f.Filename, f.Err)
	}

	if cfg.Output.Interactive && len(result.Findings) > 0 {
		if err := triage(ctx, p, result); err != nil {
			return err
		}
	}

	timer.step("Publishing review")
	if len(result.Findings) == 0 {
		successColor.Println(report.NoIssues)
	} else if _, err := p.Publish(ctx, result); err != nil {
		return err
	}
	timer.done()

	if verbosity > 0 {
		dimColor.Printf("\n⏱️  Total time: %s\n", time.Since(overallStart).Round(time.Millisecond))
	}

	if cfg.Output.CSV {
		if err := report.WriteCSV(cfg.Output.CSVPath, result.Findings); err != nil {
			return err
		}
		successColor.Printf("Findings written to %s\n", cfg.Output.CSVPath)
	}
	if cfg.Output.Web {
		if err := serveFindings(ctx, source, result.Findings); err != nil {
			return err
		}
	}
	if cfg.Output.CI && len(result.Findings) > 0 {
		return errFindingsFound
	}
	return nil
}

// triage opens the interactive shell and replaces the findings with the edited list.
func triage(ctx context.Context, p *pipeline.Pipeline, result *pipeline.Result) error {
	list := shell.NewFindings(result.Findings)
	session, err := p.NewShellSession(list.Len(), list.Tool())
	if errors.Is(err, llm.ErrSessionUnsupported) {
		warnColor.Printf("The %s provider does not support the interactive shell, skipping it\n", cfg.AI.LLMProvider)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to start shell session: %w", err)
	}

	edited, err := shell.Run(ctx, session, list, shell.ThemeName(theme))
	if err != nil {
		return err
	}
	result.SetFindings(edited)
	return nil
}

func serveFindings(ctx context.Context, source core.SourceProvider, list []core.Finding) error {
	enriched := web.Enrich(ctx, source.ReadFile, list)
	addr := net.JoinHostPort(cfg.Output.WebHost, strconv.Itoa(cfg.Output.WebPort))
	titleColor.Printf("\n🌐 Findings dashboard on http://%s (Ctrl-C to stop)\n", addr)
	return web.Serve(ctx, addr, web.NewRouter(enriched, appLogger), appLogger)
}
