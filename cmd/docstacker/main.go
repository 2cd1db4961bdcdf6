// Command docstacker assembles, letterheads, signs and finalizes PDF
// documents, either as an HTTP service or on local files.
//
// Usage:
//
//	docstacker <command> [flags] <args>
//
// Commands:
//
//	serve     Run the HTTP API
//	stack     Stitch cover, body and terms, with an optional letterhead
//	sign      Place signature images on the fields of a document
//	finalize  Remove interactive form fields from a document
//	info      Show the page count and page sizes of a document
//	render    Render one page as a PNG
//	version   Show version information
//
// Examples:
//
//	docstacker serve --config docstacker.yaml
//	docstacker stack --letterhead lh.pdf --cover cover.pdf --body body.pdf -o out.pdf
//	docstacker info --json out.pdf
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/georgepadayatti/docstacker/cli"
)

// These variables are set at build time using ldflags:
//
//	go build -ldflags "-X main.version=1.0.0 -X main.buildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)" ./cmd/docstacker
var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	cli.Version = version
	cli.BuildTime = buildTime

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}
