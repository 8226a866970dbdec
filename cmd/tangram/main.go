// Command tangram manages tangram puzzle boards from the command line.
//
// Validates stored arrangements against puzzles, exports boards to PDF,
// SVG, Excel, DXF and QR share cards, imports puzzle targets and drives a
// scripted play session.
//
// Build:
//   go build -o tangram ./cmd/tangram
//
// Configuration is read from ~/.tangram/config.json and TANGRAM_*
// environment variables (TANGRAM_GRID_STEP, TANGRAM_DATA_DIR, ...).

package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/piwi3910/tangram/internal/config"
)

const usage = `usage: tangram [-config path] [-v] <command> [args]

commands:
  puzzles                          list the puzzle library
  arrangements                     list stored arrangements
  validate [-puzzle name] ARR      check an arrangement against a puzzle
  compare A B                      compare two arrangements
  export -format f -o path ARR     write pdf, svg, xlsx, dxf or card
  import [-name name] FILE         import targets (csv, xlsx) or pieces (dxf)
  solve [-puzzle name]             play a puzzle by dragging every piece home
  backup -o path                   write all data to one file
  restore FILE                     restore a backup

ARR is an arrangement id from the store or a path to a record file.
`

func main() {
	configPath := flag.String("config", "", "path to config.json")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	app := newApp(cfg)
	if err := app.run(flag.Arg(0), flag.Args()[1:]); err != nil {
		slog.Error(flag.Arg(0), "error", err)
		os.Exit(1)
	}
}
