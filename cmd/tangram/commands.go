package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/piwi3910/tangram/internal/config"
	"github.com/piwi3910/tangram/internal/engine"
	"github.com/piwi3910/tangram/internal/export"
	"github.com/piwi3910/tangram/internal/importer"
	"github.com/piwi3910/tangram/internal/model"
	"github.com/piwi3910/tangram/internal/project"
	"github.com/piwi3910/tangram/internal/typeid"
)

const (
	gameType    = "tangram"
	recentLimit = 10
)

var errIncomplete = errors.New("arrangement does not solve the puzzle")

type app struct {
	cfg        *config.Config
	store      *project.ArrangementStore
	puzzlePath string
	out        io.Writer
	logger     *slog.Logger
}

func newApp(cfg *config.Config) *app {
	dataDir := cfg.DataDir()
	return &app{
		cfg:        cfg,
		store:      project.NewArrangementStore(dataDir),
		puzzlePath: project.PuzzlePath(dataDir),
		out:        os.Stdout,
		logger:     slog.Default(),
	}
}

func (a *app) run(cmd string, args []string) error {
	switch cmd {
	case "puzzles":
		return a.listPuzzles()
	case "arrangements":
		return a.listArrangements()
	case "validate":
		return a.validate(args)
	case "compare":
		return a.compare(args)
	case "export":
		return a.export(args)
	case "import":
		return a.importFile(args)
	case "solve":
		return a.solve(args)
	case "backup":
		return a.backup(args)
	case "restore":
		return a.restore(args)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *app) listPuzzles() error {
	puzzles, err := project.LoadPuzzles(a.puzzlePath)
	if err != nil {
		return err
	}
	for _, p := range puzzles.Puzzles {
		fmt.Fprintf(a.out, "%-32s %-20s %d pieces\n", p.ID, p.Name, len(p.Targets))
	}
	return nil
}

func (a *app) listArrangements() error {
	ids, err := a.store.List()
	if err != nil {
		return err
	}
	for _, id := range ids {
		arr, err := a.store.LoadArrangement(id)
		if err != nil {
			a.logger.Warn("skipping unreadable arrangement", "id", id, "error", err)
			continue
		}
		fmt.Fprintf(a.out, "%-32s %-20s %d pieces\n", id, arr.Name, len(arr.Pieces))
	}
	return nil
}

func (a *app) validate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	puzzleName := fs.String("puzzle", "", "puzzle name or id (default: first puzzle)")
	symmetry := fs.Bool("symmetry", false, "accept rotations that map a shape onto itself")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("validate takes one arrangement")
	}

	arr, err := a.loadArrangement(fs.Arg(0))
	if err != nil {
		return err
	}
	puzzle, err := a.findPuzzle(*puzzleName)
	if err != nil {
		return err
	}
	tol := a.tolerances(puzzle)
	if *symmetry {
		tol.UseSymmetry = true
	}

	report := engine.NewValidator(tol, a.cfg.Settings.Bounds).Validate(arr.Pieces, puzzle.Targets)
	a.printReport(puzzle, report)
	if !report.Complete {
		return errIncomplete
	}
	return nil
}

func (a *app) printReport(puzzle *model.Puzzle, report engine.Report) {
	for i, td := range puzzle.Targets {
		id, ok := report.Assignment[i]
		if !ok {
			id = "-"
		}
		fmt.Fprintf(a.out, "target %d %-16s <- %s\n", i, td.Type, id)
	}
	for _, v := range report.Violations {
		fmt.Fprintf(a.out, "%s: %s\n", v.Severity, v.Error())
	}
	status := "incomplete"
	if report.Complete {
		status = "complete"
	}
	fmt.Fprintf(a.out, "%s: %s\n", puzzle.Name, status)
}

func (a *app) compare(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("compare takes two arrangements")
	}
	left, err := a.loadArrangement(args[0])
	if err != nil {
		return err
	}
	right, err := a.loadArrangement(args[1])
	if err != nil {
		return err
	}

	cmp := engine.CompareArrangements(left, right, a.cfg.Settings.Tolerances)
	for _, d := range cmp.Deltas {
		if d.Missing {
			fmt.Fprintf(a.out, "%-16s %-16s missing\n", d.ID, d.Type)
			continue
		}
		fmt.Fprintf(a.out, "%-16s %-16s moved %.3f turned %.0f deg", d.ID, d.Type, d.PositionDelta, d.RotationDelta*180/math.Pi)
		if d.MirrorDiffers {
			fmt.Fprint(a.out, " mirrored")
		}
		fmt.Fprintln(a.out)
	}
	fmt.Fprintf(a.out, "equivalent: %t\n", cmp.Equivalent)
	return nil
}

func (a *app) export(args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	format := fs.String("format", "pdf", "pdf, svg, xlsx, dxf or card")
	out := fs.String("o", "", "output path")
	puzzleName := fs.String("puzzle", "", "include the targets of this puzzle")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 || *out == "" {
		return fmt.Errorf("export needs -o and one arrangement")
	}

	arr, err := a.loadArrangement(fs.Arg(0))
	if err != nil {
		return err
	}
	var targets []model.TargetDefinition
	var report *engine.Report
	if *puzzleName != "" {
		puzzle, err := a.findPuzzle(*puzzleName)
		if err != nil {
			return err
		}
		targets = puzzle.Targets
		r := engine.NewValidator(a.tolerances(puzzle), a.cfg.Settings.Bounds).Validate(arr.Pieces, targets)
		report = &r
	}

	switch strings.ToLower(*format) {
	case "pdf":
		err = export.ExportPDF(*out, arr, targets, report)
	case "svg":
		err = export.ExportSVG(*out, arr, targets, export.DefaultSVGOptions())
	case "xlsx", "excel":
		err = export.ExportExcel(*out, arr, targets)
	case "dxf":
		err = export.ExportDXF(*out, arr.Pieces)
	case "card":
		err = export.ExportShareCard(*out, arr)
	default:
		return fmt.Errorf("unknown format %q", *format)
	}
	if err != nil {
		return err
	}
	a.logger.Info("exported", "format", *format, "path", *out)
	a.remember(*out)
	return nil
}

func (a *app) importFile(args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	name := fs.String("name", "", "name for the imported puzzle or arrangement")
	asPuzzle := fs.Bool("puzzle", false, "store DXF pieces as a puzzle instead of an arrangement")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("import takes one file")
	}
	path := fs.Arg(0)
	if *name == "" {
		*name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	var result importer.ImportResult
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		result = importer.ImportCSV(path)
	case ".xlsx":
		result = importer.ImportExcel(path)
	case ".dxf":
		result = importer.ImportDXF(path)
	default:
		return fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}
	for _, w := range result.Warnings {
		a.logger.Warn(w, "file", path)
	}
	for _, e := range result.Errors {
		a.logger.Error(e, "file", path)
	}
	if len(result.Targets) == 0 && len(result.Pieces) == 0 {
		return fmt.Errorf("nothing imported from %s", path)
	}

	if len(result.Pieces) > 0 {
		arr := model.NewArrangement(gameType, *name)
		arr.Pieces = result.Pieces
		if !*asPuzzle {
			if err := a.store.Save(arr.ToRecord()); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "arrangement %s: %d pieces\n", arr.ID, len(arr.Pieces))
			return nil
		}
		return a.addPuzzle(model.PuzzleFromArrangement(*name, arr))
	}
	return a.addPuzzle(model.NewPuzzle(*name, "Imported from "+filepath.Base(path), result.Targets))
}

func (a *app) addPuzzle(p model.Puzzle) error {
	puzzles, err := project.LoadPuzzles(a.puzzlePath)
	if err != nil {
		return err
	}
	puzzles.Add(p)
	if err := project.SavePuzzles(a.puzzlePath, puzzles); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "puzzle %s (%s): %d targets\n", p.ID, p.Name, len(p.Targets))
	return nil
}

// solve plays a puzzle the way a user would: each piece is grabbed at its
// centroid, turned while held and dropped so its reference corner lands on
// the target.
func (a *app) solve(args []string) error {
	fs := flag.NewFlagSet("solve", flag.ContinueOnError)
	puzzleName := fs.String("puzzle", "", "puzzle name or id (default: first puzzle)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	puzzle, err := a.findPuzzle(*puzzleName)
	if err != nil {
		return err
	}

	settings := a.cfg.Settings
	settings.Mode = model.ModePlay
	settings.Tolerances = a.tolerances(puzzle)

	saver := project.NewSaver(a.store, a.logger, 4)
	session := engine.NewSession(puzzle.ToArrangement(gameType), puzzle.Targets, settings, a.cfg.Transform, saver)
	a.logger.Debug("session started", "session", session.ID, "puzzle", puzzle.Name)

	for _, td := range puzzle.Targets {
		res, err := dragHome(session, td)
		if err != nil {
			saver.Close()
			return err
		}
		fmt.Fprintf(a.out, "%-16s %s\n", res.PieceID, res.Outcome)
	}
	saver.Close()

	arr := session.Arrangement()
	if !session.Complete() {
		fmt.Fprintf(a.out, "%s: incomplete\n", puzzle.Name)
		return errIncomplete
	}
	fmt.Fprintf(a.out, "%s: complete, saved as %s\n", puzzle.Name, arr.ID)
	return nil
}

// dragHome moves a free piece of the target's kind onto the target through
// pointer events.
func dragHome(s *engine.Session, td model.TargetDefinition) (engine.EventResult, error) {
	var piece model.PlacedPiece
	found := false
	for _, p := range s.Snapshot() {
		if !p.Locked && p.Type.Kind() == td.Type.Kind() {
			piece, found = p, true
			break
		}
	}
	if !found {
		return engine.EventResult{}, fmt.Errorf("no free %s for %s", td.Type.Kind(), td.Type)
	}

	t := s.Transform()
	grab := piece.Outline().Centroid()
	res, err := s.HandlePointer(engine.PointerEvent{Phase: engine.PhaseBegin, Screen: t.ToScreen(grab)})
	if err != nil {
		return res, err
	}
	if res.Outcome != engine.OutcomeGrabbed {
		return res, fmt.Errorf("could not grab %s", piece.ID)
	}
	if res.PieceID != piece.ID {
		piece, _ = findPiece(s, res.PieceID)
	}

	if _, err := s.Rotate(piece.ID, td.Rotation-piece.Pose.Theta); err != nil {
		return res, err
	}
	if piece.Pose.Mirrored != td.Mirrored {
		if _, err := s.Flip(piece.ID); err != nil {
			return res, err
		}
	}

	drop := td.Position.Add(grab.Sub(piece.Pose.Position()))
	mid := grab.Add(drop).Scale(0.5)
	if _, err := s.HandlePointer(engine.PointerEvent{Phase: engine.PhaseMove, Screen: t.ToScreen(mid)}); err != nil {
		return res, err
	}
	return s.HandlePointer(engine.PointerEvent{Phase: engine.PhaseEnd, Screen: t.ToScreen(drop)})
}

func findPiece(s *engine.Session, id string) (model.PlacedPiece, bool) {
	for _, p := range s.Snapshot() {
		if p.ID == id {
			return p, true
		}
	}
	return model.PlacedPiece{}, false
}

func (a *app) backup(args []string) error {
	fs := flag.NewFlagSet("backup", flag.ContinueOnError)
	out := fs.String("o", "", "output path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *out == "" {
		return fmt.Errorf("backup needs -o")
	}
	puzzles, err := project.LoadPuzzles(a.puzzlePath)
	if err != nil {
		return err
	}
	if err := project.ExportAllData(*out, a.cfg.App, puzzles, a.store); err != nil {
		return err
	}
	a.logger.Info("backup written", "path", *out)
	return nil
}

func (a *app) restore(args []string) error {
	fs := flag.NewFlagSet("restore", flag.ContinueOnError)
	withConfig := fs.Bool("config", false, "also restore preferences")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("restore takes one backup file")
	}

	backup, err := project.ImportAllData(fs.Arg(0))
	if err != nil {
		return err
	}
	if err := project.SavePuzzles(a.puzzlePath, backup.Puzzles); err != nil {
		return err
	}
	if err := project.RestoreArrangements(backup, a.store); err != nil {
		return err
	}
	if *withConfig {
		if err := project.SaveAppConfig(a.cfg.Path, backup.Config); err != nil {
			return err
		}
	}
	fmt.Fprintf(a.out, "restored %d puzzles, %d arrangements\n", len(backup.Puzzles.Puzzles), len(backup.Arrangements))
	return nil
}

// loadArrangement resolves ref as a record file when it names a .json
// file, otherwise as an id in the arrangement store.
func (a *app) loadArrangement(ref string) (model.Arrangement, error) {
	if strings.EqualFold(filepath.Ext(ref), ".json") {
		rec, err := project.LoadRecord(ref)
		if err != nil {
			return model.Arrangement{}, err
		}
		return model.FromRecord(rec)
	}
	if err := typeid.Validate(ref, typeid.PrefixArrangement); err != nil {
		return model.Arrangement{}, fmt.Errorf("%q is neither a record file nor an arrangement id: %w", ref, err)
	}
	return a.store.LoadArrangement(ref)
}

func (a *app) findPuzzle(ref string) (*model.Puzzle, error) {
	puzzles, err := project.LoadPuzzles(a.puzzlePath)
	if err != nil {
		return nil, err
	}
	if ref == "" {
		if len(puzzles.Puzzles) == 0 {
			return nil, fmt.Errorf("puzzle library is empty")
		}
		return &puzzles.Puzzles[0], nil
	}
	if p := puzzles.FindByID(ref); p != nil {
		return p, nil
	}
	if p := puzzles.FindByName(ref); p != nil {
		return p, nil
	}
	return nil, fmt.Errorf("puzzle %q not found", ref)
}

func (a *app) tolerances(p *model.Puzzle) model.Tolerances {
	if p != nil && p.Tolerances != nil {
		return *p.Tolerances
	}
	return a.cfg.Settings.Tolerances
}

// remember records path in the recent list of the preferences file.
func (a *app) remember(path string) {
	project.AddRecent(&a.cfg.App, path, recentLimit)
	if err := project.SaveAppConfig(a.cfg.Path, a.cfg.App); err != nil {
		a.logger.Warn("could not update recent files", "error", err)
	}
}
