// Package importer reads puzzle targets from CSV and Excel files and piece
// outlines from DXF drawings. It supports automatic delimiter detection,
// flexible column mapping, and case-insensitive header recognition.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/tangram/internal/model"
)

// ImportResult holds the results of an import operation. Problems are
// collected rather than aborting on the first bad row.
type ImportResult struct {
	Targets  []model.TargetDefinition
	Pieces   []model.PlacedPiece
	Errors   []string
	Warnings []string
}

// ColumnMapping maps semantic column roles to their indices in the data.
type ColumnMapping struct {
	Type     int
	X        int
	Y        int
	Rotation int
	Mirrored int
	// Degrees is set when the rotation column holds degrees rather than a
	// π/4 step index.
	Degrees bool
}

// headerAliases maps canonical column names to their accepted aliases (all lowercase).
var headerAliases = map[string][]string{
	"type":     {"type", "piece", "piece type", "piecetype", "shape", "kind", "element type"},
	"x":        {"x", "pos x", "position x", "target x"},
	"y":        {"y", "pos y", "position y", "target y"},
	"rotation": {"rotation", "rotation index", "rotationindex", "rot", "step"},
	"degrees":  {"degrees", "deg", "angle", "rotation (deg)", "rotation deg"},
	"mirrored": {"mirrored", "mirror", "flipped", "flip"},
}

// kindAliases resolves names that identify a shape but not which of the
// two identical pieces is meant. Successive uses take the next free type.
var kindAliases = map[string][]model.PieceType{
	"smalltriangle":  {model.SmallTriangle1, model.SmallTriangle2},
	"small":          {model.SmallTriangle1, model.SmallTriangle2},
	"largetriangle":  {model.LargeTriangle1, model.LargeTriangle2},
	"large":          {model.LargeTriangle1, model.LargeTriangle2},
	"medium":         {model.MediumTriangle},
	"mediumtriangle": {model.MediumTriangle},
	"square":         {model.Square},
	"parallelogram":  {model.Parallelogram},
	"rhomboid":       {model.Parallelogram},
}

// DetectCSVDelimiter reads the file content and determines the most likely CSV delimiter.
// It tries comma, semicolon, tab, and pipe. The delimiter that produces the most
// consistent (non-one) column count across lines wins.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	bestDelimiter := ','
	bestScore := 0

	for _, delim := range candidates {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		records, err := reader.ReadAll()
		if err != nil || len(records) < 1 {
			continue
		}
		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}
		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}
		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}
	return bestDelimiter
}

// DetectColumns examines a header row and returns a ColumnMapping. Returns
// the mapping and true if a header was detected, or the positional mapping
// (type, x, y, rotation index, mirrored) and false otherwise.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := ColumnMapping{Type: -1, X: -1, Y: -1, Rotation: -1, Mirrored: -1}

	isHeader := false
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for role, aliases := range headerAliases {
			for _, alias := range aliases {
				if normalized != alias {
					continue
				}
				isHeader = true
				switch role {
				case "type":
					if mapping.Type == -1 {
						mapping.Type = i
					}
				case "x":
					if mapping.X == -1 {
						mapping.X = i
					}
				case "y":
					if mapping.Y == -1 {
						mapping.Y = i
					}
				case "rotation":
					if mapping.Rotation == -1 {
						mapping.Rotation = i
					}
				case "degrees":
					if mapping.Rotation == -1 {
						mapping.Rotation = i
						mapping.Degrees = true
					}
				case "mirrored":
					if mapping.Mirrored == -1 {
						mapping.Mirrored = i
					}
				}
			}
		}
	}

	if !isHeader {
		return ColumnMapping{Type: 0, X: 1, Y: 2, Rotation: 3, Mirrored: 4}, false
	}
	return mapping, true
}

// pieceResolver turns type names into piece types, handing out the two
// identical triangles in order.
type pieceResolver struct {
	used map[model.PieceType]bool
}

func newPieceResolver() *pieceResolver {
	return &pieceResolver{used: make(map[model.PieceType]bool)}
}

func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(s)
}

// resolve returns the piece type for name and whether it repeats a type
// already handed out.
func (r *pieceResolver) resolve(name string) (model.PieceType, bool, error) {
	norm := normalizeName(name)
	for _, t := range model.AllPieceTypes {
		if normalizeName(t.String()) == norm {
			dup := r.used[t]
			r.used[t] = true
			return t, dup, nil
		}
	}
	candidates, ok := kindAliases[norm]
	if !ok {
		return model.PieceUnknown, false, fmt.Errorf("%w: %q", model.ErrUnknownPiece, name)
	}
	for _, t := range candidates {
		if !r.used[t] {
			r.used[t] = true
			return t, false, nil
		}
	}
	return candidates[0], true, nil
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "false", "no", "n", "0", "-":
		return false, true
	case "true", "yes", "y", "1", "x":
		return true, true
	default:
		return false, false
	}
}

// getCell safely retrieves a cell value from a row by column index.
// Returns empty string if the index is out of range or negative.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseRow extracts a target from a row using the given column mapping.
// Returns the target, any error message, and any warning messages.
func parseRow(row []string, mapping ColumnMapping, rowLabel string, types *pieceResolver) (model.TargetDefinition, string, []string) {
	var warnings []string

	typeStr := getCell(row, mapping.Type)
	if typeStr == "" {
		return model.TargetDefinition{}, fmt.Sprintf("%s: Missing piece type", rowLabel), nil
	}
	pt, dup, err := types.resolve(typeStr)
	if err != nil {
		return model.TargetDefinition{}, fmt.Sprintf("%s: Unknown piece type '%s'", rowLabel, typeStr), nil
	}
	if dup {
		warnings = append(warnings, fmt.Sprintf("%s: Piece type %s used more than once", rowLabel, pt))
	}

	xStr := getCell(row, mapping.X)
	x, err := strconv.ParseFloat(xStr, 64)
	if err != nil {
		return model.TargetDefinition{}, fmt.Sprintf("%s: Invalid x '%s'", rowLabel, xStr), nil
	}
	yStr := getCell(row, mapping.Y)
	y, err := strconv.ParseFloat(yStr, 64)
	if err != nil {
		return model.TargetDefinition{}, fmt.Sprintf("%s: Invalid y '%s'", rowLabel, yStr), nil
	}

	var rotation float64
	if rotStr := getCell(row, mapping.Rotation); rotStr != "" {
		v, err := strconv.ParseFloat(rotStr, 64)
		if err != nil {
			return model.TargetDefinition{}, fmt.Sprintf("%s: Invalid rotation '%s'", rowLabel, rotStr), nil
		}
		if mapping.Degrees {
			rotation = v * math.Pi / 180
		} else {
			if v != math.Trunc(v) || v < 0 || v >= model.RotationSteps {
				return model.TargetDefinition{}, fmt.Sprintf("%s: Rotation index '%s' must be a whole number 0-7", rowLabel, rotStr), nil
			}
			rotation = model.AngleForIndex(int(v))
		}
	}
	snapped := model.AngleForIndex(model.RotationIndex(rotation))
	if model.AngularDistance(rotation, snapped) > 1e-9 {
		warnings = append(warnings, fmt.Sprintf("%s: Rotation snapped to %d x 45 degrees", rowLabel, model.RotationIndex(rotation)))
	}

	mirrored := false
	if mStr := getCell(row, mapping.Mirrored); mStr != "" {
		m, ok := parseBool(mStr)
		if !ok {
			return model.TargetDefinition{}, fmt.Sprintf("%s: Invalid mirrored flag '%s'", rowLabel, mStr), nil
		}
		mirrored = m
	}
	if mirrored && !pt.Shape().Mirrorable {
		warnings = append(warnings, fmt.Sprintf("%s: %s cannot be mirrored, flag ignored", rowLabel, pt))
		mirrored = false
	}

	return model.TargetDefinition{
		Type:     pt,
		Position: model.Point2D{X: x, Y: y},
		Rotation: snapped,
		Mirrored: mirrored,
	}, "", warnings
}

// isEmptyRow returns true if the row has no meaningful content.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ImportCSV imports targets from a CSV file. It automatically detects the
// delimiter and maps columns by header names.
func ImportCSV(path string) ImportResult {
	result := ImportResult{}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open file: %v", err))
		return result
	}
	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	delimiter := DetectCSVDelimiter(data)
	var warnings []string
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		warnings = append(warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}
	return importFromRows(records, "Line", warnings)
}

// ImportCSVFromReader imports targets from a CSV reader with a known delimiter.
func ImportCSVFromReader(reader io.Reader, delimiter rune) ImportResult {
	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiter
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return ImportResult{Errors: []string{fmt.Sprintf("Cannot read CSV: %v", err)}}
	}
	return importFromRows(records, "Line", nil)
}

// ImportExcel imports targets from an .xlsx file. A sheet named "Targets"
// is preferred; otherwise the first sheet is read.
func ImportExcel(path string) ImportResult {
	result := ImportResult{}

	f, err := excelize.OpenFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open Excel file: %v", err))
		return result
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		result.Errors = append(result.Errors, "Excel file has no sheets")
		return result
	}
	sheet := sheets[0]
	for _, s := range sheets {
		if strings.EqualFold(s, "Targets") {
			sheet = s
			break
		}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read Excel data: %v", err))
		return result
	}
	return importFromRows(rows, "Row", nil)
}

// importFromRows is the shared import logic for both CSV and Excel data.
func importFromRows(rows [][]string, rowPrefix string, initialWarnings []string) ImportResult {
	result := ImportResult{Warnings: initialWarnings}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
		return result
	}

	mapping, hasHeader := DetectColumns(rows[0])
	startRow := 0
	if hasHeader {
		startRow = 1
		missing := []string{}
		if mapping.Type == -1 {
			missing = append(missing, "Type")
		}
		if mapping.X == -1 {
			missing = append(missing, "X")
		}
		if mapping.Y == -1 {
			missing = append(missing, "Y")
		}
		if len(missing) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Required columns not found in header: %s", strings.Join(missing, ", ")))
			return result
		}
	}

	types := newPieceResolver()
	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}
		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)
		td, errMsg, warnings := parseRow(row, mapping, rowLabel, types)
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		result.Warnings = append(result.Warnings, warnings...)
		result.Targets = append(result.Targets, td)
	}

	if len(result.Targets) == 0 && len(result.Errors) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
	}
	return result
}
