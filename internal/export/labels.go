package export

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/piwi3910/tangram/internal/model"
)

// Share card layout (A6 landscape in mm).
const (
	cardWidth   = 148.0
	cardHeight  = 105.0
	cardPadding = 6.0
	qrSize      = 60.0
	qrPixels    = 256
)

// EncodeQR renders an arrangement record as a QR code PNG. The payload is
// the record's JSON, so scanning it yields a file FromRecord can load.
func EncodeQR(rec model.ArrangementRecord) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}
	png, err := qrcode.Encode(string(data), qrcode.Medium, qrPixels)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}
	return png, nil
}

// ExportShareCard writes a single-page card with the arrangement's name, a
// thumbnail of the board and a QR code carrying the arrangement record.
func ExportShareCard(path string, arr model.Arrangement) error {
	if len(arr.Pieces) == 0 {
		return fmt.Errorf("no pieces to share")
	}
	rec := arr.ToRecord()
	png, err := EncodeQR(rec)
	if err != nil {
		return err
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "L",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: cardHeight, Ht: cardWidth},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	// Cutting guide
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(1, 1, cardWidth-2, cardHeight-2, "D")

	title := arr.Name
	if title == "" {
		title = "Tangram"
	}
	textW := cardWidth - qrSize - 3*cardPadding
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(cardPadding, cardPadding)
	if pdf.GetStringWidth(title) > textW {
		for len(title) > 0 && pdf.GetStringWidth(title+"...") > textW {
			title = title[:len(title)-1]
		}
		title += "..."
	}
	pdf.CellFormat(textW, 7, title, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(cardPadding, cardPadding+8)
	pdf.CellFormat(textW, 4, fmt.Sprintf("%d pieces | anchor %s", len(rec.Elements), rec.Metadata.AnchorID), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)

	// Thumbnail
	thumb := textW - 4
	if avail := cardHeight - cardPadding*2 - 16; thumb > avail {
		thumb = avail
	}
	scale := thumb / model.BoardSize
	ox, oy := cardPadding, cardPadding+16
	toPage := func(p model.Point2D) fpdf.PointType {
		return fpdf.PointType{X: ox + p.X*scale, Y: oy + p.Y*scale}
	}
	pdf.SetFillColor(245, 242, 235)
	pdf.SetDrawColor(120, 120, 120)
	pdf.SetLineWidth(0.2)
	pdf.Rect(ox, oy, thumb, thumb, "FD")
	for _, p := range arr.Pieces {
		col := p.Type.Color()
		pdf.SetFillColor(int(col.R), int(col.G), int(col.B))
		pdf.SetDrawColor(30, 30, 30)
		pdf.Polygon(pagePoints(p.Outline(), toPage), "FD")
	}

	imgName := "qr_" + rec.ID
	pdf.RegisterImageOptionsReader(imgName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(png))
	qrX := cardWidth - qrSize - cardPadding
	qrY := (cardHeight - qrSize) / 2
	pdf.ImageOptions(imgName, qrX, qrY, qrSize, qrSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	return pdf.OutputFileAndClose(path)
}
