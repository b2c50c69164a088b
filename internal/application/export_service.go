package application

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/urbanyield/riskengine/internal/config"
	"github.com/urbanyield/riskengine/internal/domain/models"
	"github.com/urbanyield/riskengine/internal/domain/repository"
	"github.com/urbanyield/riskengine/pkg/constants"
	"github.com/urbanyield/riskengine/pkg/errors"
	"github.com/urbanyield/riskengine/pkg/logger"
)

// defaultBinWidth is used when a persisted summary carries no histogram.
const defaultBinWidth = 0.01

// Export content types.
const (
	ExportFormatCSV = "text/csv"
	ExportFormatZIP = "application/zip"
)

// Export is the reconstructed dataset, either raw CSV bytes or a
// single-entry zip archive when the row count exceeds the threshold.
type Export struct {
	Filename    string
	ContentType string
	Data        []byte
	RowCount    int
	Compressed  bool
}

// ExportService reconstructs row-level simulation data from a persisted
// summary. Raw per-scenario rows are not stored, by design, to bound
// storage; the export synthesizes them from the histogram.
type ExportService interface {
	ExportSimulationResults(ctx context.Context, propertyID string) (*Export, error)
}

type exportService struct {
	cfg        config.ExportConfig
	resultRepo repository.RiskResultRepository
	log        logger.Logger
}

// NewExportService creates the exporter.
func NewExportService(cfg config.ExportConfig, resultRepo repository.RiskResultRepository, log logger.Logger) ExportService {
	return &exportService{
		cfg:        cfg,
		resultRepo: resultRepo,
		log:        log.WithComponent("ExportService"),
	}
}

func (s *exportService) ExportSimulationResults(ctx context.Context, propertyID string) (*Export, error) {
	result, err := s.resultRepo.LatestByProperty(ctx, propertyID)
	if err != nil {
		return nil, errors.ErrPersistence("loading risk result").WithError(err)
	}
	if result == nil {
		return nil, errors.ErrRiskResultNotFound(propertyID)
	}

	csvBytes, rows, err := s.renderCSV(result)
	if err != nil {
		return nil, errors.ErrInternal("rendering export").WithError(err)
	}

	filename := fmt.Sprintf(constants.ExportFilenameFormat, result.PropertyID)
	export := &Export{
		Filename:    filename,
		ContentType: ExportFormatCSV,
		Data:        csvBytes,
		RowCount:    rows,
	}

	if rows > s.cfg.CompressionThreshold {
		zipped, err := zipSingleEntry(filename, csvBytes)
		if err != nil {
			return nil, errors.ErrInternal("compressing export").WithError(err)
		}
		export.Data = zipped
		export.ContentType = ExportFormatZIP
		export.Filename = filename + ".zip"
		export.Compressed = true
	}

	s.log.Info(ctx, "export produced", logger.Fields{
		"property_id": propertyID,
		"rows":        rows,
		"compressed":  export.Compressed,
	})
	return export, nil
}

// renderCSV synthesizes one row per histogram unit. Bin geometry mirrors
// BuildIRRHistogram: width (p95-p5)/len(histogram), starting one width below
// p5. Within a bin, rows sit at evenly spaced midpoints so the output is
// deterministic for a given stored summary.
func (s *exportService) renderCSV(result *models.RiskResult) ([]byte, int, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"property_id", "row_id", "irr", "npv", "risk_grade", "assumption_set", "run_at"}
	if err := w.Write(header); err != nil {
		return nil, 0, err
	}

	hist := result.Summary.Histogram
	p5 := result.VaR5
	p95 := result.VaR95

	binWidth := defaultBinWidth
	if len(hist) > 0 && p95 > p5 {
		binWidth = (p95 - p5) / float64(len(hist))
	}
	binStart := p5 - binWidth

	runAt := result.RunAt.UTC().Format(time.RFC3339)
	rowID := 0
	for bin, count := range hist {
		if count <= 0 {
			continue
		}
		lo := binStart + float64(bin)*binWidth
		for j := 0; j < count; j++ {
			// NPV is a placeholder: raw cash flows are not retained.
			irr := lo + binWidth*(float64(j)+0.5)/float64(count)
			record := []string{
				result.PropertyID,
				strconv.Itoa(rowID),
				strconv.FormatFloat(irr, 'f', 6, 64),
				"0.00",
				string(result.RiskGrade),
				constants.ExportAssumptionSet,
				runAt,
			}
			if err := w.Write(record); err != nil {
				return nil, 0, err
			}
			rowID++
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, 0, err
	}
	return buf.Bytes(), rowID, nil
}

// zipSingleEntry wraps content in a deflate-compressed archive with one entry.
func zipSingleEntry(name string, content []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	entry, err := zw.Create(name)
	if err != nil {
		return nil, err
	}
	if _, err := entry.Write(content); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
