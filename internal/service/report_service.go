package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"onpointe/prevention/internal/domain"
	"onpointe/prevention/internal/repository"
	"onpointe/prevention/internal/risk"
	"onpointe/prevention/internal/storage"
)

const (
	reportDays      = 28
	reportURLExpiry = time.Hour
)

// ReportService exports a dancer's recent check-ins for their PT.
type ReportService interface {
	// ExportDancerReport uploads a CSV and returns a time-limited download URL.
	ExportDancerReport(ctx context.Context, ptID, dancerID string) (string, error)
}

// reportService implements the ReportService interface.
type reportService struct {
	userRepo    repository.UserRepository
	checkInRepo repository.CheckInRepository
	files       storage.FileStorage
	logger      *zap.Logger
	now         func() time.Time
}

// NewReportService creates a new instance of reportService.
func NewReportService(
	userRepo repository.UserRepository,
	checkInRepo repository.CheckInRepository,
	files storage.FileStorage,
	logger *zap.Logger,
) ReportService {
	return &reportService{
		userRepo:    userRepo,
		checkInRepo: checkInRepo,
		files:       files,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *reportService) ExportDancerReport(ctx context.Context, ptID, dancerID string) (string, error) {
	dancer, err := s.userRepo.GetByID(ctx, dancerID)
	if err != nil {
		return "", err
	}
	if dancer.PTID != ptID {
		return "", ErrDancerNotLinked
	}

	today := s.now().UTC()
	from := today.AddDate(0, 0, -(reportDays - 1)).Format(dateLayout)
	entries, err := s.checkInRepo.GetRange(ctx, dancerID, from, today.Format(dateLayout))
	if err != nil {
		return "", err
	}

	body, err := WriteReportCSV(entries)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("reports/%s/%s/%s.csv", ptID, dancerID, uuid.NewString())
	if err := s.files.PutObject(ctx, key, "text/csv", bytes.NewReader(body)); err != nil {
		return "", err
	}

	url, err := s.files.GeneratePresignedDownloadURL(ctx, key, reportURLExpiry)
	if err != nil {
		// Nobody can reach the upload without a URL.
		if delErr := s.files.DeleteObject(ctx, key); delErr != nil {
			s.logger.Warn("orphaned report object", zap.String("key", key), zap.Error(delErr))
		}
		return "", err
	}

	s.logger.Info("report exported",
		zap.String("dancerId", dancerID),
		zap.Int("rows", len(entries)))
	return url, nil
}

// WriteReportCSV renders entries oldest first, one row per check-in.
func WriteReportCSV(entries []domain.CheckIn) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"date", "minutes", "rpe", "load", "fatigue", "sore", "sleep", "severity", "reasons", "acwr", "notes"}); err != nil {
		return nil, err
	}

	for _, entry := range entries {
		severity := ""
		reasons := ""
		acwr := ""
		if entry.Risk != nil {
			severity = entry.Risk.Severity
			reasons = strings.Join(entry.Risk.Reasons, "; ")
			if entry.Risk.ACWR != nil {
				acwr = strconv.FormatFloat(entry.Risk.ACWR.Float(), 'f', 2, 64)
			}
		}
		row := []string{
			entry.Date,
			formatNumber(entry.Minutes),
			formatNumber(entry.RPE),
			strconv.Itoa(risk.LoadFor(entry)),
			formatNumber(entry.Fatigue),
			formatNumber(entry.Sore),
			formatNumber(entry.Sleep),
			severity,
			reasons,
			acwr,
			entry.Notes,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func formatNumber(n domain.Number) string {
	return strconv.FormatFloat(n.Float(), 'f', -1, 64)
}
