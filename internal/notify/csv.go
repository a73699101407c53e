package notify

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"leadscout-engine/internal/domain"
)

const csvDirName = "csv_exports"

var (
	nonDigitRe = regexp.MustCompile(`\D`)
	fileNameRe = regexp.MustCompile(`[^a-zA-Z0-9]`)
)

var csvHeader = []string{
	"Business Name",
	"Phone Number",
	"Street",
	"City",
	"Zip Code",
	"Category/Niche",
	"Website URL",
	"Source URL",
	"Date Discovered",
	"Review Count",
	"Rating",
	"Owner/Manager Name",
}

// formatPhone renders ten-digit numbers as (xxx) xxx-xxxx and leaves
// anything else untouched.
func formatPhone(phone string) string {
	if phone == "" {
		return ""
	}
	digits := nonDigitRe.ReplaceAllString(phone, "")
	if len(digits) == 10 {
		return fmt.Sprintf("(%s) %s-%s", digits[:3], digits[3:6], digits[6:])
	}
	return phone
}

// writeBatchCSV exports one batch under csv_exports/ and returns the file
// path. Files are named {source}_{keyword}_{city}_{date}.csv with
// non-alphanumerics squashed to underscores.
func writeBatchCSV(dataDir string, source domain.SourceKind, batch domain.Batch) (string, error) {
	dir := filepath.Join(dataDir, csvDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	name := fmt.Sprintf("%s_%s_%s_%s.csv",
		source,
		fileNameRe.ReplaceAllString(batch.Keyword, "_"),
		fileNameRe.ReplaceAllString(batch.TargetCity, "_"),
		time.Now().Format("2006-01-02"),
	)
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return "", err
	}
	for _, lead := range batch.Leads {
		row := []string{
			lead.BusinessName,
			formatPhone(lead.Phone),
			lead.Street,
			lead.City,
			lead.ZipCode,
			lead.Category,
			lead.Website,
			lead.MapURL,
			lead.FoundAt.Format("2006-01-02"),
			strconv.Itoa(lead.ReviewCount),
			strconv.FormatFloat(lead.Rating, 'f', -1, 64),
			"", // owner/manager is filled in by hand downstream
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return path, f.Close()
}
