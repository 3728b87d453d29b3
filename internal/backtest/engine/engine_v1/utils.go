package engine

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/qqq3x-signal/internal/strategy"
)

func getResultFolder(resultsFolder string, dataPath string, config strategy.Config) string {
	// Data folder with time range if specified
	folder := resultsFolder

	if config.StartDate.IsSome() || config.EndDate.IsSome() {
		folder = filepath.Join(folder, fmt.Sprintf("%s_%s", dateLabel(config.StartDate), dateLabel(config.EndDate)))
	}

	// Add data file name as the final folder
	dataFileName := strings.TrimSuffix(filepath.Base(dataPath), filepath.Ext(dataPath))

	return filepath.Join(folder, dataFileName)
}

func dateLabel(date optional.Option[time.Time]) string {
	if date.IsNone() {
		return "all"
	}

	return date.Unwrap().Format("20060102")
}
