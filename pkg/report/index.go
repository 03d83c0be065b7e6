package report

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"

	"github.com/c9s/hawkes/pkg/hawkes"
)

var log = logrus.WithField("component", "report")

// Run is one fit recorded in the output directory.
type Run struct {
	ID      string         `json:"id"`
	Events  string         `json:"events"`
	Output  string         `json:"output"`
	Options hawkes.Options `json:"options"`
	Fits    int            `json:"fits"`
	Failed  int            `json:"failed"`
	Time    time.Time      `json:"time"`
}

type ReportIndex struct {
	Runs []Run `json:"runs,omitempty"`
}

func getReportIndexPath(outputDirectory string) string {
	return filepath.Join(outputDirectory, "index.json")
}

func lockIndex(outputDirectory string) (*flock.Flock, error) {
	indexLock := flock.New(getReportIndexPath(outputDirectory) + ".lock")
	if err := indexLock.Lock(); err != nil {
		log.WithError(err).Errorf("report index file lock error: %s", err)
		return nil, err
	}
	return indexLock, nil
}

func unlockIndex(indexLock *flock.Flock) {
	if err := indexLock.Unlock(); err != nil {
		log.WithError(err).Errorf("report index file unlock error: %s", err)
	}
}

func LoadReportIndex(outputDirectory string) (*ReportIndex, error) {
	indexLock, err := lockIndex(outputDirectory)
	if err != nil {
		return nil, err
	}
	defer unlockIndex(indexLock)

	return loadReportIndexLocked(getReportIndexPath(outputDirectory))
}

// AddReportIndexRun appends a run to the index of the output directory.
// Concurrent fits writing to the same directory are serialized by a file lock.
func AddReportIndexRun(outputDirectory string, run Run) error {
	indexLock, err := lockIndex(outputDirectory)
	if err != nil {
		return err
	}
	defer unlockIndex(indexLock)

	indexFile := getReportIndexPath(outputDirectory)
	reportIndex, err := loadReportIndexLocked(indexFile)
	if err != nil {
		return err
	}

	reportIndex.Runs = append(reportIndex.Runs, run)
	return writeReportIndexLocked(indexFile, reportIndex)
}

// writeReportIndexLocked must be protected by file lock
func writeReportIndexLocked(indexFilePath string, reportIndex *ReportIndex) error {
	o, err := json.MarshalIndent(reportIndex, "", "  ")
	if err != nil {
		return err
	}

	return ioutil.WriteFile(indexFilePath, o, 0644)
}

// loadReportIndexLocked must be protected by file lock
func loadReportIndexLocked(indexFilePath string) (*ReportIndex, error) {
	var reportIndex ReportIndex
	if fileInfo, err := os.Stat(indexFilePath); os.IsNotExist(err) {
		return &reportIndex, nil
	} else if err != nil {
		return nil, err
	} else if fileInfo.Size() != 0 {
		o, err := ioutil.ReadFile(indexFilePath)
		if err != nil {
			return nil, err
		}

		if err := json.Unmarshal(o, &reportIndex); err != nil {
			return nil, err
		}
	}

	return &reportIndex, nil
}
