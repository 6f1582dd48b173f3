package bestlap

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const snapshotTimestampFormat = "2006-01-02 15:04:05"

var snapshotHeader = []string{"Nickname", "BestLapTimeMs", "FormattedTime", "LastUpdated"}

// WriteSnapshotCSV writes the header followed by one row per entry, in the order given.
// Every row carries writtenAt (in UTC) as its LastUpdated column.
func WriteSnapshotCSV(w io.Writer, entries []Entry, writtenAt time.Time) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(snapshotHeader); err != nil {
		return errors.Wrap(err, "could not write snapshot header")
	}

	timestamp := writtenAt.UTC().Format(snapshotTimestampFormat)

	for _, entry := range entries {
		row := []string{
			entry.Name,
			strconv.FormatUint(uint64(entry.LapTimeMs), 10),
			FormatLapTime(entry.LapTimeMs),
			timestamp,
		}

		if err := cw.Write(row); err != nil {
			return errors.Wrapf(err, "could not write snapshot row for %s", entry.Name)
		}
	}

	cw.Flush()

	return errors.Wrap(cw.Error(), "could not flush snapshot")
}

// ReadSnapshotCSV parses a snapshot. The header row and blank lines are skipped, as are
// rows with too few fields or a lap time that is not a number. A missing or unreadable
// LastUpdated leaves UpdatedAt zero. Rows the csv reader rejects (e.g. a stray quote) are
// skipped too. An error means the file as a whole could not be parsed, which is the case
// when a quoted field is still open at the end of the file.
func ReadSnapshotCSV(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var (
		entries  []Entry
		quoteErr error
	)

	for first := true; ; first = false {
		record, err := cr.Read()

		if err == io.EOF {
			// an unterminated quote swallows everything after it
			if quoteErr != nil {
				return nil, errors.Wrap(quoteErr, "could not parse snapshot")
			}

			break
		}

		quoteErr = nil

		if parseErr, ok := err.(*csv.ParseError); ok {
			if parseErr.Err == csv.ErrQuote {
				quoteErr = err
			}

			continue
		} else if err != nil {
			return nil, errors.Wrap(err, "could not read snapshot")
		}

		if first && strings.EqualFold(strings.TrimSpace(record[0]), snapshotHeader[0]) {
			continue
		}

		if len(record) < 2 {
			continue
		}

		name := record[0]

		if strings.TrimSpace(name) == "" {
			continue
		}

		lapTimeMs, err := strconv.ParseUint(strings.TrimSpace(record[1]), 10, 32)

		if err != nil {
			continue
		}

		entry := Entry{
			Name:      name,
			LapTimeMs: uint32(lapTimeMs),
		}

		if len(record) >= 4 {
			if updatedAt, err := time.ParseInLocation(snapshotTimestampFormat, strings.TrimSpace(record[3]), time.UTC); err == nil {
				entry.UpdatedAt = updatedAt
			}
		}

		entries = append(entries, entry)
	}

	return entries, nil
}
