package bestlap

import (
	"bytes"
	"context"
	"io/ioutil"
	"os"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/hako/durafmt"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// LapEvent is one completed lap as delivered by the event source.
type LapEvent struct {
	DriverName string
	LapTimeMs  uint32
	Cuts       uint32
}

// Result describes what the Coordinator did with a lap.
type Result struct {
	Decision Decision

	IsNewAllTimeBest bool
	IsNewSessionBest bool

	// Persisted is set when a snapshot including this lap was written successfully.
	Persisted bool
	// Notified is set when a notification was dispatched. It says nothing about delivery.
	Notified bool
}

// Coordinator applies the acceptance policy to each lap, updates the Store, rewrites the
// snapshot when the all-time table changes and dispatches notifications to the collector.
type Coordinator struct {
	config   Config
	store    *Store
	notifier Notifier
	logger   logrus.FieldLogger

	notifications sync.WaitGroup

	now func() time.Time
}

func NewCoordinator(config Config, store *Store, notifier Notifier, logger logrus.FieldLogger) *Coordinator {
	return &Coordinator{
		config:   config,
		store:    store,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

func (c *Coordinator) Store() *Store {
	return c.store
}

// Load reads the snapshot into the all-time table. A missing snapshot is an empty table.
// Any other failure is logged and also leaves the table empty; the returned error is for
// information only and should not stop the caller.
func (c *Coordinator) Load() error {
	if !c.config.PersistenceEnabled {
		return nil
	}

	path := c.config.SnapshotPath()

	f, err := os.Open(path)

	if os.IsNotExist(err) {
		c.logger.Infof("No best lap snapshot found at %s, starting with an empty table", path)
		c.store.LoadAllTime(nil)

		return nil
	} else if err != nil {
		c.logger.WithError(err).Errorf("Could not open best lap snapshot at %s", path)
		c.store.LoadAllTime(nil)

		return errors.Wrapf(err, "could not open snapshot %s", path)
	}

	defer f.Close()

	entries, err := ReadSnapshotCSV(f)

	if err != nil {
		c.logger.WithError(err).Errorf("Could not read best lap snapshot at %s, starting with an empty table", path)
		c.store.LoadAllTime(nil)

		return err
	}

	c.store.LoadAllTime(entries)

	numDrivers := c.store.Len()
	driversTracked.Set(float64(numDrivers))

	c.logger.Infof("Loaded best laps for %d drivers from %s", numDrivers, path)

	return nil
}

// OnLapCompleted handles a single completed lap. It never blocks on the collector.
func (c *Coordinator) OnLapCompleted(lap LapEvent) Result {
	logger := c.logger.WithFields(logrus.Fields{
		"driver":   lap.DriverName,
		"lap_time": FormatLapTime(lap.LapTimeMs),
		"cuts":     lap.Cuts,
	})

	result := Result{
		Decision: Evaluate(lap.Cuts, lap.LapTimeMs, c.config),
	}

	lapsTotal.WithLabelValues(result.Decision.String()).Inc()

	switch result.Decision {
	case RejectCuts:
		logger.Debugf("Lap rejected, more than %d cuts", c.config.MaxAllowedCuts)
		return result
	case RejectBelowMinimum:
		logger.Debugf("Lap rejected, faster than the %s minimum", FormatLapTime(c.config.MinimumLapTimeMs))
		return result
	}

	previous, improved := c.store.UpdateAllTime(lap.DriverName, lap.LapTimeMs)

	if improved {
		result.IsNewAllTimeBest = true
		personalBestsTotal.WithLabelValues("all_time").Inc()

		if previous.LapTimeMs > 0 {
			delta := time.Duration(previous.LapTimeMs-lap.LapTimeMs) * time.Millisecond
			logger.Infof("New personal best, %s faster than %s", durafmt.Parse(delta).String(), FormatLapTime(previous.LapTimeMs))
		} else {
			logger.Infof("First recorded lap for driver")
		}
	}

	if c.config.SessionMode && c.store.TryUpdateSession(lap.DriverName, lap.LapTimeMs) {
		result.IsNewSessionBest = true
		personalBestsTotal.WithLabelValues("session").Inc()

		logger.Debugf("New session best")
	}

	if result.IsNewAllTimeBest && c.config.PersistenceEnabled {
		if err := c.WriteSnapshot(); err != nil {
			logger.WithError(err).Error("Could not write best lap snapshot")
		} else {
			result.Persisted = true
		}
	}

	if ShouldNotify(c.config, result.IsNewAllTimeBest, result.IsNewSessionBest) {
		c.dispatch(NewPayload(lap.DriverName, lap.LapTimeMs), logger)
		result.Notified = true
	}

	return result
}

// WriteSnapshot rewrites the whole snapshot file. The store stays locked from reading the
// table until the file is written, so snapshot writes never overlap each other or an update.
func (c *Coordinator) WriteSnapshot() error {
	path := c.config.SnapshotPath()

	err := c.store.WithSnapshot(func(entries []Entry) error {
		buf := new(bytes.Buffer)

		if err := WriteSnapshotCSV(buf, entries, c.now()); err != nil {
			return err
		}

		if err := os.MkdirAll(c.config.PersistenceDirectory, 0755); err != nil {
			return errors.Wrapf(err, "could not create snapshot directory %s", c.config.PersistenceDirectory)
		}

		if err := ioutil.WriteFile(path, buf.Bytes(), 0644); err != nil {
			return errors.Wrapf(err, "could not write snapshot %s", path)
		}

		driversTracked.Set(float64(len(entries)))

		c.logger.Debugf("Wrote best lap snapshot for %d drivers to %s (%s)", len(entries), path, humanize.Bytes(uint64(buf.Len())))

		return nil
	})

	if err != nil {
		snapshotWritesTotal.WithLabelValues("error").Inc()
		return err
	}

	snapshotWritesTotal.WithLabelValues("ok").Inc()

	return nil
}

func (c *Coordinator) dispatch(payload Payload, logger logrus.FieldLogger) {
	requestID := uuid.New().String()
	logger = logger.WithField("request_id", requestID)

	c.notifications.Add(1)

	go func() {
		defer c.notifications.Done()

		defer func() {
			if r := recover(); r != nil {
				notificationsTotal.WithLabelValues("error").Inc()
				logger.Errorf("Notification panicked: %v", r)
			}
		}()

		err := c.notifier.Notify(WithRequestID(context.Background(), requestID), payload)

		switch {
		case err == nil:
			notificationsTotal.WithLabelValues("ok").Inc()
			logger.Debugf("Notification delivered")
		case IsTimeout(err):
			notificationsTotal.WithLabelValues("timeout").Inc()
			logger.WithError(err).Warnf("Notification timed out after %s", c.config.NotificationTimeout())
		default:
			notificationsTotal.WithLabelValues("error").Inc()

			if statusErr, ok := errors.Cause(err).(*StatusError); ok {
				logger = logger.WithField("status_code", statusErr.StatusCode)
			}

			logger.WithError(err).Error("Could not deliver notification")
		}
	}()
}

// Close waits for in-flight notifications until ctx is done, after which they are
// abandoned. Call it once the event source has stopped delivering laps.
func (c *Coordinator) Close(ctx context.Context) error {
	done := make(chan struct{})

	go func() {
		c.notifications.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "abandoned in-flight notifications")
	}
}
