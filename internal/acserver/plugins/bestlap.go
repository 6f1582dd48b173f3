package plugins

import (
	"github.com/sirupsen/logrus"

	"justapengu.in/bestlap/internal/acserver"
	"justapengu.in/bestlap/pkg/bestlap"
)

// BestLapPlugin feeds completed laps to a bestlap.Coordinator, keyed by driver name.
type BestLapPlugin struct {
	server acserver.ServerPlugin
	logger acserver.Logger

	coordinator *bestlap.Coordinator
}

func NewBestLapPlugin(coordinator *bestlap.Coordinator) *BestLapPlugin {
	return &BestLapPlugin{
		coordinator: coordinator,
	}
}

func (b *BestLapPlugin) Init(server acserver.ServerPlugin, logger acserver.Logger) error {
	b.server = server
	b.logger = logger

	return nil
}

func (b *BestLapPlugin) OnVersion(version uint16) error {
	if version != acserver.CurrentProtocolVersion {
		b.logger.Warnf("Server speaks plugin protocol version %d, expected %d", version, acserver.CurrentProtocolVersion)
	}

	return nil
}

func (b *BestLapPlugin) OnNewSession(newSession acserver.SessionInfo) error {
	b.logger.WithFields(logrus.Fields{
		"track":   newSession.Track,
		"session": newSession.SessionType.String(),
	}).Infof("New session: %s, %d drivers with a best lap on record", newSession.Name, b.coordinator.Store().Len())

	return nil
}

func (b *BestLapPlugin) OnSessionInfo(_ acserver.SessionInfo) error {
	return nil
}

func (b *BestLapPlugin) OnEndSession(_ string) error {
	return nil
}

func (b *BestLapPlugin) OnNewConnection(_ acserver.CarInfo) error {
	return nil
}

func (b *BestLapPlugin) OnCarInfo(_ acserver.CarInfo) error {
	return nil
}

func (b *BestLapPlugin) OnClientLoaded(_ acserver.CarInfo) error {
	return nil
}

func (b *BestLapPlugin) OnLapCompleted(carID acserver.CarID, lap acserver.Lap) error {
	driverName := lap.DriverName

	if driverName == "" {
		car, err := b.server.GetCarInfo(carID)

		if err != nil {
			return err
		}

		driverName = car.Driver.Name
	}

	if driverName == "" {
		b.logger.Warnf("Lap completed by car %d with no driver name, ignoring", carID)
		return nil
	}

	lapTimeMs := lap.LapTime.Milliseconds()

	if lapTimeMs <= 0 || lapTimeMs > int64(^uint32(0)) {
		b.logger.Warnf("Lap completed by %s with an invalid lap time %s, ignoring", driverName, lap.LapTime)
		return nil
	}

	result := b.coordinator.OnLapCompleted(bestlap.LapEvent{
		DriverName: driverName,
		LapTimeMs:  uint32(lapTimeMs),
		Cuts:       uint32(lap.Cuts),
	})

	b.logger.WithFields(logrus.Fields{
		"driver":   driverName,
		"decision": result.Decision.String(),
	}).Debugf("Lap processed (all time best: %t, session best: %t)", result.IsNewAllTimeBest, result.IsNewSessionBest)

	return nil
}

func (b *BestLapPlugin) OnConnectionClosed(_ acserver.CarInfo) error {
	return nil
}
