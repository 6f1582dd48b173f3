package plugins

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"justapengu.in/bestlap/internal/acserver"
	"justapengu.in/bestlap/pkg/bestlap"
)

var errCarNotFound = errors.New("car not found")

type fakeServer struct {
	cars        map[acserver.CarID]acserver.CarInfo
	leaderboard []*acserver.LeaderboardLine
	commands    chan []byte
}

func newFakeServer(cars ...acserver.CarInfo) *fakeServer {
	s := &fakeServer{
		cars:     make(map[acserver.CarID]acserver.CarInfo),
		commands: make(chan []byte, 10),
	}

	for _, car := range cars {
		s.cars[car.CarID] = car
	}

	return s
}

func (s *fakeServer) GetCarInfo(id acserver.CarID) (acserver.CarInfo, error) {
	car, ok := s.cars[id]

	if !ok {
		return acserver.CarInfo{}, errCarNotFound
	}

	return car, nil
}

func (s *fakeServer) GetSessionInfo() acserver.SessionInfo {
	return acserver.SessionInfo{Name: "Practice", SessionType: acserver.SessionTypePractice}
}

func (s *fakeServer) GetLeaderboard() []*acserver.LeaderboardLine {
	return s.leaderboard
}

func (s *fakeServer) RelayCommand(data []byte) error {
	s.commands <- data

	return nil
}

type recordingNotifier struct {
	mutex    sync.Mutex
	payloads []bestlap.Payload
}

func (n *recordingNotifier) Notify(_ context.Context, payload bestlap.Payload) error {
	n.mutex.Lock()
	defer n.mutex.Unlock()

	n.payloads = append(n.payloads, payload)

	return nil
}

func (n *recordingNotifier) Payloads() []bestlap.Payload {
	n.mutex.Lock()
	defer n.mutex.Unlock()

	return append([]bestlap.Payload(nil), n.payloads...)
}

func lapOf(driverName string, lapTime time.Duration, cuts int) acserver.Lap {
	return acserver.Lap{
		DriverName:    driverName,
		LapTime:       lapTime,
		Cuts:          cuts,
		CompletedTime: time.Now(),
	}
}
