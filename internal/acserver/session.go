package acserver

import "time"

const CurrentProtocolVersion = 4

type SessionType uint8

const (
	SessionTypeBooking    SessionType = 0
	SessionTypePractice   SessionType = 1
	SessionTypeQualifying SessionType = 2
	SessionTypeRace       SessionType = 3
)

func (s SessionType) String() string {
	switch s {
	case SessionTypeBooking:
		return "Booking"
	case SessionTypePractice:
		return "Practice"
	case SessionTypeQualifying:
		return "Qualifying"
	case SessionTypeRace:
		return "Race"
	default:
		return "Unknown SessionType"
	}
}

type SessionInfo struct {
	Version             uint8         `json:"Version"`
	SessionIndex        uint8         `json:"SessionIndex"`
	CurrentSessionIndex uint8         `json:"CurrentSessionIndex"`
	SessionCount        uint8         `json:"SessionCount"`
	ServerName          string        `json:"ServerName"`
	Track               string        `json:"Track"`
	TrackConfig         string        `json:"TrackConfig"`
	Name                string        `json:"Name"`
	NumMinutes          uint16        `json:"Time"`
	NumLaps             uint16        `json:"Laps"`
	WaitTime            int           `json:"WaitTime"`
	AmbientTemp         uint8         `json:"AmbientTemp"`
	RoadTemp            uint8         `json:"RoadTemp"`
	WeatherGraphics     string        `json:"WeatherGraphics"`
	ElapsedTime         time.Duration `json:"ElapsedTime"`
	SessionType         SessionType   `json:"SessionType"`
}
