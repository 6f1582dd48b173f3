package udp

import (
	"time"

	"justapengu.in/bestlap/internal/acserver"
)

type Event uint8

const (
	// Receive
	EventNewSession       Event = 50
	EventNewConnection    Event = 51
	EventConnectionClosed Event = 52
	EventCarUpdate        Event = 53 // not decoded
	EventCarInfo          Event = 54
	EventEndSession       Event = 55
	EventVersion          Event = 56
	EventClientLoaded     Event = 58
	EventSessionInfo      Event = 59
	EventLapCompleted     Event = 73

	// Send
	EventGetCarInfo     Event = 201
	EventGetSessionInfo Event = 204
)

type Message interface {
	Event() Event
}

type CarID = acserver.CarID
type DriverGUID string

type LapCompleted struct {
	CarID     CarID  `json:"CarID"`
	LapTime   uint32 `json:"LapTime"`
	Cuts      uint8  `json:"Cuts"`
	CarsCount uint8  `json:"CarsCount"`

	Cars []*LapCompletedCar `json:"Cars"`
}

func (LapCompleted) Event() Event {
	return EventLapCompleted
}

type LapCompletedCar struct {
	CarID     CarID  `json:"CarID"`
	LapTime   uint32 `json:"LapTime"`
	Laps      uint16 `json:"Laps"`
	Completed uint8  `json:"Completed"`
}

// SessionCarInfo is sent on EventNewConnection and EventConnectionClosed.
type SessionCarInfo struct {
	CarID      CarID      `json:"CarID"`
	DriverName string     `json:"DriverName"`
	DriverGUID DriverGUID `json:"DriverGUID"`
	CarModel   string     `json:"CarModel"`
	CarSkin    string     `json:"CarSkin"`

	EventType Event `json:"EventType"`
}

func (s SessionCarInfo) Event() Event {
	return s.EventType
}

func (s SessionCarInfo) ToACServer() acserver.CarInfo {
	return acserver.CarInfo{
		Driver: acserver.Driver{
			Name: s.DriverName,
			GUID: string(s.DriverGUID),
		},
		CarID:       s.CarID,
		Model:       s.CarModel,
		Skin:        s.CarSkin,
		IsConnected: s.EventType == EventNewConnection,
	}
}

// CarInfo is the server's answer to EventGetCarInfo.
type CarInfo struct {
	CarID       CarID      `json:"CarID"`
	IsConnected bool       `json:"IsConnected"`
	CarModel    string     `json:"CarModel"`
	CarSkin     string     `json:"CarSkin"`
	DriverName  string     `json:"DriverName"`
	DriverTeam  string     `json:"DriverTeam"`
	DriverGUID  DriverGUID `json:"DriverGUID"`
}

func (CarInfo) Event() Event {
	return EventCarInfo
}

func (c CarInfo) ToACServer() acserver.CarInfo {
	return acserver.CarInfo{
		Driver: acserver.Driver{
			Name: c.DriverName,
			Team: c.DriverTeam,
			GUID: string(c.DriverGUID),
		},
		CarID:       c.CarID,
		Model:       c.CarModel,
		Skin:        c.CarSkin,
		IsConnected: c.IsConnected,
	}
}

type EndSession string

func (EndSession) Event() Event {
	return EventEndSession
}

type Version uint8

func (Version) Event() Event {
	return EventVersion
}

type ClientLoaded CarID

func (ClientLoaded) Event() Event {
	return EventClientLoaded
}

type SessionInfo struct {
	Version             uint8                `json:"Version"`
	SessionIndex        uint8                `json:"SessionIndex"`
	CurrentSessionIndex uint8                `json:"CurrentSessionIndex"`
	SessionCount        uint8                `json:"SessionCount"`
	ServerName          string               `json:"ServerName"`
	Track               string               `json:"Track"`
	TrackConfig         string               `json:"TrackConfig"`
	Name                string               `json:"Name"`
	Type                acserver.SessionType `json:"Type"`
	Time                uint16               `json:"Time"`
	Laps                uint16               `json:"Laps"`
	WaitTime            uint16               `json:"WaitTime"`
	AmbientTemp         uint8                `json:"AmbientTemp"`
	RoadTemp            uint8                `json:"RoadTemp"`
	WeatherGraphics     string               `json:"WeatherGraphics"`
	ElapsedMilliseconds int32                `json:"ElapsedMilliseconds"`

	EventType Event `json:"EventType"`
}

func (s SessionInfo) Event() Event {
	return s.EventType
}

func (s SessionInfo) ToACServer() acserver.SessionInfo {
	return acserver.SessionInfo{
		Version:             s.Version,
		SessionIndex:        s.SessionIndex,
		CurrentSessionIndex: s.CurrentSessionIndex,
		SessionCount:        s.SessionCount,
		ServerName:          s.ServerName,
		Track:               s.Track,
		TrackConfig:         s.TrackConfig,
		Name:                s.Name,
		NumMinutes:          s.Time,
		NumLaps:             s.Laps,
		WaitTime:            int(s.WaitTime),
		AmbientTemp:         s.AmbientTemp,
		RoadTemp:            s.RoadTemp,
		WeatherGraphics:     s.WeatherGraphics,
		ElapsedTime:         time.Duration(s.ElapsedMilliseconds) * time.Millisecond,
		SessionType:         s.Type,
	}
}

func ConvertSessionInfo(eventType Event, session acserver.SessionInfo) SessionInfo {
	return SessionInfo{
		Version:             session.Version,
		SessionIndex:        session.SessionIndex,
		CurrentSessionIndex: session.CurrentSessionIndex,
		SessionCount:        session.SessionCount,
		ServerName:          session.ServerName,
		Track:               session.Track,
		TrackConfig:         session.TrackConfig,
		Name:                session.Name,
		Type:                session.SessionType,
		Time:                session.NumMinutes,
		Laps:                session.NumLaps,
		WaitTime:            uint16(session.WaitTime),
		AmbientTemp:         session.AmbientTemp,
		RoadTemp:            session.RoadTemp,
		WeatherGraphics:     session.WeatherGraphics,
		ElapsedMilliseconds: int32(session.ElapsedTime.Milliseconds()),
		EventType:           eventType,
	}
}

// GetCarInfo asks the server for an EventCarInfo answer about CarID.
type GetCarInfo struct {
	CarID CarID
}

func (GetCarInfo) Event() Event {
	return EventGetCarInfo
}

// GetSessionInfo asks the server for an EventSessionInfo answer. A SessionIndex of -1
// means the current session.
type GetSessionInfo struct {
	SessionIndex int16
}

func (GetSessionInfo) Event() Event {
	return EventGetSessionInfo
}
