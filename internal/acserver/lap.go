package acserver

import "time"

type Lap struct {
	DriverGUID    string
	DriverName    string
	LapTime       time.Duration
	Cuts          int
	CompletedTime time.Time
}

type LeaderboardLine struct {
	CarID     CarID
	Time      time.Duration
	NumLaps   int
	Completed bool
}
