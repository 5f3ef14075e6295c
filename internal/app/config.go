package app

import "time"

type Config struct {
	HTTPAddr    string
	DatabaseURL string
	DataDir     string
	AdminToken  string
	AdminIDs    []int64

	LogLevel string
	LogFile  string

	MinWait          time.Duration
	MaxWait          time.Duration
	MonitorInterval  time.Duration
	LeaderboardLimit int
}
