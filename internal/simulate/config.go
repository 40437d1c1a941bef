// Package simulate drives a running gigrec server with a synthetic
// marketplace: it registers projects and freelancers, replays user
// activity over HTTP and samples the resulting recommendations.
package simulate

import (
	"runtime"
	"time"
)

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL     string        // Base URL of the service
	Projects    int           // Number of projects to register
	Freelancers int           // Number of freelancers to register
	Users       int           // Number of freelancer-side users generating views and applications
	Clients     int           // Number of clients generating hires
	Events      int           // Number of view and application events
	Hires       int           // Number of hire events
	Duplicates  int           // Number of events resent to exercise deduplication
	Span        time.Duration // Events are spread over this much history
	Workers     int           // Number of concurrent requests
	Timeout     time.Duration // HTTP request timeout
	Settle      time.Duration // Upper bound on waiting for the queue to drain
	Sample      int           // Number of users and clients to fetch recommendations for
	Seed        uint64        // Workload seed; equal seeds give equal workloads
	OutputFile  string        // Optional YAML warm-up seed written from the workload
	Verbose     bool          // Log every sampled recommendation list
}

// DefaultConfig returns a moderate workload against a local server.
func DefaultConfig() Config {
	return Config{
		BaseURL:     "http://localhost:9080",
		Projects:    200,
		Freelancers: 80,
		Users:       100,
		Clients:     20,
		Events:      5000,
		Hires:       100,
		Duplicates:  50,
		Span:        72 * time.Hour,
		Workers:     runtime.NumCPU() * 2,
		Timeout:     10 * time.Second,
		Settle:      30 * time.Second,
		Sample:      5,
		Seed:        1,
	}
}

// Stats holds run statistics.
type Stats struct {
	ItemsRegistered    int
	ItemsFailed        int
	EventsGenerated    int
	EventsAccepted     int
	EventsDuplicate    int
	EventsBackpressure int
	EventsFailed       int
	Recommendations    int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
