// Package probe exercises a running salary service end to end: it reads the
// form vocabulary, submits generated survey records concurrently and checks
// that recomputing a sample without the prediction cache gives the same salary.
package probe

import "time"

// Config holds configuration for a probe run.
type Config struct {
	BaseURL    string        // Base URL of the service
	NumRecords int           // Number of records to generate
	Workers    int           // Number of concurrent submitters
	Verify     int           // Records recomputed through the explain endpoint
	Timeout    time.Duration // HTTP request timeout
	Seed       uint64        // Generator seed; zero picks one from the clock
	OutputFile string        // Optional JSON file receiving the generated records
	Verbose    bool          // Log every failed submission
}

// Stats holds probe statistics.
type Stats struct {
	ModelVersion     string
	RecordsGenerated int
	Submitted        int
	Successful       int
	Rejected         int // 4xx answers: validation or unknown category
	RateLimited      int
	Failed           int // transport errors and 5xx
	Verified         int
	Mismatched       int
	MinSalary        float64
	MaxSalary        float64
	MeanSalary       float64
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
