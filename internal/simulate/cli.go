package simulate

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/gigrec/pkg/logger"
)

const logFilePermission = 0o600

// SetupLogging logs to stdout and to logFile. An empty logFile gets a
// timestamped name. The returned func closes the file.
func SetupLogging(logFile string) (func() error, error) {
	if logFile == "" {
		logFile = "simulate_" + time.Now().Format("20060102_150405") + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	if err := logger.InitWith(io.MultiWriter(os.Stdout, file), logger.FormatText); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return file.Close, nil
}

// ShowHelp prints usage information for the simulator.
func ShowHelp() {
	os.Stdout.WriteString(`gigrec marketplace simulator
============================

Registers synthetic projects and freelancers with a running gigrec server,
replays views, applications and hires, then samples recommendations.

Usage:
  go run ./cmd/simulate [options]

Options:
  -url string         Base URL of the service (default "http://localhost:9080")
  -projects int       Projects to register (default 200)
  -freelancers int    Freelancers to register (default 80)
  -users int          Users generating views and applications (default 100)
  -clients int        Clients generating hires (default 20)
  -events int         View and application events (default 5000)
  -hires int          Hire events (default 100)
  -duplicates int     Events resent to exercise deduplication (default 50)
  -span duration      History the event timestamps cover (default 72h)
  -workers int        Concurrent requests (default CPU cores * 2)
  -timeout duration   HTTP request timeout (default 10s)
  -settle duration    Maximum wait for the queue to drain (default 30s)
  -sample int         Users and clients to fetch recommendations for (default 5)
  -seed uint          Workload seed (default 1)
  -output string      Write the workload as a YAML warm-up seed
  -log string         Log file (default: simulate_TIMESTAMP.log)
  -verbose            Log every sampled recommendation
  -help               Show this help message

Examples:
  # Simulate against a local server
  go run ./cmd/simulate

  # Produce a warm-up file for GIGREC_WARMUP__FILE
  go run ./cmd/simulate -events 20000 -output seed.yaml
`)
}
