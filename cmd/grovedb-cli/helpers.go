package main

import (
	"bufio"
	"encoding/hex"
	"io"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// readHexLines decodes one hex-encoded proof blob per non-empty line.
func readHexLines(r io.Reader) ([][]byte, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var blobs [][]byte
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		blob, err := hex.DecodeString(line)
		if err != nil {
			return nil, err
		}
		blobs = append(blobs, blob)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return blobs, nil
}

// prometheusRegisterer is the registry grove.Metrics collectors are
// registered against when the loaded config has MetricsEnabled set.
func prometheusRegisterer() prometheus.Registerer {
	return prometheus.DefaultRegisterer
}
