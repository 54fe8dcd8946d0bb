package worker

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/ppiankov/discountclaim/internal/model"
)

// Claimer runs one claim for a raw address string.
type Claimer interface {
	Claim(ctx context.Context, address string) (*model.ClaimResponse, error)
}

// ClaimJob claims for a single address.
type ClaimJob struct {
	Address string
	Claimer Claimer
}

// Execute implements Job.
func (j *ClaimJob) Execute(ctx context.Context) Result {
	resp, err := j.Claimer.Claim(ctx, j.Address)
	return &ClaimResult{Address: j.Address, Response: resp, Error: err}
}

// ClaimResult is the outcome of one ClaimJob.
type ClaimResult struct {
	Address  string
	Response *model.ClaimResponse
	Error    error
}

// Err implements Result.
func (r *ClaimResult) Err() error {
	return r.Error
}

// Outcome classifies the result for reporting.
func (r *ClaimResult) Outcome() string {
	switch {
	case r.Error != nil:
		switch model.StatusCode(r.Error) {
		case http.StatusBadRequest:
			return "invalid"
		case http.StatusConflict:
			return "conflict"
		default:
			return "error"
		}
	case r.Response == nil || r.Response.SignedMessage == "":
		return "ineligible"
	default:
		return "authorized"
	}
}

// Summary counts results by outcome.
type Summary map[string]int

// Summarize tallies results.
func Summarize(results []*ClaimResult) Summary {
	s := Summary{}
	for _, r := range results {
		s[r.Outcome()]++
	}
	return s
}

// BatchProcessor claims for many addresses concurrently.
type BatchProcessor struct {
	claimer     Claimer
	concurrency int
}

// NewBatchProcessor creates a processor running concurrency claims at once.
func NewBatchProcessor(claimer Claimer, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		claimer:     claimer,
		concurrency: concurrency,
	}
}

// ProcessAddresses claims for each address. Results keep input order.
func (b *BatchProcessor) ProcessAddresses(ctx context.Context, addresses []string) []*ClaimResult {
	if len(addresses) == 0 {
		return []*ClaimResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()
	for _, addr := range addresses {
		if !pool.Submit(&ClaimJob{Address: addr, Claimer: b.claimer}) {
			break
		}
	}

	results := pool.Wait()
	out := make([]*ClaimResult, len(results))
	for i, r := range results {
		out[i] = r.(*ClaimResult)
	}
	return out
}

// ProcessFile reads addresses from path and claims for each.
func (b *BatchProcessor) ProcessFile(ctx context.Context, path string) ([]*ClaimResult, error) {
	addresses, err := ReadAddressesFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("read addresses: %w", err)
	}
	return b.ProcessAddresses(ctx, addresses), nil
}

// ReadAddressesFromFile reads one address per line. "-" reads stdin.
func ReadAddressesFromFile(path string) ([]string, error) {
	if path == "-" {
		return ReadAddresses(os.Stdin)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return ReadAddresses(file)
}

// ReadAddresses skips blank lines and # comments and drops repeats,
// comparing case-insensitively.
func ReadAddresses(r io.Reader) ([]string, error) {
	var addresses []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key := strings.ToLower(line)
		if !seen[key] {
			seen[key] = true
			addresses = append(addresses, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return addresses, nil
}
