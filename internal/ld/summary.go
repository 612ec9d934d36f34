package ld

import (
	"context"
	"fmt"

	"github.com/montanaflynn/stats"
)

// SummaryStore reads the r2 column of the ld table.
type SummaryStore interface {
	R2Values(ctx context.Context) ([]float64, error)
	UndefinedR2Count(ctx context.Context) (int, error)
	R2Stdev(ctx context.Context) (float64, bool, error)
}

// Summary describes the distribution of defined r2 values.
type Summary struct {
	Defined   int
	Undefined int
	Mean      float64
	Median    float64
	P95       float64
	Stdev     float64
	HasStdev  bool
}

// Summarize reads the ld table and summarises its r2 values.
func Summarize(ctx context.Context, s SummaryStore) (Summary, error) {
	var sum Summary

	vals, err := s.R2Values(ctx)
	if err != nil {
		return sum, err
	}
	if sum.Undefined, err = s.UndefinedR2Count(ctx); err != nil {
		return sum, err
	}
	if sum.Stdev, sum.HasStdev, err = s.R2Stdev(ctx); err != nil {
		return sum, err
	}

	sum.Defined = len(vals)
	if sum.Defined == 0 {
		return sum, nil
	}

	data := stats.Float64Data(vals)
	if sum.Mean, err = stats.Mean(data); err != nil {
		return sum, fmt.Errorf("r2 mean: %w", err)
	}
	if sum.Median, err = stats.Median(data); err != nil {
		return sum, fmt.Errorf("r2 median: %w", err)
	}
	if sum.P95, err = stats.Percentile(data, 95); err != nil {
		return sum, fmt.Errorf("r2 95th percentile: %w", err)
	}
	return sum, nil
}
