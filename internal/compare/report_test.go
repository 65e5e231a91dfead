package compare_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"imgdiff/internal/compare"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestResult_Summary(t *testing.T) {
	type in struct {
		first  int
		second float64
	}

	type want struct {
		first string
	}

	tests := []struct {
		name string
		in   in
		want want
	}{
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			in{
				0,
				0,
			},
			want{
				"Difference pixels: 0  percentage: 0",
			},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			in{
				100,
				100,
			},
			want{
				"Difference pixels: 100  percentage: 100",
			},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			in{
				5000,
				50,
			},
			want{
				"Difference pixels: 5000  percentage: 50",
			},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			in{
				3,
				0.75,
			},
			want{
				"Difference pixels: 3  percentage: 0.75",
			},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			in{
				1,
				6.944444444444445e-7,
			},
			want{
				"Difference pixels: 1  percentage: 6.944444444444445e-7",
			},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			in{
				1,
				1e-7,
			},
			want{
				"Difference pixels: 1  percentage: 1e-7",
			},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			in{
				1,
				0.000001,
			},
			want{
				"Difference pixels: 1  percentage: 0.000001",
			},
		},
	}
	for _, tt := range tests {
		name := tt.name
		in := tt.in
		want := tt.want
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			result := &compare.Result{DiffCount: in.first, Percentage: in.second}
			if diff := cmp.Diff(want.first, result.Summary()); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestResult_Write(t *testing.T) {
	result := &compare.Result{
		DiffPath:   "diff.png",
		DiffCount:  25,
		DiffAmount: 0.25,
		Percentage: 25,
	}

	t.Run("Summary", func(t *testing.T) {
		var buffer bytes.Buffer
		if err := result.Write(&buffer, false); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff("Difference pixels: 25  percentage: 25\n", buffer.String()); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
	})

	t.Run("JSON", func(t *testing.T) {
		var buffer bytes.Buffer
		if err := result.Write(&buffer, true); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got map[string]any
		if err := json.Unmarshal(buffer.Bytes(), &got); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := map[string]any{
			"diffPath":   "diff.png",
			"diffCount":  float64(25),
			"diffAmount": 0.25,
			"percentage": float64(25),
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
	})
}
