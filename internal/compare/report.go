package compare

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"golang.org/x/xerrors"
)

// Summary renders the result as a single line.
func (r *Result) Summary() string {
	return fmt.Sprintf("Difference pixels: %d  percentage: %s", r.DiffCount, formatNumber(r.Percentage))
}

// formatNumber prints the shortest decimal that round-trips, in the form
// JavaScript's Number#toString uses: plain notation, and exponent notation
// without padding below 1e-6 or from 1e21 on.
func formatNumber(v float64) string {
	abs := math.Abs(v)
	if v == 0 || (abs >= 1e-6 && abs < 1e21) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}

	mantissa, exponent, _ := strings.Cut(strconv.FormatFloat(v, 'e', -1, 64), "e")
	return mantissa + "e" + exponent[:1] + strings.TrimLeft(exponent[1:], "0")
}

func (r *Result) Write(w io.Writer, asJSON bool) error {
	if asJSON {
		if err := json.NewEncoder(w).Encode(r); err != nil {
			return xerrors.Errorf("failed to encode result: %w", err)
		}
		return nil
	}

	if _, err := fmt.Fprintln(w, r.Summary()); err != nil {
		return xerrors.Errorf("failed to write result: %w", err)
	}
	return nil
}
