// Package format turns raw backend quantities into display strings.
package format

import (
	"fmt"
	"math/bits"
)

// Binary units, one step of 1024 apart.
var units = []string{"B", "KiB", "MiB", "GiB", "TiB"}

// FormatSize renders a byte count with the largest binary unit whose scaled
// value is at least one, always with two decimals ("1.00 MiB"). Zero is the
// fixed literal "0 B". Values beyond the TiB range stay in TiB.
func FormatSize(bytes uint64) string {
	if bytes == 0 {
		return "0 B"
	}

	// Unit index is floor(log1024(bytes)), taken from the bit length so no
	// logarithm is evaluated.
	i := (bits.Len64(bytes) - 1) / 10
	if i >= len(units) {
		i = len(units) - 1
	}

	value := float64(bytes) / float64(uint64(1)<<(10*uint(i)))
	return fmt.Sprintf("%.2f %s", value, units[i])
}
