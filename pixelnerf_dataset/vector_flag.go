package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/unixpickle/model3d/model3d"
)

// A VectorFlag is a flag.Value that parses comma-delimited
// 3D vectors, e.g. "0.5, 0.5, 1".
//
// A single number is broadcast to all three components, so
// "0.5" is the same as "0.5,0.5,0.5".
type VectorFlag struct {
	Value model3d.Coord3D
}

func (v *VectorFlag) String() string {
	var parts [3]string
	for i, x := range v.Value.Array() {
		parts[i] = strconv.FormatFloat(x, 'f', -1, 64)
	}
	return strings.Join(parts[:], ",")
}

func (v *VectorFlag) Set(s string) error {
	parts := strings.Split(s, ",")
	if len(parts) == 1 {
		parts = []string{parts[0], parts[0], parts[0]}
	} else if len(parts) != 3 {
		return fmt.Errorf("vector must have one or three components: %s", s)
	}
	var res [3]float64
	for i, x := range parts {
		x = strings.TrimSpace(x)
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return fmt.Errorf("invalid component '%s' in vector '%s': %w", x, s, err)
		}
		res[i] = f
	}
	v.Value = model3d.NewCoord3DArray(res)
	return nil
}
