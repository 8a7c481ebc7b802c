// Package npy reads and writes NumPy .npy arrays and .npz
// archives of them.
//
// Only C-ordered little-endian float64 and uint8 arrays are
// supported.
package npy

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	Float64 = "<f8"
	Uint8   = "|u1"
)

// MaxElements bounds the number of elements of a decoded
// array, so that a corrupt header cannot trigger a huge
// allocation.
const MaxElements = 1 << 28

var magic = []byte("\x93NUMPY")

// An Array is a decoded n-dimensional array.
//
// Exactly one of Float64s and Uint8s is set, depending on
// Descr.
type Array struct {
	Descr string
	Shape []int

	Float64s []float64
	Uint8s   []uint8
}

// NewFloat64 creates a float64 array.
func NewFloat64(shape []int, data []float64) *Array {
	return &Array{Descr: Float64, Shape: shape, Float64s: data}
}

// NewUint8 creates a uint8 array.
func NewUint8(shape []int, data []uint8) *Array {
	return &Array{Descr: Uint8, Shape: shape, Uint8s: data}
}

// Scalar creates a zero-dimensional float64 array.
func Scalar(x float64) *Array {
	return NewFloat64([]int{}, []float64{x})
}

// Size is the number of elements implied by the shape, or -1
// if the shape is invalid or exceeds MaxElements.
func (a *Array) Size() int {
	n := 1
	for _, x := range a.Shape {
		if x < 0 {
			return -1
		}
	}
	for _, x := range a.Shape {
		if x == 0 {
			return 0
		}
	}
	for _, x := range a.Shape {
		if n > MaxElements/x {
			return -1
		}
		n *= x
	}
	return n
}

func (a *Array) length() int {
	if a.Descr == Uint8 {
		return len(a.Uint8s)
	}
	return len(a.Float64s)
}

// Write encodes the array in the .npy format.
func (a *Array) Write(w io.Writer) error {
	if a.Descr != Float64 && a.Descr != Uint8 {
		return fmt.Errorf("unsupported dtype: %s", a.Descr)
	}
	if a.Size() < 0 {
		return fmt.Errorf("invalid shape %v", a.Shape)
	}
	if a.length() != a.Size() {
		return fmt.Errorf("data length %d does not match shape %v", a.length(), a.Shape)
	}

	bw := bufio.NewWriter(w)
	if _, err := bw.Write(header(a.Descr, a.Shape)); err != nil {
		return err
	}
	if a.Descr == Uint8 {
		if _, err := bw.Write(a.Uint8s); err != nil {
			return err
		}
	} else {
		var buf [8]byte
		for _, x := range a.Float64s {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(x))
			if _, err := bw.Write(buf[:]); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// header creates a version 1.0 header, padded so that the
// data starts on a 64-byte boundary.
func header(descr string, shape []int) []byte {
	dims := make([]string, len(shape))
	for i, x := range shape {
		dims[i] = strconv.Itoa(x)
	}
	shapeStr := strings.Join(dims, ", ")
	if len(shape) == 1 {
		shapeStr += ","
	}
	dict := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': (%s), }", descr, shapeStr)

	prefix := len(magic) + 2 + 2
	total := prefix + len(dict) + 1
	if rem := total % 64; rem != 0 {
		dict += strings.Repeat(" ", 64-rem)
	}
	dict += "\n"

	var buf bytes.Buffer
	buf.Write(magic)
	buf.Write([]byte{1, 0})
	binary.Write(&buf, binary.LittleEndian, uint16(len(dict)))
	buf.WriteString(dict)
	return buf.Bytes()
}

var (
	descrExpr   = regexp.MustCompile(`'descr':\s*'([^']*)'`)
	fortranExpr = regexp.MustCompile(`'fortran_order':\s*(True|False)`)
	shapeExpr   = regexp.MustCompile(`'shape':\s*\(([^)]*)\)`)
)

// Read decodes an array in the .npy format.
func Read(r io.Reader) (*Array, error) {
	br := bufio.NewReader(r)
	var prefix [8]byte
	if _, err := io.ReadFull(br, prefix[:]); err != nil {
		return nil, fmt.Errorf("read npy prefix: %w", err)
	}
	if !bytes.Equal(prefix[:6], magic) {
		return nil, errors.New("not an npy file")
	}

	var headerLen int
	switch prefix[6] {
	case 1:
		var n uint16
		if err := binary.Read(br, binary.LittleEndian, &n); err != nil {
			return nil, err
		}
		headerLen = int(n)
	case 2, 3:
		var n uint32
		if err := binary.Read(br, binary.LittleEndian, &n); err != nil {
			return nil, err
		}
		headerLen = int(n)
	default:
		return nil, fmt.Errorf("unsupported npy version %d.%d", prefix[6], prefix[7])
	}
	dict := make([]byte, headerLen)
	if _, err := io.ReadFull(br, dict); err != nil {
		return nil, fmt.Errorf("read npy header: %w", err)
	}

	a, err := parseHeader(string(dict))
	if err != nil {
		return nil, err
	}
	n := a.Size()
	if a.Descr == Uint8 {
		a.Uint8s = make([]uint8, n)
		if _, err := io.ReadFull(br, a.Uint8s); err != nil {
			return nil, fmt.Errorf("read npy data: %w", err)
		}
	} else {
		raw := make([]byte, n*8)
		if _, err := io.ReadFull(br, raw); err != nil {
			return nil, fmt.Errorf("read npy data: %w", err)
		}
		a.Float64s = make([]float64, n)
		for i := range a.Float64s {
			a.Float64s[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8:]))
		}
	}
	return a, nil
}

func parseHeader(dict string) (*Array, error) {
	descr := descrExpr.FindStringSubmatch(dict)
	fortran := fortranExpr.FindStringSubmatch(dict)
	shape := shapeExpr.FindStringSubmatch(dict)
	if descr == nil || fortran == nil || shape == nil {
		return nil, fmt.Errorf("malformed npy header: %q", dict)
	}
	if fortran[1] == "True" {
		return nil, errors.New("fortran-ordered arrays are not supported")
	}
	if descr[1] != Float64 && descr[1] != Uint8 {
		return nil, fmt.Errorf("unsupported dtype: %s", descr[1])
	}

	res := &Array{Descr: descr[1], Shape: []int{}}
	for _, part := range strings.Split(shape[1], ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		x, err := strconv.Atoi(part)
		if err != nil || x < 0 {
			return nil, fmt.Errorf("invalid dimension '%s' in npy shape", part)
		}
		res.Shape = append(res.Shape, x)
	}
	if res.Size() < 0 {
		return nil, fmt.Errorf("npy shape %v exceeds %d elements", res.Shape, MaxElements)
	}
	return res, nil
}
