package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/fumin/mcsim"
)

const (
	FnameShape = "shape.csv"
	FnameSpins = "spins.csv"
)

// Spin is one record of a spins file.
type Spin struct {
	I, J int
	V    r3.Vec
}

// WriteCSV writes f into dir as two files.
// FnameShape holds "nx,ny", and FnameSpins holds one "i,j,x,y,z" line per site in row major order.
// The i column is left empty when it equals the previous line's.
func WriteCSV(dir string, f *mcsim.Field) error {
	n := f.Dims()
	shapePath := filepath.Join(dir, FnameShape)
	if err := os.WriteFile(shapePath, []byte(fmt.Sprintf("%d,%d", n[0], n[1])), 0644); err != nil {
		return errors.Wrap(err, "")
	}

	spinsPath := filepath.Join(dir, FnameSpins)
	spinsF, err := os.Create(spinsPath)
	if err != nil {
		return errors.Wrap(err, "")
	}

	w := csv.NewWriter(spinsF)
Loop:
	for i := range n[0] {
		for j := range n[1] {
			var iStr string
			if j == 0 {
				iStr = strconv.Itoa(i)
			}
			v := f.At(i, j)
			record := []string{iStr, strconv.Itoa(j), formatFloat(v.X), formatFloat(v.Y), formatFloat(v.Z)}
			if err1 := w.Write(record); err1 != nil && err == nil {
				err = errors.Wrap(err1, "")
				break Loop
			}
		}
	}
	w.Flush()
	if err1 := w.Error(); err1 != nil && err == nil {
		err = errors.Wrap(err1, "")
	}

	if err1 := spinsF.Close(); err1 != nil && err == nil {
		err = errors.Wrap(err1, "")
	}
	return err
}

// Reader streams the records of a spins file.
type Reader struct {
	f *os.File
	r *csv.Reader
	i int

	prev Spin
}

// NewReader opens the spins file in dir.
func NewReader(dir string) (*Reader, error) {
	r := &Reader{i: -1}

	var err error
	r.f, err = os.Open(filepath.Join(dir, FnameSpins))
	if err != nil {
		return nil, errors.Wrap(err, "")
	}

	r.r = csv.NewReader(r.f)
	return r, nil
}

func (r *Reader) Close() error {
	return r.f.Close()
}

// Read returns the next record, or io.EOF at the end of the file.
func (r *Reader) Read() (Spin, error) {
	r.i++
	record, err := r.r.Read()
	if err == io.EOF {
		return Spin{}, io.EOF
	}
	if err != nil {
		return Spin{}, errors.Wrap(err, fmt.Sprintf("%d", r.i))
	}
	if len(record) != 5 {
		return Spin{}, errors.Errorf("%d %#v", r.i, record)
	}

	var s Spin
	switch {
	case record[0] == "":
		if r.i == 0 {
			return Spin{}, errors.Errorf("%d %#v", r.i, record)
		}
		s.I = r.prev.I
	default:
		s.I, err = strconv.Atoi(record[0])
		if err != nil {
			return Spin{}, errors.Wrap(err, fmt.Sprintf("%d %#v", r.i, record))
		}
	}

	s.J, err = strconv.Atoi(record[1])
	if err != nil {
		return Spin{}, errors.Wrap(err, fmt.Sprintf("%d %#v", r.i, record))
	}

	var c [3]float64
	for k := range c {
		c[k], err = strconv.ParseFloat(record[2+k], 64)
		if err != nil {
			return Spin{}, errors.Wrap(err, fmt.Sprintf("%d %#v", r.i, record))
		}
	}
	s.V = r3.Vec{X: c[0], Y: c[1], Z: c[2]}

	r.prev = s
	return s, nil
}

// ReadCSV reads a field written by WriteCSV.
// Every site must appear exactly once.
func ReadCSV(dir string) (*mcsim.Field, error) {
	n, err := readShape(dir)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	f, err := mcsim.NewField(n)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}

	r, err := NewReader(dir)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	defer r.Close()

	seen := make([]bool, f.Len())
	for {
		s, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "")
		}
		if s.I < 0 || s.I >= n[0] || s.J < 0 || s.J >= n[1] {
			return nil, errors.Errorf("%#v out of %#v", s, n)
		}
		k := s.I*n[1] + s.J
		if seen[k] {
			return nil, errors.Errorf("duplicate %#v", s)
		}
		seen[k] = true
		f.Set(s.I, s.J, s.V)
	}
	for k, ok := range seen {
		if !ok {
			return nil, errors.Errorf("missing site %d %d", k/n[1], k%n[1])
		}
	}

	return f, nil
}

func readShape(dir string) ([2]int, error) {
	f, err := os.Open(filepath.Join(dir, FnameShape))
	if err != nil {
		return [2]int{}, errors.Wrap(err, "")
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return [2]int{}, errors.Wrap(err, "")
	}
	if len(records) == 0 {
		return [2]int{}, errors.Errorf("empty")
	}
	row := records[0]

	if len(row) != 2 {
		return [2]int{}, errors.Errorf("%#v", row)
	}
	var n [2]int
	for k, s := range row {
		n[k], err = strconv.Atoi(s)
		if err != nil {
			return [2]int{}, errors.Wrap(err, fmt.Sprintf("%#v", row))
		}
	}
	return n, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
