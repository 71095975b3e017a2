package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/fumin/mcsim"
)

func randomField(t *testing.T, n [2]int, seed uint64) *mcsim.Field {
	t.Helper()
	f := mcsim.MustField(n)
	if err := f.Randomise(mcsim.NewRand(seed)); err != nil {
		t.Fatalf("%+v", err)
	}
	return f
}

func equal(a, b *mcsim.Field) bool {
	if a.Dims() != b.Dims() {
		return false
	}
	n := a.Dims()
	for i := range n[0] {
		for j := range n[1] {
			if a.At(i, j) != b.At(i, j) {
				return false
			}
		}
	}
	return true
}

func TestDBSaveLoad(t *testing.T) {
	t.Parallel()
	tests := []struct {
		n    [2]int
		seed uint64
	}{
		{n: [2]int{1, 1}, seed: 1},
		{n: [2]int{3, 5}, seed: 2},
		{n: [2]int{12, 7}, seed: 3},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%v", test.n), func(t *testing.T) {
			t.Parallel()
			dir, err := os.MkdirTemp("", "")
			if err != nil {
				t.Fatalf("%+v", err)
			}
			defer os.RemoveAll(dir)

			ctx := context.Background()
			db, err := Open(ctx, filepath.Join(dir, "fields.db"))
			if err != nil {
				t.Fatalf("%+v", err)
			}
			defer db.Close()

			f := randomField(t, test.n, test.seed)
			if err := db.Save(ctx, "a", f); err != nil {
				t.Fatalf("%+v", err)
			}
			g, err := db.Load(ctx, "a")
			if err != nil {
				t.Fatalf("%+v", err)
			}
			if !equal(f, g) {
				t.Fatalf("%v, expected %v", g, f)
			}

			// Saving under the same name replaces the snapshot, also when the shape changes.
			h := mcsim.MustField([2]int{2, 2}, r3.Vec{X: 1, Y: 0, Z: 0})
			if err := db.Save(ctx, "a", h); err != nil {
				t.Fatalf("%+v", err)
			}
			g, err = db.Load(ctx, "a")
			if err != nil {
				t.Fatalf("%+v", err)
			}
			if !equal(h, g) {
				t.Fatalf("%v, expected %v", g, h)
			}
		})
	}
}

func TestDBNamesDelete(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	ctx := context.Background()
	path := filepath.Join(dir, "fields.db")
	db, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("%+v", err)
	}

	for i, name := range []string{"c", "a", "b"} {
		if err := db.Save(ctx, name, randomField(t, [2]int{2, 3}, uint64(i))); err != nil {
			t.Fatalf("%+v", err)
		}
	}
	if err := db.Delete(ctx, "b"); err != nil {
		t.Fatalf("%+v", err)
	}
	if _, err := db.Load(ctx, "b"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("%+v, expected %v", err, ErrNotFound)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("%+v", err)
	}

	// Snapshots persist across connections.
	db, err = Open(ctx, path)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	defer db.Close()
	names, err := db.Names(ctx)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if expected := []string{"a", "c"}; !slices.Equal(names, expected) {
		t.Fatalf("%#v, expected %#v", names, expected)
	}
}

func TestCSV(t *testing.T) {
	t.Parallel()
	tests := []struct {
		n    [2]int
		seed uint64
	}{
		{n: [2]int{1, 1}, seed: 1},
		{n: [2]int{1, 6}, seed: 2},
		{n: [2]int{4, 3}, seed: 3},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%v", test.n), func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			f := randomField(t, test.n, test.seed)
			if err := WriteCSV(dir, f); err != nil {
				t.Fatalf("%+v", err)
			}
			g, err := ReadCSV(dir)
			if err != nil {
				t.Fatalf("%+v", err)
			}
			if !equal(f, g) {
				t.Fatalf("%v, expected %v", g, f)
			}
		})
	}
}

func TestCSVCompressedRows(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FnameShape), []byte("2,2"), 0644); err != nil {
		t.Fatalf("%+v", err)
	}
	spins := "0,0,0,0,1\n,1,1,0,0\n1,0,0,1,0\n,1,0,0,-1\n"
	if err := os.WriteFile(filepath.Join(dir, FnameSpins), []byte(spins), 0644); err != nil {
		t.Fatalf("%+v", err)
	}

	f, err := ReadCSV(dir)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	expected := map[[2]int]r3.Vec{
		{0, 0}: {X: 0, Y: 0, Z: 1},
		{0, 1}: {X: 1, Y: 0, Z: 0},
		{1, 0}: {X: 0, Y: 1, Z: 0},
		{1, 1}: {X: 0, Y: 0, Z: -1},
	}
	for ij, v := range expected {
		if f.At(ij[0], ij[1]) != v {
			t.Fatalf("%v %v, expected %v", ij, f.At(ij[0], ij[1]), v)
		}
	}
}

func TestCSVInvalid(t *testing.T) {
	t.Parallel()
	tests := []struct {
		shape string
		spins string
	}{
		{shape: "2,1", spins: "0,0,0,0,1\n"},
		{shape: "1,1", spins: "0,0,0,0,1\n0,0,0,0,1\n"},
		{shape: "1,1", spins: "0,3,0,0,1\n"},
		{shape: "1,1", spins: ",0,0,0,1\n"},
		{shape: "1,1", spins: "0,0,zero,0,1\n"},
		{shape: "0,1", spins: ""},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%s %q", test.shape, test.spins), func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, FnameShape), []byte(test.shape), 0644); err != nil {
				t.Fatalf("%+v", err)
			}
			if err := os.WriteFile(filepath.Join(dir, FnameSpins), []byte(test.spins), 0644); err != nil {
				t.Fatalf("%+v", err)
			}
			if f, err := ReadCSV(dir); err == nil {
				t.Fatalf("%v, expected error", f)
			}
		})
	}
}
