package texdata

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"reflect"
	"testing"
)

func TestBuilderMatchesNewArray(t *testing.T) {
	opts := Options{MipLevels: 3, Filter: FilterBiLinear, RowAlignment: 8}
	b := NewBuilder(BuilderConfig{Options: opts, Workers: 3})
	defer b.Close()

	layers := []image.Image{
		solid(8, 4, color.RGBA{255, 0, 0, 255}),
		solid(8, 4, color.RGBA{0, 255, 0, 255}),
		solid(8, 4, color.RGBA{0, 0, 255, 255}),
	}
	got, err := b.Build("rgb", layers...)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	want, err := NewArray(layers, opts)
	if err != nil {
		t.Fatalf("NewArray() error = %v", err)
	}
	if !reflect.DeepEqual(got.Layout, want.Layout) || got.Range != want.Range {
		t.Errorf("layout/range = %+v %+v, want %+v %+v", got.Layout, got.Range, want.Layout, want.Range)
	}
	if !bytes.Equal(got.Data, want.Data) {
		t.Error("Build data differs from NewArray data")
	}
}

func TestBuilderCaches(t *testing.T) {
	b := NewBuilder(BuilderConfig{Workers: 2, CacheSize: 2})
	defer b.Close()

	img := solid(4, 4, color.White)
	first, err := b.Build("white", img)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	// Cached by name: the layers are not looked at again.
	again, err := b.Build("white")
	if err != nil {
		t.Fatalf("cached Build() error = %v", err)
	}
	if again != first {
		t.Error("second Build returned a different texture")
	}

	if _, err := b.Build("a", img); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Build("b", img); err != nil {
		t.Fatal(err)
	}
	st := b.CacheStats()
	if st.Len != 2 || st.Capacity != 2 || st.Evictions != 1 {
		t.Errorf("CacheStats() = %+v, want 2 entries, capacity 2, 1 eviction", st)
	}
	if st.Hits != 1 {
		t.Errorf("hits = %d, want 1", st.Hits)
	}

	if !b.Forget("a") {
		t.Error("Forget(a) = false, want true")
	}
	if b.Forget("white") {
		t.Error("Forget(white) = true after eviction")
	}
}

func TestBuilderErrors(t *testing.T) {
	b := NewBuilder(BuilderConfig{Options: Options{MipLevels: 5}})
	defer b.Close()

	tests := []struct {
		name   string
		layers []image.Image
		want   error
	}{
		{"none", nil, ErrEmptyImage},
		{"mismatch", []image.Image{solid(4, 4, color.White), solid(2, 2, color.White)}, ErrSizeMismatch},
		{"levels", []image.Image{solid(4, 4, color.White)}, ErrTooManyLevels},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := b.Build(tt.name, tt.layers...); !errors.Is(err, tt.want) {
				t.Errorf("Build() error = %v, want %v", err, tt.want)
			}
		})
	}
	if n := b.CacheStats().Len; n != 0 {
		t.Errorf("failed builds cached %d textures", n)
	}
}

func TestBuilderClose(t *testing.T) {
	b := NewBuilder(BuilderConfig{})
	if _, err := b.Build("x", solid(2, 2, color.Black)); err != nil {
		t.Fatal(err)
	}
	b.Close()
	b.Close()

	if _, err := b.Build("x"); !errors.Is(err, ErrBuilderClosed) {
		t.Errorf("Build after Close error = %v, want ErrBuilderClosed", err)
	}
	if n := b.CacheStats().Len; n != 0 {
		t.Errorf("cache holds %d textures after Close", n)
	}
}
