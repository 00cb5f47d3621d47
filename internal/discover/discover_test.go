package discover

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
)

var finder = Finder{Kind: "calibration", Suffix: ".rgb2lms"}

func TestFindFS(t *testing.T) {
	tests := []struct {
		name     string
		files    fstest.MapFS
		want     string
		wantErr  any
		nMatches int
	}{
		{
			name:  "single at root",
			files: fstest.MapFS{"display.rgb2lms": {}},
			want:  "display.rgb2lms",
		},
		{
			name:  "single nested",
			files: fstest.MapFS{"a/b/display.rgb2lms": {}, "a/notes.txt": {}},
			want:  "a/b/display.rgb2lms",
		},
		{
			name:    "none",
			files:   fstest.MapFS{"display.txt": {}},
			wantErr: &NotFoundError{},
		},
		{
			name:     "two",
			files:    fstest.MapFS{"x.rgb2lms": {}, "sub/y.rgb2lms": {}},
			wantErr:  &AmbiguousError{},
			nMatches: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := finder.FindFS(tt.files, ".", "config")
			switch want := tt.wantErr.(type) {
			case nil:
				if err != nil {
					t.Fatalf("FindFS() error: %v", err)
				}
				if got != tt.want {
					t.Errorf("FindFS() = %q, want %q", got, tt.want)
				}
			case *NotFoundError:
				if !errors.As(err, &want) {
					t.Fatalf("FindFS() error = %v, want *NotFoundError", err)
				}
				if want.Dir != "config" {
					t.Errorf("NotFoundError.Dir = %q, want %q", want.Dir, "config")
				}
			case *AmbiguousError:
				if !errors.As(err, &want) {
					t.Fatalf("FindFS() error = %v, want *AmbiguousError", err)
				}
				if len(want.Matches) != tt.nMatches {
					t.Errorf("len(Matches) = %d, want %d", len(want.Matches), tt.nMatches)
				}
			}
		})
	}
}

func TestFindMissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "does-not-exist")
	_, err := finder.Find(dir)
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("Find() error = %v, want *NotFoundError", err)
	}
	if nf.Dir != dir {
		t.Errorf("NotFoundError.Dir = %q, want %q", nf.Dir, dir)
	}
}

func TestFindOnDisk(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "monitor")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(nested, "vpixx.rgb2lms")
	if err := os.WriteFile(want, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := finder.Find(dir)
	if err != nil {
		t.Fatalf("Find() error: %v", err)
	}
	if got != want {
		t.Errorf("Find() = %q, want %q", got, want)
	}
}

func TestErrorMessagesNameLocation(t *testing.T) {
	nf := &NotFoundError{Kind: "isoslant", Suffix: ".isoslant", Dir: "isolum/s01"}
	if got, want := nf.Error(), "no isoslant found: expected one *.isoslant file in isolum/s01"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	amb := &AmbiguousError{Kind: "calibration", Suffix: ".rgb2lms", Dir: "config", Matches: []string{"a.rgb2lms", "b.rgb2lms"}}
	want := "multiple calibration files found in config (a.rgb2lms, b.rgb2lms); keep exactly one *.rgb2lms file"
	if got := amb.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
