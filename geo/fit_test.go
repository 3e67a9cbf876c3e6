package geo

import (
	"math"
	"testing"
)

func TestAspectFit(t *testing.T) {
	canvas := Size{W: 9144000, H: 6858000} // 10in × 7.5in

	tests := []struct {
		name       string
		imgW, imgH int
		wantWFull  bool // W == canvas.W expected, else H == canvas.H
	}{
		{"wide image fits to width", 1920, 1080, true},
		{"tall image fits to height", 1080, 1920, false},
		{"square image fits to height", 1000, 1000, false},
		{"matching ratio fills both", 4000, 3000, false},
		{"extreme panorama", 10000, 100, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := AspectFit(tt.imgW, tt.imgH, canvas)
			if err != nil {
				t.Fatalf("AspectFit: %v", err)
			}
			if r.W > canvas.W || r.H > canvas.H {
				t.Fatalf("placement %+v exceeds canvas %+v", r, canvas)
			}
			if tt.wantWFull {
				if r.W != canvas.W {
					t.Errorf("W = %d, want full canvas width %d", r.W, canvas.W)
				}
				if r.Top != (canvas.H-r.H)/2 {
					t.Errorf("Top = %d, want centered %d", r.Top, (canvas.H-r.H)/2)
				}
				if r.Left != 0 {
					t.Errorf("Left = %d, want 0", r.Left)
				}
			} else {
				if r.H != canvas.H {
					t.Errorf("H = %d, want full canvas height %d", r.H, canvas.H)
				}
				if r.Left != (canvas.W-r.W)/2 {
					t.Errorf("Left = %d, want centered %d", r.Left, (canvas.W-r.W)/2)
				}
				if r.Top != 0 {
					t.Errorf("Top = %d, want 0", r.Top)
				}
			}

			// Placed ratio must match the source ratio.
			got := float64(r.W) / float64(r.H)
			want := float64(tt.imgW) / float64(tt.imgH)
			if math.Abs(got-want)/want > 1e-3 {
				t.Errorf("placed ratio %f, want %f", got, want)
			}
		})
	}
}

func TestAspectFitDegenerate(t *testing.T) {
	canvas := Size{W: 9144000, H: 6858000}

	if _, err := AspectFit(100, 0, canvas); err == nil {
		t.Fatal("zero-height image must not be placed")
	}
	if _, err := AspectFit(0, 100, canvas); err == nil {
		t.Fatal("zero-width image must not be placed")
	}
	if _, err := AspectFit(100, 100, Size{}); err == nil {
		t.Fatal("zero canvas must be rejected")
	}
}

func TestMatchCanvas(t *testing.T) {
	canvas := Size{W: 9144000, H: 6858000}

	got, err := MatchCanvas(canvas, 1920, 1080)
	if err != nil {
		t.Fatalf("MatchCanvas: %v", err)
	}
	if got.W != canvas.W {
		t.Errorf("width changed: %d -> %d", canvas.W, got.W)
	}
	imgRatio := 1920.0 / 1080.0
	if math.Abs(got.Ratio()-imgRatio) > 1e-3 {
		t.Errorf("canvas ratio %f, want %f", got.Ratio(), imgRatio)
	}

	if _, err := MatchCanvas(canvas, 0, 10); err == nil {
		t.Fatal("degenerate image must be rejected")
	}
}

func TestFromPixels(t *testing.T) {
	if got := FromPixels(96); got != EMUPerInch {
		t.Errorf("FromPixels(96) = %d, want %d", got, EMUPerInch)
	}
}
