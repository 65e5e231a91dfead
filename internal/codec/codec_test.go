package codec_test

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"imgdiff/internal/codec"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFormatOf(t *testing.T) {
	type in struct {
		first string
	}

	type want struct {
		first codec.Format
	}

	tests := []struct {
		name            string
		in              in
		want            want
		wantErrorString string
	}{
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			in{
				"a/b/baseline.png",
			},
			want{
				codec.PNG,
			},
			"",
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			in{
				"photo.jpg",
			},
			want{
				codec.JPEG,
			},
			"",
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			in{
				"s3://bucket/photo.jpeg",
			},
			want{
				codec.JPEG,
			},
			"",
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			in{
				"upper.PNG",
			},
			want{
				"",
			},
			"cannot read file upper.PNG: unsupported format (want .png, .jpg or .jpeg)",
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			in{
				"anim.gif",
			},
			want{
				"",
			},
			"cannot read file anim.gif: unsupported format (want .png, .jpg or .jpeg)",
		},
	}
	for _, tt := range tests {
		name := tt.name
		in := tt.in
		want := tt.want
		wantErrorString := tt.wantErrorString
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := codec.FormatOf(in.first)
			if wantErrorString != "" {
				var unsupported *codec.UnsupportedFormatError
				if !errors.As(err, &unsupported) {
					t.Fatalf("expected UnsupportedFormatError, got %v", err)
				}
				if diff := cmp.Diff(wantErrorString, err.Error()); diff != "" {
					t.Errorf("(-want +got):\n%s", diff)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(want.first, got); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	img.SetNRGBA(1, 1, color.NRGBA{R: 10, G: 20, B: 30, A: 40})

	t.Run("PNG", func(t *testing.T) {
		var buffer bytes.Buffer
		if err := png.Encode(&buffer, img); err != nil {
			t.Fatal(err)
		}

		got, err := codec.Decode("in.png", codec.PNG, buffer.Bytes())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff(img.Rect, got.Bounds()); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
		if diff := cmp.Diff(color.Color(color.NRGBA{R: 10, G: 20, B: 30, A: 40}), got.At(1, 1)); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
	})

	t.Run("JPEG", func(t *testing.T) {
		var buffer bytes.Buffer
		if err := jpeg.Encode(&buffer, img, nil); err != nil {
			t.Fatal(err)
		}

		got, err := codec.Decode("in.jpg", codec.JPEG, buffer.Bytes())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff(img.Rect, got.Bounds()); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
	})

	t.Run("Malformed", func(t *testing.T) {
		_, err := codec.Decode("broken.png", codec.PNG, []byte("not a png"))

		var decodeErr *codec.DecodeError
		if !errors.As(err, &decodeErr) {
			t.Fatalf("expected DecodeError, got %v", err)
		}
		if diff := cmp.Diff("broken.png", decodeErr.Path); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
	})

	t.Run("ExtensionDoesNotSniff", func(t *testing.T) {
		var buffer bytes.Buffer
		if err := png.Encode(&buffer, img); err != nil {
			t.Fatal(err)
		}

		_, err := codec.Decode("really-a-png.jpg", codec.JPEG, buffer.Bytes())

		var decodeErr *codec.DecodeError
		if !errors.As(err, &decodeErr) {
			t.Fatalf("expected DecodeError, got %v", err)
		}
	})
}

func TestEncodePNG(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 5, 7))

	data, err := codec.EncodePNG(img)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	config, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]int{5, 7}, []int{config.Width, config.Height}); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}
