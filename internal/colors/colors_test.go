package colors

import (
	"errors"
	"testing"

	"github.com/muurk/fluxled/internal/protocol"
)

func TestTableResolve(t *testing.T) {
	table := Table{Extra: map[string]RGB{"sunset": {R: 0xff, G: 0x60, B: 0x10}}}

	tests := []struct {
		in      string
		want    RGB
		wantErr bool
	}{
		{"red", RGB{255, 0, 0}, false},
		{"Dark Orange", RGB{255, 140, 0}, false},
		{"#00ff00", RGB{0, 255, 0}, false},
		{"0000ff", RGB{0, 0, 255}, false},
		{"#fff", RGB{255, 255, 255}, false},
		{"10, 20, 30", RGB{10, 20, 30}, false},
		{"sunset", RGB{0xff, 0x60, 0x10}, false},
		{"notacolor", RGB{}, true},
		{"1,2", RGB{}, true},
		{"1,2,300", RGB{}, true},
		{"", RGB{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := table.Resolve(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Resolve(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, protocol.ErrInvalidRange) {
					t.Errorf("error = %v, want ErrInvalidRange", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("Resolve(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestName(t *testing.T) {
	if name, ok := Name(RGB{255, 0, 0}); !ok || name != "red" {
		t.Errorf("Name(red) = %q, %v", name, ok)
	}
	if _, ok := Name(RGB{1, 2, 3}); ok {
		t.Error("Name(1,2,3) should not match")
	}
	if s := (RGB{0xff, 0x10, 0x00}).String(); s != "#ff1000" {
		t.Errorf("String() = %q", s)
	}
}
