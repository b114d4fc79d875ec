package codes

import "testing"

func TestFormat(t *testing.T) {
	tests := []struct {
		name    string
		prefix  string
		number  int64
		padding int
		want    string
	}{
		{name: "padded", prefix: "ACME", number: 7, padding: 4, want: "ACME-0007"},
		{name: "exact width", prefix: "ACME", number: 1234, padding: 4, want: "ACME-1234"},
		{name: "wider than padding", prefix: "ACME", number: 123456, padding: 4, want: "ACME-123456"},
		{name: "zero padding", prefix: "REQ", number: 42, padding: 0, want: "REQ-42"},
		{name: "first number", prefix: "PO", number: 1, padding: 3, want: "PO-001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.prefix, tt.number, tt.padding); got != tt.want {
				t.Errorf("Format(%q, %d, %d): got %q, want %q", tt.prefix, tt.number, tt.padding, got, tt.want)
			}
		})
	}
}

func TestFormat_StrictlyIncreasing(t *testing.T) {
	// Sequential numbers format to distinct, ordered codes.
	prev := ""
	for n := int64(1); n <= 20; n++ {
		code := Format("ACME", n, 4)
		if code == prev {
			t.Fatalf("duplicate code %q at n=%d", code, n)
		}
		if prev != "" && code <= prev {
			t.Fatalf("codes not increasing: %q then %q", prev, code)
		}
		prev = code
	}
}
