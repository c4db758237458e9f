package metaplex

import (
	"errors"
	"testing"

	"solana-cert-mint/internal/domain"
)

func TestEncoder_FieldKinds(t *testing.T) {
	e := NewEncoder(0)
	e.WriteU8(0xAB)
	e.WriteBool(true)
	e.WriteBool(false)
	e.WriteU16(0x0102)
	e.WriteU32(0x01020304)
	if err := e.WriteString("s", "hi"); err != nil {
		t.Fatalf("WriteString: %v", err)
	}
	e.WriteOptionNone()
	e.WriteOptionSome()
	if err := e.WriteFixedBytes("b", []byte{9, 9}, 2); err != nil {
		t.Fatalf("WriteFixedBytes: %v", err)
	}

	want := []byte{
		0xAB,
		1, 0,
		0x02, 0x01,
		0x04, 0x03, 0x02, 0x01,
		2, 0, 0, 0, 'h', 'i',
		0,
		1,
		9, 9,
	}

	got := e.Bytes()
	if len(got) != len(want) || e.Len() != len(want) {
		t.Fatalf("expected %d bytes, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("byte %d: expected %#x, got %#x", i, want[i], got[i])
		}
	}
}

func TestEncoder_WriteFixedBytesLength(t *testing.T) {
	e := NewEncoder(0)
	err := e.WriteFixedBytes("creator", []byte{1, 2, 3}, 32)

	var encErr *domain.EncodingError
	if !errors.As(err, &encErr) {
		t.Fatalf("expected EncodingError, got %v", err)
	}
	if e.Len() != 0 {
		t.Errorf("nothing should be written on error, got %d bytes", e.Len())
	}
}

func TestEncoder_WriteStringInvalidUTF8(t *testing.T) {
	e := NewEncoder(0)
	if err := e.WriteString("name", "\xc3\x28"); err == nil {
		t.Fatal("expected error for invalid UTF-8")
	}
	if e.Len() != 0 {
		t.Errorf("nothing should be written on error, got %d bytes", e.Len())
	}
}
