package factory

import (
	"path/filepath"
	"testing"
)

func TestNewFromDSN(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		dsn     string
		wantErr bool
	}{
		{"bare path defaults to sqlite", filepath.Join(dir, "a.db"), false},
		{"sqlite scheme", "sqlite://" + filepath.Join(dir, "b.db"), false},
		{"empty", "", true},
		{"unknown scheme", "mysql://root@localhost/db", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := NewFromDSN(tt.dsn)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.dsn)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewFromDSN(%q): %v", tt.dsn, err)
			}
			_ = st.Close()
		})
	}
}
