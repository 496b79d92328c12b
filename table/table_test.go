package table_test

import (
	"testing"

	"github.com/go-test/deep"

	"github.com/blockdev/go-blockdev/table"
)

func TestReaders(t *testing.T) {
	tests := []struct {
		name     string
		opts     table.Options
		expected []string
	}{
		{"default order", table.Options{}, []string{"gpt", "mbr"}},
		{"gpt disabled", table.Options{DisableGPT: true}, []string{"mbr"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var names []string
			for _, r := range table.Readers(tt.opts) {
				names = append(names, r.Name())
			}
			if diff := deep.Equal(names, tt.expected); diff != nil {
				t.Errorf("mismatched reader chain: %v", diff)
			}
		})
	}
}
