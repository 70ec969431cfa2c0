package csvio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{"plain", "a,b,c", []string{"a", "b", "c"}},
		{"terminated", "a,b,", []string{"a", "b", ""}},
		{"quoted comma", `Item,1,p,"Hello, world",3,`, []string{"Item", "1", "p", `"Hello, world"`, "3", ""}},
		{"empty quoted", `"",x`, []string{`""`, "x"}},
		{"empty line", "", []string{""}},
		{"only commas", ",,", []string{"", "", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitLine(tt.line))
		})
	}
}

func TestCells(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{"drops terminator piece", "Item,1001,/a.item,\"Sword\",10,", []string{"Item", "1001", "/a.item", `"Sword"`, "10"}},
		{"unterminated line", "Item,1001,/a.item", []string{"Item", "1001", "/a.item"}},
		{"empty last cell kept when terminated twice", "a,,", []string{"a", ""}},
		{"header", "Class,InstanceID, Path,name - string,", []string{"Class", "InstanceID", " Path", "name - string"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Cells(tt.line))
		})
	}
}

func TestSplitLines(t *testing.T) {
	data := []byte("\ufeffh1,\r\nr1,\nr2,\n")
	assert.Equal(t, []string{"h1,", "r1,", "r2,", ""}, splitLines(data))
}
