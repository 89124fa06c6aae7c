package importer

import (
	"reflect"
	"testing"
)

func TestParseRows(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  [][]string
	}{
		{
			"plain",
			"Date,Memo,Amount\n01/02/2026,TESCO,-12.34\n",
			[][]string{
				{"Date", "Memo", "Amount"},
				{"01/02/2026", "TESCO", "-12.34"},
			},
		},
		{
			"quoted comma stays in field",
			"Date,Memo,Amount\n01/02/2026,\"SMITH, JONES & CO\",-5.00\n",
			[][]string{
				{"Date", "Memo", "Amount"},
				{"01/02/2026", "SMITH, JONES & CO", "-5.00"},
			},
		},
		{
			"quoted newline stays in field",
			"A,B\n\"line one\nline two\",x\n",
			[][]string{
				{"A", "B"},
				{"line one\nline two", "x"},
			},
		},
		{
			"header trailing empties trimmed, data rows untouched",
			"Date,Memo,Amount,,\n01/02/2026,TESCO,-1.00,,\n",
			[][]string{
				{"Date", "Memo", "Amount"},
				{"01/02/2026", "TESCO", "-1.00", "", ""},
			},
		},
		{
			"no trailing newline",
			"A,B\n1,2",
			[][]string{{"A", "B"}, {"1", "2"}},
		},
		{
			"CRLF line endings",
			"A,B\r\n1,2\r\n",
			[][]string{{"A", "B"}, {"1", "2"}},
		},
		{
			"blank lines dropped",
			"A,B\n\n1,2\n\n",
			[][]string{{"A", "B"}, {"1", "2"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseRows([]byte(tt.input))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseRows() = %#v, want %#v", got, tt.want)
			}
		})
	}
}
