package service

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatAverage(t *testing.T) {
	assert.Equal(t, "", formatAverage(nil))

	avg := 3.0
	assert.Equal(t, "3.00", formatAverage(&avg))

	avg = 3.256
	assert.Equal(t, "3.26", formatAverage(&avg))

	avg = 4.5
	assert.Equal(t, "4.50", formatAverage(&avg))
}

func TestRowSinkCSVWriterCompatibility(t *testing.T) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	var sink RowSink = writer.Write
	if err := sink([]string{"Form Name", "User Email", "User Name", "Reason"}); err != nil {
		t.Fatalf("Failed to write header row: %v", err)
	}
	if err := sink([]string{"Q3 Review", "member@test.com", "Team Member", "no leader"}); err != nil {
		t.Fatalf("Failed to write data row: %v", err)
	}
	writer.Flush()

	want := "Form Name,User Email,User Name,Reason\nQ3 Review,member@test.com,Team Member,no leader\n"
	assert.Equal(t, want, buf.String())
}
