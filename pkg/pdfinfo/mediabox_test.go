package pdfinfo

import (
	"bytes"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRotatedBox(t *testing.T) {
	rect := types.NewRectangle(0, 0, 600, 800)

	tests := []struct {
		rotate int
		want   Mediabox
	}{
		{0, Mediabox{600, 800}},
		{90, Mediabox{800, 600}},
		{180, Mediabox{600, 800}},
		{270, Mediabox{800, 600}},
		{-90, Mediabox{800, 600}},
		{450, Mediabox{800, 600}},
		{360, Mediabox{600, 800}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, rotatedBox(rect, tt.rotate), "rotate %d", tt.rotate)
	}
}

func TestMediaboxes(t *testing.T) {
	pdf := buildPDF("/MediaBox [0 0 612 792]",
		testPage{MediaBox: "[0 0 600 800]", Rotate: "0"},
		testPage{MediaBox: "[0 0 600 800]", Rotate: "90"},
		testPage{MediaBox: "[0 0 600 800]", Rotate: "180"},
		testPage{MediaBox: "[10 20 610 820]", Rotate: "270"},
		testPage{},
	)

	boxes, err := Mediaboxes(bytes.NewReader(pdf), nil)
	require.NoError(t, err)
	assert.Equal(t, []Mediabox{
		{600, 800},
		{800, 600},
		{600, 800},
		{800, 600},
		{612, 792}, // inherited from the page tree
	}, boxes)
}

func TestMediaboxesGenerated(t *testing.T) {
	pdf := fpdfDocument(t, Mediabox{612, 792}, Mediabox{842, 595})

	boxes, err := Mediaboxes(bytes.NewReader(pdf), NewConfiguration())
	require.NoError(t, err)
	require.Len(t, boxes, 2)
	assert.InDelta(t, 612, boxes[0].Width, 0.01)
	assert.InDelta(t, 792, boxes[0].Height, 0.01)
	assert.InDelta(t, 842, boxes[1].Width, 0.01)
	assert.InDelta(t, 595, boxes[1].Height, 0.01)
}

func TestMediaboxesMalformed(t *testing.T) {
	_, err := Mediaboxes(bytes.NewReader([]byte("this is not a pdf")), nil)
	assert.Error(t, err)
}

func TestParseMediaboxes(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []Mediabox
		wantErr bool
	}{
		{"two pages", "[[600,800],[800,600]]\n", []Mediabox{{600, 800}, {800, 600}}, false},
		{"fractional", "[[595.28,841.89]]", []Mediabox{{595.28, 841.89}}, false},
		{"no pages", "[]", []Mediabox{}, false},
		{"empty", "", nil, true},
		{"null", "null", nil, true},
		{"object", `{"w":1}`, nil, true},
		{"truncated", "[[600,800],[80", nil, true},
		{"three values", "[[1,2,3]]", nil, true},
		{"zero width", "[[0,800]]", nil, true},
		{"negative", "[[600,-1]]", nil, true},
		{"strings", `[["600","800"]]`, nil, true},
		{"trailing garbage", "[[600,800]] x", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMediaboxes([]byte(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMediaboxJSON(t *testing.T) {
	data, err := Mediabox{Width: 612, Height: 792.5}.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "[612,792.5]", string(data))
}

func TestRunIsDeterministic(t *testing.T) {
	pdf := buildPDF("", testPage{MediaBox: "[0 0 600 800]", Rotate: "90"}, testPage{MediaBox: "[0 0 600 800]"})

	var first, second bytes.Buffer
	require.NoError(t, Run(bytes.NewReader(pdf), &first, RunOptions{}))
	require.NoError(t, Run(bytes.NewReader(pdf), &second, RunOptions{}))

	assert.Equal(t, "[[800,600],[600,800]]\n", first.String())
	assert.Equal(t, first.Bytes(), second.Bytes())
}

func TestRunRejectsGarbage(t *testing.T) {
	var out bytes.Buffer
	err := Run(bytes.NewReader([]byte("%PDF-1.4\ngarbage")), &out, RunOptions{})
	assert.Error(t, err)
	assert.Zero(t, out.Len())
}
