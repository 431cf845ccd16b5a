package forestgis

import (
	"math"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"testing"
)

func TestSplitSizes(t *testing.T) {
	tts := []struct {
		n, k int
		want []int
	}{
		{10, 3, []int{4, 3, 3}},
		{9, 3, []int{3, 3, 3}},
		{2, 4, []int{1, 1, 0, 0}},
		{0, 2, []int{0, 0}},
	}
	for i, tt := range tts {
		if got := SplitSizes(tt.n, tt.k); !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("#%d: SplitSizes(%d, %d) = %v, want %v", i, tt.n, tt.k, got, tt.want)
		}
	}
}

func sampleRows() (rows []SampleRow) {
	for i := 1; i <= 6; i++ {
		rows = append(rows,
			SampleRow{Class: "eucalipto", Predictor: "ndvi", Median: float64(i)},
			SampleRow{Class: "eucalipto", Predictor: "b4", Median: float64(10 * i)},
		)
	}
	rows = append(rows,
		SampleRow{Class: "pinus", Predictor: "ndvi", Median: 0.5},
		SampleRow{Class: "pinus", Predictor: "b4", Median: math.NaN()},
	)
	return
}

func TestGenerateCompositeSamples(t *testing.T) {
	samples, preds := GenerateCompositeSamples(sampleRows(), 3, DEFAULT_SEED)
	if !reflect.DeepEqual(preds, []string{"b4", "ndvi"}) {
		t.Fatalf("predictors = %v", preds)
	}
	if len(samples) != 6 {
		t.Fatalf("got %d samples, want 6", len(samples))
	}
	for i, s := range samples {
		wantClass, wantId := "eucalipto", i+1
		if i >= 3 {
			wantClass, wantId = "pinus", i-2
		}
		if s.Class != wantClass || s.SampleId != wantId {
			t.Fatalf("#%d: got %s/%d, want %s/%d", i, s.Class, s.SampleId, wantClass, wantId)
		}
	}
	// each block holds two of the six values, so the block means add up to the total / 2
	var sum float64
	for _, s := range samples[:3] {
		sum += s.Values["ndvi"]
	}
	if math.Abs(sum-21.0/2) > 1e-9 {
		t.Fatalf("sum of ndvi block means = %v, want 10.5", sum)
	}
	if samples[3].Values["ndvi"] != 0.5 {
		t.Fatalf("pinus first block = %v, want 0.5", samples[3].Values["ndvi"])
	}
	if !math.IsNaN(samples[4].Values["ndvi"]) || !math.IsNaN(samples[3].Values["b4"]) {
		t.Fatal("empty or all-NaN blocks must be NaN")
	}

	again, _ := GenerateCompositeSamples(sampleRows(), 3, DEFAULT_SEED)
	if again[0].Values["ndvi"] != samples[0].Values["ndvi"] {
		t.Fatal("same seed must give the same blocks")
	}
}

func TestGenerateCompositeSamplesSingleBlock(t *testing.T) {
	samples, _ := GenerateCompositeSamples(sampleRows(), 1, 7)
	if got := samples[0].Values["b4"]; got != 35 {
		t.Fatalf("single block mean = %v, want 35", got)
	}
}

func TestCompositeSamplesFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "amostras.csv")
	content := " classe ;preditoras;median\nA;ndvi;1\nA;ndvi;3\nA;b4;10\nB;ndvi;2\n"
	if err := os.WriteFile(in, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := CompositeSamplesFile(in, 1, DEFAULT_SEED)
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	want := "amostra_id,classe,b4,ndvi\n1,A,10,2\n1,B,,2\n"
	if string(data) != want {
		t.Fatalf("got\n%s\nwant\n%s", data, want)
	}
}

func TestReadSampleRowsMissingColumns(t *testing.T) {
	in := filepath.Join(t.TempDir(), "x.csv")
	if err := os.WriteFile(in, []byte("classe;median\nA;1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := ReadSampleRows(in)
	if err == nil || !strings.Contains(err.Error(), FIELD_PREDICTOR) {
		t.Fatalf("expected missing column error, got %v", err)
	}
}

func TestUniqueInOrder(t *testing.T) {
	keys := uniqueInOrder(sampleRows(), func(r SampleRow) string { return r.Predictor })
	if !reflect.DeepEqual(keys, []string{"ndvi", "b4"}) {
		t.Fatalf("keys = %v", keys)
	}
	if sort.StringsAreSorted(keys) {
		t.Fatal("first-seen order expected")
	}
}
