package extractor

import (
	"context"
	"testing"

	"github.com/jokari/knowledgehub/schema"
)

func objectionDescriptor(t *testing.T) *schema.Descriptor {
	t.Helper()
	d, err := schema.NewRegistry().SchemaFor(schema.DocTypeObjection)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestExtractSingleRecordFromLabeledText(t *testing.T) {
	e := NewStub()
	text := "Einwand: Das ist zu teuer\nAntwort: Der ROI amortisiert sich in 6 Monaten."

	result, err := e.Extract(context.Background(), text, objectionDescriptor(t), Context{ChunkIndex: 0})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Records) != 1 {
		t.Fatalf("got %d records, want 1", len(result.Records))
	}
	rec := result.Records[0]
	if rec.Data["objection_text"] != "Das ist zu teuer" {
		t.Errorf("objection_text = %v", rec.Data["objection_text"])
	}
	if rec.Data["response"] != "Der ROI amortisiert sich in 6 Monaten." {
		t.Errorf("response = %v", rec.Data["response"])
	}
}

func TestExtractMultiRecordSplitsOnTitelMarkers(t *testing.T) {
	e := NewStub()
	desc, err := schema.NewRegistry().SchemaFor(schema.DocTypeProductSpec)
	if err != nil {
		t.Fatal(err)
	}

	text := "Titel: Kabelschere A\nBeschreibung: " + repeat("x", 210) + "\n\n" +
		"Titel: Kabelschere B\nBeschreibung: " + repeat("y", 210)

	result, err := e.Extract(context.Background(), text, desc, Context{ChunkIndex: 0})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Records) != 2 {
		t.Fatalf("got %d records, want 2", len(result.Records))
	}
	if result.Records[0].SourceSection != "Kabelschere A" {
		t.Errorf("section title = %q", result.Records[0].SourceSection)
	}
}

func TestExtractJokariArtnr(t *testing.T) {
	data := map[string]any{}
	extractJokariProductFields("12345_kabelschere.jpg product info", data)
	if data["artnr"] != "12345" {
		t.Errorf("artnr = %v", data["artnr"])
	}
}

func repeat(s string, n int) string {
	out := make([]byte, 0, n*len(s))
	for i := 0; i < n; i++ {
		out = append(out, s...)
	}
	return string(out)
}
