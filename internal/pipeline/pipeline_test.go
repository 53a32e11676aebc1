package pipeline_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"github.com/shpitdev/customer-news-enricher/internal/enrich"
	"github.com/shpitdev/customer-news-enricher/internal/pipeline"
	"github.com/shpitdev/customer-news-enricher/internal/source"
)

const icon = "https://icons.test/credit.svg"

// testGenerator fails for names listed in fail and records every call.
type testGenerator struct {
	fail  map[string]bool
	calls []string
}

func (g *testGenerator) Generate(_ context.Context, name string) (enrich.Enrichment, bool) {
	g.calls = append(g.calls, name)
	if g.fail[name] {
		return enrich.Enrichment{}, false
	}
	return enrich.Enrichment{Icon: icon, Description: "Olá " + name + ", invista!"}, true
}

func dataset(names ...string) source.Dataset {
	ds := source.Dataset{Columns: []string{"id", "name"}}
	for i, n := range names {
		ds.Records = append(ds.Records, source.Record{ID: fmt.Sprint(i + 1), Name: n, Extra: map[string]string{}})
	}
	return ds
}

func TestEnrich_OneResultPerRecordInOrder(t *testing.T) {
	t.Parallel()

	ds := dataset("Ana", "Bruno", "Carla", "Davi", "Eva")
	gen := &testGenerator{fail: map[string]bool{"Bruno": true, "Davi": true}}

	out := pipeline.Enrich(context.Background(), ds, gen, zap.NewNop())

	if diff := cmp.Diff([]string{"Ana", "Bruno", "Carla", "Davi", "Eva"}, gen.calls); diff != "" {
		t.Fatalf("generator calls (-want +got):\n%s", diff)
	}
	if len(out.Rows) != len(ds.Records) {
		t.Fatalf("expected %d rows, got %d", len(ds.Records), len(out.Rows))
	}
	for i, row := range out.Rows {
		if diff := cmp.Diff(ds.Records[i], row.Record); diff != "" {
			t.Fatalf("row[%d] record changed (-want +got):\n%s", i, diff)
		}
		wantAbsent := gen.fail[row.Record.Name]
		if (row.News == nil) != wantAbsent {
			t.Fatalf("row[%d] news=%#v, want absent=%t", i, row.News, wantAbsent)
		}
	}

	var kept []string
	for _, r := range out.Present() {
		kept = append(kept, r.Record.Name)
	}
	if diff := cmp.Diff([]string{"Ana", "Carla", "Eva"}, kept); diff != "" {
		t.Fatalf("present rows (-want +got):\n%s", diff)
	}
}

func TestEnrich_EmptyDataset(t *testing.T) {
	t.Parallel()

	gen := &testGenerator{}
	out := pipeline.Enrich(context.Background(), dataset(), gen, zap.NewNop())
	if len(out.Rows) != 0 || len(gen.calls) != 0 {
		t.Fatalf("unexpected output rows=%d calls=%d", len(out.Rows), len(gen.calls))
	}
}

func TestEnrich_SecondOfThreeFails(t *testing.T) {
	t.Parallel()

	gen := &testGenerator{fail: map[string]bool{"Bruno": true}}
	out := pipeline.Enrich(context.Background(), dataset("Ana", "Bruno", "Carla"), gen, zap.NewNop())

	var buf bytes.Buffer
	if err := pipeline.WriteJSON(&buf, out); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var got []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("parse output: %v\n%s", err, buf.String())
	}
	want := []map[string]any{
		{"id": float64(1), "name": "Ana", "news": map[string]any{"icon": icon, "description": "Olá Ana, invista!"}},
		{"id": float64(3), "name": "Carla", "news": map[string]any{"icon": icon, "description": "Olá Carla, invista!"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteJSON_Format(t *testing.T) {
	t.Parallel()

	ds := pipeline.EnrichedDataset{
		Columns: []string{"name", "id", "balance", "note", "city"},
		Rows: []pipeline.Row{
			{
				Record: source.Record{ID: "10", Name: "João <VIP>", Extra: map[string]string{"balance": "1500.50", "note": "", "city": "São Paulo"}},
				News:   &enrich.Enrichment{Icon: icon, Description: "João, invista & prospere!"},
			},
			{
				Record: source.Record{ID: "11", Name: "Skipped", Extra: map[string]string{"balance": "0", "note": "x", "city": "Recife"}},
			},
		},
	}

	var buf bytes.Buffer
	if err := pipeline.WriteJSON(&buf, ds); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	want := strings.Join([]string{
		`[`,
		`    {`,
		`        "name": "João <VIP>",`,
		`        "id": "10",`,
		`        "balance": "1500.50",`,
		`        "note": null,`,
		`        "city": "São Paulo",`,
		`        "news": {`,
		`            "icon": "` + icon + `",`,
		`            "description": "João, invista & prospere!"`,
		`        }`,
		`    }`,
		`]`,
		``,
	}, "\n")
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteJSON_CellsKeepTheirText(t *testing.T) {
	t.Parallel()

	news := &enrich.Enrichment{Icon: icon, Description: "Invista."}
	ds := pipeline.EnrichedDataset{
		Columns: []string{"id", "name", "account"},
		Rows: []pipeline.Row{
			{Record: source.Record{ID: "12345678901234567890", Name: "007", Extra: map[string]string{"account": "0001"}}, News: news},
			{Record: source.Record{ID: " 42 ", Name: "1e3", Extra: map[string]string{"account": "AB-12"}}, News: news},
			{Record: source.Record{ID: "3", Name: "NaN", Extra: map[string]string{"account": ""}}, News: news},
		},
	}

	var buf bytes.Buffer
	if err := pipeline.WriteJSON(&buf, ds); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var got []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal output: %v", err)
	}
	for _, rec := range got {
		delete(rec, pipeline.NewsField)
	}
	want := []map[string]any{
		{"id": "12345678901234567890", "name": "007", "account": "0001"},
		{"id": " 42 ", "name": "1e3", "account": "AB-12"},
		{"id": "3", "name": "NaN", "account": nil},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("cells changed (-want +got):\n%s", diff)
	}
}

func TestWriteJSON_NothingEnriched(t *testing.T) {
	t.Parallel()

	ds := pipeline.EnrichedDataset{
		Columns: []string{"id", "name"},
		Rows:    []pipeline.Row{{Record: source.Record{ID: "1", Name: "Ana"}}},
	}
	var buf bytes.Buffer
	if err := pipeline.WriteJSON(&buf, ds); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if buf.String() != "[]\n" {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}
