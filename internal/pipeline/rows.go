package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/shpitdev/customer-news-enricher/internal/enrich"
	"github.com/shpitdev/customer-news-enricher/internal/source"
)

// NewsField is the output key holding the enrichment object.
const NewsField = "news"

// Generator produces at most one enrichment per customer name. ok=false means absent.
type Generator interface {
	Generate(ctx context.Context, customerName string) (enrich.Enrichment, bool)
}

// Row is an input record plus its enrichment. News is nil when generation failed.
type Row struct {
	Record source.Record
	News   *enrich.Enrichment
}

// EnrichedDataset keeps the input column order and one Row per input record.
type EnrichedDataset struct {
	Columns []string
	Rows    []Row
}

// Present returns the rows that carry an enrichment, in input order.
func (d EnrichedDataset) Present() []Row {
	out := make([]Row, 0, len(d.Rows))
	for _, r := range d.Rows {
		if r.News != nil {
			out = append(out, r)
		}
	}
	return out
}

// Enrich calls gen once per record, sequentially and in input order.
//
// Failed generations are recorded as a nil News and do not stop the run.
func Enrich(ctx context.Context, ds source.Dataset, gen Generator, logger *zap.Logger) EnrichedDataset {
	start := time.Now()
	out := EnrichedDataset{
		Columns: ds.Columns,
		Rows:    make([]Row, len(ds.Records)),
	}

	okRows := 0
	for i, rec := range ds.Records {
		out.Rows[i] = Row{Record: rec}
		news, ok := gen.Generate(ctx, rec.Name)
		if !ok {
			continue
		}
		out.Rows[i].News = &news
		okRows++
	}

	logger.Info("enrichment complete",
		zap.Int("records", len(ds.Records)),
		zap.Int("ok", okRows),
		zap.Int("absent", len(ds.Records)-okRows),
		zap.Duration("duration", time.Since(start).Round(time.Millisecond)),
	)
	return out
}
