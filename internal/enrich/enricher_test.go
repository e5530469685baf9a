package enrich

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockrx/importer/internal/common"
	"github.com/stockrx/importer/internal/entity"
)

// fakeGenerator answers the collection call with canned prose and the
// extraction call with a canned JSON document. failAt aborts the Nth
// record (1-based) with failErr.
type fakeGenerator struct {
	calls   int
	records int
	failAt  int
	failErr error
	payload func(record int) string
}

func (f *fakeGenerator) TextModel() string { return "text-test" }

func (f *fakeGenerator) GenerateText(_ context.Context, _, prompt string) (string, error) {
	f.calls++
	collection := f.calls%2 == 1
	if collection {
		f.records++
	}
	if f.failAt > 0 && f.records == f.failAt {
		return "", f.failErr
	}
	if collection {
		return "Freeform notes about the medicine.", nil
	}
	return f.payload(f.records), nil
}

func validPayload(batchID, name string) string {
	return fmt.Sprintf(`{
		"batch_id": %q,
		"name": %q,
		"category": "Analgesics",
		"form": "Tablet",
		"quantity_per_pack": "15 tablets per strip",
		"cover_disease": "Fever, mild pain",
		"symptoms": "High temperature, headache",
		"side_effects": "Nausea in rare cases",
		"instructions": "One tablet after food, max 4 per day",
		"localized_description": "Bukhar aur dard ke liye."
	}`, batchID, name)
}

func record(batchID, name string) entity.ReconciledRecord {
	return entity.ReconciledRecord{
		ExtractedRecord: entity.ExtractedRecord{
			BatchID:  batchID,
			Name:     name,
			Price:    decimal.NewFromInt(30),
			Quantity: 4,
		},
		Classification: entity.ClassNew,
	}
}

func TestEnrichSuccess(t *testing.T) {
	inputs := []entity.ReconciledRecord{record("B1", "Dolo 650"), record("B2", "Crocin Advance")}
	gen := &fakeGenerator{payload: func(n int) string {
		return "```json\n" + validPayload(inputs[n-1].BatchID, inputs[n-1].Name) + "\n```"
	}}

	e := NewEnricher(gen, NopPacer{}, nil)
	out, err := e.Enrich(context.Background(), inputs)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, 4, gen.calls, "two provider calls per record")

	for i, rec := range out {
		assert.Equal(t, inputs[i].BatchID, rec.BatchID)
		assert.Equal(t, inputs[i].Name, rec.Name)
		assert.True(t, rec.Enrichment.Complete())
		assert.Equal(t, "Analgesics", rec.Category)
	}
}

func TestEnrichIgnoresModelIdentifierEcho(t *testing.T) {
	gen := &fakeGenerator{payload: func(int) string {
		return validPayload("WRONG-ID", "Wrong Name")
	}}

	e := NewEnricher(gen, NopPacer{}, nil)
	out, err := e.Enrich(context.Background(), []entity.ReconciledRecord{record("B1", "Dolo 650")})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "B1", out[0].BatchID)
	assert.Equal(t, "Dolo 650", out[0].Name)
}

func TestEnrichFailFastNoPartialResults(t *testing.T) {
	inputs := []entity.ReconciledRecord{
		record("B1", "Dolo 650"),
		record("B2", "Crocin Advance"),
		record("B3", "Cetirizine"),
	}
	gen := &fakeGenerator{
		failAt:  2,
		failErr: errors.New("provider status 500: internal"),
		payload: func(n int) string { return validPayload(inputs[n-1].BatchID, inputs[n-1].Name) },
	}

	e := NewEnricher(gen, NopPacer{}, nil)
	out, err := e.Enrich(context.Background(), inputs)
	require.Error(t, err)
	assert.Nil(t, out, "no partial results on failure")
	assert.Equal(t, common.KindEnrichmentFailed, common.KindOf(err))
	assert.Contains(t, err.Error(), `"Crocin Advance"`)
	assert.Contains(t, err.Error(), "remaining 1 item(s)")
}

func TestEnrichRateLimitClassification(t *testing.T) {
	gen := &fakeGenerator{
		failAt:  1,
		failErr: errors.New("provider status 429: RESOURCE_EXHAUSTED"),
	}

	e := NewEnricher(gen, NopPacer{}, nil)
	_, err := e.Enrich(context.Background(), []entity.ReconciledRecord{record("B1", "Dolo 650")})
	require.Error(t, err)
	assert.Equal(t, common.KindRateLimited, common.KindOf(err))
}

func TestEnrichRejectsInvalidSchema(t *testing.T) {
	gen := &fakeGenerator{payload: func(int) string {
		// Category outside the closed vocabulary.
		return `{"batch_id":"B1","name":"Dolo 650","category":"Magic Pills","form":"Tablet",
			"quantity_per_pack":"x","cover_disease":"x","symptoms":"x","side_effects":"x",
			"instructions":"x","localized_description":"x"}`
	}}

	e := NewEnricher(gen, NopPacer{}, nil)
	out, err := e.Enrich(context.Background(), []entity.ReconciledRecord{record("B1", "Dolo 650")})
	require.Error(t, err)
	assert.Nil(t, out)
	assert.Equal(t, common.KindEnrichmentFailed, common.KindOf(err))
}

func TestEnrichRejectsNonJSONAnswer(t *testing.T) {
	gen := &fakeGenerator{payload: func(int) string {
		return "Sorry, I cannot answer that."
	}}

	e := NewEnricher(gen, NopPacer{}, nil)
	_, err := e.Enrich(context.Background(), []entity.ReconciledRecord{record("B1", "Dolo 650")})
	require.Error(t, err)
	assert.Equal(t, common.KindEnrichmentFailed, common.KindOf(err))
}

func TestEnrichEmptyInput(t *testing.T) {
	e := NewEnricher(&fakeGenerator{}, NopPacer{}, nil)
	out, err := e.Enrich(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestEnrichCancelledContext(t *testing.T) {
	inputs := []entity.ReconciledRecord{record("B1", "A"), record("B2", "B")}
	gen := &fakeGenerator{payload: func(n int) string {
		return validPayload(inputs[n-1].BatchID, inputs[n-1].Name)
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// FixedDelayPacer honors the dead context before record two.
	e := NewEnricher(gen, NewFixedDelayPacer(time.Second), nil)
	_, err := e.Enrich(ctx, inputs)
	require.Error(t, err)
	assert.Equal(t, common.KindEnrichmentFailed, common.KindOf(err))
}
