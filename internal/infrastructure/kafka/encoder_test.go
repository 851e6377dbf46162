package kafka

import (
	"testing"
	"time"

	"github.com/DRSN-tech/fontus/internal/usecase"
	"gotest.tools/v3/assert"
)

func TestProtoEncoderRoundTrip(t *testing.T) {
	event := &usecase.ProductChangedEvent{
		EventID:    "0b9f0c7e-4a0e-4c52-9a55-3f1d8f4f0c11",
		EventType:  usecase.ProductUpdated,
		ProductID:  42,
		Version:    3,
		Name:       "Product 1 updated",
		PriceCents: 2050,
		OccurredAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	payload, err := ProtoEncoder{}.Encode(event)
	assert.NilError(t, err)
	assert.Assert(t, len(payload) > 0)

	decoded, err := Decode(payload)
	assert.NilError(t, err)
	assert.DeepEqual(t, event, decoded)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte{0xff, 0xff, 0xff})
	assert.Assert(t, err != nil)
}
