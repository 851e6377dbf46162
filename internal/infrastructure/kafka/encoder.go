package kafka

import (
	"time"

	"github.com/DRSN-tech/fontus/internal/usecase"
	"github.com/DRSN-tech/fontus/pkg/e"
	"github.com/jimlawless/whereami"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// ProtoEncoder сериализует ProductChangedEvent в google.protobuf.Struct.
type ProtoEncoder struct{}

func (ProtoEncoder) Encode(event *usecase.ProductChangedEvent) ([]byte, error) {
	msg, err := structpb.NewStruct(map[string]any{
		"event_id":    event.EventID,
		"event_type":  string(event.EventType),
		"product_id":  event.ProductID,
		"version":     event.Version,
		"name":        event.Name,
		"price_cents": event.PriceCents,
		"occurred_at": event.OccurredAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return proto.Marshal(msg)
}

// Decode — обратное преобразование, используется потребителями и тестами.
func Decode(payload []byte) (*usecase.ProductChangedEvent, error) {
	var msg structpb.Struct
	if err := proto.Unmarshal(payload, &msg); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	fields := msg.GetFields()
	occurredAt, err := time.Parse(time.RFC3339Nano, fields["occurred_at"].GetStringValue())
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &usecase.ProductChangedEvent{
		EventID:    fields["event_id"].GetStringValue(),
		EventType:  usecase.OutboxEventType(fields["event_type"].GetStringValue()),
		ProductID:  int64(fields["product_id"].GetNumberValue()),
		Version:    int64(fields["version"].GetNumberValue()),
		Name:       fields["name"].GetStringValue(),
		PriceCents: int64(fields["price_cents"].GetNumberValue()),
		OccurredAt: occurredAt,
	}, nil
}
