// Package kafka publishes forecast-computed events so downstream consumers
// (dashboards, archival jobs) can follow what scenarios users explore.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/basinview/inflow-explorer/internal/domain"
)

// forecastEvent is the wire form of one computed forecast.
type forecastEvent struct {
	Input             domain.ForecastInput `json:"input"`
	PercentOfBaseline float64              `json:"percent_of_baseline"`
	RawPercent        float64              `json:"raw_percent"`
	AbsoluteMm        float64              `json:"absolute_mm"`
	AnalogYearCount   int                  `json:"analog_year_count"`
	AnalogYears       []int                `json:"analog_years"`
	ComputedAt        time.Time            `json:"computed_at"`
}

// Publisher produces forecast events to a Kafka topic.
// It implements pipeline.Publisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the forecast-event topic.
func NewPublisher(brokers []string, topic string, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// Publish serializes one forecast computation and writes it to the topic.
func (p *Publisher) Publish(ctx context.Context, input domain.ForecastInput, result domain.ForecastResult) error {
	msg, err := serializeToMessage(input, result)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a forecast computation into a Kafka message.
// Messages are keyed by computation timestamp so replays preserve order
// within a partition.
func serializeToMessage(input domain.ForecastInput, result domain.ForecastResult) (kafkago.Message, error) {
	event := forecastEvent{
		Input:             input,
		PercentOfBaseline: result.PercentOfBaseline,
		RawPercent:        result.RawPercent,
		AbsoluteMm:        result.AbsoluteMm,
		AnalogYearCount:   len(result.AnalogYears),
		AnalogYears:       analogYearNumbers(result.AnalogYears),
		ComputedAt:        result.ComputedAt,
	}
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize forecast event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(strconv.FormatInt(result.ComputedAt.UnixNano(), 10)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte("forecast_computed")},
			{Key: "computed_at", Value: []byte(result.ComputedAt.Format(time.RFC3339))},
		},
	}, nil
}

func analogYearNumbers(analogs []domain.AnalogYear) []int {
	years := make([]int, len(analogs))
	for i, a := range analogs {
		years[i] = a.Year
	}
	return years
}
