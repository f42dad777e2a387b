package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/tambula/dispatch/core/metrics"
	"github.com/tambula/dispatch/infra/logger"
)

// InfluxSink writes dispatch events to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB
// endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	client := influxdb2.NewClientWithOptions(url, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and returns
// a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordDispatch writes the cycle outcome as one point.
func (s *InfluxSink) RecordDispatch(ev coremetrics.DispatchEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("dispatch_cycle").
		AddTag("request_id", ev.RequestID).
		AddTag("service_type", string(ev.Service)).
		AddTag("city", ev.City).
		AddTag("success", strconv.FormatBool(ev.Success)).
		AddTag("reason", string(ev.Reason)).
		AddField("surge", ev.Surge).
		AddField("price_cdf", ev.PriceCDF).
		AddField("driver_km", ev.DriverKm).
		AddField("offers", ev.Offers).
		AddField("candidates", ev.Candidates).
		AddField("latency_ms", ev.Latency.Milliseconds()).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordOffer writes one offer round-trip.
func (s *InfluxSink) RecordOffer(ev coremetrics.OfferEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("driver_offer").
		AddTag("request_id", ev.RequestID).
		AddTag("driver_id", ev.DriverID).
		AddTag("accepted", strconv.FormatBool(ev.Accepted)).
		AddField("attempt", ev.Attempt).
		AddField("timed_out", ev.TimedOut).
		AddField("latency_ms", ev.Latency.Milliseconds()).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordSearch writes one radius search level.
func (s *InfluxSink) RecordSearch(ev coremetrics.CandidateSearchEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("candidate_search").
		AddTag("request_id", ev.RequestID).
		AddField("radius_km", ev.RadiusKm).
		AddField("found", ev.Found).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close shuts down the underlying client.
func (s *InfluxSink) Close() {
	s.client.Close()
}
