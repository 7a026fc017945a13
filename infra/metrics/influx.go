package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/tguellec/qcdispatch/core/metrics"
	"github.com/tguellec/qcdispatch/infra/logger"
)

// InfluxSink writes firing events to an InfluxDB instance using the official
// client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg coremetrics.Config) *InfluxSink {
	client := influxdb2.NewClientWithOptions(cfg.InfluxURL, cfg.InfluxToken,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.InfluxOrg, cfg.InfluxBucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(cfg coremetrics.Config) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
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

// RecordFiring writes the firing as a line protocol event.
func (s *InfluxSink) RecordFiring(res coremetrics.FiringResult) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("qc_firing").
		AddTag("dispatch_id", res.DispatchID).
		AddTag("manual", strconv.FormatBool(res.Manual)).
		AddField("task_count", res.TaskCount).
		AddField("personnel", res.Personnel).
		AddField("forms", res.Forms).
		AddField("dispatch_time", res.DispatchTime.UnixNano()).
		SetTime(res.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordNotification writes one notification attempt.
func (s *InfluxSink) RecordNotification(ev coremetrics.NotificationEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("qc_notification").
		AddTag("dispatch_id", ev.DispatchID).
		AddTag("personnel_id", ev.PersonnelID).
		AddTag("delivered", strconv.FormatBool(ev.Delivered)).
		AddField("locator", ev.Locator).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close shuts down the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }
