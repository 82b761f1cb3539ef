package influxdb

import (
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/tracker-core/internal/infrastructure/metrics"
	"github.com/nerrad567/tracker-core/internal/tracking"
)

// measurementFix is the measurement holding per-fix telemetry.
const measurementFix = "fix_telemetry"

// WriteFix mirrors the telemetry of a stored fix.
//
// The point is timestamped with the device time of the fix, not the time of
// ingestion. The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - source: Ingestion source, stored as a tag ("http", "mqtt")
//   - fix: The stored fix
func (c *Client) WriteFix(source string, fix *tracking.Fix) {
	if !c.IsConnected() || fix == nil {
		return
	}
	c.writeAPI.WritePoint(fixPoint(source, fix))
	metrics.TelemetryPointsTotal.WithLabelValues("written").Inc()
}

// fixPoint builds the telemetry point for a fix.
func fixPoint(source string, fix *tracking.Fix) *write.Point {
	tags := map[string]string{
		"source": source,
		"mocked": boolTag(fix.Mocked),
	}
	fields := map[string]interface{}{
		"fix_id":    fix.ID,
		"latitude":  fix.Latitude,
		"longitude": fix.Longitude,
		"altitude":  fix.Altitude,
		"speed":     fix.Speed,
		"heading":   fix.Heading,
		"accuracy":  fix.Accuracy,
	}
	if fix.AltitudeAccuracy != nil {
		fields["altitude_accuracy"] = *fix.AltitudeAccuracy
	}
	if fix.Battery != nil {
		fields["battery_percentage"] = fix.Battery.Percentage
		fields["battery_charging"] = fix.Battery.Charging
	}
	return write.NewPoint(measurementFix, tags, fields, fix.Time())
}

func boolTag(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
