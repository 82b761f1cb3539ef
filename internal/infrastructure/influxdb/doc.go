// Package influxdb provides optional InfluxDB telemetry for Tracker Core.
//
// When enabled, every stored fix is mirrored as a point in the
// "fix_telemetry" measurement (battery, speed, accuracy, position), tagged
// with its ingestion source and the site id. The SQLite fix store stays authoritative;
// InfluxDB is only a charting copy.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB, cfg.Site.ID)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteFix("http", fix)
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes; write errors
// are delivered to the SetOnError callback.
package influxdb
