// Package influxdb writes access-log telemetry to InfluxDB.
//
// Every recorded event becomes one access_event point tagged with the
// sensor, kind and result, so dashboards can chart permitted and denied
// attempts per reader without touching the SQLite log.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	recorder.AddObserver(client)
//
// Writes are non-blocking and batched (batch_size, flush_interval); write
// failures arrive through the SetOnError callback.
package influxdb
