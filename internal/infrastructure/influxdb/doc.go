// Package influxdb writes hubibot's command audit trail to InfluxDB v2.
//
// Each executed chat command becomes one point per device it acted on in
// the bot_commands measurement (see bot.InfluxSink). Writes go through the
// client library's non-blocking batched API, sized by influxdb.batch_size
// and influxdb.flush_interval, so a slow or unreachable server never delays
// a chat reply.
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//	client.SetOnError(func(err error) { log.Warn("influxdb write failed", "error", err) })
package influxdb
