// Package mqtt connects hubibot to an MQTT broker.
//
// When mqtt.enabled is set, every executed chat command is published as a
// JSON event on <prefix>/command/<command>, and any message on
// <prefix>/refresh drops the cached device list so the next command
// re-reads the hub inventory. The retained <prefix>/status topic reports
// online/offline, using the broker's Last Will for crashes.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.OnRefresh(registry.Refresh)
//	err = client.Publish(client.Topics().Command("on"), payload, client.QoS(), false)
package mqtt
