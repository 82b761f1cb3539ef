// Package mqtt provides MQTT client connectivity for Tracker Core.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Subscription to device location payloads
//   - Publication of recorded fixes and retained day classifications
//   - Last Will and Testament (LWT) for offline detection
//
// # Topics
//
// Every topic lives under the configured prefix (default "tracker"):
//
//	tracker/device/{device}/location   device -> tracker, location payloads
//	tracker/fix/recorded               tracker -> consumers, one per stored fix
//	tracker/visits/{date}              tracker -> consumers, retained
//	tracker/system/status              online/offline, retained, LWT
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(client.Topics().AllDeviceLocations(), 1, handler)
//	err = client.PublishVisits("2024-06-01", payload)
package mqtt
