// Package ingest turns device location payloads into stored fixes.
//
// Payloads arrive over HTTP (PUT /api/v1/upload) or MQTT
// ({prefix}/device/{device}/location) and share one JSON shape:
//
//	{
//	  "location": {
//	    "coords": {"latitude": 51.5, "longitude": -0.12, "accuracy": 5, ...},
//	    "mocked": false,
//	    "timestamp": 1717232400000
//	  },
//	  "battery": {"percentage": 80, "charging": true}
//	}
//
// Record validates and stores a fix, then fans it out to the optional
// telemetry mirror, the MQTT fix-recorded topic and live WebSocket clients.
// Fan-out failures are logged; they never fail an accepted fix.
package ingest
