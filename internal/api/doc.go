// Package api implements the HTTP REST API and WebSocket live feed for
// Tracker Core.
//
// This package provides:
//   - Device uploads (PUT /api/v1/upload) feeding the ingest pipeline
//   - Raw fix listings, day map pins and streamed GPX exports
//   - Zone administration (create, list, update, delete)
//   - Visit classification for a day and cross-day comparisons
//   - WebSocket hub broadcasting recorded fixes to live map clients
//   - Middleware stack (request ID, logging, recovery, CORS, body limits)
//
// # Graceful Degradation
//
// The server runs without MQTT or InfluxDB. Uploads and classification
// work; only visit publication returns 503 when no broker is connected.
//
// The administrative surface is unauthenticated and meant to sit behind a
// reverse proxy.
package api
